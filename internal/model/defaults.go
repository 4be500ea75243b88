package model

import "time"

// Shared defaults used by both the service and console binaries.
const (
	DefaultPageSize      = 50
	MaxPageSize          = 100
	DefaultDebounceDelay = 400 * time.Millisecond
	DefaultQueryTimeout  = 30 * time.Second
)
