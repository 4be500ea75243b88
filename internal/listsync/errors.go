package listsync

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrValidationDropped marks a filter value that was excluded from the
	// transport parameters because it could not be normalized.
	ErrValidationDropped = errors.New("filter value dropped")

	// ErrSuperseded marks the outcome of a fetch that a newer fetch replaced.
	ErrSuperseded = errors.New("request superseded")

	ErrUnknownFilter   = errors.New("unknown filter key")
	ErrDuplicateFilter = errors.New("duplicate filter key")
	ErrNoDataSource    = errors.New("listsync: data source is required")
)

// ValidationError reports why a raw filter value was dropped.
type ValidationError struct {
	Key    string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("filter %s=%q: %s", e.Key, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidationDropped }

// TransportError wraps a network or decoding failure of a fetch.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// SourceError is a failure reported explicitly by the data source.
type SourceError struct {
	StatusCode int
	Message    string
}

func (e *SourceError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("data source returned %d: %s", e.StatusCode, e.Message)
}

// isAbort reports whether err means the fetch was cancelled rather than failed.
func isAbort(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, ErrSuperseded)
}
