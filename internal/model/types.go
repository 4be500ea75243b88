package model

import (
	"time"

	"github.com/google/uuid"
)

// IngestionState is a stage of the ticker ETL pipeline.
type IngestionState string

const (
	StateQueuedForFetch IngestionState = "QUEUED_FOR_FETCH"
	StateFetching       IngestionState = "FETCHING"
	StateFetched        IngestionState = "FETCHED"
	StateQueuedForDelta IngestionState = "QUEUED_FOR_DELTA"
	StateDeltaRunning   IngestionState = "DELTA_RUNNING"
	StateDeltaFinished  IngestionState = "DELTA_FINISHED"
	StateDone           IngestionState = "DONE"
	StateFailed         IngestionState = "FAILED"
)

// IngestionStates lists every state in pipeline order.
var IngestionStates = []IngestionState{
	StateQueuedForFetch,
	StateFetching,
	StateFetched,
	StateQueuedForDelta,
	StateDeltaRunning,
	StateDeltaFinished,
	StateDone,
	StateFailed,
}

// Valid reports whether s is a known state.
func (s IngestionState) Valid() bool {
	for _, known := range IngestionStates {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether the pipeline has stopped for this run.
func (s IngestionState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Exchange is a venue stocks are traded on. Names are stored upper-cased.
type Exchange struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Stock is one ticker symbol and the metadata the pipeline has gathered for it.
type Stock struct {
	ID        uuid.UUID `json:"id"`
	Ticker    string    `json:"ticker"`
	Name      string    `json:"name,omitempty"`
	Sector    string    `json:"sector,omitempty"`
	Industry  string    `json:"industry,omitempty"`
	Exchange  string    `json:"exchange_name,omitempty"`
	Country   string    `json:"country,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IngestionRun tracks one ticker's trip through the pipeline.
type IngestionRun struct {
	ID             uuid.UUID      `json:"id"`
	Ticker         string         `json:"ticker"`
	State          IngestionState `json:"state"`
	RequestedBy    string         `json:"requested_by,omitempty"`
	BulkQueueRunID *uuid.UUID     `json:"bulk_queue_run,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// BulkQueueRun aggregates the outcome of queueing every stock at once.
type BulkQueueRun struct {
	ID           uuid.UUID  `json:"id"`
	RequestedBy  string     `json:"requested_by,omitempty"`
	TotalStocks  int        `json:"total_stocks"`
	QueuedCount  int        `json:"queued_count"`
	SkippedCount int        `json:"skipped_count"`
	ErrorCount   int        `json:"error_count"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Completed reports whether the bulk operation has finished.
func (r BulkQueueRun) Completed() bool { return r.CompletedAt != nil }

// StockStatus is a stock and the state of its most recent ingestion run.
// The run fields are nil when the stock has never been ingested.
type StockStatus struct {
	Ticker    string          `json:"ticker"`
	StockID   uuid.UUID       `json:"stock_id"`
	RunID     *uuid.UUID      `json:"run_id"`
	State     *IngestionState `json:"state"`
	CreatedAt *time.Time      `json:"created_at"`
	UpdatedAt *time.Time      `json:"updated_at"`
}

// StateCounts tallies ingestion runs per state. ByState has an entry for
// every known state.
type StateCounts struct {
	Total   int                    `json:"total"`
	ByState map[IngestionState]int `json:"by_state"`
}

// NewStateCounts returns counts with every state at zero.
func NewStateCounts() StateCounts {
	by := make(map[IngestionState]int, len(IngestionStates))
	for _, s := range IngestionStates {
		by[s] = 0
	}
	return StateCounts{ByState: by}
}

// BulkQueueRunStats is a bulk-queue run with its ingestion runs counted by state.
type BulkQueueRunStats struct {
	BulkQueueRun
	IngestionRunStats StateCounts `json:"ingestion_run_stats"`
}
