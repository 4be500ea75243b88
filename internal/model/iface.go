package model

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Resource names a listable collection exposed by the service.
type Resource string

const (
	ResourceExchanges     Resource = "exchanges"
	ResourceTickers       Resource = "tickers"
	ResourceRuns          Resource = "runs"
	ResourceBulkQueueRuns Resource = "bulk-queue-runs"
)

// Valid reports whether r is a known resource.
func (r Resource) Valid() bool {
	switch r {
	case ResourceExchanges, ResourceTickers, ResourceRuns, ResourceBulkQueueRuns:
		return true
	}
	return false
}

// Sentinel errors shared by the store and both read surfaces.
var (
	ErrInvalidCursor = errors.New("invalid cursor")
	ErrInvalidFilter = errors.New("invalid filter value")
	ErrNotFound      = errors.New("not found")
)

// ListQuery selects one page of a resource.
// Filters carries transport-ready values keyed by filter name; unknown keys are ignored.
type ListQuery struct {
	PageSize int
	Cursor   string
	Filters  map[string]string
}

// Page is one window of an ordered result stream.
// An empty cursor means there is no page in that direction.
type Page[T any] struct {
	Items          []T
	NextCursor     string
	PreviousCursor string
}

// ListReader provides the read-only queries backing every list view and
// its detail panes. Single-record reads return an error wrapping
// ErrNotFound when nothing matches.
type ListReader interface {
	ListExchanges(ctx context.Context, q ListQuery) (Page[Exchange], error)
	ListStocks(ctx context.Context, q ListQuery) (Page[Stock], error)
	ListIngestionRuns(ctx context.Context, q ListQuery) (Page[IngestionRun], error)
	ListBulkQueueRuns(ctx context.Context, q ListQuery) (Page[BulkQueueRun], error)
	StockExists(ctx context.Context, ticker string) (bool, error)

	GetStock(ctx context.Context, ticker string) (Stock, error)
	GetIngestionRun(ctx context.Context, id uuid.UUID) (IngestionRun, error)
	StockStatus(ctx context.Context, ticker string) (StockStatus, error)
	BulkQueueRunStats(ctx context.Context, id uuid.UUID) (BulkQueueRunStats, error)
}

// CatalogWriter provides batch inserts used by seeding and tests.
type CatalogWriter interface {
	InsertExchanges(ctx context.Context, exchanges []Exchange) error
	InsertStocks(ctx context.Context, stocks []Stock) error
	InsertIngestionRuns(ctx context.Context, runs []IngestionRun) error
	InsertBulkQueueRuns(ctx context.Context, runs []BulkQueueRun) error
}
