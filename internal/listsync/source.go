package listsync

import "context"

// Result is one page returned by a DataSource. An empty reference means
// there are no more results in that direction.
type Result[T any] struct {
	Items             []T
	NextReference     string
	PreviousReference string
}

// DataSource fetches one page of T. Implementations should honour ctx
// cancellation and return *TransportError or *SourceError on failure.
type DataSource[T any] interface {
	Fetch(ctx context.Context, pageSize int, cursor string, filters map[string]string) (Result[T], error)
}

// SourceFunc adapts a function to DataSource.
type SourceFunc[T any] func(ctx context.Context, pageSize int, cursor string, filters map[string]string) (Result[T], error)

func (f SourceFunc[T]) Fetch(ctx context.Context, pageSize int, cursor string, filters map[string]string) (Result[T], error) {
	return f(ctx, pageSize, cursor, filters)
}
