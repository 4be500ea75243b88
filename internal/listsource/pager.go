package listsource

import (
	"context"
	"errors"
	"net/url"

	"github.com/tickerflow/tickerdesk/internal/listsync"
	"github.com/tickerflow/tickerdesk/internal/model"
	"github.com/tickerflow/tickerdesk/internal/socketrpc"
)

// PagerFunc lists one page of T, as model.ListReader methods do.
type PagerFunc[T any] func(ctx context.Context, q model.ListQuery) (model.Page[T], error)

// PagerSource adapts a PagerFunc to listsync.DataSource. Cursors are
// handed back as relative references of the form ?cursor=...
type PagerSource[T any] struct {
	list PagerFunc[T]
}

func NewPagerSource[T any](list PagerFunc[T]) *PagerSource[T] {
	return &PagerSource[T]{list: list}
}

// Fetch implements listsync.DataSource.
func (s *PagerSource[T]) Fetch(ctx context.Context, pageSize int, cursor string, filters map[string]string) (listsync.Result[T], error) {
	page, err := s.list(ctx, model.ListQuery{PageSize: pageSize, Cursor: cursor, Filters: filters})
	if err != nil {
		return listsync.Result[T]{}, classify(ctx, err)
	}
	return listsync.Result[T]{
		Items:             page.Items,
		NextReference:     reference(page.NextCursor),
		PreviousReference: reference(page.PreviousCursor),
	}, nil
}

func reference(cursor string) string {
	if cursor == "" {
		return ""
	}
	return "?" + url.Values{listsync.CursorParam: {cursor}}.Encode()
}

// classify sorts a reader error into the listsync error taxonomy.
func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var rpcErr *socketrpc.RPCError
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, model.ErrInvalidCursor), errors.Is(err, model.ErrInvalidFilter), errors.Is(err, model.ErrNotFound):
		return &listsync.SourceError{Message: err.Error()}
	case errors.As(err, &rpcErr):
		return &listsync.SourceError{Message: rpcErr.Message}
	default:
		return &listsync.TransportError{Op: "list", Err: err}
	}
}
