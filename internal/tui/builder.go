package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tickerflow/tickerdesk/internal/listsource"
	"github.com/tickerflow/tickerdesk/internal/listsync"
	"github.com/tickerflow/tickerdesk/internal/logging"
	"github.com/tickerflow/tickerdesk/internal/model"
	"github.com/tickerflow/tickerdesk/internal/views"
)

// Options configures the controllers behind every page.
type Options struct {
	PageSize      int
	DebounceDelay time.Duration
	Location      *time.Location
	Logger        *log.Logger
}

// BuildPages creates one page per view, each with its own list controller.
// The returned func closes every controller.
func BuildPages(vs []views.View, set *listsource.Set, opts Options) ([]Page, func(), error) {
	if set == nil {
		return nil, nil, errors.New("no data sources")
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	var (
		pages   []Page
		closers []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	for _, v := range vs {
		var (
			page    Page
			closeFn func()
			err     error
		)
		switch v.Resource {
		case model.ResourceTickers:
			page, closeFn, err = buildPage[model.Stock](v, set.Stocks, stockColumns(opts.Location), opts)
		case model.ResourceRuns:
			page, closeFn, err = buildPage[model.IngestionRun](v, set.IngestionRuns, runColumns(opts.Location), opts,
				WithSummary[model.IngestionRun](renderRunsSummary))
		case model.ResourceBulkQueueRuns:
			var bulkOpts []ListPageOption[model.BulkQueueRun]
			if set.Stats != nil {
				bulkOpts = append(bulkOpts, bulkRunStatsDetail(set.Stats))
			}
			page, closeFn, err = buildPage[model.BulkQueueRun](v, set.BulkQueueRuns, bulkRunColumns(opts.Location), opts, bulkOpts...)
		case model.ResourceExchanges:
			page, closeFn, err = buildPage[model.Exchange](v, set.Exchanges, exchangeColumns(opts.Location), opts)
		default:
			err = fmt.Errorf("unknown resource %q", v.Resource)
		}
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("view %s: %w", v.ID, err)
		}
		pages = append(pages, page)
		closers = append(closers, closeFn)
	}
	return pages, closeAll, nil
}

// bulkRunStatsDetail charts the ingestion runs of the selected bulk-queue run.
func bulkRunStatsDetail(stats listsource.StatsFunc) ListPageOption[model.BulkQueueRun] {
	return WithDetail[model.BulkQueueRun, model.BulkQueueRunStats](
		func(r model.BulkQueueRun) string { return r.ID.String() },
		func(ctx context.Context, r model.BulkQueueRun) (model.BulkQueueRunStats, error) {
			return stats(ctx, r.ID)
		},
		renderBulkRunStats,
	)
}

func buildPage[T any](v views.View, src listsync.DataSource[T], registry map[string]Column[T], opts Options, pageOpts ...ListPageOption[T]) (*ListPage[T], func(), error) {
	if len(v.Columns) == 0 {
		return nil, nil, errors.New("no columns")
	}
	cols := make([]Column[T], 0, len(v.Columns))
	for _, name := range v.Columns {
		c, ok := registry[name]
		if !ok {
			return nil, nil, fmt.Errorf("unknown %s column %q", v.Resource, name)
		}
		cols = append(cols, c)
	}

	decls, err := v.Decls()
	if err != nil {
		return nil, nil, err
	}
	pageSize := v.PageSize
	if pageSize == 0 {
		pageSize = opts.PageSize
	}

	logger := opts.Logger.With("view", v.ID)
	ctrl, err := listsync.New[T](src, listsync.Config{
		PageSize:      pageSize,
		DebounceDelay: opts.DebounceDelay,
		Filters:       decls,
		Location:      opts.Location,
		Logger:        logger,
	})
	if err != nil {
		return nil, nil, err
	}
	pageOpts = append([]ListPageOption[T]{WithLogger[T](logger)}, pageOpts...)
	return NewListPage(v.ID, v.Title, ctrl, cols, pageOpts...), ctrl.Close, nil
}
