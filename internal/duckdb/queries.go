package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tickerflow/tickerdesk/internal/model"
	"github.com/tickerflow/tickerdesk/internal/pagination"
)

// listSpec describes one paginated listing.
type listSpec[T any] struct {
	from      string // SELECT ... FROM ... without WHERE
	createdAt string
	id        string
	filters   filterSet
	scan      func(*sql.Rows) (T, error)
	key       func(T) (time.Time, string)
}

// listPage runs a keyset-paginated query ordered newest first.
func listPage[T any](ctx context.Context, s *Store, spec listSpec[T], q model.ListQuery) (model.Page[T], error) {
	var page model.Page[T]

	w, err := pagination.Plan(q.Cursor, q.PageSize)
	if err != nil {
		return page, err
	}
	clauses, args, err := spec.filters.where(q.Filters)
	if err != nil {
		return page, err
	}

	order := "DESC"
	if w.After != nil {
		op := "<"
		if w.Reverse {
			op, order = ">", "ASC"
		}
		clauses = append(clauses, fmt.Sprintf("(%[1]s %[3]s ? OR (%[1]s = ? AND %[2]s %[3]s ?))", spec.createdAt, spec.id, op))
		args = append(args, w.After.CreatedAt, w.After.CreatedAt, w.After.ID)
	}

	var sb strings.Builder
	sb.WriteString(spec.from)
	if len(clauses) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(clauses, " AND "))
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s, %s %s LIMIT ?", spec.createdAt, order, spec.id, order)
	args = append(args, w.Limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return page, err
	}
	defer rows.Close()

	var items []T
	for rows.Next() {
		item, err := spec.scan(rows)
		if err != nil {
			s.logger.Warn("duckdb scan error", "query", spec.from, "err", err)
			continue
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return page, err
	}

	page.Items, page.NextCursor, page.PreviousCursor = pagination.Slice(w, items, spec.key)
	if page.Items == nil {
		page.Items = []T{}
	}
	return page, nil
}

var exchangeList = listSpec[model.Exchange]{
	from:      `SELECT e.id, e.name, e.created_at FROM exchanges e`,
	createdAt: "e.created_at",
	id:        "e.id",
	filters:   exchangeFilters,
	scan: func(rows *sql.Rows) (model.Exchange, error) {
		var ex model.Exchange
		err := rows.Scan(&ex.ID, &ex.Name, &ex.CreatedAt)
		return ex, err
	},
	key: func(ex model.Exchange) (time.Time, string) { return ex.CreatedAt, ex.ID.String() },
}

var stockList = listSpec[model.Stock]{
	from: `SELECT s.id, s.ticker, s.name, s.sector, s.industry, coalesce(e.name, ''), s.country, s.created_at, s.updated_at
		FROM stocks s LEFT JOIN exchanges e ON e.id = s.exchange_id`,
	createdAt: "s.created_at",
	id:        "s.id",
	filters:   stockFilters,
	scan: func(rows *sql.Rows) (model.Stock, error) {
		var st model.Stock
		err := rows.Scan(&st.ID, &st.Ticker, &st.Name, &st.Sector, &st.Industry, &st.Exchange, &st.Country, &st.CreatedAt, &st.UpdatedAt)
		return st, err
	},
	key: func(st model.Stock) (time.Time, string) { return st.CreatedAt, st.ID.String() },
}

var runList = listSpec[model.IngestionRun]{
	from: `SELECT r.id, r.ticker, r.state, r.requested_by, r.bulk_queue_run_id, r.error_message, r.created_at, r.updated_at
		FROM ingestion_runs r`,
	createdAt: "r.created_at",
	id:        "r.id",
	filters:   runFilters,
	scan: func(rows *sql.Rows) (model.IngestionRun, error) {
		var (
			run   model.IngestionRun
			state string
			bulk  uuid.NullUUID
		)
		if err := rows.Scan(&run.ID, &run.Ticker, &state, &run.RequestedBy, &bulk, &run.ErrorMessage, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return run, err
		}
		run.State = model.IngestionState(state)
		if bulk.Valid {
			id := bulk.UUID
			run.BulkQueueRunID = &id
		}
		return run, nil
	},
	key: func(run model.IngestionRun) (time.Time, string) { return run.CreatedAt, run.ID.String() },
}

var bulkRunList = listSpec[model.BulkQueueRun]{
	from: `SELECT b.id, b.requested_by, b.total_stocks, b.queued_count, b.skipped_count, b.error_count, b.created_at, b.started_at, b.completed_at
		FROM bulk_queue_runs b`,
	createdAt: "b.created_at",
	id:        "b.id",
	filters:   bulkRunFilters,
	scan: func(rows *sql.Rows) (model.BulkQueueRun, error) {
		var (
			run                model.BulkQueueRun
			started, completed sql.NullTime
		)
		if err := rows.Scan(&run.ID, &run.RequestedBy, &run.TotalStocks, &run.QueuedCount, &run.SkippedCount, &run.ErrorCount,
			&run.CreatedAt, &started, &completed); err != nil {
			return run, err
		}
		if started.Valid {
			run.StartedAt = &started.Time
		}
		if completed.Valid {
			run.CompletedAt = &completed.Time
		}
		return run, nil
	},
	key: func(run model.BulkQueueRun) (time.Time, string) { return run.CreatedAt, run.ID.String() },
}

// ListExchanges returns one page of exchanges, newest first.
func (s *Store) ListExchanges(ctx context.Context, q model.ListQuery) (model.Page[model.Exchange], error) {
	return listPage(ctx, s, exchangeList, q)
}

// ListStocks returns one page of stocks with their exchange names.
func (s *Store) ListStocks(ctx context.Context, q model.ListQuery) (model.Page[model.Stock], error) {
	return listPage(ctx, s, stockList, q)
}

// ListIngestionRuns returns one page of ingestion runs.
func (s *Store) ListIngestionRuns(ctx context.Context, q model.ListQuery) (model.Page[model.IngestionRun], error) {
	return listPage(ctx, s, runList, q)
}

// ListBulkQueueRuns returns one page of bulk-queue runs.
func (s *Store) ListBulkQueueRuns(ctx context.Context, q model.ListQuery) (model.Page[model.BulkQueueRun], error) {
	return listPage(ctx, s, bulkRunList, q)
}

// StockExists reports whether ticker is in the catalog, ignoring case.
func (s *Store) StockExists(ctx context.Context, ticker string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM stocks WHERE ticker = upper(CAST(? AS VARCHAR))`, strings.TrimSpace(ticker)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
