package duckdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tickerflow/tickerdesk/internal/model"
)

// queryOne runs spec's select narrowed by where and returns the first row.
// The caller holds s.mu.
func queryOne[T any](ctx context.Context, s *Store, spec listSpec[T], where, order string, args ...any) (T, bool, error) {
	var zero T
	query := spec.from + " WHERE " + where
	if order != "" {
		query += " ORDER BY " + order
	}
	rows, err := s.db.QueryContext(ctx, query+" LIMIT 1", args...)
	if err != nil {
		return zero, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return zero, false, rows.Err()
	}
	item, err := spec.scan(rows)
	if err != nil {
		return zero, false, err
	}
	return item, true, nil
}

func normTicker(ticker string) string { return strings.ToUpper(strings.TrimSpace(ticker)) }

// GetStock returns the stock listed under ticker, ignoring case.
func (s *Store) GetStock(ctx context.Context, ticker string) (model.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	st, ok, err := queryOne(ctx, s, stockList, "s.ticker = ?", "", normTicker(ticker))
	if err != nil {
		return st, err
	}
	if !ok {
		return st, fmt.Errorf("stock %q: %w", normTicker(ticker), model.ErrNotFound)
	}
	return st, nil
}

// GetIngestionRun returns one ingestion run by ID.
func (s *Store) GetIngestionRun(ctx context.Context, id uuid.UUID) (model.IngestionRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	run, ok, err := queryOne(ctx, s, runList, "r.id = ?", "", id.String())
	if err != nil {
		return run, err
	}
	if !ok {
		return run, fmt.Errorf("run %s: %w", id, model.ErrNotFound)
	}
	return run, nil
}

// StockStatus returns ticker's stock with its most recent ingestion run.
func (s *Store) StockStatus(ctx context.Context, ticker string) (model.StockStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var status model.StockStatus
	st, ok, err := queryOne(ctx, s, stockList, "s.ticker = ?", "", normTicker(ticker))
	if err != nil {
		return status, err
	}
	if !ok {
		return status, fmt.Errorf("stock %q: %w", normTicker(ticker), model.ErrNotFound)
	}
	status.Ticker, status.StockID = st.Ticker, st.ID

	run, ok, err := queryOne(ctx, s, runList, "r.ticker = ?", "r.created_at DESC, r.id DESC", st.Ticker)
	if err != nil || !ok {
		return status, err
	}
	status.RunID = &run.ID
	status.State = &run.State
	status.CreatedAt = &run.CreatedAt
	status.UpdatedAt = &run.UpdatedAt
	return status, nil
}

// BulkQueueRunStats returns a bulk-queue run and counts its ingestion runs by state.
func (s *Store) BulkQueueRunStats(ctx context.Context, id uuid.UUID) (model.BulkQueueRunStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	stats := model.BulkQueueRunStats{IngestionRunStats: model.NewStateCounts()}
	run, ok, err := queryOne(ctx, s, bulkRunList, "b.id = ?", "", id.String())
	if err != nil {
		return stats, err
	}
	if !ok {
		return stats, fmt.Errorf("bulk queue run %s: %w", id, model.ErrNotFound)
	}
	stats.BulkQueueRun = run

	rows, err := s.db.QueryContext(ctx,
		`SELECT state, count(*) FROM ingestion_runs WHERE bulk_queue_run_id = ? GROUP BY state`, id.String())
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			state string
			n     int
		)
		if err := rows.Scan(&state, &n); err != nil {
			return stats, err
		}
		st := model.IngestionState(state)
		if !st.Valid() {
			s.logger.Warn("unknown ingestion state", "state", state, "bulk_queue_run", id)
			continue
		}
		stats.IngestionRunStats.ByState[st] = n
		stats.IngestionRunStats.Total += n
	}
	return stats, rows.Err()
}
