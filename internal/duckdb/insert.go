package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tickerflow/tickerdesk/internal/model"
)

// InsertExchanges stores exchanges, upper-casing their names. Zero IDs and
// timestamps are filled in.
func (s *Store) InsertExchanges(ctx context.Context, exchanges []model.Exchange) error {
	return s.insertTx(ctx, len(exchanges), `INSERT INTO exchanges (id, name, created_at) VALUES (?, ?, ?)`,
		func(ctx context.Context, stmt *sql.Stmt, i int, now time.Time) error {
			ex := exchanges[i]
			_, err := stmt.ExecContext(ctx, idOrNew(ex.ID), strings.ToUpper(strings.TrimSpace(ex.Name)), orNow(ex.CreatedAt, now))
			return err
		})
}

// InsertStocks stores stocks. Tickers are upper-cased and the exchange is
// resolved by name; an unknown exchange name leaves the stock unlinked.
func (s *Store) InsertStocks(ctx context.Context, stocks []model.Stock) error {
	return s.insertTx(ctx, len(stocks), `INSERT INTO stocks (id, ticker, name, sector, industry, exchange_id, country, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, (SELECT id FROM exchanges WHERE name = upper(CAST(? AS VARCHAR))), ?, ?, ?)`,
		func(ctx context.Context, stmt *sql.Stmt, i int, now time.Time) error {
			st := stocks[i]
			ticker := strings.ToUpper(strings.TrimSpace(st.Ticker))
			if ticker == "" {
				return fmt.Errorf("stock %d: empty ticker", i)
			}
			created := orNow(st.CreatedAt, now)
			_, err := stmt.ExecContext(ctx, idOrNew(st.ID), ticker, st.Name, st.Sector, st.Industry,
				strings.TrimSpace(st.Exchange), st.Country, created, orNow(st.UpdatedAt, created))
			return err
		})
}

// InsertIngestionRuns stores ingestion runs. An empty state means queued.
func (s *Store) InsertIngestionRuns(ctx context.Context, runs []model.IngestionRun) error {
	return s.insertTx(ctx, len(runs), `INSERT INTO ingestion_runs (id, ticker, state, requested_by, bulk_queue_run_id, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		func(ctx context.Context, stmt *sql.Stmt, i int, now time.Time) error {
			run := runs[i]
			state := run.State
			if state == "" {
				state = model.StateQueuedForFetch
			}
			if !state.Valid() {
				return fmt.Errorf("run %d: unknown state %q", i, state)
			}
			var bulk any
			if run.BulkQueueRunID != nil {
				bulk = run.BulkQueueRunID.String()
			}
			created := orNow(run.CreatedAt, now)
			_, err := stmt.ExecContext(ctx, idOrNew(run.ID), strings.ToUpper(strings.TrimSpace(run.Ticker)), string(state),
				run.RequestedBy, bulk, run.ErrorMessage, created, orNow(run.UpdatedAt, created))
			return err
		})
}

// InsertBulkQueueRuns stores bulk-queue runs.
func (s *Store) InsertBulkQueueRuns(ctx context.Context, runs []model.BulkQueueRun) error {
	return s.insertTx(ctx, len(runs), `INSERT INTO bulk_queue_runs (id, requested_by, total_stocks, queued_count, skipped_count, error_count, created_at, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		func(ctx context.Context, stmt *sql.Stmt, i int, now time.Time) error {
			run := runs[i]
			_, err := stmt.ExecContext(ctx, idOrNew(run.ID), run.RequestedBy, run.TotalStocks, run.QueuedCount,
				run.SkippedCount, run.ErrorCount, orNow(run.CreatedAt, now), nullTime(run.StartedAt), nullTime(run.CompletedAt))
			return err
		})
}

// insertTx prepares query once and executes it n times in one transaction.
func (s *Store) insertTx(ctx context.Context, n int, query string, exec func(ctx context.Context, stmt *sql.Stmt, i int, now time.Time) error) error {
	if n == 0 {
		return nil
	}

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < n; i++ {
		if err := exec(ctx, stmt, i, now); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func idOrNew(id uuid.UUID) string {
	if id == uuid.Nil {
		id = uuid.New()
	}
	return id.String()
}

// orNow truncates to the microsecond precision DuckDB stores.
func orNow(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t.UTC().Truncate(time.Microsecond)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Truncate(time.Microsecond)
}
