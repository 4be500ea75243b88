package duckdb

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/tickerflow/tickerdesk/internal/model"
)

func TestGetStock(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store)

	st, err := store.GetStock(context.Background(), " msft ")
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	if st.Ticker != "MSFT" || st.Exchange != "NASDAQ" {
		t.Errorf("stock = %+v", st)
	}

	_, err = store.GetStock(context.Background(), "TSLA")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("GetStock(TSLA) err = %v, want ErrNotFound", err)
	}
}

func TestGetIngestionRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := uuid.New()
	if err := store.InsertIngestionRuns(ctx, []model.IngestionRun{
		{ID: id, Ticker: "AAPL", State: model.StateFailed, ErrorMessage: "timeout", CreatedAt: at(0)},
	}); err != nil {
		t.Fatalf("InsertIngestionRuns: %v", err)
	}

	run, err := store.GetIngestionRun(ctx, id)
	if err != nil {
		t.Fatalf("GetIngestionRun: %v", err)
	}
	if run.ID != id || run.State != model.StateFailed || run.ErrorMessage != "timeout" {
		t.Errorf("run = %+v", run)
	}

	_, err = store.GetIngestionRun(ctx, uuid.New())
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("unknown run err = %v, want ErrNotFound", err)
	}
}

func TestStockStatus(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store)
	ctx := context.Background()

	latest := uuid.New()
	if err := store.InsertIngestionRuns(ctx, []model.IngestionRun{
		{Ticker: "AAPL", State: model.StateDone, CreatedAt: at(20)},
		{ID: latest, Ticker: "AAPL", State: model.StateFetching, CreatedAt: at(30)},
		{Ticker: "MSFT", State: model.StateFailed, CreatedAt: at(40)},
	}); err != nil {
		t.Fatalf("InsertIngestionRuns: %v", err)
	}

	status, err := store.StockStatus(ctx, "aapl")
	if err != nil {
		t.Fatalf("StockStatus: %v", err)
	}
	if status.Ticker != "AAPL" || status.StockID == uuid.Nil {
		t.Errorf("status = %+v", status)
	}
	if status.RunID == nil || *status.RunID != latest {
		t.Errorf("RunID = %v, want %s", status.RunID, latest)
	}
	if status.State == nil || *status.State != model.StateFetching {
		t.Errorf("State = %v, want FETCHING", status.State)
	}
	if status.CreatedAt == nil || !status.CreatedAt.Equal(at(30)) {
		t.Errorf("CreatedAt = %v, want %v", status.CreatedAt, at(30))
	}

	status, err = store.StockStatus(ctx, "XOM")
	if err != nil {
		t.Fatalf("StockStatus(XOM): %v", err)
	}
	if status.Ticker != "XOM" || status.RunID != nil || status.State != nil {
		t.Errorf("never-ingested status = %+v", status)
	}

	if _, err := store.StockStatus(ctx, "TSLA"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("StockStatus(TSLA) err = %v, want ErrNotFound", err)
	}
}

func TestBulkQueueRunStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	bulk, other := uuid.New(), uuid.New()
	if err := store.InsertBulkQueueRuns(ctx, []model.BulkQueueRun{
		{ID: bulk, RequestedBy: "ops", TotalStocks: 4, QueuedCount: 4, CreatedAt: at(0)},
		{ID: other, RequestedBy: "ops", CreatedAt: at(1)},
	}); err != nil {
		t.Fatalf("InsertBulkQueueRuns: %v", err)
	}
	if err := store.InsertIngestionRuns(ctx, []model.IngestionRun{
		{Ticker: "AAPL", State: model.StateDone, BulkQueueRunID: &bulk, CreatedAt: at(2)},
		{Ticker: "MSFT", State: model.StateDone, BulkQueueRunID: &bulk, CreatedAt: at(3)},
		{Ticker: "XOM", State: model.StateFailed, BulkQueueRunID: &bulk, CreatedAt: at(4)},
		{Ticker: "SHEL", BulkQueueRunID: &bulk, CreatedAt: at(5)},
		{Ticker: "KO", State: model.StateFailed, BulkQueueRunID: &other, CreatedAt: at(6)},
		{Ticker: "PEP", State: model.StateFailed, CreatedAt: at(7)},
	}); err != nil {
		t.Fatalf("InsertIngestionRuns: %v", err)
	}

	stats, err := store.BulkQueueRunStats(ctx, bulk)
	if err != nil {
		t.Fatalf("BulkQueueRunStats: %v", err)
	}
	if stats.ID != bulk || stats.TotalStocks != 4 {
		t.Errorf("run = %+v", stats.BulkQueueRun)
	}
	got := stats.IngestionRunStats
	if got.Total != 4 {
		t.Errorf("Total = %d, want 4", got.Total)
	}
	want := map[model.IngestionState]int{
		model.StateDone:           2,
		model.StateFailed:         1,
		model.StateQueuedForFetch: 1,
	}
	for _, s := range model.IngestionStates {
		if got.ByState[s] != want[s] {
			t.Errorf("ByState[%s] = %d, want %d", s, got.ByState[s], want[s])
		}
	}

	empty, err := store.BulkQueueRunStats(ctx, other)
	if err != nil {
		t.Fatalf("BulkQueueRunStats(other): %v", err)
	}
	if empty.IngestionRunStats.Total != 1 || len(empty.IngestionRunStats.ByState) != len(model.IngestionStates) {
		t.Errorf("other stats = %+v", empty.IngestionRunStats)
	}

	if _, err := store.BulkQueueRunStats(ctx, uuid.New()); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("unknown bulk run err = %v, want ErrNotFound", err)
	}
}
