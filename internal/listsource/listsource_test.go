package listsource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickerflow/tickerdesk/internal/duckdb"
	"github.com/tickerflow/tickerdesk/internal/httpserver"
	"github.com/tickerflow/tickerdesk/internal/listsync"
	"github.com/tickerflow/tickerdesk/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newCatalog(t *testing.T) *duckdb.Store {
	t.Helper()
	store, err := duckdb.NewStore("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.InsertExchanges(ctx, []model.Exchange{{Name: "NASDAQ", CreatedAt: t0}}))
	var stocks []model.Stock
	for i := 0; i < 5; i++ {
		sector := "Technology"
		if i%2 == 1 {
			sector = "Energy"
		}
		stocks = append(stocks, model.Stock{
			Ticker:    fmt.Sprintf("TK%d", i),
			Sector:    sector,
			Exchange:  "NASDAQ",
			CreatedAt: t0.Add(time.Duration(i) * time.Minute),
		})
	}
	require.NoError(t, store.InsertStocks(ctx, stocks))
	return store
}

func stockTickers(items []model.Stock) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = s.Ticker
	}
	return out
}

func waitIdle[T any](t *testing.T, c *listsync.Controller[T]) {
	t.Helper()
	require.Eventually(t, func() bool { return !c.Loading() }, 5*time.Second, 5*time.Millisecond)
}

func walkStocks(t *testing.T, src listsync.DataSource[model.Stock]) {
	t.Helper()
	c, err := listsync.New[model.Stock](src, listsync.Config{
		PageSize: 2,
		Filters: []listsync.FilterDecl{
			{Key: "sector", Kind: listsync.KindExact},
			{Key: "ticker__icontains", Kind: listsync.KindContains},
		},
	})
	require.NoError(t, err)
	defer c.Close()

	c.Load()
	waitIdle(t, c)
	snap := c.Snapshot()
	require.Empty(t, snap.Err)
	assert.Equal(t, []string{"TK4", "TK3"}, stockTickers(snap.Items))
	assert.True(t, snap.HasNextPage)
	assert.False(t, snap.HasPreviousPage)

	require.True(t, c.NextPage())
	waitIdle(t, c)
	assert.Equal(t, []string{"TK2", "TK1"}, stockTickers(c.Items()))
	assert.True(t, c.HasPreviousPage())

	require.True(t, c.PreviousPage())
	waitIdle(t, c)
	assert.Equal(t, []string{"TK4", "TK3"}, stockTickers(c.Items()))
	assert.False(t, c.HasPreviousPage())

	require.NoError(t, c.SetFilter("sector", "energy"))
	c.ApplyFilters()
	waitIdle(t, c)
	snap = c.Snapshot()
	assert.Equal(t, []string{"TK3", "TK1"}, stockTickers(snap.Items))
	assert.False(t, snap.HasNextPage)

	c.ClearFilters()
	waitIdle(t, c)
	assert.Equal(t, []string{"TK4", "TK3"}, stockTickers(c.Items()))
}

func TestControllerOverHTTP(t *testing.T) {
	store := newCatalog(t)
	ts := httptest.NewServer(httpserver.NewServer(httpserver.Options{}, store).Handler())
	defer ts.Close()

	set, err := HTTP(ts.URL, ts.Client())
	require.NoError(t, err)
	walkStocks(t, set.Stocks)
}

func TestControllerOverReader(t *testing.T) {
	set := FromReader(newCatalog(t))
	walkStocks(t, set.Stocks)
}

func TestPagerSourceReferences(t *testing.T) {
	src := NewPagerSource(PagerFunc[string](func(_ context.Context, q model.ListQuery) (model.Page[string], error) {
		return model.Page[string]{Items: []string{"a"}, NextCursor: "n+1/=", PreviousCursor: ""}, nil
	}))
	res, err := src.Fetch(context.Background(), 10, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "?cursor=n%2B1%2F%3D", res.NextReference)
	assert.Equal(t, "", res.PreviousReference)

	cur, err := listsync.ExtractCursor(res.NextReference)
	require.NoError(t, err)
	assert.Equal(t, "n+1/=", cur)
}

func TestPagerSourceClassifiesErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantSource bool
	}{
		{"invalid cursor", fmt.Errorf("decode: %w", model.ErrInvalidCursor), true},
		{"invalid filter", model.ErrInvalidFilter, true},
		{"io failure", errors.New("socketrpc: read: broken pipe"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewPagerSource(PagerFunc[string](func(context.Context, model.ListQuery) (model.Page[string], error) {
				return model.Page[string]{}, tt.err
			}))
			_, err := src.Fetch(context.Background(), 10, "", nil)
			var se *listsync.SourceError
			var te *listsync.TransportError
			if tt.wantSource {
				assert.True(t, errors.As(err, &se), "got %T", err)
			} else {
				assert.True(t, errors.As(err, &te), "got %T", err)
			}
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := NewPagerSource(PagerFunc[string](func(ctx context.Context, _ model.ListQuery) (model.Page[string], error) {
		return model.Page[string]{}, errors.New("aborted")
	}))
	_, err := src.Fetch(ctx, 10, "", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPSourceErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/runs":
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":{"message":"database unavailable","code":"INTERNAL_SERVER_ERROR"}}`)
		case "/api/tickers":
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"detail":"Invalid cursor"}`)
		default:
			fmt.Fprint(w, `{"results": [`)
		}
	}))
	defer ts.Close()

	set, err := HTTP(ts.URL, ts.Client())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = set.IngestionRuns.Fetch(ctx, 10, "", nil)
	var se *listsync.SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, "database unavailable", se.Message)

	_, err = set.Stocks.Fetch(ctx, 10, "bogus", nil)
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Invalid cursor", se.Message)

	_, err = set.Exchanges.Fetch(ctx, 10, "", nil)
	var te *listsync.TransportError
	assert.True(t, errors.As(err, &te), "truncated body should be a transport error, got %v", err)
}

func TestHTTPSourceUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	src, err := NewHTTPSource[model.Stock](url+"/api/tickers", nil)
	require.NoError(t, err)
	_, err = src.Fetch(context.Background(), 10, "", nil)
	var te *listsync.TransportError
	assert.True(t, errors.As(err, &te))
}

func TestHTTPSourceSendsQuery(t *testing.T) {
	got := make(chan *http.Request, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r
		fmt.Fprint(w, `{"next":"http://x/api/runs?cursor=c2","previous":null,"results":[{"ticker":"AAPL","state":"DONE"}]}`)
	}))
	defer ts.Close()

	src, err := NewHTTPSource[model.IngestionRun](ts.URL+"/api/runs", ts.Client())
	require.NoError(t, err)
	res, err := src.Fetch(context.Background(), 25, "c1", map[string]string{"state": "DONE", "created_after": "2025-01-01T00:00:00.000Z"})
	require.NoError(t, err)

	r := <-got
	q := r.URL.Query()
	assert.Equal(t, "25", q.Get("page_size"))
	assert.Equal(t, "c1", q.Get("cursor"))
	assert.Equal(t, "DONE", q.Get("state"))
	assert.Equal(t, "2025-01-01T00:00:00.000Z", q.Get("created_after"))

	assert.Equal(t, "http://x/api/runs?cursor=c2", res.NextReference)
	assert.Equal(t, "", res.PreviousReference)
	require.Len(t, res.Items, 1)
	assert.Equal(t, model.StateDone, res.Items[0].State)
}

func TestNewHTTPSourceRejectsBadEndpoint(t *testing.T) {
	_, err := NewHTTPSource[model.Stock]("ftp://host/api/tickers", nil)
	assert.Error(t, err)
	_, err = HTTP("://nope", nil)
	assert.Error(t, err)
}

func seedBulkRun(t *testing.T, store *duckdb.Store) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, store.InsertBulkQueueRuns(ctx, []model.BulkQueueRun{{ID: id, TotalStocks: 3, CreatedAt: t0}}))
	require.NoError(t, store.InsertIngestionRuns(ctx, []model.IngestionRun{
		{Ticker: "TK0", State: model.StateDone, BulkQueueRunID: &id, CreatedAt: t0},
		{Ticker: "TK1", State: model.StateDone, BulkQueueRunID: &id, CreatedAt: t0.Add(time.Second)},
		{Ticker: "TK2", State: model.StateFailed, BulkQueueRunID: &id, CreatedAt: t0.Add(2 * time.Second)},
	}))
	return id
}

func checkStats(t *testing.T, stats StatsFunc, id uuid.UUID) {
	t.Helper()
	require.NotNil(t, stats)

	got, err := stats(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, 3, got.IngestionRunStats.Total)
	assert.Equal(t, 2, got.IngestionRunStats.ByState[model.StateDone])
	assert.Equal(t, 1, got.IngestionRunStats.ByState[model.StateFailed])
	assert.Equal(t, 0, got.IngestionRunStats.ByState[model.StateFetching])
}

func TestStatsOverHTTP(t *testing.T) {
	store := newCatalog(t)
	id := seedBulkRun(t, store)
	ts := httptest.NewServer(httpserver.NewServer(httpserver.Options{}, store).Handler())
	defer ts.Close()

	set, err := HTTP(ts.URL, ts.Client())
	require.NoError(t, err)
	checkStats(t, set.Stats, id)

	_, err = set.Stats(context.Background(), uuid.New())
	var se *listsync.SourceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Contains(t, se.Message, "not found")
}

func TestStatsOverReader(t *testing.T) {
	store := newCatalog(t)
	id := seedBulkRun(t, store)
	checkStats(t, FromReader(store).Stats, id)
}
