package listsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tickerflow/tickerdesk/internal/listsync"
	"github.com/tickerflow/tickerdesk/internal/model"
	"github.com/tickerflow/tickerdesk/internal/socketrpc"
)

// Set holds one data source per catalog resource.
type Set struct {
	Exchanges     listsync.DataSource[model.Exchange]
	Stocks        listsync.DataSource[model.Stock]
	IngestionRuns listsync.DataSource[model.IngestionRun]
	BulkQueueRuns listsync.DataSource[model.BulkQueueRun]

	// Stats loads the per-state run counts of one bulk-queue run. Nil when
	// the source cannot serve them.
	Stats StatsFunc
}

// StatsFunc loads the stats of one bulk-queue run.
type StatsFunc func(ctx context.Context, id uuid.UUID) (model.BulkQueueRunStats, error)

// HTTP builds a Set against the API rooted at baseURL (e.g. http://localhost:8080).
func HTTP(baseURL string, client *http.Client) (*Set, error) {
	base := strings.TrimRight(baseURL, "/") + "/api/"
	ex, err := NewHTTPSource[model.Exchange](base+string(model.ResourceExchanges), client)
	if err != nil {
		return nil, err
	}
	st, err := NewHTTPSource[model.Stock](base+string(model.ResourceTickers), client)
	if err != nil {
		return nil, err
	}
	runs, err := NewHTTPSource[model.IngestionRun](base+string(model.ResourceRuns), client)
	if err != nil {
		return nil, err
	}
	bulk, err := NewHTTPSource[model.BulkQueueRun](base+string(model.ResourceBulkQueueRuns), client)
	if err != nil {
		return nil, err
	}
	stats, err := httpStats(base+string(model.ResourceBulkQueueRuns), client)
	if err != nil {
		return nil, err
	}
	return &Set{Exchanges: ex, Stocks: st, IngestionRuns: runs, BulkQueueRuns: bulk, Stats: stats}, nil
}

// httpStats returns a StatsFunc reading <endpoint>/<id>/stats.
func httpStats(endpoint string, client *http.Client) (StatsFunc, error) {
	base, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return func(ctx context.Context, id uuid.UUID) (model.BulkQueueRunStats, error) {
		var stats model.BulkQueueRunStats
		u := base.JoinPath(id.String(), "stats")
		err := getJSON(ctx, client, u, &stats)
		return stats, err
	}, nil
}

// FromReader builds a Set that reads through r in process or over RPC.
func FromReader(r model.ListReader) *Set {
	return &Set{
		Exchanges:     NewPagerSource[model.Exchange](r.ListExchanges),
		Stocks:        NewPagerSource[model.Stock](r.ListStocks),
		IngestionRuns: NewPagerSource[model.IngestionRun](r.ListIngestionRuns),
		BulkQueueRuns: NewPagerSource[model.BulkQueueRun](r.ListBulkQueueRuns),
		Stats:         r.BulkQueueRunStats,
	}
}

// Socket dials the service's RPC socket and builds a Set over it.
func Socket(path string) (*Set, io.Closer, error) {
	client, err := socketrpc.Dial(path)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", path, err)
	}
	return FromReader(client), client, nil
}
