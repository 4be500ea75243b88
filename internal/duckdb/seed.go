package duckdb

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tickerflow/tickerdesk/internal/model"
)

// SeedOptions sizes the demo catalog.
type SeedOptions struct {
	RunsPerStock int
	BulkRuns     int
	Seed         uint64
	Now          time.Time
}

// SeedStats counts what Seed wrote.
type SeedStats struct {
	Exchanges, Stocks, IngestionRuns, BulkQueueRuns int
}

type seedStock struct {
	ticker, name, sector, industry, exchange, country string
}

var seedStocks = []seedStock{
	{"AAPL", "Apple Inc.", "Technology", "Consumer Electronics", "NASDAQ", "US"},
	{"MSFT", "Microsoft Corporation", "Technology", "Software", "NASDAQ", "US"},
	{"NVDA", "NVIDIA Corporation", "Technology", "Semiconductors", "NASDAQ", "US"},
	{"AMZN", "Amazon.com, Inc.", "Consumer Cyclical", "Internet Retail", "NASDAQ", "US"},
	{"GOOGL", "Alphabet Inc.", "Communication Services", "Internet Content", "NASDAQ", "US"},
	{"JPM", "JPMorgan Chase & Co.", "Financial Services", "Banks", "NYSE", "US"},
	{"XOM", "Exxon Mobil Corporation", "Energy", "Oil & Gas", "NYSE", "US"},
	{"JNJ", "Johnson & Johnson", "Healthcare", "Drug Manufacturers", "NYSE", "US"},
	{"KO", "The Coca-Cola Company", "Consumer Defensive", "Beverages", "NYSE", "US"},
	{"SHEL", "Shell plc", "Energy", "Oil & Gas", "LSE", "GB"},
	{"AZN", "AstraZeneca PLC", "Healthcare", "Drug Manufacturers", "LSE", "GB"},
	{"HSBA", "HSBC Holdings plc", "Financial Services", "Banks", "LSE", "GB"},
	{"7203", "Toyota Motor Corporation", "Consumer Cyclical", "Auto Manufacturers", "TSE", "JP"},
	{"6758", "Sony Group Corporation", "Technology", "Consumer Electronics", "TSE", "JP"},
}

var seedRequesters = []string{"ops@tickerflow.dev", "scheduler", "alice@tickerflow.dev", "bob@tickerflow.dev"}

// Seed fills w with a deterministic demo catalog.
func Seed(ctx context.Context, w model.CatalogWriter, opts SeedOptions) (SeedStats, error) {
	var stats SeedStats
	if opts.RunsPerStock <= 0 {
		opts.RunsPerStock = 6
	}
	if opts.BulkRuns <= 0 {
		opts.BulkRuns = 3
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	now := opts.Now.UTC().Truncate(time.Second)
	base := now.Add(-30 * 24 * time.Hour)

	exchanges := []model.Exchange{
		{Name: "NASDAQ", CreatedAt: base},
		{Name: "NYSE", CreatedAt: base.Add(time.Minute)},
		{Name: "LSE", CreatedAt: base.Add(2 * time.Minute)},
		{Name: "TSE", CreatedAt: base.Add(3 * time.Minute)},
	}
	if err := w.InsertExchanges(ctx, exchanges); err != nil {
		return stats, fmt.Errorf("seed exchanges: %w", err)
	}
	stats.Exchanges = len(exchanges)

	bulk := make([]model.BulkQueueRun, opts.BulkRuns)
	for i := range bulk {
		created := base.Add(time.Duration(i+1) * 24 * time.Hour)
		started := created.Add(5 * time.Second)
		bulk[i] = model.BulkQueueRun{
			ID:           uuid.New(),
			RequestedBy:  seedRequesters[i%len(seedRequesters)],
			TotalStocks:  len(seedStocks),
			QueuedCount:  len(seedStocks) - i,
			SkippedCount: i,
			ErrorCount:   i % 2,
			CreatedAt:    created,
			StartedAt:    &started,
		}
		if i < opts.BulkRuns-1 {
			done := started.Add(90 * time.Second)
			bulk[i].CompletedAt = &done
		}
	}

	stocks := make([]model.Stock, len(seedStocks))
	for i, s := range seedStocks {
		stocks[i] = model.Stock{
			Ticker:    s.ticker,
			Name:      s.name,
			Sector:    s.sector,
			Industry:  s.industry,
			Exchange:  s.exchange,
			Country:   s.country,
			CreatedAt: base.Add(time.Hour + time.Duration(i)*time.Minute),
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := w.InsertStocks(gctx, stocks); err != nil {
			return fmt.Errorf("seed stocks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := w.InsertBulkQueueRuns(gctx, bulk); err != nil {
			return fmt.Errorf("seed bulk queue runs: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return stats, err
	}
	stats.Stocks, stats.BulkQueueRuns = len(stocks), len(bulk)

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x5eed))
	runs := make([]model.IngestionRun, 0, len(seedStocks)*opts.RunsPerStock)
	for i, s := range seedStocks {
		for j := 0; j < opts.RunsPerStock; j++ {
			created := base.Add(time.Duration(rng.IntN(int(now.Sub(base)/time.Second))) * time.Second)
			state := model.IngestionStates[rng.IntN(len(model.IngestionStates))]
			run := model.IngestionRun{
				Ticker:      s.ticker,
				State:       state,
				RequestedBy: seedRequesters[(i+j)%len(seedRequesters)],
				CreatedAt:   created,
				UpdatedAt:   created.Add(time.Duration(rng.IntN(600)) * time.Second),
			}
			if state == model.StateFailed {
				run.ErrorMessage = "upstream quote provider returned 429"
			}
			if len(bulk) > 0 && j == 0 {
				id := bulk[i%len(bulk)].ID
				run.BulkQueueRunID = &id
			}
			runs = append(runs, run)
		}
	}
	if err := w.InsertIngestionRuns(ctx, runs); err != nil {
		return stats, fmt.Errorf("seed ingestion runs: %w", err)
	}
	stats.IngestionRuns = len(runs)
	return stats, nil
}
