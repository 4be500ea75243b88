package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tickerflow/tickerdesk/internal/duckdb"
)

var seedOpts duckdb.SeedOptions

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the catalog with demo exchanges, tickers and runs",
	Long: `Inserts a fixed set of exchanges and tickers plus randomly generated
ingestion runs (in every pipeline state) and bulk-queue runs. Use --seed for
reproducible data.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedOpts.RunsPerStock, "runs-per-stock", 6, "ingestion runs generated per ticker")
	seedCmd.Flags().IntVar(&seedOpts.BulkRuns, "bulk-runs", 3, "bulk-queue runs generated")
	seedCmd.Flags().Uint64Var(&seedOpts.Seed, "seed", 1, "random seed")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := duckdb.NewStore(cfg.DBPath, duckdb.WithQueryTimeout(cfg.QueryTimeout), duckdb.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to initialize DuckDB: %w", err)
	}
	defer store.Close()

	stats, err := duckdb.Seed(cmd.Context(), store, seedOpts)
	if err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s: %d exchanges, %d tickers, %d ingestion runs, %d bulk-queue runs\n",
		shortenPath(cfg.DBPath), stats.Exchanges, stats.Stocks, stats.IngestionRuns, stats.BulkQueueRuns)
	return nil
}
