package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tickerflow/tickerdesk/internal/logging"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tickerdesk",
	Short: "Ticker catalog service",
	Long: `tickerdesk serves the stock catalog (exchanges, tickers, ingestion runs and
bulk-queue runs) as filtered, cursor-paginated lists over HTTP and a local
Unix socket.

Run without a subcommand to serve.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the list API and the console socket",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is $HOME/.config/tickerdesk/config.yml)")
	rootCmd.SetVersionTemplate(fmt.Sprintf("tickerdesk - Ticker Catalog Service\n  Version:    %s\n  Commit:     %s\n  Built:      %s\n  Go version: %s\n",
		version, commit, buildTime, goVersion))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads config and opens the service logger.
func setup() (appConfig, *log.Logger, func(), error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger, closeLog, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return cfg, nil, nil, err
	}
	return cfg, logger.WithPrefix("tickerdesk"), closeLog, nil
}
