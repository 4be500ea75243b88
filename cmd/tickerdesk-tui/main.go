package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tickerflow/tickerdesk/internal/listsource"
	"github.com/tickerflow/tickerdesk/internal/logging"
	"github.com/tickerflow/tickerdesk/internal/tui"
	"github.com/tickerflow/tickerdesk/internal/views"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

var flags struct {
	config string
	source string
	apiURL string
	socket string
}

var rootCmd = &cobra.Command{
	Use:   "tickerdesk-tui",
	Short: "Terminal console for the tickerdesk catalog",
	Long: `Browse tickers, ingestion runs, bulk-queue runs and exchanges with live
filters and paging. Talks to a running tickerdesk service over HTTP or its
Unix socket.`,
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flags.config, "config", "", "config file (default is $HOME/.config/tickerdesk/config.yml)")
	f.StringVar(&flags.source, "source", "", "transport to the service: http or socket")
	f.StringVar(&flags.apiURL, "api-url", "", "override the service API base URL")
	f.StringVar(&flags.socket, "socket", "", "override socket path to connect to the service")
	rootCmd.SetVersionTemplate(fmt.Sprintf("tickerdesk-tui - Catalog Console\n  Version:    %s\n  Commit:     %s\n  Built:      %s\n  Go version: %s\n",
		version, commit, buildTime, goVersion))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(_ *cobra.Command, _ []string) error {
	cfg, err := loadCLIConfig(flags.config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flags.source != "" {
		cfg.Source = flags.source
	}
	if flags.apiURL != "" {
		cfg.APIURL = flags.apiURL
	}
	if flags.socket != "" {
		cfg.SocketPath = flags.socket
	}
	home, _ := os.UserHomeDir()
	if err := cfg.finish(home); err != nil {
		return err
	}
	return runTUI(cfg)
}

func runTUI(cfg cliConfig) error {
	logger, closeLog, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	vs, err := views.LoadFile(cfg.ViewsFile)
	if err != nil {
		return err
	}

	set, closeSources, err := openSources(cfg)
	if err != nil {
		return err
	}
	defer closeSources()

	pages, closePages, err := tui.BuildPages(vs, set, tui.Options{
		PageSize:      cfg.PageSize,
		DebounceDelay: cfg.DebounceDelay,
		Location:      cfg.Location,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	defer closePages()

	logger.Info("console started", "source", cfg.Source, "views", len(pages))

	p := tea.NewProgram(tui.NewApp(pages...), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// openSources connects to the service over the configured transport.
func openSources(cfg cliConfig) (*listsource.Set, func(), error) {
	if cfg.Source == sourceSocket {
		set, conn, err := listsource.Socket(cfg.SocketPath)
		if err != nil {
			return nil, nil, fmt.Errorf("%w\nIs the tickerdesk service running? Start it with: tickerdesk serve", err)
		}
		return set, func() { conn.Close() }, nil
	}

	set, err := listsource.HTTP(cfg.APIURL, &http.Client{Timeout: cfg.HTTPTimeout})
	if err != nil {
		return nil, nil, fmt.Errorf("api-url: %w", err)
	}
	return set, func() {}, nil
}
