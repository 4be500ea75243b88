package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/tickerflow/tickerdesk/internal/logging"
	"github.com/tickerflow/tickerdesk/internal/model"
	"github.com/tickerflow/tickerdesk/internal/socketrpc"
)

const (
	sourceHTTP   = "http"
	sourceSocket = "socket"

	defaultAPIURL      = "http://127.0.0.1:8080"
	defaultHTTPTimeout = 15 * time.Second
)

// cliConfig holds only console-relevant configuration.
type cliConfig struct {
	Source        string         `mapstructure:"source"`
	APIURL        string         `mapstructure:"api-url"`
	SocketPath    string         `mapstructure:"socket-path"`
	HTTPTimeout   time.Duration  `mapstructure:"http-timeout"`
	PageSize      int            `mapstructure:"page-size"`
	DebounceDelay time.Duration  `mapstructure:"debounce-delay"`
	Timezone      string         `mapstructure:"timezone"`
	ViewsFile     string         `mapstructure:"views-file"`
	LogLevel      string         `mapstructure:"log-level"`
	LogFile       string         `mapstructure:"log-file"`
	Location      *time.Location `mapstructure:"-"`
}

func loadCLIConfig(configPath string) (cliConfig, error) {
	var cfg cliConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("TICKERDESK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("source", sourceHTTP)
	v.SetDefault("api-url", defaultAPIURL)
	v.SetDefault("socket-path", socketrpc.DefaultSocketPath())
	v.SetDefault("http-timeout", defaultHTTPTimeout)
	v.SetDefault("page-size", model.DefaultPageSize)
	v.SetDefault("debounce-delay", model.DefaultDebounceDelay)
	v.SetDefault("timezone", "Local")
	v.SetDefault("views-file", "")
	v.SetDefault("log-level", "info")
	v.SetDefault("log-file", logging.DefaultStatePath("console.log"))

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "tickerdesk", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.finish(home)
}

// finish validates cfg and resolves derived fields.
func (cfg *cliConfig) finish(home string) error {
	cfg.Source = strings.ToLower(strings.TrimSpace(cfg.Source))
	if cfg.Source != sourceHTTP && cfg.Source != sourceSocket {
		return fmt.Errorf("invalid source %q: want %s or %s", cfg.Source, sourceHTTP, sourceSocket)
	}
	if cfg.PageSize < 1 || cfg.PageSize > model.MaxPageSize {
		return fmt.Errorf("invalid page-size: %d (1..%d)", cfg.PageSize, model.MaxPageSize)
	}
	if cfg.DebounceDelay < 0 {
		return fmt.Errorf("invalid debounce-delay: %s", cfg.DebounceDelay)
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("invalid http-timeout: %s", cfg.HTTPTimeout)
	}
	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log-level: %q", cfg.LogLevel)
	}

	switch cfg.Timezone {
	case "", "Local":
		cfg.Location = time.Local
	default:
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone: %w", err)
		}
		cfg.Location = loc
	}

	for _, p := range []*string{&cfg.SocketPath, &cfg.ViewsFile, &cfg.LogFile} {
		if strings.HasPrefix(*p, "~/") {
			*p = filepath.Join(home, (*p)[2:])
		}
	}
	return nil
}
