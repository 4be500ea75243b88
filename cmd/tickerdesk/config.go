package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/tickerflow/tickerdesk/internal/model"
	"github.com/tickerflow/tickerdesk/internal/socketrpc"
)

const (
	defaultBindHost  = "127.0.0.1"
	defaultAPIPort   = 8080
	defaultRateLimit = 20.0
	defaultRateBurst = 40
)

// appConfig is the service's runtime configuration.
type appConfig struct {
	Host               string        `mapstructure:"host"`
	APIEnabled         bool          `mapstructure:"api-enabled"`
	APIPort            int           `mapstructure:"api-port"`
	APIAddr            string        `mapstructure:"api-addr"`
	DBPath             string        `mapstructure:"db-path"`
	QueryTimeout       time.Duration `mapstructure:"query-timeout"`
	SocketEnabled      bool          `mapstructure:"socket-enabled"`
	SocketPath         string        `mapstructure:"socket-path"`
	CORSAllowedOrigins []string      `mapstructure:"cors-allowed-origins"`
	RateLimit          float64       `mapstructure:"rate-limit"`
	RateBurst          int           `mapstructure:"rate-burst"`
	LogLevel           string        `mapstructure:"log-level"`
	LogFile            string        `mapstructure:"log-file"`
	ConfigPath         string        `mapstructure:"-"` // not from config file
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("TICKERDESK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("host", defaultBindHost)
	v.SetDefault("api-enabled", true)
	v.SetDefault("api-port", defaultAPIPort)
	v.SetDefault("api-addr", "")
	v.SetDefault("db-path", filepath.Join(home, ".local", "share", "tickerdesk", "catalog.duckdb"))
	v.SetDefault("query-timeout", model.DefaultQueryTimeout)
	v.SetDefault("socket-enabled", true)
	v.SetDefault("socket-path", socketrpc.DefaultSocketPath())
	v.SetDefault("cors-allowed-origins", []string{})
	v.SetDefault("rate-limit", defaultRateLimit)
	v.SetDefault("rate-burst", defaultRateBurst)
	v.SetDefault("log-level", "info")
	v.SetDefault("log-file", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "tickerdesk", "config.yml"))
	}

	usedFile := ""
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	} else {
		usedFile = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = usedFile

	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return cfg, fmt.Errorf("invalid api-port: %d", cfg.APIPort)
	}
	if cfg.QueryTimeout <= 0 {
		return cfg, fmt.Errorf("invalid query-timeout: %s", cfg.QueryTimeout)
	}
	if cfg.RateLimit < 0 || cfg.RateBurst < 0 {
		return cfg, fmt.Errorf("invalid rate limit: %g/s burst %d", cfg.RateLimit, cfg.RateBurst)
	}
	if cfg.RateLimit > 0 && cfg.RateBurst == 0 {
		cfg.RateBurst = max(1, int(cfg.RateLimit))
	}
	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		return cfg, fmt.Errorf("invalid log-level: %q", cfg.LogLevel)
	}

	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.SocketPath = expandHome(cfg.SocketPath, home)
	cfg.LogFile = expandHome(cfg.LogFile, home)

	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.APIPort))
	}

	return cfg, nil
}

func expandHome(p, home string) string {
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(home, p[2:])
	}
	return p
}
