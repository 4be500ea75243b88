package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tickerflow/tickerdesk/internal/duckdb"
	"github.com/tickerflow/tickerdesk/internal/httpserver"
)

func printStartupBanner(w io.Writer, cfg appConfig, store *duckdb.Store, api *httpserver.Server, socketUp bool) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")
	row := func(mark, name, value string) string {
		return fmt.Sprintf("    %s  %-14s %s", mark, name, value)
	}

	logo := cyan.Bold(true).Render(`
    ╔╦╗╦╔═╗╦╔═╔═╗╦═╗╔╦╗╔═╗╔═╗╦╔═
     ║ ║║  ╠╩╗║╣ ╠╦╝ ║║║╣ ╚═╗╠╩╗
     ╩ ╩╚═╝╩ ╩╚═╝╩╚══╩╝╚═╝╚═╝╩ ╩`)
	separator := dim.Render("    ─────────────────────────────────")

	lines := []string{"", logo, "    " + dim.Render("v"+version), "", separator, ""}

	lines = append(lines, bold.Render("    Gateway"), "")
	if api != nil {
		lines = append(lines, row(check, "HTTP API", cyan.Render("http://"+api.Addr()+"/api")))
	} else {
		lines = append(lines, row(dot, "HTTP API", dim.Render("disabled")))
	}
	if socketUp {
		lines = append(lines, row(check, "Unix Socket", cyan.Render(shortenPath(cfg.SocketPath))))
	} else {
		lines = append(lines, row(dot, "Unix Socket", dim.Render("disabled")))
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		lines = append(lines, row(check, "CORS", dim.Render(strings.Join(cfg.CORSAllowedOrigins, ", "))))
	}
	if cfg.RateLimit > 0 {
		lines = append(lines, row(check, "Rate Limit", dim.Render(fmt.Sprintf("%g/s, burst %d", cfg.RateLimit, cfg.RateBurst))))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Storage"), "")
	lines = append(lines, row(check, "Catalog", dim.Render(shortenPath(store.Path()))))
	if cur, pending, err := store.MigrationStatus(); err == nil {
		lines = append(lines, row(check, "Schema", dim.Render(fmt.Sprintf("version %d, %d pending", cur, pending))))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Config"), "")
	if cfg.ConfigPath != "" {
		lines = append(lines, row(check, "Config File", dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, row(dot, "Config File", dim.Render("default (no file)")))
	}

	lines = append(lines, "", separator, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"), "")

	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
