package tui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	ColorNavy   = lipgloss.Color("#1B2A49")
	ColorWhite  = lipgloss.Color("#F5F5F5")
	ColorGray   = lipgloss.Color("245")
	ColorBlue   = lipgloss.Color("39")
	ColorGreen  = lipgloss.Color("#44FF44")
	ColorOrange = lipgloss.Color("208")
	ColorRed    = lipgloss.Color("196")
)

var (
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(ColorGray)
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).Background(ColorBlue).Foreground(ColorWhite)
	tabBarStyle    = lipgloss.NewStyle().Background(ColorNavy)

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorBlue)
	selectedStyle = lipgloss.NewStyle().Background(ColorNavy).Foreground(ColorWhite).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(ColorGray)
	errorStyle    = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)

	labelStyle       = lipgloss.NewStyle().Foreground(ColorGray)
	activeLabelStyle = lipgloss.NewStyle().Foreground(ColorBlue).Bold(true)

	statusStyle = lipgloss.NewStyle().Background(ColorNavy).Foreground(ColorWhite)
)

// stateStyles colors ingestion states in tables and the state chart.
var stateStyles = map[string]lipgloss.Style{
	"QUEUED_FOR_FETCH": lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	"FETCHING":         lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	"FETCHED":          lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
	"QUEUED_FOR_DELTA": lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	"DELTA_RUNNING":    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	"DELTA_FINISHED":   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
	"DONE":             lipgloss.NewStyle().Foreground(lipgloss.Color("#44FF44")),
	"FAILED":           lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
}
