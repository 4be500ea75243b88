package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 120 * time.Millisecond

// spinnerFrame picks a frame from the wall clock so it animates on re-render.
func spinnerFrame() string {
	return spinnerFrames[time.Now().UnixMilli()/spinnerInterval.Milliseconds()%int64(len(spinnerFrames))]
}

// renderLoadingPlaceholder renders an animated loading indicator.
func renderLoadingPlaceholder(width, height int) string {
	text := lipgloss.NewStyle().
		Foreground(ColorGray).
		Italic(true).
		Render(spinnerFrame() + " Loading...")

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, text)
}

// spinnerTickMsg triggers a re-render of one page's spinner.
type spinnerTickMsg struct{ page string }

func (m spinnerTickMsg) TargetPage() string { return m.page }

func spinnerTick(page string) tea.Cmd {
	return tea.Tick(spinnerInterval, func(time.Time) tea.Msg {
		return spinnerTickMsg{page: page}
	})
}
