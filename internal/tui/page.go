package tui

import tea "github.com/charmbracelet/bubbletea"

// Page represents a top-level screen in the TUI, one per list view.
type Page interface {
	ID() string
	Title() string
	Init() tea.Cmd
	Update(msg tea.Msg) (tea.Cmd, *PageNav)
	View(width, height int) string
}

// PageNav is returned from Update to request a page switch. PageID wins
// over Step; Step moves relative to the active page and wraps.
type PageNav struct {
	PageID string
	Step   int
}

// pageMsg is a message addressed to one page. The App routes it there even
// while another page is active.
type pageMsg interface {
	TargetPage() string
}
