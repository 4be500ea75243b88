package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// App is the top-level Bubble Tea model that routes between pages.
type App struct {
	pages   []Page
	index   map[string]int
	active  int
	started map[string]bool
	keys    KeyMap
	width   int
	height  int
}

// NewApp creates a new App with the given pages. The first page is the default.
func NewApp(pages ...Page) *App {
	index := make(map[string]int, len(pages))
	for i, p := range pages {
		index[p.ID()] = i
	}
	return &App{
		pages:   pages,
		index:   index,
		started: make(map[string]bool, len(pages)),
		keys:    DefaultKeyMap(),
	}
}

// ActivePage returns the ID of the page on screen.
func (a *App) ActivePage() string {
	if len(a.pages) == 0 {
		return ""
	}
	return a.pages[a.active].ID()
}

func (a *App) Init() tea.Cmd {
	return a.activate()
}

// activate initializes the active page the first time it is shown.
func (a *App) activate() tea.Cmd {
	if len(a.pages) == 0 {
		return nil
	}
	p := a.pages[a.active]
	if a.started[p.ID()] {
		return nil
	}
	a.started[p.ID()] = true
	return p.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	case tea.KeyMsg:
		if key.Matches(msg, a.keys.ForceQuit) {
			return a, tea.Quit
		}
	case pageMsg:
		i, ok := a.index[msg.TargetPage()]
		if !ok {
			return a, nil
		}
		cmd, _ := a.pages[i].Update(msg)
		return a, cmd
	}

	if len(a.pages) == 0 {
		return a, nil
	}

	cmd, nav := a.pages[a.active].Update(msg)
	if nav != nil && a.navigate(*nav) {
		return a, tea.Batch(cmd, a.activate())
	}
	return a, cmd
}

func (a *App) navigate(nav PageNav) bool {
	prev := a.active
	if nav.PageID != "" {
		i, ok := a.index[nav.PageID]
		if !ok {
			return false
		}
		a.active = i
	} else if nav.Step != 0 {
		n := len(a.pages)
		a.active = ((a.active+nav.Step)%n + n) % n
	}
	return a.active != prev
}

func (a *App) View() string {
	if len(a.pages) == 0 {
		return "No views configured"
	}
	bar := a.renderTabs()
	body := a.pages[a.active].View(a.width, max(0, a.height-lipgloss.Height(bar)))
	return lipgloss.JoinVertical(lipgloss.Left, bar, body)
}

func (a *App) renderTabs() string {
	tabs := make([]string, len(a.pages))
	for i, p := range a.pages {
		if i == a.active {
			tabs[i] = activeTabStyle.Render(p.Title())
		} else {
			tabs[i] = tabStyle.Render(p.Title())
		}
	}
	line := strings.Join(tabs, "")
	if a.width > 0 {
		return tabBarStyle.Width(a.width).Render(line)
	}
	return line
}
