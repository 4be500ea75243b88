package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all console key bindings with built-in help text.
type KeyMap struct {
	// Global
	Quit      key.Binding
	ForceQuit key.Binding
	Help      key.Binding
	Escape    key.Binding

	// Views
	NextView key.Binding
	PrevView key.Binding

	// Table
	Up       key.Binding
	Down     key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	Refresh  key.Binding

	// Filters
	Filter    key.Binding
	NextField key.Binding
	PrevField key.Binding
	Toggle    key.Binding
	Apply     key.Binding
	Clear     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "leave filters"),
		),

		NextView: key.NewBinding(
			key.WithKeys("]", "tab"),
			key.WithHelp("]/tab", "next view"),
		),
		PrevView: key.NewBinding(
			key.WithKeys("[", "shift+tab"),
			key.WithHelp("[", "prev view"),
		),

		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("n", "right", "pgdown"),
			key.WithHelp("n/→", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("p", "left", "pgup"),
			key.WithHelp("p/←", "prev page"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),

		Filter: key.NewBinding(
			key.WithKeys("/", "f"),
			key.WithHelp("/", "filters"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "prev field"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "cycle yes/no/any"),
		),
		Apply: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+x", "x"),
			key.WithHelp("x", "clear filters"),
		),
	}
}

// tableKeys is the help shown while browsing rows.
type tableKeys KeyMap

func (k tableKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.NextPage, k.PrevPage, k.Filter, k.Clear, k.Refresh, k.NextView, k.Quit, k.Help}
}

func (k tableKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextPage, k.PrevPage},
		{k.Filter, k.Clear, k.Refresh},
		{k.NextView, k.PrevView, k.Help, k.Quit},
	}
}

// formKeys is the help shown while editing filters.
type formKeys KeyMap

func (k formKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.NextField, k.PrevField, k.Toggle, k.Apply, k.Escape}
}

func (k formKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextField, k.PrevField, k.Toggle},
		{k.Apply, k.Escape, k.ForceQuit},
	}
}
