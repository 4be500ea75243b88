package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type stubPage struct {
	id    string
	inits int
	msgs  []tea.Msg
}

func (p *stubPage) ID() string    { return p.id }
func (p *stubPage) Title() string { return strings.ToUpper(p.id) }
func (p *stubPage) Init() tea.Cmd { p.inits++; return nil }

func (p *stubPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	p.msgs = append(p.msgs, msg)
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "]":
			return nil, &PageNav{Step: 1}
		case "[":
			return nil, &PageNav{Step: -1}
		case "g":
			return nil, &PageNav{PageID: "c"}
		}
	}
	return nil, nil
}

func (p *stubPage) View(width, height int) string { return "body of " + p.id }

func TestAppSwitchesPagesAndInitsOnce(t *testing.T) {
	t.Parallel()

	a, b, c := &stubPage{id: "a"}, &stubPage{id: "b"}, &stubPage{id: "c"}
	app := NewApp(a, b, c)
	app.Init()
	if a.inits != 1 || b.inits != 0 {
		t.Fatalf("inits a=%d b=%d, want 1 0", a.inits, b.inits)
	}

	app.Update(runes("]"))
	if got := app.ActivePage(); got != "b" {
		t.Fatalf("active = %s, want b", got)
	}
	app.Update(runes("["))
	app.Update(runes("["))
	if got := app.ActivePage(); got != "c" {
		t.Fatalf("active = %s, want c after wrapping", got)
	}
	app.Update(runes("]"))
	app.Update(runes("]"))
	if a.inits != 1 || b.inits != 1 || c.inits != 1 {
		t.Errorf("inits a=%d b=%d c=%d, want each 1", a.inits, b.inits, c.inits)
	}

	app.Update(runes("g"))
	if got := app.ActivePage(); got != "c" {
		t.Errorf("active = %s, want c by id", got)
	}
}

func TestAppRoutesPageMessages(t *testing.T) {
	t.Parallel()

	a, b := &stubPage{id: "a"}, &stubPage{id: "b"}
	app := NewApp(a, b)
	app.Init()

	app.Update(changedMsg{page: "b"})
	app.Update(spinnerTickMsg{page: "nowhere"})
	if len(b.msgs) != 1 {
		t.Errorf("b got %d messages, want 1", len(b.msgs))
	}
	if len(a.msgs) != 0 {
		t.Errorf("active page got %d messages addressed elsewhere", len(a.msgs))
	}
}

func TestAppForceQuit(t *testing.T) {
	t.Parallel()

	a := &stubPage{id: "a"}
	app := NewApp(a)
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}
	if len(a.msgs) != 0 {
		t.Error("ctrl+c should not reach the page")
	}
}

func TestAppViewShowsTabs(t *testing.T) {
	t.Parallel()

	app := NewApp(&stubPage{id: "a"}, &stubPage{id: "b"})
	app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	view := app.View()
	for _, want := range []string{"A", "B", "body of a"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	if got := NewApp().View(); got != "No views configured" {
		t.Errorf("empty app view = %q", got)
	}
}
