package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/tickerflow/tickerdesk/internal/listsync"
	"github.com/tickerflow/tickerdesk/internal/logging"
)

const detailTimeout = 10 * time.Second

// Column renders one field of T as a table column.
type Column[T any] struct {
	Title string
	Width int // 0 shares the remaining width
	Value func(T) string
	Style func(T) lipgloss.Style
}

// changedMsg reports that a page's controller state moved.
type changedMsg struct{ page string }

func (m changedMsg) TargetPage() string { return m.page }

// waitForChange blocks on the controller's change signal and turns it into
// a message for page.
func waitForChange(page string, changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-changes
		return changedMsg{page: page}
	}
}

// detailMsg carries the loaded detail of the item identified by key.
type detailMsg struct {
	page   string
	key    string
	render func(width int) string
	err    error
}

func (m detailMsg) TargetPage() string { return m.page }

// summaryKey identifies the controller state a rendered summary belongs to.
type summaryKey struct {
	token  uint64
	status listsync.Status
	items  int
	width  int
}

// ListPage is a filtered, paginated table backed by a list controller.
type ListPage[T any] struct {
	id      string
	title   string
	ctrl    *listsync.Controller[T]
	columns []Column[T]
	decls   []listsync.FilterDecl
	inputs  []textinput.Model
	summary func(items []T, width int) string
	logger  *log.Logger

	summaryAt   summaryKey
	summaryView string

	detailKey  func(T) string
	detailLoad func(ctx context.Context, item T) (func(width int) string, error)
	wantDetail string
	detailView func(width int) string
	detailErr  error

	snap     listsync.Snapshot[T]
	selected int
	editing  bool
	field    int
	spinning bool

	keys KeyMap
	help help.Model
}

// ListPageOption configures a ListPage.
type ListPageOption[T any] func(*ListPage[T])

// WithSummary renders a block above the table from the current page items.
func WithSummary[T any](render func(items []T, width int) string) ListPageOption[T] {
	return func(p *ListPage[T]) { p.summary = render }
}

// WithLogger sets the logger for rejected filter edits.
func WithLogger[T any](logger *log.Logger) ListPageOption[T] {
	return func(p *ListPage[T]) { p.logger = logger }
}

// WithDetail shows a block for the selected item, loaded in the background
// whenever the selection moves to an item with a different key.
func WithDetail[T, D any](key func(T) string, load func(ctx context.Context, item T) (D, error), render func(d D, width int) string) ListPageOption[T] {
	return func(p *ListPage[T]) {
		p.detailKey = key
		p.detailLoad = func(ctx context.Context, item T) (func(int) string, error) {
			d, err := load(ctx, item)
			if err != nil {
				return nil, err
			}
			return func(width int) string { return render(d, width) }, nil
		}
	}
}

// NewListPage builds a page over ctrl with one filter input per declared filter.
func NewListPage[T any](id, title string, ctrl *listsync.Controller[T], columns []Column[T], opts ...ListPageOption[T]) *ListPage[T] {
	decls := ctrl.Decls()
	inputs := make([]textinput.Model, len(decls))
	for i, d := range decls {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 64
		ti.Width = 16
		ti.Placeholder = placeholder(d.Kind)
		inputs[i] = ti
	}
	p := &ListPage[T]{
		id:      id,
		title:   title,
		ctrl:    ctrl,
		columns: columns,
		decls:   decls,
		inputs:  inputs,
		logger:  logging.Discard(),
		keys:    DefaultKeyMap(),
		help:    help.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func placeholder(k listsync.FilterKind) string {
	switch k {
	case listsync.KindBoolean:
		return "any"
	case listsync.KindDateAfter, listsync.KindDateBefore:
		return "YYYY-MM-DD"
	}
	return ""
}

func (p *ListPage[T]) ID() string    { return p.id }
func (p *ListPage[T]) Title() string { return p.title }

// Controller returns the controller behind the page.
func (p *ListPage[T]) Controller() *listsync.Controller[T] { return p.ctrl }

// Init loads the first page and starts listening for controller changes.
func (p *ListPage[T]) Init() tea.Cmd {
	p.ctrl.Load()
	p.sync()
	return tea.Batch(waitForChange(p.id, p.ctrl.Changes()), p.startSpinner())
}

func (p *ListPage[T]) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case changedMsg:
		p.sync()
		return tea.Batch(waitForChange(p.id, p.ctrl.Changes()), p.startSpinner(), p.loadDetail()), nil
	case detailMsg:
		if msg.key == p.wantDetail {
			p.detailView, p.detailErr = msg.render, msg.err
		}
		return nil, nil
	case spinnerTickMsg:
		p.spinning = false
		return p.startSpinner(), nil
	case tea.KeyMsg:
		if p.editing {
			return p.updateForm(msg), nil
		}
		return p.updateTable(msg)
	}
	return nil, nil
}

func (p *ListPage[T]) sync() {
	p.snap = p.ctrl.Snapshot()
	if p.selected >= len(p.snap.Items) {
		p.selected = max(0, len(p.snap.Items)-1)
	}
}

// loadDetail starts loading the selected item's detail unless it is already
// loaded or on its way.
func (p *ListPage[T]) loadDetail() tea.Cmd {
	if p.detailLoad == nil || len(p.snap.Items) == 0 {
		return nil
	}
	item := p.snap.Items[p.selected]
	k := p.detailKey(item)
	if k == p.wantDetail {
		return nil
	}
	p.wantDetail = k
	p.detailView, p.detailErr = nil, nil

	load, page := p.detailLoad, p.id
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), detailTimeout)
		defer cancel()
		render, err := load(ctx, item)
		return detailMsg{page: page, key: k, render: render, err: err}
	}
}

func (p *ListPage[T]) startSpinner() tea.Cmd {
	if !p.snap.Loading || p.spinning {
		return nil
	}
	p.spinning = true
	return spinnerTick(p.id)
}

func (p *ListPage[T]) updateTable(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	switch {
	case key.Matches(msg, p.keys.Quit):
		return tea.Quit, nil
	case key.Matches(msg, p.keys.Help):
		p.help.ShowAll = !p.help.ShowAll
	case key.Matches(msg, p.keys.NextView):
		return nil, &PageNav{Step: 1}
	case key.Matches(msg, p.keys.PrevView):
		return nil, &PageNav{Step: -1}
	case key.Matches(msg, p.keys.Up):
		if p.selected > 0 {
			p.selected--
		}
	case key.Matches(msg, p.keys.Down):
		if p.selected < len(p.snap.Items)-1 {
			p.selected++
		}
	case key.Matches(msg, p.keys.NextPage):
		if p.ctrl.NextPage() {
			p.selected = 0
		}
	case key.Matches(msg, p.keys.PrevPage):
		if p.ctrl.PreviousPage() {
			p.selected = 0
		}
	case key.Matches(msg, p.keys.Refresh):
		p.wantDetail = ""
		p.ctrl.Refresh()
	case key.Matches(msg, p.keys.Clear):
		p.clearFilters()
	case key.Matches(msg, p.keys.Filter):
		if len(p.inputs) == 0 {
			return nil, nil
		}
		p.editing = true
		p.field = 0
		return p.inputs[0].Focus(), nil
	default:
		return nil, nil
	}
	p.sync()
	return tea.Batch(p.startSpinner(), p.loadDetail()), nil
}

func (p *ListPage[T]) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch {
	case msg.Type == tea.KeyCtrlX:
		p.clearFilters()
		p.sync()
		return p.startSpinner()
	case key.Matches(msg, p.keys.Escape):
		p.leaveForm()
		return nil
	case key.Matches(msg, p.keys.Apply):
		p.leaveForm()
		p.ctrl.ApplyFilters()
		p.sync()
		return p.startSpinner()
	case key.Matches(msg, p.keys.NextField):
		return p.focusField(p.field + 1)
	case key.Matches(msg, p.keys.PrevField):
		return p.focusField(p.field - 1)
	}

	d := p.decls[p.field]
	if d.Kind == listsync.KindBoolean {
		if key.Matches(msg, p.keys.Toggle) {
			p.cycleBool(d.Key)
			p.sync()
			return p.startSpinner()
		}
		return nil
	}

	before := p.inputs[p.field].Value()
	var cmd tea.Cmd
	p.inputs[p.field], cmd = p.inputs[p.field].Update(msg)
	if v := p.inputs[p.field].Value(); v != before {
		p.logRejected(d.Key, p.ctrl.SetFilter(d.Key, v))
		p.sync()
		return tea.Batch(cmd, p.startSpinner())
	}
	return cmd
}

// cycleBool steps a boolean filter through any, true and false.
func (p *ListPage[T]) cycleBool(filterKey string) {
	in := &p.inputs[p.field]
	switch in.Value() {
	case "":
		in.SetValue(listsync.FormatBool(true))
		p.logRejected(filterKey, p.ctrl.SetBool(filterKey, true))
	case listsync.FormatBool(true):
		in.SetValue(listsync.FormatBool(false))
		p.logRejected(filterKey, p.ctrl.SetBool(filterKey, false))
	default:
		in.SetValue("")
		p.logRejected(filterKey, p.ctrl.SetFilter(filterKey, ""))
	}
}

func (p *ListPage[T]) logRejected(filterKey string, err error) {
	if err != nil {
		p.logger.Warn("filter update rejected", "filter", filterKey, "err", err)
	}
}

func (p *ListPage[T]) focusField(i int) tea.Cmd {
	n := len(p.inputs)
	p.inputs[p.field].Blur()
	p.field = (i%n + n) % n
	return p.inputs[p.field].Focus()
}

func (p *ListPage[T]) leaveForm() {
	p.editing = false
	for i := range p.inputs {
		p.inputs[i].Blur()
	}
}

func (p *ListPage[T]) clearFilters() {
	for i := range p.inputs {
		p.inputs[i].SetValue("")
	}
	p.ctrl.ClearFilters()
}

func (p *ListPage[T]) View(width, height int) string {
	var blocks []string
	if len(p.inputs) > 0 {
		blocks = append(blocks, p.renderFilters(width))
	}
	if p.summary != nil && len(p.snap.Items) > 0 {
		blocks = append(blocks, p.renderSummary(width))
	}
	if d := p.renderDetail(width); d != "" {
		blocks = append(blocks, d)
	}
	status := p.renderStatus(width)
	helpView := p.renderHelp()

	used := 0
	for _, b := range blocks {
		used += lipgloss.Height(b)
	}
	used += lipgloss.Height(status) + lipgloss.Height(helpView)
	bodyHeight := max(1, height-used)

	var body string
	switch {
	case p.snap.Loading && len(p.snap.Items) == 0:
		body = renderLoadingPlaceholder(width, bodyHeight)
	case p.snap.Err != "":
		msg := errorStyle.Render("Error: "+p.snap.Err) + mutedStyle.Render("  (r to retry)")
		body = lipgloss.Place(width, bodyHeight, lipgloss.Center, lipgloss.Center, msg)
	case len(p.snap.Items) == 0:
		body = lipgloss.Place(width, bodyHeight, lipgloss.Center, lipgloss.Center, mutedStyle.Render("No results"))
	default:
		body = p.renderTable(width, bodyHeight)
	}

	blocks = append(blocks, body, status, helpView)
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

// renderSummary reuses the last summary until the page contents or width change.
func (p *ListPage[T]) renderSummary(width int) string {
	k := summaryKey{token: p.snap.Token, status: p.snap.Status, items: len(p.snap.Items), width: width}
	if k != p.summaryAt || p.summaryView == "" {
		p.summaryAt = k
		p.summaryView = p.summary(p.snap.Items, width)
	}
	return p.summaryView
}

func (p *ListPage[T]) renderDetail(width int) string {
	if p.detailLoad == nil || p.wantDetail == "" || len(p.snap.Items) == 0 {
		return ""
	}
	switch {
	case p.detailErr != nil:
		return errorStyle.Render("Detail: " + p.detailErr.Error())
	case p.detailView == nil:
		return mutedStyle.Render(spinnerFrame() + " loading details")
	}
	return p.detailView(width)
}

func (p *ListPage[T]) renderFilters(width int) string {
	fields := make([]string, len(p.decls))
	for i, d := range p.decls {
		label := labelStyle.Render(d.Label + ":")
		if p.editing && i == p.field {
			label = activeLabelStyle.Render(d.Label + ":")
		}
		fields[i] = label + " " + p.inputs[i].View()
	}
	return lipgloss.NewStyle().MaxWidth(max(1, width)).Render(strings.Join(fields, "  "))
}

func (p *ListPage[T]) renderTable(width, height int) string {
	widths := columnWidths(p.columns, width)

	titles := make([]string, len(p.columns))
	for i, c := range p.columns {
		titles[i] = fit(c.Title, widths[i])
	}
	lines := []string{headerStyle.Render(strings.Join(titles, " "))}

	rows := max(1, height-1)
	offset := 0
	if p.selected >= rows {
		offset = p.selected - rows + 1
	}
	end := min(len(p.snap.Items), offset+rows)
	for i := offset; i < end; i++ {
		item := p.snap.Items[i]
		cells := make([]string, len(p.columns))
		for j, c := range p.columns {
			cell := fit(c.Value(item), widths[j])
			if c.Style != nil && i != p.selected {
				cell = c.Style(item).Render(cell)
			}
			cells[j] = cell
		}
		line := strings.Join(cells, " ")
		if i == p.selected {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (p *ListPage[T]) renderStatus(width int) string {
	left := fmt.Sprintf(" %d rows · page size %d", len(p.snap.Items), p.ctrl.PageSize())
	if n := p.snap.ActiveFilterCount; n > 0 {
		left += fmt.Sprintf(" · %d filter", n)
		if n > 1 {
			left += "s"
		}
	}
	if p.snap.Loading {
		left += " · " + spinnerFrame() + " loading"
	}

	var nav []string
	if p.snap.HasPreviousPage {
		nav = append(nav, "◀ prev")
	}
	if p.snap.HasNextPage {
		nav = append(nav, "next ▶")
	}
	right := strings.Join(nav, "  ") + " "

	gap := max(1, width-lipgloss.Width(left)-lipgloss.Width(right))
	return statusStyle.Render(left + strings.Repeat(" ", gap) + right)
}

func (p *ListPage[T]) renderHelp() string {
	if p.editing {
		return p.help.View(formKeys(p.keys))
	}
	return p.help.View(tableKeys(p.keys))
}

// columnWidths gives fixed columns their width and splits what is left
// evenly between flexible ones.
func columnWidths[T any](cols []Column[T], total int) []int {
	widths := make([]int, len(cols))
	used, flex := max(0, len(cols)-1), 0
	for i, c := range cols {
		if c.Width > 0 {
			widths[i] = c.Width
			used += c.Width
		} else {
			flex++
		}
	}
	if flex == 0 {
		return widths
	}
	share := max(8, (total-used)/flex)
	for i, c := range cols {
		if c.Width == 0 {
			widths[i] = share
		}
	}
	return widths
}

// fit pads or truncates s to exactly w cells.
func fit(s string, w int) string {
	r := []rune(s)
	if len(r) > w {
		if w > 3 {
			return string(r[:w-3]) + "..."
		}
		return string(r[:w])
	}
	return s + strings.Repeat(" ", w-len(r))
}
