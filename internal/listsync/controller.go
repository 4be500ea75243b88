package listsync

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tickerflow/tickerdesk/internal/logging"
	"github.com/tickerflow/tickerdesk/internal/model"
)

// Status is the controller's position in its load cycle.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Config configures a Controller.
type Config struct {
	PageSize      int           // default model.DefaultPageSize, capped at model.MaxPageSize
	DebounceDelay time.Duration // default model.DefaultDebounceDelay
	Filters       []FilterDecl
	Location      *time.Location // zone for date filters, default UTC
	Logger        *log.Logger
	AfterFunc     AfterFunc // timer factory for debouncing, default time.AfterFunc
}

// Snapshot is a consistent copy of a controller's observable state.
type Snapshot[T any] struct {
	Items             []T
	Status            Status
	Loading           bool
	Err               string
	NextCursor        string
	PreviousCursor    string
	HasNextPage       bool
	HasPreviousPage   bool
	ActiveFilterCount int
	Filters           map[string]string
	Applied           map[string]string
	Token             uint64
}

// Controller keeps one list view's page in sync with its DataSource. All
// methods are safe for concurrent use.
type Controller[T any] struct {
	mu sync.Mutex

	source     DataSource[T]
	pageSize   int
	delay      time.Duration
	logger     *log.Logger
	filters    *FilterSet
	normalizer *Normalizer
	debounce   *Debouncer
	super      *Superseder[Result[T]]
	cursors    *CursorTracker

	ctx    context.Context
	cancel context.CancelFunc

	applied map[string]string
	cursor  string
	items   []T
	err     error
	status  Status
	closed  bool

	changes chan struct{}
}

// New builds a controller for source. Nothing is fetched until Load.
func New[T any](source DataSource[T], cfg Config) (*Controller[T], error) {
	if source == nil {
		return nil, ErrNoDataSource
	}
	fs, err := NewFilterSet(cfg.Filters...)
	if err != nil {
		return nil, fmt.Errorf("listsync: %w", err)
	}

	pageSize := cfg.PageSize
	switch {
	case pageSize <= 0:
		pageSize = model.DefaultPageSize
	case pageSize > model.MaxPageSize:
		pageSize = model.MaxPageSize
	}
	delay := cfg.DebounceDelay
	if delay <= 0 {
		delay = model.DefaultDebounceDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller[T]{
		source:     source,
		pageSize:   pageSize,
		delay:      delay,
		logger:     logger,
		filters:    fs,
		normalizer: NewNormalizer(fs.Decls(), WithLocation(cfg.Location)),
		debounce:   NewDebouncer(cfg.AfterFunc),
		cursors:    NewCursorTracker(logger),
		ctx:        ctx,
		cancel:     cancel,
		applied:    map[string]string{},
		changes:    make(chan struct{}, 1),
	}
	c.super = NewSuperseder[Result[T]](&c.mu, c.settle)
	return c, nil
}

// Load fetches the first page using the current filter values.
func (c *Controller[T]) Load() { c.ApplyFilters() }

// SetFilter records value for key and applies filters once input for key
// has been quiet for the debounce delay. A blank value applies at once.
func (c *Controller[T]) SetFilter(key, value string) error {
	if strings.TrimSpace(value) == "" {
		value = ""
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if err := c.filters.Set(key, value); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	c.debounce.Schedule(key, value, c.delay, func(string) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return
		}
		c.applyLocked()
	})
	return nil
}

// SetBool is SetFilter for a native boolean input.
func (c *Controller[T]) SetBool(key string, v bool) error {
	return c.SetFilter(key, FormatBool(v))
}

// ApplyFilters fetches the first page for the current filter values.
func (c *Controller[T]) ApplyFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.applyLocked()
}

// ClearFilters drops every filter value and fetches the first page.
func (c *Controller[T]) ClearFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.filters.Clear()
	c.applyLocked()
}

func (c *Controller[T]) applyLocked() {
	c.debounce.CancelAll()
	params, dropped := c.normalizer.Normalize(c.filters.Raw())
	for _, err := range dropped {
		c.logger.Debug("filter value dropped", "err", err)
	}
	c.applied = params
	c.cursors.Reset()
	c.cursor = ""
	c.issueLocked()
}

// NextPage fetches the page after the current one. It reports false when
// there is no next page.
func (c *Controller[T]) NextPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.cursors.Next()
	if c.closed || next == "" {
		return false
	}
	c.cursor = next
	c.issueLocked()
	return true
}

// PreviousPage fetches the page before the current one. It reports false
// when there is no previous page.
func (c *Controller[T]) PreviousPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.cursors.Previous()
	if c.closed || prev == "" {
		return false
	}
	c.cursor = prev
	c.issueLocked()
	return true
}

// Refresh refetches the current page with the applied filters.
func (c *Controller[T]) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.issueLocked()
}

func (c *Controller[T]) issueLocked() {
	pageSize, cursor, params := c.pageSize, c.cursor, maps.Clone(c.applied)
	c.status = StatusLoading
	token := c.super.Issue(c.ctx, func(ctx context.Context) (Result[T], error) {
		return c.source.Fetch(ctx, pageSize, cursor, params)
	})
	c.logger.Debug("fetch issued", "token", token, "cursor", cursor, "filters", params)
	c.notify()
}

// settle runs with c.mu held.
func (c *Controller[T]) settle(token uint64, outcome Outcome, res Result[T], err error) {
	switch outcome {
	case OutcomeCommitted:
		c.items = res.Items
		c.cursors.Update(res.NextReference, res.PreviousReference)
		c.err = nil
		c.status = StatusIdle
	case OutcomeFailed:
		c.items = nil
		c.cursors.Reset()
		c.err = err
		c.status = StatusError
		c.logger.Warn("fetch failed", "token", token, "err", err)
	case OutcomeSuperseded:
		c.logger.Debug("fetch superseded", "token", token, "err", err)
		if !c.super.Loading() && c.status == StatusLoading {
			c.status = StatusIdle
		}
	}
	c.notify()
}

func (c *Controller[T]) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

// Changes delivers a value after state changes. Bursts coalesce into one.
func (c *Controller[T]) Changes() <-chan struct{} { return c.changes }

// Snapshot returns a copy of the observable state.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot[T]{
		Items:             append([]T(nil), c.items...),
		Status:            c.status,
		Loading:           c.status == StatusLoading,
		NextCursor:        c.cursors.Next(),
		PreviousCursor:    c.cursors.Previous(),
		ActiveFilterCount: c.filters.ActiveCount(),
		Filters:           c.filters.Raw(),
		Applied:           maps.Clone(c.applied),
		Token:             c.super.Latest(),
	}
	s.HasNextPage = s.NextCursor != ""
	s.HasPreviousPage = s.PreviousCursor != ""
	if c.err != nil {
		s.Err = c.err.Error()
	}
	return s
}

func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

func (c *Controller[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status == StatusLoading
}

// Err returns the failure of the latest fetch, or nil.
func (c *Controller[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Controller[T]) HasNextPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursors.Next() != ""
}

func (c *Controller[T]) HasPreviousPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursors.Previous() != ""
}

func (c *Controller[T]) ActiveFilterCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters.ActiveCount()
}

// Filters returns the draft filter values.
func (c *Controller[T]) Filters() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters.Raw()
}

// Decls returns the filter declarations in order.
func (c *Controller[T]) Decls() []FilterDecl { return c.filters.Decls() }

// PageSize returns the effective page size.
func (c *Controller[T]) PageSize() int { return c.pageSize }

// Close abandons in-flight work, drops pending debounces and waits for
// fetch goroutines to return.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.super.AbortInFlight()
	if c.status == StatusLoading {
		c.status = StatusIdle
	}
	c.cancel()
	c.mu.Unlock()

	c.debounce.CancelAll()
	c.super.Wait()
}
