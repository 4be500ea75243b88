package listsync

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock hands out timers that only fire when the test says so.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, delay: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Active counts timers that are neither stopped nor fired.
func (c *fakeClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// FireAll runs every active timer on the calling goroutine.
func (c *fakeClock) FireAll() int {
	c.mu.Lock()
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
	return len(due)
}

type response struct {
	res Result[string]
	err error
}

type call struct {
	ctx      context.Context
	PageSize int
	Cursor   string
	Filters  map[string]string
	resp     chan response
}

func (c *call) reply(items []string, next, prev string) {
	c.resp <- response{res: Result[string]{Items: items, NextReference: next, PreviousReference: prev}}
}

func (c *call) fail(err error) { c.resp <- response{err: err} }

// stubSource records every fetch and blocks it until the test replies.
type stubSource struct {
	calls     chan *call
	ignoreCtx bool
}

func newStubSource() *stubSource {
	return &stubSource{calls: make(chan *call, 32)}
}

func (s *stubSource) Fetch(ctx context.Context, pageSize int, cursor string, filters map[string]string) (Result[string], error) {
	c := &call{ctx: ctx, PageSize: pageSize, Cursor: cursor, Filters: filters, resp: make(chan response, 1)}
	s.calls <- c
	if s.ignoreCtx {
		r := <-c.resp
		return r.res, r.err
	}
	select {
	case r := <-c.resp:
		return r.res, r.err
	case <-ctx.Done():
		return Result[string]{}, ctx.Err()
	}
}

func (s *stubSource) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-s.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fetch")
		return nil
	}
}

func (s *stubSource) none(t *testing.T) {
	t.Helper()
	select {
	case c := <-s.calls:
		t.Fatalf("unexpected fetch cursor=%q filters=%v", c.Cursor, c.Filters)
	case <-time.After(20 * time.Millisecond):
	}
}

var testDecls = []FilterDecl{
	{Key: "ticker", Label: "Ticker", Kind: KindContains},
	{Key: "state", Label: "State", Kind: KindExact},
	{Key: "is_terminal", Label: "Terminal", Kind: KindBoolean},
	{Key: "created_after", Label: "After", Kind: KindDateAfter},
	{Key: "created_before", Label: "Before", Kind: KindDateBefore},
}
