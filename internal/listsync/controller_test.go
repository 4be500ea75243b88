package listsync

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickerflow/tickerdesk/internal/model"
)

func newTestController(t *testing.T, src *stubSource, clock *fakeClock) *Controller[string] {
	t.Helper()
	cfg := Config{PageSize: 2, Filters: testDecls}
	if clock != nil {
		cfg.AfterFunc = clock.AfterFunc
	}
	c, err := New[string](src, cfg)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func waitIdle(t *testing.T, c *Controller[string]) {
	t.Helper()
	require.Eventually(t, func() bool { return !c.Loading() }, 2*time.Second, 2*time.Millisecond)
}

func TestNewRequiresSource(t *testing.T) {
	_, err := New[string](nil, Config{})
	assert.ErrorIs(t, err, ErrNoDataSource)

	_, err = New[string](newStubSource(), Config{Filters: []FilterDecl{{Key: "a"}, {Key: "a"}}})
	assert.ErrorIs(t, err, ErrDuplicateFilter)
}

func TestPageSizeDefaults(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, model.DefaultPageSize},
		{25, 25},
		{1000, model.MaxPageSize},
	}
	for _, tt := range tests {
		c, err := New[string](newStubSource(), Config{PageSize: tt.in})
		require.NoError(t, err)
		assert.Equal(t, tt.want, c.PageSize())
		c.Close()
	}
}

func TestLoadFirstPage(t *testing.T) {
	src := newStubSource()
	c := newTestController(t, src, nil)

	assert.Equal(t, StatusIdle, c.Snapshot().Status)
	c.Load()
	assert.True(t, c.Loading())

	call := src.next(t)
	assert.Equal(t, 2, call.PageSize)
	assert.Equal(t, "", call.Cursor)
	assert.Empty(t, call.Filters)
	call.reply([]string{"x", "y"}, "http://localhost/api/tickers?cursor=n2", "")
	waitIdle(t, c)

	snap := c.Snapshot()
	assert.Equal(t, []string{"x", "y"}, snap.Items)
	assert.True(t, snap.HasNextPage)
	assert.False(t, snap.HasPreviousPage)
	assert.Equal(t, "n2", snap.NextCursor)
	assert.Empty(t, snap.Err)
	assert.Equal(t, StatusIdle, snap.Status)
}

func TestLatestFetchWins(t *testing.T) {
	src := newStubSource()
	src.ignoreCtx = true
	c := newTestController(t, src, &fakeClock{})

	require.NoError(t, c.SetFilter("state", "FAILED"))
	c.ApplyFilters()
	a := src.next(t)
	require.NoError(t, c.SetFilter("state", "DONE"))
	c.ApplyFilters()
	b := src.next(t)
	assert.Equal(t, map[string]string{"state": "DONE"}, b.Filters)

	b.reply([]string{"b"}, "?cursor=b-next", "")
	waitIdle(t, c)
	a.reply([]string{"a"}, "?cursor=a-next", "?cursor=a-prev")

	c.Close() // waits for a to settle
	snap := c.Snapshot()
	assert.Equal(t, []string{"b"}, snap.Items)
	assert.Equal(t, "b-next", snap.NextCursor)
	assert.False(t, snap.HasPreviousPage)
}

func TestStaleFailureIsNotSurfaced(t *testing.T) {
	src := newStubSource()
	src.ignoreCtx = true
	c := newTestController(t, src, nil)

	c.Load()
	a := src.next(t)
	c.Refresh()
	b := src.next(t)

	b.reply([]string{"ok"}, "", "")
	waitIdle(t, c)
	a.fail(&SourceError{StatusCode: 500, Message: "stale"})
	c.Close()

	assert.NoError(t, c.Err())
	assert.Equal(t, []string{"ok"}, c.Items())
}

func TestSupersededFetchIsCancelled(t *testing.T) {
	src := newStubSource()
	c := newTestController(t, src, nil)

	c.Load()
	a := src.next(t)
	c.Refresh()
	b := src.next(t)

	select {
	case <-a.ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("superseded fetch context not cancelled")
	}
	assert.NoError(t, b.ctx.Err())
	assert.True(t, c.Loading())

	b.reply([]string{"b"}, "", "")
	waitIdle(t, c)
	assert.NoError(t, c.Err())
	assert.Equal(t, []string{"b"}, c.Items())
}

func TestSetFilterDebounces(t *testing.T) {
	src := newStubSource()
	clock := &fakeClock{}
	c := newTestController(t, src, clock)

	for _, v := range []string{"a", "aa", "aap"} {
		require.NoError(t, c.SetFilter("ticker", v))
	}
	assert.Equal(t, 1, c.ActiveFilterCount())
	src.none(t)

	assert.Equal(t, 1, clock.FireAll())
	call := src.next(t)
	assert.Equal(t, map[string]string{"ticker": "aap"}, call.Filters)
	src.none(t)
	assert.Equal(t, 0, clock.FireAll())

	call.reply(nil, "", "")
	waitIdle(t, c)
}

func TestSetFilterEmptyAppliesImmediately(t *testing.T) {
	src := newStubSource()
	clock := &fakeClock{}
	c := newTestController(t, src, clock)

	require.NoError(t, c.SetFilter("ticker", "aapl"))
	require.NoError(t, c.SetFilter("ticker", ""))

	call := src.next(t)
	assert.Empty(t, call.Filters)
	assert.Equal(t, 0, clock.Active())
	assert.Equal(t, 0, c.ActiveFilterCount())

	call.reply([]string{"all"}, "", "")
	waitIdle(t, c)
	src.none(t)
}

func TestSetFilterBlankAppliesImmediately(t *testing.T) {
	src := newStubSource()
	clock := &fakeClock{}
	c := newTestController(t, src, clock)

	require.NoError(t, c.SetFilter("ticker", "aapl"))
	require.NoError(t, c.SetFilter("ticker", "   "))

	call := src.next(t)
	assert.Empty(t, call.Filters)
	assert.Equal(t, 0, clock.Active())
	assert.Equal(t, 0, c.ActiveFilterCount())
	assert.Empty(t, c.Filters())

	call.reply(nil, "", "")
	waitIdle(t, c)
	src.none(t)
}

func TestSetFilterUnknownKey(t *testing.T) {
	c := newTestController(t, newStubSource(), &fakeClock{})
	assert.ErrorIs(t, c.SetFilter("bogus", "x"), ErrUnknownFilter)
}

func TestApplyFiltersResetsCursors(t *testing.T) {
	src := newStubSource()
	clock := &fakeClock{}
	c := newTestController(t, src, clock)

	c.Load()
	src.next(t).reply([]string{"x", "y"}, "?cursor=n2", "")
	waitIdle(t, c)
	require.True(t, c.NextPage())

	call := src.next(t)
	assert.Equal(t, "n2", call.Cursor)
	call.reply([]string{"z"}, "?cursor=n3", "?cursor=p1")
	waitIdle(t, c)
	require.True(t, c.HasNextPage())
	require.True(t, c.HasPreviousPage())

	require.NoError(t, c.SetFilter("state", "FAILED"))
	c.ApplyFilters()
	snap := c.Snapshot()
	assert.False(t, snap.HasNextPage)
	assert.False(t, snap.HasPreviousPage)
	assert.True(t, snap.Loading)
	assert.Equal(t, 0, clock.Active(), "apply drops pending debounce")

	call = src.next(t)
	assert.Equal(t, "", call.Cursor)
	assert.Equal(t, map[string]string{"state": "FAILED"}, call.Filters)
	call.reply(nil, "", "")
	waitIdle(t, c)

	c.ClearFilters()
	snap = c.Snapshot()
	assert.False(t, snap.HasNextPage)
	assert.False(t, snap.HasPreviousPage)
	call = src.next(t)
	assert.Equal(t, "", call.Cursor)
	assert.Empty(t, call.Filters)
	call.reply(nil, "", "")
	waitIdle(t, c)
}

func TestPagingWithoutCursorIsNoop(t *testing.T) {
	src := newStubSource()
	c := newTestController(t, src, nil)

	assert.False(t, c.NextPage())
	assert.False(t, c.PreviousPage())
	src.none(t)

	c.Load()
	src.next(t).reply([]string{"only"}, "", "")
	waitIdle(t, c)
	assert.False(t, c.NextPage())
	assert.False(t, c.PreviousPage())
	src.none(t)
}

func TestPreviousPage(t *testing.T) {
	src := newStubSource()
	c := newTestController(t, src, nil)

	c.Load()
	src.next(t).reply([]string{"a"}, "?cursor=n", "?cursor=p")
	waitIdle(t, c)

	require.True(t, c.PreviousPage())
	call := src.next(t)
	assert.Equal(t, "p", call.Cursor)
	call.reply([]string{"b"}, "?cursor=n", "")
	waitIdle(t, c)
	assert.False(t, c.HasPreviousPage())
}

func TestFailureClearsStateAndRefreshRecovers(t *testing.T) {
	src := newStubSource()
	c := newTestController(t, src, nil)

	c.Load()
	src.next(t).reply([]string{"x"}, "?cursor=n", "")
	waitIdle(t, c)
	require.True(t, c.NextPage())
	src.next(t).fail(&SourceError{StatusCode: 502, Message: "upstream down"})
	waitIdle(t, c)

	snap := c.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.NotEmpty(t, snap.Err)
	assert.Empty(t, snap.Items)
	assert.False(t, snap.HasNextPage)
	assert.False(t, snap.HasPreviousPage)
	var se *SourceError
	require.True(t, errors.As(c.Err(), &se))
	assert.Equal(t, 502, se.StatusCode)

	c.Refresh()
	call := src.next(t)
	assert.Equal(t, "n", call.Cursor, "refresh retries the failed page")
	call.reply([]string{"y"}, "", "")
	waitIdle(t, c)

	snap = c.Snapshot()
	assert.Empty(t, snap.Err)
	assert.NoError(t, c.Err())
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Equal(t, []string{"y"}, snap.Items)
}

func TestTransportErrorSurfaces(t *testing.T) {
	src := newStubSource()
	c := newTestController(t, src, nil)

	c.Load()
	src.next(t).fail(&TransportError{Op: "GET /api/runs", Err: errors.New("connection refused")})
	waitIdle(t, c)

	var te *TransportError
	assert.True(t, errors.As(c.Err(), &te))
	assert.Contains(t, c.Snapshot().Err, "connection refused")
}

func TestClearThenApplyMatchesInitialLoad(t *testing.T) {
	src := newStubSource()
	clock := &fakeClock{}
	c := newTestController(t, src, clock)

	c.Load()
	initial := src.next(t)
	initial.reply([]string{"x", "y"}, "?cursor=n2", "")
	waitIdle(t, c)
	want := c.Snapshot()

	require.NoError(t, c.SetFilter("ticker", "zzz"))
	c.ApplyFilters()
	src.next(t).reply(nil, "", "")
	waitIdle(t, c)

	c.ClearFilters()
	cleared := src.next(t)
	cleared.reply([]string{"x", "y"}, "?cursor=n2", "")
	waitIdle(t, c)

	c.ApplyFilters()
	again := src.next(t)
	assert.Equal(t, initial.PageSize, again.PageSize)
	assert.Equal(t, initial.Cursor, again.Cursor)
	assert.Equal(t, initial.Filters, again.Filters)
	assert.Equal(t, initial.Filters, cleared.Filters)
	again.reply([]string{"x", "y"}, "?cursor=n2", "")
	waitIdle(t, c)

	got := c.Snapshot()
	assert.Equal(t, want.Items, got.Items)
	assert.Equal(t, want.NextCursor, got.NextCursor)
	assert.Equal(t, want.Applied, got.Applied)
}

func TestInvalidFilterValueIsNotSent(t *testing.T) {
	src := newStubSource()
	c := newTestController(t, src, &fakeClock{})

	require.NoError(t, c.SetFilter("is_terminal", "maybe"))
	require.NoError(t, c.SetFilter("created_after", "yesterday"))
	require.NoError(t, c.SetBool("is_terminal", true))
	c.ApplyFilters()

	call := src.next(t)
	assert.Equal(t, map[string]string{"is_terminal": "true"}, call.Filters)
	call.reply(nil, "", "")
	waitIdle(t, c)
}

func TestChangesNotifies(t *testing.T) {
	src := newStubSource()
	c := newTestController(t, src, nil)

	c.Load()
	select {
	case <-c.Changes():
	case <-time.After(time.Second):
		t.Fatal("no change after issue")
	}
	src.next(t).reply([]string{"x"}, "", "")
	select {
	case <-c.Changes():
	case <-time.After(2 * time.Second):
		t.Fatal("no change after commit")
	}
}

func TestCloseAbandonsInFlight(t *testing.T) {
	src := newStubSource()
	c, err := New[string](src, Config{Filters: testDecls})
	require.NoError(t, err)

	c.Load()
	call := src.next(t)
	c.Close()

	assert.Error(t, call.ctx.Err())
	assert.False(t, c.Loading())
	assert.Empty(t, c.Items())

	c.Load()
	assert.False(t, c.Loading())
	src.none(t)
	assert.NoError(t, c.SetFilter("ticker", "x"))
	c.Close()
}
