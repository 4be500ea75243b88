package listsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerBurstFiresOnce(t *testing.T) {
	clock := &fakeClock{}
	d := NewDebouncer(clock.AfterFunc)

	var fired []string
	record := func(v string) { fired = append(fired, v) }
	for _, v := range []string{"a", "aa", "aap", "aapl"} {
		d.Schedule("ticker", v, 400*time.Millisecond, record)
	}

	v, ok := d.Pending("ticker")
	assert.True(t, ok)
	assert.Equal(t, "aapl", v)
	assert.Equal(t, 1, clock.Active())

	assert.Equal(t, 1, clock.FireAll())
	assert.Equal(t, []string{"aapl"}, fired)

	_, ok = d.Pending("ticker")
	assert.False(t, ok)
}

func TestDebouncerEmptyValueFiresImmediately(t *testing.T) {
	clock := &fakeClock{}
	d := NewDebouncer(clock.AfterFunc)

	var fired []string
	record := func(v string) { fired = append(fired, v) }
	d.Schedule("ticker", "aapl", time.Second, record)
	d.Schedule("ticker", "", time.Second, record)

	assert.Equal(t, []string{""}, fired)
	assert.Equal(t, 0, clock.Active())
	assert.Equal(t, 0, clock.FireAll())
}

func TestDebouncerKeysAreIndependent(t *testing.T) {
	clock := &fakeClock{}
	d := NewDebouncer(clock.AfterFunc)

	fired := map[string]string{}
	d.Schedule("a", "1", time.Second, func(v string) { fired["a"] = v })
	d.Schedule("b", "2", time.Second, func(v string) { fired["b"] = v })

	d.Cancel("a")
	d.Cancel("a")
	d.Cancel("missing")

	clock.FireAll()
	assert.Equal(t, map[string]string{"b": "2"}, fired)
}

func TestDebouncerStaleTimerDoesNothing(t *testing.T) {
	clock := &fakeClock{}
	d := NewDebouncer(clock.AfterFunc)

	var fired []string
	d.Schedule("k", "old", time.Second, func(v string) { fired = append(fired, v) })
	stale := clock.timers[0]
	d.Schedule("k", "new", time.Second, func(v string) { fired = append(fired, v) })

	// A timer that already left the runtime queue still calls f after Stop.
	stale.f()
	assert.Empty(t, fired)

	clock.FireAll()
	assert.Equal(t, []string{"new"}, fired)
}

func TestDebouncerCancelAll(t *testing.T) {
	clock := &fakeClock{}
	d := NewDebouncer(clock.AfterFunc)
	d.Schedule("a", "1", time.Second, func(string) { t.Fatal("fired") })
	d.Schedule("b", "2", time.Second, func(string) { t.Fatal("fired") })

	d.CancelAll()
	assert.Equal(t, 0, clock.FireAll())
}

func TestDebouncerRealTimer(t *testing.T) {
	d := NewDebouncer(nil)
	done := make(chan string, 1)
	d.Schedule("k", "v", 5*time.Millisecond, func(v string) { done <- v })

	select {
	case v := <-done:
		assert.Equal(t, "v", v)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced callback never ran")
	}
}
