package listsync

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once wrapped.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

type debounceEntry struct {
	timer Timer
	value string
	gen   uint64
}

// Debouncer delays per-key callbacks until input for that key goes quiet.
// Scheduling a key again replaces its pending callback.
type Debouncer struct {
	mu        sync.Mutex
	afterFunc AfterFunc
	entries   map[string]*debounceEntry
	gen       uint64
}

// NewDebouncer returns a Debouncer using af for timers, or time.AfterFunc if nil.
func NewDebouncer(af AfterFunc) *Debouncer {
	if af == nil {
		af = realAfterFunc
	}
	return &Debouncer{afterFunc: af, entries: make(map[string]*debounceEntry)}
}

// Schedule arranges for fire(value) to run after delay unless key is
// scheduled or cancelled again first. An empty value cancels any pending
// callback for key and runs fire("") before returning.
func (d *Debouncer) Schedule(key, value string, delay time.Duration, fire func(string)) {
	d.mu.Lock()
	d.stopLocked(key)
	if value == "" {
		d.mu.Unlock()
		fire("")
		return
	}
	d.gen++
	gen := d.gen
	e := &debounceEntry{value: value, gen: gen}
	d.entries[key] = e
	e.timer = d.afterFunc(delay, func() { d.fire(key, gen, fire) })
	d.mu.Unlock()
}

func (d *Debouncer) fire(key string, gen uint64, fire func(string)) {
	d.mu.Lock()
	e, ok := d.entries[key]
	if !ok || e.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.entries, key)
	value := e.value
	d.mu.Unlock()
	fire(value)
}

// Cancel drops the pending callback for key, if any.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	d.stopLocked(key)
	d.mu.Unlock()
}

// CancelAll drops every pending callback.
func (d *Debouncer) CancelAll() {
	d.mu.Lock()
	for key := range d.entries {
		d.stopLocked(key)
	}
	d.mu.Unlock()
}

// Pending reports whether key has a callback waiting and its value.
func (d *Debouncer) Pending(key string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.entries[key]
	if !ok {
		return "", false
	}
	return e.value, true
}

func (d *Debouncer) stopLocked(key string) {
	e, ok := d.entries[key]
	if !ok {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(d.entries, key)
}
