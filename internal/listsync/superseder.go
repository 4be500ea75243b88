package listsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Outcome classifies how an issued operation ended.
type Outcome int

const (
	OutcomeCommitted Outcome = iota
	OutcomeFailed
	OutcomeSuperseded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeFailed:
		return "failed"
	case OutcomeSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// SettleFunc receives every finished operation with the shared lock held.
// Only OutcomeCommitted and OutcomeFailed belong to the latest token.
// OutcomeSuperseded always carries an error matching ErrSuperseded.
type SettleFunc[R any] func(token uint64, outcome Outcome, result R, err error)

// Superseder issues operations so that only the most recently issued one
// can settle as committed or failed. It shares its owner's lock: Issue,
// AbortInFlight, Loading and Latest must be called with lock held.
type Superseder[R any] struct {
	lock    sync.Locker
	settle  SettleFunc[R]
	latest  uint64
	cancel  context.CancelFunc
	loading bool
	wg      sync.WaitGroup
}

func NewSuperseder[R any](lock sync.Locker, settle SettleFunc[R]) *Superseder[R] {
	return &Superseder[R]{lock: lock, settle: settle}
}

// Issue mints a new token, cancels the previous operation's context and
// runs op on its own goroutine.
func (s *Superseder[R]) Issue(parent context.Context, op func(context.Context) (R, error)) uint64 {
	if s.cancel != nil {
		s.cancel()
	}
	s.latest++
	token := s.latest
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.loading = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		result, err := op(ctx)
		s.lock.Lock()
		defer s.lock.Unlock()
		s.resolve(token, cancel, result, err)
	}()
	return token
}

func (s *Superseder[R]) resolve(token uint64, cancel context.CancelFunc, result R, err error) {
	if token != s.latest {
		cancel()
		s.settle(token, OutcomeSuperseded, result, supersededErr(err))
		return
	}
	s.loading = false
	s.cancel = nil
	cancel()
	switch {
	case err != nil && isAbort(err):
		s.settle(token, OutcomeSuperseded, result, supersededErr(err))
	case err != nil:
		s.settle(token, OutcomeFailed, result, err)
	default:
		s.settle(token, OutcomeCommitted, result, nil)
	}
}

// supersededErr is the error a superseded operation settles with. It wraps
// the operation's own error, if any.
func supersededErr(err error) error {
	if err == nil || errors.Is(err, ErrSuperseded) {
		return ErrSuperseded
	}
	return fmt.Errorf("%w: %w", ErrSuperseded, err)
}

// AbortInFlight cancels the current operation and invalidates its token.
func (s *Superseder[R]) AbortInFlight() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.latest++
	s.loading = false
}

func (s *Superseder[R]) Loading() bool  { return s.loading }
func (s *Superseder[R]) Latest() uint64 { return s.latest }

// Wait blocks until every issued goroutine has settled. Call without the lock.
func (s *Superseder[R]) Wait() { s.wg.Wait() }
