// Package sched provides the single-owner task scheduler the engine runs its
// delays, polls, and debounced rescans on. All waiting goes through a Clock
// so tests drive time with a fake instead of sleeping.
package sched

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// RealClock is the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time                         { return time.Now() }
func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Sleep waits for d on the given clock, returning early with the context's
// error if it is cancelled first.
func Sleep(ctx context.Context, c Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-c.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handle cancels a scheduled callback. Cancelling an already-fired or
// already-cancelled handle is a no-op.
type Handle struct {
	once   sync.Once
	cancel chan struct{}
}

// Cancel prevents the callback from running if it hasn't started yet.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.cancel) })
}

// Scheduler runs delayed and debounced callbacks. Callbacks are handed to
// the dispatch function so the owner can funnel them onto its run loop; a
// nil dispatch runs them on the timer goroutine.
type Scheduler struct {
	clock    Clock
	dispatch func(func())

	mu        sync.Mutex
	pending   map[*Handle]struct{}
	debounced map[string]*Handle
	stopped   bool
}

// New creates a scheduler on the given clock.
func New(clock Clock, dispatch func(func())) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	return &Scheduler{
		clock:     clock,
		dispatch:  dispatch,
		pending:   make(map[*Handle]struct{}),
		debounced: make(map[string]*Handle),
	}
}

// Clock returns the scheduler's clock.
func (s *Scheduler) Clock() Clock { return s.clock }

// ScheduleAfter runs fn once after d. The returned handle cancels it.
func (s *Scheduler) ScheduleAfter(d time.Duration, fn func()) *Handle {
	h := &Handle{cancel: make(chan struct{})}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		h.Cancel()
		return h
	}
	s.pending[h] = struct{}{}
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.pending, h)
			s.mu.Unlock()
		}()
		select {
		case <-s.clock.After(d):
		case <-h.cancel:
			return
		}
		// Re-check cancellation that raced the timer.
		select {
		case <-h.cancel:
			return
		default:
		}
		if s.dispatch != nil {
			s.dispatch(fn)
		} else {
			fn()
		}
	}()
	return h
}

// Debounce schedules fn after d under the given key, replacing any pending
// callback for the same key. Only the last call within the window runs.
func (s *Scheduler) Debounce(key string, d time.Duration, fn func()) {
	s.mu.Lock()
	if prev, ok := s.debounced[key]; ok {
		prev.Cancel()
	}
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return
	}

	h := s.ScheduleAfter(d, func() {
		s.mu.Lock()
		if s.debounced[key] != nil {
			delete(s.debounced, key)
		}
		s.mu.Unlock()
		fn()
	})

	s.mu.Lock()
	s.debounced[key] = h
	s.mu.Unlock()
}

// CancelKey cancels the pending debounced callback for key, if any.
func (s *Scheduler) CancelKey(key string) {
	s.mu.Lock()
	h, ok := s.debounced[key]
	if ok {
		delete(s.debounced, key)
	}
	s.mu.Unlock()
	if ok {
		h.Cancel()
	}
}

// Stop cancels every outstanding callback. The scheduler accepts no new work
// afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	handles := make([]*Handle, 0, len(s.pending))
	for h := range s.pending {
		handles = append(handles, h)
	}
	s.debounced = make(map[string]*Handle)
	s.mu.Unlock()

	for _, h := range handles {
		h.Cancel()
	}
}
