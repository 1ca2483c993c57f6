package sched

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestScheduleAfter_FiresOnAdvance(t *testing.T) {
	clock := NewFakeClock()
	s := New(clock, nil)
	defer s.Stop()

	var fired atomic.Int32
	s.ScheduleAfter(100*time.Millisecond, func() { fired.Add(1) })

	clock.BlockUntilWaiters(1)
	clock.Advance(50 * time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())

	clock.Advance(60 * time.Millisecond)
	waitFor(t, func() bool { return fired.Load() == 1 })
}

func TestScheduleAfter_Cancel(t *testing.T) {
	clock := NewFakeClock()
	s := New(clock, nil)
	defer s.Stop()

	var fired atomic.Int32
	h := s.ScheduleAfter(100*time.Millisecond, func() { fired.Add(1) })
	clock.BlockUntilWaiters(1)
	h.Cancel()
	clock.Advance(200 * time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestDebounce_Coalesces(t *testing.T) {
	clock := NewFakeClock()
	s := New(clock, nil)
	defer s.Stop()

	var fired atomic.Int32
	s.Debounce("rescan", 100*time.Millisecond, func() { fired.Add(1) })
	clock.BlockUntilWaiters(1)
	s.Debounce("rescan", 100*time.Millisecond, func() { fired.Add(1) })
	clock.BlockUntilWaiters(1)

	clock.Advance(150 * time.Millisecond)
	waitFor(t, func() bool { return fired.Load() == 1 })
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestDebounce_IndependentKeys(t *testing.T) {
	clock := NewFakeClock()
	s := New(clock, nil)
	defer s.Stop()

	var a, b atomic.Int32
	s.Debounce("a", 50*time.Millisecond, func() { a.Add(1) })
	s.Debounce("b", 50*time.Millisecond, func() { b.Add(1) })
	clock.BlockUntilWaiters(2)
	clock.Advance(60 * time.Millisecond)
	waitFor(t, func() bool { return a.Load() == 1 && b.Load() == 1 })
}

func TestCancelKey(t *testing.T) {
	clock := NewFakeClock()
	s := New(clock, nil)
	defer s.Stop()

	var fired atomic.Int32
	s.Debounce("restore", 100*time.Millisecond, func() { fired.Add(1) })
	clock.BlockUntilWaiters(1)
	s.CancelKey("restore")
	s.CancelKey("missing")

	clock.Advance(200 * time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestStop_CancelsOutstanding(t *testing.T) {
	clock := NewFakeClock()
	s := New(clock, nil)

	var fired atomic.Int32
	s.ScheduleAfter(100*time.Millisecond, func() { fired.Add(1) })
	s.Debounce("x", 100*time.Millisecond, func() { fired.Add(1) })
	clock.BlockUntilWaiters(2)

	s.Stop()
	clock.Advance(time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())

	// New work after Stop is dropped.
	s.ScheduleAfter(time.Millisecond, func() { fired.Add(1) })
	clock.Advance(time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestSleep_Cancellable(t *testing.T) {
	clock := NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Sleep(ctx, clock, time.Minute) }()
	clock.BlockUntilWaiters(1)
	cancel()
	assert.Error(t, <-done)

	// Uncancelled sleep completes when the clock advances.
	done2 := make(chan error, 1)
	go func() { done2 <- Sleep(context.Background(), clock, 10*time.Millisecond) }()
	clock.BlockUntilWaiters(1)
	clock.Advance(20 * time.Millisecond)
	assert.NoError(t, <-done2)
}
