package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerFiresRecurringEvent(t *testing.T) {
	s := New(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Shutdown(time.Second)

	var count atomic.Int64
	s.Schedule("tick", "tick", false, Normal, Recurrence{Kind: Seconds, Interval: 0}, time.Now(), -1,
		func() error { count.Add(1); return nil })

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if count.Load() >= 5 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if count.Load() < 5 {
		t.Fatalf("expected at least 5 executions, got %d", count.Load())
	}

	ev, ok := s.Get("tick")
	if !ok {
		t.Fatalf("expected event still registered")
	}
	if ev.Executions() < 5 {
		t.Fatalf("expected Executions() >= 5, got %d", ev.Executions())
	}
}

func TestSchedulerCancelStopsFutureExecutions(t *testing.T) {
	s := New(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Shutdown(time.Second)

	var count atomic.Int64
	s.Schedule("onceish", "onceish", false, Normal, Recurrence{Kind: Seconds, Interval: 0}, time.Now(), -1,
		func() error { count.Add(1); return nil })

	time.Sleep(30 * time.Millisecond)
	if !s.Cancel("onceish") {
		t.Fatalf("expected Cancel to find the event")
	}
	afterCancel := count.Load()
	time.Sleep(100 * time.Millisecond)
	if count.Load() > afterCancel+1 {
		// allow at most one in-flight execution racing the tombstone
		t.Fatalf("expected no further executions after cancel: before=%d after=%d", afterCancel, count.Load())
	}
	if _, ok := s.Get("onceish"); ok {
		t.Fatalf("expected cancelled event removed from lookup")
	}
}

func TestSchedulerPriorityOrderWithinSameDueTime(t *testing.T) {
	s := New(nil, nil)
	due := time.Now().Add(20 * time.Millisecond)

	var mu sync.Mutex
	var order []string
	record := func(name string) Action {
		return func() error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	s.Schedule("low", "low", false, Low, Recurrence{Kind: None}, due, 1, record("low"))
	s.Schedule("normal", "normal", false, Normal, Recurrence{Kind: None}, due, 1, record("normal"))
	s.Schedule("critical", "critical", false, Critical, Recurrence{Kind: None}, due, 1, record("critical"))
	s.Schedule("high", "high", false, High, Recurrence{Kind: None}, due, 1, record("high"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Shutdown(time.Second)

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(order)
		mu.Unlock()
		if n == 4 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"critical", "high", "normal", "low"}
	if len(order) != len(want) {
		t.Fatalf("expected 4 executions, got %v", order)
	}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("execution order = %v, want %v", order, want)
		}
	}
}

func TestSchedulerOneShotRemovedAfterFiring(t *testing.T) {
	s := New(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Shutdown(time.Second)

	done := make(chan struct{})
	s.Schedule("once", "once", false, Normal, Recurrence{Kind: None}, time.Now(), 1,
		func() error { close(done); return nil })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("one-shot event never fired")
	}

	time.Sleep(50 * time.Millisecond)
	if _, ok := s.Get("once"); ok {
		t.Fatalf("expected one-shot event removed after firing")
	}
}

func TestSchedulerDisabledEventDoesNotFire(t *testing.T) {
	s := New(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Shutdown(time.Second)

	var count atomic.Int64
	s.Schedule("disabled", "disabled", false, Normal, Recurrence{Kind: Seconds, Interval: 0}, time.Now(), -1,
		func() error { count.Add(1); return nil })
	s.SetEnabled("disabled", false)

	time.Sleep(100 * time.Millisecond)
	if count.Load() != 0 {
		t.Fatalf("expected disabled event never to fire, got %d executions", count.Load())
	}
}

func TestSchedulerHandlerFailureDoesNotUnregisterEvent(t *testing.T) {
	s := New(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Shutdown(time.Second)

	var count atomic.Int64
	s.Schedule("failing", "failing", false, Normal, Recurrence{Kind: Seconds, Interval: 0}, time.Now(), -1,
		func() error {
			count.Add(1)
			return context.DeadlineExceeded
		})

	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) && count.Load() < 3 {
		time.Sleep(10 * time.Millisecond)
	}
	if count.Load() < 3 {
		t.Fatalf("expected repeated failing executions, got %d", count.Load())
	}
	if _, ok := s.Get("failing"); !ok {
		t.Fatalf("expected a consistently failing event to remain registered")
	}
}
