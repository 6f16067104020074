// Package scheduler implements the priority/recurrence event scheduler
// (spec §4.4): a min-heap of due times guarded by a mutex, drained by a
// single ticker goroutine, with a bounded worker pool for execution and a
// FIFO immediate queue for fire-and-forget requests. Grounded on the
// teacher's metrics.go/main.go time.Ticker idiom, generalized from a single
// fixed interval to arbitrary per-event recurrence.
package scheduler

import (
	"container/heap"
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"ringhub/server/internal/clock"
)

const immediateQueueCadence = 100 * time.Millisecond

// Scheduler runs one-shot and recurring events.
type Scheduler struct {
	clock *clock.Clock
	log   *slog.Logger

	mu      sync.Mutex
	heap    eventHeap
	byID    map[string]*Event
	nextSeq uint64

	immediateMu sync.Mutex
	immediate   []func()

	work chan func()

	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// New constructs a Scheduler with a worker pool sized to at most
// runtime.NumCPU() (spec §4.4 "worker pool of size ≤ #cores"). A nil clock
// falls back to the system clock.
func New(c *clock.Clock, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	s := &Scheduler{
		clock: c,
		log:   log,
		heap:  eventHeap{},
		byID:  make(map[string]*Event),
		work:  make(chan func(), 64),
		done:  make(chan struct{}),
	}
	return s
}

func (s *Scheduler) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

// Start launches the ticker goroutine and the worker pool. Safe to call at
// most once; subsequent calls are no-ops (auto_start_scheduler gates whether
// the caller invokes this at boot at all, per spec §5 config).
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case fn := <-s.work:
					fn()
				}
			}
		}()
	}

	go s.tickerLoop(ctx)
	go s.immediateLoop(ctx)

	go func() {
		wg.Wait()
		close(s.done)
	}()
}

// Shutdown cancels the ticker and waits up to timeout for in-flight handlers
// to drain, then returns regardless (spec §4.4 "waits... then detaches").
func (s *Scheduler) Shutdown(timeout time.Duration) {
	if s.cancel == nil {
		return
	}
	s.cancel()
	select {
	case <-s.done:
	case <-time.After(timeout):
		s.log.Warn("scheduler shutdown: worker pool did not drain in time")
	}
}

// Schedule registers a new event and returns the Event. firstDue is the
// initial next_due; maxExecutions<0 means unlimited.
func (s *Scheduler) Schedule(id, name string, async bool, priority Priority, rec Recurrence, firstDue time.Time, maxExecutions int64, action Action) *Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	ev := &Event{
		ID: id, Name: name, Async: async, Priority: priority, Recurrence: rec,
		action: action, insertionSeq: s.nextSeq, nextDue: firstDue,
		maxExecutions: maxExecutions, enabled: true,
	}
	s.byID[id] = ev
	heap.Push(&s.heap, ev)
	return ev
}

// Cancel tombstones an event; the ticker will skip it on pop (spec §4.4
// "Cancellation").
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.byID[id]
	if !ok {
		return false
	}
	ev.tombstoned = true
	delete(s.byID, id)
	return true
}

// SetEnabled toggles an event's enabled flag, checked at pop time.
func (s *Scheduler) SetEnabled(id string, enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.byID[id]
	if !ok {
		return false
	}
	ev.enabled = enabled
	return true
}

// Get returns the event registered under id, if any.
func (s *Scheduler) Get(id string) (*Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.byID[id]
	return ev, ok
}

// Len reports how many events are currently registered, fired or not, for
// the ops metrics endpoint.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Immediate enqueues a fire-and-forget task drained at ≤100ms cadence (spec
// §4.4 "immediate-queue").
func (s *Scheduler) Immediate(fn func()) {
	s.immediateMu.Lock()
	s.immediate = append(s.immediate, fn)
	s.immediateMu.Unlock()
}

func (s *Scheduler) immediateLoop(ctx context.Context) {
	ticker := time.NewTicker(immediateQueueCadence)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.immediateMu.Lock()
			batch := s.immediate
			s.immediate = nil
			s.immediateMu.Unlock()
			for _, fn := range batch {
				fn := fn
				s.submit(fn)
			}
		}
	}
}

// tickerLoop pops due entries and offloads their execution, recomputing
// recurrence per spec §4.4.
func (s *Scheduler) tickerLoop(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.drainDue()
		}
	}
}

// drainDue pops every event due at or before now (the heap yields them by
// next_due, then priority, then insertion order), stably re-sorts the batch
// by priority so ties keep that next_due/insertion order, and submits the
// whole batch as a single work item that runs them sequentially (spec §4.4
// "execute in priority order"). One tick's batch therefore never races
// itself across worker-pool goroutines; it costs one pool slot for
// potentially several events, which is the right trade given the 10ms tick
// granularity and that handlers are expected to be short (spec §4.4
// "Failure semantics" assumes a handler doesn't block the scheduler).
func (s *Scheduler) drainDue() {
	now := s.now()
	var due []*Event

	s.mu.Lock()
	for s.heap.Len() > 0 {
		top := s.heap[0]
		if top.tombstoned {
			heap.Pop(&s.heap)
			continue
		}
		if top.nextDue.After(now) {
			break
		}
		heap.Pop(&s.heap)
		if !top.enabled {
			continue
		}
		due = append(due, top)
	}
	s.mu.Unlock()

	if len(due) == 0 {
		return
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].Priority > due[j].Priority })
	s.submit(func() {
		for _, ev := range due {
			s.run(ev, now)
		}
	})
}

func (s *Scheduler) submit(fn func()) {
	select {
	case s.work <- fn:
	default:
		go fn() // pool saturated: spill rather than stall the ticker
	}
}

// run executes one event and reschedules it if its recurrence says to.
// Handler failures are logged and never unregister or disable the event
// (spec §4.4 "Failure semantics").
func (s *Scheduler) run(ev *Event, firedAt time.Time) {
	if err := ev.action(); err != nil {
		s.log.Error("scheduler handler failed", "id", ev.ID, "name", ev.Name, "err", err)
	}

	s.mu.Lock()
	ev.executions++
	ev.lastRun = firedAt
	keep := !ev.tombstoned && ev.advance(s.now())
	if keep {
		heap.Push(&s.heap, ev)
	} else if !ev.tombstoned {
		delete(s.byID, ev.ID)
	}
	s.mu.Unlock()
}
