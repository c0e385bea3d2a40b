// Package scheduler runs delayed callbacks on the simulation tick goroutine.
//
// Schedule and Cancel are safe from any goroutine. Callbacks only execute
// inside RunDue, which the tick loop calls, so every callback observes
// creature state from the authoritative goroutine.
package scheduler

import (
	"sync"

	"github.com/emirpasic/gods/queues/priorityqueue"
	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturesim/internal/game/clock"
)

// Handle identifies a scheduled task. The zero Handle is never issued.
type Handle uint64

// Task is a scheduled callback.
type Task func()

type entry struct {
	handle Handle
	due    int64
	seq    uint64
	fn     Task
}

func byDue(a, b interface{}) int {
	ea, eb := a.(*entry), b.(*entry)
	switch {
	case ea.due < eb.due:
		return -1
	case ea.due > eb.due:
		return 1
	case ea.seq < eb.seq:
		return -1
	case ea.seq > eb.seq:
		return 1
	default:
		return 0
	}
}

// Scheduler is a delayed-task queue ordered by due time, then by schedule order.
// Cancelled tasks stay in the queue and are skipped when they surface.
type Scheduler struct {
	mu       sync.Mutex
	queue    *priorityqueue.Queue
	live     map[Handle]*entry
	next     Handle
	clock    clock.Clock
	minDelay int64
	logger   *zap.Logger
}

// New creates a Scheduler reading time from clk. Delays shorter than
// minDelay are raised to minDelay.
//
// Precondition: clk and logger must be non-nil; minDelay >= 0.
func New(clk clock.Clock, minDelay int64, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		queue:    priorityqueue.NewWith(byDue),
		live:     make(map[Handle]*entry),
		clock:    clk,
		minDelay: minDelay,
		logger:   logger,
	}
}

// Schedule queues fn to run delay ms from now.
//
// Precondition: fn must not be nil.
// Postcondition: Returns a non-zero Handle unique for this Scheduler.
func (s *Scheduler) Schedule(delay int64, fn Task) Handle {
	if delay < s.minDelay {
		delay = s.minDelay
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	e := &entry{
		handle: s.next,
		due:    s.clock.NowMs() + delay,
		seq:    uint64(s.next),
		fn:     fn,
	}
	s.live[e.handle] = e
	s.queue.Enqueue(e)
	return e.handle
}

// Cancel prevents the task identified by h from running.
//
// Postcondition: Returns false when h is zero, already ran, or was already cancelled.
func (s *Scheduler) Cancel(h Handle) bool {
	if h == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live[h]; !ok {
		return false
	}
	delete(s.live, h)
	s.logger.Debug("task cancelled", zap.Uint64("handle", uint64(h)))
	return true
}

// Pending returns the number of scheduled, uncancelled tasks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// RunDue runs every task whose due time is at or before the current time, in
// due order. Tasks scheduled by a callback run in the same call if they are
// already due. Must only be called from the tick goroutine.
//
// Postcondition: Returns the number of callbacks executed.
func (s *Scheduler) RunDue() int {
	ran := 0
	for {
		fn, ok := s.popDue()
		if !ok {
			return ran
		}
		fn()
		ran++
	}
}

func (s *Scheduler) popDue() (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.NowMs()
	for {
		head, ok := s.queue.Peek()
		if !ok {
			return nil, false
		}
		e := head.(*entry)
		if _, live := s.live[e.handle]; !live {
			s.queue.Dequeue()
			continue
		}
		if e.due > now {
			return nil, false
		}
		s.queue.Dequeue()
		delete(s.live, e.handle)
		return e.fn, true
	}
}

// Clear cancels every pending task.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.Clear()
	clear(s.live)
}
