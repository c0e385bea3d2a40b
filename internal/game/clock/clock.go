// Package clock provides the simulation time source. All times are
// milliseconds of simulation time.
package clock

import "sync"

// Clock is the time oracle consumed by the simulation.
type Clock interface {
	// NowMs returns the current simulation time in milliseconds.
	NowMs() int64
	// StateTime returns the time against which condition expiry is judged.
	// 0 means the state time is unset.
	StateTime() int64
}

// Sim is a manually advanced Clock. The tick loop owns advancement; reads are
// safe from any goroutine.
//
// Invariant: StateTime never exceeds NowMs.
type Sim struct {
	mu     sync.RWMutex
	now    int64
	state  int64
	frozen bool
}

// NewSim returns a Sim starting at start. A zero start leaves the state time unset.
func NewSim(start int64) *Sim {
	return &Sim{now: start, state: start}
}

// NowMs implements Clock.
func (s *Sim) NowMs() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now
}

// StateTime implements Clock.
func (s *Sim) StateTime() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Advance moves simulation time forward by ms. While frozen, the state time
// stays where it was so condition expiry is suspended.
//
// Precondition: ms >= 0.
func (s *Sim) Advance(ms int64) {
	if ms < 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now += ms
	if !s.frozen {
		s.state = s.now
	}
}

// Freeze suspends state-time advancement.
func (s *Sim) Freeze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen = true
}

// Thaw resumes state-time advancement and catches it up to NowMs.
func (s *Sim) Thaw() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen = false
	s.state = s.now
}
