// Package gameserver runs the creature simulation: content bootstrap, the
// tick loop and the log-backed notifier.
package gameserver

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturesim/internal/game/clock"
	"github.com/cory-johannsen/creaturesim/internal/game/creature"
	"github.com/cory-johannsen/creaturesim/internal/game/scheduler"
)

// Simulation drives a creature World. Each tick advances the simulation
// clock by the tick length and drains the due scheduler tasks; every think
// interval each live creature thinks, attacks and runs its conditions, and
// creatures at 0 health die.
//
// Invariant: all creature callbacks run on the goroutine calling Tick.
type Simulation struct {
	world    *creature.World
	clock    *clock.Sim
	sched    *scheduler.Scheduler
	logger   *zap.Logger
	tickMs   int64
	thinkMs  int64
	realTime bool

	mu         sync.Mutex
	observers  map[string]func(nowMs int64)
	sinceThink int64
	ticks      atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
}

// SimulationOptions are the tick timing parameters.
type SimulationOptions struct {
	TickMs          int64
	ThinkIntervalMs int64
	// RealTime paces ticks with a wall-clock ticker; otherwise Start runs
	// them back to back.
	RealTime bool
}

// NewSimulation returns a stopped Simulation.
//
// Precondition: w, clk, sched and logger must be non-nil; opts.TickMs > 0;
// opts.ThinkIntervalMs is a positive multiple of opts.TickMs.
func NewSimulation(w *creature.World, clk *clock.Sim, sched *scheduler.Scheduler, opts SimulationOptions, logger *zap.Logger) *Simulation {
	if opts.TickMs <= 0 || opts.ThinkIntervalMs <= 0 {
		panic("gameserver.NewSimulation: tick and think intervals must be > 0")
	}
	return &Simulation{
		world:     w,
		clock:     clk,
		sched:     sched,
		logger:    logger,
		tickMs:    opts.TickMs,
		thinkMs:   opts.ThinkIntervalMs,
		realTime:  opts.RealTime,
		observers: make(map[string]func(int64)),
		stop:      make(chan struct{}),
	}
}

// World returns the simulated world.
func (s *Simulation) World() *creature.World { return s.world }

// Clock returns the simulation clock.
func (s *Simulation) Clock() *clock.Sim { return s.clock }

// Ticks returns the number of ticks run so far.
func (s *Simulation) Ticks() int64 { return s.ticks.Load() }

// RegisterTick registers fn to run after every tick under name. Replaces
// any existing callback of that name.
func (s *Simulation) RegisterTick(name string, fn func(nowMs int64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers[name] = fn
}

// Unregister removes the tick callback registered under name.
func (s *Simulation) Unregister(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.observers, name)
}

// Tick runs one tick.
//
// Postcondition: The clock advanced by the tick length, every task due by
// then has run, and the registered callbacks ran in name order.
func (s *Simulation) Tick() {
	s.clock.Advance(s.tickMs)
	s.sched.RunDue()

	s.sinceThink += s.tickMs
	if s.sinceThink >= s.thinkMs {
		s.sinceThink = 0
		s.think()
	}
	s.ticks.Add(1)

	now := s.clock.NowMs()
	for _, fn := range s.callbacks() {
		fn(now)
	}
}

// Advance runs ticks until at least ms of simulation time has passed.
func (s *Simulation) Advance(ms int64) {
	for elapsed := int64(0); elapsed < ms; elapsed += s.tickMs {
		s.Tick()
	}
}

func (s *Simulation) think() {
	for _, c := range s.world.All() {
		if c.IsRemoved() || c.IsDead() {
			continue
		}
		if c.Health() <= 0 {
			c.OnDeath()
			continue
		}
		c.OnThink(s.thinkMs)
		c.OnAttacking(s.thinkMs)
		c.ExecuteConditions(s.thinkMs)
		if c.Health() <= 0 && !c.IsRemoved() {
			c.OnDeath()
		}
	}
}

func (s *Simulation) callbacks() []func(int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.observers))
	for name := range s.observers {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]func(int64), 0, len(names))
	for _, name := range names {
		out = append(out, s.observers[name])
	}
	return out
}

// Start runs the tick loop until ctx is cancelled or Stop is called.
// It implements server.Service.
func (s *Simulation) Start(ctx context.Context) error {
	s.logger.Info("simulation started",
		zap.Int64("tick_ms", s.tickMs),
		zap.Int64("think_interval_ms", s.thinkMs),
		zap.Bool("real_time", s.realTime),
		zap.Int("creatures", s.world.Len()),
	)
	defer func() {
		s.logger.Info("simulation stopped",
			zap.Int64("ticks", s.Ticks()),
			zap.Int64("now_ms", s.clock.NowMs()),
		)
	}()

	if !s.realTime {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-s.stop:
				return nil
			default:
				s.Tick()
			}
		}
	}

	ticker := time.NewTicker(time.Duration(s.tickMs) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Stop ends the tick loop. Calling Stop more than once is safe.
func (s *Simulation) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}
