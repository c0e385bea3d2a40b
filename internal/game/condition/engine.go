package condition

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturesim/internal/game/clock"
)

// AddResult reports what Engine.Add did with a condition.
type AddResult int

const (
	// Rejected means the condition was nil, invalid, or the host is immune.
	Rejected AddResult = iota
	// Applied means the condition started and joined the active set.
	Applied
	// Merged means the condition was folded into an existing instance.
	Merged
	// Deferred means application was postponed until the host's walk delay elapses.
	Deferred
)

// String returns the result label.
func (r AddResult) String() string {
	switch r {
	case Applied:
		return "applied"
	case Merged:
		return "merged"
	case Deferred:
		return "deferred"
	default:
		return "rejected"
	}
}

// Engine owns the active conditions of one host. It is not safe for
// concurrent use; all calls happen on the tick goroutine.
type Engine struct {
	host   Host
	clock  clock.Clock
	logger *zap.Logger
	active []*Condition
}

// NewEngine creates an Engine acting on host.
//
// Precondition: host, clk and logger must be non-nil.
func NewEngine(host Host, clk clock.Clock, logger *zap.Logger) *Engine {
	return &Engine{host: host, clock: clk, logger: logger}
}

// Add applies c to the host. Unless force is set, a walk-deferred kind waits
// out a pending walk delay and is retried later, and the kind's exclusive
// counterpart is removed first. A condition matching an active instance's
// Key is merged into it and discarded.
//
// Postcondition: On Applied the Engine holds c. On Merged the Engine holds
// the pre-existing instance with the merged payload. On Deferred nothing has
// changed yet.
func (e *Engine) Add(c *Condition, force bool) AddResult {
	return e.add(c, !force, !force)
}

// add applies c. A deferred add is retried once with deferWalk cleared.
func (e *Engine) add(c *Condition, deferWalk, exclude bool) AddResult {
	if c == nil || c.Kind <= KindNone || c.Kind >= kindCount {
		return Rejected
	}
	if e.host.IsImmune(c.Kind) {
		return Rejected
	}
	if deferWalk && c.Kind.DeferredByWalk() {
		if delay := e.host.WalkDelay(); delay > 0 {
			e.logger.Debug("deferring condition add",
				zap.Uint32("creature", e.host.ID()),
				zap.Stringer("kind", c.Kind),
				zap.Int64("delay", delay),
			)
			e.host.Defer(delay, func() { e.add(c, false, exclude) })
			return Deferred
		}
	}
	if exclude {
		if ex := c.Kind.Excludes(); ex != KindNone {
			e.Remove(ex, true)
		}
	}

	now := e.clock.NowMs()
	if existing := e.find(c.Key()); existing != nil {
		behaviorOf(c.Kind).merge(existing, c, e.host, now)
		return Merged
	}
	if !behaviorOf(c.Kind).start(c, e.host, now) {
		return Rejected
	}
	e.active = append(e.active, c)
	e.host.ConditionAdded(c)
	return Applied
}

// Remove ends every instance of kind. Unless force is set, removing a
// walk-deferred kind while a walk delay is pending is retried after the delay.
//
// Postcondition: Returns true when at least one instance was removed now.
func (e *Engine) Remove(kind Kind, force bool) bool {
	return e.removeMatching(kind, !force, func(*Condition) bool { return true })
}

// RemoveFrom ends every instance of kind applied from source.
func (e *Engine) RemoveFrom(kind Kind, source Source, force bool) bool {
	return e.removeMatching(kind, !force, func(c *Condition) bool { return c.Source == source })
}

// RemoveInstance ends exactly c if it is active.
func (e *Engine) RemoveInstance(c *Condition, force bool) bool {
	if c == nil {
		return false
	}
	return e.removeMatching(c.Kind, !force, func(a *Condition) bool { return a == c })
}

// removeMatching ends the matching instances of kind. A deferred removal
// is retried once without deferWalk.
func (e *Engine) removeMatching(kind Kind, deferWalk bool, match func(*Condition) bool) bool {
	if deferWalk && kind.DeferredByWalk() && e.any(kind, match) {
		if delay := e.host.WalkDelay(); delay > 0 {
			e.logger.Debug("deferring condition removal",
				zap.Uint32("creature", e.host.ID()),
				zap.Stringer("kind", kind),
				zap.Int64("delay", delay),
			)
			e.host.Defer(delay, func() { e.removeMatching(kind, false, match) })
			return false
		}
	}
	removed := false
	for _, c := range e.snapshot() {
		if c.Kind == kind && match(c) {
			e.end(c, EndAbort)
			removed = true
		}
	}
	return removed
}

// Execute advances every active condition by interval ms. Expired
// conditions end with EndTicks. A damage condition whose host stands on a
// field of a different damage type ends with EndAbort.
func (e *Engine) Execute(interval int64) {
	for _, c := range e.snapshot() {
		if !e.contains(c) {
			continue
		}
		if !behaviorOf(c.Kind).tick(c, e.host, interval) {
			e.end(c, EndTicks)
			continue
		}
		if c.Kind.Category() == CategoryDamage {
			if field, ok := e.host.FieldType(); ok && field != c.Kind.DamageType() {
				e.end(c, EndAbort)
			}
		}
	}
}

// Has reports whether an unexpired instance of kind with subID is active.
// Expiry is judged against the clock's state time; an unset state time
// reports every matching instance as present. Suppressed kinds are never present.
func (e *Engine) Has(kind Kind, subID uint32) bool {
	if e.host.IsSuppressed(kind) {
		return false
	}
	state := e.clock.StateTime()
	for _, c := range e.active {
		if c.Kind != kind || c.SubID != subID {
			continue
		}
		if c.EndTime == 0 || state == 0 || c.EndTime >= state {
			return true
		}
	}
	return false
}

// Get returns the first active instance of kind from source.
func (e *Engine) Get(kind Kind, source Source) (*Condition, bool) {
	for _, c := range e.active {
		if c.Kind == kind && c.Source == source {
			return c, true
		}
	}
	return nil, false
}

// GetExact returns the active instance with the given key.
func (e *Engine) GetExact(kind Kind, source Source, subID uint32) (*Condition, bool) {
	c := e.find(Key{Kind: kind, Source: source, SubID: subID})
	return c, c != nil
}

// All returns a snapshot of the active conditions in application order.
func (e *Engine) All() []*Condition { return e.snapshot() }

// Len returns the number of active conditions.
func (e *Engine) Len() int { return len(e.active) }

// Clear ends every active condition with reason.
func (e *Engine) Clear(reason EndReason) {
	for _, c := range e.snapshot() {
		e.end(c, reason)
	}
}

func (e *Engine) end(c *Condition, reason EndReason) {
	for i, a := range e.active {
		if a == c {
			e.active = append(e.active[:i], e.active[i+1:]...)
			behaviorOf(c.Kind).end(c, e.host)
			e.host.ConditionEnded(c, reason)
			return
		}
	}
}

func (e *Engine) find(k Key) *Condition {
	for _, c := range e.active {
		if c.Key() == k {
			return c
		}
	}
	return nil
}

func (e *Engine) any(kind Kind, match func(*Condition) bool) bool {
	for _, c := range e.active {
		if c.Kind == kind && match(c) {
			return true
		}
	}
	return false
}

func (e *Engine) contains(c *Condition) bool {
	for _, a := range e.active {
		if a == c {
			return true
		}
	}
	return false
}

func (e *Engine) snapshot() []*Condition {
	out := make([]*Condition, len(e.active))
	copy(out, e.active)
	return out
}
