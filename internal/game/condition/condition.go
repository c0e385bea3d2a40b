package condition

import "github.com/cory-johannsen/creaturesim/internal/game/combat"

// Condition is one active status effect instance.
//
// Invariant: an Engine holds at most one Condition per (Kind, Source, SubID).
type Condition struct {
	Kind   Kind
	Source Source
	SubID  uint32
	// Owner is the id of the creature that applied the condition, 0 for none.
	Owner uint32

	// Duration in ms for timed kinds; 0 means indefinite.
	Duration int64
	// StartTime and EndTime are set when the condition starts. EndTime 0 means indefinite.
	StartTime int64
	EndTime   int64

	// TickDamage, Rounds and TickInterval drive damage kinds: one hit of
	// TickDamage every TickInterval ms, Rounds times.
	TickDamage   int
	Rounds       int
	TickInterval int64

	// SpeedDelta is applied on start and reverted on end by speed kinds.
	SpeedDelta int

	// HealthGain is restored every TickInterval ms by regeneration kinds.
	HealthGain int

	remaining int64
	elapsed   int64
}

// Key identifies the merge slot of a condition.
type Key struct {
	Kind   Kind
	Source Source
	SubID  uint32
}

// Key returns the merge slot of c.
func (c *Condition) Key() Key {
	return Key{Kind: c.Kind, Source: c.Source, SubID: c.SubID}
}

// Remaining returns the time left for timed kinds, or the rounds left times
// the tick interval for damage kinds. Indefinite conditions return 0.
func (c *Condition) Remaining() int64 { return c.remaining }

// Host is the creature an Engine acts on.
type Host interface {
	ID() uint32
	// WalkDelay returns the ms until the host may take its next step.
	WalkDelay() int64
	AdjustSpeed(delta int)
	DrainHealth(attacker uint32, t combat.CombatType, amount int)
	Heal(amount int)
	// FieldType returns the area-damage field on the host's tile, if any.
	FieldType() (combat.CombatType, bool)
	IsSuppressed(k Kind) bool
	IsImmune(k Kind) bool
	// Defer runs fn on the tick goroutine after delay ms.
	Defer(delay int64, fn func())
	ConditionAdded(c *Condition)
	ConditionEnded(c *Condition, reason EndReason)
}

// behavior is the per-category dispatch table entry.
type behavior interface {
	start(c *Condition, h Host, now int64) bool
	// tick advances c by interval and reports whether it is still active.
	tick(c *Condition, h Host, interval int64) bool
	merge(c, add *Condition, h Host, now int64)
	end(c *Condition, h Host)
}

var behaviors = map[Category]behavior{
	CategoryGeneric:      timed{},
	CategoryDamage:       damage{},
	CategorySpeed:        speed{},
	CategoryRegeneration: regeneration{},
}

func behaviorOf(k Kind) behavior { return behaviors[k.Category()] }

// timed counts a duration down and does nothing else.
type timed struct{}

func (timed) start(c *Condition, _ Host, now int64) bool {
	c.StartTime = now
	c.remaining = c.Duration
	c.EndTime = 0
	if c.Duration > 0 {
		c.EndTime = now + c.Duration
	}
	return c.Duration >= 0
}

func (timed) tick(c *Condition, _ Host, interval int64) bool {
	if c.EndTime == 0 {
		return true
	}
	c.remaining -= interval
	return c.remaining > 0
}

func (timed) merge(c, add *Condition, _ Host, now int64) {
	switch {
	case c.EndTime == 0:
	case add.Duration == 0:
		c.Duration, c.remaining, c.EndTime = 0, 0, 0
	case add.Duration > c.remaining:
		c.Duration = add.Duration
		c.remaining = add.Duration
		c.EndTime = now + add.Duration
	}
}

func (timed) end(*Condition, Host) {}

// damage deals TickDamage of the kind's combat type every TickInterval.
type damage struct{}

func (damage) start(c *Condition, _ Host, now int64) bool {
	if c.Rounds <= 0 || c.TickInterval <= 0 || c.TickDamage <= 0 {
		return false
	}
	c.StartTime = now
	c.elapsed = 0
	c.remaining = int64(c.Rounds) * c.TickInterval
	c.EndTime = now + c.remaining
	return true
}

func (damage) tick(c *Condition, h Host, interval int64) bool {
	c.elapsed += interval
	for c.Rounds > 0 && c.elapsed >= c.TickInterval {
		c.elapsed -= c.TickInterval
		c.Rounds--
		h.DrainHealth(c.Owner, c.Kind.DamageType(), c.TickDamage)
	}
	c.remaining = int64(c.Rounds)*c.TickInterval - c.elapsed
	return c.Rounds > 0
}

func (damage) merge(c, add *Condition, _ Host, now int64) {
	c.Rounds += add.Rounds
	c.TickDamage = max(c.TickDamage, add.TickDamage)
	if add.Owner != 0 {
		c.Owner = add.Owner
	}
	c.remaining = int64(c.Rounds)*c.TickInterval - c.elapsed
	c.EndTime = now + c.remaining
}

func (damage) end(*Condition, Host) {}

// speed applies SpeedDelta for its duration.
type speed struct{}

func (speed) start(c *Condition, h Host, now int64) bool {
	if !(timed{}).start(c, h, now) {
		return false
	}
	h.AdjustSpeed(c.SpeedDelta)
	return true
}

func (speed) tick(c *Condition, h Host, interval int64) bool {
	return timed{}.tick(c, h, interval)
}

func (speed) merge(c, add *Condition, h Host, now int64) {
	h.AdjustSpeed(-c.SpeedDelta)
	c.SpeedDelta = add.SpeedDelta
	h.AdjustSpeed(c.SpeedDelta)
	c.Duration = add.Duration
	c.remaining = add.Duration
	c.EndTime = 0
	if add.Duration > 0 {
		c.EndTime = now + add.Duration
	}
}

func (speed) end(c *Condition, h Host) {
	h.AdjustSpeed(-c.SpeedDelta)
}

// regeneration restores HealthGain every TickInterval for its duration.
type regeneration struct{}

func (regeneration) start(c *Condition, h Host, now int64) bool {
	if c.TickInterval <= 0 {
		return false
	}
	c.elapsed = 0
	return timed{}.start(c, h, now)
}

func (regeneration) tick(c *Condition, h Host, interval int64) bool {
	c.elapsed += interval
	for c.elapsed >= c.TickInterval {
		c.elapsed -= c.TickInterval
		if c.HealthGain > 0 {
			h.Heal(c.HealthGain)
		}
	}
	return timed{}.tick(c, h, interval)
}

func (regeneration) merge(c, add *Condition, h Host, now int64) {
	c.HealthGain = max(c.HealthGain, add.HealthGain)
	timed{}.merge(c, add, h, now)
}

func (regeneration) end(*Condition, Host) {}
