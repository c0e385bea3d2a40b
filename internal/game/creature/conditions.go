package creature

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturesim/internal/game/combat"
	"github.com/cory-johannsen/creaturesim/internal/game/condition"
	"github.com/cory-johannsen/creaturesim/internal/game/scheduler"
)

// AddCondition applies cond. See condition.Engine.Add for force.
func (c *Creature) AddCondition(cond *condition.Condition, force bool) condition.AddResult {
	return c.conditions.Add(cond, force)
}

// RemoveCondition ends every instance of kind. A paralyze removal while a
// step is pending is postponed until the step is due unless force is set.
func (c *Creature) RemoveCondition(kind condition.Kind, force bool) bool {
	return c.conditions.Remove(kind, force)
}

// RemoveConditionFrom ends every instance of kind applied from source.
func (c *Creature) RemoveConditionFrom(kind condition.Kind, source condition.Source, force bool) bool {
	return c.conditions.RemoveFrom(kind, source, force)
}

// ExecuteConditions advances every active condition by interval ms.
func (c *Creature) ExecuteConditions(interval int64) {
	c.conditions.Execute(interval)
}

// HasCondition reports whether an unexpired instance of kind with sub id 0
// is active. Exhaust-combat is always present while the state time is unset.
func (c *Creature) HasCondition(kind condition.Kind) bool {
	return c.HasConditionSub(kind, 0)
}

// HasConditionSub is HasCondition for a specific sub id.
func (c *Creature) HasConditionSub(kind condition.Kind, subID uint32) bool {
	if kind == condition.ExhaustCombat && c.world.clock.StateTime() == 0 {
		return true
	}
	return c.conditions.Has(kind, subID)
}

// Condition returns the first active instance of kind from source.
func (c *Creature) Condition(kind condition.Kind, source condition.Source) (*condition.Condition, bool) {
	return c.conditions.Get(kind, source)
}

// Conditions returns a snapshot of the active conditions.
func (c *Creature) Conditions() []*condition.Condition { return c.conditions.All() }

// WalkDelay returns the ms until the creature may take its next step. A
// creature that has never stepped may step at once.
func (c *Creature) WalkDelay() int64 {
	if c.lastStep == 0 {
		return 0
	}
	elapsed := c.world.clock.NowMs() - c.lastStep
	return c.StepDuration()*c.lastStepCost - elapsed
}

// AdjustSpeed implements condition.Host.
func (c *Creature) AdjustSpeed(delta int) {
	c.varSpeed += delta
	c.logger.Debug("speed changed", zap.Int("delta", delta), zap.Int("step_speed", c.StepSpeed()))
}

// Heal implements condition.Host.
func (c *Creature) Heal(amount int) {
	c.GainHealth(nil, amount)
}

// FieldType implements condition.Host.
func (c *Creature) FieldType() (combat.CombatType, bool) {
	t, ok := c.Tile()
	if !ok {
		return combat.CombatNone, false
	}
	return t.Field()
}

// IsSuppressed implements condition.Host.
func (c *Creature) IsSuppressed(k condition.Kind) bool { return c.condSuppress.Has(k) }

// IsImmune implements condition.Host.
func (c *Creature) IsImmune(k condition.Kind) bool { return c.condImmune.Has(k) }

// Defer implements condition.Host. The task's handle is held until it runs
// or cancelDeferred drops it.
func (c *Creature) Defer(delay int64, fn func()) {
	var h scheduler.Handle
	h = c.world.sched.Schedule(delay, func() {
		delete(c.deferred, h)
		if c.removed {
			return
		}
		fn()
	})
	if c.deferred == nil {
		c.deferred = make(map[scheduler.Handle]struct{})
	}
	c.deferred[h] = struct{}{}
}

// cancelDeferred drops every pending deferred condition task.
func (c *Creature) cancelDeferred() {
	for h := range c.deferred {
		c.world.sched.Cancel(h)
	}
	c.deferred = nil
}

// ConditionAdded implements condition.Host.
func (c *Creature) ConditionAdded(cond *condition.Condition) {
	c.logger.Debug("condition added",
		zap.Stringer("kind", cond.Kind),
		zap.Stringer("source", cond.Source),
		zap.Uint32("owner", cond.Owner),
	)
}

// ConditionEnded implements condition.Host.
func (c *Creature) ConditionEnded(cond *condition.Condition, reason condition.EndReason) {
	c.logger.Debug("condition ended",
		zap.Stringer("kind", cond.Kind),
		zap.Stringer("reason", reason),
	)
}

// conditionHost adapts Creature to condition.Host. Creature's own
// DrainHealth takes a resolved attacker; the engine hands over an id.
type conditionHost struct{ *Creature }

// DrainHealth implements condition.Host. Damage from an owner that left
// the world is credited to the environment.
func (h conditionHost) DrainHealth(attacker uint32, t combat.CombatType, amount int) {
	c := h.Creature
	a := c.resolve(attacker)
	c.BlockHit(a, t, &amount, false, false)
	if amount <= 0 {
		return
	}
	c.DrainHealth(a, t, amount)
}
