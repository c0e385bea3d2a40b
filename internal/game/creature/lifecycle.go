package creature

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturesim/internal/game/condition"
	"github.com/cory-johannsen/creaturesim/internal/game/world"
	"github.com/cory-johannsen/creaturesim/internal/scripting"
)

// OnThink runs one think interval: the behavior's decision, the lazy walk
// cache build, target visibility checks, defense-charge regeneration, the
// follow-path refresh and the think hooks.
//
// Precondition: interval > 0.
func (c *Creature) OnThink(interval int64) {
	c.behavior.Think(c, interval)

	if !c.cache.Valid() && c.behavior.UsesWalkCache() && c.placed {
		c.UpdateMapCache()
	}

	master := c.Master()
	if t := c.FollowTarget(); t != nil && !same(master, t) && !c.CanSeeCreature(t) {
		c.OnCreatureDisappear(t, false)
	}
	if t := c.AttackTarget(); t != nil && !same(master, t) && !c.CanSeeCreature(t) {
		c.OnCreatureDisappear(t, false)
	}

	c.charges.Regenerate(interval)

	if c.FollowTarget() != nil {
		c.walkUpdateTicks += interval
		if c.forceUpdateFollowPath || c.walkUpdateTicks >= c.world.tuning.PathRefreshMs {
			c.walkUpdateTicks = 0
			c.forceUpdateFollowPath = false
			c.isUpdatingPath = true
		}
	}
	if c.isUpdatingPath {
		c.isUpdatingPath = false
		c.GoToFollowCreature()
	}

	if events := c.eventsOf(scripting.EventThink); len(events) > 0 {
		self := c.Info()
		for _, ev := range events {
			c.world.hooks.Think(ev, self, interval)
		}
	}
}

// OnCreatureAppear is called on every creature when o is placed on the map.
func (c *Creature) OnCreatureAppear(o *Creature) {
	if o == c {
		if c.behavior.UsesWalkCache() {
			c.UpdateMapCache()
		}
		return
	}
	c.updateTileCache(o.pos)
}

// OnCreatureDisappear is called on every creature when o leaves view or the
// world. A creature that was attacked or followed stops being the target.
func (c *Creature) OnCreatureDisappear(o *Creature, isLogout bool) {
	if c.attackTarget == o.id {
		c.SetAttackTarget(nil)
		c.logger.Debug("attack target lost", zap.Uint32("target", o.id), zap.Bool("logout", isLogout))
	}
	if c.followTarget == o.id {
		c.SetFollowTarget(nil)
		c.logger.Debug("follow target lost", zap.Uint32("target", o.id), zap.Bool("logout", isLogout))
	}
	if o == c {
		if m := c.Master(); m != nil {
			m.RemoveSummon(c)
		}
		return
	}
	c.updateTileCache(o.pos)
}

// OnCreatureRemoved is called once on c after it left the world.
//
// Postcondition: IsRemoved reports true and no walk event or deferred
// condition task is pending.
func (c *Creature) OnCreatureRemoved() {
	c.removed = true
	c.StopEventWalk()
	c.cancelDeferred()
	if c.master != 0 {
		if m, ok := c.world.Get(c.master); ok {
			m.RemoveSummon(c)
		}
		c.master = 0
	}
}

// OnCreatureMove is called on every creature after o moved from oldPos to
// newPos. The mover records its step cost, drags or drops its summons and
// shifts its walk cache; observers refresh the two affected cache cells.
func (c *Creature) OnCreatureMove(o *Creature, newTile world.Tile, newPos world.Position, oldTile world.Tile, oldPos world.Position, teleport bool) {
	if o == c {
		c.lastStep = c.world.clock.NowMs()
		c.lastStepCost = 1
		if !teleport {
			if oldPos.Z != newPos.Z || (newPos.DistanceX(oldPos) >= 1 && newPos.DistanceY(oldPos) >= 1) {
				c.lastStepCost = 2
			}
		} else {
			c.StopEventWalk()
		}

		c.leashSummons(newPos)

		if zoneOf(newTile) != zoneOf(oldTile) {
			c.OnChangeZone(zoneOf(newTile))
		}

		if c.cache.Valid() {
			if teleport {
				c.UpdateMapCache()
			} else {
				c.cache.Shift(newPos, c.probe)
			}
			c.updateTileCache(oldPos)
		}
	} else {
		c.updateTileCache(newPos)
		c.updateTileCache(oldPos)
	}

	if t := c.FollowTarget(); t != nil && (o == t || o == c) {
		if c.hasFollowPath {
			c.isUpdatingPath = true
		}
		if newPos.Z != oldPos.Z || !c.CanSee(t.pos) {
			c.OnCreatureDisappear(t, false)
		}
	}

	if t := c.AttackTarget(); t != nil && (o == t || o == c) {
		if newPos.Z != oldPos.Z || !c.CanSee(t.pos) {
			c.OnCreatureDisappear(t, false)
		} else if zoneOf(newTile) != zoneOf(oldTile) {
			c.OnAttackedCreatureChangeZone(t.Zone())
		}
	}
}

// leashSummons removes every summon left too far behind after a move.
func (c *Creature) leashSummons(pos world.Position) {
	tun := c.world.tuning
	for _, s := range c.Summons() {
		if s.pos.DistanceZ(pos) > tun.SummonFloorLeash || s.pos.Distance(pos) > tun.SummonLeash {
			c.logger.Debug("summon left behind", zap.Uint32("summon", s.id), zap.Stringer("pos", s.pos))
			c.world.Remove(s)
		}
	}
}

func zoneOf(t world.Tile) world.Zone {
	if t == nil {
		return world.ZoneNormal
	}
	return t.Zone()
}

// OnChangeZone is called when c entered a tile of zone z. Nobody attacks
// from inside a protection zone.
func (c *Creature) OnChangeZone(z world.Zone) {
	if t := c.AttackTarget(); t != nil && z == world.ZoneProtection {
		c.OnCreatureDisappear(t, false)
	}
}

// OnAttackedCreatureChangeZone is called when the attack target entered a
// tile of zone z. A target inside a protection zone is dropped.
func (c *Creature) OnAttackedCreatureChangeZone(z world.Zone) {
	if t := c.AttackTarget(); t != nil && z == world.ZoneProtection {
		c.OnCreatureDisappear(t, false)
	}
}

// OnIdleStatus forgets every damage and heal contribution while c is alive.
func (c *Creature) OnIdleStatus() {
	if c.health <= 0 {
		return
	}
	c.damage.Clear()
	c.heal.Clear()
}

// Revive restores a dead creature to full health with empty ledgers.
func (c *Creature) Revive() {
	if c.health > 0 {
		return
	}
	c.health = c.healthMax
	c.dead = false
	c.damage.Clear()
	c.heal.Clear()
	c.world.notifier.HealthChanged(c)
}

// Destroy releases everything c holds. Summons lose their master and their
// attack target; every condition ends with the cleanup reason.
//
// Postcondition: c has no summons, master, targets, conditions, pending
// walk event or deferred condition task.
func (c *Creature) Destroy() {
	for _, s := range c.Summons() {
		s.attackTarget = 0
		s.master = 0
	}
	c.summons = nil
	c.attackTarget = 0
	c.followTarget = 0
	c.master = 0
	c.conditions.Clear(condition.EndCleanup)
	c.StopEventWalk()
	c.cancelDeferred()
}
