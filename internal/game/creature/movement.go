package creature

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturesim/internal/game/condition"
	"github.com/cory-johannsen/creaturesim/internal/game/movement"
	"github.com/cory-johannsen/creaturesim/internal/game/scheduler"
	"github.com/cory-johannsen/creaturesim/internal/game/world"
)

// drunkRange is the exclusive bound of the drunk-step roll. Rolls 0..4
// stagger; a 2 hiccups but keeps the queued direction.
const drunkRange = 21

// BaseSpeed returns the speed without condition modifiers.
func (c *Creature) BaseSpeed() int { return c.baseSpeed }

// StepSpeed returns the speed including condition modifiers.
func (c *Creature) StepSpeed() int { return c.baseSpeed + c.varSpeed }

// StepDuration returns the ms one orthogonal step from the current tile
// takes. Engaged monsters step at half pace.
//
// Postcondition: Returns 0 once removed, otherwise a positive multiple of
// movement.TickMs.
func (c *Creature) StepDuration() int64 {
	if c.removed {
		return 0
	}
	ground := world.DefaultGroundSpeed
	if t, ok := c.Tile(); ok {
		if g := t.GroundSpeed(); g > 0 {
			ground = g
		}
	}
	d := movement.StepDuration(c.StepSpeed(), ground, c.world.tuning.Curve)
	if c.behavior.CombatStance(c) {
		d <<= 1
	}
	return d
}

// StepDurationToward is StepDuration for a step in direction d; diagonal
// steps take three times as long.
func (c *Creature) StepDurationToward(d world.Direction) int64 {
	sd := c.StepDuration()
	if d.IsDiagonal() {
		sd *= 3
	}
	return sd
}

// eventStepTicks returns the delay before the next walk event. With
// onlyDelay set and no pending delay, 1 asks for an immediate step.
func (c *Creature) eventStepTicks(onlyDelay bool) int64 {
	ret := c.WalkDelay()
	if ret > 0 {
		return ret
	}
	sd := c.StepDuration()
	if onlyDelay && sd > 0 {
		return 1
	}
	return sd * c.lastStepCost
}

// WalkQueue returns a copy of the queued directions.
func (c *Creature) WalkQueue() []world.Direction {
	return append([]world.Direction(nil), c.walkDirs...)
}

// Walking reports whether a walk event is scheduled.
func (c *Creature) Walking() bool { return c.eventWalk != 0 }

// StartAutoWalk queues dirs and arms the walk event.
//
// Postcondition: Returns false and notifies a cancelled walk when the
// behavior forbids walking; otherwise the queue equals dirs.
func (c *Creature) StartAutoWalk(dirs []world.Direction) bool {
	if !c.behavior.CanStartWalk(c) {
		c.world.notifier.CancelWalk(c, world.ErrNotPossible)
		return false
	}
	c.walkDirs = append(c.walkDirs[:0], dirs...)
	c.addEventWalk(len(dirs) == 1)
	return true
}

// addEventWalk arms the single walk event. A first step that is already
// due is taken at once and the following one still queued.
func (c *Creature) addEventWalk(firstStep bool) {
	c.cancelNextWalk = false
	if c.StepSpeed() <= 0 || c.eventWalk != 0 {
		return
	}
	ticks := c.eventStepTicks(firstStep)
	if ticks <= 0 {
		return
	}
	if ticks == 1 {
		c.checkWalk()
		if c.eventWalk != 0 || c.removed {
			return
		}
	}
	var h scheduler.Handle
	h = c.world.sched.Schedule(max(movement.TickMs, ticks), func() {
		if c.eventWalk != h {
			return
		}
		c.checkWalk()
	})
	c.eventWalk = h
}

// StopEventWalk cancels the pending walk event, if any.
func (c *Creature) StopEventWalk() {
	if c.eventWalk == 0 {
		return
	}
	c.world.sched.Cancel(c.eventWalk)
	c.eventWalk = 0
}

// CancelNextWalk aborts the queued walk after the step in progress.
func (c *Creature) CancelNextWalk() { c.cancelNextWalk = true }

func (c *Creature) checkWalk() {
	if c.removed || c.health <= 0 {
		return
	}
	c.onWalk()
}

func (c *Creature) onWalk() {
	if c.WalkDelay() <= 0 {
		if dir, ok := c.nextStep(); ok {
			if err := c.world.Move(c, dir, world.FlagIgnoreFieldDamage); err != nil {
				c.logger.Debug("step failed", zap.Stringer("dir", dir), zap.Error(err))
				if c.Kind() == KindPlayer {
					c.world.notifier.CancelWalk(c, err)
				}
				c.forceUpdateFollowPath = true
				c.forceFullSearch = true
			}
		} else {
			if len(c.walkDirs) == 0 {
				c.behavior.OnWalkComplete(c)
			}
			c.StopEventWalk()
		}
	}

	if c.cancelNextWalk {
		c.walkDirs = c.walkDirs[:0]
		c.behavior.OnWalkAborted(c)
		c.cancelNextWalk = false
	}

	if c.eventWalk != 0 && !c.removed {
		c.eventWalk = 0
		c.addEventWalk(false)
	}
}

// nextStep pops the next queued direction. A drunk creature sometimes
// staggers in a random orthogonal direction instead.
func (c *Creature) nextStep() (world.Direction, bool) {
	if len(c.walkDirs) == 0 {
		return world.NoDirection, false
	}
	dir := c.walkDirs[0]
	c.walkDirs = c.walkDirs[1:]
	if c.HasCondition(condition.Drunk) {
		if r := c.world.roller.Intn(drunkRange); r <= 4 {
			switch r {
			case 0:
				dir = world.North
			case 1:
				dir = world.West
			case 3:
				dir = world.South
			case 4:
				dir = world.East
			}
			c.world.notifier.Say(c, "Hicks!")
		}
	}
	return dir, true
}

// FollowTarget resolves the current follow target.
func (c *Creature) FollowTarget() *Creature {
	if c.followTarget == 0 {
		return nil
	}
	t := c.resolve(c.followTarget)
	if t == nil {
		c.followTarget = 0
	}
	return t
}

// HasFollowPath reports whether the last path computation found a path.
func (c *Creature) HasFollowPath() bool { return c.hasFollowPath }

// SetFollowTarget starts following target, or stops following when target
// is nil. A queued walk is aborted when the target changes.
//
// Postcondition: Returns false and clears the target when target is on
// another floor or out of view. On success a path computation is pending.
func (c *Creature) SetFollowTarget(target *Creature) bool {
	if target != nil {
		if c.followTarget == target.id {
			return true
		}
		if target.pos.Z != c.pos.Z || !c.CanSee(target.pos) {
			c.followTarget = 0
			return false
		}
		if len(c.walkDirs) > 0 {
			c.walkDirs = c.walkDirs[:0]
			c.behavior.OnWalkAborted(c)
		}
		c.hasFollowPath = false
		c.forceUpdateFollowPath = false
		c.followTarget = target.id
		c.isUpdatingPath = true
		return true
	}
	c.isUpdatingPath = false
	c.followTarget = 0
	return true
}

// PathSearchParams returns the pathfinder parameters for reaching target.
// A path search after a failed step is always a full search.
func (c *Creature) PathSearchParams(target *Creature) world.FindPathParams {
	p := world.FindPathParams{
		FullPathSearch: !c.hasFollowPath,
		ClearSight:     true,
		MaxSearchDist:  c.world.tuning.MaxSearchDist,
		MinTargetDist:  1,
		MaxTargetDist:  1,
	}
	c.behavior.PathSearchParams(c, target, &p)
	if c.forceFullSearch {
		p.FullPathSearch = true
	}
	return p
}

// GoToFollowCreature recomputes the walk toward the follow target.
// Masterless creatures that flee or keep distance first try a single step
// directly away from or toward the target; everything else, and a failed
// keep-distance step, uses the pathfinder.
//
// Postcondition: HasFollowPath reports whether a walk was started. Failure
// is not an error; the next refresh retries.
func (c *Creature) GoToFollowCreature() {
	target := c.FollowTarget()
	if target != nil {
		p := c.PathSearchParams(target)
		c.forceFullSearch = false
		fleeing := c.behavior.Fleeing(c)
		if !c.HasMaster() && (fleeing || p.MaxTargetDist > 1) {
			dir, ok := c.distanceStep(target.pos, p.MaxTargetDist, fleeing)
			switch {
			case ok && dir != world.NoDirection:
				c.hasFollowPath = true
				c.StartAutoWalk([]world.Direction{dir})
			case !ok && !fleeing:
				c.pathTo(target.pos, p)
			}
		} else {
			c.pathTo(target.pos, p)
		}
	}
	c.behavior.OnFollowComplete(c, target)
}

func (c *Creature) pathTo(to world.Position, p world.FindPathParams) {
	c.walkDirs = c.walkDirs[:0]
	dirs, ok := c.world.m.FindPath(c, to, p)
	if !ok {
		c.hasFollowPath = false
		return
	}
	c.hasFollowPath = true
	c.StartAutoWalk(dirs)
}

// distanceStep picks one step that keeps c at keep tiles from target, or
// one step away when fleeing. ok with NoDirection means c is already in
// place; !ok means no cheap step exists.
func (c *Creature) distanceStep(target world.Position, keep int, flee bool) (world.Direction, bool) {
	dist := c.pos.Distance(target)
	if !flee {
		if dist == keep {
			return world.NoDirection, true
		}
		if dist > keep {
			return world.NoDirection, false
		}
	}
	away := world.DirectionBetween(target, c.pos)
	if away == world.NoDirection {
		away = world.North
	}
	for _, d := range candidates(away) {
		if c.CanWalkTo(c.pos.Step(d)) {
			return d, true
		}
	}
	return world.NoDirection, false
}

// candidates orders the steps worth trying when moving in preferred: the
// direction itself, then its axis components, then the other orthogonals.
func candidates(preferred world.Direction) []world.Direction {
	out := []world.Direction{preferred}
	dx, dy := preferred.Delta()
	if dx != 0 && dy != 0 {
		out = append(out, world.DirectionBetween(world.Position{}, world.Position{X: dx}),
			world.DirectionBetween(world.Position{}, world.Position{Y: dy}))
	}
	for _, d := range world.Orthogonal {
		seen := false
		for _, o := range out {
			if o == d {
				seen = true
				break
			}
		}
		ddx, ddy := d.Delta()
		if !seen && (ddx != -dx || dx == 0) && (ddy != -dy || dy == 0) {
			out = append(out, d)
		}
	}
	return out
}
