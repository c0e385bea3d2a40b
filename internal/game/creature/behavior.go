package creature

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturesim/internal/game/combat"
	"github.com/cory-johannsen/creaturesim/internal/game/condition"
	"github.com/cory-johannsen/creaturesim/internal/game/world"
)

// Behavior is the kind-specific part of a creature. The Creature calls into
// it at fixed points of combat, death and movement.
type Behavior interface {
	Kind() Kind
	// UsesWalkCache reports whether the creature keeps a local walk cache.
	UsesWalkCache() bool
	CanSeeInvisibility() bool
	// CanStartWalk reports whether an auto-walk may begin.
	CanStartWalk(c *Creature) bool
	Fleeing(c *Creature) bool
	// TargetDistance is the distance kept from the follow target; 1 is melee.
	TargetDistance() int
	// CombatStance reports whether steps take twice as long because the
	// creature is engaged with a nearby target.
	CombatStance(c *Creature) bool
	// PathSearchParams adjusts the defaults set by Creature.PathSearchParams.
	PathSearchParams(c, target *Creature, p *world.FindPathParams)
	Think(c *Creature, interval int64)
	DoAttacking(c *Creature, interval int64)
	// OnAttacked runs when c is engaged as a target.
	OnAttacked(c *Creature)
	// OnAttackedCreature runs when c engages target.
	OnAttackedCreature(c, target *Creature)
	// OnKilledCreature reports whether killing target was unjustified.
	OnKilledCreature(c, target *Creature) bool
	OnGainExperience(c *Creature, amount uint64)
	OnBlockHit(c *Creature, b combat.BlockType)
	OnWalkComplete(c *Creature)
	OnWalkAborted(c *Creature)
	OnFollowComplete(c, target *Creature)
}

// BaseBehavior supplies the no-op defaults. Embed it and override what differs.
type BaseBehavior struct{}

func (BaseBehavior) Kind() Kind                  { return KindMonster }
func (BaseBehavior) UsesWalkCache() bool         { return false }
func (BaseBehavior) CanSeeInvisibility() bool    { return false }
func (BaseBehavior) CanStartWalk(*Creature) bool { return true }
func (BaseBehavior) Fleeing(*Creature) bool      { return false }
func (BaseBehavior) TargetDistance() int         { return 1 }
func (BaseBehavior) CombatStance(*Creature) bool { return false }

func (BaseBehavior) PathSearchParams(*Creature, *Creature, *world.FindPathParams) {}
func (BaseBehavior) Think(*Creature, int64)                                       {}
func (BaseBehavior) DoAttacking(*Creature, int64)                                 {}
func (BaseBehavior) OnAttacked(*Creature)                                         {}
func (BaseBehavior) OnAttackedCreature(*Creature, *Creature)                      {}
func (BaseBehavior) OnKilledCreature(*Creature, *Creature) bool                   { return false }
func (BaseBehavior) OnGainExperience(*Creature, uint64)                           {}
func (BaseBehavior) OnBlockHit(*Creature, combat.BlockType)                       {}
func (BaseBehavior) OnWalkComplete(*Creature)                                     {}
func (BaseBehavior) OnWalkAborted(*Creature)                                      {}
func (BaseBehavior) OnFollowComplete(*Creature, *Creature)                        {}

// Player is the behavior of a connected player character.
type Player struct {
	BaseBehavior
	// NoMove blocks auto-walk, e.g. while the client is frozen by a GM.
	NoMove bool

	experience  uint64
	unjustified int
	blocks      int
}

// Kind implements Behavior.
func (*Player) Kind() Kind { return KindPlayer }

// CanStartWalk implements Behavior.
func (p *Player) CanStartWalk(*Creature) bool { return !p.NoMove }

// Experience returns the experience gained so far.
func (p *Player) Experience() uint64 { return p.experience }

// UnjustifiedKills returns how many kills were judged unjustified.
func (p *Player) UnjustifiedKills() int { return p.unjustified }

// Blocks returns how many hits were blocked with a defense charge.
func (p *Player) Blocks() int { return p.blocks }

// OnAttacked marks the player in fight.
func (p *Player) OnAttacked(c *Creature) { p.markInFight(c) }

// OnAttackedCreature marks the player in fight.
func (p *Player) OnAttackedCreature(c, _ *Creature) { p.markInFight(c) }

func (p *Player) markInFight(c *Creature) {
	c.AddCondition(&condition.Condition{
		Kind:     condition.InFight,
		Source:   condition.SourceCombat,
		Duration: c.world.tuning.InFightMs,
	}, false)
}

// OnKilledCreature judges a player kill unjustified unless the victim hit
// this player within the in-fight window or died in a PvP zone.
func (p *Player) OnKilledCreature(c, target *Creature) bool {
	if target.Kind() != KindPlayer || target.Zone() == world.ZonePvP {
		return false
	}
	if c.HasBeenAttacked(target.id) {
		return false
	}
	p.unjustified++
	c.logger.Info("unjustified kill", zap.Uint32("victim", target.id))
	return true
}

// OnGainExperience implements Behavior.
func (p *Player) OnGainExperience(_ *Creature, amount uint64) { p.experience += amount }

// OnBlockHit implements Behavior.
func (p *Player) OnBlockHit(*Creature, combat.BlockType) { p.blocks++ }

// Monster is the behavior of a template-driven hostile creature. It picks
// the nearest visible player as its target, keeps its template's distance,
// and flees at low health.
type Monster struct {
	BaseBehavior
	tmpl        *Template
	attackTicks int64
}

// NewMonster creates the behavior for one creature spawned from t.
//
// Precondition: t passed Validate.
func NewMonster(t *Template) *Monster { return &Monster{tmpl: t} }

// Template returns the template the monster was spawned from.
func (m *Monster) Template() *Template { return m.tmpl }

// UsesWalkCache implements Behavior.
func (*Monster) UsesWalkCache() bool { return true }

// CanSeeInvisibility implements Behavior.
func (m *Monster) CanSeeInvisibility() bool { return m.tmpl.SeeInvisible }

// TargetDistance implements Behavior.
func (m *Monster) TargetDistance() int { return max(1, m.tmpl.TargetDistance) }

// Fleeing reports whether a masterless monster is at or below its flee health.
func (m *Monster) Fleeing(c *Creature) bool {
	return m.tmpl.FleeHealth > 0 && c.health <= m.tmpl.FleeHealth && !c.HasMaster()
}

// CombatStance implements Behavior.
func (m *Monster) CombatStance(c *Creature) bool {
	t := c.AttackTarget()
	return t != nil && c.CanSee(t.pos) && !m.Fleeing(c) && !c.HasMaster()
}

// PathSearchParams implements Behavior.
func (m *Monster) PathSearchParams(c, target *Creature, p *world.FindPathParams) {
	p.MinTargetDist = 1
	p.MaxTargetDist = m.TargetDistance()
	switch {
	case c.HasMaster():
		if same(c.Master(), target) {
			p.MaxTargetDist = 2
			p.FullPathSearch = true
		} else if p.MaxTargetDist <= 1 {
			p.FullPathSearch = true
		}
	case m.Fleeing(c):
		p.MaxTargetDist = c.world.tuning.ViewportX
		p.ClearSight = false
		p.FullPathSearch = false
	case p.MaxTargetDist <= 1:
		p.FullPathSearch = true
	}
}

// Think acquires a target. Summons follow their master while idle;
// masterless monsters engage the nearest visible player outside a
// protection zone.
func (m *Monster) Think(c *Creature, _ int64) {
	if master := c.Master(); master != nil {
		if c.AttackTarget() == nil && c.FollowTarget() == nil {
			c.SetFollowTarget(master)
		}
		return
	}
	if c.AttackTarget() != nil {
		return
	}
	var best *Creature
	for _, p := range c.world.Spectators(c.pos, true) {
		if p.health <= 0 || p.pos.Z != c.pos.Z || p.Zone() == world.ZoneProtection || !c.CanSeeCreature(p) {
			continue
		}
		if best == nil || c.pos.Distance(p.pos) < c.pos.Distance(best.pos) {
			best = p
		}
	}
	if best != nil && c.SetAttackTarget(best) {
		c.SetFollowTarget(best)
	}
}

// DoAttacking swings once per attack interval at a target in range.
func (m *Monster) DoAttacking(c *Creature, interval int64) {
	a := m.tmpl.Attack
	if a == nil {
		return
	}
	m.attackTicks += interval
	if m.attackTicks < a.IntervalMs {
		return
	}
	m.attackTicks = 0
	target := c.AttackTarget()
	if target == nil || target.pos.Z != c.pos.Z || c.pos.Distance(target.pos) > m.TargetDistance() {
		return
	}
	dmg := c.world.roller.Range("attack", a.Min, a.Max)
	c.Hit(target, a.combatType, dmg, a.Condition)
}

// NPC is the behavior of a non-hostile townsperson.
type NPC struct {
	BaseBehavior
	seeInvisible bool
}

// Kind implements Behavior.
func (*NPC) Kind() Kind { return KindNPC }

// UsesWalkCache implements Behavior.
func (*NPC) UsesWalkCache() bool { return true }

// CanSeeInvisibility implements Behavior.
func (n *NPC) CanSeeInvisibility() bool { return n.seeInvisible }
