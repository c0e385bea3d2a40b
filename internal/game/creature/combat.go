package creature

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturesim/internal/game/combat"
	"github.com/cory-johannsen/creaturesim/internal/game/world"
)

// BlockHit mitigates an incoming hit of type t from attacker (nil for the
// environment). *damage is reduced in place.
//
// Postcondition: Immunity zeroes *damage. Without checkDefense and
// checkArmor *damage is unchanged and BlockNone is returned. The attacker
// is always told it attacked and how the hit was blocked, and c is always
// told it was attacked.
func (c *Creature) BlockHit(attacker *Creature, t combat.CombatType, damage *int, checkDefense, checkArmor bool) combat.BlockType {
	res := combat.Mitigate(c.world.roller, combat.Defender{
		Defense:    c.defense,
		Armor:      c.armor,
		Immunities: c.immunities,
	}, &c.charges, t, damage, checkDefense, checkArmor)

	if res.DefenseUsed && res.Block != combat.BlockNone {
		c.behavior.OnBlockHit(c, res.Block)
		c.world.m.AddEffect(c.pos, world.EffectBlockHit)
	}
	if attacker != nil {
		attacker.onAttackedCreature(c)
		attacker.onAttackedCreatureBlockHit(c, res.Block)
	}
	c.onAttacked()
	return res.Block
}

func (c *Creature) onAttacked() { c.behavior.OnAttacked(c) }

func (c *Creature) onAttackedCreature(target *Creature) { c.behavior.OnAttackedCreature(c, target) }

func (c *Creature) onAttackedCreatureBlockHit(target *Creature, b combat.BlockType) {
	if b != combat.BlockNone {
		c.logger.Debug("attack blocked", zap.Uint32("target", target.id), zap.Stringer("block", b))
	}
}

// Hit is one complete attack on target: mitigation, damage and the
// optional on-hit condition named by condID.
//
// Postcondition: Returns the block result; the condition is only applied
// when damage got through.
func (c *Creature) Hit(target *Creature, t combat.CombatType, damage int, condID string) combat.BlockType {
	block := target.BlockHit(c, t, &damage, true, true)
	if damage <= 0 {
		return block
	}
	target.DrainHealth(c, t, damage)
	if condID == "" || target.health <= 0 {
		return block
	}
	def, ok := c.world.conditions.Get(condID)
	if !ok {
		c.logger.Warn("unknown on-hit condition", zap.String("condition", condID))
		return block
	}
	target.AddCondition(def.New(c.id), false)
	return block
}

// ChangeHealth adds delta to health, clamped to [0, MaxHealth].
//
// Postcondition: A health change is notified only when the value changed.
func (c *Creature) ChangeHealth(delta int) {
	old := c.health
	if delta > 0 {
		c.health += min(delta, c.healthMax-c.health)
	} else {
		c.health = max(0, c.health+delta)
	}
	if c.health != old {
		c.world.notifier.HealthChanged(c)
	}
}

// ChangeMana adds delta to mana, clamped to [0, MaxMana].
func (c *Creature) ChangeMana(delta int) {
	if delta > 0 {
		c.mana += min(delta, c.manaMax-c.mana)
	} else {
		c.mana = max(0, c.mana+delta)
	}
}

// DrainHealth takes damage from attacker (nil for the environment) and
// credits it in the damage ledger.
func (c *Creature) DrainHealth(attacker *Creature, t combat.CombatType, damage int) {
	c.ChangeHealth(-damage)
	if attacker != nil {
		attacker.onAttackedCreatureDrainHealth(c, damage)
		return
	}
	c.AddDamagePoints(nil, damage)
}

func (c *Creature) onAttackedCreatureDrainHealth(target *Creature, points int) {
	target.AddDamagePoints(c, points)
	master := c.Master()
	if master == nil || master.Kind() != KindPlayer {
		return
	}
	c.world.notifier.TextMessage(master, fmt.Sprintf("Your %s deals %d to %s.",
		strings.ToLower(c.name), points, target.NameDescription()))
}

// DrainMana takes mana from attacker's hit.
func (c *Creature) DrainMana(attacker *Creature, amount int) {
	c.onAttacked()
	c.ChangeMana(-amount)
}

// GainHealth heals c by amount, credited to caster (nil for none) in the heal ledger.
func (c *Creature) GainHealth(caster *Creature, amount int) {
	if caster != nil {
		caster.onTargetCreatureGainHealth(c, amount)
	}
	c.ChangeHealth(amount)
}

func (c *Creature) onTargetCreatureGainHealth(target *Creature, points int) {
	target.AddHealPoints(c, points)
}

// AddDamagePoints records amount of damage from attacker (nil for the
// environment, recorded under id 0).
//
// Postcondition: Amounts <= 0 are ignored. Otherwise attacker becomes the
// last hitter.
func (c *Creature) AddDamagePoints(attacker *Creature, amount int) {
	c.damage.Add(idOf(attacker), amount, c.world.clock.NowMs())
}

// AddHealPoints records amount of healing from caster.
func (c *Creature) AddHealPoints(caster *Creature, amount int) {
	c.heal.Add(idOf(caster), amount, c.world.clock.NowMs())
}

func idOf(c *Creature) uint32 {
	if c == nil {
		return 0
	}
	return c.id
}

// DamageRatio returns attacker's share of all damage c received. An empty
// ledger yields NaN.
func (c *Creature) DamageRatio(attacker *Creature) float64 {
	return c.damage.Ratio(idOf(attacker))
}

// GainedExperience returns the experience attacker earns for its share of
// killing c.
//
// Postcondition: Returns floor(DamageRatio * Experience), or 0 when the
// ratio is undefined.
func (c *Creature) GainedExperience(attacker *Creature) uint64 {
	r := c.DamageRatio(attacker)
	if math.IsNaN(r) || r <= 0 {
		return 0
	}
	return uint64(math.Floor(r * float64(c.Experience())))
}

// HasBeenAttacked reports whether attackerID damaged c within the in-fight window.
func (c *Creature) HasBeenAttacked(attackerID uint32) bool {
	return c.damage.Recent(attackerID, c.world.clock.NowMs(), c.world.tuning.InFightMs)
}

// DamageTotal returns the damage attacker has dealt to c.
func (c *Creature) DamageTotal(attacker *Creature) int { return c.damage.Total(idOf(attacker)) }

// HealTotal returns the healing caster has given c.
func (c *Creature) HealTotal(caster *Creature) int { return c.heal.Total(idOf(caster)) }

// Killers resolves the last hitter and the most-damage contributor. The
// most-damage role only considers contributions inside the in-fight window
// and contributors that still resolve; ties keep the lower id.
func (c *Creature) Killers() (lastHit, mostDamage *Creature) {
	if id, ok := c.damage.Last(); ok {
		lastHit = c.resolve(id)
	}
	id, ok := c.damage.MostDamage(c.world.clock.NowMs(), c.world.tuning.InFightMs, func(id uint32) bool {
		_, live := c.world.Get(id)
		return live
	})
	if ok {
		mostDamage = c.resolve(id)
	}
	return lastHit, mostDamage
}

// AttackTarget resolves the current attack target.
func (c *Creature) AttackTarget() *Creature {
	if c.attackTarget == 0 {
		return nil
	}
	t := c.resolve(c.attackTarget)
	if t == nil {
		c.attackTarget = 0
	}
	return t
}

// SetAttackTarget engages target, or disengages when target is nil. The
// choice propagates to every summon.
//
// Postcondition: Returns false and clears the target when target is on
// another floor or out of view.
func (c *Creature) SetAttackTarget(target *Creature) bool {
	if target != nil {
		if target.pos.Z != c.pos.Z || !c.CanSee(target.pos) {
			c.attackTarget = 0
			return false
		}
		c.attackTarget = target.id
		c.onAttackedCreature(target)
		target.onAttacked()
	} else {
		c.attackTarget = 0
	}
	for _, s := range c.Summons() {
		s.SetAttackTarget(target)
	}
	return true
}

// OnAttacking runs one attack step against the current target.
func (c *Creature) OnAttacking(interval int64) {
	target := c.AttackTarget()
	if target == nil {
		return
	}
	c.onAttacked()
	target.onAttacked()
	if c.world.m.IsSightClear(c.pos, target.pos, true) {
		c.behavior.DoAttacking(c, interval)
	}
}
