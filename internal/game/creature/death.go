package creature

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturesim/internal/game/world"
	"github.com/cory-johannsen/creaturesim/internal/scripting"
)

// IsDead reports whether OnDeath ran since the creature was spawned or last revived.
func (c *Creature) IsDead() bool { return c.dead }

// OnDeath finalizes a creature whose health reached 0: it attributes the
// kill, pays out experience, drops the corpse and takes non-players out of
// the world.
//
// Postcondition: Runs at most once until Revive. The last hitter is told it
// killed c; the most-damage contributor is told as well unless it is the
// last hitter, its master, its summon, or shares its master.
func (c *Creature) OnDeath() {
	if c.dead {
		return
	}
	c.dead = true

	lastHit, mostDamage := c.Killers()
	var lastHitMaster *Creature
	var lastHitUnjustified, mostDamageUnjustified bool
	if lastHit != nil {
		lastHitUnjustified = lastHit.OnKilledCreature(c, true)
		lastHitMaster = lastHit.Master()
	}
	if mostDamage != nil {
		mostDamageMaster := mostDamage.Master()
		if !same(mostDamage, lastHit) &&
			!same(mostDamage, lastHitMaster) &&
			!same(lastHit, mostDamageMaster) &&
			(lastHitMaster == nil || !same(mostDamageMaster, lastHitMaster)) {
			mostDamageUnjustified = mostDamage.OnKilledCreature(c, false)
		}
	}

	for _, id := range c.damage.IDs() {
		if a := c.resolve(id); a != nil {
			a.onAttackedCreatureKilled(c)
		}
	}

	c.logger.Debug("creature died",
		zap.Uint32("last_hit", idOf(lastHit)),
		zap.Uint32("most_damage", idOf(mostDamage)),
		zap.Bool("last_hit_unjustified", lastHitUnjustified),
		zap.Bool("most_damage_unjustified", mostDamageUnjustified),
	)

	c.dropCorpse(scripting.DeathInfo{
		LastHitter:      infoOf(lastHit),
		MostDamage:      infoOf(mostDamage),
		UnjustifiedLast: lastHitUnjustified,
		UnjustifiedMost: mostDamageUnjustified,
	})

	if m := c.Master(); m != nil {
		m.RemoveSummon(c)
	}
	if c.Kind() != KindPlayer {
		c.world.Remove(c)
	}
}

func infoOf(c *Creature) *scripting.ActorInfo {
	if c == nil {
		return nil
	}
	i := c.Info()
	return &i
}

// dropCorpse leaves the remains of c on its tile. Loot-less monsters that
// do not serve a player vanish in a puff; everything else leaves a splash
// by race, a corpse and the loot inside it.
func (c *Creature) dropCorpse(d scripting.DeathInfo) {
	m := c.Master()
	if !c.lootDrop && c.Kind() == KindMonster && (m == nil || m.Kind() != KindPlayer) {
		if m != nil {
			c.runDeathHooks(d)
		}
		c.world.m.AddEffect(c.pos, world.EffectPoff)
		return
	}

	if f, ok := c.race.Splash(); ok {
		c.addItem(world.NewSplash(f))
	}
	var corpse *world.Item
	if c.corpse != "" {
		corpse = world.NewItem(c.corpse)
		c.addItem(corpse)
		d.Corpse = corpse.TypeID
	}
	c.runDeathHooks(d)
	if corpse != nil && c.lootDrop && c.loot != nil {
		corpse.Contents = append(corpse.Contents, GenerateLoot(*c.loot, c.world.roller)...)
	}
	c.world.NotifyTileChanged(c.pos)
}

func (c *Creature) addItem(it *world.Item) {
	if err := c.world.m.AddItem(c.pos, it); err != nil {
		c.logger.Warn("dropping item failed", zap.String("item", it.TypeID), zap.Error(err))
	}
}

func (c *Creature) runDeathHooks(d scripting.DeathInfo) {
	events := c.eventsOf(scripting.EventDeath)
	if len(events) == 0 {
		return
	}
	self := c.Info()
	for _, ev := range events {
		c.world.hooks.Death(ev, self, d)
	}
}

// OnKilledCreature tells c it took part in killing target. The master of a
// summon hears about it too, then the kill hooks run until one vetoes.
//
// Postcondition: Returns whether the behavior judged the kill unjustified.
func (c *Creature) OnKilledCreature(target *Creature, lastHit bool) bool {
	if m := c.Master(); m != nil {
		m.OnKilledCreature(target, true)
	}
	if events := c.eventsOf(scripting.EventKill); len(events) > 0 {
		self, victim := c.Info(), target.Info()
		for _, ev := range events {
			if !c.world.hooks.Kill(ev, self, victim, lastHit) {
				break
			}
		}
	}
	return c.behavior.OnKilledCreature(c, target)
}

func (c *Creature) onAttackedCreatureKilled(target *Creature) {
	if target == c {
		return
	}
	c.OnGainExperience(target.GainedExperience(c))
}

// OnGainExperience credits amount to c. A summon passes half on to its
// master and announces the gain to the players watching.
func (c *Creature) OnGainExperience(amount uint64) {
	if amount == 0 {
		return
	}
	c.behavior.OnGainExperience(c, amount)
	m := c.Master()
	if m == nil {
		return
	}
	amount /= 2
	m.OnGainExperience(amount)
	msg := fmt.Sprintf("%s gained %d experience points.", ucfirst(c.NameDescription()), amount)
	for _, p := range c.world.Spectators(c.pos, true) {
		c.world.notifier.TextMessage(p, msg)
	}
}

func ucfirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
