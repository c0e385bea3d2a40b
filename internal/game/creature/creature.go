// Package creature implements the runtime model of a simulated actor:
// combat resolution and kill attribution, status conditions, and walking
// with a locally cached view of the map.
//
// Every method of Creature runs on the tick goroutine. Relations to other
// creatures (master, summons, attack and follow targets) are held as ids and
// re-resolved through the World on each use, so a creature that left the
// world simply stops resolving.
package creature

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturesim/internal/game/combat"
	"github.com/cory-johannsen/creaturesim/internal/game/condition"
	"github.com/cory-johannsen/creaturesim/internal/game/ledger"
	"github.com/cory-johannsen/creaturesim/internal/game/scheduler"
	"github.com/cory-johannsen/creaturesim/internal/game/walkcache"
	"github.com/cory-johannsen/creaturesim/internal/game/world"
	"github.com/cory-johannsen/creaturesim/internal/scripting"
)

// Kind is the sort of creature.
type Kind int

const (
	KindMonster Kind = iota
	KindPlayer
	KindNPC
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindNPC:
		return "npc"
	default:
		return "monster"
	}
}

// Race decides the fluid splashed on death.
type Race int

const (
	RaceNone Race = iota
	RaceBlood
	RaceVenom
	RaceUndead
	RaceFire
	RaceEnergy
)

var raceNames = map[Race]string{
	RaceNone:   "none",
	RaceBlood:  "blood",
	RaceVenom:  "venom",
	RaceUndead: "undead",
	RaceFire:   "fire",
	RaceEnergy: "energy",
}

// String returns the race name.
func (r Race) String() string { return raceNames[r] }

// ParseRace resolves a race by name; the empty string is RaceNone.
func ParseRace(name string) (Race, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return RaceNone, nil
	}
	for r, s := range raceNames {
		if s == n {
			return r, nil
		}
	}
	return RaceNone, fmt.Errorf("unknown race %q", name)
}

// Splash returns the fluid left on the ground when a creature of race r dies.
func (r Race) Splash() (world.Fluid, bool) {
	switch r {
	case RaceVenom:
		return world.FluidGreen, true
	case RaceBlood:
		return world.FluidBlood, true
	default:
		return world.FluidNone, false
	}
}

// Stats are the construction parameters of a creature.
type Stats struct {
	Name                  string
	Health                int
	HealthMax             int
	Mana                  int
	ManaMax               int
	Speed                 int
	Defense               int
	Armor                 int
	Race                  Race
	Corpse                string
	Experience            uint64
	Immunities            combat.CombatType
	ConditionImmunities   condition.KindSet
	ConditionSuppressions condition.KindSet
	Loot                  *LootTable
}

// Creature is one simulated actor.
type Creature struct {
	id       uint32
	name     string
	behavior Behavior
	world    *World
	logger   *zap.Logger

	health, healthMax int
	mana, manaMax     int
	baseSpeed         int
	varSpeed          int
	defense, armor    int
	immunities        combat.CombatType
	condImmune        condition.KindSet
	condSuppress      condition.KindSet
	race              Race
	corpse            string
	experience        uint64
	loot              *LootTable
	lootDrop          bool
	skillLoss         bool

	pos     world.Position
	placed  bool
	removed bool
	dead    bool

	master       uint32
	summons      []uint32
	attackTarget uint32
	followTarget uint32

	walkDirs              []world.Direction
	hasFollowPath         bool
	forceUpdateFollowPath bool
	forceFullSearch       bool
	isUpdatingPath        bool
	cancelNextWalk        bool
	walkUpdateTicks       int64
	lastStep              int64
	lastStepCost          int64
	eventWalk             scheduler.Handle
	deferred              map[scheduler.Handle]struct{}

	cache      *walkcache.Grid
	charges    combat.Charges
	conditions *condition.Engine
	damage     *ledger.Ledger
	heal       *ledger.Ledger

	events []string
}

func newCreature(id uint32, b Behavior, s Stats, w *World) *Creature {
	c := &Creature{
		id:           id,
		name:         s.Name,
		behavior:     b,
		world:        w,
		logger:       w.logger.With(zap.Uint32("creature", id)),
		health:       s.Health,
		healthMax:    s.HealthMax,
		mana:         s.Mana,
		manaMax:      s.ManaMax,
		baseSpeed:    s.Speed,
		defense:      s.Defense,
		armor:        s.Armor,
		immunities:   s.Immunities,
		condImmune:   s.ConditionImmunities,
		condSuppress: s.ConditionSuppressions,
		race:         s.Race,
		corpse:       s.Corpse,
		experience:   s.Experience,
		loot:         s.Loot,
		lootDrop:     true,
		skillLoss:    true,
		lastStepCost: 1,
		cache:        walkcache.New(w.tuning.CacheWidth, w.tuning.CacheHeight),
		damage:       ledger.New(),
		heal:         ledger.New(),
	}
	if c.healthMax < c.health {
		c.healthMax = c.health
	}
	if c.manaMax < c.mana {
		c.manaMax = c.mana
	}
	c.conditions = condition.NewEngine(conditionHost{c}, w.clock, c.logger)
	return c
}

// ID returns the creature's process-unique id.
func (c *Creature) ID() uint32 { return c.id }

// Name returns the display name.
func (c *Creature) Name() string { return c.name }

// NameDescription returns the name as used in sentences: players by name,
// everything else with an indefinite article.
func (c *Creature) NameDescription() string {
	if c.Kind() == KindPlayer {
		return c.name
	}
	lower := strings.ToLower(c.name)
	if lower != "" && strings.ContainsRune("aeiou", rune(lower[0])) {
		return "an " + lower
	}
	return "a " + lower
}

// Kind returns the kind of the creature's behavior.
func (c *Creature) Kind() Kind { return c.behavior.Kind() }

// Behavior returns the kind-specific behavior.
func (c *Creature) Behavior() Behavior { return c.behavior }

// Health returns the current health.
func (c *Creature) Health() int { return c.health }

// MaxHealth returns the health cap.
func (c *Creature) MaxHealth() int { return c.healthMax }

// Mana returns the current mana.
func (c *Creature) Mana() int { return c.mana }

// MaxMana returns the mana cap.
func (c *Creature) MaxMana() int { return c.manaMax }

// Position returns the last position the map placed the creature at.
func (c *Creature) Position() world.Position { return c.pos }

// IsRemoved reports whether the creature has left the world.
func (c *Creature) IsRemoved() bool { return c.removed }

// Race returns the creature's race.
func (c *Creature) Race() Race { return c.race }

// Experience returns the experience this creature is worth when killed.
// Creatures that do not lose skill on death are worth nothing.
func (c *Creature) Experience() uint64 {
	if !c.skillLoss {
		return 0
	}
	return c.experience
}

// DropsLoot reports whether death fills a corpse with loot.
func (c *Creature) DropsLoot() bool { return c.lootDrop }

// Tile returns the tile the creature stands on.
func (c *Creature) Tile() (world.Tile, bool) {
	if !c.placed {
		return nil, false
	}
	return c.world.m.Tile(c.pos)
}

// Zone returns the zone of the creature's tile, ZoneNormal when off the map.
func (c *Creature) Zone() world.Zone {
	if t, ok := c.Tile(); ok {
		return t.Zone()
	}
	return world.ZoneNormal
}

// Info returns the snapshot handed to script hooks.
func (c *Creature) Info() scripting.ActorInfo {
	return scripting.ActorInfo{
		ID:        c.id,
		Name:      c.name,
		Kind:      c.Kind().String(),
		Health:    c.health,
		MaxHealth: c.healthMax,
		X:         c.pos.X,
		Y:         c.pos.Y,
		Z:         c.pos.Z,
	}
}

// CanSee reports whether a viewer at from with the given view ranges sees
// pos. Surface floors only see the surface; underground floors see two
// floors up and down. The view window shifts by the floor difference.
func CanSee(from, pos world.Position, rangeX, rangeY int) bool {
	if from.Z <= world.SurfaceFloor {
		if pos.Z > world.SurfaceFloor {
			return false
		}
	} else if from.DistanceZ(pos) > 2 {
		return false
	}
	offsetZ := from.Z - pos.Z
	return pos.X >= from.X-rangeX+offsetZ && pos.X <= from.X+rangeX+offsetZ &&
		pos.Y >= from.Y-rangeY+offsetZ && pos.Y <= from.Y+rangeY+offsetZ
}

// CanSee reports whether pos is inside this creature's viewport.
func (c *Creature) CanSee(pos world.Position) bool {
	return CanSee(c.pos, pos, c.world.tuning.ViewportX, c.world.tuning.ViewportY)
}

// CanSeeCreature reports whether o is visible to this creature. Invisible
// creatures are hidden from viewers that cannot see invisibility.
func (c *Creature) CanSeeCreature(o *Creature) bool {
	if !c.behavior.CanSeeInvisibility() && o.IsInvisible() {
		return false
	}
	return true
}

// IsInvisible reports whether an invisible condition is active.
func (c *Creature) IsInvisible() bool {
	return c.HasCondition(condition.Invisible)
}

// Master resolves the creature's master. A master that left the world is
// forgotten.
func (c *Creature) Master() *Creature {
	if c.master == 0 {
		return nil
	}
	m, ok := c.world.Get(c.master)
	if !ok {
		c.master = 0
		return nil
	}
	return m
}

// HasMaster reports whether the creature is a live summon.
func (c *Creature) HasMaster() bool { return c.Master() != nil }

// Summons resolves the creature's live summons.
func (c *Creature) Summons() []*Creature {
	out := make([]*Creature, 0, len(c.summons))
	for _, id := range c.summons {
		if s, ok := c.world.Get(id); ok {
			out = append(out, s)
		}
	}
	return out
}

// AddSummon makes s a summon of c. Summons drop no loot and are worth no experience.
//
// Postcondition: s.Master() == c.
func (c *Creature) AddSummon(s *Creature) {
	s.lootDrop = false
	s.skillLoss = false
	s.master = c.id
	c.summons = append(c.summons, s.id)
	c.logger.Debug("summon added", zap.Uint32("summon", s.id))
}

// RemoveSummon releases s if it is a summon of c.
//
// Postcondition: s has no master; it keeps dropping no loot but is worth
// experience again.
func (c *Creature) RemoveSummon(s *Creature) {
	for i, id := range c.summons {
		if id != s.id {
			continue
		}
		s.lootDrop = false
		s.skillLoss = true
		s.master = 0
		c.summons = append(c.summons[:i], c.summons[i+1:]...)
		c.logger.Debug("summon removed", zap.Uint32("summon", s.id))
		return
	}
}

// RegisterEvent subscribes the creature to the named script event.
//
// Postcondition: Returns false when no hooks are configured, the event is
// unknown, or it is already registered.
func (c *Creature) RegisterEvent(name string) bool {
	if c.world.hooks == nil {
		return false
	}
	if _, ok := c.world.hooks.Kind(name); !ok {
		return false
	}
	for _, e := range c.events {
		if e == name {
			return false
		}
	}
	c.events = append(c.events, name)
	return true
}

// eventsOf returns the registered events of kind k in registration order.
func (c *Creature) eventsOf(k scripting.EventKind) []string {
	if c.world.hooks == nil {
		return nil
	}
	var out []string
	for _, e := range c.events {
		if ek, ok := c.world.hooks.Kind(e); ok && ek == k {
			out = append(out, e)
		}
	}
	return out
}

// resolve looks up a related creature by id.
func (c *Creature) resolve(id uint32) *Creature {
	o, ok := c.world.Get(id)
	if !ok {
		return nil
	}
	return o
}

// same reports whether a and b are the same live creature. Absent
// creatures never match anything, including each other.
func same(a, b *Creature) bool {
	return a != nil && b != nil && a.id == b.id
}
