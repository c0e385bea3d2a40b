package creature

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturesim/internal/game/clock"
	"github.com/cory-johannsen/creaturesim/internal/game/condition"
	"github.com/cory-johannsen/creaturesim/internal/game/dice"
	"github.com/cory-johannsen/creaturesim/internal/game/movement"
	"github.com/cory-johannsen/creaturesim/internal/game/scheduler"
	"github.com/cory-johannsen/creaturesim/internal/game/world"
	"github.com/cory-johannsen/creaturesim/internal/scripting"
)

// Map is the tile map service. Implementations track which tile each
// creature occupies; creatures never own tiles.
type Map interface {
	// Tile returns the tile at pos.
	Tile(pos world.Position) (world.Tile, bool)
	// CanEnter reports whether c may stand on t under flags.
	CanEnter(t world.Tile, c *Creature, flags world.MoveFlags) bool
	IsSightClear(from, to world.Position, sameFloor bool) bool
	// FindPath returns the directions leading c to a tile satisfying params
	// relative to to. ok is false when no such tile is reachable.
	FindPath(c *Creature, to world.Position, params world.FindPathParams) (dirs []world.Direction, ok bool)
	// Place moves c onto the tile at pos, vacating its previous tile.
	// Failures are world.ErrNoTile, world.ErrTileOccupied or world.ErrNotPossible.
	Place(c *Creature, pos world.Position, flags world.MoveFlags) error
	// Lift takes c off the map.
	Lift(c *Creature)
	// StepIn applies tile effects to c after it arrived on t.
	StepIn(c *Creature, t world.Tile)
	AddItem(pos world.Position, it *world.Item) error
	AddEffect(pos world.Position, e world.MagicEffect)
}

// Scheduler runs delayed tasks on the tick goroutine. *scheduler.Scheduler satisfies it.
type Scheduler interface {
	Schedule(delay int64, fn scheduler.Task) scheduler.Handle
	Cancel(h scheduler.Handle) bool
}

// Hooks dispatches named script events. *scripting.Events satisfies it.
type Hooks interface {
	Kind(name string) (scripting.EventKind, bool)
	Think(name string, self scripting.ActorInfo, interval int64)
	Kill(name string, self, target scripting.ActorInfo, lastHit bool) bool
	Death(name string, self scripting.ActorInfo, d scripting.DeathInfo)
}

// Notifier delivers observable creature output to whatever surrounds the
// simulation (clients, logs, tests).
type Notifier interface {
	TextMessage(to *Creature, text string)
	Say(c *Creature, text string)
	// CancelWalk tells a player's client that its walk was cancelled.
	CancelWalk(c *Creature, reason error)
	HealthChanged(c *Creature)
}

type nopNotifier struct{}

func (nopNotifier) TextMessage(*Creature, string) {}
func (nopNotifier) Say(*Creature, string)         {}
func (nopNotifier) CancelWalk(*Creature, error)   {}
func (nopNotifier) HealthChanged(*Creature)       {}

// Tuning holds the design parameters of the simulation.
type Tuning struct {
	// InFightMs is the window a damage contribution stays eligible for
	// most-damage attribution.
	InFightMs int64
	// PathRefreshMs is how often a follow path is recomputed.
	PathRefreshMs int64
	MaxSearchDist int
	CacheWidth    int
	CacheHeight   int
	ViewportX     int
	ViewportY     int
	// SummonLeash is the horizontal distance past which summons are despawned
	// when their master moves; SummonFloorLeash is the floor distance.
	SummonLeash      int
	SummonFloorLeash int
	Curve            movement.SpeedCurve
}

// DefaultTuning returns the stock design parameters.
func DefaultTuning() Tuning {
	return Tuning{
		InFightMs:        60000,
		PathRefreshMs:    2000,
		MaxSearchDist:    12,
		CacheWidth:       17,
		CacheHeight:      13,
		ViewportX:        8,
		ViewportY:        6,
		SummonLeash:      30,
		SummonFloorLeash: 2,
		Curve:            movement.DefaultCurve,
	}
}

// Deps are the collaborators of a World. Hooks, Notifier and Conditions are optional.
type Deps struct {
	Map        Map
	Scheduler  Scheduler
	Clock      clock.Clock
	Roller     *dice.Roller
	Hooks      Hooks
	Notifier   Notifier
	Conditions *condition.Registry
	Logger     *zap.Logger
}

// World owns the live creatures and relays map mutations to them as
// appear/move/disappear notifications. All methods except Get and All
// must be called from the tick goroutine.
type World struct {
	m          Map
	sched      Scheduler
	clock      clock.Clock
	roller     *dice.Roller
	hooks      Hooks
	notifier   Notifier
	conditions *condition.Registry
	tuning     Tuning
	logger     *zap.Logger
	creatures  *Registry
}

// NewWorld creates a World.
//
// Precondition: d.Map, d.Scheduler, d.Clock, d.Roller and d.Logger must be non-nil.
// Postcondition: Returns a World with no creatures.
func NewWorld(d Deps, t Tuning) *World {
	n := d.Notifier
	if n == nil {
		n = nopNotifier{}
	}
	conds := d.Conditions
	if conds == nil {
		conds = condition.NewRegistry()
	}
	return &World{
		m:          d.Map,
		sched:      d.Scheduler,
		clock:      d.Clock,
		roller:     d.Roller,
		hooks:      d.Hooks,
		notifier:   n,
		conditions: conds,
		tuning:     t,
		logger:     d.Logger,
		creatures:  NewRegistry(),
	}
}

// Tuning returns the design parameters.
func (w *World) Tuning() Tuning { return w.tuning }

// Clock returns the simulation clock.
func (w *World) Clock() clock.Clock { return w.clock }

// Map returns the tile map.
func (w *World) Map() Map { return w.m }

// Conditions returns the condition definition registry.
func (w *World) Conditions() *condition.Registry { return w.conditions }

// Get resolves a live creature by id.
func (w *World) Get(id uint32) (*Creature, bool) {
	return w.creatures.Get(id)
}

// All returns a snapshot of the live creatures in id order.
func (w *World) All() []*Creature {
	return w.creatures.All()
}

// Len returns the number of live creatures.
func (w *World) Len() int { return w.creatures.Len() }

// Spawn creates a creature of behavior b and places it at pos.
//
// Postcondition: On success the creature is registered, on the map, and
// every live creature (itself included) has observed its appearance.
func (w *World) Spawn(b Behavior, s Stats, pos world.Position) (*Creature, error) {
	c := newCreature(w.creatures.nextID(b.Kind()), b, s, w)
	if err := w.m.Place(c, pos, 0); err != nil {
		return nil, fmt.Errorf("spawning %s at %s: %w", s.Name, pos, err)
	}
	c.pos = pos
	c.placed = true
	w.creatures.add(c)
	w.logger.Debug("creature spawned",
		zap.Uint32("creature", c.id),
		zap.String("name", c.name),
		zap.Stringer("kind", b.Kind()),
		zap.Stringer("pos", pos),
	)
	for _, o := range w.creatures.All() {
		o.OnCreatureAppear(c)
	}
	if t, ok := w.m.Tile(pos); ok {
		w.m.StepIn(c, t)
	}
	return c, nil
}

// SpawnTemplate spawns a creature from tmpl at pos with the kind its
// template selects.
func (w *World) SpawnTemplate(tmpl *Template, pos world.Position) (*Creature, error) {
	c, err := w.Spawn(tmpl.Behavior(), tmpl.Stats(), pos)
	if err != nil {
		return nil, err
	}
	for _, ev := range tmpl.Events {
		if !c.RegisterEvent(ev) {
			w.logger.Warn("creature event not registered",
				zap.Uint32("creature", c.id),
				zap.String("event", ev),
			)
		}
	}
	return c, nil
}

// SpawnSummon spawns a creature from tmpl at pos owned by master.
func (w *World) SpawnSummon(master *Creature, tmpl *Template, pos world.Position) (*Creature, error) {
	c, err := w.SpawnTemplate(tmpl, pos)
	if err != nil {
		return nil, err
	}
	master.AddSummon(c)
	return c, nil
}

// Move steps c one tile in direction d.
//
// Postcondition: On success c's position changed and every live creature
// has observed the move. On failure nothing changed and the map's error is returned.
func (w *World) Move(c *Creature, d world.Direction, flags world.MoveFlags) error {
	return w.relocate(c, c.pos.Step(d), flags, false)
}

// ChangeFloor moves c one floor up or down onto a tile at most one step
// away, the way stairs and ladders do. It counts as a walk step, not a teleport.
//
// Precondition: to is exactly one floor from c and within one tile on x and y.
func (w *World) ChangeFloor(c *Creature, to world.Position) error {
	if to.DistanceZ(c.pos) != 1 || to.DistanceX(c.pos) > 1 || to.DistanceY(c.pos) > 1 {
		return world.ErrNotPossible
	}
	return w.relocate(c, to, world.FlagIgnoreFieldDamage, false)
}

// Teleport moves c to pos regardless of distance.
func (w *World) Teleport(c *Creature, pos world.Position) error {
	return w.relocate(c, pos, world.FlagIgnoreCreatures|world.FlagIgnoreFieldDamage, true)
}

func (w *World) relocate(c *Creature, to world.Position, flags world.MoveFlags, teleport bool) error {
	if !c.placed || c.removed {
		return world.ErrNotPossible
	}
	from := c.pos
	oldTile, _ := w.m.Tile(from)
	if err := w.m.Place(c, to, flags); err != nil {
		return err
	}
	newTile, _ := w.m.Tile(to)
	c.pos = to
	for _, o := range w.creatures.All() {
		if o.removed {
			continue
		}
		o.OnCreatureMove(c, newTile, to, oldTile, from, teleport)
	}
	if newTile != nil && !c.removed {
		w.m.StepIn(c, newTile)
	}
	return nil
}

// Remove takes c off the map and out of the registry.
//
// Postcondition: Every remaining creature has observed the disappearance,
// c is marked removed and destroyed, and c no longer resolves through Get.
func (w *World) Remove(c *Creature) {
	if c.removed {
		return
	}
	if _, ok := w.creatures.Get(c.id); !ok {
		return
	}
	w.m.Lift(c)
	c.placed = false
	for _, o := range w.creatures.All() {
		o.OnCreatureDisappear(c, false)
	}
	_ = w.creatures.remove(c.id)
	c.OnCreatureRemoved()
	c.Destroy()
	w.logger.Debug("creature removed", zap.Uint32("creature", c.id), zap.String("name", c.name))
}

// NotifyTileChanged refreshes the walk cache cell at pos for every creature
// caching that floor. Item add, update and removal all funnel through here.
func (w *World) NotifyTileChanged(pos world.Position) {
	for _, c := range w.creatures.All() {
		c.OnTileChanged(pos)
	}
}

// Spectators returns the live creatures that can see pos, in id order.
// playersOnly restricts the result to players.
func (w *World) Spectators(pos world.Position, playersOnly bool) []*Creature {
	var out []*Creature
	for _, c := range w.creatures.All() {
		if playersOnly && c.Kind() != KindPlayer {
			continue
		}
		if CanSee(c.pos, pos, w.tuning.ViewportX, w.tuning.ViewportY) {
			out = append(out, c)
		}
	}
	return out
}
