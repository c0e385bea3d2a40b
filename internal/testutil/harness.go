// Package testutil provides a shared harness for creature simulation tests:
// a manually advanced clock, a scheduler, fixed dice, a condition registry,
// an inline tile map, a creature World and a recording notifier.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/creaturesim/internal/game/clock"
	"github.com/cory-johannsen/creaturesim/internal/game/condition"
	"github.com/cory-johannsen/creaturesim/internal/game/creature"
	"github.com/cory-johannsen/creaturesim/internal/game/dice"
	"github.com/cory-johannsen/creaturesim/internal/game/movement"
	"github.com/cory-johannsen/creaturesim/internal/game/scheduler"
	"github.com/cory-johannsen/creaturesim/internal/game/tilemap"
	"github.com/cory-johannsen/creaturesim/internal/game/world"
)

// StartMs is the simulation time a harness starts at. It is non-zero so
// the state time is set.
const StartMs int64 = 1_000_000

// ArenaMap is the default harness map: a walled 20x12 field on floor 7
// with its top-left wall at (100, 100). It holds a protection area at
// x 101..103, y 101..103, a burning field at x 115..116, y 101..102, a
// slow road along y 110 and a pillar at (110, 105).
const ArenaMap = `
name: arena
origin:
  x: 100
  y: 100
default_ground: 150
blocking_items:
  - boulder
legend:
  ".":
    ground: 150
  ",":
    ground: 300
  "#":
    wall: true
  "P":
    zone: protection
  "F":
    field: burning
floors:
  - z: 7
    rows:
      - "####################"
      - "#PPP...........FF..#"
      - "#PPP...........FF..#"
      - "#PPP...............#"
      - "#..................#"
      - "#.........#........#"
      - "#..................#"
      - "#..................#"
      - "#..................#"
      - "#..................#"
      - "#,,,,,,,,,,,,,,,,,,#"
      - "####################"
  - z: 8
    rows:
      - "#####"
      - "#...#"
      - "#####"
`

// Harness is a complete creature world for tests. All fields are ready to use.
type Harness struct {
	Clock      *clock.Sim
	Scheduler  *scheduler.Scheduler
	Dice       *dice.FixedSource
	Roller     *dice.Roller
	Conditions *condition.Registry
	Map        *tilemap.Map
	World      *creature.World
	Notes      *Recorder
	Logs       *observer.ObservedLogs
	Logger     *zap.Logger
}

type options struct {
	mapYAML string
	tuning  creature.Tuning
	dice    []int
	hooks   creature.Hooks
}

// Option customizes NewHarness.
type Option func(*options)

// WithMap replaces ArenaMap with another map YAML document.
func WithMap(yaml string) Option { return func(o *options) { o.mapYAML = yaml } }

// WithTuning replaces creature.DefaultTuning.
func WithTuning(t creature.Tuning) Option { return func(o *options) { o.tuning = t } }

// WithDice makes the roller replay values. The default always rolls 0.
func WithDice(values ...int) Option { return func(o *options) { o.dice = values } }

// WithHooks installs script hooks.
func WithHooks(h creature.Hooks) Option { return func(o *options) { o.hooks = h } }

// NewHarness builds a Harness. Logs at every level are captured in Logs and
// echoed to the test log.
//
// Postcondition: The world is empty and the clock reads StartMs.
func NewHarness(t testing.TB, opts ...Option) *Harness {
	t.Helper()
	o := options{mapYAML: ArenaMap, tuning: creature.DefaultTuning()}
	for _, opt := range opts {
		opt(&o)
	}

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(zapcore.NewTee(core, zaptest.NewLogger(t).Core()))

	conds := DefaultConditions(t)
	m, err := tilemap.LoadFromBytes([]byte(o.mapYAML), conds, logger)
	require.NoError(t, err)

	clk := clock.NewSim(StartMs)
	sched := scheduler.New(clk, movement.TickMs, logger)
	src := dice.NewFixedSource(o.dice...)
	roller := dice.NewLoggedRoller(src, logger)
	notes := NewRecorder()

	w := creature.NewWorld(creature.Deps{
		Map:        m,
		Scheduler:  sched,
		Clock:      clk,
		Roller:     roller,
		Hooks:      o.hooks,
		Notifier:   notes,
		Conditions: conds,
		Logger:     logger,
	}, o.tuning)

	return &Harness{
		Clock:      clk,
		Scheduler:  sched,
		Dice:       src,
		Roller:     roller,
		Conditions: conds,
		Map:        m,
		World:      w,
		Notes:      notes,
		Logs:       logs,
		Logger:     logger,
	}
}

// Advance moves simulation time forward by ms in scheduler ticks, running
// due tasks after each tick.
func (h *Harness) Advance(ms int64) {
	for elapsed := int64(0); elapsed < ms; elapsed += movement.TickMs {
		h.Clock.Advance(movement.TickMs)
		h.Scheduler.RunDue()
	}
}

// Pos returns the floor 7 position (x, y).
func Pos(x, y int) world.Position {
	return world.Position{X: x, Y: y, Z: world.SurfaceFloor}
}

// SpawnPlayer places a player with the given health and speed 220.
func (h *Harness) SpawnPlayer(t testing.TB, name string, health int, pos world.Position) *creature.Creature {
	t.Helper()
	c, err := h.World.Spawn(&creature.Player{}, creature.Stats{
		Name:      name,
		Health:    health,
		HealthMax: health,
		Speed:     220,
		Race:      creature.RaceBlood,
	}, pos)
	require.NoError(t, err)
	return c
}

// SpawnStats places a creature with an explicit behavior and stats.
func (h *Harness) SpawnStats(t testing.TB, b creature.Behavior, s creature.Stats, pos world.Position) *creature.Creature {
	t.Helper()
	c, err := h.World.Spawn(b, s, pos)
	require.NoError(t, err)
	return c
}

// SpawnTemplate parses a template document and places a creature from it.
func (h *Harness) SpawnTemplate(t testing.TB, yaml string, pos world.Position) *creature.Creature {
	t.Helper()
	tmpl, err := creature.LoadTemplateFromBytes([]byte(yaml))
	require.NoError(t, err)
	c, err := h.World.SpawnTemplate(tmpl, pos)
	require.NoError(t, err)
	return c
}

// Condition returns a fresh instance of the registered definition id.
func (h *Harness) Condition(t testing.TB, id string, owner uint32) *condition.Condition {
	t.Helper()
	def, ok := h.Conditions.Get(id)
	require.True(t, ok, "condition %q not registered", id)
	return def.New(owner)
}

// DefaultConditions returns a registry holding the stock conditions:
// burning, electrified, poison_bite, paralyze, haste, drunk, invisible and
// regeneration.
func DefaultConditions(t testing.TB) *condition.Registry {
	t.Helper()
	reg := condition.NewRegistry()
	for _, d := range []*condition.Def{
		{ID: "burning", Kind: "fire", Source: "combat", Rounds: 7, TickDamage: 10, TickIntervalMs: 4000},
		{ID: "electrified", Kind: "energy", Source: "combat", Rounds: 3, TickDamage: 25, TickIntervalMs: 4000},
		{ID: "poison_bite", Kind: "poison", Source: "combat", Rounds: 5, TickDamage: 3, TickIntervalMs: 2000},
		{ID: "paralyze", Kind: "paralyze", Source: "combat", DurationMs: 10000, SpeedDelta: -100},
		{ID: "haste", Kind: "haste", Source: "spell", DurationMs: 30000, SpeedDelta: 70},
		{ID: "drunk", Kind: "drunk", DurationMs: 60000},
		{ID: "invisible", Kind: "invisible", Source: "spell", DurationMs: 20000},
		{ID: "regeneration", Kind: "regeneration", DurationMs: 20000, TickIntervalMs: 2000, HealthGain: 5},
	} {
		require.NoError(t, reg.Register(d))
	}
	return reg
}
