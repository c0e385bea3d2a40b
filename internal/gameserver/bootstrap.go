package gameserver

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturesim/internal/config"
	"github.com/cory-johannsen/creaturesim/internal/game/clock"
	"github.com/cory-johannsen/creaturesim/internal/game/condition"
	"github.com/cory-johannsen/creaturesim/internal/game/creature"
	"github.com/cory-johannsen/creaturesim/internal/game/dice"
	"github.com/cory-johannsen/creaturesim/internal/game/movement"
	"github.com/cory-johannsen/creaturesim/internal/game/scheduler"
	"github.com/cory-johannsen/creaturesim/internal/game/tilemap"
	"github.com/cory-johannsen/creaturesim/internal/game/world"
	"github.com/cory-johannsen/creaturesim/internal/observability"
	"github.com/cory-johannsen/creaturesim/internal/scripting"
)

// Content is everything read from disk before the world starts.
type Content struct {
	Conditions *condition.Registry
	Map        *tilemap.Map
	Templates  map[string]*creature.Template
	// Events and Scripts are nil when scripting is disabled.
	Events  *scripting.Registry
	Scripts *scripting.Manager
}

// LoadContent reads the condition definitions, the map, the creature
// templates and, when a script root is configured, the event registry and
// the Lua script sets.
//
// Precondition: cfg passed validation; roller and logger must be non-nil.
// Postcondition: Returns fully cross-checked Content or a non-nil error.
func LoadContent(cfg config.ContentConfig, roller *dice.Roller, logger *zap.Logger) (*Content, error) {
	start := time.Now()

	conds, err := condition.LoadDirectory(cfg.ConditionsDir)
	if err != nil {
		return nil, fmt.Errorf("loading conditions: %w", err)
	}
	m, err := tilemap.LoadFromFile(cfg.MapFile, conds, observability.Named(logger, "tilemap"))
	if err != nil {
		return nil, fmt.Errorf("loading map: %w", err)
	}
	templates, err := creature.LoadTemplates(cfg.TemplatesDir)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	content := &Content{Conditions: conds, Map: m, Templates: templates}
	if cfg.ScriptRoot != "" {
		content.Events, err = scripting.LoadRegistry(cfg.EventsFile)
		if err != nil {
			return nil, fmt.Errorf("loading events: %w", err)
		}
		content.Scripts = scripting.NewManager(roller, observability.Named(logger, "scripting"))
		keys, err := content.Scripts.LoadTree(cfg.ScriptRoot, cfg.ScriptInstructionLimit)
		if err != nil {
			content.Scripts.Close()
			return nil, fmt.Errorf("loading scripts: %w", err)
		}
		logger.Info("scripts loaded", zap.Strings("sets", keys))
	}
	if err := content.check(); err != nil {
		content.Close()
		return nil, err
	}

	logger.Info("content loaded",
		zap.Int("conditions", len(conds.All())),
		zap.Int("tiles", m.TileCount()),
		zap.Int("templates", len(templates)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return content, nil
}

// check verifies the references between content files: on-hit conditions
// must be defined, and template events must be registered with a loaded
// script set.
func (c *Content) check() error {
	ids := make([]string, 0, len(c.Templates))
	for id := range c.Templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		tmpl := c.Templates[id]
		if a := tmpl.Attack; a != nil && a.Condition != "" {
			if _, ok := c.Conditions.Get(a.Condition); !ok {
				errs = append(errs, fmt.Errorf("template %q: unknown attack condition %q", id, a.Condition))
			}
		}
		if c.Events == nil {
			continue
		}
		for _, name := range tmpl.Events {
			ev, ok := c.Events.Get(name)
			if !ok {
				errs = append(errs, fmt.Errorf("template %q: unknown event %q", id, name))
				continue
			}
			if !c.Scripts.Has(ev.Script) {
				errs = append(errs, fmt.Errorf("template %q: event %q uses unloaded script set %q", id, name, ev.Script))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("content references: %w", errors.Join(errs...))
	}
	return nil
}

// Close releases the Lua VMs, if any.
func (c *Content) Close() {
	if c.Scripts != nil {
		c.Scripts.Close()
	}
}

// TuningFrom converts the simulation configuration into creature tuning.
func TuningFrom(s config.SimulationConfig) creature.Tuning {
	return creature.Tuning{
		InFightMs:        s.InFightMs,
		PathRefreshMs:    s.PathRefreshMs,
		MaxSearchDist:    s.MaxSearchDist,
		CacheWidth:       s.WalkCacheWidth,
		CacheHeight:      s.WalkCacheHeight,
		ViewportX:        s.ViewportX,
		ViewportY:        s.ViewportY,
		SummonLeash:      s.SummonLeash,
		SummonFloorLeash: s.SummonFloorLeash,
		Curve:            movement.SpeedCurve{A: s.SpeedA, B: s.SpeedB, C: s.SpeedC},
	}
}

// Build assembles a Simulation from cfg and loaded content, wires the
// script engine functions to the world and places the configured spawns.
// The clock starts at startMs.
//
// Precondition: cfg passed validation; content came from LoadContent.
// Postcondition: Returns a stopped Simulation with every spawn placed, or
// an error listing every spawn that failed.
func Build(cfg config.Config, content *Content, startMs int64, roller *dice.Roller, logger *zap.Logger) (*Simulation, error) {
	clk := clock.NewSim(startMs)
	sched := scheduler.New(clk, cfg.Simulation.MinSchedulerMs, observability.Named(logger, "scheduler"))

	deps := creature.Deps{
		Map:        content.Map,
		Scheduler:  sched,
		Clock:      clk,
		Roller:     roller,
		Notifier:   NewLogNotifier(observability.Named(logger, "notify")),
		Conditions: content.Conditions,
		Logger:     observability.Named(logger, "creature"),
	}
	if content.Events != nil {
		deps.Hooks = scripting.NewEvents(content.Events, content.Scripts)
	}
	w := creature.NewWorld(deps, TuningFrom(cfg.Simulation))
	if content.Scripts != nil {
		wireScripts(content.Scripts, w, deps.Notifier)
	}

	var errs []error
	for i, sp := range cfg.Content.Spawns {
		tmpl, ok := content.Templates[sp.Template]
		if !ok {
			errs = append(errs, fmt.Errorf("spawn %d: unknown template %q", i, sp.Template))
			continue
		}
		pos := world.Position{X: sp.X, Y: sp.Y, Z: sp.Z}
		if _, err := w.SpawnTemplate(tmpl, pos); err != nil {
			errs = append(errs, fmt.Errorf("spawn %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return NewSimulation(w, clk, sched, SimulationOptions{
		TickMs:          cfg.Simulation.TickMs,
		ThinkIntervalMs: cfg.Simulation.ThinkIntervalMs,
		RealTime:        cfg.Simulation.RealTime,
	}, observability.Named(logger, "simulation")), nil
}

// wireScripts binds the engine.* Lua functions to w. Scripts only run from
// creature hooks, so these always execute on the tick goroutine.
func wireScripts(mgr *scripting.Manager, w *creature.World, n creature.Notifier) {
	mgr.GetActor = func(id uint32) *scripting.ActorInfo {
		c, ok := w.Get(id)
		if !ok {
			return nil
		}
		info := c.Info()
		return &info
	}
	mgr.Say = func(id uint32, text string) {
		if c, ok := w.Get(id); ok {
			n.Say(c, text)
		}
	}
	mgr.ApplyCondition = func(id uint32, defID string) error {
		c, ok := w.Get(id)
		if !ok {
			return fmt.Errorf("creature %d not found", id)
		}
		def, ok := w.Conditions().Get(defID)
		if !ok {
			return fmt.Errorf("condition %q not defined", defID)
		}
		if res := c.AddCondition(def.New(0), false); res == condition.Rejected {
			return fmt.Errorf("condition %q rejected by creature %d", defID, id)
		}
		return nil
	}
}
