package condition

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Def is the static definition of a condition, loaded from YAML. Creature
// templates reference a Def by ID for on-hit effects; field tiles reference
// one for the condition applied when a creature steps on them.
type Def struct {
	ID             string `yaml:"id"`
	Name           string `yaml:"name"`
	Kind           string `yaml:"kind"`
	Source         string `yaml:"source"`
	SubID          uint32 `yaml:"sub_id"`
	DurationMs     int64  `yaml:"duration_ms"` // 0 = indefinite
	Rounds         int    `yaml:"rounds"`
	TickDamage     int    `yaml:"tick_damage"`
	TickIntervalMs int64  `yaml:"tick_interval_ms"`
	SpeedDelta     int    `yaml:"speed_delta"`
	HealthGain     int    `yaml:"health_gain"`

	kind   Kind
	source Source
}

// Validate resolves the kind and source names and checks kind-specific payload.
//
// Postcondition: Returns nil iff New may be called on d.
func (d *Def) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	k, err := ParseKind(d.Kind)
	if err != nil {
		errs = append(errs, err)
	}
	s, err := ParseSource(d.Source)
	if err != nil {
		errs = append(errs, err)
	}
	if d.DurationMs < 0 {
		errs = append(errs, fmt.Errorf("duration_ms must be >= 0, got %d", d.DurationMs))
	}
	switch k.Category() {
	case CategoryDamage:
		if d.Rounds <= 0 || d.TickDamage <= 0 || d.TickIntervalMs <= 0 {
			errs = append(errs, fmt.Errorf("%s needs positive rounds, tick_damage and tick_interval_ms", k))
		}
	case CategorySpeed:
		if d.SpeedDelta == 0 {
			errs = append(errs, fmt.Errorf("%s needs a non-zero speed_delta", k))
		}
	case CategoryRegeneration:
		if d.TickIntervalMs <= 0 {
			errs = append(errs, fmt.Errorf("%s needs a positive tick_interval_ms", k))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("condition %q: %w", d.ID, errors.Join(errs...))
	}
	d.kind, d.source = k, s
	return nil
}

// ResolvedKind returns the kind parsed by Validate.
func (d *Def) ResolvedKind() Kind { return d.kind }

// New creates a fresh Condition instance applied by owner.
//
// Precondition: Validate returned nil.
func (d *Def) New(owner uint32) *Condition {
	return &Condition{
		Kind:         d.kind,
		Source:       d.source,
		SubID:        d.SubID,
		Owner:        owner,
		Duration:     d.DurationMs,
		Rounds:       d.Rounds,
		TickDamage:   d.TickDamage,
		TickInterval: d.TickIntervalMs,
		SpeedDelta:   d.SpeedDelta,
		HealthGain:   d.HealthGain,
	}
}

// Registry holds all known Defs keyed by ID.
type Registry struct {
	defs map[string]*Def
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Def)}
}

// Register validates def and adds it, overwriting any existing entry with the same ID.
//
// Precondition: def must not be nil.
func (r *Registry) Register(def *Def) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.defs[def.ID] = def
	return nil
}

// Get returns the Def for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Def, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns a snapshot slice of all registered Defs.
func (r *Registry) All() []*Def {
	out := make([]*Def, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	return out
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Def,
// and returns a populated Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading condition dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Def
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := reg.Register(&def); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return reg, nil
}
