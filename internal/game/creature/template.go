package creature

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/creaturesim/internal/game/combat"
	"github.com/cory-johannsen/creaturesim/internal/game/condition"
)

// Attack is a template's basic attack.
type Attack struct {
	Min        int    `yaml:"min"`
	Max        int    `yaml:"max"`
	Type       string `yaml:"type"`
	IntervalMs int64  `yaml:"interval_ms"`
	// Condition is the id of a condition definition applied on a damaging hit.
	Condition string `yaml:"condition"`

	combatType combat.CombatType
}

// Template defines a reusable monster or NPC archetype loaded from YAML.
type Template struct {
	ID                    string     `yaml:"id"`
	Name                  string     `yaml:"name"`
	Kind                  string     `yaml:"kind"` // monster | npc
	Health                int        `yaml:"health"`
	Mana                  int        `yaml:"mana"`
	Speed                 int        `yaml:"speed"`
	Defense               int        `yaml:"defense"`
	Armor                 int        `yaml:"armor"`
	Race                  string     `yaml:"race"`
	Corpse                string     `yaml:"corpse"`
	Experience            uint64     `yaml:"experience"`
	Immunities            []string   `yaml:"immunities"`
	ConditionImmunities   []string   `yaml:"condition_immunities"`
	ConditionSuppressions []string   `yaml:"condition_suppressions"`
	SeeInvisible          bool       `yaml:"see_invisible"`
	TargetDistance        int        `yaml:"target_distance"`
	FleeHealth            int        `yaml:"flee_health"`
	Attack                *Attack    `yaml:"attack"`
	Events                []string   `yaml:"events"`
	Loot                  *LootTable `yaml:"loot"`

	kind         Kind
	race         Race
	immunities   combat.CombatType
	condImmune   condition.KindSet
	condSuppress condition.KindSet
}

// Validate checks the template's invariants and resolves its named enums.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff every field is usable; all violations are
// reported together.
func (t *Template) Validate() error {
	var errs []error
	if t.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if t.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	switch strings.ToLower(t.Kind) {
	case "", "monster":
		t.kind = KindMonster
	case "npc":
		t.kind = KindNPC
	default:
		errs = append(errs, fmt.Errorf("kind %q must be monster or npc", t.Kind))
	}
	if t.Health < 1 {
		errs = append(errs, fmt.Errorf("health must be >= 1, got %d", t.Health))
	}
	if t.Mana < 0 {
		errs = append(errs, fmt.Errorf("mana must be >= 0, got %d", t.Mana))
	}
	if t.TargetDistance < 0 {
		errs = append(errs, fmt.Errorf("target_distance must be >= 0, got %d", t.TargetDistance))
	}
	r, err := ParseRace(t.Race)
	if err != nil {
		errs = append(errs, err)
	}
	t.race = r
	if t.immunities, err = combat.ParseCombatMask(t.Immunities); err != nil {
		errs = append(errs, err)
	}
	if t.condImmune, err = condition.ParseKindSet(t.ConditionImmunities); err != nil {
		errs = append(errs, err)
	}
	if t.condSuppress, err = condition.ParseKindSet(t.ConditionSuppressions); err != nil {
		errs = append(errs, err)
	}
	if a := t.Attack; a != nil {
		if a.Min < 0 || a.Min > a.Max {
			errs = append(errs, fmt.Errorf("attack damage range [%d, %d] is invalid", a.Min, a.Max))
		}
		if a.IntervalMs <= 0 {
			errs = append(errs, fmt.Errorf("attack interval_ms must be > 0, got %d", a.IntervalMs))
		}
		if a.combatType, err = combat.ParseCombatType(a.Type); err != nil {
			errs = append(errs, err)
		}
	}
	if t.Loot != nil {
		if err := t.Loot.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("creature template %q: %w", t.ID, errors.Join(errs...))
	}
	return nil
}

// Stats returns the creature stats described by t.
//
// Precondition: Validate returned nil.
func (t *Template) Stats() Stats {
	return Stats{
		Name:                  t.Name,
		Health:                t.Health,
		HealthMax:             t.Health,
		Mana:                  t.Mana,
		ManaMax:               t.Mana,
		Speed:                 t.Speed,
		Defense:               t.Defense,
		Armor:                 t.Armor,
		Race:                  t.race,
		Corpse:                t.Corpse,
		Experience:            t.Experience,
		Immunities:            t.immunities,
		ConditionImmunities:   t.condImmune,
		ConditionSuppressions: t.condSuppress,
		Loot:                  t.Loot,
	}
}

// Behavior returns a fresh behavior for one creature spawned from t.
//
// Precondition: Validate returned nil.
func (t *Template) Behavior() Behavior {
	if t.kind == KindNPC {
		return &NPC{seeInvisible: t.SeeInvisible}
	}
	return NewMonster(t)
}

// LoadTemplateFromBytes parses a single template from raw YAML bytes.
// Unknown fields are rejected.
//
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed
// templates keyed by id.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or
// validate failure; duplicate ids are an error.
func LoadTemplates(dir string) (map[string]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading template dir %q: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	templates := make(map[string]*Template, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if _, dup := templates[tmpl.ID]; dup {
			return nil, fmt.Errorf("loading %q: duplicate template id %q", path, tmpl.ID)
		}
		templates[tmpl.ID] = tmpl
	}
	return templates, nil
}
