package tilemap

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/creaturesim/internal/game/condition"
	"github.com/cory-johannsen/creaturesim/internal/game/world"
)

// yamlMap is the top-level YAML structure of a map file.
type yamlMap struct {
	Name          string                `yaml:"name"`
	Origin        yamlPoint             `yaml:"origin"`
	DefaultGround int                   `yaml:"default_ground"`
	BlockingItems []string              `yaml:"blocking_items"`
	Legend        map[string]yamlSymbol `yaml:"legend"`
	Floors        []yamlFloor           `yaml:"floors"`
}

type yamlPoint struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// yamlSymbol describes the tile a legend character stands for.
type yamlSymbol struct {
	Ground int    `yaml:"ground"`
	Wall   bool   `yaml:"wall"`
	Zone   string `yaml:"zone"`
	Field  string `yaml:"field"`
}

type yamlFloor struct {
	Z    int      `yaml:"z"`
	Rows []string `yaml:"rows"`
}

var zoneNames = map[string]world.Zone{
	"":           world.ZoneNormal,
	"normal":     world.ZoneNormal,
	"protection": world.ZoneProtection,
	"nopvp":      world.ZoneNoPvP,
	"pvp":        world.ZonePvP,
}

// LoadFromFile reads and validates a map YAML file.
//
// Precondition: conds holds every condition a field symbol references.
// Postcondition: Returns a Map or a non-nil error.
func LoadFromFile(path string, conds *condition.Registry, logger *zap.Logger) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading map file %s: %w", path, err)
	}
	m, err := LoadFromBytes(data, conds, logger)
	if err != nil {
		return nil, fmt.Errorf("loading map file %s: %w", path, err)
	}
	return m, nil
}

// LoadFromBytes parses and validates a map from YAML bytes. A space in a
// row is a cell without a tile.
//
// Postcondition: Returns a Map or an error listing every problem found.
func LoadFromBytes(data []byte, conds *condition.Registry, logger *zap.Logger) (*Map, error) {
	var ym yamlMap
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&ym); err != nil {
		return nil, fmt.Errorf("parsing map YAML: %w", err)
	}

	var errs []error
	if ym.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if len(ym.Floors) == 0 {
		errs = append(errs, errors.New("at least one floor is required"))
	}
	ground := ym.DefaultGround
	if ground <= 0 {
		ground = world.DefaultGroundSpeed
	}

	symbols := make(map[rune]*Tile, len(ym.Legend))
	keys := make([]string, 0, len(ym.Legend))
	for k := range ym.Legend {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		proto, err := resolveSymbol(k, ym.Legend[k], ground, conds)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		symbols[[]rune(k)[0]] = proto
	}

	m := newMap(ym.Name, logger)
	for _, it := range ym.BlockingItems {
		m.blocking[it] = true
	}
	for _, f := range ym.Floors {
		if f.Z < 0 || f.Z > 15 {
			errs = append(errs, fmt.Errorf("floor z %d out of range [0, 15]", f.Z))
			continue
		}
		for row, line := range f.Rows {
			for col, r := range []rune(line) {
				if r == ' ' {
					continue
				}
				proto, ok := symbols[r]
				if !ok {
					errs = append(errs, fmt.Errorf("floor %d row %d col %d: unknown symbol %q", f.Z, row, col, r))
					continue
				}
				pos := world.Position{X: ym.Origin.X + col, Y: ym.Origin.Y + row, Z: f.Z}
				if _, dup := m.tiles[pos]; dup {
					errs = append(errs, fmt.Errorf("duplicate tile at %s", pos))
					continue
				}
				t := *proto
				t.pos = pos
				m.tiles[pos] = &t
			}
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("map %q: %w", ym.Name, errors.Join(errs...))
	}
	logger.Info("map loaded", zap.String("map", ym.Name), zap.Int("tiles", len(m.tiles)))
	return m, nil
}

func resolveSymbol(key string, s yamlSymbol, defaultGround int, conds *condition.Registry) (*Tile, error) {
	if len([]rune(key)) != 1 || key == " " {
		return nil, fmt.Errorf("legend key %q must be a single non-space character", key)
	}
	zone, ok := zoneNames[s.Zone]
	if !ok {
		return nil, fmt.Errorf("legend %q: unknown zone %q", key, s.Zone)
	}
	t := &Tile{ground: s.Ground, wall: s.Wall, zone: zone}
	if t.ground <= 0 {
		t.ground = defaultGround
	}
	if s.Field != "" {
		def, ok := conds.Get(s.Field)
		if !ok {
			return nil, fmt.Errorf("legend %q: unknown field condition %q", key, s.Field)
		}
		if def.ResolvedKind().Category() != condition.CategoryDamage {
			return nil, fmt.Errorf("legend %q: field condition %q is not a damage condition", key, s.Field)
		}
		t.field = def
	}
	return t, nil
}
