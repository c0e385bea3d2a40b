package world

import (
	"errors"

	"github.com/google/uuid"

	"github.com/cory-johannsen/creaturesim/internal/game/combat"
)

// Zone classifies the rules that apply on a tile.
type Zone int

const (
	ZoneNormal Zone = iota
	ZoneProtection
	ZoneNoPvP
	ZonePvP
)

// String returns the zone name.
func (z Zone) String() string {
	switch z {
	case ZoneProtection:
		return "protection"
	case ZoneNoPvP:
		return "nopvp"
	case ZonePvP:
		return "pvp"
	default:
		return "normal"
	}
}

// MoveFlags modify the "can this creature enter" predicate.
type MoveFlags uint32

const (
	// FlagPathfinding marks a query issued while computing a path.
	FlagPathfinding MoveFlags = 1 << iota
	// FlagIgnoreFieldDamage allows entering tiles covered by a damaging field.
	FlagIgnoreFieldDamage
	// FlagIgnoreCreatures treats tiles occupied by other creatures as free.
	FlagIgnoreCreatures
)

// Has reports whether every bit in f is set.
func (m MoveFlags) Has(f MoveFlags) bool { return m&f == f }

// DefaultGroundSpeed is used when a tile has no ground or its ground has no speed.
const DefaultGroundSpeed = 150

// Tile is the read-only view of a map tile consumed by the simulation.
type Tile interface {
	Position() Position
	// GroundSpeed returns the ground material speed, or 0 when undefined.
	GroundSpeed() int
	Zone() Zone
	// Field returns the damage kind of the active area-damage field, if any.
	Field() (combat.CombatType, bool)
}

// FindPathParams configures one request to the external pathfinder.
type FindPathParams struct {
	FullPathSearch bool
	ClearSight     bool
	MaxSearchDist  int
	MinTargetDist  int
	MaxTargetDist  int
}

// Movement service failures.
var (
	ErrNotPossible  = errors.New("move not possible")
	ErrNoTile       = errors.New("destination has no tile")
	ErrTileOccupied = errors.New("destination is occupied")
)

// MagicEffect is a cosmetic effect shown on a tile.
type MagicEffect int

const (
	EffectNone MagicEffect = iota
	// EffectPoff is shown when a loot-less creature vanishes instead of leaving a corpse.
	EffectPoff
	EffectBlockHit
)

// Fluid is the liquid kind of a splash item.
type Fluid int

const (
	FluidNone Fluid = iota
	FluidBlood
	FluidGreen
)

// Item is a minimal item instance: corpses, fluid splashes and loot.
type Item struct {
	TypeID     string
	InstanceID string
	Quantity   int
	Fluid      Fluid
	Contents   []*Item
}

// NewItem creates an item of typeID with a fresh instance id and quantity 1.
//
// Postcondition: InstanceID is a non-empty UUID string.
func NewItem(typeID string) *Item {
	return &Item{TypeID: typeID, InstanceID: uuid.New().String(), Quantity: 1}
}

// NewSplash creates a fluid splash item.
func NewSplash(f Fluid) *Item {
	it := NewItem("splash")
	it.Fluid = f
	return it
}
