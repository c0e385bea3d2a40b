// Package tilemap is a YAML-defined grid map providing tile lookup,
// occupancy, pathfinding and line of sight to the creature simulation.
package tilemap

import (
	"github.com/cory-johannsen/creaturesim/internal/game/combat"
	"github.com/cory-johannsen/creaturesim/internal/game/condition"
	"github.com/cory-johannsen/creaturesim/internal/game/world"
)

// Tile is one map cell. It implements world.Tile.
type Tile struct {
	pos    world.Position
	ground int
	wall   bool
	zone   world.Zone
	field  *condition.Def
	items  []*world.Item
}

// Position implements world.Tile.
func (t *Tile) Position() world.Position { return t.pos }

// GroundSpeed implements world.Tile.
func (t *Tile) GroundSpeed() int { return t.ground }

// Zone implements world.Tile.
func (t *Tile) Zone() world.Zone { return t.zone }

// Field implements world.Tile.
func (t *Tile) Field() (combat.CombatType, bool) {
	if t.field == nil {
		return combat.CombatNone, false
	}
	return t.field.ResolvedKind().DamageType(), true
}

// FieldCondition returns the definition of the condition applied on
// stepping in, if the tile carries a field.
func (t *Tile) FieldCondition() (*condition.Def, bool) {
	return t.field, t.field != nil
}

// IsWall reports whether the tile blocks movement and sight.
func (t *Tile) IsWall() bool { return t.wall }

// Items returns the items lying on the tile, bottom first.
func (t *Tile) Items() []*world.Item {
	return append([]*world.Item(nil), t.items...)
}
