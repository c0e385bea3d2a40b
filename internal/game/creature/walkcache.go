package creature

import (
	"github.com/cory-johannsen/creaturesim/internal/game/walkcache"
	"github.com/cory-johannsen/creaturesim/internal/game/world"
)

// walkFlags is the "can enter" query the walk cache is built from: a
// pathfinding probe that does not treat damaging fields as obstacles.
const walkFlags = world.FlagPathfinding | world.FlagIgnoreFieldDamage

// UpdateMapCache rebuilds the walk cache around the creature's position.
//
// Postcondition: Every cell has been re-probed from the map.
func (c *Creature) UpdateMapCache() {
	c.cache.Rebuild(c.pos, c.probe)
}

// MapCacheLoaded reports whether the walk cache has been built.
func (c *Creature) MapCacheLoaded() bool { return c.cache.Valid() }

// WalkCache answers whether pos is walkable from the cache. Creatures that
// do not cache, unbuilt caches and positions outside the window answer Unknown.
func (c *Creature) WalkCache(pos world.Position) walkcache.Answer {
	if !c.behavior.UsesWalkCache() || !c.cache.Valid() {
		return walkcache.Unknown
	}
	return c.cache.Lookup(pos)
}

// CanWalkTo reports whether c may step onto pos, asking the map when the
// cache cannot answer.
func (c *Creature) CanWalkTo(pos world.Position) bool {
	switch c.WalkCache(pos) {
	case walkcache.Walkable:
		return pos != c.pos
	case walkcache.Blocked:
		return false
	default:
		return c.probe(pos)
	}
}

func (c *Creature) probe(pos world.Position) bool {
	t, ok := c.world.m.Tile(pos)
	return ok && c.world.m.CanEnter(t, c, walkFlags)
}

// updateTileCache re-probes the single cell at pos when it lies on the
// cached floor.
func (c *Creature) updateTileCache(pos world.Position) {
	if !c.cache.Valid() || pos.Z != c.pos.Z {
		return
	}
	c.cache.Set(pos, c.probe(pos))
}

// OnTileChanged refreshes the cached cell after an item was added to,
// updated on, or removed from the tile at pos.
func (c *Creature) OnTileChanged(pos world.Position) {
	c.updateTileCache(pos)
}
