package tilemap

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturesim/internal/game/creature"
	"github.com/cory-johannsen/creaturesim/internal/game/world"
)

// Effect is a magic effect shown on a tile.
type Effect struct {
	Pos    world.Position
	Effect world.MagicEffect
}

// Map is an in-memory tile grid. It implements creature.Map.
//
// Invariant: every placed creature id appears in exactly one occupants slice.
type Map struct {
	mu        sync.RWMutex
	name      string
	tiles     map[world.Position]*Tile
	blocking  map[string]bool
	occupants map[world.Position][]uint32
	where     map[uint32]world.Position
	effects   []Effect
	lookups   atomic.Int64
	logger    *zap.Logger
}

func newMap(name string, logger *zap.Logger) *Map {
	return &Map{
		name:      name,
		tiles:     make(map[world.Position]*Tile),
		blocking:  make(map[string]bool),
		occupants: make(map[world.Position][]uint32),
		where:     make(map[uint32]world.Position),
		logger:    logger,
	}
}

// Name returns the map name.
func (m *Map) Name() string { return m.name }

// TileCount returns the number of tiles.
func (m *Map) TileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tiles)
}

// Tile implements creature.Map. Every call is counted; see Lookups.
func (m *Map) Tile(pos world.Position) (world.Tile, bool) {
	m.lookups.Add(1)
	t, ok := m.tile(pos)
	if !ok {
		return nil, false
	}
	return t, true
}

func (m *Map) tile(pos world.Position) (*Tile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tiles[pos]
	return t, ok
}

// Lookups returns how many times Tile was called since the last ResetLookups.
func (m *Map) Lookups() int64 { return m.lookups.Load() }

// ResetLookups zeroes the Tile call counter.
func (m *Map) ResetLookups() { m.lookups.Store(0) }

// CanEnter implements creature.Map. Walls and blocking items never admit a
// creature; other creatures block unless FlagIgnoreCreatures is set; damage
// fields block unless FlagIgnoreFieldDamage is set.
func (m *Map) CanEnter(t world.Tile, c *creature.Creature, flags world.MoveFlags) bool {
	tt, ok := t.(*Tile)
	if !ok || tt.wall {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, it := range tt.items {
		if m.blocking[it.TypeID] {
			return false
		}
	}
	if !flags.Has(world.FlagIgnoreCreatures) {
		for _, id := range m.occupants[tt.pos] {
			if id != c.ID() {
				return false
			}
		}
	}
	if tt.field != nil && !flags.Has(world.FlagIgnoreFieldDamage) {
		return false
	}
	return true
}

// Place implements creature.Map.
func (m *Map) Place(c *creature.Creature, pos world.Position, flags world.MoveFlags) error {
	t, ok := m.tile(pos)
	if !ok {
		return world.ErrNoTile
	}
	m.mu.RLock()
	occupied := false
	for _, id := range m.occupants[pos] {
		if id != c.ID() {
			occupied = true
			break
		}
	}
	m.mu.RUnlock()
	if occupied && !flags.Has(world.FlagIgnoreCreatures) {
		return world.ErrTileOccupied
	}
	if !m.CanEnter(t, c, flags|world.FlagIgnoreCreatures) {
		return world.ErrNotPossible
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.vacate(c.ID())
	m.occupants[pos] = append(m.occupants[pos], c.ID())
	m.where[c.ID()] = pos
	return nil
}

// Lift implements creature.Map.
func (m *Map) Lift(c *creature.Creature) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vacate(c.ID())
}

// vacate removes id from its tile. Callers hold mu.
func (m *Map) vacate(id uint32) {
	pos, ok := m.where[id]
	if !ok {
		return
	}
	ids := m.occupants[pos]
	for i, o := range ids {
		if o == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(m.occupants, pos)
	} else {
		m.occupants[pos] = ids
	}
	delete(m.where, id)
}

// Occupants returns the ids of the creatures standing at pos.
func (m *Map) Occupants(pos world.Position) []uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]uint32(nil), m.occupants[pos]...)
}

// StepIn implements creature.Map. A field tile applies its condition with
// no owner.
func (m *Map) StepIn(c *creature.Creature, t world.Tile) {
	tt, ok := t.(*Tile)
	if !ok || tt.field == nil {
		return
	}
	res := c.AddCondition(tt.field.New(0), false)
	m.logger.Debug("field stepped on",
		zap.Uint32("creature", c.ID()),
		zap.String("field", tt.field.ID),
		zap.Stringer("pos", tt.pos),
		zap.Stringer("result", res),
	)
}

// AddItem implements creature.Map.
func (m *Map) AddItem(pos world.Position, it *world.Item) error {
	t, ok := m.tile(pos)
	if !ok {
		return world.ErrNoTile
	}
	m.mu.Lock()
	t.items = append(t.items, it)
	m.mu.Unlock()
	return nil
}

// RemoveItem takes the item with instanceID off the tile at pos.
//
// Postcondition: Returns false when no such item lies there.
func (m *Map) RemoveItem(pos world.Position, instanceID string) bool {
	t, ok := m.tile(pos)
	if !ok {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range t.items {
		if it.InstanceID == instanceID {
			t.items = append(t.items[:i], t.items[i+1:]...)
			return true
		}
	}
	return false
}

// AddEffect implements creature.Map. Effects are recorded for inspection.
func (m *Map) AddEffect(pos world.Position, e world.MagicEffect) {
	m.mu.Lock()
	m.effects = append(m.effects, Effect{Pos: pos, Effect: e})
	m.mu.Unlock()
}

// Effects returns the effects shown so far, oldest first.
func (m *Map) Effects() []Effect {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Effect(nil), m.effects...)
}

// SetWall turns the tile at pos into a wall or back into ground. Callers
// must tell the creature world about the change.
func (m *Map) SetWall(pos world.Position, wall bool) bool {
	t, ok := m.tile(pos)
	if !ok {
		return false
	}
	m.mu.Lock()
	t.wall = wall
	m.mu.Unlock()
	return true
}
