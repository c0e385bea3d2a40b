package creature

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Id ranges per kind, so an id alone tells what sort of creature it names.
const (
	playerIDBase  uint32 = 0x10000000
	monsterIDBase uint32 = 0x40000000
	npcIDBase     uint32 = 0x80000000
)

// Registry tracks live creatures by id.
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	creatures map[uint32]*Creature
	counter   atomic.Uint32
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{creatures: make(map[uint32]*Creature)}
}

// nextID issues an id in kind's range. Ids are never reused.
func (r *Registry) nextID(k Kind) uint32 {
	n := r.counter.Add(1)
	switch k {
	case KindPlayer:
		return playerIDBase + n
	case KindNPC:
		return npcIDBase + n
	default:
		return monsterIDBase + n
	}
}

func (r *Registry) add(c *Creature) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creatures[c.id] = c
}

// remove deletes a creature by id.
//
// Postcondition: Returns an error if the creature is not registered.
func (r *Registry) remove(id uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.creatures[id]; !ok {
		return fmt.Errorf("creature %d not found", id)
	}
	delete(r.creatures, id)
	return nil
}

// Get returns the creature with the given id.
//
// Postcondition: Returns (c, true) if registered, or (nil, false) otherwise.
func (r *Registry) Get(id uint32) (*Creature, bool) {
	if id == 0 {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.creatures[id]
	return c, ok
}

// All returns a snapshot of every registered creature ordered by id.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (r *Registry) All() []*Creature {
	r.mu.RLock()
	out := make([]*Creature, 0, len(r.creatures))
	for _, c := range r.creatures {
		out = append(out, c)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Len returns the number of registered creatures.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.creatures)
}
