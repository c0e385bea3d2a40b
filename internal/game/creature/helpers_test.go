package creature_test

import (
	"testing"

	"github.com/cory-johannsen/creaturesim/internal/game/creature"
	"github.com/cory-johannsen/creaturesim/internal/game/tilemap"
	"github.com/cory-johannsen/creaturesim/internal/game/world"
	"github.com/cory-johannsen/creaturesim/internal/testutil"
)

// spawnMonster places a plain monster worth exp experience.
func spawnMonster(t *testing.T, h *testutil.Harness, name string, health int, exp uint64, pos world.Position) *creature.Creature {
	t.Helper()
	return h.SpawnStats(t, creature.BaseBehavior{}, creature.Stats{
		Name:       name,
		Health:     health,
		HealthMax:  health,
		Speed:      200,
		Race:       creature.RaceBlood,
		Experience: exp,
	}, pos)
}

func player(t *testing.T, c *creature.Creature) *creature.Player {
	t.Helper()
	p, ok := c.Behavior().(*creature.Player)
	if !ok {
		t.Fatalf("creature %d is not a player", c.ID())
	}
	return p
}

// callsBy returns the invocations of event made for creature id.
func callsBy(h *testutil.Hooks, event string, id uint32) []testutil.HookCall {
	var out []testutil.HookCall
	for _, c := range h.Calls(event) {
		if c.Self.ID == id {
			out = append(out, c)
		}
	}
	return out
}

// tileItems returns the items lying at pos.
func tileItems(t *testing.T, h *testutil.Harness, pos world.Position) []*world.Item {
	t.Helper()
	tile, ok := h.Map.Tile(pos)
	if !ok {
		t.Fatalf("no tile at %s", pos)
	}
	return tile.(*tilemap.Tile).Items()
}
