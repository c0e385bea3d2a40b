package tilemap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/creaturesim/internal/game/world"
	"github.com/cory-johannsen/creaturesim/internal/testutil"
)

// walk applies dirs from start, failing on any step through a wall.
func walk(t *testing.T, h *testutil.Harness, start world.Position, dirs []world.Direction) world.Position {
	t.Helper()
	pos := start
	for _, d := range dirs {
		pos = pos.Step(d)
		tile := mustTile(t, h.Map, pos)
		require.False(t, tile.(interface{ IsWall() bool }).IsWall(), "path crosses a wall at %s", pos)
	}
	return pos
}

func TestFindPath_RoutesAroundWalls(t *testing.T) {
	h := testutil.NewHarness(t)
	alice := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(108, 105))
	target := testutil.Pos(112, 105)

	dirs, ok := h.Map.FindPath(alice, target, world.FindPathParams{
		FullPathSearch: true,
		MaxSearchDist:  12,
		MinTargetDist:  1,
		MaxTargetDist:  1,
	})
	require.True(t, ok)

	assert.Len(t, dirs, 4, "three steps east plus one to clear the pillar")
	for _, d := range dirs {
		assert.False(t, d.IsDiagonal(), "diagonals cost more than two straight steps")
	}
	assert.Equal(t, 1, walk(t, h, alice.Position(), dirs).Distance(target))
}

func TestFindPath_KeepsDistance(t *testing.T) {
	h := testutil.NewHarness(t)
	archer := h.SpawnPlayer(t, "Archer", 100, testutil.Pos(107, 107))
	target := testutil.Pos(105, 107)

	dirs, ok := h.Map.FindPath(archer, target, world.FindPathParams{
		ClearSight:    true,
		MaxSearchDist: 12,
		MinTargetDist: 1,
		MaxTargetDist: 4,
	})
	require.True(t, ok)

	end := walk(t, h, archer.Position(), dirs)
	assert.Equal(t, 4, end.Distance(target))
	assert.Len(t, dirs, 2)
	assert.GreaterOrEqual(t, end.X, target.X, "an incremental search stays on the start's side")
}

func TestFindPath_StandingAtTheRightDistanceNeedsNoSteps(t *testing.T) {
	h := testutil.NewHarness(t)
	alice := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(106, 105))

	dirs, ok := h.Map.FindPath(alice, testutil.Pos(105, 105), world.FindPathParams{
		MaxSearchDist: 12,
		MinTargetDist: 1,
		MaxTargetDist: 1,
	})
	require.True(t, ok)
	assert.Empty(t, dirs)
}

func TestFindPath_Unreachable(t *testing.T) {
	h := testutil.NewHarness(t)
	alice := h.SpawnPlayer(t, "Alice", 100, testutil.Pos(105, 105))

	t.Run("another floor", func(t *testing.T) {
		_, ok := h.Map.FindPath(alice, world.Position{X: 102, Y: 101, Z: 8}, world.FindPathParams{MaxSearchDist: 12, MaxTargetDist: 1})
		assert.False(t, ok)
	})

	t.Run("beyond search distance", func(t *testing.T) {
		_, ok := h.Map.FindPath(alice, testutil.Pos(117, 109), world.FindPathParams{
			FullPathSearch: true,
			MaxSearchDist:  3,
			MinTargetDist:  1,
			MaxTargetDist:  1,
		})
		assert.False(t, ok)
	})

	t.Run("target walled in", func(t *testing.T) {
		require.True(t, h.Map.SetWall(testutil.Pos(113, 106), true))
		for _, p := range []world.Position{
			testutil.Pos(112, 105), testutil.Pos(113, 105), testutil.Pos(114, 105),
			testutil.Pos(112, 106), testutil.Pos(114, 106),
			testutil.Pos(112, 107), testutil.Pos(113, 107), testutil.Pos(114, 107),
		} {
			require.True(t, h.Map.SetWall(p, true))
		}
		_, ok := h.Map.FindPath(alice, testutil.Pos(113, 106), world.FindPathParams{
			FullPathSearch: true,
			MaxSearchDist:  12,
			MinTargetDist:  1,
			MaxTargetDist:  1,
		})
		assert.False(t, ok)
	})
}

func TestIsSightClear(t *testing.T) {
	h := testutil.NewHarness(t)
	m := h.Map

	assert.False(t, m.IsSightClear(testutil.Pos(108, 105), testutil.Pos(112, 105), true), "pillar in between")
	assert.False(t, m.IsSightClear(testutil.Pos(109, 104), testutil.Pos(111, 106), true))
	assert.True(t, m.IsSightClear(testutil.Pos(108, 104), testutil.Pos(112, 104), true))
	assert.True(t, m.IsSightClear(testutil.Pos(109, 105), testutil.Pos(110, 105), true), "the end tiles never block")
	assert.True(t, m.IsSightClear(testutil.Pos(105, 105), testutil.Pos(105, 105), true))

	up := world.Position{X: 105, Y: 105, Z: 8}
	assert.False(t, m.IsSightClear(testutil.Pos(105, 105), up, true))
	assert.True(t, m.IsSightClear(testutil.Pos(105, 105), up, false))
	assert.False(t, m.IsSightClear(testutil.Pos(105, 105), world.Position{X: 108, Y: 105, Z: 8}, false))
}
