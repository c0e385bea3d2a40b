package tilemap_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/creaturesim/internal/game/combat"
	"github.com/cory-johannsen/creaturesim/internal/game/condition"
	"github.com/cory-johannsen/creaturesim/internal/game/tilemap"
	"github.com/cory-johannsen/creaturesim/internal/game/world"
	"github.com/cory-johannsen/creaturesim/internal/testutil"
)

func TestLoadFromBytes_Arena(t *testing.T) {
	m, err := tilemap.LoadFromBytes([]byte(testutil.ArenaMap), testutil.DefaultConditions(t), zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "arena", m.Name())
	assert.Equal(t, 20*12+5*3, m.TileCount())

	tile := func(x, y, z int) *tilemap.Tile {
		t.Helper()
		got, ok := m.Tile(world.Position{X: x, Y: y, Z: z})
		require.True(t, ok, "tile %d,%d,%d", x, y, z)
		return got.(*tilemap.Tile)
	}
	assert.True(t, tile(110, 105, 7).IsWall())
	assert.Equal(t, 150, tile(105, 105, 7).GroundSpeed())
	assert.Equal(t, 300, tile(105, 110, 7).GroundSpeed())
	assert.Equal(t, world.ZoneProtection, tile(102, 102, 7).Zone())
	assert.Equal(t, world.ZoneNormal, tile(105, 105, 7).Zone())
	assert.True(t, tile(100, 100, 8).IsWall())
	assert.False(t, tile(101, 101, 8).IsWall())

	ft, ok := tile(115, 101, 7).Field()
	require.True(t, ok)
	assert.Equal(t, combat.CombatFire, ft)
	def, ok := tile(115, 101, 7).FieldCondition()
	require.True(t, ok)
	assert.Equal(t, "burning", def.ID)

	_, ok = tile(105, 105, 7).Field()
	assert.False(t, ok)

	_, ok = m.Tile(world.Position{X: 99, Y: 99, Z: 7})
	assert.False(t, ok)
	_, ok = m.Tile(world.Position{X: 110, Y: 110, Z: 8})
	assert.False(t, ok)
}

func TestLoadFromBytes_SpacesHaveNoTile(t *testing.T) {
	m, err := tilemap.LoadFromBytes([]byte(`
name: islands
origin: {x: 0, y: 0}
legend:
  ".": {}
floors:
  - z: 7
    rows:
      - ". ."
`), condition.NewRegistry(), zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, 2, m.TileCount())
	_, ok := m.Tile(world.Position{X: 1, Y: 0, Z: 7})
	assert.False(t, ok)
	got, ok := m.Tile(world.Position{X: 2, Y: 0, Z: 7})
	require.True(t, ok)
	assert.Equal(t, world.DefaultGroundSpeed, got.GroundSpeed())
}

func TestLoadFromBytes_ReportsEveryProblem(t *testing.T) {
	_, err := tilemap.LoadFromBytes([]byte(`
name: broken
legend:
  ".": {}
  "ab": {}
  "Z":
    zone: lava
  "F":
    field: meteor
  "H":
    field: haste
floors:
  - z: 7
    rows:
      - ".?"
  - z: 7
    rows:
      - "."
  - z: 16
    rows:
      - "."
`), testutil.DefaultConditions(t), zaptest.NewLogger(t))
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{
		`map "broken"`,
		`legend key "ab" must be a single non-space character`,
		`unknown zone "lava"`,
		`unknown field condition "meteor"`,
		`field condition "haste" is not a damage condition`,
		`unknown symbol '?'`,
		"duplicate tile at",
		"floor z 16 out of range",
	} {
		assert.Contains(t, msg, want)
	}
}

func TestLoadFromBytes_RequiresNameAndFloors(t *testing.T) {
	_, err := tilemap.LoadFromBytes([]byte("legend: {}\n"), condition.NewRegistry(), zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name must not be empty")
	assert.Contains(t, err.Error(), "at least one floor is required")
}

func TestLoadFromBytes_RejectsUnknownFields(t *testing.T) {
	_, err := tilemap.LoadFromBytes([]byte("name: x\nweather: rain\n"), condition.NewRegistry(), zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weather")
}

func TestLoadFromFile_Meadow(t *testing.T) {
	m, err := tilemap.LoadFromFile("../../../content/maps/meadow.yaml", testutil.DefaultConditions(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "meadow", m.Name())
	assert.Positive(t, m.TileCount())
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := tilemap.LoadFromFile(filepath.Join(t.TempDir(), "none.yaml"), condition.NewRegistry(), zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading map file")
}
