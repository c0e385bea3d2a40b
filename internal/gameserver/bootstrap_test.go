package gameserver_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/creaturesim/internal/config"
	"github.com/cory-johannsen/creaturesim/internal/game/condition"
	"github.com/cory-johannsen/creaturesim/internal/game/creature"
	"github.com/cory-johannsen/creaturesim/internal/game/dice"
	"github.com/cory-johannsen/creaturesim/internal/gameserver"
)

const contentRoot = "../../content"

// testConfig returns the default configuration pointed at the repository content.
func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.LoadFromViper(config.Defaults())
	require.NoError(t, err)
	cfg.Simulation.RealTime = false
	cfg.Content.MapFile = filepath.Join(contentRoot, "maps", "meadow.yaml")
	cfg.Content.TemplatesDir = filepath.Join(contentRoot, "templates")
	cfg.Content.ConditionsDir = filepath.Join(contentRoot, "conditions")
	cfg.Content.EventsFile = filepath.Join(contentRoot, "events.yaml")
	cfg.Content.ScriptRoot = filepath.Join(contentRoot, "scripts")
	cfg.Content.Spawns = []config.SpawnConfig{
		{Template: "wolf", X: 110, Y: 102, Z: 7},
		{Template: "wolf", X: 112, Y: 108, Z: 7},
		{Template: "cave_spider", X: 104, Y: 108, Z: 7},
		{Template: "skeleton_archer", X: 125, Y: 111, Z: 7},
		{Template: "ferryman", X: 103, Y: 102, Z: 7},
	}
	return cfg
}

func testRoller(t *testing.T, logger *zap.Logger) *dice.Roller {
	t.Helper()
	return dice.NewLoggedRoller(dice.NewFixedSource(0), logger)
}

func loadContent(t *testing.T, cfg config.Config, logger *zap.Logger) *gameserver.Content {
	t.Helper()
	content, err := gameserver.LoadContent(cfg.Content, testRoller(t, logger), logger)
	require.NoError(t, err)
	t.Cleanup(content.Close)
	return content
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestLoadContent_Repository(t *testing.T) {
	cfg := testConfig(t)
	content := loadContent(t, cfg, zap.NewNop())

	assert.Len(t, content.Templates, 4)
	assert.Equal(t, "meadow", content.Map.Name())
	_, ok := content.Conditions.Get("poison_bite")
	assert.True(t, ok)
	require.NotNil(t, content.Events)
	require.NotNil(t, content.Scripts)
	assert.True(t, content.Scripts.Has("creatures"))
}

func TestLoadContent_WithoutScripts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Content.ScriptRoot = ""
	content := loadContent(t, cfg, zap.NewNop())

	assert.Nil(t, content.Events)
	assert.Nil(t, content.Scripts)
}

func TestLoadContent_CrossChecksReferences(t *testing.T) {
	t.Run("unknown attack condition", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Content.ScriptRoot = ""
		cfg.Content.TemplatesDir = t.TempDir()
		writeFile(t, filepath.Join(cfg.Content.TemplatesDir, "rat.yaml"), `
id: rat
name: Rat
health: 5
attack: {min: 0, max: 2, type: physical, interval_ms: 2000, condition: frostbite}
`)
		_, err := gameserver.LoadContent(cfg.Content, testRoller(t, zap.NewNop()), zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), `template "rat": unknown attack condition "frostbite"`)
	})

	t.Run("unknown event", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Content.TemplatesDir = t.TempDir()
		writeFile(t, filepath.Join(cfg.Content.TemplatesDir, "rat.yaml"), "id: rat\nname: Rat\nhealth: 5\nevents: [squeak]\n")
		_, err := gameserver.LoadContent(cfg.Content, testRoller(t, zap.NewNop()), zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), `template "rat": unknown event "squeak"`)
	})

	t.Run("unloaded script set", func(t *testing.T) {
		cfg := testConfig(t)
		dir := t.TempDir()
		cfg.Content.TemplatesDir = filepath.Join(dir, "templates")
		cfg.Content.EventsFile = filepath.Join(dir, "events.yaml")
		writeFile(t, filepath.Join(cfg.Content.TemplatesDir, "rat.yaml"), "id: rat\nname: Rat\nhealth: 5\nevents: [squeak]\n")
		writeFile(t, cfg.Content.EventsFile, `
events:
  - name: squeak
    kind: think
    script: rodents
    function: squeak
`)
		_, err := gameserver.LoadContent(cfg.Content, testRoller(t, zap.NewNop()), zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), `event "squeak" uses unloaded script set "rodents"`)
	})

	t.Run("missing map", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Content.MapFile = filepath.Join(t.TempDir(), "none.yaml")
		_, err := gameserver.LoadContent(cfg.Content, testRoller(t, zap.NewNop()), zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading map")
	})
}

func TestTuningFrom_DefaultsMatchCreatureDefaults(t *testing.T) {
	cfg, err := config.LoadFromViper(config.Defaults())
	require.NoError(t, err)

	assert.Equal(t, creature.DefaultTuning(), gameserver.TuningFrom(cfg.Simulation))
}

func TestBuild_PlacesSpawnsAndRunsScripts(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	cfg := testConfig(t)
	content := loadContent(t, cfg, logger)

	sim, err := gameserver.Build(cfg, content, 1_000_000, testRoller(t, logger), logger)
	require.NoError(t, err)
	require.Equal(t, 5, sim.World().Len())
	assert.Equal(t, int64(1_000_000), sim.Clock().NowMs())

	sim.Advance(cfg.Simulation.ThinkIntervalMs)

	howls := logs.FilterMessage("creature says").FilterField(zap.String("text", "Yoooohhuuuu!"))
	assert.Equal(t, 2, howls.Len(), "each wolf howls on a low roll")
}

func TestBuild_ReportsEveryBadSpawn(t *testing.T) {
	cfg := testConfig(t)
	cfg.Content.Spawns = []config.SpawnConfig{
		{Template: "wolf", X: 110, Y: 102, Z: 7},
		{Template: "dragon", X: 111, Y: 102, Z: 7},
		{Template: "wolf", X: 100, Y: 100, Z: 7},
	}
	content := loadContent(t, cfg, zap.NewNop())

	_, err := gameserver.Build(cfg, content, 1_000_000, testRoller(t, zap.NewNop()), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `spawn 1: unknown template "dragon"`)
	assert.Contains(t, err.Error(), "spawn 2:")
}

func TestBuild_EngineFunctionsReachTheWorld(t *testing.T) {
	cfg := testConfig(t)
	cfg.Content.Spawns = cfg.Content.Spawns[:1]
	content := loadContent(t, cfg, zap.NewNop())
	sim, err := gameserver.Build(cfg, content, 1_000_000, testRoller(t, zap.NewNop()), zap.NewNop())
	require.NoError(t, err)
	wolf := sim.World().All()[0]

	require.NoError(t, content.Scripts.LoadString("probe", `
function name_of(id)
    local a = engine.actor(id)
    if a == nil then return "" end
    return a.name
end
function hasten(id) return engine.add_condition(id, "haste") end
`, 0))

	got, err := content.Scripts.Call("probe", "name_of", lua.LNumber(wolf.ID()))
	require.NoError(t, err)
	assert.Equal(t, lua.LString("Wolf"), got)

	got, err = content.Scripts.Call("probe", "name_of", lua.LNumber(12345))
	require.NoError(t, err)
	assert.Equal(t, lua.LString(""), got)

	got, err = content.Scripts.Call("probe", "hasten", lua.LNumber(wolf.ID()))
	require.NoError(t, err)
	assert.Equal(t, lua.LTrue, got)
	assert.True(t, wolf.HasCondition(condition.Haste))

	got, err = content.Scripts.Call("probe", "hasten", lua.LNumber(12345))
	require.NoError(t, err)
	assert.Equal(t, lua.LFalse, got)
}
