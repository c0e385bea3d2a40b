package scripting_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/creaturesim/internal/game/dice"
	"github.com/cory-johannsen/creaturesim/internal/scripting"
)

func newTestManager(t testing.TB) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	roller := dice.NewLoggedRoller(dice.NewFixedSource(0), logger)
	return scripting.NewManager(roller, logger), logs
}

func writeTempLua(t testing.TB, filename, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(src), 0644))
	return dir
}

func hasLevel(logs *observer.ObservedLogs, lvl zapcore.Level) bool {
	for _, e := range logs.All() {
		if e.Level == lvl {
			return true
		}
	}
	return false
}

func TestManager_Load_CallsFunction(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "hooks.lua", `
		function add(a, b)
			return a + b
		end
	`)
	require.NoError(t, mgr.Load("creatures", dir, 0))
	assert.True(t, mgr.Has("creatures"))
	ret, err := mgr.Call("creatures", "add", lua.LNumber(3), lua.LNumber(4))
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(7), ret)
}

func TestManager_Call_MissingFunction_NoOp(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("creatures", `-- no functions`, 0))
	ret, err := mgr.Call("creatures", "nonexistent")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_Call_UnknownKey_LogsInfoReturnsNil(t *testing.T) {
	mgr, logs := newTestManager(t)
	ret, err := mgr.Call("no_such_set", "fn")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.True(t, hasLevel(logs, zap.InfoLevel), "expected Info log for missing VM")
}

func TestManager_Call_RuntimeError_WarnLogNoPanic(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.LoadString("creatures", `
		function bad()
			error("intentional error")
		end
	`, 0))
	ret, err := mgr.Call("creatures", "bad")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.True(t, hasLevel(logs, zap.WarnLevel), "expected Warn log for Lua runtime error")
}

func TestManager_Call_BudgetIsPerCall(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.LoadString("creatures", `
		function spin() while true do end end
		function small() local x = 0 for i = 1, 10 do x = x + i end return x end
	`, 500))

	for i := 0; i < 3; i++ {
		ret, err := mgr.Call("creatures", "small")
		require.NoError(t, err)
		assert.Equal(t, lua.LNumber(55), ret, "call %d has a fresh budget", i)
	}

	ret, err := mgr.Call("creatures", "spin")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.True(t, hasLevel(logs, zap.WarnLevel))

	ret, err = mgr.Call("creatures", "small")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(55), ret, "VM remains usable after an exhausted budget")
}

func TestManager_Load_EmptyDir_NoError(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Load("empty", t.TempDir(), 0))
	ret, err := mgr.Call("empty", "anything")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_Load_InvalidLua_ReturnsError(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "bad.lua", `this is not valid lua @@@@`)
	assert.Error(t, mgr.Load("bad", dir, 0))
	assert.False(t, mgr.Has("bad"))
}

func TestManager_Load_MissingDir_ReturnsError(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.Error(t, mgr.Load("x", "/nonexistent/scripts", 0))
}

func TestManager_Load_MultipleFiles_OrderedByName(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte(`base_val = 10`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"), []byte(`
		function get_val() return base_val end
	`), 0644))
	require.NoError(t, mgr.Load("ordered", dir, 0))
	ret, err := mgr.Call("ordered", "get_val")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(10), ret)
}

func TestManager_Load_ReplacesExisting(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("set", `function v() return 1 end`, 0))
	require.NoError(t, mgr.LoadString("set", `function v() return 2 end`, 0))
	ret, _ := mgr.Call("set", "v")
	assert.Equal(t, lua.LNumber(2), ret)
}

func TestManager_Close_ReleasesVMs(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("set", `function get_x() return x end`, 0))
	mgr.Close()
	assert.False(t, mgr.Has("set"))
	ret, err := mgr.Call("set", "get_x")
	assert.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_EngineModule(t *testing.T) {
	mgr, logs := newTestManager(t)
	var said []string
	mgr.Say = func(id uint32, text string) { said = append(said, text) }
	mgr.GetActor = func(id uint32) *scripting.ActorInfo {
		if id != 7 {
			return nil
		}
		return &scripting.ActorInfo{ID: 7, Name: "wolf", Health: 20, MaxHealth: 25}
	}
	applied := map[uint32]string{}
	mgr.ApplyCondition = func(id uint32, defID string) error {
		if defID == "missing" {
			return errors.New("unknown condition")
		}
		applied[id] = defID
		return nil
	}
	require.NoError(t, mgr.LoadString("set", `
		function run()
			engine.log("hello")
			local a = engine.actor(7)
			engine.say(a.id, a.name .. " " .. a.health .. "/" .. a.max_health)
			assert(engine.actor(8) == nil)
			assert(engine.add_condition(7, "drunk") == true)
			assert(engine.add_condition(7, "missing") == false)
			return engine.random(3, 9)
		end
	`, 0))
	ret, err := mgr.Call("set", "run")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(3), ret, "fixed source draws the lower bound")
	assert.Equal(t, []string{"wolf 20/25"}, said)
	assert.Equal(t, map[uint32]string{7: "drunk"}, applied)
	assert.NotEmpty(t, logs.FilterMessage("lua").All())
}

func TestManager_EngineModule_NilCallbacksAreNoOps(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("set", `
		function run()
			engine.say(1, "x")
			assert(engine.actor(1) == nil)
			return engine.add_condition(1, "drunk")
		end
	`, 0))
	ret, err := mgr.Call("set", "run")
	require.NoError(t, err)
	assert.Equal(t, lua.LFalse, ret)
}

func TestProperty_CallMissingKeyNeverPanics(t *testing.T) {
	mgr, _ := newTestManager(t)
	rapid.Check(t, func(rt *rapid.T) {
		key := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "key")
		fn := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "fn")
		ret, err := mgr.Call(key, fn)
		assert.NoError(rt, err)
		assert.Equal(rt, lua.LNil, ret)
	})
}

func TestManager_ConcurrentCallsSameVM_NoRace(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("conc", `
		function add(a, b)
			return a + b
		end
	`, 0))

	const goroutines = 10
	const callsEach = 5
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsEach; j++ {
				ret, err := mgr.Call("conc", "add", lua.LNumber(1), lua.LNumber(2))
				assert.NoError(t, err)
				assert.Equal(t, lua.LNumber(3), ret)
			}
		}()
	}
	wg.Wait()
}

func TestManager_LoadTree(t *testing.T) {
	mgr, _ := newTestManager(t)
	keys, err := mgr.LoadTree("../../content/scripts", 0)
	require.NoError(t, err)
	assert.Contains(t, keys, "creatures")
	ret, err := mgr.Call("creatures", "trophy")
	require.NoError(t, err)
	assert.Equal(t, lua.LTrue, ret)
}
