package scripting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"
)

const spinScript = `
function spin(n)
    local total = 0
    for i = 1, n do total = total + i end
    return total
end
function forever() while true do end end
`

func loadSpin(t *testing.T) *lua.LState {
	t.Helper()
	L := NewSandboxedState(0)
	t.Cleanup(L.Close)
	require.NoError(t, L.DoString(spinScript))
	return L
}

func callGlobal(L *lua.LState, fn string, args ...lua.LValue) error {
	return L.CallByParam(lua.P{Fn: L.GetGlobal(fn), NRet: 1, Protect: true}, args...)
}

func TestNewSandboxedState_Globals(t *testing.T) {
	L := NewSandboxedState(0)
	defer L.Close()

	for name, present := range map[string]bool{
		"math":           true,
		"string":         true,
		"table":          true,
		"pairs":          true,
		"os":             false,
		"io":             false,
		"debug":          false,
		"require":        false,
		"dofile":         false,
		"loadfile":       false,
		"load":           false,
		"collectgarbage": false,
	} {
		got := L.GetGlobal(name) != lua.LNil
		assert.Equal(t, present, got, "global %s", name)
	}
}

func TestEffectiveLimit(t *testing.T) {
	assert.Equal(t, DefaultInstructionLimit, effectiveLimit(0))
	assert.Equal(t, DefaultInstructionLimit, effectiveLimit(-5))
	assert.Equal(t, 7, effectiveLimit(7))
}

func TestWithBudget_RefreshesPerInvocation(t *testing.T) {
	L := loadSpin(t)

	for i := 0; i < 3; i++ {
		restore := withBudget(L, 500)
		err := callGlobal(L, "spin", lua.LNumber(10))
		restore()
		require.NoError(t, err, "invocation %d", i)
		assert.Equal(t, lua.LNumber(55), L.Get(-1))
		L.Pop(1)
	}
}

func TestWithBudget_StopsRunawayScripts(t *testing.T) {
	L := loadSpin(t)

	restore := withBudget(L, 500)
	err := callGlobal(L, "forever")
	restore()
	assert.Error(t, err)

	// Once restored the state has no budget and finishes long loops.
	require.NoError(t, callGlobal(L, "spin", lua.LNumber(10000)))
	assert.Equal(t, lua.LNumber(50005000), L.Get(-1))
}

func TestProperty_SpentBudgetAlwaysErrors(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		limit := rapid.IntRange(1, 200).Draw(rt, "limit")
		L := NewSandboxedState(0)
		defer L.Close()
		if err := L.DoString(spinScript); err != nil {
			rt.Fatalf("loading: %v", err)
		}
		restore := withBudget(L, limit)
		defer restore()
		if err := callGlobal(L, "forever"); err == nil {
			rt.Fatalf("limit %d: runaway script finished", limit)
		}
	})
}
