package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturesim/internal/game/dice"
)

// ActorInfo is a snapshot of a creature passed to Lua callbacks.
type ActorInfo struct {
	ID        uint32
	Name      string
	Kind      string
	Health    int
	MaxHealth int
	X, Y, Z   int
}

// vm is one sandboxed LState. An LState is single-threaded; mu serializes calls.
type vm struct {
	mu    sync.Mutex
	L     *lua.LState
	limit int
}

// Manager owns one sandboxed LState per script set and dispatches calls into them.
//
// Manager is safe for concurrent Call after all Load calls complete.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	roller *dice.Roller
	logger *zap.Logger

	// Injected after construction. nil = no-op in engine.* functions.
	GetActor       func(id uint32) *ActorInfo
	Say            func(id uint32, text string)
	ApplyCondition func(id uint32, defID string) error
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no VMs.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	return &Manager{
		vms:    make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// Load creates a sandboxed VM under key, registers the engine module, then
// executes every *.lua file in scriptDir in lexicographic order. A VM
// already registered under key is replaced.
//
// Precondition: key must be non-empty; scriptDir must be a readable directory.
// Postcondition: The VM is registered; returns error on Lua load failure.
func (m *Manager) Load(key, scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	return m.install(key, instLimit, func(L *lua.LState) error {
		for _, path := range luaFiles {
			if err := L.DoFile(path); err != nil {
				return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
			}
		}
		return nil
	})
}

// LoadTree loads every subdirectory of root as a script set keyed by the
// subdirectory name.
//
// Postcondition: Returns the loaded keys in lexicographic order, or the first load error.
func (m *Manager) LoadTree(root string, instLimit int) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading script root %q: %w", root, err)
	}
	var keys []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := m.Load(e.Name(), filepath.Join(root, e.Name()), instLimit); err != nil {
			return nil, err
		}
		keys = append(keys, e.Name())
	}
	sort.Strings(keys)
	return keys, nil
}

// LoadString creates a sandboxed VM under key from an in-memory chunk.
func (m *Manager) LoadString(key, src string, instLimit int) error {
	return m.install(key, instLimit, func(L *lua.LState) error {
		if err := L.DoString(src); err != nil {
			return fmt.Errorf("scripting: loading chunk for %q: %w", key, err)
		}
		return nil
	})
}

func (m *Manager) install(key string, instLimit int, load func(*lua.LState) error) error {
	L := NewSandboxedState(instLimit)
	m.RegisterModules(L)
	if err := load(L); err != nil {
		L.Close()
		return err
	}
	L.RemoveContext()

	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.vms[key]; ok {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	m.vms[key] = &vm{L: L, limit: instLimit}
	return nil
}

// Has reports whether a VM is registered under key.
func (m *Manager) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.vms[key]
	return ok
}

// Call invokes the named Lua global function in key's VM with a fresh
// instruction budget. Returns (LNil, nil) if the VM or function does not
// exist. Lua runtime errors, including an exhausted budget, are logged at
// Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the function, or LNil.
func (m *Manager) Call(key, fn string, args ...lua.LValue) (lua.LValue, error) {
	return m.invoke(key, fn, func(*lua.LState) []lua.LValue { return args })
}

// invoke is Call with arguments built inside the target VM, for values such
// as tables that must be allocated by the LState that receives them.
func (m *Manager) invoke(key, fn string, build func(L *lua.LState) []lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v := m.vms[key]
	m.mu.RUnlock()

	if v == nil {
		m.logger.Info("scripting: no VM for key",
			zap.String("key", key),
			zap.String("function", fn),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	f := v.L.GetGlobal(fn)
	if f == lua.LNil {
		return lua.LNil, nil
	}

	restore := withBudget(v.L, v.limit)
	defer restore()
	if err := v.L.CallByParam(lua.P{
		Fn:      f,
		NRet:    1,
		Protect: true,
	}, build(v.L)...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("key", key),
			zap.String("function", fn),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, v := range m.vms {
		v.mu.Lock()
		v.L.Close()
		v.mu.Unlock()
		delete(m.vms, key)
	}
}

// actorTable converts a to a Lua table. A nil a yields LNil.
func actorTable(L *lua.LState, a *ActorInfo) lua.LValue {
	if a == nil {
		return lua.LNil
	}
	t := L.NewTable()
	t.RawSetString("id", lua.LNumber(a.ID))
	t.RawSetString("name", lua.LString(a.Name))
	t.RawSetString("kind", lua.LString(a.Kind))
	t.RawSetString("health", lua.LNumber(a.Health))
	t.RawSetString("max_health", lua.LNumber(a.MaxHealth))
	t.RawSetString("x", lua.LNumber(a.X))
	t.RawSetString("y", lua.LNumber(a.Y))
	t.RawSetString("z", lua.LNumber(a.Z))
	return t
}
