package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine table into L:
//
//	engine.log(msg)                    debug log line
//	engine.random(min, max)            uniform int in [min, max]
//	engine.actor(id)                   actor table or nil
//	engine.say(id, text)               creature speech
//	engine.add_condition(id, def_id)   true on success
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetFuncs(engine, map[string]lua.LGFunction{
		"log":           m.luaLog,
		"random":        m.luaRandom,
		"actor":         m.luaActor,
		"say":           m.luaSay,
		"add_condition": m.luaAddCondition,
	})
	L.SetGlobal("engine", engine)
}

func (m *Manager) luaLog(L *lua.LState) int {
	m.logger.Debug("lua", zap.String("msg", L.CheckString(1)))
	return 0
}

func (m *Manager) luaRandom(L *lua.LState) int {
	lo, hi := L.CheckInt(1), L.CheckInt(2)
	L.Push(lua.LNumber(m.roller.Range("lua", lo, hi)))
	return 1
}

func (m *Manager) luaActor(L *lua.LState) int {
	id := uint32(L.CheckInt(1))
	if m.GetActor == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(actorTable(L, m.GetActor(id)))
	return 1
}

func (m *Manager) luaSay(L *lua.LState) int {
	id, text := uint32(L.CheckInt(1)), L.CheckString(2)
	if m.Say != nil {
		m.Say(id, text)
	}
	return 0
}

func (m *Manager) luaAddCondition(L *lua.LState) int {
	id, defID := uint32(L.CheckInt(1)), L.CheckString(2)
	if m.ApplyCondition == nil {
		L.Push(lua.LFalse)
		return 1
	}
	if err := m.ApplyCondition(id, defID); err != nil {
		m.logger.Debug("lua add_condition failed",
			zap.Uint32("creature", id),
			zap.String("condition", defID),
			zap.Error(err),
		)
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LTrue)
	return 1
}
