package scripting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/creaturesim/internal/scripting"
)

const eventsYAML = `
events:
  - name: wolf_think
    kind: think
    script: creatures
    function: on_think
  - name: wolf_kill
    kind: kill
    script: creatures
    function: on_kill
  - name: wolf_death
    kind: death
    script: creatures
    function: on_death
`

const eventsLua = `
calls = {}
function on_think(self, interval)
	engine.say(self.id, "think " .. interval)
end
function on_kill(self, target, last_hit)
	engine.say(self.id, "kill " .. target.name .. " " .. tostring(last_hit))
	return target.name ~= "boss"
end
function on_death(self, corpse, last, most, unjust_last, unjust_most)
	local who = "nobody"
	if last ~= nil then who = last.name end
	local most_name = "nobody"
	if most ~= nil then most_name = most.name end
	engine.say(self.id, "death " .. corpse .. " " .. who .. " " .. most_name .. " " .. tostring(unjust_last) .. " " .. tostring(unjust_most))
end
`

func loadEvents(t *testing.T) (*scripting.Events, *[]string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "events.yaml")
	require.NoError(t, os.WriteFile(path, []byte(eventsYAML), 0644))
	reg, err := scripting.LoadRegistry(path)
	require.NoError(t, err)

	mgr, _ := newTestManager(t)
	said := &[]string{}
	mgr.Say = func(_ uint32, text string) { *said = append(*said, text) }
	require.NoError(t, mgr.LoadString("creatures", eventsLua, 0))
	return scripting.NewEvents(reg, mgr), said
}

func TestEvents_Kind(t *testing.T) {
	ev, _ := loadEvents(t)
	k, ok := ev.Kind("wolf_kill")
	require.True(t, ok)
	assert.Equal(t, scripting.EventKill, k)
	_, ok = ev.Kind("nope")
	assert.False(t, ok)
}

func TestEvents_Think(t *testing.T) {
	ev, said := loadEvents(t)
	ev.Think("wolf_think", scripting.ActorInfo{ID: 1, Name: "wolf"}, 1000)
	assert.Equal(t, []string{"think 1000"}, *said)
}

func TestEvents_WrongKindIsIgnored(t *testing.T) {
	ev, said := loadEvents(t)
	ev.Think("wolf_kill", scripting.ActorInfo{ID: 1}, 1000)
	assert.True(t, ev.Kill("wolf_think", scripting.ActorInfo{}, scripting.ActorInfo{}, true))
	assert.Empty(t, *said)
}

func TestEvents_Kill_ReturnValue(t *testing.T) {
	ev, said := loadEvents(t)
	assert.True(t, ev.Kill("wolf_kill", scripting.ActorInfo{ID: 1}, scripting.ActorInfo{ID: 2, Name: "rat"}, true))
	assert.False(t, ev.Kill("wolf_kill", scripting.ActorInfo{ID: 1}, scripting.ActorInfo{ID: 3, Name: "boss"}, false))
	assert.Equal(t, []string{"kill rat true", "kill boss false"}, *said)
}

func TestEvents_Death(t *testing.T) {
	ev, said := loadEvents(t)
	ev.Death("wolf_death", scripting.ActorInfo{ID: 1}, scripting.DeathInfo{
		Corpse:          "c-1",
		LastHitter:      &scripting.ActorInfo{ID: 2, Name: "hunter"},
		UnjustifiedLast: true,
	})
	assert.Equal(t, []string{"death c-1 hunter nobody true false"}, *said)
}

func TestRegistry_Register_Validation(t *testing.T) {
	reg := scripting.NewRegistry()
	require.NoError(t, reg.Register(&scripting.Event{Name: "a", Kind: "think", Script: "s", Function: "f"}))
	assert.Error(t, reg.Register(&scripting.Event{Name: "a", Kind: "think", Script: "s", Function: "f"}), "duplicate name")
	assert.Error(t, reg.Register(&scripting.Event{Name: "b", Kind: "login", Script: "s", Function: "f"}))
	assert.Error(t, reg.Register(&scripting.Event{Name: "c", Kind: "kill"}))
	assert.Error(t, reg.Register(&scripting.Event{Kind: "kill", Script: "s", Function: "f"}))
}

func TestLoadRegistry_Errors(t *testing.T) {
	_, err := scripting.LoadRegistry("/nonexistent/events.yaml")
	assert.Error(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "events.yaml")
	require.NoError(t, os.WriteFile(path, []byte("events:\n  - name: x\n    kind: think\n    script: s\n    function: f\n    priority: 3\n"), 0644))
	_, err = scripting.LoadRegistry(path)
	assert.Error(t, err, "unknown fields are rejected")
}

func TestLoadRegistry_RealEvents(t *testing.T) {
	reg, err := scripting.LoadRegistry("../../content/events.yaml")
	require.NoError(t, err)
	_, ok := reg.Get("pack_howl")
	assert.True(t, ok)
}
