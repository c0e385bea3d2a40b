package scripting

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"gopkg.in/yaml.v3"
)

// EventKind is the trigger of a creature event.
type EventKind int

const (
	EventUnknown EventKind = iota
	// EventThink fires once per think interval.
	EventThink
	// EventKill fires when the creature is credited with a kill.
	EventKill
	// EventDeath fires during corpse finalization.
	EventDeath
)

// String returns the kind name.
func (k EventKind) String() string {
	switch k {
	case EventThink:
		return "think"
	case EventKill:
		return "kill"
	case EventDeath:
		return "death"
	default:
		return "unknown"
	}
}

// ParseEventKind resolves a kind by name.
func ParseEventKind(s string) (EventKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "think":
		return EventThink, nil
	case "kill":
		return EventKill, nil
	case "death":
		return EventDeath, nil
	}
	return EventUnknown, fmt.Errorf("unknown event kind %q", s)
}

// Event binds a named creature event to a Lua function in a script set.
type Event struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Script   string `yaml:"script"`
	Function string `yaml:"function"`

	kind EventKind
}

// EventKind returns the kind parsed at registration.
func (e *Event) EventKind() EventKind { return e.kind }

// Registry holds every known event keyed by name.
type Registry struct {
	events map[string]*Event
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{events: make(map[string]*Event)}
}

// Register validates ev and adds it.
//
// Postcondition: Returns an error for invalid events or duplicate names.
func (r *Registry) Register(ev *Event) error {
	var errs []error
	if ev.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	k, err := ParseEventKind(ev.Kind)
	if err != nil {
		errs = append(errs, err)
	}
	if ev.Script == "" || ev.Function == "" {
		errs = append(errs, errors.New("script and function must not be empty"))
	}
	if _, dup := r.events[ev.Name]; dup {
		errs = append(errs, fmt.Errorf("duplicate event %q", ev.Name))
	}
	if len(errs) > 0 {
		return fmt.Errorf("event %q: %w", ev.Name, errors.Join(errs...))
	}
	ev.kind = k
	r.events[ev.Name] = ev
	return nil
}

// Get returns the event named name.
func (r *Registry) Get(name string) (*Event, bool) {
	ev, ok := r.events[name]
	return ev, ok
}

type eventsFile struct {
	Events []*Event `yaml:"events"`
}

// LoadRegistry parses an events YAML file.
//
// Precondition: path must be a readable file.
// Postcondition: Returns a populated Registry or the first parse/validation error.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading events file %q: %w", path, err)
	}
	var f eventsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	reg := NewRegistry()
	for _, ev := range f.Events {
		if err := reg.Register(ev); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return reg, nil
}

// DeathInfo carries the resolved attribution into death hooks.
type DeathInfo struct {
	Corpse          string
	LastHitter      *ActorInfo
	MostDamage      *ActorInfo
	UnjustifiedLast bool
	UnjustifiedMost bool
}

// Events dispatches creature events by name into Lua.
type Events struct {
	reg *Registry
	mgr *Manager
}

// NewEvents creates an Events dispatcher.
//
// Precondition: reg and mgr must be non-nil.
func NewEvents(reg *Registry, mgr *Manager) *Events {
	return &Events{reg: reg, mgr: mgr}
}

// Kind returns the kind of the event named name.
func (e *Events) Kind(name string) (EventKind, bool) {
	ev, ok := e.reg.Get(name)
	if !ok {
		return EventUnknown, false
	}
	return ev.kind, true
}

// Think runs a think event as fn(self, interval).
func (e *Events) Think(name string, self ActorInfo, interval int64) {
	ev, ok := e.lookup(name, EventThink)
	if !ok {
		return
	}
	_, _ = e.mgr.invoke(ev.Script, ev.Function, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{actorTable(L, &self), lua.LNumber(interval)}
	})
}

// Kill runs a kill event as fn(self, target, last_hit).
//
// Postcondition: Returns false only when the function returned false; the
// caller stops running further kill events.
func (e *Events) Kill(name string, self, target ActorInfo, lastHit bool) bool {
	ev, ok := e.lookup(name, EventKill)
	if !ok {
		return true
	}
	ret, _ := e.mgr.invoke(ev.Script, ev.Function, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{actorTable(L, &self), actorTable(L, &target), lua.LBool(lastHit)}
	})
	return ret != lua.LFalse
}

// Death runs a death event as fn(self, corpse, last_hitter, most_damage,
// unjustified_last, unjustified_most).
func (e *Events) Death(name string, self ActorInfo, d DeathInfo) {
	ev, ok := e.lookup(name, EventDeath)
	if !ok {
		return
	}
	_, _ = e.mgr.invoke(ev.Script, ev.Function, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{
			actorTable(L, &self),
			lua.LString(d.Corpse),
			actorTable(L, d.LastHitter),
			actorTable(L, d.MostDamage),
			lua.LBool(d.UnjustifiedLast),
			lua.LBool(d.UnjustifiedMost),
		}
	})
}

func (e *Events) lookup(name string, want EventKind) (*Event, bool) {
	ev, ok := e.reg.Get(name)
	if !ok || ev.kind != want {
		return nil, false
	}
	return ev, true
}
