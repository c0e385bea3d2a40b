package testutil

import (
	"sync"

	"github.com/cory-johannsen/creaturesim/internal/game/creature"
	"github.com/cory-johannsen/creaturesim/internal/scripting"
)

// NoteKind is the kind of a recorded notification.
type NoteKind int

const (
	NoteText NoteKind = iota
	NoteSay
	NoteCancelWalk
	NoteHealth
)

// Note is one notification delivered to a creature.
type Note struct {
	Kind     NoteKind
	Creature uint32
	Text     string
	Err      error
	Health   int
}

// Recorder is a creature.Notifier that keeps every notification.
type Recorder struct {
	mu    sync.Mutex
	notes []Note
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) add(n Note) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

// TextMessage implements creature.Notifier.
func (r *Recorder) TextMessage(to *creature.Creature, text string) {
	r.add(Note{Kind: NoteText, Creature: to.ID(), Text: text})
}

// Say implements creature.Notifier.
func (r *Recorder) Say(c *creature.Creature, text string) {
	r.add(Note{Kind: NoteSay, Creature: c.ID(), Text: text})
}

// CancelWalk implements creature.Notifier.
func (r *Recorder) CancelWalk(c *creature.Creature, reason error) {
	r.add(Note{Kind: NoteCancelWalk, Creature: c.ID(), Err: reason})
}

// HealthChanged implements creature.Notifier.
func (r *Recorder) HealthChanged(c *creature.Creature) {
	r.add(Note{Kind: NoteHealth, Creature: c.ID(), Health: c.Health()})
}

// Of returns the notes of kind k for creature id, oldest first.
func (r *Recorder) Of(k NoteKind, id uint32) []Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Note
	for _, n := range r.notes {
		if n.Kind == k && n.Creature == id {
			out = append(out, n)
		}
	}
	return out
}

// Texts returns the text of every note of kind k for creature id.
func (r *Recorder) Texts(k NoteKind, id uint32) []string {
	var out []string
	for _, n := range r.Of(k, id) {
		out = append(out, n.Text)
	}
	return out
}

// Reset forgets every note.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = nil
}

// HookCall is one recorded hook invocation.
type HookCall struct {
	Event   string
	Self    scripting.ActorInfo
	Target  scripting.ActorInfo
	LastHit bool
	Death   scripting.DeathInfo
}

// Hooks is a creature.Hooks fake. Events maps event names to kinds; kill
// events named in Veto return false.
type Hooks struct {
	Events map[string]scripting.EventKind
	Veto   map[string]bool

	mu    sync.Mutex
	calls []HookCall
}

// NewHooks creates a Hooks fake knowing events.
func NewHooks(events map[string]scripting.EventKind) *Hooks {
	return &Hooks{Events: events, Veto: make(map[string]bool)}
}

// Kind implements creature.Hooks.
func (h *Hooks) Kind(name string) (scripting.EventKind, bool) {
	k, ok := h.Events[name]
	return k, ok
}

// Think implements creature.Hooks.
func (h *Hooks) Think(name string, self scripting.ActorInfo, _ int64) {
	h.record(HookCall{Event: name, Self: self})
}

// Kill implements creature.Hooks.
func (h *Hooks) Kill(name string, self, target scripting.ActorInfo, lastHit bool) bool {
	h.record(HookCall{Event: name, Self: self, Target: target, LastHit: lastHit})
	return !h.Veto[name]
}

// Death implements creature.Hooks.
func (h *Hooks) Death(name string, self scripting.ActorInfo, d scripting.DeathInfo) {
	h.record(HookCall{Event: name, Self: self, Death: d})
}

func (h *Hooks) record(c HookCall) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, c)
}

// Calls returns the invocations of event name, oldest first.
func (h *Hooks) Calls(name string) []HookCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []HookCall
	for _, c := range h.calls {
		if c.Event == name {
			out = append(out, c)
		}
	}
	return out
}
