// Package ledger records cumulative damage or healing received by a creature,
// keyed by contributor id, for kill attribution and experience sharing.
package ledger

import (
	"math"
	"sort"
)

// NoContributor is the key used for contributions without an attacker, such
// as environmental damage.
const NoContributor uint32 = 0

// Entry is one contributor's accumulated amount and the time of its most
// recent contribution.
type Entry struct {
	Total int
	Ticks int64
}

// Ledger maps contributor ids to entries. The zero value is not usable; call New.
//
// Invariant: every Entry.Total is > 0.
type Ledger struct {
	entries map[uint32]Entry
	last    uint32
	hasLast bool
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{entries: make(map[uint32]Entry)}
}

// Add accumulates amount for id and refreshes its timestamp to now.
//
// Postcondition: Returns false and leaves the ledger unchanged when amount <= 0.
// Otherwise id becomes the most recent contributor.
func (l *Ledger) Add(id uint32, amount int, now int64) bool {
	if amount <= 0 {
		return false
	}
	e := l.entries[id]
	e.Total += amount
	e.Ticks = now
	l.entries[id] = e
	l.last = id
	l.hasLast = true
	return true
}

// Total returns the accumulated amount for id, or 0 if absent.
func (l *Ledger) Total(id uint32) int {
	return l.entries[id].Total
}

// Get returns the entry for id.
func (l *Ledger) Get(id uint32) (Entry, bool) {
	e, ok := l.entries[id]
	return e, ok
}

// Sum returns the total of every entry.
func (l *Ledger) Sum() int {
	sum := 0
	for _, e := range l.entries {
		sum += e.Total
	}
	return sum
}

// Ratio returns id's share of the ledger sum.
//
// Postcondition: Returns NaN when the sum is zero; callers must guard.
func (l *Ledger) Ratio(id uint32) float64 {
	sum := l.Sum()
	if sum == 0 {
		return math.NaN()
	}
	return float64(l.Total(id)) / float64(sum)
}

// Last returns the most recent contributor.
//
// Postcondition: ok is false when nothing has been recorded since the last Clear.
func (l *Ledger) Last() (id uint32, ok bool) {
	return l.last, l.hasLast
}

// Recent reports whether id contributed within window ticks of now.
func (l *Ledger) Recent(id uint32, now, window int64) bool {
	e, ok := l.entries[id]
	return ok && now-e.Ticks <= window
}

// MostDamage returns the contributor with the strictly highest total among
// entries recorded within window ticks of now. Ids are visited in ascending
// order so the lowest id wins a tie. accept filters out contributors that no
// longer resolve; nil accepts every id.
//
// Postcondition: ok is false when no entry qualifies.
func (l *Ledger) MostDamage(now, window int64, accept func(id uint32) bool) (best uint32, ok bool) {
	bestTotal := 0
	for _, id := range l.IDs() {
		e := l.entries[id]
		if e.Total <= bestTotal || now-e.Ticks > window {
			continue
		}
		if accept != nil && !accept(id) {
			continue
		}
		best, bestTotal, ok = id, e.Total, true
	}
	return best, ok
}

// IDs returns every contributor id in ascending order.
func (l *Ledger) IDs() []uint32 {
	ids := make([]uint32, 0, len(l.entries))
	for id := range l.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Each calls fn for every entry in ascending id order.
func (l *Ledger) Each(fn func(id uint32, e Entry)) {
	for _, id := range l.IDs() {
		fn(id, l.entries[id])
	}
}

// Len returns the number of contributors.
func (l *Ledger) Len() int { return len(l.entries) }

// Clear removes every entry and forgets the most recent contributor.
func (l *Ledger) Clear() {
	clear(l.entries)
	l.last = 0
	l.hasLast = false
}
