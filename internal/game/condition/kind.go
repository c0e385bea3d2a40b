// Package condition manages timed status effects on a creature: the closed set
// of condition kinds, per-kind start/tick/merge/end behavior, the per-creature
// Engine enforcing exclusivity and merge rules, and the YAML definition registry.
package condition

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/creaturesim/internal/game/combat"
)

// Kind is a condition kind.
type Kind int

const (
	KindNone Kind = iota
	Poison
	Fire
	Energy
	Bleeding
	Drown
	Freezing
	Dazzled
	Cursed
	Haste
	Paralyze
	Drunk
	Invisible
	Regeneration
	InFight
	ExhaustCombat
	Muted
	kindCount
)

// Category groups kinds sharing start/tick/merge/end behavior.
type Category int

const (
	CategoryGeneric Category = iota
	CategoryDamage
	CategorySpeed
	CategoryRegeneration
)

type kindInfo struct {
	name     string
	category Category
	// field is the area-damage type that sustains a damage condition.
	field combat.CombatType
	// excludes is removed when this kind is added without force.
	excludes Kind
	// deferred kinds wait out a pending walk delay before add/remove.
	deferred bool
}

var kinds = [kindCount]kindInfo{
	KindNone:      {name: "none"},
	Poison:        {name: "poison", category: CategoryDamage, field: combat.CombatEarth},
	Fire:          {name: "fire", category: CategoryDamage, field: combat.CombatFire},
	Energy:        {name: "energy", category: CategoryDamage, field: combat.CombatEnergy},
	Bleeding:      {name: "bleeding", category: CategoryDamage, field: combat.CombatPhysical},
	Drown:         {name: "drown", category: CategoryDamage, field: combat.CombatDrown},
	Freezing:      {name: "freezing", category: CategoryDamage, field: combat.CombatIce},
	Dazzled:       {name: "dazzled", category: CategoryDamage, field: combat.CombatHoly},
	Cursed:        {name: "cursed", category: CategoryDamage, field: combat.CombatDeath},
	Haste:         {name: "haste", category: CategorySpeed, excludes: Paralyze},
	Paralyze:      {name: "paralyze", category: CategorySpeed, excludes: Haste, deferred: true},
	Drunk:         {name: "drunk"},
	Invisible:     {name: "invisible"},
	Regeneration:  {name: "regeneration", category: CategoryRegeneration},
	InFight:       {name: "infight"},
	ExhaustCombat: {name: "exhaust_combat"},
	Muted:         {name: "muted"},
}

func (k Kind) info() kindInfo {
	if k < 0 || k >= kindCount {
		return kinds[KindNone]
	}
	return kinds[k]
}

// String returns the kind name.
func (k Kind) String() string { return k.info().name }

// Category returns the behavior group of k.
func (k Kind) Category() Category { return k.info().category }

// DamageType returns the combat type dealt by a damage kind, which is also
// the area-damage field that sustains it.
func (k Kind) DamageType() combat.CombatType { return k.info().field }

// Excludes returns the kind that cannot coexist with k, or KindNone.
func (k Kind) Excludes() Kind { return k.info().excludes }

// DeferredByWalk reports whether adding or removing k waits for a pending walk delay.
func (k Kind) DeferredByWalk() bool { return k.info().deferred }

// ParseKind resolves a kind by name.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for k := Kind(1); k < kindCount; k++ {
		if kinds[k].name == n {
			return k, nil
		}
	}
	return KindNone, fmt.Errorf("unknown condition kind %q", name)
}

// KindForField returns the damage kind sustained by an area-damage field of type t.
func KindForField(t combat.CombatType) (Kind, bool) {
	for k := Kind(1); k < kindCount; k++ {
		if kinds[k].category == CategoryDamage && kinds[k].field == t {
			return k, true
		}
	}
	return KindNone, false
}

// Source distinguishes independently applied instances of the same kind.
type Source int

const (
	SourceDefault Source = iota
	SourceCombat
	SourceSpell
	SourceItem
)

var sourceNames = map[Source]string{
	SourceDefault: "default",
	SourceCombat:  "combat",
	SourceSpell:   "spell",
	SourceItem:    "item",
}

// String returns the source name.
func (s Source) String() string {
	if n, ok := sourceNames[s]; ok {
		return n
	}
	return fmt.Sprintf("source(%d)", int(s))
}

// ParseSource resolves a source by name. The empty string is SourceDefault.
func ParseSource(name string) (Source, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return SourceDefault, nil
	}
	for s, sn := range sourceNames {
		if sn == n {
			return s, nil
		}
	}
	return SourceDefault, fmt.Errorf("unknown condition source %q", name)
}

// EndReason tells listeners why a condition ended.
type EndReason int

const (
	// EndAbort is an explicit removal.
	EndAbort EndReason = iota
	// EndTicks is natural expiry.
	EndTicks
	// EndCleanup is removal because the creature is being destroyed.
	EndCleanup
)

// String returns the reason label.
func (r EndReason) String() string {
	switch r {
	case EndTicks:
		return "ticks"
	case EndCleanup:
		return "cleanup"
	default:
		return "abort"
	}
}

// KindSet is a set of kinds, used for immunities and suppressions.
type KindSet uint64

// NewKindSet returns the set holding ks.
func NewKindSet(ks ...Kind) KindSet {
	var s KindSet
	for _, k := range ks {
		s |= 1 << uint(k)
	}
	return s
}

// ParseKindSet resolves every name in names.
func ParseKindSet(names []string) (KindSet, error) {
	var s KindSet
	for _, n := range names {
		k, err := ParseKind(n)
		if err != nil {
			return 0, err
		}
		s |= NewKindSet(k)
	}
	return s, nil
}

// Has reports whether k is in s.
func (s KindSet) Has(k Kind) bool { return k > KindNone && s&(1<<uint(k)) != 0 }
