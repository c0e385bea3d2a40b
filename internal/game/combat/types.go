// Package combat implements hit mitigation for the creature simulation:
// damage kinds, block outcomes, the defense-charge counter and armor bounds.
package combat

import (
	"fmt"
	"strings"
)

// CombatType is a damage kind. Values are bit flags so immunity sets can be
// expressed as a CombatType mask.
type CombatType uint32

const (
	CombatNone     CombatType = 0
	CombatPhysical CombatType = 1 << (iota - 1)
	CombatEnergy
	CombatEarth
	CombatFire
	CombatUndefined
	CombatLifeDrain
	CombatManaDrain
	CombatHealing
	CombatDrown
	CombatIce
	CombatHoly
	CombatDeath
)

var combatNames = map[CombatType]string{
	CombatPhysical:  "physical",
	CombatEnergy:    "energy",
	CombatEarth:     "earth",
	CombatFire:      "fire",
	CombatUndefined: "undefined",
	CombatLifeDrain: "lifedrain",
	CombatManaDrain: "manadrain",
	CombatHealing:   "healing",
	CombatDrown:     "drown",
	CombatIce:       "ice",
	CombatHoly:      "holy",
	CombatDeath:     "death",
}

// String returns the damage kind name, or a "+"-joined list for masks.
func (c CombatType) String() string {
	if c == CombatNone {
		return "none"
	}
	if n, ok := combatNames[c]; ok {
		return n
	}
	var parts []string
	for bit := CombatPhysical; bit <= CombatDeath; bit <<= 1 {
		if c&bit != 0 {
			parts = append(parts, combatNames[bit])
		}
	}
	return strings.Join(parts, "+")
}

// Contains reports whether every bit of t is present in the mask c.
func (c CombatType) Contains(t CombatType) bool {
	return t != CombatNone && c&t == t
}

// ParseCombatType resolves a damage kind by name.
//
// Postcondition: Returns an error for unknown names.
func ParseCombatType(name string) (CombatType, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for t, s := range combatNames {
		if s == n {
			return t, nil
		}
	}
	return CombatNone, fmt.Errorf("unknown combat type %q", name)
}

// ParseCombatMask folds a list of damage kind names into a mask.
func ParseCombatMask(names []string) (CombatType, error) {
	var mask CombatType
	for _, n := range names {
		t, err := ParseCombatType(n)
		if err != nil {
			return CombatNone, err
		}
		mask |= t
	}
	return mask, nil
}

// BlockType is the outcome of blockHit.
type BlockType int

const (
	BlockNone BlockType = iota
	BlockDefense
	BlockArmor
	BlockImmunity
)

// String returns a human-readable block label.
func (b BlockType) String() string {
	switch b {
	case BlockDefense:
		return "defense"
	case BlockArmor:
		return "armor"
	case BlockImmunity:
		return "immunity"
	default:
		return "none"
	}
}
