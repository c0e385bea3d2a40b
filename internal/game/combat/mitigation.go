package combat

import "math"

const (
	// MaxBlockCharges caps the defense-charge counter.
	MaxBlockCharges = 2
	// BlockRegenTicks is the window after which one defense charge regenerates.
	BlockRegenTicks = 1000
)

// Charges is the bounded defense-charge counter gating defense rolls.
//
// Invariant: 0 <= Count() <= MaxBlockCharges.
type Charges struct {
	count int
	ticks int64
}

// Count returns the number of available charges.
func (c *Charges) Count() int { return c.count }

// Regenerate advances the regeneration window by interval ticks. When the
// window reaches BlockRegenTicks one charge is restored and the window resets.
func (c *Charges) Regenerate(interval int64) {
	c.ticks += interval
	if c.ticks >= BlockRegenTicks {
		c.count = min(c.count+1, MaxBlockCharges)
		c.ticks = 0
	}
}

// Consume takes one charge if available.
//
// Postcondition: Returns true iff a charge was taken.
func (c *Charges) Consume() bool {
	if c.count <= 0 {
		return false
	}
	c.count--
	return true
}

// ArmorBounds returns the inclusive bounds of the random armor reduction.
//
// Postcondition: armor <= 0 yields (0, 0); armor == 1 yields (1, 1);
// otherwise min = ceil(0.475*armor) and max = ceil(0.475*armor - 1 + min).
func ArmorBounds(armor int) (lo, hi int) {
	switch {
	case armor > 1:
		scaled := float64(armor) * 0.475
		lo = int(math.Ceil(scaled))
		hi = int(math.Ceil(scaled - 1 + float64(lo)))
	case armor == 1:
		lo, hi = 1, 1
	}
	return lo, hi
}

// Ranger draws uniform integers in [min, max]. *dice.Roller satisfies it.
type Ranger interface {
	Range(purpose string, min, max int) int
}

// Defender is the mitigation profile of the creature being hit.
type Defender struct {
	Defense    int
	Armor      int
	Immunities CombatType
}

// Result reports how a hit was mitigated.
type Result struct {
	Block BlockType
	// DefenseUsed is true when a defense charge was consumed.
	DefenseUsed bool
}

// Mitigate applies immunity, defense and armor to *damage in that order.
//
// Precondition: damage must not be nil.
// Postcondition: Immunity zeroes damage and returns BlockImmunity. Without
// either check flag, *damage is unchanged and BlockNone is returned. A defense
// roll happens only when a charge is available and checkDefense is set; if
// it zeroes the damage the armor step is skipped. *damage is never negative
// after a block.
func Mitigate(r Ranger, d Defender, charges *Charges, t CombatType, damage *int, checkDefense, checkArmor bool) Result {
	if d.Immunities.Contains(t) {
		*damage = 0
		return Result{Block: BlockImmunity}
	}
	if !checkDefense && !checkArmor {
		return Result{Block: BlockNone}
	}

	res := Result{Block: BlockNone}
	res.DefenseUsed = charges.Consume()

	if checkDefense && res.DefenseUsed {
		maxDefense := d.Defense
		*damage -= r.Range("defense", maxDefense/2, maxDefense)
		if *damage <= 0 {
			*damage = 0
			res.Block = BlockDefense
			checkArmor = false
		}
	}

	if checkArmor {
		lo, hi := ArmorBounds(d.Armor)
		*damage -= r.Range("armor", lo, hi)
		if *damage <= 0 {
			*damage = 0
			res.Block = BlockArmor
		}
	}
	return res
}
