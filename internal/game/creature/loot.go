package creature

import (
	"fmt"

	"github.com/cory-johannsen/creaturesim/internal/game/world"
)

// CurrencyItem is the item type currency drops are created as.
const CurrencyItem = "gold_coin"

// chanceScale is the resolution of drop-chance rolls.
const chanceScale = 100000

// CurrencyDrop defines the range of currency a creature can drop on death.
type CurrencyDrop struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// ItemDrop defines a single item entry in a loot table with a drop chance.
type ItemDrop struct {
	ItemID string  `yaml:"item"`
	Chance float64 `yaml:"chance"`
	MinQty int     `yaml:"min_qty"`
	MaxQty int     `yaml:"max_qty"`
}

// LootTable defines the possible loot drops for a template.
type LootTable struct {
	Currency *CurrencyDrop `yaml:"currency"`
	Items    []ItemDrop    `yaml:"items"`
}

// Validate checks that the loot table satisfies its invariants.
//
// Precondition: lt must not be nil.
// Postcondition: Returns nil iff all currency and item constraints hold;
// an empty loot table (no currency, no items) is valid.
func (lt *LootTable) Validate() error {
	if lt.Currency != nil {
		if lt.Currency.Min < 0 {
			return fmt.Errorf("loot table: currency min must be >= 0, got %d", lt.Currency.Min)
		}
		if lt.Currency.Min > lt.Currency.Max {
			return fmt.Errorf("loot table: currency min (%d) must be <= max (%d)", lt.Currency.Min, lt.Currency.Max)
		}
	}
	for i, item := range lt.Items {
		if item.ItemID == "" {
			return fmt.Errorf("loot table: item[%d] must have a non-empty item id", i)
		}
		if item.Chance <= 0 || item.Chance > 1.0 {
			return fmt.Errorf("loot table: item[%d] chance must be in (0, 1.0], got %f", i, item.Chance)
		}
		if item.MinQty < 1 {
			return fmt.Errorf("loot table: item[%d] min_qty must be >= 1, got %d", i, item.MinQty)
		}
		if item.MinQty > item.MaxQty {
			return fmt.Errorf("loot table: item[%d] min_qty (%d) must be <= max_qty (%d)", i, item.MinQty, item.MaxQty)
		}
	}
	return nil
}

// Roller draws the random numbers loot generation needs. *dice.Roller satisfies it.
type Roller interface {
	Range(purpose string, min, max int) int
	Intn(n int) int
}

// GenerateLoot rolls lt into fresh item instances.
//
// Precondition: lt must have passed Validate().
// Postcondition: A currency item is present iff the rolled amount is > 0;
// each dropped item's Quantity is in [MinQty, MaxQty] and its InstanceID is a new UUID.
func GenerateLoot(lt LootTable, r Roller) []*world.Item {
	var out []*world.Item
	if lt.Currency != nil && lt.Currency.Max > 0 {
		if amount := r.Range("loot currency", lt.Currency.Min, lt.Currency.Max); amount > 0 {
			coins := world.NewItem(CurrencyItem)
			coins.Quantity = amount
			out = append(out, coins)
		}
	}
	for _, drop := range lt.Items {
		if r.Intn(chanceScale) >= int(drop.Chance*chanceScale) {
			continue
		}
		it := world.NewItem(drop.ItemID)
		it.Quantity = r.Range("loot quantity", drop.MinQty, drop.MaxQty)
		out = append(out, it)
	}
	return out
}
