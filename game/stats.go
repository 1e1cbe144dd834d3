package game

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// StatType names a mutable pet stat
type StatType string

// Pet stats
const (
	StatHappy  StatType = "happy"
	StatHealth StatType = "health"
)

// ValidStat reports whether s names a known stat
func ValidStat(s StatType) bool {
	return s == StatHappy || s == StatHealth
}

// Rules holds the economy tuning values. The defaults match the live game;
// operators can override them via config.
type Rules struct {
	PriceMarkup   int64 // purchase cost = unit price * markup
	LevelUpBonus  int64 // money granted on level-up
	StatCeiling   int   // happy/health cap
	StartingMoney int64 // first-login money
	StartingLevel int   // first-login level
}

// DefaultRules returns the production rule set
func DefaultRules() Rules {
	return Rules{
		PriceMarkup:   10,
		LevelUpBonus:  30,
		StatCeiling:   100,
		StartingMoney: DefaultStartingMoney,
		StartingLevel: DefaultStartingLevel,
	}
}

// StatOutcome describes what a stat change did
type StatOutcome int

const (
	// StatUnchanged means the stat was already at the ceiling; nothing happened
	StatUnchanged StatOutcome = iota
	// StatApplied means the stat was incremented (clamped at the ceiling)
	StatApplied
	// StatLeveledUp means both stats hit the ceiling: stats reset, level and money bumped
	StatLeveledUp
)

// ApplyStatDelta applies points to the named stat of info and returns the
// resulting UserInfo. It is pure: info is taken by value and never mutated.
//
// Semantics:
//   - points must be >= 0; care only ever raises a stat
//   - stat already at the ceiling: no-op (StatUnchanged)
//   - otherwise the stat becomes min(current+points, ceiling)
//   - if after the increment both stats are >= ceiling, the level-up rule
//     overrides the clamp: happy=0, health=0, level+1, money+bonus
func ApplyStatDelta(info UserInfo, stat StatType, points int, rules Rules) (UserInfo, StatOutcome, error) {
	if !ValidStat(stat) {
		return info, StatUnchanged, fmt.Errorf("unknown stat type %q", stat)
	}
	if points < 0 {
		return info, StatUnchanged, fmt.Errorf("negative points %d", points)
	}

	current := info.Happy
	other := info.Health
	if stat == StatHealth {
		current = info.Health
		other = info.Happy
	}

	if current >= rules.StatCeiling {
		return info, StatUnchanged, nil
	}

	next := current + points
	if next >= rules.StatCeiling && other >= rules.StatCeiling {
		info.Happy = 0
		info.Health = 0
		info.Level++
		info.Money = info.Money.Add(decimal.NewFromInt(rules.LevelUpBonus))
		return info, StatLeveledUp, nil
	}

	if next > rules.StatCeiling {
		next = rules.StatCeiling
	}
	if stat == StatHappy {
		info.Happy = next
	} else {
		info.Health = next
	}
	return info, StatApplied, nil
}

// PurchaseStatus is the structured decision for a purchase attempt
type PurchaseStatus int

const (
	// PurchaseAccepted means the item was added and money deducted
	PurchaseAccepted PurchaseStatus = iota
	// PurchaseInsufficientFunds means the cost exceeded the player's money;
	// nothing changed. This is policy, not a fault.
	PurchaseInsufficientFunds
)

// PurchaseResult describes the outcome of a purchase attempt
type PurchaseResult struct {
	Status         PurchaseStatus
	ItemID         string
	Slot           Slot
	Cost           decimal.Decimal
	RemainingMoney decimal.Decimal
	Items          Inventory // new inventory when accepted, nil otherwise
}

// Cost computes the purchase cost for a unit price under rules
func Cost(unitPrice int64, rules Rules) decimal.Decimal {
	return decimal.NewFromInt(unitPrice).Mul(decimal.NewFromInt(rules.PriceMarkup))
}

// ApplyPurchase evaluates a purchase against the profile and returns the
// result. The profile is never mutated; an accepted purchase returns the new
// inventory and remaining money for the caller to dispatch and persist.
func ApplyPurchase(p *UserProfile, itemID string, unitPrice int64, slot Slot, rules Rules) (*PurchaseResult, error) {
	if !ValidSlot(slot) {
		return nil, fmt.Errorf("unknown slot %q", slot)
	}
	if unitPrice < 0 {
		return nil, fmt.Errorf("negative unit price %d", unitPrice)
	}

	cost := Cost(unitPrice, rules)
	if cost.GreaterThan(p.UserInfo.Money) {
		return &PurchaseResult{
			Status:         PurchaseInsufficientFunds,
			ItemID:         itemID,
			Slot:           slot,
			Cost:           cost,
			RemainingMoney: p.UserInfo.Money,
		}, nil
	}

	items := p.BoughtItem.Clone()
	items[slot] = append(items[slot], itemID)

	return &PurchaseResult{
		Status:         PurchaseAccepted,
		ItemID:         itemID,
		Slot:           slot,
		Cost:           cost,
		RemainingMoney: p.UserInfo.Money.Sub(cost),
		Items:          items,
	}, nil
}
