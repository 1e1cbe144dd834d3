package game

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestApplyStatDelta(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name        string
		info        UserInfo
		stat        StatType
		points      int
		wantOutcome StatOutcome
		wantErr     bool
		validate    func(t *testing.T, got UserInfo)
	}{
		{
			name:        "simple increment",
			info:        UserInfo{Happy: 10, Health: 20, Level: 1, Money: decimal.NewFromInt(100)},
			stat:        StatHappy,
			points:      10,
			wantOutcome: StatApplied,
			validate: func(t *testing.T, got UserInfo) {
				if got.Happy != 20 {
					t.Errorf("expected happy 20, got %d", got.Happy)
				}
				if got.Health != 20 {
					t.Errorf("expected health untouched at 20, got %d", got.Health)
				}
			},
		},
		{
			name:        "clamped at ceiling",
			info:        UserInfo{Happy: 95, Health: 20, Level: 1, Money: decimal.NewFromInt(100)},
			stat:        StatHappy,
			points:      10,
			wantOutcome: StatApplied,
			validate: func(t *testing.T, got UserInfo) {
				if got.Happy != 100 {
					t.Errorf("expected happy clamped to 100, got %d", got.Happy)
				}
			},
		},
		{
			name:        "no-op when already at ceiling",
			info:        UserInfo{Happy: 100, Health: 20, Level: 1, Money: decimal.NewFromInt(100)},
			stat:        StatHappy,
			points:      10,
			wantOutcome: StatUnchanged,
			validate: func(t *testing.T, got UserInfo) {
				if got.Happy != 100 {
					t.Errorf("expected happy unchanged at 100, got %d", got.Happy)
				}
			},
		},
		{
			name:        "level up when both stats reach ceiling",
			info:        UserInfo{Happy: 95, Health: 100, Level: 1, Money: decimal.NewFromInt(50)},
			stat:        StatHappy,
			points:      10,
			wantOutcome: StatLeveledUp,
			validate: func(t *testing.T, got UserInfo) {
				if got.Happy != 0 || got.Health != 0 {
					t.Errorf("expected stats reset to 0, got happy=%d health=%d", got.Happy, got.Health)
				}
				if got.Level != 2 {
					t.Errorf("expected level 2, got %d", got.Level)
				}
				if !got.Money.Equal(decimal.NewFromInt(80)) {
					t.Errorf("expected money 80, got %s", got.Money)
				}
			},
		},
		{
			name:        "level up via health when happy maxed first",
			info:        UserInfo{Happy: 100, Health: 95, Level: 3, Money: decimal.NewFromInt(0)},
			stat:        StatHealth,
			points:      20,
			wantOutcome: StatLeveledUp,
			validate: func(t *testing.T, got UserInfo) {
				if got.Level != 4 {
					t.Errorf("expected level 4, got %d", got.Level)
				}
				if !got.Money.Equal(decimal.NewFromInt(30)) {
					t.Errorf("expected money 30, got %s", got.Money)
				}
			},
		},
		{
			name:        "no level up when other stat below ceiling",
			info:        UserInfo{Happy: 95, Health: 99, Level: 1, Money: decimal.NewFromInt(100)},
			stat:        StatHappy,
			points:      10,
			wantOutcome: StatApplied,
			validate: func(t *testing.T, got UserInfo) {
				if got.Happy != 100 {
					t.Errorf("expected happy 100, got %d", got.Happy)
				}
				if got.Level != 1 {
					t.Errorf("expected level unchanged at 1, got %d", got.Level)
				}
			},
		},
		{
			name:    "unknown stat",
			info:    UserInfo{Happy: 10, Health: 10},
			stat:    StatType("hunger"),
			points:  10,
			wantErr: true,
		},
		{
			name:    "negative points rejected",
			info:    UserInfo{Happy: 10, Health: 10, Level: 1, Money: decimal.NewFromInt(100)},
			stat:    StatHappy,
			points:  -20,
			wantErr: true,
		},
		{
			name:        "zero points is a plain apply",
			info:        UserInfo{Happy: 10, Health: 10, Level: 1, Money: decimal.NewFromInt(100)},
			stat:        StatHappy,
			points:      0,
			wantOutcome: StatApplied,
			validate: func(t *testing.T, got UserInfo) {
				if got.Happy != 10 {
					t.Errorf("expected happy unchanged at 10, got %d", got.Happy)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, outcome, err := ApplyStatDelta(tt.info, tt.stat, tt.points, rules)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if outcome != tt.wantOutcome {
				t.Errorf("expected outcome %d, got %d", tt.wantOutcome, outcome)
			}
			if tt.validate != nil {
				tt.validate(t, got)
			}
		})
	}
}

func TestApplyStatDeltaDoesNotMutateInput(t *testing.T) {
	info := UserInfo{Happy: 10, Health: 10, Level: 1, Money: decimal.NewFromInt(100)}
	if _, _, err := ApplyStatDelta(info, StatHappy, 50, DefaultRules()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Happy != 10 {
		t.Errorf("input mutated: happy = %d", info.Happy)
	}
}

func TestLevelUpOrderIndependence(t *testing.T) {
	// happy=90 health=95: whichever stat is topped up last triggers the
	// level-up, so both orders land on the same result.
	rules := DefaultRules()
	start := UserInfo{Happy: 90, Health: 95, Level: 1, Money: decimal.NewFromInt(10)}

	happyFirst, _, err := ApplyStatDelta(start, StatHappy, 10, rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	happyFirst, o1, err := ApplyStatDelta(happyFirst, StatHealth, 5, rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	healthFirst, _, err := ApplyStatDelta(start, StatHealth, 5, rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	healthFirst, o2, err := ApplyStatDelta(healthFirst, StatHappy, 10, rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if o1 != StatLeveledUp || o2 != StatLeveledUp {
		t.Fatalf("expected both orders to level up, got %d and %d", o1, o2)
	}
	if happyFirst.Level != healthFirst.Level || happyFirst.Level != 2 {
		t.Errorf("expected level 2 both ways, got %d and %d", happyFirst.Level, healthFirst.Level)
	}
	if !happyFirst.Money.Equal(healthFirst.Money) {
		t.Errorf("expected same money both ways, got %s and %s", happyFirst.Money, healthFirst.Money)
	}
	if happyFirst.Happy != 0 || happyFirst.Health != 0 {
		t.Errorf("expected stats reset, got happy=%d health=%d", happyFirst.Happy, happyFirst.Health)
	}
}

func TestApplyPurchase(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name       string
		money      int64
		itemID     string
		price      int64
		slot       Slot
		wantStatus PurchaseStatus
		wantErr    bool
		validate   func(t *testing.T, got *PurchaseResult)
	}{
		{
			name:       "accepted purchase deducts ten times price",
			money:      100,
			itemID:     "cap-red",
			price:      5,
			slot:       SlotCap,
			wantStatus: PurchaseAccepted,
			validate: func(t *testing.T, got *PurchaseResult) {
				if !got.Cost.Equal(decimal.NewFromInt(50)) {
					t.Errorf("expected cost 50, got %s", got.Cost)
				}
				if !got.RemainingMoney.Equal(decimal.NewFromInt(50)) {
					t.Errorf("expected remaining 50, got %s", got.RemainingMoney)
				}
				if items := got.Items[SlotCap]; len(items) != 1 || items[0] != "cap-red" {
					t.Errorf("expected cap inventory [cap-red], got %v", items)
				}
			},
		},
		{
			name:       "rejected when cost exceeds money",
			money:      80,
			itemID:     "bag-blue",
			price:      9,
			slot:       SlotBag,
			wantStatus: PurchaseInsufficientFunds,
			validate: func(t *testing.T, got *PurchaseResult) {
				if !got.RemainingMoney.Equal(decimal.NewFromInt(80)) {
					t.Errorf("expected money untouched at 80, got %s", got.RemainingMoney)
				}
				if got.Items != nil {
					t.Errorf("expected nil items on rejection, got %v", got.Items)
				}
			},
		},
		{
			name:       "exact money is accepted",
			money:      50,
			itemID:     "acc-star",
			price:      5,
			slot:       SlotAcc,
			wantStatus: PurchaseAccepted,
			validate: func(t *testing.T, got *PurchaseResult) {
				if !got.RemainingMoney.Equal(decimal.Zero) {
					t.Errorf("expected remaining 0, got %s", got.RemainingMoney)
				}
			},
		},
		{
			name:    "unknown slot",
			money:   100,
			itemID:  "hat-x",
			price:   1,
			slot:    Slot("hat"),
			wantErr: true,
		},
		{
			name:       "free item is accepted without deduction",
			money:      100,
			itemID:     "acc-promo",
			price:      0,
			slot:       SlotAcc,
			wantStatus: PurchaseAccepted,
			validate: func(t *testing.T, got *PurchaseResult) {
				if !got.RemainingMoney.Equal(decimal.NewFromInt(100)) {
					t.Errorf("expected money untouched at 100, got %s", got.RemainingMoney)
				}
				if items := got.Items[SlotAcc]; len(items) != 1 || items[0] != "acc-promo" {
					t.Errorf("expected acc inventory [acc-promo], got %v", items)
				}
			},
		},
		{
			name:    "negative price rejected",
			money:   100,
			itemID:  "acc-glitch",
			price:   -5,
			slot:    SlotAcc,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := NewUserProfile("mimi", "photo.png")
			profile.UserInfo.Money = decimal.NewFromInt(tt.money)

			got, err := ApplyPurchase(profile, tt.itemID, tt.price, tt.slot, rules)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, got.Status)
			}
			if !profile.UserInfo.Money.Equal(decimal.NewFromInt(tt.money)) {
				t.Errorf("profile mutated: money = %s", profile.UserInfo.Money)
			}
			if tt.validate != nil {
				tt.validate(t, got)
			}
		})
	}
}

func TestApplyPurchaseSequence(t *testing.T) {
	// Starting money 100: two price-5 items (cost 50 each) drain the
	// wallet, the third attempt is rejected.
	rules := DefaultRules()
	profile := NewUserProfile("mimi", "")

	first, err := ApplyPurchase(profile, "cap-red", 5, SlotCap, rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Status != PurchaseAccepted {
		t.Fatal("expected first purchase accepted")
	}

	profile.UserInfo.Money = first.RemainingMoney
	profile.BoughtItem = first.Items

	second, err := ApplyPurchase(profile, "cap-blue", 5, SlotCap, rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Status != PurchaseAccepted {
		t.Fatal("expected second purchase accepted")
	}
	if !second.RemainingMoney.Equal(decimal.Zero) {
		t.Errorf("expected remaining 0, got %s", second.RemainingMoney)
	}
	if items := second.Items[SlotCap]; len(items) != 2 || items[1] != "cap-blue" {
		t.Errorf("expected purchase order preserved, got %v", items)
	}

	profile.UserInfo.Money = second.RemainingMoney
	profile.BoughtItem = second.Items

	third, err := ApplyPurchase(profile, "cap-green", 1, SlotCap, rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if third.Status != PurchaseInsufficientFunds {
		t.Fatal("expected third purchase rejected")
	}
}
