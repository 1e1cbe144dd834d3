package game

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewUserProfile(t *testing.T) {
	p := NewUserProfile("mimi", "photo.png")

	if p.UserInfo.Name != "mimi" || p.UserInfo.Photo != "photo.png" {
		t.Errorf("unexpected identity: %+v", p.UserInfo)
	}
	if !p.UserInfo.Money.Equal(decimal.NewFromInt(DefaultStartingMoney)) {
		t.Errorf("expected starting money %d, got %s", DefaultStartingMoney, p.UserInfo.Money)
	}
	if p.UserInfo.Level != DefaultStartingLevel {
		t.Errorf("expected starting level %d, got %d", DefaultStartingLevel, p.UserInfo.Level)
	}
	if p.UserInfo.Happy != 0 || p.UserInfo.Health != 0 {
		t.Errorf("expected zero stats, got happy=%d health=%d", p.UserInfo.Happy, p.UserInfo.Health)
	}

	for _, s := range Slots() {
		if equipped, ok := p.UserClothes[s]; !ok || equipped != "" {
			t.Errorf("slot %s: expected empty wardrobe entry, got %q (present=%v)", s, equipped, ok)
		}
		if items, ok := p.BoughtItem[s]; !ok || len(items) != 0 {
			t.Errorf("slot %s: expected empty inventory entry, got %v (present=%v)", s, items, ok)
		}
	}
}

func TestNewProfileWithRules(t *testing.T) {
	rules := DefaultRules()
	rules.StartingMoney = 500
	rules.StartingLevel = 3

	p := NewProfileWithRules("mimi", "", rules)
	if !p.UserInfo.Money.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected configured starting money 500, got %s", p.UserInfo.Money)
	}
	if p.UserInfo.Level != 3 {
		t.Errorf("expected configured starting level 3, got %d", p.UserInfo.Level)
	}
}

func TestValidSlot(t *testing.T) {
	for _, s := range Slots() {
		if !ValidSlot(s) {
			t.Errorf("expected %s to be valid", s)
		}
	}
	for _, s := range []Slot{"hat", "shoes", "", "HAIR"} {
		if ValidSlot(s) {
			t.Errorf("expected %s to be invalid", s)
		}
	}
}

func TestProfileClone(t *testing.T) {
	p := NewUserProfile("mimi", "")
	p.BoughtItem[SlotCap] = []string{"cap-red"}
	p.UserClothes[SlotCap] = "cap-red"

	clone := p.Clone()
	clone.BoughtItem[SlotCap][0] = "changed"
	clone.BoughtItem[SlotBag] = append(clone.BoughtItem[SlotBag], "bag-x")
	clone.UserClothes[SlotCap] = "other"

	if p.BoughtItem[SlotCap][0] != "cap-red" {
		t.Error("clone shares inventory slice with original")
	}
	if len(p.BoughtItem[SlotBag]) != 0 {
		t.Error("clone shares inventory map with original")
	}
	if p.UserClothes[SlotCap] != "cap-red" {
		t.Error("clone shares wardrobe map with original")
	}
}

func TestProfilePatchApply(t *testing.T) {
	tests := []struct {
		name     string
		patch    ProfilePatch
		validate func(t *testing.T, doc *UserProfile)
	}{
		{
			name: "userInfo replaced wholesale",
			patch: ProfilePatch{
				UserInfo: &UserInfo{Name: "mimi", Money: decimal.NewFromInt(70), Level: 2},
			},
			validate: func(t *testing.T, doc *UserProfile) {
				if !doc.UserInfo.Money.Equal(decimal.NewFromInt(70)) {
					t.Errorf("expected money 70, got %s", doc.UserInfo.Money)
				}
				if doc.UserInfo.Level != 2 {
					t.Errorf("expected level 2, got %d", doc.UserInfo.Level)
				}
				// wholesale replace: photo not carried from the old value
				if doc.UserInfo.Photo != "" {
					t.Errorf("expected photo cleared by wholesale replace, got %q", doc.UserInfo.Photo)
				}
			},
		},
		{
			name: "nil fields untouched",
			patch: ProfilePatch{
				BoughtItem: Inventory{SlotCap: {"cap-red"}},
			},
			validate: func(t *testing.T, doc *UserProfile) {
				if doc.UserInfo.Name != "mimi" {
					t.Errorf("expected userInfo untouched, got %+v", doc.UserInfo)
				}
				if items := doc.BoughtItem[SlotCap]; len(items) != 1 || items[0] != "cap-red" {
					t.Errorf("expected inventory replaced, got %v", items)
				}
			},
		},
		{
			name: "wardrobe replaced wholesale",
			patch: ProfilePatch{
				UserClothes: Wardrobe{SlotHair: "hair-2"},
			},
			validate: func(t *testing.T, doc *UserProfile) {
				if doc.UserClothes[SlotHair] != "hair-2" {
					t.Errorf("expected hair-2, got %q", doc.UserClothes[SlotHair])
				}
				// replace, not merge: other slots are gone
				if _, ok := doc.UserClothes[SlotCap]; ok {
					t.Error("expected wardrobe replaced wholesale, cap slot survived")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewUserProfile("mimi", "photo.png")
			tt.patch.Apply(doc)
			tt.validate(t, doc)
		})
	}
}

func TestProfileJSONRoundTrip(t *testing.T) {
	p := NewUserProfile("mimi", "photo.png")
	p.BoughtItem[SlotCap] = []string{"cap-red", "cap-blue"}

	data, err := p.ToJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := ProfileFromJSON(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserInfo.Name != "mimi" {
		t.Errorf("expected name mimi, got %q", got.UserInfo.Name)
	}
	if !got.UserInfo.Money.Equal(p.UserInfo.Money) {
		t.Errorf("expected money %s, got %s", p.UserInfo.Money, got.UserInfo.Money)
	}
	if items := got.BoughtItem[SlotCap]; len(items) != 2 || items[0] != "cap-red" {
		t.Errorf("expected cap inventory preserved, got %v", items)
	}
}
