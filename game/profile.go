package game

import (
	"encoding/json"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Slot identifies an equippable clothing category.
// The slot set is closed - profiles never grow new slots.
type Slot string

// Clothing slots
const (
	SlotHair   Slot = "hair"
	SlotCap    Slot = "cap"
	SlotBag    Slot = "bag"
	SlotAcc    Slot = "acc"
	SlotGlass  Slot = "glass"
	SlotRibbon Slot = "ribbon"
	SlotTshirt Slot = "tshirt"
)

// allSlots is the canonical slot order used when building new profiles
var allSlots = []Slot{SlotHair, SlotCap, SlotBag, SlotAcc, SlotGlass, SlotRibbon, SlotTshirt}

// Slots returns the closed set of clothing slots
func Slots() []Slot {
	out := make([]Slot, len(allSlots))
	copy(out, allSlots)
	return out
}

// ValidSlot reports whether s is a member of the closed slot set
func ValidSlot(s Slot) bool {
	return lo.Contains(allSlots, s)
}

// Default profile values applied at first login
const (
	DefaultStartingMoney = 100
	DefaultStartingLevel = 1
)

// UserInfo holds the pet owner's display data and mutable stats
type UserInfo struct {
	Name   string          `json:"name" mapstructure:"name"`
	Photo  string          `json:"photo" mapstructure:"photo"`
	Money  decimal.Decimal `json:"money" mapstructure:"money"`
	Level  int             `json:"level" mapstructure:"level"`
	Happy  int             `json:"happy" mapstructure:"happy"`
	Health int             `json:"health" mapstructure:"health"`
}

// Wardrobe maps each slot to the currently equipped item id ("" = nothing)
type Wardrobe map[Slot]string

// Inventory maps each slot to the owned item ids in purchase order
type Inventory map[Slot][]string

// Clone returns a deep copy of the wardrobe
func (w Wardrobe) Clone() Wardrobe {
	out := make(Wardrobe, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy of the inventory
func (inv Inventory) Clone() Inventory {
	out := make(Inventory, len(inv))
	for k, v := range inv {
		items := make([]string, len(v))
		copy(items, v)
		out[k] = items
	}
	return out
}

// UserProfile is the per-user document persisted in the profile store.
// It is created once at first login and merge-patched afterwards.
type UserProfile struct {
	UserInfo    UserInfo  `json:"userInfo" mapstructure:"userInfo"`
	UserClothes Wardrobe  `json:"userClothes" mapstructure:"userClothes"`
	BoughtItem  Inventory `json:"boughtItem" mapstructure:"boughtItem"`
}

// NewUserProfile builds the default first-login profile for a user
func NewUserProfile(name, photo string) *UserProfile {
	return NewProfileWithRules(name, photo, DefaultRules())
}

// NewProfileWithRules builds the first-login profile with the configured
// starting money and level
func NewProfileWithRules(name, photo string, rules Rules) *UserProfile {
	clothes := make(Wardrobe, len(allSlots))
	bought := make(Inventory, len(allSlots))
	for _, s := range allSlots {
		clothes[s] = ""
		bought[s] = []string{}
	}

	return &UserProfile{
		UserInfo: UserInfo{
			Name:  name,
			Photo: photo,
			Money: decimal.NewFromInt(rules.StartingMoney),
			Level: rules.StartingLevel,
		},
		UserClothes: clothes,
		BoughtItem:  bought,
	}
}

// Clone returns a deep copy of the profile
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	return &UserProfile{
		UserInfo:    p.UserInfo,
		UserClothes: p.UserClothes.Clone(),
		BoughtItem:  p.BoughtItem.Clone(),
	}
}

// ToJSON serializes the profile document
func (p *UserProfile) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}

// ProfileFromJSON deserializes a profile document
func ProfileFromJSON(data []byte) (*UserProfile, error) {
	var p UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ProfilePatch is a shallow top-level merge patch for a profile document.
// Only non-nil fields are written; nested values are replaced wholesale,
// never deep-merged.
type ProfilePatch struct {
	UserInfo    *UserInfo `json:"userInfo,omitempty"`
	UserClothes Wardrobe  `json:"userClothes,omitempty"`
	BoughtItem  Inventory `json:"boughtItem,omitempty"`
}

// Apply merges the patch into doc, replacing top-level fields wholesale
func (patch ProfilePatch) Apply(doc *UserProfile) {
	if patch.UserInfo != nil {
		doc.UserInfo = *patch.UserInfo
	}
	if patch.UserClothes != nil {
		doc.UserClothes = patch.UserClothes.Clone()
	}
	if patch.BoughtItem != nil {
		doc.BoughtItem = patch.BoughtItem.Clone()
	}
}

// AuthUser is the identity-provider view of the signed-in user
type AuthUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
}
