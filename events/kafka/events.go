package kafka

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"

	"github.com/minjispace/web-pet/game"
)

// Event types published by the pet game
const (
	TypeLogin          = "pet.login"
	TypePurchase       = "pet.purchase"
	TypeLevelUp        = "pet.levelup"
	TypeProfileUpdated = "pet.profile.updated"
)

// LoginEvent is published on every successful login
type LoginEvent struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	NewUser   bool      `json:"new_user"`
	Timestamp time.Time `json:"timestamp"`
}

// PurchaseEvent is published on every accepted purchase
type PurchaseEvent struct {
	UserID         string          `json:"user_id"`
	ItemID         string          `json:"item_id"`
	Slot           string          `json:"slot"`
	Cost           decimal.Decimal `json:"cost"`
	RemainingMoney decimal.Decimal `json:"remaining_money"`
	Timestamp      time.Time       `json:"timestamp"`
}

// LevelUpEvent is published when both pet stats hit the ceiling
type LevelUpEvent struct {
	UserID    string          `json:"user_id"`
	Level     int             `json:"level"`
	Bonus     decimal.Decimal `json:"bonus"`
	Timestamp time.Time       `json:"timestamp"`
}

// ProfileUpdateEvent carries a remotely updated profile document. Other
// services publish these on the profile-updates topic; the consumer feeds
// them into the session as an additional subscription source.
type ProfileUpdateEvent struct {
	UserID    string                 `json:"user_id"`
	Profile   map[string]interface{} `json:"profile"`
	UpdatedAt time.Time              `json:"timestamp"`
}

// decimalHook decodes JSON numbers and strings into decimal.Decimal
func decimalHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(decimal.Decimal{}) {
		return data, nil
	}
	switch v := data.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case string:
		return decimal.NewFromString(v)
	case json.Number:
		return decimal.NewFromString(v.String())
	default:
		return data, nil
	}
}

// DecodeProfile converts the loosely-typed event payload into the domain
// profile document
func (e *ProfileUpdateEvent) DecodeProfile() (*game.UserProfile, error) {
	var profile game.UserProfile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: decimalHook,
		Result:     &profile,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(e.Profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
