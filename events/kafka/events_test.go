package kafka

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/minjispace/web-pet/game"
)

func TestDecodeProfile(t *testing.T) {
	raw := []byte(`{
		"user_id": "u1",
		"profile": {
			"userInfo": {"name": "mimi", "photo": "p.png", "money": 70, "level": 2, "happy": 40, "health": 60},
			"userClothes": {"hair": "hair-2", "cap": ""},
			"boughtItem": {"hair": ["hair-2"], "cap": []}
		}
	}`)

	var event ProfileUpdateEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	profile, err := event.DecodeProfile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if profile.UserInfo.Name != "mimi" {
		t.Errorf("expected name mimi, got %q", profile.UserInfo.Name)
	}
	if !profile.UserInfo.Money.Equal(decimal.NewFromInt(70)) {
		t.Errorf("expected money 70, got %s", profile.UserInfo.Money)
	}
	if profile.UserInfo.Level != 2 || profile.UserInfo.Happy != 40 {
		t.Errorf("unexpected stats: %+v", profile.UserInfo)
	}
	if profile.UserClothes[game.SlotHair] != "hair-2" {
		t.Errorf("expected hair-2 equipped, got %q", profile.UserClothes[game.SlotHair])
	}
	if items := profile.BoughtItem[game.SlotHair]; len(items) != 1 || items[0] != "hair-2" {
		t.Errorf("expected hair inventory, got %v", items)
	}
}

func TestDecodeProfileMoneyAsString(t *testing.T) {
	// Some producers serialize decimals as strings
	event := ProfileUpdateEvent{
		UserID: "u1",
		Profile: map[string]interface{}{
			"userInfo": map[string]interface{}{
				"name":  "mimi",
				"money": "123.5",
			},
		},
	}

	profile, err := event.DecodeProfile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := decimal.NewFromString("123.5")
	if !profile.UserInfo.Money.Equal(want) {
		t.Errorf("expected money 123.5, got %s", profile.UserInfo.Money)
	}
}
