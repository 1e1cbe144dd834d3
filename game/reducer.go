package game

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ActionType names a state transition
type ActionType string

// Reducer actions
const (
	ActionLoginAuth       ActionType = "LOGIN_AUTH"
	ActionLoadUserData    ActionType = "LOAD_USER_DATA"
	ActionLoadUserClothes ActionType = "LOAD_USER_CLOTHES"
	ActionBuyItem         ActionType = "BUY_ITEM"
	ActionLogoutAuth      ActionType = "LOGOUT_AUTH"
	ActionSetLoading      ActionType = "SET_LOADING"
	ActionOffLoading      ActionType = "OFF_LOADING"
	ActionSetError        ActionType = "SET_ERROR"
)

// Action is a reducer input: a type plus its typed payload
type Action struct {
	Type    ActionType
	Payload interface{}
}

// BuyItemPayload carries the precomputed inventory and remaining money for
// an accepted purchase
type BuyItemPayload struct {
	Items          Inventory
	RemainingMoney decimal.Decimal
}

// State is the session-scoped view of the user. It exists only for the
// lifetime of the process and is rebuilt from the store on restore.
// Values held by State are treated as immutable: Reduce never mutates a
// payload or a previous state in place.
type State struct {
	LoadUser  *UserProfile
	AuthUser  *AuthUser
	IsLoading bool
	Err       string
}

// InitialState returns the boot state: loading until session restore settles
func InitialState() State {
	return State{IsLoading: true}
}

// Reduce is the pure transition function over session state.
//
// Malformed payloads are programming errors, not recoverable conditions:
// Reduce panics rather than producing a structurally invalid state.
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionLoginAuth:
		user, ok := a.Payload.(*AuthUser)
		if !ok || user == nil {
			panic(fmt.Sprintf("reducer: %s requires *AuthUser payload, got %T", a.Type, a.Payload))
		}
		s.AuthUser = user
		s.IsLoading = true
		return s

	case ActionLoadUserData:
		profile, ok := a.Payload.(*UserProfile)
		if !ok || profile == nil {
			panic(fmt.Sprintf("reducer: %s requires *UserProfile payload, got %T", a.Type, a.Payload))
		}
		s.LoadUser = profile
		s.IsLoading = false
		s.Err = ""
		return s

	case ActionLoadUserClothes:
		profile, ok := a.Payload.(*UserProfile)
		if !ok || profile == nil {
			panic(fmt.Sprintf("reducer: %s requires *UserProfile payload, got %T", a.Type, a.Payload))
		}
		// Subscription delivery can trail a logout; without a loaded user
		// there is nothing to merge into.
		if s.LoadUser == nil {
			return s
		}
		merged := s.LoadUser.Clone()
		merged.UserClothes = profile.UserClothes.Clone()
		merged.BoughtItem = profile.BoughtItem.Clone()
		s.LoadUser = merged
		return s

	case ActionBuyItem:
		payload, ok := a.Payload.(BuyItemPayload)
		if !ok || payload.Items == nil {
			panic(fmt.Sprintf("reducer: %s requires BuyItemPayload payload, got %T", a.Type, a.Payload))
		}
		if s.LoadUser == nil {
			panic("reducer: BUY_ITEM dispatched with no loaded user")
		}
		updated := s.LoadUser.Clone()
		updated.BoughtItem = payload.Items.Clone()
		updated.UserInfo.Money = payload.RemainingMoney
		s.LoadUser = updated
		return s

	case ActionLogoutAuth:
		return State{}

	case ActionSetLoading:
		s.IsLoading = true
		return s

	case ActionOffLoading:
		s.IsLoading = false
		return s

	case ActionSetError:
		msg, ok := a.Payload.(string)
		if !ok {
			panic(fmt.Sprintf("reducer: %s requires string payload, got %T", a.Type, a.Payload))
		}
		s.Err = msg
		s.IsLoading = false
		return s

	default:
		panic(fmt.Sprintf("reducer: unknown action type %q", a.Type))
	}
}
