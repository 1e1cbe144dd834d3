package server

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/minjispace/web-pet/errors"
	kafkaevents "github.com/minjispace/web-pet/events/kafka"
	"github.com/minjispace/web-pet/game"
	"github.com/minjispace/web-pet/pkg/feed"
	"github.com/minjispace/web-pet/pkg/providers"
)

// SessionService orchestrates the player session: login, logout, session
// restore, the live profile subscription, and the stat/economy updates.
//
// Flow: sessionRoutes -> sessionHandler -> sessionService -> providers
//
// All collaborators are constructor-injected; there are no package-level
// singletons. State transitions go through the pure reducer in game; the
// service only decides which actions to dispatch and what to persist.
type SessionService struct {
	identity providers.IdentityProvider
	store    providers.ProfileStore
	rules    game.Rules
	logger   zerolog.Logger

	producer    EventPublisher
	topics      map[string]string
	broadcaster *feed.Broadcaster

	mu    sync.Mutex
	state game.State

	// subMu serializes subscription management; without it two concurrent
	// logins could each establish a subscription and leak one
	subMu     sync.Mutex
	subCancel context.CancelFunc
	subUserID string
}

// EventPublisher is the producer seam for game events. Satisfied by
// *kafka.Producer; emission failures are logged, never surfaced.
type EventPublisher interface {
	SendMessage(topic string, key string, value interface{}) error
}

// NewSessionService creates a new session service
func NewSessionService(
	identity providers.IdentityProvider,
	store providers.ProfileStore,
	rules game.Rules,
	logger zerolog.Logger,
) *SessionService {
	return &SessionService{
		identity: identity,
		store:    store,
		rules:    rules,
		logger:   logger.With().Str("service", "session").Logger(),
		state:    game.InitialState(),
	}
}

// SetEventProducer wires the optional event producer. Topic keys used:
// "logins", "purchases", "levelups".
func (s *SessionService) SetEventProducer(producer EventPublisher, topics map[string]string) {
	s.producer = producer
	s.topics = topics
}

// SetBroadcaster wires the optional snapshot broadcaster used by the
// websocket stream
func (s *SessionService) SetBroadcaster(b *feed.Broadcaster) {
	s.broadcaster = b
}

// dispatch runs an action through the reducer and publishes the new snapshot
func (s *SessionService) dispatch(a game.Action) {
	s.mu.Lock()
	s.state = game.Reduce(s.state, a)
	snapshot := s.state
	s.mu.Unlock()

	if s.broadcaster != nil {
		s.broadcaster.Send(snapshot)
	}
}

// Snapshot returns the current session state. The contained profile is
// immutable by convention; callers must not modify it.
func (s *SessionService) Snapshot() game.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Profile returns the loaded profile, or nil when unauthenticated
func (s *SessionService) Profile() *game.UserProfile {
	return s.Snapshot().LoadUser
}

// ActiveUserID returns the signed-in user id ("" when unauthenticated)
func (s *SessionService) ActiveUserID() string {
	st := s.Snapshot()
	if st.AuthUser == nil {
		return ""
	}
	return st.AuthUser.ID
}

// IsLoading reports whether a session operation is in flight
func (s *SessionService) IsLoading() bool {
	return s.Snapshot().IsLoading
}

// Err returns the last surfaced error message ("" when none)
func (s *SessionService) Err() string {
	return s.Snapshot().Err
}

// Login runs the sign-in flow. A first-time user gets a default profile
// document written to the store; a returning user's document is loaded
// verbatim. Identity and store faults are surfaced into the session error
// field and returned as typed errors.
func (s *SessionService) Login(ctx context.Context) error {
	sess, err := s.identity.SignIn(ctx)
	if err != nil {
		s.dispatch(game.Action{Type: game.ActionSetError, Payload: err.Error()})
		return errors.Wrap(err, errors.ErrAuthFailure, "sign-in failed")
	}

	s.dispatch(game.Action{Type: game.ActionLoginAuth, Payload: sess.AuthUser()})

	doc, err := s.store.Get(ctx, sess.UserID)
	if err != nil {
		s.dispatch(game.Action{Type: game.ActionSetError, Payload: err.Error()})
		return errors.Wrap(err, errors.ErrStoreFailure, "failed to check profile")
	}

	newUser := doc == nil
	if newUser {
		doc = game.NewProfileWithRules(sess.DisplayName, sess.PhotoURL, s.rules)
		if err := s.store.Set(ctx, sess.UserID, doc); err != nil {
			s.dispatch(game.Action{Type: game.ActionSetError, Payload: err.Error()})
			return errors.Wrap(err, errors.ErrStoreFailure, "failed to create profile")
		}
		s.logger.Info().Str("user_id", sess.UserID).Msg("Created default profile for new user")
	}

	s.dispatch(game.Action{Type: game.ActionLoadUserData, Payload: doc})

	if err := s.subscribeProfile(sess.UserID); err != nil {
		s.dispatch(game.Action{Type: game.ActionSetError, Payload: err.Error()})
		return errors.Wrap(err, errors.ErrStoreFailure, "failed to subscribe to profile")
	}

	s.emitLogin(sess, newUser)
	return nil
}

// RestoreSession rebuilds session state from the ambient identity session.
// Called once at startup. A returning session re-fetches the profile by id
// without the first-login existence check.
func (s *SessionService) RestoreSession(ctx context.Context) error {
	sess, err := s.identity.CurrentSession(ctx)
	if err != nil {
		s.dispatch(game.Action{Type: game.ActionSetError, Payload: err.Error()})
		return errors.Wrap(err, errors.ErrAuthFailure, "session restore failed")
	}

	if sess == nil || sess.DisplayName == "" {
		s.dispatch(game.Action{Type: game.ActionOffLoading})
		return nil
	}

	s.dispatch(game.Action{Type: game.ActionLoginAuth, Payload: sess.AuthUser()})

	doc, err := s.store.Get(ctx, sess.UserID)
	if err != nil {
		s.dispatch(game.Action{Type: game.ActionSetError, Payload: err.Error()})
		return errors.Wrap(err, errors.ErrStoreFailure, "failed to load profile")
	}
	if doc == nil {
		msg := "profile document missing for restored session"
		s.dispatch(game.Action{Type: game.ActionSetError, Payload: msg})
		return errors.New(errors.ErrProfileNotFound, msg)
	}

	s.dispatch(game.Action{Type: game.ActionLoadUserData, Payload: doc})

	if err := s.subscribeProfile(sess.UserID); err != nil {
		s.dispatch(game.Action{Type: game.ActionSetError, Payload: err.Error()})
		return errors.Wrap(err, errors.ErrStoreFailure, "failed to subscribe to profile")
	}
	return nil
}

// Logout signs out and resets session state. The live subscription is
// released whatever the sign-out outcome.
func (s *SessionService) Logout(ctx context.Context) error {
	s.dispatch(game.Action{Type: game.ActionSetLoading})

	s.unsubscribeProfile()

	if err := s.identity.SignOut(ctx); err != nil {
		s.dispatch(game.Action{Type: game.ActionSetError, Payload: err.Error()})
		return errors.Wrap(err, errors.ErrAuthFailure, "sign-out failed")
	}

	s.dispatch(game.Action{Type: game.ActionLogoutAuth})
	return nil
}

// HandleStatChange applies points to a pet stat and persists the result.
// Requires a loaded profile; a stat already at the ceiling is an explicit
// no-op with no persistence.
func (s *SessionService) HandleStatChange(ctx context.Context, stat game.StatType, points int) error {
	s.mu.Lock()
	profile := s.state.LoadUser
	var userID string
	if s.state.AuthUser != nil {
		userID = s.state.AuthUser.ID
	}
	s.mu.Unlock()

	if profile == nil || userID == "" {
		return errors.New(errors.ErrInvalidState, "no profile loaded")
	}

	info, outcome, err := game.ApplyStatDelta(profile.UserInfo, stat, points, s.rules)
	if err != nil {
		return errors.Wrap(err, errors.ErrInvalidRequest, "invalid stat change")
	}
	if outcome == game.StatUnchanged {
		return nil
	}

	if err := s.store.Update(ctx, userID, game.ProfilePatch{UserInfo: &info}); err != nil {
		s.dispatch(game.Action{Type: game.ActionSetError, Payload: err.Error()})
		return errors.Wrap(err, errors.ErrStoreFailure, "failed to persist stat change")
	}

	updated := profile.Clone()
	updated.UserInfo = info
	s.dispatch(game.Action{Type: game.ActionLoadUserData, Payload: updated})

	if outcome == game.StatLeveledUp {
		s.logger.Info().
			Str("user_id", userID).
			Int("level", info.Level).
			Msg("Pet leveled up")
		s.emitLevelUp(userID, info.Level)
	}
	return nil
}

// HandlePurchase evaluates a purchase and, when accepted, appends the item
// to the inventory, deducts the cost and persists both in one merge-patch.
// The decision is returned to the caller; presentation stays in the UI.
func (s *SessionService) HandlePurchase(ctx context.Context, itemID string, unitPrice int64, slot game.Slot) (*game.PurchaseResult, error) {
	s.mu.Lock()
	profile := s.state.LoadUser
	var userID string
	if s.state.AuthUser != nil {
		userID = s.state.AuthUser.ID
	}
	s.mu.Unlock()

	if profile == nil || userID == "" {
		return nil, errors.New(errors.ErrInvalidState, "no profile loaded")
	}

	result, err := game.ApplyPurchase(profile, itemID, unitPrice, slot, s.rules)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrUnknownSlot, "invalid purchase")
	}
	if result.Status == game.PurchaseInsufficientFunds {
		s.logger.Debug().
			Str("user_id", userID).
			Str("item_id", itemID).
			Str("cost", result.Cost.String()).
			Msg("Purchase rejected: insufficient funds")
		return result, nil
	}

	s.dispatch(game.Action{Type: game.ActionBuyItem, Payload: game.BuyItemPayload{
		Items:          result.Items,
		RemainingMoney: result.RemainingMoney,
	}})

	info := profile.UserInfo
	info.Money = result.RemainingMoney
	patch := game.ProfilePatch{
		UserInfo:   &info,
		BoughtItem: result.Items,
	}
	if err := s.store.Update(ctx, userID, patch); err != nil {
		s.dispatch(game.Action{Type: game.ActionSetError, Payload: err.Error()})
		return nil, errors.Wrap(err, errors.ErrStoreFailure, "failed to persist purchase")
	}

	s.emitPurchase(userID, result)
	return result, nil
}

// ApplyRemoteUpdate feeds an externally observed profile update (e.g. from
// the Kafka profile-updates feed) into the session. Updates for other users
// are ignored.
func (s *SessionService) ApplyRemoteUpdate(userID string, profile *game.UserProfile) {
	if profile == nil || userID == "" || userID != s.ActiveUserID() {
		return
	}
	s.dispatch(game.Action{Type: game.ActionLoadUserClothes, Payload: profile})
}

// subscribeProfile (re-)establishes the live profile subscription. At most
// one subscription is active; switching users cancels the previous one so a
// stale user id can never receive deliveries. subMu is held across the
// whole acquire, including the store call, so concurrent logins cannot
// each subscribe and strand one uncancelled.
func (s *SessionService) subscribeProfile(userID string) error {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.subUserID == userID && s.subCancel != nil {
		return nil
	}
	if s.subCancel != nil {
		s.subCancel()
		s.subCancel = nil
		s.subUserID = ""
	}

	subCtx, cancel := context.WithCancel(context.Background())
	ch, err := s.store.Subscribe(subCtx, userID)
	if err != nil {
		cancel()
		return err
	}

	s.subCancel = cancel
	s.subUserID = userID

	go func() {
		for doc := range ch {
			s.dispatch(game.Action{Type: game.ActionLoadUserClothes, Payload: doc})
		}
	}()

	s.logger.Debug().Str("user_id", userID).Msg("Profile subscription established")
	return nil
}

// unsubscribeProfile releases the live subscription if one is active
func (s *SessionService) unsubscribeProfile() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.subCancel != nil {
		s.subCancel()
		s.subCancel = nil
		s.subUserID = ""
	}
}

// Close releases the session's background resources
func (s *SessionService) Close() {
	s.unsubscribeProfile()
}

func (s *SessionService) emitLogin(sess *providers.Session, newUser bool) {
	if s.producer == nil {
		return
	}
	topic := s.topics["logins"]
	if topic == "" {
		return
	}
	err := s.producer.SendMessage(topic, sess.UserID, kafkaevents.LoginEvent{
		UserID:    sess.UserID,
		Name:      sess.DisplayName,
		NewUser:   newUser,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", sess.UserID).Msg("Failed to publish login event")
	}
}

func (s *SessionService) emitPurchase(userID string, result *game.PurchaseResult) {
	if s.producer == nil {
		return
	}
	topic := s.topics["purchases"]
	if topic == "" {
		return
	}
	err := s.producer.SendMessage(topic, userID, kafkaevents.PurchaseEvent{
		UserID:         userID,
		ItemID:         result.ItemID,
		Slot:           string(result.Slot),
		Cost:           result.Cost,
		RemainingMoney: result.RemainingMoney,
		Timestamp:      time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to publish purchase event")
	}
}

func (s *SessionService) emitLevelUp(userID string, level int) {
	if s.producer == nil {
		return
	}
	topic := s.topics["levelups"]
	if topic == "" {
		return
	}
	err := s.producer.SendMessage(topic, userID, kafkaevents.LevelUpEvent{
		UserID:    userID,
		Level:     level,
		Bonus:     decimal.NewFromInt(s.rules.LevelUpBonus),
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to publish level-up event")
	}
}
