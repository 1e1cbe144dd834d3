package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	coreredis "github.com/minjispace/web-pet/db/redis"
	"github.com/minjispace/web-pet/game"
	"github.com/minjispace/web-pet/pkg/providers"
)

// RedisProfileStore implements providers.ProfileStore on Redis.
//
// Documents live at pet:profile:<userID> as JSON. Every successful write
// publishes the full resulting document on pet:profile:events:<userID>,
// which backs Subscribe.
type RedisProfileStore struct {
	redis  *coreredis.Client
	logger zerolog.Logger
}

// NewRedisProfileStore creates a Redis-backed profile store
func NewRedisProfileStore(redisClient *coreredis.Client, logger zerolog.Logger) *RedisProfileStore {
	return &RedisProfileStore{
		redis:  redisClient,
		logger: logger.With().Str("component", "profile_store").Logger(),
	}
}

func (s *RedisProfileStore) profileKey(userID string) string {
	return fmt.Sprintf("pet:profile:%s", userID)
}

func (s *RedisProfileStore) eventChannel(userID string) string {
	return fmt.Sprintf("pet:profile:events:%s", userID)
}

// Get retrieves a profile document, returning (nil, nil) when absent
func (s *RedisProfileStore) Get(ctx context.Context, userID string) (*game.UserProfile, error) {
	var doc game.UserProfile
	err := s.redis.GetJSON(ctx, s.profileKey(userID), &doc)
	if errors.Is(err, coreredis.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &doc, nil
}

// Set overwrites the whole profile document
func (s *RedisProfileStore) Set(ctx context.Context, userID string, doc *game.UserProfile) error {
	data, err := doc.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := s.redis.Set(ctx, s.profileKey(userID), string(data), 0); err != nil {
		return fmt.Errorf("failed to set profile: %w", err)
	}
	s.notify(ctx, userID, string(data))
	return nil
}

// Update applies a shallow top-level merge patch to the stored document.
// The read-modify-write runs inside the Redis client's optimistic
// transaction, so two concurrent patches never lose a write.
func (s *RedisProfileStore) Update(ctx context.Context, userID string, patch game.ProfilePatch) error {
	var updated string
	err := s.redis.UpdateJSON(ctx, s.profileKey(userID), func(current string) (string, error) {
		doc, err := game.ProfileFromJSON([]byte(current))
		if err != nil {
			return "", fmt.Errorf("stored profile is corrupt: %w", err)
		}
		patch.Apply(doc)
		next, err := doc.ToJSON()
		if err != nil {
			return "", fmt.Errorf("failed to marshal profile: %w", err)
		}
		updated = string(next)
		return updated, nil
	})
	if errors.Is(err, coreredis.ErrNotFound) {
		return fmt.Errorf("no profile document for user %s: %w", userID, err)
	}
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	s.notify(ctx, userID, updated)
	return nil
}

// Subscribe delivers the full document on every change until ctx is done
func (s *RedisProfileStore) Subscribe(ctx context.Context, userID string) (<-chan *game.UserProfile, error) {
	payloads, err := s.redis.Subscribe(ctx, s.eventChannel(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to profile events: %w", err)
	}

	out := make(chan *game.UserProfile, 8)
	go func() {
		defer close(out)
		for payload := range payloads {
			doc, err := game.ProfileFromJSON([]byte(payload))
			if err != nil {
				s.logger.Error().Err(err).Str("user_id", userID).Msg("Dropping malformed profile event")
				continue
			}
			select {
			case out <- doc:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// notify publishes the updated document for live subscribers. Delivery is
// best-effort; a publish failure never fails the write that caused it.
func (s *RedisProfileStore) notify(ctx context.Context, userID, payload string) {
	if err := s.redis.Publish(ctx, s.eventChannel(userID), payload); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to publish profile event")
	}
}

// interface guard
var _ providers.ProfileStore = (*RedisProfileStore)(nil)
