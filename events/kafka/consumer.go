package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/minjispace/web-pet/game"
)

const allUsersKey = "*"

// ProfileUpdate pairs a user id with the decoded profile document
type ProfileUpdate struct {
	UserID  string
	Profile *game.UserProfile
}

// Subscription represents a client subscription for profile updates
type Subscription struct {
	ID      string
	UserID  string
	Channel chan ProfileUpdate
}

// UserFilter decides whether updates for a user id should be processed.
// Returns true to process, false to skip.
type UserFilter func(userID string) bool

// Consumer ingests profile-update events from Kafka and fans them out to
// subscribers. It is the remote counterpart of the store's pub/sub
// subscription: other services that touch profile documents publish here.
type Consumer struct {
	reader *kafka.Reader
	logger zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.RWMutex
	subscribers map[string][]*Subscription
	userFilter  UserFilter
}

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
	Logger        zerolog.Logger
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(config ConsumerConfig) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.ConsumerGroup,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	return &Consumer{
		reader:      reader,
		logger:      config.Logger.With().Str("component", "kafka-consumer").Logger(),
		ctx:         ctx,
		cancel:      cancel,
		subscribers: make(map[string][]*Subscription),
	}
}

// Start begins consuming messages
func (c *Consumer) Start() error {
	c.wg.Add(1)
	go c.consume()
	c.logger.Info().Msg("Kafka consumer started")
	return nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	c.logger.Info().Msg("Stopping Kafka consumer...")
	c.cancel()
	c.wg.Wait()

	if err := c.reader.Close(); err != nil {
		c.logger.Error().Err(err).Msg("Error closing Kafka reader")
		return err
	}

	c.logger.Info().Msg("Kafka consumer stopped")
	return nil
}

// consume is the main consumer loop
func (c *Consumer) consume() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			msg, err := c.reader.FetchMessage(c.ctx)
			if err != nil {
				if err == context.Canceled {
					return
				}
				c.logger.Error().Err(err).Msg("Error fetching message from Kafka")
				time.Sleep(time.Second)
				continue
			}

			if err := c.handleMessage(msg); err != nil {
				c.logger.Error().
					Err(err).
					Str("topic", msg.Topic).
					Int("partition", msg.Partition).
					Int64("offset", msg.Offset).
					Msg("Error handling message")
			}

			if err := c.reader.CommitMessages(c.ctx, msg); err != nil {
				c.logger.Error().Err(err).Msg("Error committing message")
			}
		}
	}
}

// handleMessage processes a single Kafka message
func (c *Consumer) handleMessage(msg kafka.Message) error {
	var event ProfileUpdateEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return err
	}

	c.mu.RLock()
	shouldProcess := c.userFilter == nil || c.userFilter(event.UserID)
	c.mu.RUnlock()

	if !shouldProcess {
		c.logger.Debug().
			Str("user_id", event.UserID).
			Msg("Skipping profile update (not for this session)")
		return nil
	}

	profile, err := event.DecodeProfile()
	if err != nil {
		return err
	}

	update := ProfileUpdate{UserID: event.UserID, Profile: profile}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, key := range []string{event.UserID, allUsersKey} {
		for _, sub := range c.subscribers[key] {
			select {
			case sub.Channel <- update:
			default:
				c.logger.Warn().
					Str("sub_id", sub.ID).
					Str("user_id", event.UserID).
					Msg("Subscriber channel full, dropping event")
			}
		}
	}
	return nil
}

// SetUserFilter sets a filter to skip updates for users this session does
// not care about. A nil filter processes everything.
func (c *Consumer) SetUserFilter(filter UserFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userFilter = filter
}

// Subscribe subscribes to profile updates for a specific user id
func (c *Consumer) Subscribe(userID string) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := &Subscription{
		ID:      uuid.New().String(),
		UserID:  userID,
		Channel: make(chan ProfileUpdate, 10),
	}
	c.subscribers[userID] = append(c.subscribers[userID], sub)

	c.logger.Debug().
		Str("user_id", userID).
		Str("sub_id", sub.ID).
		Msg("New subscription added")

	return sub
}

// SubscribeAll subscribes to profile updates for all users
func (c *Consumer) SubscribeAll() *Subscription {
	return c.Subscribe(allUsersKey)
}

// Unsubscribe removes a subscription
func (c *Consumer) Unsubscribe(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	subs, exists := c.subscribers[sub.UserID]
	if !exists {
		return
	}

	remaining := make([]*Subscription, 0, len(subs))
	for _, s := range subs {
		if s.ID == sub.ID {
			close(s.Channel)
			continue
		}
		remaining = append(remaining, s)
	}

	if len(remaining) == 0 {
		delete(c.subscribers, sub.UserID)
	} else {
		c.subscribers[sub.UserID] = remaining
	}

	c.logger.Debug().
		Str("user_id", sub.UserID).
		Str("sub_id", sub.ID).
		Msg("Subscription removed")
}
