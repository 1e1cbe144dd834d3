package wire

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/minjispace/web-pet/config"
	"github.com/minjispace/web-pet/db/redis"
	kafkaevents "github.com/minjispace/web-pet/events/kafka"
	"github.com/minjispace/web-pet/logging"
	"github.com/minjispace/web-pet/pkg/providers"
	"github.com/minjispace/web-pet/provider"
	"github.com/minjispace/web-pet/server"
)

// ProvideLogger provides a zerolog.Logger
func ProvideLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(cfg.Logging)
}

// ProvideRedisClient provides a Redis client
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	return redis.New(cfg.Redis)
}

// ProvideIdentityProvider provides the HTTP-backed identity provider
func ProvideIdentityProvider(cfg *config.Config, logger zerolog.Logger) providers.IdentityProvider {
	return provider.NewIdentityClient(cfg, logger)
}

// ProvideProfileStore provides the Redis-backed profile store
func ProvideProfileStore(redisClient *redis.Client, logger zerolog.Logger) providers.ProfileStore {
	return provider.NewRedisProfileStore(redisClient, logger)
}

// ProvideKafkaProducer provides the Kafka producer (nil when no brokers configured)
func ProvideKafkaProducer(cfg *config.Config, logger zerolog.Logger) (*kafkaevents.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	return kafkaevents.NewProducerWithConfig(kafkaevents.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Logger:  logger,
	})
}

// ProvideServerOptions provides server options
func ProvideServerOptions(
	cfg *config.Config,
	logger zerolog.Logger,
	identity providers.IdentityProvider,
	store providers.ProfileStore,
) server.Options {
	return server.Options{
		Config:   cfg,
		Logger:   logger,
		Identity: identity,
		Store:    store,
	}
}

// ProvideApp provides the main application
func ProvideApp(opts server.Options) *server.App {
	return server.New(opts)
}

// ConfigSet is the wire provider set for configuration
var ConfigSet = wire.NewSet(
	config.Load,
)

// LoggingSet is the wire provider set for logging
var LoggingSet = wire.NewSet(
	ProvideLogger,
)

// RedisSet is the wire provider set for Redis
var RedisSet = wire.NewSet(
	ProvideRedisClient,
)

// ProviderSet is the wire provider set for the identity and store providers
var ProviderSet = wire.NewSet(
	ProvideIdentityProvider,
	ProvideProfileStore,
)

// KafkaSet is the wire provider set for Kafka
var KafkaSet = wire.NewSet(
	ProvideKafkaProducer,
)

// ServerSet is the wire provider set for server
var ServerSet = wire.NewSet(
	ProvideServerOptions,
	ProvideApp,
)

// DefaultSet is the default wire provider set including all common providers
var DefaultSet = wire.NewSet(
	LoggingSet,
	RedisSet,
	ProviderSet,
	ServerSet,
)

// FullSet includes all providers including Kafka
var FullSet = wire.NewSet(
	DefaultSet,
	KafkaSet,
)
