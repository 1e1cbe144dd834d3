package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/minjispace/web-pet/config"
	kafkaevents "github.com/minjispace/web-pet/events/kafka"
	"github.com/minjispace/web-pet/wire"
)

var version = getVersion()

// getVersion returns the module version from build info
func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "webpet",
		Short: "Web-pet session service",
		Long:  "Session state service for the web-pet game: login, live profile sync, stat care and the clothing shop.",
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the session service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logger := wire.ProvideLogger(cfg)

			redisClient, err := wire.ProvideRedisClient(cfg)
			if err != nil {
				return fmt.Errorf("failed to connect to redis: %w", err)
			}
			defer redisClient.Close() //nolint:errcheck

			identity := wire.ProvideIdentityProvider(cfg, logger)
			store := wire.ProvideProfileStore(redisClient, logger)

			app := wire.ProvideApp(wire.ProvideServerOptions(cfg, logger, identity, store))
			app.UseCommonMiddlewares()
			app.RegisterHealthCheck()
			app.RegisterSessionRoutes()

			producer, err := wire.ProvideKafkaProducer(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to create kafka producer: %w", err)
			}
			if producer != nil {
				app.SetEventProducer(producer)
				app.OnShutdown(func() {
					if err := producer.Close(); err != nil {
						logger.Error().Err(err).Msg("Error closing kafka producer")
					}
				})
			}

			if topic := cfg.Kafka.Topics["profile_updates"]; topic != "" {
				consumer := kafkaevents.NewConsumer(kafkaevents.ConsumerConfig{
					Brokers:       cfg.Kafka.Brokers,
					Topic:         topic,
					ConsumerGroup: cfg.Kafka.ConsumerGroup,
					Logger:        logger,
				})
				if err := consumer.Start(); err != nil {
					return fmt.Errorf("failed to start kafka consumer: %w", err)
				}
				sub := consumer.SubscribeAll()
				app.AttachProfileUpdateFeed(sub.Channel)
				app.OnShutdown(func() {
					consumer.Unsubscribe(sub)
					if err := consumer.Stop(); err != nil {
						logger.Error().Err(err).Msg("Error stopping kafka consumer")
					}
				})
			}

			return app.Run()
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "path to config file")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the service version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}
