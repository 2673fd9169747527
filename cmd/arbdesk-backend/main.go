// Command arbdesk-backend is the reference backend: SIWE-style sign-in,
// bearer sessions, stub trading engines and a websocket status feed. It runs
// standalone on an in-memory store, or against redis for multi-instance
// setups.
package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/arbdesk/arbdesk/backend/engines"
	"github.com/arbdesk/arbdesk/backend/httpapi"
	"github.com/arbdesk/arbdesk/backend/service"
	"github.com/arbdesk/arbdesk/backend/store"
	"github.com/arbdesk/arbdesk/backend/tokenizer"
	"github.com/arbdesk/arbdesk/config"
)

func main() {
	root := &cobra.Command{
		Use:           "arbdesk-backend",
		Short:         "Reference backend for the arbdesk client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.LoadBackend(config.NewViper())

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	// Session keys are ephemeral: a backend restart signs everyone out,
	// which the client handles as any other invalidation.
	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate signing key: %w", err)
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))

	var (
		st  store.Store       = store.NewMemoryStore()
		pub message.Publisher = pubsub
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		st = store.NewRedisStore(client)

		relay, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: client},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			return fmt.Errorf("failed to create redis relay: %w", err)
		}
		pub = engines.NewTeePublisher(pubsub, relay, log)
		log.Info().Msg("using redis store and status relay")
	}

	tok := tokenizer.New(signKey, cfg.SessionTTL)
	authService := service.NewAuthService(tok, st, cfg.Domain, log)
	supervisor := engines.NewSupervisor(pub, log)

	router := httpapi.NewRouter(authService, supervisor, pubsub, log)

	log.Info().Str("listen", cfg.Listen).Str("domain", cfg.Domain).Msg("backend up")
	return router.Run(cfg.Listen)
}
