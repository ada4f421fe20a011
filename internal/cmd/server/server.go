// Package server wires the monitoring API command: MongoDB storage, the
// ingest pipeline, the chatbot, and the HTTP server.
package server

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	platformcmd "github.com/louisbranch/tubewatch/internal/platform/cmd"
	"github.com/louisbranch/tubewatch/internal/platform/timeouts"
	"github.com/louisbranch/tubewatch/internal/services/api"
	"github.com/louisbranch/tubewatch/internal/services/chatbot"
	"github.com/louisbranch/tubewatch/internal/services/ingest"
	ingestsqlite "github.com/louisbranch/tubewatch/internal/services/ingest/storage/sqlite"
	"github.com/louisbranch/tubewatch/internal/storage/mongo"
	"github.com/louisbranch/tubewatch/internal/youtube/channel"
	"github.com/louisbranch/tubewatch/internal/youtube/dataapi"
)

// Config holds server command configuration.
type Config struct {
	Addr          string   `env:"TUBEWATCH_API_ADDR" envDefault:":8080"`
	MongoURI      string   `env:"TUBEWATCH_MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	DatabaseName  string   `env:"TUBEWATCH_DATABASE_NAME" envDefault:"tubewatch"`
	YouTubeAPIKey string   `env:"TUBEWATCH_YOUTUBE_API_KEY"`
	OpenAIAPIKey  string   `env:"TUBEWATCH_OPENAI_API_KEY"`
	SecretKey     string   `env:"TUBEWATCH_SECRET_KEY"`
	APIKeys       []string `env:"TUBEWATCH_API_KEYS" envSeparator:","`
	VerifyToken   string   `env:"TUBEWATCH_WEBHOOK_VERIFY_TOKEN"`
	WebhookSecret string   `env:"TUBEWATCH_WEBHOOK_SECRET"`
	IngestDBPath  string   `env:"TUBEWATCH_INGEST_DB_PATH" envDefault:"ingest.db"`
}

// ParseConfig loads environment values and parses flag overrides.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The API listen address")
	fs.StringVar(&cfg.IngestDBPath, "ingest-db", cfg.IngestDBPath, "The ingest attempt ledger path")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.SecretKey) == "" {
		return Config{}, fmt.Errorf("TUBEWATCH_SECRET_KEY is required")
	}
	if strings.TrimSpace(cfg.YouTubeAPIKey) == "" {
		return Config{}, fmt.Errorf("TUBEWATCH_YOUTUBE_API_KEY is required")
	}
	return cfg, nil
}

// Run starts the API server and the ingest consumer, blocking until the
// context ends.
func Run(ctx context.Context, cfg Config) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceServer, func(ctx context.Context) error {
		store, err := mongo.Open(ctx, cfg.MongoURI, cfg.DatabaseName)
		if err != nil {
			return fmt.Errorf("open mongo store: %w", err)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				log.Printf("close mongo store: %v", err)
			}
		}()

		roster := channel.DefaultRoster()
		for _, ch := range roster.All() {
			if err := store.UpsertChannel(ctx, ch); err != nil {
				return fmt.Errorf("persist channel %s: %w", ch.ID, err)
			}
		}

		dataClient, err := dataapi.NewClient(cfg.YouTubeAPIKey)
		if err != nil {
			return fmt.Errorf("build data api client: %w", err)
		}

		var attempts *ingestsqlite.Store
		if strings.TrimSpace(cfg.IngestDBPath) != "" {
			attempts, err = ingestsqlite.Open(cfg.IngestDBPath)
			if err != nil {
				return fmt.Errorf("open attempt ledger: %w", err)
			}
			defer func() {
				if err := attempts.Close(); err != nil {
					log.Printf("close attempt ledger: %v", err)
				}
			}()
		}

		processor, err := newProcessor(store, dataClient, attempts)
		if err != nil {
			return err
		}
		queue := ingest.NewQueue(processor, ingest.QueueConfig{})

		tools := chatbot.NewTools(store, roster)
		responder, err := chatbot.New(cfg.OpenAIAPIKey, tools)
		if err != nil {
			return fmt.Errorf("build chatbot: %w", err)
		}

		server, err := api.New(api.Config{
			Addr:          cfg.Addr,
			SecretKey:     cfg.SecretKey,
			APIKeys:       cfg.APIKeys,
			VerifyToken:   cfg.VerifyToken,
			WebhookSecret: cfg.WebhookSecret,
		}, store, roster, responder, queue)
		if err != nil {
			return fmt.Errorf("build api server: %w", err)
		}

		consumeCtx, cancelConsume := context.WithCancel(ctx)
		defer cancelConsume()
		consumeDone := make(chan struct{})
		go func() {
			defer close(consumeDone)
			if err := queue.Consume(consumeCtx); err != nil {
				log.Printf("ingest consumer stopped: %v", err)
			}
		}()

		err = server.Serve(ctx)
		cancelConsume()
		<-consumeDone
		return err
	})
}

func newProcessor(store *mongo.Store, details ingest.VideoDetailer, attempts *ingestsqlite.Store) (*ingest.Processor, error) {
	// A nil *Store must not reach the processor as a non-nil interface.
	if attempts == nil {
		return ingest.NewProcessor(store, details, nil)
	}
	return ingest.NewProcessor(store, details, attempts)
}
