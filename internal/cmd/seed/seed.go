// Package seed wires the initial backfill command.
package seed

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	platformcmd "github.com/louisbranch/tubewatch/internal/platform/cmd"
	"github.com/louisbranch/tubewatch/internal/platform/timeouts"
	"github.com/louisbranch/tubewatch/internal/storage/mongo"
	seedtool "github.com/louisbranch/tubewatch/internal/tools/seed"
	"github.com/louisbranch/tubewatch/internal/youtube/channel"
	"github.com/louisbranch/tubewatch/internal/youtube/dataapi"
)

// Config holds seed command configuration.
type Config struct {
	MongoURI      string `env:"TUBEWATCH_MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	DatabaseName  string `env:"TUBEWATCH_DATABASE_NAME" envDefault:"tubewatch"`
	YouTubeAPIKey string `env:"TUBEWATCH_YOUTUBE_API_KEY"`
	PerChannel    int    `env:"TUBEWATCH_SEED_PER_CHANNEL" envDefault:"10"`
}

// ParseConfig loads environment values and parses flag overrides.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.IntVar(&cfg.PerChannel, "per-channel", cfg.PerChannel, "Videos to backfill per channel")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.YouTubeAPIKey) == "" {
		return Config{}, fmt.Errorf("TUBEWATCH_YOUTUBE_API_KEY is required")
	}
	return cfg, nil
}

// Run backfills recent uploads for every monitored channel and exits.
func Run(ctx context.Context, cfg Config) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceSeed, func(ctx context.Context) error {
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

		dataClient, err := dataapi.NewClient(cfg.YouTubeAPIKey)
		if err != nil {
			return fmt.Errorf("build data api client: %w", err)
		}

		roster := channel.DefaultRoster()
		for _, ch := range roster.All() {
			if err := store.UpsertChannel(ctx, ch); err != nil {
				return fmt.Errorf("persist channel %s: %w", ch.ID, err)
			}
		}

		runner, err := seedtool.NewRunner(store, dataClient, roster, cfg.PerChannel)
		if err != nil {
			return err
		}
		result, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		log.Printf("seed complete stored=%d duplicates=%d failures=%d", result.Stored, result.Duplicates, result.Failures)
		return nil
	})
}
