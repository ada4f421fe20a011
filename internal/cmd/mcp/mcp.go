// Package mcp wires the MCP stdio command for agent hosts.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"log"

	platformcmd "github.com/louisbranch/tubewatch/internal/platform/cmd"
	"github.com/louisbranch/tubewatch/internal/platform/timeouts"
	"github.com/louisbranch/tubewatch/internal/services/chatbot"
	mcpservice "github.com/louisbranch/tubewatch/internal/services/mcp"
	"github.com/louisbranch/tubewatch/internal/storage/mongo"
	"github.com/louisbranch/tubewatch/internal/youtube/channel"
)

// Config holds MCP command configuration.
type Config struct {
	MongoURI     string `env:"TUBEWATCH_MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	DatabaseName string `env:"TUBEWATCH_DATABASE_NAME" envDefault:"tubewatch"`
}

// ParseConfig loads environment values and parses flag overrides.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.MongoURI, "mongodb-uri", cfg.MongoURI, "The MongoDB connection URI")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run serves the analytics tools over stdio until the context ends.
func Run(ctx context.Context, cfg Config) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceMCP, func(ctx context.Context) error {
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

		tools := chatbot.NewTools(store, channel.DefaultRoster())
		server, err := mcpservice.NewServer(tools)
		if err != nil {
			return err
		}
		return server.Serve(ctx)
	})
}
