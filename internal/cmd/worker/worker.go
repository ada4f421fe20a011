// Package worker wires the subscription maintenance command.
package worker

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	platformcmd "github.com/louisbranch/tubewatch/internal/platform/cmd"
	"github.com/louisbranch/tubewatch/internal/services/ingest/app"
)

// webhookPath is the notification endpoint exposed by the API service.
const webhookPath = "/webhook/youtube"

// Config holds worker command configuration.
type Config struct {
	Port            int           `env:"TUBEWATCH_WORKER_PORT" envDefault:"8089"`
	HubURL          string        `env:"TUBEWATCH_HUB_URL"`
	WebhookBaseURL  string        `env:"TUBEWATCH_WEBHOOK_BASE_URL"`
	VerifyToken     string        `env:"TUBEWATCH_WEBHOOK_VERIFY_TOKEN"`
	WebhookSecret   string        `env:"TUBEWATCH_WEBHOOK_SECRET"`
	RenewalInterval time.Duration `env:"TUBEWATCH_RENEWAL_INTERVAL" envDefault:"24h"`
}

// CallbackURL joins the public base URL with the webhook path.
func (c Config) CallbackURL() string {
	base := strings.TrimRight(strings.TrimSpace(c.WebhookBaseURL), "/")
	if base == "" {
		return ""
	}
	return base + webhookPath
}

// ParseConfig loads environment values and parses flag overrides.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.IntVar(&cfg.Port, "port", cfg.Port, "The worker health port")
	fs.StringVar(&cfg.WebhookBaseURL, "webhook-base-url", cfg.WebhookBaseURL, "The public base URL reachable by the hub")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.WebhookBaseURL) == "" {
		return Config{}, fmt.Errorf("TUBEWATCH_WEBHOOK_BASE_URL is required")
	}
	return cfg, nil
}

// Run starts the worker runtime.
func Run(ctx context.Context, cfg Config) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceWorker, func(ctx context.Context) error {
		return app.Run(ctx, app.RuntimeConfig{
			Port:            cfg.Port,
			HubURL:          cfg.HubURL,
			CallbackURL:     cfg.CallbackURL(),
			VerifyToken:     cfg.VerifyToken,
			WebhookSecret:   cfg.WebhookSecret,
			RenewalInterval: cfg.RenewalInterval,
		})
	})
}
