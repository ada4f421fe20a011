// Package app hosts the background worker runtime: WebSub subscription
// maintenance for all monitored channels and a gRPC health endpoint for
// deployment probes.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/tubewatch/internal/youtube/channel"
	"github.com/louisbranch/tubewatch/internal/youtube/websub"
)

const (
	defaultWorkerPort = 8089

	// defaultRenewalInterval re-subscribes well inside the 10-day hub lease.
	defaultRenewalInterval = 24 * time.Hour

	// defaultSubscribePacing spaces hub calls so a large roster does not
	// burst requests at the hub.
	defaultSubscribePacing = time.Second
)

// Subscriber requests channel subscriptions from a WebSub hub.
type Subscriber interface {
	Subscribe(ctx context.Context, channelID string) error
}

// RuntimeConfig controls worker startup and loop behavior.
type RuntimeConfig struct {
	Port            int
	HubURL          string
	CallbackURL     string
	VerifyToken     string
	WebhookSecret   string
	RenewalInterval time.Duration
	SubscribePacing time.Duration
}

func (c RuntimeConfig) normalized() RuntimeConfig {
	if c.Port <= 0 {
		c.Port = defaultWorkerPort
	}
	if c.RenewalInterval <= 0 {
		c.RenewalInterval = defaultRenewalInterval
	}
	if c.SubscribePacing <= 0 {
		c.SubscribePacing = defaultSubscribePacing
	}
	return c
}

// SubscriptionManager keeps hub subscriptions alive for a channel roster.
type SubscriptionManager struct {
	subscriber Subscriber
	roster     *channel.Roster
	interval   time.Duration
	pacing     time.Duration
}

// NewSubscriptionManager builds a manager for the given roster.
func NewSubscriptionManager(subscriber Subscriber, roster *channel.Roster, interval, pacing time.Duration) (*SubscriptionManager, error) {
	if subscriber == nil {
		return nil, fmt.Errorf("subscriber is required")
	}
	if roster == nil {
		roster = channel.DefaultRoster()
	}
	if interval <= 0 {
		interval = defaultRenewalInterval
	}
	if pacing <= 0 {
		pacing = defaultSubscribePacing
	}
	return &SubscriptionManager{
		subscriber: subscriber,
		roster:     roster,
		interval:   interval,
		pacing:     pacing,
	}, nil
}

// SubscribeAll requests a subscription for every monitored channel, pacing
// hub calls. Per-channel failures are logged, not fatal; the renewal loop
// retries them.
func (m *SubscriptionManager) SubscribeAll(ctx context.Context) {
	channels := m.roster.All()
	for i, ch := range channels {
		if err := m.subscriber.Subscribe(ctx, ch.ID); err != nil {
			log.Printf("subscribe channel failed channel_id=%s name=%q: %v", ch.ID, ch.Name, err)
		} else {
			log.Printf("subscribed channel channel_id=%s name=%q", ch.ID, ch.Name)
		}
		if i == len(channels)-1 {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.pacing):
		}
	}
}

// Run subscribes all channels at startup and renews on the interval until
// the context ends.
func (m *SubscriptionManager) Run(ctx context.Context) error {
	m.SubscribeAll(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.SubscribeAll(ctx)
		}
	}
}

// Run starts the worker runtime and blocks until the context ends.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = cfg.normalized()

	hubClient, err := websub.NewClient(websub.Config{
		HubURL:      cfg.HubURL,
		CallbackURL: cfg.CallbackURL,
		VerifyToken: cfg.VerifyToken,
		Secret:      cfg.WebhookSecret,
	})
	if err != nil {
		return fmt.Errorf("build hub client: %w", err)
	}

	manager, err := NewSubscriptionManager(hubClient, channel.DefaultRoster(), cfg.RenewalInterval, cfg.SubscribePacing)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on worker port %d: %w", cfg.Port, err)
	}
	defer listener.Close()

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("worker.runtime", grpc_health_v1.HealthCheckResponse_SERVING)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()
	defer func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		<-serveErr
	}()

	log.Printf("worker server listening at %v", listener.Addr())
	if err := manager.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
