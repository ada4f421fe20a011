// Package api hosts the HTTP surface of the monitoring service: REST
// queries over stored videos, the analytics chat endpoint, and the WebSub
// webhook callback.
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/louisbranch/tubewatch/internal/platform/httpx"
	"github.com/louisbranch/tubewatch/internal/platform/timeouts"
	"github.com/louisbranch/tubewatch/internal/storage"
	"github.com/louisbranch/tubewatch/internal/youtube/atom"
	"github.com/louisbranch/tubewatch/internal/youtube/channel"
)

// Version is the reported service version.
const Version = "1.0.0"

// Responder answers analytics questions in natural language.
type Responder interface {
	Respond(ctx context.Context, query string) (string, error)
}

// Ingestor accepts webhook notifications for asynchronous processing.
// Enqueue reports false when the notification was dropped.
type Ingestor interface {
	Enqueue(notification atom.Notification) bool
}

// Config defines the inputs for the API server.
type Config struct {
	Addr          string
	SecretKey     string
	APIKeys       []string
	VerifyToken   string
	WebhookSecret string
}

// Server hosts the monitoring HTTP API.
type Server struct {
	store         storage.Store
	roster        *channel.Roster
	responder     Responder
	ingestor      Ingestor
	auth          *Auth
	verifyToken   string
	webhookSecret string

	addr       string
	httpServer *http.Server
}

// New builds an API server. Store and roster are required; responder and
// ingestor may be nil, disabling chat and webhook processing respectively.
func New(cfg Config, store storage.Store, roster *channel.Roster, responder Responder, ingestor Ingestor) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if roster == nil {
		roster = channel.DefaultRoster()
	}
	auth, err := NewAuth(cfg.SecretKey, cfg.APIKeys)
	if err != nil {
		return nil, err
	}

	server := &Server{
		store:         store,
		roster:        roster,
		responder:     responder,
		ingestor:      ingestor,
		auth:          auth,
		verifyToken:   strings.TrimSpace(cfg.VerifyToken),
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		addr:          cfg.Addr,
	}
	server.httpServer = &http.Server{
		Handler:           server.Handler(),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	return server, nil
}

// Handler builds the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(
		httpx.RecoverPanic(),
		httpx.RequestID(),
		httpx.LogRequests(),
		httpx.CORS(),
	)

	router.Get("/", s.handleRoot)
	router.Get("/health", s.handleHealth)
	router.Post("/auth/token", s.handleToken)
	router.Get("/webhook/youtube", s.handleWebhookVerification)
	router.Post("/webhook/youtube", s.handleWebhookNotification)

	router.Group(func(protected chi.Router) {
		protected.Use(s.auth.RequireAuth)
		protected.Get("/videos/recent", s.handleRecentVideos)
		protected.Get("/videos/channel/{channelID}", s.handleChannelVideos)
		protected.Get("/stats/channel/{channelID}", s.handleChannelStats)
		protected.Get("/search/videos", s.handleSearchVideos)
		protected.Get("/channels", s.handleChannels)
		protected.Post("/chat", s.handleChat)
	})

	return router
}

// Serve starts the API server and blocks until it stops or the context
// ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	log.Printf("api server listening at %v", listener.Addr())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
