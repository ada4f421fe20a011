package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/louisbranch/tubewatch/internal/platform/errors"
	"github.com/louisbranch/tubewatch/internal/platform/httpx"
	"github.com/louisbranch/tubewatch/internal/platform/timeouts"
	"github.com/louisbranch/tubewatch/internal/storage"
	"github.com/louisbranch/tubewatch/internal/youtube/video"
)

const (
	defaultRecentLimit  = 10
	maxRecentLimit      = 100
	defaultChannelLimit = 50
	maxChannelLimit     = 200
	statsRecentVideos   = 5
)

// parseLimit reads a bounded limit query parameter with a default.
func parseLimit(raw string, fallback, max int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"service": "tubewatch",
		"version": Version,
		"status":  "running",
		"health":  "/health",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(httpx.RequestContext(r), timeouts.MongoRequest)
	defer cancel()

	body := map[string]any{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.store.Ping(ctx); err != nil {
		body["status"] = "unhealthy"
		body["database"] = "disconnected"
		httpx.WriteJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, body)
}

func (s *Server) handleRecentVideos(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"), defaultRecentLimit, maxRecentLimit)
	channelID := strings.TrimSpace(r.URL.Query().Get("channel_id"))

	videos, err := s.store.RecentVideos(httpx.RequestContext(r), limit, channelID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"count":  len(videos),
		"videos": emptyIfNil(videos),
	})
}

func (s *Server) handleChannelVideos(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	limit := parseLimit(r.URL.Query().Get("limit"), defaultChannelLimit, maxChannelLimit)

	videos, err := s.store.VideosByChannel(httpx.RequestContext(r), channelID, limit)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if len(videos) == 0 {
		httpx.WriteError(w, apperrors.WithMetadata(apperrors.CodeNotFound, "no videos stored for channel", map[string]string{"channel_id": channelID}))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"channel_id": channelID,
		"count":      len(videos),
		"videos":     videos,
	})
}

func (s *Server) handleChannelStats(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.RequestContext(r)
	channelID := chi.URLParam(r, "channelID")

	stats, err := s.store.Stats(ctx, channelID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	count, err := s.store.CountByChannel(ctx, channelID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	recent, err := s.store.VideosByChannel(ctx, channelID, statsRecentVideos)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	body := map[string]any{
		"channel_id":    stats.ChannelID,
		"video_count":   count,
		"statistics":    stats,
		"recent_videos": emptyIfNil(recent),
	}
	if ch, ok := s.roster.ByID(channelID); ok {
		body["channel_name"] = ch.Name
	}
	httpx.WriteJSON(w, http.StatusOK, body)
}

func (s *Server) handleSearchVideos(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := strings.TrimSpace(params.Get("query"))
	if query == "" {
		httpx.WriteError(w, apperrors.New(apperrors.CodeChatEmptyQuery, "query parameter is required"))
		return
	}

	hours := 0
	if raw := strings.TrimSpace(params.Get("hours")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httpx.WriteError(w, apperrors.New(apperrors.CodeChatEmptyQuery, "hours must be a non-negative integer"))
			return
		}
		hours = parsed
	}

	videos, err := s.store.SearchVideos(httpx.RequestContext(r), storage.SearchQuery{
		Query:     query,
		ChannelID: strings.TrimSpace(params.Get("channel_id")),
		Hours:     hours,
		Limit:     parseLimit(params.Get("limit"), defaultChannelLimit, maxChannelLimit),
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"query":  query,
		"count":  len(videos),
		"videos": emptyIfNil(videos),
	})
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	channels := s.roster.All()
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"count":    len(channels),
		"channels": channels,
	})
}

type chatRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body chatRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, apperrors.Wrap(apperrors.CodeChatEmptyQuery, "query is required", err))
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		httpx.WriteError(w, apperrors.New(apperrors.CodeChatEmptyQuery, "query is required"))
		return
	}
	if s.responder == nil {
		httpx.WriteError(w, errors.New("chat is not configured"))
		return
	}

	ctx, cancel := context.WithTimeout(httpx.RequestContext(r), timeouts.ChatRequest)
	defer cancel()
	reply, err := s.responder.Respond(ctx, body.Query)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"query": body.Query,
		"reply": reply,
	})
}

// emptyIfNil keeps JSON arrays as [] instead of null.
func emptyIfNil(videos []video.Metadata) []video.Metadata {
	if videos == nil {
		return []video.Metadata{}
	}
	return videos
}
