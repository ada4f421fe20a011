package api

import (
	"io"
	"log"
	"net/http"

	apperrors "github.com/louisbranch/tubewatch/internal/platform/errors"
	"github.com/louisbranch/tubewatch/internal/platform/httpx"
	"github.com/louisbranch/tubewatch/internal/youtube/atom"
	"github.com/louisbranch/tubewatch/internal/youtube/websub"
)

// maxNotificationBytes caps webhook payload reads. Atom notifications are
// small; anything larger is not a feed.
const maxNotificationBytes = 1 << 20

// handleWebhookVerification answers the hub's subscription intent check.
func (s *Server) handleWebhookVerification(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	mode := params.Get("hub.mode")
	challenge := params.Get("hub.challenge")

	switch mode {
	case "subscribe":
		if s.verifyToken != "" && params.Get("hub.verify_token") != s.verifyToken {
			httpx.WriteError(w, apperrors.New(apperrors.CodeWebhookTokenMismatch, "verify token mismatch"))
			return
		}
		log.Printf("webhook verification accepted topic=%s", params.Get("hub.topic"))
	case "unsubscribe":
		log.Printf("webhook unsubscribe acknowledged topic=%s", params.Get("hub.topic"))
	default:
		httpx.WriteError(w, apperrors.WithMetadata(apperrors.CodeWebhookInvalidMode, "unsupported hub mode", map[string]string{"mode": mode}))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, challenge)
}

// handleWebhookNotification validates and enqueues a content notification.
// The hub expects a fast acknowledgement; enrichment happens off-request.
func (s *Server) handleWebhookNotification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationBytes))
	if err != nil {
		httpx.WriteError(w, apperrors.Wrap(apperrors.CodeWebhookUnparsableFeed, "read notification body", err))
		return
	}

	if s.webhookSecret != "" {
		if err := websub.ValidateSignature(body, r.Header.Get("X-Hub-Signature"), s.webhookSecret); err != nil {
			httpx.WriteError(w, err)
			return
		}
	}

	notification, err := atom.Parse(body)
	if err != nil {
		// Deletion notices and empty feeds are acknowledged so the hub
		// does not retry them.
		log.Printf("webhook notification skipped: %v", err)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if s.ingestor == nil || !s.ingestor.Enqueue(notification) {
		log.Printf("webhook notification dropped video_id=%s channel_id=%s", notification.VideoID, notification.ChannelID)
	} else {
		log.Printf("webhook notification queued video_id=%s channel_id=%s", notification.VideoID, notification.ChannelID)
	}
	w.WriteHeader(http.StatusAccepted)
}
