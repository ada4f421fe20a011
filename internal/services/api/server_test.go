package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/louisbranch/tubewatch/internal/storage"
	"github.com/louisbranch/tubewatch/internal/youtube/atom"
	"github.com/louisbranch/tubewatch/internal/youtube/channel"
	"github.com/louisbranch/tubewatch/internal/youtube/video"
	"github.com/louisbranch/tubewatch/internal/youtube/websub"
)

type fakeStore struct {
	videos   []video.Metadata
	stats    storage.ChannelStats
	statsErr error
	pingErr  error
}

func (f *fakeStore) InsertVideo(ctx context.Context, meta video.Metadata) error { return nil }

func (f *fakeStore) RecentVideos(ctx context.Context, limit int, channelID string) ([]video.Metadata, error) {
	return f.filter(channelID, limit), nil
}

func (f *fakeStore) VideosByChannel(ctx context.Context, channelID string, limit int) ([]video.Metadata, error) {
	return f.filter(channelID, limit), nil
}

func (f *fakeStore) CountByChannel(ctx context.Context, channelID string) (int64, error) {
	return int64(len(f.filter(channelID, len(f.videos)))), nil
}

func (f *fakeStore) SearchVideos(ctx context.Context, query storage.SearchQuery) ([]video.Metadata, error) {
	var matched []video.Metadata
	for _, meta := range f.videos {
		if strings.Contains(strings.ToLower(meta.Title), strings.ToLower(query.Query)) {
			matched = append(matched, meta)
		}
	}
	return matched, nil
}

func (f *fakeStore) Stats(ctx context.Context, channelID string) (storage.ChannelStats, error) {
	if f.statsErr != nil {
		return storage.ChannelStats{}, f.statsErr
	}
	return f.stats, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeStore) UpsertChannel(ctx context.Context, ch channel.Channel) error { return nil }

func (f *fakeStore) ListChannels(ctx context.Context) ([]channel.Channel, error) { return nil, nil }

func (f *fakeStore) Close(ctx context.Context) error { return nil }

func (f *fakeStore) filter(channelID string, limit int) []video.Metadata {
	var matched []video.Metadata
	for _, meta := range f.videos {
		if channelID == "" || meta.ChannelID == channelID {
			matched = append(matched, meta)
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

type fakeResponder struct {
	reply string
	err   error
}

func (f *fakeResponder) Respond(ctx context.Context, query string) (string, error) {
	return f.reply, f.err
}

type fakeIngestor struct {
	notifications []atom.Notification
}

func (f *fakeIngestor) Enqueue(notification atom.Notification) bool {
	f.notifications = append(f.notifications, notification)
	return true
}

func newTestServer(t *testing.T, store *fakeStore, ingestor Ingestor) *Server {
	t.Helper()
	server, err := New(Config{
		Addr:          ":0",
		SecretKey:     "test-secret",
		APIKeys:       []string{"valid-key"},
		VerifyToken:   "verify-token",
		WebhookSecret: "hub-secret",
	}, store, channel.DefaultRoster(), &fakeResponder{reply: "two videos today"}, ingestor)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return server
}

func doRequest(t *testing.T, server *Server, method, target, apiKey string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	request := httptest.NewRequest(method, target, reader)
	if apiKey != "" {
		request.Header.Set("X-API-Key", apiKey)
	}
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)
	return recorder
}

func TestRootAndHealth(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, &fakeStore{}, nil)
	if got := doRequest(t, server, http.MethodGet, "/", "", "").Code; got != http.StatusOK {
		t.Fatalf("root status = %d, want 200", got)
	}
	if got := doRequest(t, server, http.MethodGet, "/health", "", "").Code; got != http.StatusOK {
		t.Fatalf("health status = %d, want 200", got)
	}
}

func TestHealthReportsStorageFailure(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, &fakeStore{pingErr: context.DeadlineExceeded}, nil)
	recorder := doRequest(t, server, http.MethodGet, "/health", "", "")
	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", recorder.Code)
	}
	var body struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "unhealthy" || body.Database != "disconnected" {
		t.Fatalf("body = %+v", body)
	}
}

func TestProtectedEndpointsRequireCredentials(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, &fakeStore{}, nil)
	paths := []string{"/videos/recent", "/channels", "/search/videos?query=x"}
	for _, path := range paths {
		if got := doRequest(t, server, http.MethodGet, path, "", "").Code; got != http.StatusUnauthorized {
			t.Errorf("%s status = %d, want 401", path, got)
		}
	}
	if got := doRequest(t, server, http.MethodGet, "/videos/recent", "wrong-key", "").Code; got != http.StatusUnauthorized {
		t.Errorf("wrong key status = %d, want 401", got)
	}
}

func TestTokenFlow(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, &fakeStore{}, nil)

	recorder := doRequest(t, server, http.MethodPost, "/auth/token", "", `{"api_key": "valid-key"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("token status = %d, want 200", recorder.Code)
	}
	var token tokenResponse
	if err := json.NewDecoder(recorder.Body).Decode(&token); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if token.TokenType != "bearer" || token.AccessToken == "" {
		t.Fatalf("token = %+v", token)
	}

	request := httptest.NewRequest(http.MethodGet, "/channels", nil)
	request.Header.Set("Authorization", "Bearer "+token.AccessToken)
	bearerRecorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(bearerRecorder, request)
	if bearerRecorder.Code != http.StatusOK {
		t.Fatalf("bearer status = %d, want 200", bearerRecorder.Code)
	}

	request = httptest.NewRequest(http.MethodGet, "/channels", nil)
	request.Header.Set("Authorization", "Bearer garbage")
	garbageRecorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(garbageRecorder, request)
	if garbageRecorder.Code != http.StatusUnauthorized {
		t.Fatalf("garbage bearer status = %d, want 401", garbageRecorder.Code)
	}
}

func TestTokenRejectsUnknownKey(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, &fakeStore{}, nil)
	recorder := doRequest(t, server, http.MethodPost, "/auth/token", "", `{"api_key": "wrong"}`)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", recorder.Code)
	}
}

func TestRecentVideos(t *testing.T) {
	t.Parallel()

	store := &fakeStore{videos: []video.Metadata{
		{VideoID: "v1", Title: "Markets Open", ChannelID: "UC1"},
		{VideoID: "v2", Title: "Election Update", ChannelID: "UC2"},
	}}
	server := newTestServer(t, store, nil)

	recorder := doRequest(t, server, http.MethodGet, "/videos/recent?limit=5", "valid-key", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	var body struct {
		Count  int              `json:"count"`
		Videos []video.Metadata `json:"videos"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Count != 2 || len(body.Videos) != 2 {
		t.Fatalf("body = %+v", body)
	}
}

func TestChannelVideosNotFound(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, &fakeStore{}, nil)
	recorder := doRequest(t, server, http.MethodGet, "/videos/channel/UCmissing", "valid-key", "")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", recorder.Code)
	}
}

func TestChannelStats(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		videos: []video.Metadata{{VideoID: "v1", ChannelID: "UCaIGZ2lNpryhA-p9KXr5XNw"}},
		stats: storage.ChannelStats{
			ChannelID:   "UCaIGZ2lNpryhA-p9KXr5XNw",
			TotalVideos: 1,
			TotalViews:  1500,
		},
	}
	server := newTestServer(t, store, nil)

	recorder := doRequest(t, server, http.MethodGet, "/stats/channel/UCaIGZ2lNpryhA-p9KXr5XNw", "valid-key", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	var body struct {
		ChannelID   string `json:"channel_id"`
		ChannelName string `json:"channel_name"`
		VideoCount  int64  `json:"video_count"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.ChannelName != "Bloomberg Markets" {
		t.Fatalf("channel name = %q, want roster name", body.ChannelName)
	}
	if body.VideoCount != 1 {
		t.Fatalf("video count = %d, want 1", body.VideoCount)
	}
}

func TestSearchVideosRequiresQuery(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, &fakeStore{}, nil)
	recorder := doRequest(t, server, http.MethodGet, "/search/videos", "valid-key", "")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
}

func TestChat(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, &fakeStore{}, nil)
	recorder := doRequest(t, server, http.MethodPost, "/chat", "valid-key", `{"query": "how many videos today?"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	var body struct {
		Reply string `json:"reply"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Reply != "two videos today" {
		t.Fatalf("reply = %q", body.Reply)
	}
}

func TestChatRejectsEmptyQuery(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, &fakeStore{}, nil)
	recorder := doRequest(t, server, http.MethodPost, "/chat", "valid-key", `{"query": "  "}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
}

func TestWebhookVerification(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, &fakeStore{}, nil)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "subscribe with matching token",
			target:     "/webhook/youtube?hub.mode=subscribe&hub.challenge=abc123&hub.verify_token=verify-token",
			wantStatus: http.StatusOK,
			wantBody:   "abc123",
		},
		{
			name:       "subscribe with wrong token",
			target:     "/webhook/youtube?hub.mode=subscribe&hub.challenge=abc123&hub.verify_token=wrong",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "unsubscribe acknowledged",
			target:     "/webhook/youtube?hub.mode=unsubscribe&hub.challenge=bye",
			wantStatus: http.StatusOK,
			wantBody:   "bye",
		},
		{
			name:       "invalid mode",
			target:     "/webhook/youtube?hub.mode=publish&hub.challenge=abc123",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			recorder := doRequest(t, server, http.MethodGet, tc.target, "", "")
			if recorder.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", recorder.Code, tc.wantStatus)
			}
			if tc.wantBody != "" && recorder.Body.String() != tc.wantBody {
				t.Fatalf("body = %q, want %q", recorder.Body.String(), tc.wantBody)
			}
		})
	}
}

const notificationXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <yt:videoId>dQw4w9WgXcQ</yt:videoId>
    <yt:channelId>UCaIGZ2lNpryhA-p9KXr5XNw</yt:channelId>
    <title>Markets Open</title>
    <author><name>Bloomberg Markets</name></author>
    <published>2024-01-15T12:00:00+00:00</published>
  </entry>
</feed>`

func TestWebhookNotification(t *testing.T) {
	t.Parallel()

	ingestor := &fakeIngestor{}
	server := newTestServer(t, &fakeStore{}, ingestor)

	request := httptest.NewRequest(http.MethodPost, "/webhook/youtube", strings.NewReader(notificationXML))
	request.Header.Set("X-Hub-Signature", websub.Sign([]byte(notificationXML), "hub-secret"))
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)

	if recorder.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", recorder.Code)
	}
	if len(ingestor.notifications) != 1 {
		t.Fatalf("queued = %d, want 1", len(ingestor.notifications))
	}
	if ingestor.notifications[0].VideoID != "dQw4w9WgXcQ" {
		t.Fatalf("video id = %q", ingestor.notifications[0].VideoID)
	}
}

func TestWebhookNotificationRejectsBadSignature(t *testing.T) {
	t.Parallel()

	ingestor := &fakeIngestor{}
	server := newTestServer(t, &fakeStore{}, ingestor)

	request := httptest.NewRequest(http.MethodPost, "/webhook/youtube", strings.NewReader(notificationXML))
	request.Header.Set("X-Hub-Signature", "sha1=deadbeef")
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", recorder.Code)
	}
	if len(ingestor.notifications) != 0 {
		t.Fatalf("queued = %d, want 0", len(ingestor.notifications))
	}
}

func TestWebhookNotificationAcknowledgesUnparsableFeed(t *testing.T) {
	t.Parallel()

	ingestor := &fakeIngestor{}
	server := newTestServer(t, &fakeStore{}, ingestor)

	payload := `<feed xmlns="http://www.w3.org/2005/Atom"></feed>`
	request := httptest.NewRequest(http.MethodPost, "/webhook/youtube", strings.NewReader(payload))
	request.Header.Set("X-Hub-Signature", websub.Sign([]byte(payload), "hub-secret"))
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)

	if recorder.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", recorder.Code)
	}
	if len(ingestor.notifications) != 0 {
		t.Fatalf("queued = %d, want 0", len(ingestor.notifications))
	}
}
