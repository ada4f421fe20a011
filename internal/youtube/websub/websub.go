// Package websub manages PubSubHubbub subscriptions for YouTube channels
// and validates hub content signatures.
package websub

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/louisbranch/tubewatch/internal/platform/errors"
	"github.com/louisbranch/tubewatch/internal/platform/timeouts"
)

// DefaultHubURL is the Google-hosted WebSub hub serving YouTube feeds.
const DefaultHubURL = "https://pubsubhubbub.appspot.com/subscribe"

// DefaultLease is the subscription lease requested from the hub (10 days).
const DefaultLease = 864000 * time.Second

// TopicURL returns the feed topic for a channel subscription.
func TopicURL(channelID string) string {
	return "https://www.youtube.com/xml/feeds/videos.xml?channel_id=" + url.QueryEscape(channelID)
}

// Config defines hub client inputs.
type Config struct {
	HubURL      string
	CallbackURL string
	VerifyToken string
	Secret      string
	Lease       time.Duration
	HTTPClient  *http.Client
}

// Client subscribes and unsubscribes channels at a WebSub hub.
type Client struct {
	hubURL      string
	callbackURL string
	verifyToken string
	secret      string
	lease       time.Duration
	httpClient  *http.Client
}

// NewClient builds a hub client. The callback URL is required; everything
// else falls back to defaults.
func NewClient(cfg Config) (*Client, error) {
	callbackURL := strings.TrimSpace(cfg.CallbackURL)
	if callbackURL == "" {
		return nil, fmt.Errorf("callback url is required")
	}
	hubURL := strings.TrimSpace(cfg.HubURL)
	if hubURL == "" {
		hubURL = DefaultHubURL
	}
	lease := cfg.Lease
	if lease <= 0 {
		lease = DefaultLease
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeouts.HubRequest}
	}
	return &Client{
		hubURL:      hubURL,
		callbackURL: callbackURL,
		verifyToken: strings.TrimSpace(cfg.VerifyToken),
		secret:      strings.TrimSpace(cfg.Secret),
		lease:       lease,
		httpClient:  httpClient,
	}, nil
}

// Subscribe requests a channel subscription from the hub.
func (c *Client) Subscribe(ctx context.Context, channelID string) error {
	form := url.Values{
		"hub.callback":      {c.callbackURL},
		"hub.topic":         {TopicURL(channelID)},
		"hub.verify":        {"async"},
		"hub.mode":          {"subscribe"},
		"hub.lease_seconds": {fmt.Sprintf("%d", int(c.lease.Seconds()))},
	}
	if c.verifyToken != "" {
		form.Set("hub.verify_token", c.verifyToken)
	}
	if c.secret != "" {
		form.Set("hub.secret", c.secret)
	}
	return c.post(ctx, channelID, form)
}

// Unsubscribe cancels a channel subscription at the hub.
func (c *Client) Unsubscribe(ctx context.Context, channelID string) error {
	form := url.Values{
		"hub.callback": {c.callbackURL},
		"hub.topic":    {TopicURL(channelID)},
		"hub.mode":     {"unsubscribe"},
	}
	if c.verifyToken != "" {
		form.Set("hub.verify_token", c.verifyToken)
	}
	return c.post(ctx, channelID, form)
}

func (c *Client) post(ctx context.Context, channelID string, form url.Values) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.hubURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build hub request: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("call hub for channel %s: %w", channelID, err)
	}
	defer response.Body.Close()

	// Hubs acknowledge async verification with 202 or 204.
	if response.StatusCode != http.StatusAccepted && response.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return fmt.Errorf("hub rejected channel %s: status %d: %s", channelID, response.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// ValidateSignature checks an X-Hub-Signature header ("sha1=<hex>") against
// the raw request body using constant-time comparison.
func ValidateSignature(body []byte, header, secret string) error {
	signature := strings.TrimSpace(header)
	signature = strings.TrimPrefix(signature, "sha1=")
	if signature == "" {
		return apperrors.New(apperrors.CodeWebhookInvalidSignature, "signature header is empty")
	}

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return apperrors.New(apperrors.CodeWebhookInvalidSignature, "signature does not match body digest")
	}
	return nil
}

// Sign computes the hub signature header value for a payload. Used by tests
// and the local delivery tool.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return "sha1=" + hex.EncodeToString(mac.Sum(nil))
}
