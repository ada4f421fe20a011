// Package dataapi is a typed client for the slice of the YouTube Data API v3
// used by the monitor: video details, channel upload playlists, and playlist
// paging.
package dataapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/louisbranch/tubewatch/internal/platform/timeouts"
	"github.com/louisbranch/tubewatch/internal/youtube/video"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// maxPageSize is the Data API cap for playlistItems.list.
const maxPageSize = 50

// Client calls the YouTube Data API with API-key authentication.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option adjusts client construction.
type Option func(*Client)

// WithBaseURL overrides the API base URL (tests point it at a local server).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient builds a Data API client. The API key is required.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("youtube api key is required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeouts.DataAPIRequest},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

type videoListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			PublishedAt  string `json:"publishedAt"`
			ChannelID    string `json:"channelId"`
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
			CategoryID   string `json:"categoryId"`
			Tags         []string `json:"tags"`
			Thumbnails   map[string]struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
			LikeCount string `json:"likeCount"`
		} `json:"statistics"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type channelListResponse struct {
	Items []struct {
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			ResourceID struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

// ErrNotFound reports a video or channel absent from the API response.
var ErrNotFound = fmt.Errorf("dataapi: resource not found")

// VideoDetails fetches full metadata for one video ID.
func (c *Client) VideoDetails(ctx context.Context, videoID string) (video.Metadata, error) {
	query := url.Values{
		"id":   {videoID},
		"part": {"snippet,statistics,contentDetails"},
	}
	var response videoListResponse
	if err := c.get(ctx, "/videos", query, &response); err != nil {
		return video.Metadata{}, err
	}
	if len(response.Items) == 0 {
		return video.Metadata{}, fmt.Errorf("video %s: %w", videoID, ErrNotFound)
	}

	item := response.Items[0]
	viewCount, _ := strconv.ParseInt(item.Statistics.ViewCount, 10, 64)
	likeCount, _ := strconv.ParseInt(item.Statistics.LikeCount, 10, 64)

	thumbnail := ""
	// Prefer the high-resolution variant when the API offers one.
	for _, key := range []string{"high", "medium", "default"} {
		if entry, ok := item.Snippet.Thumbnails[key]; ok && entry.URL != "" {
			thumbnail = entry.URL
			break
		}
	}

	return video.Metadata{
		VideoID:      item.ID,
		Title:        item.Snippet.Title,
		URL:          video.WatchURL(item.ID),
		UploadDate:   item.Snippet.PublishedAt,
		ViewCount:    viewCount,
		LikeCount:    likeCount,
		Description:  item.Snippet.Description,
		ChannelID:    item.Snippet.ChannelID,
		ChannelTitle: item.Snippet.ChannelTitle,
		ThumbnailURL: thumbnail,
		Duration:     item.ContentDetails.Duration,
		Tags:         item.Snippet.Tags,
		CategoryID:   item.Snippet.CategoryID,
	}, nil
}

// UploadsPlaylistID resolves the uploads playlist for a channel.
func (c *Client) UploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	query := url.Values{
		"id":   {channelID},
		"part": {"contentDetails"},
	}
	var response channelListResponse
	if err := c.get(ctx, "/channels", query, &response); err != nil {
		return "", err
	}
	if len(response.Items) == 0 {
		return "", fmt.Errorf("channel %s: %w", channelID, ErrNotFound)
	}
	uploads := response.Items[0].ContentDetails.RelatedPlaylists.Uploads
	if uploads == "" {
		return "", fmt.Errorf("channel %s has no uploads playlist: %w", channelID, ErrNotFound)
	}
	return uploads, nil
}

// PlaylistVideoIDs pages through a playlist and returns up to maxResults
// video IDs, newest first.
func (c *Client) PlaylistVideoIDs(ctx context.Context, playlistID string, maxResults int) ([]string, error) {
	if maxResults <= 0 {
		maxResults = maxPageSize
	}

	var videoIDs []string
	pageToken := ""
	for len(videoIDs) < maxResults {
		pageSize := maxResults - len(videoIDs)
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}
		query := url.Values{
			"playlistId": {playlistID},
			"part":       {"snippet"},
			"maxResults": {strconv.Itoa(pageSize)},
		}
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		var response playlistItemsResponse
		if err := c.get(ctx, "/playlistItems", query, &response); err != nil {
			return nil, err
		}
		for _, item := range response.Items {
			if videoID := item.Snippet.ResourceID.VideoID; videoID != "" {
				videoIDs = append(videoIDs, videoID)
			}
		}
		if response.NextPageToken == "" || len(response.Items) == 0 {
			break
		}
		pageToken = response.NextPageToken
	}
	if len(videoIDs) > maxResults {
		videoIDs = videoIDs[:maxResults]
	}
	return videoIDs, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, target any) error {
	query.Set("key", c.apiKey)
	requestURL := c.baseURL + path + "?" + query.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("call youtube api %s: %w", path, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("read youtube api response %s: %w", path, err)
	}

	if response.StatusCode != http.StatusOK {
		var envelope errorEnvelope
		if jsonErr := json.Unmarshal(body, &envelope); jsonErr == nil && envelope.Error.Message != "" {
			return fmt.Errorf("youtube api %s: %s (status %d)", path, envelope.Error.Message, response.StatusCode)
		}
		return fmt.Errorf("youtube api %s: status %d", path, response.StatusCode)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode youtube api response %s: %w", path, err)
	}
	return nil
}
