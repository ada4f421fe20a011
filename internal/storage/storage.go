// Package storage defines persistence contracts for monitored video data.
package storage

import (
	"context"

	apperrors "github.com/louisbranch/tubewatch/internal/platform/errors"
	"github.com/louisbranch/tubewatch/internal/youtube/channel"
	"github.com/louisbranch/tubewatch/internal/youtube/video"
)

// ErrNotFound reports a missing record.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrDuplicate reports an insert that collided with an existing record.
var ErrDuplicate = apperrors.New(apperrors.CodeDuplicate, "record already exists")

// SearchQuery filters a text search over stored videos.
type SearchQuery struct {
	// Query matches title or description, case-insensitively. Regex
	// alternation ("usa|india") searches multiple keywords at once.
	Query string
	// ChannelID restricts results to one channel when non-empty.
	ChannelID string
	// Hours restricts results to uploads within the last N hours when > 0.
	Hours int
	// Limit caps the result count; implementations apply a default cap.
	Limit int
}

// ChannelStats aggregates engagement numbers for one channel.
type ChannelStats struct {
	ChannelID    string  `bson:"_id" json:"channel_id"`
	TotalVideos  int64   `bson:"total_videos" json:"total_videos"`
	TotalViews   int64   `bson:"total_views" json:"total_views"`
	TotalLikes   int64   `bson:"total_likes" json:"total_likes"`
	AverageViews float64 `bson:"average_views" json:"average_views"`
	AverageLikes float64 `bson:"average_likes" json:"average_likes"`
	LatestUpload string  `bson:"latest_upload" json:"latest_upload"`
}

// VideoStore persists monitored video metadata.
type VideoStore interface {
	// InsertVideo stores one video. Returns ErrDuplicate when the video ID
	// is already stored; callers treat that as idempotent success.
	InsertVideo(ctx context.Context, meta video.Metadata) error
	// RecentVideos returns newest-first videos, optionally scoped to a
	// channel when channelID is non-empty.
	RecentVideos(ctx context.Context, limit int, channelID string) ([]video.Metadata, error)
	// VideosByChannel returns newest-first videos for one channel.
	VideosByChannel(ctx context.Context, channelID string, limit int) ([]video.Metadata, error)
	// CountByChannel returns the stored video count for one channel.
	CountByChannel(ctx context.Context, channelID string) (int64, error)
	// SearchVideos runs a filtered title/description search.
	SearchVideos(ctx context.Context, query SearchQuery) ([]video.Metadata, error)
	// Stats aggregates engagement numbers for one channel. Returns
	// ErrNotFound when no videos are stored for it.
	Stats(ctx context.Context, channelID string) (ChannelStats, error)
	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
}

// ChannelStore persists the monitored channel roster.
type ChannelStore interface {
	// UpsertChannel stores or refreshes one channel record.
	UpsertChannel(ctx context.Context, ch channel.Channel) error
	// ListChannels returns all stored channels.
	ListChannels(ctx context.Context) ([]channel.Channel, error)
}

// Store combines video and channel persistence with lifecycle management.
type Store interface {
	VideoStore
	ChannelStore
	Close(ctx context.Context) error
}
