// Package seed backfills recent uploads for every monitored channel so the
// store has data before the first webhook notification arrives. Inserts are
// idempotent; rerunning the seeder only adds videos not yet stored.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	videostore "github.com/louisbranch/tubewatch/internal/storage"
	"github.com/louisbranch/tubewatch/internal/youtube/channel"
	"github.com/louisbranch/tubewatch/internal/youtube/video"
)

// defaultPerChannelLimit matches one Data API playlistItems page.
const defaultPerChannelLimit = 10

// VideoSource lists and describes channel uploads via the YouTube Data API.
type VideoSource interface {
	UploadsPlaylistID(ctx context.Context, channelID string) (string, error)
	PlaylistVideoIDs(ctx context.Context, playlistID string, maxResults int) ([]string, error)
	VideoDetails(ctx context.Context, videoID string) (video.Metadata, error)
}

// ChannelSummary reports the seeding outcome for one channel.
type ChannelSummary struct {
	ChannelID   string
	ChannelName string
	Fetched     int
	Stored      int
	Duplicates  int
	Failures    int
}

// Result aggregates seeding outcomes across the roster.
type Result struct {
	Channels   []ChannelSummary
	Stored     int
	Duplicates int
	Failures   int
}

// Runner seeds the video store from the Data API.
type Runner struct {
	videos     videostore.VideoStore
	source     VideoSource
	roster     *channel.Roster
	perChannel int
	now        func() time.Time
}

// NewRunner builds a seeder. A nil roster uses the default monitored set;
// perChannel values below one use the default page size.
func NewRunner(videos videostore.VideoStore, source VideoSource, roster *channel.Roster, perChannel int) (*Runner, error) {
	if videos == nil {
		return nil, fmt.Errorf("video store is required")
	}
	if source == nil {
		return nil, fmt.Errorf("video source is required")
	}
	if roster == nil {
		roster = channel.DefaultRoster()
	}
	if perChannel <= 0 {
		perChannel = defaultPerChannelLimit
	}
	return &Runner{
		videos:     videos,
		source:     source,
		roster:     roster,
		perChannel: perChannel,
		now:        time.Now,
	}, nil
}

// Run seeds every monitored channel. Per-channel failures are logged and
// counted but do not stop the remaining channels.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	result := Result{}
	for _, ch := range r.roster.All() {
		summary := r.seedChannel(ctx, ch)
		result.Channels = append(result.Channels, summary)
		result.Stored += summary.Stored
		result.Duplicates += summary.Duplicates
		result.Failures += summary.Failures
		log.Printf("seeded channel channel_id=%s name=%q fetched=%d stored=%d duplicates=%d failures=%d",
			summary.ChannelID, summary.ChannelName, summary.Fetched, summary.Stored, summary.Duplicates, summary.Failures)
		if err := ctx.Err(); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (r *Runner) seedChannel(ctx context.Context, ch channel.Channel) ChannelSummary {
	summary := ChannelSummary{ChannelID: ch.ID, ChannelName: ch.Name}

	playlistID, err := r.source.UploadsPlaylistID(ctx, ch.ID)
	if err != nil {
		log.Printf("resolve uploads playlist channel_id=%s: %v", ch.ID, err)
		summary.Failures++
		return summary
	}

	videoIDs, err := r.source.PlaylistVideoIDs(ctx, playlistID, r.perChannel)
	if err != nil {
		log.Printf("list playlist videos channel_id=%s playlist_id=%s: %v", ch.ID, playlistID, err)
		summary.Failures++
		return summary
	}
	summary.Fetched = len(videoIDs)

	for _, videoID := range videoIDs {
		if err := r.seedVideo(ctx, ch, videoID); err != nil {
			if errors.Is(err, videostore.ErrDuplicate) {
				summary.Duplicates++
				continue
			}
			log.Printf("seed video video_id=%s channel_id=%s: %v", videoID, ch.ID, err)
			summary.Failures++
			continue
		}
		summary.Stored++
	}
	return summary
}

func (r *Runner) seedVideo(ctx context.Context, ch channel.Channel, videoID string) error {
	meta, err := r.source.VideoDetails(ctx, videoID)
	if err != nil {
		return fmt.Errorf("fetch details: %w", err)
	}
	if meta.ChannelID == "" {
		meta.ChannelID = ch.ID
	}
	if meta.ChannelTitle == "" {
		meta.ChannelTitle = ch.Name
	}
	if meta.Category == "" {
		meta.Category = video.CategoryFromID(meta.CategoryID)
	}

	normalized, err := video.Normalize(meta, r.now)
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}
	return r.videos.InsertVideo(ctx, normalized)
}
