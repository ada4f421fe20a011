// Package ingest turns webhook notifications into stored, enriched video
// records. Processing is idempotent: redelivered notifications are
// acknowledged without duplicating data.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/louisbranch/tubewatch/internal/services/ingest/storage"
	videostore "github.com/louisbranch/tubewatch/internal/storage"
	"github.com/louisbranch/tubewatch/internal/youtube/atom"
	"github.com/louisbranch/tubewatch/internal/youtube/video"
)

// VideoDetailer fetches full video metadata from the YouTube Data API.
type VideoDetailer interface {
	VideoDetails(ctx context.Context, videoID string) (video.Metadata, error)
}

// Processor enriches and stores one notification at a time.
type Processor struct {
	videos   videostore.VideoStore
	details  VideoDetailer
	attempts storage.AttemptStore
	now      func() time.Time
}

// NewProcessor builds a notification processor. The attempt store may be
// nil, disabling the ledger.
func NewProcessor(videos videostore.VideoStore, details VideoDetailer, attempts storage.AttemptStore) (*Processor, error) {
	if videos == nil {
		return nil, fmt.Errorf("video store is required")
	}
	if details == nil {
		return nil, fmt.Errorf("video detailer is required")
	}
	return &Processor{
		videos:   videos,
		details:  details,
		attempts: attempts,
		now:      time.Now,
	}, nil
}

// Process enriches one notification and stores the result. The returned
// outcome is one of the attempt ledger outcome values; a duplicate is a
// success from the caller's point of view.
func (p *Processor) Process(ctx context.Context, notification atom.Notification, attemptCount int) (string, error) {
	outcome, err := p.process(ctx, notification)
	p.record(ctx, notification, outcome, attemptCount, err)
	return outcome, err
}

func (p *Processor) process(ctx context.Context, notification atom.Notification) (string, error) {
	meta, err := p.details.VideoDetails(ctx, notification.VideoID)
	if err != nil {
		return storage.OutcomeFailed, fmt.Errorf("enrich video %s: %w", notification.VideoID, err)
	}

	// The Data API occasionally omits snippet fields present in the feed.
	if meta.Title == "" {
		meta.Title = notification.Title
	}
	if meta.ChannelID == "" {
		meta.ChannelID = notification.ChannelID
	}
	if meta.ChannelTitle == "" {
		meta.ChannelTitle = notification.ChannelTitle
	}
	if meta.UploadDate == "" {
		meta.UploadDate = notification.Published
	}
	if meta.Category == "" {
		meta.Category = video.CategoryFromID(meta.CategoryID)
	}

	normalized, err := video.Normalize(meta, p.now)
	if err != nil {
		return storage.OutcomeFailed, fmt.Errorf("normalize video %s: %w", notification.VideoID, err)
	}

	if err := p.videos.InsertVideo(ctx, normalized); err != nil {
		if errors.Is(err, videostore.ErrDuplicate) {
			return storage.OutcomeDuplicate, nil
		}
		return storage.OutcomeFailed, fmt.Errorf("store video %s: %w", notification.VideoID, err)
	}
	return storage.OutcomeStored, nil
}

func (p *Processor) record(ctx context.Context, notification atom.Notification, outcome string, attemptCount int, cause error) {
	if p.attempts == nil {
		return
	}
	lastError := ""
	if cause != nil {
		lastError = cause.Error()
	}
	record := storage.AttemptRecord{
		VideoID:      notification.VideoID,
		ChannelID:    notification.ChannelID,
		Outcome:      outcome,
		AttemptCount: attemptCount,
		LastError:    lastError,
		CreatedAt:    p.now().UTC(),
	}
	if err := p.attempts.RecordAttempt(ctx, record); err != nil {
		log.Printf("record ingest attempt video_id=%s: %v", notification.VideoID, err)
	}
}
