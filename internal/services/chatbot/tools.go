// Package chatbot answers analytics questions about monitored channels,
// either through an LLM tool-calling loop or a rule-based fallback.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/louisbranch/tubewatch/internal/storage"
	"github.com/louisbranch/tubewatch/internal/youtube/channel"
	"github.com/louisbranch/tubewatch/internal/youtube/video"
)

const (
	// sampleVideoCount caps how many example videos a tool result carries.
	sampleVideoCount = 5
	// activityFetchLimit bounds the per-channel fetch for activity scans.
	activityFetchLimit = 50
	// statsFetchLimit bounds the fetch for upload statistics.
	statsFetchLimit = 1000
)

// Tools implements the analytics operations shared by the chat agent, the
// fallback responder, and the MCP adapter.
type Tools struct {
	store  storage.VideoStore
	roster *channel.Roster
	now    func() time.Time
}

// NewTools builds the analytics toolset.
func NewTools(store storage.VideoStore, roster *channel.Roster) *Tools {
	if roster == nil {
		roster = channel.DefaultRoster()
	}
	return &Tools{store: store, roster: roster, now: time.Now}
}

// VideoSample is the condensed video representation in tool results.
type VideoSample struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	UploadDate   string `json:"upload_date"`
	ViewCount    int64  `json:"view_count"`
	ChannelTitle string `json:"channel_title"`
}

func sampleOf(videos []video.Metadata, max int) []VideoSample {
	if len(videos) > max {
		videos = videos[:max]
	}
	samples := make([]VideoSample, 0, len(videos))
	for _, meta := range videos {
		samples = append(samples, VideoSample{
			Title:        meta.Title,
			URL:          meta.URL,
			UploadDate:   meta.UploadDate,
			ViewCount:    meta.ViewCount,
			ChannelTitle: meta.ChannelTitle,
		})
	}
	return samples
}

// CountResult reports how many videos a channel has stored.
type CountResult struct {
	ChannelName string `json:"channel_name"`
	ChannelID   string `json:"channel_id"`
	TotalVideos int64  `json:"total_videos"`
	Message     string `json:"message"`
}

// VideoCount counts stored videos for a channel name or alias.
func (t *Tools) VideoCount(ctx context.Context, channelName string) (CountResult, error) {
	ch, err := t.roster.Resolve(channelName)
	if err != nil {
		return CountResult{}, t.unknownChannel(err)
	}
	count, err := t.store.CountByChannel(ctx, ch.ID)
	if err != nil {
		return CountResult{}, err
	}
	return CountResult{
		ChannelName: ch.Name,
		ChannelID:   ch.ID,
		TotalVideos: count,
		Message:     fmt.Sprintf("Found %d videos from %s", count, ch.Name),
	}, nil
}

// SearchResult reports a keyword search outcome.
type SearchResult struct {
	Keywords       []string      `json:"keywords"`
	Channel        string        `json:"channel,omitempty"`
	TimeFrameHours int           `json:"time_frame_hours,omitempty"`
	VideoCount     int           `json:"video_count"`
	Videos         []VideoSample `json:"videos"`
}

// SearchByKeywords searches titles and descriptions, optionally scoped to a
// channel and a trailing time window. Keywords combine as alternatives.
func (t *Tools) SearchByKeywords(ctx context.Context, keywords []string, channelName string, hours int) (SearchResult, error) {
	cleaned := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			cleaned = append(cleaned, keyword)
		}
	}
	if len(cleaned) == 0 {
		return SearchResult{}, fmt.Errorf("at least one keyword is required")
	}

	channelID := ""
	resolvedName := ""
	if strings.TrimSpace(channelName) != "" {
		ch, err := t.roster.Resolve(channelName)
		if err != nil {
			return SearchResult{}, t.unknownChannel(err)
		}
		channelID = ch.ID
		resolvedName = ch.Name
	}

	videos, err := t.store.SearchVideos(ctx, storage.SearchQuery{
		Query:     strings.Join(cleaned, "|"),
		ChannelID: channelID,
		Hours:     hours,
	})
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{
		Keywords:       cleaned,
		Channel:        resolvedName,
		TimeFrameHours: hours,
		VideoCount:     len(videos),
		Videos:         sampleOf(videos, sampleVideoCount),
	}, nil
}

// UploadStats summarizes upload cadence and engagement for one channel.
type UploadStats struct {
	ChannelName        string         `json:"channel_name"`
	AnalysisPeriodDays int            `json:"analysis_period_days"`
	VideosAnalyzed     int            `json:"videos_analyzed"`
	DateRangeStart     string         `json:"date_range_start,omitempty"`
	DateRangeEnd       string         `json:"date_range_end,omitempty"`
	TotalViews         int64          `json:"total_views"`
	TotalLikes         int64          `json:"total_likes"`
	AverageViews       float64        `json:"average_views"`
	AverageLikes       float64        `json:"average_likes"`
	UploadsByDate      map[string]int `json:"uploads_by_date"`
}

// UploadStatistics aggregates the daily upload distribution and engagement
// totals for a channel over the last N days.
func (t *Tools) UploadStatistics(ctx context.Context, channelName string, days int) (UploadStats, error) {
	if days <= 0 {
		days = 7
	}
	ch, err := t.roster.Resolve(channelName)
	if err != nil {
		return UploadStats{}, t.unknownChannel(err)
	}

	videos, err := t.store.VideosByChannel(ctx, ch.ID, statsFetchLimit)
	if err != nil {
		return UploadStats{}, err
	}
	if len(videos) == 0 {
		return UploadStats{}, fmt.Errorf("no videos stored for channel %s", ch.Name)
	}

	cutoff := t.now().UTC().AddDate(0, 0, -days)
	stats := UploadStats{
		ChannelName:        ch.Name,
		AnalysisPeriodDays: days,
		UploadsByDate:      map[string]int{},
	}
	var firstDate, lastDate string
	for _, meta := range videos {
		uploaded, err := video.ParseUploadDate(meta.UploadDate)
		if err != nil {
			continue
		}
		if uploaded.Before(cutoff) {
			continue
		}
		day := uploaded.UTC().Format("2006-01-02")
		stats.UploadsByDate[day]++
		stats.VideosAnalyzed++
		stats.TotalViews += meta.ViewCount
		stats.TotalLikes += meta.LikeCount
		if firstDate == "" || day < firstDate {
			firstDate = day
		}
		if day > lastDate {
			lastDate = day
		}
	}
	if stats.VideosAnalyzed == 0 {
		return UploadStats{}, fmt.Errorf("no videos for channel %s in the last %d days", ch.Name, days)
	}
	stats.DateRangeStart = firstDate
	stats.DateRangeEnd = lastDate
	stats.AverageViews = float64(stats.TotalViews) / float64(stats.VideosAnalyzed)
	stats.AverageLikes = float64(stats.TotalLikes) / float64(stats.VideosAnalyzed)
	return stats, nil
}

// ChannelActivity summarizes one channel inside an activity scan.
type ChannelActivity struct {
	VideoCount   int      `json:"video_count"`
	RecentTitles []string `json:"recent_titles"`
}

// ActivityResult reports cross-channel activity in a trailing window.
type ActivityResult struct {
	TimeFrameHours int                        `json:"time_frame_hours"`
	TotalVideos    int                        `json:"total_videos"`
	Channels       map[string]ChannelActivity `json:"channels"`
	RecentVideos   []VideoSample              `json:"recent_videos"`
}

// RecentActivity scans all monitored channels for uploads in the last N
// hours.
func (t *Tools) RecentActivity(ctx context.Context, hours int) (ActivityResult, error) {
	if hours <= 0 {
		hours = 24
	}
	cutoff := t.now().UTC().Add(-time.Duration(hours) * time.Hour)

	result := ActivityResult{
		TimeFrameHours: hours,
		Channels:       map[string]ChannelActivity{},
	}
	var all []video.Metadata
	for _, ch := range t.roster.All() {
		videos, err := t.store.VideosByChannel(ctx, ch.ID, activityFetchLimit)
		if err != nil {
			return ActivityResult{}, err
		}
		activity := ChannelActivity{}
		for _, meta := range videos {
			uploaded, err := video.ParseUploadDate(meta.UploadDate)
			if err != nil || uploaded.Before(cutoff) {
				continue
			}
			activity.VideoCount++
			if len(activity.RecentTitles) < 3 {
				activity.RecentTitles = append(activity.RecentTitles, meta.Title)
			}
			all = append(all, meta)
		}
		if activity.VideoCount > 0 {
			result.Channels[ch.Name] = activity
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].UploadDate > all[j].UploadDate })
	result.TotalVideos = len(all)
	result.RecentVideos = sampleOf(all, 10)
	return result, nil
}

// ChannelReport is one channel's entry in the engagement report.
type ChannelReport struct {
	TotalVideos  int64   `json:"total_videos"`
	TotalViews   int64   `json:"total_views"`
	TotalLikes   int64   `json:"total_likes"`
	AverageViews float64 `json:"average_views"`
	AverageLikes float64 `json:"average_likes"`
}

// EngagementResult compares engagement across all monitored channels.
type EngagementResult struct {
	Report map[string]ChannelReport `json:"report"`
}

// EngagementReport aggregates stats for every monitored channel. Channels
// with no stored videos are omitted.
func (t *Tools) EngagementReport(ctx context.Context) (EngagementResult, error) {
	result := EngagementResult{Report: map[string]ChannelReport{}}
	for _, ch := range t.roster.All() {
		stats, err := t.store.Stats(ctx, ch.ID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return EngagementResult{}, err
		}
		result.Report[ch.Name] = ChannelReport{
			TotalVideos:  stats.TotalVideos,
			TotalViews:   stats.TotalViews,
			TotalLikes:   stats.TotalLikes,
			AverageViews: stats.AverageViews,
			AverageLikes: stats.AverageLikes,
		}
	}
	if len(result.Report) == 0 {
		return EngagementResult{}, fmt.Errorf("no data available for analysis")
	}
	return result, nil
}

func (t *Tools) unknownChannel(cause error) error {
	return fmt.Errorf("%w (monitored channels: %s)", cause, strings.Join(t.roster.Aliases(), ", "))
}
