// Package video models YouTube video metadata captured by the monitor.
package video

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/tubewatch/internal/platform/errors"
)

// maxTitleLength caps stored titles; YouTube titles are far shorter, but
// notification payloads are untrusted input.
const maxTitleLength = 500

// Category classifies video content.
type Category string

const (
	CategoryNews          Category = "news"
	CategoryEducation     Category = "education"
	CategoryEntertainment Category = "entertainment"
	CategoryTechnology    Category = "technology"
	CategorySports        Category = "sports"
	CategoryOther         Category = "other"
)

// uploadDateLayouts are the accepted upload date formats, tried in order.
var uploadDateLayouts = []string{
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	time.RFC3339,
	"2006-01-02",
	"20060102",
}

// Metadata is the stored record for one monitored video.
type Metadata struct {
	VideoID      string    `bson:"video_id" json:"video_id"`
	Title        string    `bson:"title" json:"title"`
	URL          string    `bson:"url" json:"url"`
	UploadDate   string    `bson:"upload_date" json:"upload_date"`
	ViewCount    int64     `bson:"view_count" json:"view_count"`
	LikeCount    int64     `bson:"like_count" json:"like_count"`
	Description  string    `bson:"description" json:"description"`
	ChannelID    string    `bson:"channel_id" json:"channel_id"`
	ChannelTitle string    `bson:"channel_title" json:"channel_title"`
	ThumbnailURL string    `bson:"thumbnail_url" json:"thumbnail_url"`
	Duration     string    `bson:"duration,omitempty" json:"duration,omitempty"`
	Tags         []string  `bson:"tags" json:"tags"`
	CategoryID   string    `bson:"category_id,omitempty" json:"category_id,omitempty"`
	Category     Category  `bson:"category" json:"category"`
	ProcessedAt  time.Time `bson:"processed_at" json:"processed_at"`
}

// WatchURL returns the canonical watch URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// ParseUploadDate parses an upload date in any accepted layout.
func ParseUploadDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range uploadDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, apperrors.WithMetadata(
		apperrors.CodeVideoInvalidDate,
		"upload date is not ISO 8601",
		map[string]string{"upload_date": value},
	)
}

// CategoryFromID maps a YouTube category ID to the stored category enum.
// Unknown IDs fall back to CategoryOther.
func CategoryFromID(categoryID string) Category {
	switch strings.TrimSpace(categoryID) {
	case "25":
		return CategoryNews
	case "27":
		return CategoryEducation
	case "23", "24":
		return CategoryEntertainment
	case "28":
		return CategoryTechnology
	case "17":
		return CategorySports
	default:
		return CategoryOther
	}
}

// ValidCategory reports whether the category value is one of the known enums.
func ValidCategory(category Category) bool {
	switch category {
	case CategoryNews, CategoryEducation, CategoryEntertainment,
		CategoryTechnology, CategorySports, CategoryOther:
		return true
	}
	return false
}

// collapseWhitespace folds runs of whitespace into single spaces.
func collapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// Normalize validates and canonicalizes video metadata. Text fields are
// whitespace-collapsed, the watch URL and category default when absent, and
// counters must be non-negative.
func Normalize(meta Metadata, now func() time.Time) (Metadata, error) {
	meta.VideoID = strings.TrimSpace(meta.VideoID)
	if meta.VideoID == "" {
		return Metadata{}, apperrors.New(apperrors.CodeVideoEmptyID, "video id is required")
	}

	meta.Title = collapseWhitespace(meta.Title)
	if meta.Title == "" {
		return Metadata{}, apperrors.New(apperrors.CodeVideoEmptyTitle, "title is required")
	}
	if len(meta.Title) > maxTitleLength {
		return Metadata{}, apperrors.WithMetadata(
			apperrors.CodeVideoTitleTooLong,
			"title exceeds maximum length",
			map[string]string{"video_id": meta.VideoID},
		)
	}

	meta.ChannelID = strings.TrimSpace(meta.ChannelID)
	if meta.ChannelID == "" {
		return Metadata{}, apperrors.New(apperrors.CodeVideoEmptyChannelID, "channel id is required")
	}

	if _, err := ParseUploadDate(meta.UploadDate); err != nil {
		return Metadata{}, err
	}
	meta.UploadDate = strings.TrimSpace(meta.UploadDate)

	if meta.ViewCount < 0 || meta.LikeCount < 0 {
		return Metadata{}, apperrors.New(apperrors.CodeVideoNegativeCount, "view and like counts must be non-negative")
	}

	meta.Description = collapseWhitespace(meta.Description)
	meta.ChannelTitle = collapseWhitespace(meta.ChannelTitle)

	if strings.TrimSpace(meta.URL) == "" {
		meta.URL = WatchURL(meta.VideoID)
	}
	if meta.Category == "" {
		meta.Category = CategoryOther
	}
	if !ValidCategory(meta.Category) {
		return Metadata{}, apperrors.WithMetadata(
			apperrors.CodeVideoInvalidCategory,
			"unknown category",
			map[string]string{"category": string(meta.Category)},
		)
	}
	if meta.Tags == nil {
		meta.Tags = []string{}
	}

	if now == nil {
		now = time.Now
	}
	if meta.ProcessedAt.IsZero() {
		meta.ProcessedAt = now().UTC()
	}
	return meta, nil
}
