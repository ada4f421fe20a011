package chatbot

import (
	"context"
	"fmt"
	"strings"
)

const helpResponse = `I'm the YouTube analytics assistant. I can help with:

- video counts by channel
- keyword search over titles and descriptions
- channel statistics and engagement reports
- recent upload activity

Try asking:
- "How many videos from Bloomberg Markets are in the database?"
- "Search for videos about USA in ANI News from the last 24 hours"
- "Show me statistics for the markets channel"
- "What's the recent activity?"`

// Fallback answers queries with keyword routing when no LLM is configured.
type Fallback struct {
	tools *Tools
}

// NewFallback builds the rule-based responder.
func NewFallback(tools *Tools) *Fallback {
	return &Fallback{tools: tools}
}

func containsAny(text string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

// channelFromQuery picks a monitored channel mentioned in the query.
// Single-word aliases match whole words only so "latest" never hits "test".
func (f *Fallback) channelFromQuery(query string) string {
	words := strings.Fields(query)
	for _, alias := range f.tools.roster.Aliases() {
		if strings.ContainsRune(alias, ' ') {
			if strings.Contains(query, alias) {
				return alias
			}
			continue
		}
		for _, word := range words {
			if strings.Trim(word, ".,!?") == alias {
				return alias
			}
		}
	}
	return ""
}

// Respond routes the query to a tool based on intent keywords.
func (f *Fallback) Respond(ctx context.Context, query string) (string, error) {
	lowered := strings.ToLower(strings.TrimSpace(query))
	if lowered == "" {
		return "", fmt.Errorf("query is required")
	}

	switch {
	case containsAny(lowered, "how many", "count", "number") && strings.Contains(lowered, "video"):
		alias := f.channelFromQuery(lowered)
		if alias == "" {
			return "I can count videos for specific channels. Which channel are you interested in: " + strings.Join(f.tools.roster.Aliases(), ", ") + "?", nil
		}
		result, err := f.tools.VideoCount(ctx, alias)
		if err != nil {
			return "", err
		}
		return result.Message, nil

	case containsAny(lowered, "search", "find", "look for"):
		keywords := extractKeywords(lowered)
		result, err := f.tools.SearchByKeywords(ctx, keywords, f.channelFromQuery(lowered), 24)
		if err != nil {
			return "", err
		}
		if result.VideoCount == 0 {
			return fmt.Sprintf("No videos matched %s in the last 24 hours.", strings.Join(keywords, ", ")), nil
		}
		titles := make([]string, 0, len(result.Videos))
		for _, sample := range result.Videos {
			titles = append(titles, sample.Title)
		}
		return fmt.Sprintf("Found %d videos matching your search. Recent: %s", result.VideoCount, strings.Join(titles, "; ")), nil

	case containsAny(lowered, "statistic", "analytics", "report", "dashboard"):
		if alias := f.channelFromQuery(lowered); alias != "" {
			stats, err := f.tools.UploadStatistics(ctx, alias, 7)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf(
				"%s uploaded %d videos in the last %d days (%d total views, %.0f average views per video).",
				stats.ChannelName, stats.VideosAnalyzed, stats.AnalysisPeriodDays, stats.TotalViews, stats.AverageViews,
			), nil
		}
		report, err := f.tools.EngagementReport(ctx)
		if err != nil {
			return "", err
		}
		lines := make([]string, 0, len(report.Report))
		for name, entry := range report.Report {
			lines = append(lines, fmt.Sprintf("%s: %d videos, %.0f average views", name, entry.TotalVideos, entry.AverageViews))
		}
		return "Engagement report: " + strings.Join(lines, " | "), nil

	case containsAny(lowered, "recent", "latest", "new", "activity"):
		result, err := f.tools.RecentActivity(ctx, 24)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("In the last 24 hours, %d new videos were published across all monitored channels.", result.TotalVideos), nil

	default:
		return helpResponse, nil
	}
}

// extractKeywords pulls search terms the rule-based router understands.
func extractKeywords(query string) []string {
	known := []string{"usa", "india", "market", "news", "election", "economy"}
	var keywords []string
	for _, keyword := range known {
		if strings.Contains(query, keyword) {
			keywords = append(keywords, keyword)
		}
	}
	if strings.Contains(query, "united states") && !containsAny(strings.Join(keywords, " "), "usa") {
		keywords = append(keywords, "usa")
	}
	if len(keywords) == 0 {
		keywords = []string{"news"}
	}
	return keywords
}
