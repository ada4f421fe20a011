package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/tubewatch/internal/services/chatbot"
)

// VideoCountInput is the MCP tool input for channel video counts.
type VideoCountInput struct {
	Channel string `json:"channel" jsonschema:"channel name or alias to count videos for"`
}

// SearchInput is the MCP tool input for keyword searches.
type SearchInput struct {
	Keywords []string `json:"keywords" jsonschema:"keywords to search titles and descriptions for"`
	Channel  string   `json:"channel,omitempty" jsonschema:"optional channel name or alias to scope the search"`
	Hours    int      `json:"hours,omitempty" jsonschema:"optional trailing window in hours"`
}

// UploadStatisticsInput is the MCP tool input for upload statistics.
type UploadStatisticsInput struct {
	Channel string `json:"channel" jsonschema:"channel name or alias to analyze"`
	Days    int    `json:"days,omitempty" jsonschema:"analysis period in days, default 7"`
}

// RecentActivityInput is the MCP tool input for cross-channel activity.
type RecentActivityInput struct {
	Hours int `json:"hours,omitempty" jsonschema:"trailing window in hours, default 24"`
}

// EngagementReportInput is the MCP tool input for the engagement report.
type EngagementReportInput struct{}

// VideoCountTool defines the MCP tool schema for channel video counts.
func VideoCountTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_video_count_by_channel",
		Description: "Counts stored videos for a monitored channel",
	}
}

// SearchTool defines the MCP tool schema for keyword searches.
func SearchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_videos_by_keyword",
		Description: "Searches stored videos by keywords, optionally scoped to a channel and time window",
	}
}

// UploadStatisticsTool defines the MCP tool schema for upload statistics.
func UploadStatisticsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_upload_statistics",
		Description: "Summarizes upload cadence and engagement for one channel",
	}
}

// RecentActivityTool defines the MCP tool schema for recent activity.
func RecentActivityTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_recent_activity",
		Description: "Scans all monitored channels for recent uploads",
	}
}

// EngagementReportTool defines the MCP tool schema for the engagement report.
func EngagementReportTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "generate_engagement_report",
		Description: "Compares engagement across all monitored channels",
	}
}

// VideoCountHandler counts stored videos for a channel.
func VideoCountHandler(tools *chatbot.Tools) mcp.ToolHandlerFor[VideoCountInput, chatbot.CountResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input VideoCountInput) (*mcp.CallToolResult, chatbot.CountResult, error) {
		result, err := tools.VideoCount(ctx, input.Channel)
		if err != nil {
			return nil, chatbot.CountResult{}, err
		}
		return nil, result, nil
	}
}

// SearchHandler searches stored videos by keywords.
func SearchHandler(tools *chatbot.Tools) mcp.ToolHandlerFor[SearchInput, chatbot.SearchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, chatbot.SearchResult, error) {
		result, err := tools.SearchByKeywords(ctx, input.Keywords, input.Channel, input.Hours)
		if err != nil {
			return nil, chatbot.SearchResult{}, err
		}
		return nil, result, nil
	}
}

// UploadStatisticsHandler aggregates upload statistics for a channel.
func UploadStatisticsHandler(tools *chatbot.Tools) mcp.ToolHandlerFor[UploadStatisticsInput, chatbot.UploadStats] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input UploadStatisticsInput) (*mcp.CallToolResult, chatbot.UploadStats, error) {
		result, err := tools.UploadStatistics(ctx, input.Channel, input.Days)
		if err != nil {
			return nil, chatbot.UploadStats{}, err
		}
		return nil, result, nil
	}
}

// RecentActivityHandler scans monitored channels for recent uploads.
func RecentActivityHandler(tools *chatbot.Tools) mcp.ToolHandlerFor[RecentActivityInput, chatbot.ActivityResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RecentActivityInput) (*mcp.CallToolResult, chatbot.ActivityResult, error) {
		result, err := tools.RecentActivity(ctx, input.Hours)
		if err != nil {
			return nil, chatbot.ActivityResult{}, err
		}
		return nil, result, nil
	}
}

// EngagementReportHandler builds the cross-channel engagement report.
func EngagementReportHandler(tools *chatbot.Tools) mcp.ToolHandlerFor[EngagementReportInput, chatbot.EngagementResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ EngagementReportInput) (*mcp.CallToolResult, chatbot.EngagementResult, error) {
		result, err := tools.EngagementReport(ctx)
		if err != nil {
			return nil, chatbot.EngagementResult{}, err
		}
		return nil, result, nil
	}
}
