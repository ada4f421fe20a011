package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// defaultModel is the chat model used for analytics queries.
const defaultModel = openai.ChatModelGPT4oMini

// maxToolRounds bounds how many tool-call rounds one query may trigger.
const maxToolRounds = 4

const systemPrompt = `You are a YouTube analytics assistant for a set of
monitored news channels. Answer questions about stored video data using the
provided tools. Keep answers short and factual; include concrete numbers
from tool results. If a channel is not monitored, say which channels are.`

// Agent answers queries through an LLM tool-calling loop.
type Agent struct {
	client openai.Client
	tools  *Tools
	model  openai.ChatModel
}

// AgentOption adjusts agent construction.
type AgentOption func(*Agent)

// WithModel overrides the chat model.
func WithModel(model openai.ChatModel) AgentOption {
	return func(a *Agent) { a.model = model }
}

// WithBaseURL points the OpenAI client at another endpoint (tests).
func WithBaseURL(baseURL string) AgentOption {
	return func(a *Agent) {
		a.client = openai.NewClient(option.WithBaseURL(baseURL), option.WithAPIKey("test"))
	}
}

// NewAgent builds an LLM-backed analytics agent.
func NewAgent(apiKey string, tools *Tools, opts ...AgentOption) (*Agent, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if tools == nil {
		return nil, fmt.Errorf("tools are required")
	}
	agent := &Agent{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		tools:  tools,
		model:  defaultModel,
	}
	for _, opt := range opts {
		opt(agent)
	}
	return agent, nil
}

func toolDefinitions() []openai.ChatCompletionToolParam {
	return []openai.ChatCompletionToolParam{
		{
			Function: openai.FunctionDefinitionParam{
				Name:        "get_video_count_by_channel",
				Description: openai.String("Count stored videos for one monitored channel. Accepts channel names and aliases like 'markets' or 'aninews'."),
				Parameters: openai.FunctionParameters{
					"type": "object",
					"properties": map[string]any{
						"channel": map[string]any{"type": "string", "description": "Channel name or alias"},
					},
					"required": []string{"channel"},
				},
			},
		},
		{
			Function: openai.FunctionDefinitionParam{
				Name:        "search_videos_by_keyword",
				Description: openai.String("Search stored videos by keywords in title and description, optionally scoped to a channel and a trailing time window in hours."),
				Parameters: openai.FunctionParameters{
					"type": "object",
					"properties": map[string]any{
						"keywords": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"channel":  map[string]any{"type": "string"},
						"hours":    map[string]any{"type": "integer"},
					},
					"required": []string{"keywords"},
				},
			},
		},
		{
			Function: openai.FunctionDefinitionParam{
				Name:        "get_upload_statistics",
				Description: openai.String("Daily upload distribution and engagement totals for one channel over the last N days (default 7)."),
				Parameters: openai.FunctionParameters{
					"type": "object",
					"properties": map[string]any{
						"channel": map[string]any{"type": "string"},
						"days":    map[string]any{"type": "integer"},
					},
					"required": []string{"channel"},
				},
			},
		},
		{
			Function: openai.FunctionDefinitionParam{
				Name:        "get_recent_activity",
				Description: openai.String("Recent upload activity across all monitored channels in the last N hours (default 24)."),
				Parameters: openai.FunctionParameters{
					"type": "object",
					"properties": map[string]any{
						"hours": map[string]any{"type": "integer"},
					},
				},
			},
		},
		{
			Function: openai.FunctionDefinitionParam{
				Name:        "generate_engagement_report",
				Description: openai.String("Engagement comparison (totals and averages of views and likes) across all monitored channels."),
				Parameters: openai.FunctionParameters{
					"type":       "object",
					"properties": map[string]any{},
				},
			},
		},
	}
}

// Respond answers one query, running tool calls until the model produces a
// final text answer or the round budget runs out.
func (a *Agent) Respond(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("query is required")
	}

	params := openai.ChatCompletionNewParams{
		Model:       a.model,
		Temperature: openai.Float(0),
		Tools:       toolDefinitions(),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(query),
		},
	}

	for round := 0; round <= maxToolRounds; round++ {
		completion, err := a.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(completion.Choices) == 0 {
			return "", fmt.Errorf("chat completion returned no choices")
		}

		message := completion.Choices[0].Message
		if len(message.ToolCalls) == 0 {
			return strings.TrimSpace(message.Content), nil
		}

		params.Messages = append(params.Messages, message.ToParam())
		for _, call := range message.ToolCalls {
			result := a.dispatch(ctx, call.Function.Name, call.Function.Arguments)
			params.Messages = append(params.Messages, openai.ToolMessage(result, call.ID))
		}
	}
	return "", fmt.Errorf("query exceeded %d tool-call rounds", maxToolRounds)
}

// dispatch runs one tool call and returns its JSON result. Tool failures
// are surfaced to the model as error payloads so it can recover.
func (a *Agent) dispatch(ctx context.Context, name, arguments string) string {
	var args struct {
		Channel  string   `json:"channel"`
		Keywords []string `json:"keywords"`
		Hours    int      `json:"hours"`
		Days     int      `json:"days"`
	}
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return toolError(fmt.Errorf("decode tool arguments: %w", err))
		}
	}

	var (
		result any
		err    error
	)
	switch name {
	case "get_video_count_by_channel":
		result, err = a.tools.VideoCount(ctx, args.Channel)
	case "search_videos_by_keyword":
		result, err = a.tools.SearchByKeywords(ctx, args.Keywords, args.Channel, args.Hours)
	case "get_upload_statistics":
		result, err = a.tools.UploadStatistics(ctx, args.Channel, args.Days)
	case "get_recent_activity":
		result, err = a.tools.RecentActivity(ctx, args.Hours)
	case "generate_engagement_report":
		result, err = a.tools.EngagementReport(ctx)
	default:
		err = fmt.Errorf("unknown tool %q", name)
	}
	if err != nil {
		log.Printf("chat tool failed tool=%s err=%v", name, err)
		return toolError(err)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return toolError(fmt.Errorf("encode tool result: %w", err))
	}
	return string(payload)
}

func toolError(err error) string {
	payload, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(payload)
}
