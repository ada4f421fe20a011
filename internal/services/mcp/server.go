// Package mcp exposes the monitoring analytics tools over the Model
// Context Protocol so agent hosts can query stored video data directly.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/tubewatch/internal/services/chatbot"
)

const (
	serverName    = "tubewatch"
	serverVersion = "1.0.0"
)

// Server wraps an MCP server with the analytics toolset registered.
type Server struct {
	mcpServer *mcp.Server
}

// NewServer builds an MCP server exposing the analytics tools.
func NewServer(tools *chatbot.Tools) (*Server, error) {
	if tools == nil {
		return nil, fmt.Errorf("analytics tools are required")
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	server := &Server{mcpServer: mcpServer}
	if err := registerAnalyticsTools(mcpServerRegistrationAdapter{server: mcpServer}, tools); err != nil {
		return nil, fmt.Errorf("register analytics tools: %w", err)
	}
	return server, nil
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	return err
}

type mcpRegistrationTarget interface {
	AddTool(*mcp.Tool, any) error
}

type mcpServerRegistrationAdapter struct {
	server *mcp.Server
}

func (r mcpServerRegistrationAdapter) AddTool(tool *mcp.Tool, handler any) error {
	return addMCPTool(r.server, tool, handler)
}

type mcpToolRegistrar struct {
	matches func(any) bool
	add     func(*mcp.Server, *mcp.Tool, any)
}

func newMCPToolRegistrar[I any, O any]() mcpToolRegistrar {
	return mcpToolRegistrar{
		matches: func(handler any) bool {
			_, ok := handler.(mcp.ToolHandlerFor[I, O])
			return ok
		},
		add: func(server *mcp.Server, tool *mcp.Tool, handler any) {
			mcp.AddTool(server, tool, handler.(mcp.ToolHandlerFor[I, O]))
		},
	}
}

var mcpToolRegistrars = []mcpToolRegistrar{
	newMCPToolRegistrar[VideoCountInput, chatbot.CountResult](),
	newMCPToolRegistrar[SearchInput, chatbot.SearchResult](),
	newMCPToolRegistrar[UploadStatisticsInput, chatbot.UploadStats](),
	newMCPToolRegistrar[RecentActivityInput, chatbot.ActivityResult](),
	newMCPToolRegistrar[EngagementReportInput, chatbot.EngagementResult](),
}

func addMCPTool(server *mcp.Server, tool *mcp.Tool, handler any) error {
	for _, registrar := range mcpToolRegistrars {
		if registrar.matches(handler) {
			registrar.add(server, tool, handler)
			return nil
		}
	}
	toolName := "<nil>"
	if tool != nil {
		toolName = tool.Name
	}
	return fmt.Errorf("registration adapter does not support handler type %T for tool %q", handler, toolName)
}

func registerAnalyticsTools(registrar mcpRegistrationTarget, tools *chatbot.Tools) error {
	registrations := []struct {
		tool    *mcp.Tool
		handler any
	}{
		{tool: VideoCountTool(), handler: VideoCountHandler(tools)},
		{tool: SearchTool(), handler: SearchHandler(tools)},
		{tool: UploadStatisticsTool(), handler: UploadStatisticsHandler(tools)},
		{tool: RecentActivityTool(), handler: RecentActivityHandler(tools)},
		{tool: EngagementReportTool(), handler: EngagementReportHandler(tools)},
	}
	for _, registration := range registrations {
		if registration.tool == nil {
			return fmt.Errorf("tool is nil")
		}
		if err := registrar.AddTool(registration.tool, registration.handler); err != nil {
			return err
		}
	}
	return nil
}
