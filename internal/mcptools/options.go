package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/service"
)

// GenerateOptionsTool handles the pathwise_generate_options MCP tool.
type GenerateOptionsTool struct {
	registry *service.SessionRegistry
}

func NewGenerateOptionsTool(registry *service.SessionRegistry) *GenerateOptionsTool {
	return &GenerateOptionsTool{registry: registry}
}

// Definition returns the MCP tool definition for pathwise_generate_options.
func (t *GenerateOptionsTool) Definition() mcp.Tool {
	return mcp.NewTool("pathwise_generate_options",
		mcp.WithDescription(
			"Generate and evaluate alternative decision paths for a session whose flexibility is declining. "+
				"Options come from independent strategies and are ranked by flexibility gain, cost, reversibility, "+
				"synergy, and time to value.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session to generate options for"),
		),
		mcp.WithString("categories",
			mcp.Description("Comma-separated category filter: structural, temporal, conceptual, relational, resource, capability"),
		),
		mcp.WithNumber("target_count",
			mcp.Description("Stop once this many options are collected (default 10)"),
		),
	)
}

// Handle processes the pathwise_generate_options tool call.
func (t *GenerateOptionsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}

	mgr, err := t.registry.GetOrCreate(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open session: %v", err)), nil
	}

	domainReq := domain.OptionRequest{
		TargetCount: int(req.GetFloat("target_count", 0)),
	}
	for _, c := range splitList(req.GetString("categories", "")) {
		if !domain.ValidOptionCategory(c) {
			return mcp.NewToolResultError(fmt.Sprintf("invalid category: %s", c)), nil
		}
		domainReq.Categories = append(domainReq.Categories, domain.OptionCategory(c))
	}

	result := mgr.GenerateOptions(domainReq)

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}
