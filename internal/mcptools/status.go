package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pathwise-ai/pathwise/internal/service"
)

// SessionStatusTool handles the pathwise_session_status MCP tool.
type SessionStatusTool struct {
	registry *service.SessionRegistry
}

func NewSessionStatusTool(registry *service.SessionRegistry) *SessionStatusTool {
	return &SessionStatusTool{registry: registry}
}

// Definition returns the MCP tool definition for pathwise_session_status.
func (t *SessionStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("pathwise_session_status",
		mcp.WithDescription(
			"Summarize a session's current flexibility state: score, option velocity, barrier distances, active "+
				"warnings, ranked escape routes, and escape attempt statistics.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session to summarize"),
		),
		mcp.WithBoolean("include_path",
			mcp.Description("Include the full event history in the response"),
		),
	)
}

// Handle processes the pathwise_session_status tool call.
func (t *SessionStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}

	mgr, err := t.registry.GetOrCreate(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open session: %v", err)), nil
	}

	response := map[string]any{
		"summary":       mgr.Status(),
		"metrics":       mgr.Metrics(),
		"warnings":      mgr.Warnings(),
		"escape_routes": mgr.EscapeRoutes(),
		"escape_stats":  mgr.EscapeStats(),
	}
	if req.GetBool("include_path", false) {
		response["path"] = mgr.PathMemory()
	}

	payload, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}
