package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/service"
)

// EscapeAnalysisTool handles the pathwise_escape_analysis MCP tool.
type EscapeAnalysisTool struct {
	registry *service.SessionRegistry
}

func NewEscapeAnalysisTool(registry *service.SessionRegistry) *EscapeAnalysisTool {
	return &EscapeAnalysisTool{registry: registry}
}

// Definition returns the MCP tool definition for pathwise_escape_analysis.
func (t *EscapeAnalysisTool) Definition() mcp.Tool {
	return mcp.NewTool("pathwise_escape_analysis",
		mcp.WithDescription(
			"Analyze what it would take to escape the session's accumulated constraints: constraint pressure by "+
				"type, available resources, the escape force needed, the recommended protocol, and a phased plan "+
				"with rollback points.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session to analyze"),
		),
		mcp.WithString("problem",
			mcp.Description("Problem statement for context"),
		),
		mcp.WithNumber("time_pressure",
			mcp.Description("Session time pressure, 0 to 1"),
		),
		mcp.WithString("stakeholders",
			mcp.Description("Comma-separated stakeholder names"),
		),
	)
}

// Handle processes the pathwise_escape_analysis tool call.
func (t *EscapeAnalysisTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}

	mgr, err := t.registry.GetOrCreate(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open session: %v", err)), nil
	}

	sctx := &domain.SessionContext{
		SessionID:    sessionID,
		Problem:      req.GetString("problem", ""),
		TimePressure: req.GetFloat("time_pressure", 0),
		Stakeholders: splitList(req.GetString("stakeholders", "")),
	}

	analysis, err := mgr.AnalyzeEscapeVelocity(sctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("escape analysis failed: %v", err)), nil
	}

	payload, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// ExecuteEscapeTool handles the pathwise_execute_escape MCP tool.
type ExecuteEscapeTool struct {
	registry *service.SessionRegistry
}

func NewExecuteEscapeTool(registry *service.SessionRegistry) *ExecuteEscapeTool {
	return &ExecuteEscapeTool{registry: registry}
}

// Definition returns the MCP tool definition for pathwise_execute_escape.
func (t *ExecuteEscapeTool) Definition() mcp.Tool {
	return mcp.NewTool("pathwise_execute_escape",
		mcp.WithDescription(
			"Execute an escape protocol (level 1-5) against the session's constraints. Levels 3 and above are "+
				"disruptive and require approved=true. On success the weakest constraints are removed and new "+
				"options are opened.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session to run the protocol in"),
		),
		mcp.WithNumber("level",
			mcp.Required(),
			mcp.Description("Protocol level: 1 pattern interruption, 2 resource reallocation, 3 stakeholder reset, 4 technical refactoring, 5 strategic pivot"),
		),
		mcp.WithBoolean("approved",
			mcp.Description("Explicit user approval; required for levels 3 and above"),
		),
	)
}

// Handle processes the pathwise_execute_escape tool call.
func (t *ExecuteEscapeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}

	level := int(req.GetFloat("level", 0))
	if level < 1 || level > 5 {
		return mcp.NewToolResultError("'level' must be between 1 and 5"), nil
	}

	mgr, err := t.registry.GetOrCreate(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open session: %v", err)), nil
	}

	result, err := mgr.ExecuteEscapeProtocol(ctx, domain.ProtocolLevel(level), req.GetBool("approved", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("escape execution failed: %v", err)), nil
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}
