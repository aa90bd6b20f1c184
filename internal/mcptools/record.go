// Package mcptools exposes the flexibility engine as MCP tools over
// stdio, one struct per tool with a Definition/Handle pair.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/service"
)

// RecordStepTool handles the pathwise_record_step MCP tool.
type RecordStepTool struct {
	registry *service.SessionRegistry
}

func NewRecordStepTool(registry *service.SessionRegistry) *RecordStepTool {
	return &RecordStepTool{registry: registry}
}

// Definition returns the MCP tool definition for pathwise_record_step.
func (t *RecordStepTool) Definition() mcp.Tool {
	return mcp.NewTool("pathwise_record_step",
		mcp.WithDescription(
			"Record one thinking-step decision and its flexibility impact. Call after every decision that opens or "+
				"closes future options, so path flexibility is tracked continuously and lock-in is caught early.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session this decision belongs to"),
		),
		mcp.WithString("technique",
			mcp.Required(),
			mcp.Description("Creative technique that produced the decision (e.g. six_hats, scamper, po)"),
		),
		mcp.WithNumber("step",
			mcp.Description("Step number within the technique (default: next step)"),
		),
		mcp.WithString("decision",
			mcp.Required(),
			mcp.Description("The decision that was taken, in one sentence"),
		),
		mcp.WithString("options_opened",
			mcp.Description("Comma-separated option names this decision opened"),
		),
		mcp.WithString("options_closed",
			mcp.Description("Comma-separated option names this decision foreclosed"),
		),
		mcp.WithNumber("reversibility_cost",
			mcp.Description("Cost of undoing this decision, 0 (free) to 1 (irreversible). Default 0.3"),
		),
		mcp.WithNumber("commitment_level",
			mcp.Description("How binding the decision is, 0 to 1. Default 0.3"),
		),
		mcp.WithString("constraints_created",
			mcp.Description("Comma-separated descriptions of constraints this decision creates"),
		),
		mcp.WithString("problem",
			mcp.Description("Problem statement; enables barrier monitoring when provided"),
		),
		mcp.WithNumber("time_pressure",
			mcp.Description("Session time pressure, 0 to 1"),
		),
	)
}

// Handle processes the pathwise_record_step tool call.
func (t *RecordStepTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	technique := req.GetString("technique", "")
	decision := req.GetString("decision", "")

	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	if technique == "" {
		return mcp.NewToolResultError("'technique' is required"), nil
	}
	if decision == "" {
		return mcp.NewToolResultError("'decision' is required"), nil
	}

	mgr, err := t.registry.GetOrCreate(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open session: %v", err)), nil
	}

	impact := domain.Impact{
		OptionsOpened:      splitList(req.GetString("options_opened", "")),
		OptionsClosed:      splitList(req.GetString("options_closed", "")),
		ConstraintsCreated: splitList(req.GetString("constraints_created", "")),
	}
	if v := req.GetFloat("reversibility_cost", -1); v >= 0 {
		impact.ReversibilityCost = &v
	}
	if v := req.GetFloat("commitment_level", -1); v >= 0 {
		impact.CommitmentLevel = &v
	}

	step := int(req.GetFloat("step", 0))
	if step <= 0 {
		step = len(mgr.PathMemory().Events) + 1
	}

	var sctx *domain.SessionContext
	if problem := req.GetString("problem", ""); problem != "" {
		sctx = &domain.SessionContext{
			SessionID:    sessionID,
			Problem:      problem,
			TimePressure: req.GetFloat("time_pressure", 0),
		}
	}

	result, err := mgr.RecordThinkingStep(ctx, technique, step, decision, impact, sctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to record step: %v", err)), nil
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
