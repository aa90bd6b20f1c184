// Package mcpserver is the composition root for the MCP surface: it
// wires the session registry into the tools and registers them on an
// MCP server instance. No business logic lives here.
package mcpserver

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/mcptools"
	"github.com/pathwise-ai/pathwise/internal/service"
	"github.com/pathwise-ai/pathwise/internal/store"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with every tool registered. A nil pool
// runs the engine fully in memory, which is the common MCP deployment.
func New(db *pgxpool.Pool, cfg service.Config, logger *zap.Logger) *server.MCPServer {
	var (
		sessionStore domain.SessionStore
		eventStore   domain.EventStore
		attemptStore domain.AttemptStore
	)
	if db != nil {
		sessionStore = store.NewSessionStore(db)
		eventStore = store.NewEventStore(db)
		attemptStore = store.NewAttemptStore(db)
	}

	classifier := service.NewHeuristicClassifier()
	registry := service.NewSessionRegistry(cfg, classifier, sessionStore, eventStore, attemptStore, logger)

	s := server.NewMCPServer(
		"pathwise",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	recordTool := mcptools.NewRecordStepTool(registry)
	s.AddTool(recordTool.Definition(), recordTool.Handle)

	optionsTool := mcptools.NewGenerateOptionsTool(registry)
	s.AddTool(optionsTool.Definition(), optionsTool.Handle)

	analysisTool := mcptools.NewEscapeAnalysisTool(registry)
	s.AddTool(analysisTool.Definition(), analysisTool.Handle)

	executeTool := mcptools.NewExecuteEscapeTool(registry)
	s.AddTool(executeTool.Definition(), executeTool.Handle)

	statusTool := mcptools.NewSessionStatusTool(registry)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	return s
}

const instructions = `Pathwise tracks how each decision in a creative-thinking session
constrains future decisions. Record every significant decision with
pathwise_record_step. When the flexibility score drops below 0.4, call
pathwise_generate_options; below 0.2, call pathwise_escape_analysis and,
with user approval where required, pathwise_execute_escape.`
