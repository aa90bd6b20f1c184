// Pathwise MCP server (stdio transport).
//
// Exposes flexibility tracking, option generation, and escape protocols
// as MCP tools for any MCP-capable client. Logs go to stderr so stdout
// stays clean for the protocol.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pathwise-ai/pathwise/internal/config"
	"github.com/pathwise-ai/pathwise/internal/mcpserver"
	"github.com/pathwise-ai/pathwise/internal/service"
	"github.com/pathwise-ai/pathwise/internal/store"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// stdout carries the MCP protocol; all logging goes to stderr.
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"stderr"}
	logger, err := logCfg.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := config.Load(); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	seed, ok := config.RandomSeed()
	if !ok {
		seed = time.Now().UnixNano()
	}
	cfg := service.DefaultConfig(seed)
	cfg.SessionCapacity = config.SessionCapacity()

	ctx := context.Background()

	var pool *pgxpool.Pool
	if dbURL := config.DatabaseURL(); dbURL != "" {
		pool, err = pgxpool.New(ctx, dbURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		if err := store.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
		logger.Info("persistence enabled")
	} else {
		logger.Info("no DATABASE_URL, running in memory")
	}

	s := mcpserver.New(pool, cfg, logger)
	return server.ServeStdio(s)
}
