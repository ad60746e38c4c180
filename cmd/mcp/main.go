// Command mcp serves kinplan to MCP clients without the rest of the CLI.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/kinplan/internal/app"
	mcpinternal "github.com/felixgeelhaar/kinplan/internal/mcp"
	"github.com/felixgeelhaar/kinplan/pkg/config"
	"github.com/felixgeelhaar/kinplan/pkg/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := observability.LoggerFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		return 1
	}
	defer container.Close()

	for _, r := range container.Health.Check(ctx) {
		logger.Info("dependency status", "check", r.Name, "status", r.Status, "message", r.Message)
	}

	err = mcpinternal.Serve(ctx, cfg, mcpinternal.NewCLIApp(container), logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mcp server error", "error", err)
		return 1
	}
	return 0
}
