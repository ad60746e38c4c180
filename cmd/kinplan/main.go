package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/kinplan/adapter/cli"
	"github.com/felixgeelhaar/kinplan/adapter/cli/mcp"
	"github.com/felixgeelhaar/kinplan/adapter/cli/rebalance"
	"github.com/felixgeelhaar/kinplan/adapter/cli/session"
	"github.com/felixgeelhaar/kinplan/adapter/cli/watch"
	"github.com/felixgeelhaar/kinplan/internal/app"
	mcpinternal "github.com/felixgeelhaar/kinplan/internal/mcp"
	"github.com/felixgeelhaar/kinplan/pkg/config"
	"github.com/felixgeelhaar/kinplan/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.IsDevelopment() && os.Getenv("KINPLAN_LOG_LEVEL") == "" {
		logCfg := observability.DefaultLogConfig()
		logCfg.Level = observability.LogLevel(cfg.LogLevel)
		logger = observability.NewLogger(logCfg)
	}
	cli.SetLogger(logger)

	var cliApp *cli.App
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		// weeks and version still work without storage.
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()
		cliApp = mcpinternal.NewCLIApp(container)
	}
	cli.SetApp(cliApp)

	cli.AddCommand(session.Cmd)
	cli.AddCommand(rebalance.Cmd)
	cli.AddCommand(watch.Cmd)
	cli.AddCommand(mcp.Cmd)

	cli.ExecuteContext(ctx)
}
