package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/kinplan/adapter/cli"
	"github.com/felixgeelhaar/kinplan/pkg/observability"
	"github.com/felixgeelhaar/mcp-go"
)

// RegisterResources registers MCP resources that expose kinplan state.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	app := deps.App

	srv.Resource("kinplan://health").
		Name("Health").
		Description("Status of the session store, edit state and event bus").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			return healthContent(ctx, uri, app)
		})

	srv.Resource("kinplan://metrics").
		Name("Metrics").
		Description("Rebalance, planner and event counters since the server started").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			return metricsContent(uri, app)
		})

	srv.Resource("kinplan://version").
		Name("Version").
		Description("kinplan build information").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			return jsonContent(uri, map[string]string{
				"version":   cli.Version,
				"commit":    cli.Commit,
				"buildDate": cli.BuildDate,
			})
		})

	return nil
}

func healthContent(ctx context.Context, uri string, app *cli.App) (*mcp.ResourceContent, error) {
	if app == nil || app.Health == nil {
		return nil, fmt.Errorf("health checks not configured")
	}
	results := app.Health.Check(ctx)
	return jsonContent(uri, map[string]any{
		"status": observability.OverallStatus(results),
		"checks": results,
	})
}

func metricsContent(uri string, app *cli.App) (*mcp.ResourceContent, error) {
	samples := []observability.Sample{}
	if app != nil && app.Metrics != nil {
		samples = app.Metrics.Snapshot()
	}
	return jsonContent(uri, map[string]any{"metrics": samples})
}

func jsonContent(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
