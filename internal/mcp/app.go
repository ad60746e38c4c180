package mcp

import (
	"github.com/felixgeelhaar/kinplan/adapter/cli"
	"github.com/felixgeelhaar/kinplan/internal/app"
)

// NewCLIApp creates a CLI application instance backed by the provided container.
func NewCLIApp(container *app.Container) *cli.App {
	cliApp := cli.NewApp(
		container.SaveSessionHandler,
		container.PreviewRebalanceHandler,
		container.EditMoveHandler,
		container.ApplyRebalanceHandler,
		container.GetWeekBucketsHandler,
		container.GetWeeklyHeatmapHandler,
	)

	cliApp.SetHealthRegistry(container.Health)
	cliApp.SetMetrics(container.Metrics)
	if container.LocalBus != nil {
		cliApp.SetLocalBus(container.LocalBus)
	}
	if container.Config != nil {
		cliApp.SetLocation(container.Config.Location)
	}

	return cliApp
}
