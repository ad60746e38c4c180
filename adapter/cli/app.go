package cli

import (
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/application/commands"
	"github.com/felixgeelhaar/kinplan/internal/planning/application/queries"
	"github.com/felixgeelhaar/kinplan/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/kinplan/pkg/observability"
)

// App holds the CLI application dependencies.
type App struct {
	// Command Handlers
	SaveSessionHandler      *commands.SaveSessionHandler
	PreviewRebalanceHandler *commands.PreviewRebalanceHandler
	EditMoveHandler         *commands.EditMoveHandler
	ApplyRebalanceHandler   *commands.ApplyRebalanceHandler

	// Query Handlers
	GetWeekBucketsHandler   *queries.GetWeekBucketsHandler
	GetWeeklyHeatmapHandler *queries.GetWeeklyHeatmapHandler

	Health   *observability.HealthRegistry
	Metrics  *observability.InMemoryMetrics
	LocalBus *eventbus.InProcessBus

	// Location resolves dates and HH:MM times given on the command line.
	Location *time.Location
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	saveSessionHandler *commands.SaveSessionHandler,
	previewRebalanceHandler *commands.PreviewRebalanceHandler,
	editMoveHandler *commands.EditMoveHandler,
	applyRebalanceHandler *commands.ApplyRebalanceHandler,
	getWeekBucketsHandler *queries.GetWeekBucketsHandler,
	getWeeklyHeatmapHandler *queries.GetWeeklyHeatmapHandler,
) *App {
	return &App{
		SaveSessionHandler:      saveSessionHandler,
		PreviewRebalanceHandler: previewRebalanceHandler,
		EditMoveHandler:         editMoveHandler,
		ApplyRebalanceHandler:   applyRebalanceHandler,
		GetWeekBucketsHandler:   getWeekBucketsHandler,
		GetWeeklyHeatmapHandler: getWeeklyHeatmapHandler,
		Location:                time.UTC,
	}
}

// SetHealthRegistry updates the health registry.
func (a *App) SetHealthRegistry(r *observability.HealthRegistry) {
	a.Health = r
}

// SetMetrics updates the metrics collector read by status surfaces.
func (a *App) SetMetrics(m *observability.InMemoryMetrics) {
	a.Metrics = m
}

// SetLocalBus updates the in-process event bus.
func (a *App) SetLocalBus(bus *eventbus.InProcessBus) {
	a.LocalBus = bus
}

// SetLocation updates the location used to resolve dates and times.
func (a *App) SetLocation(loc *time.Location) {
	if loc != nil {
		a.Location = loc
	}
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
