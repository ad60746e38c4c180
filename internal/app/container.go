package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/kinplan/internal/planning/application/commands"
	"github.com/felixgeelhaar/kinplan/internal/planning/application/queries"
	"github.com/felixgeelhaar/kinplan/internal/planning/application/services"
	"github.com/felixgeelhaar/kinplan/internal/planning/application/subscribers"
	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/felixgeelhaar/kinplan/internal/planning/infrastructure/editstate"
	"github.com/felixgeelhaar/kinplan/internal/planning/infrastructure/notify"
	"github.com/felixgeelhaar/kinplan/internal/planning/infrastructure/persistence"
	"github.com/felixgeelhaar/kinplan/internal/planning/infrastructure/planner"
	"github.com/felixgeelhaar/kinplan/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/kinplan/internal/shared/infrastructure/database/postgres" // Register Postgres driver
	_ "github.com/felixgeelhaar/kinplan/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/kinplan/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/kinplan/pkg/config"
	"github.com/felixgeelhaar/kinplan/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// Database
	DB database.Connection

	// Redis
	RedisClient *redis.Client

	// Collaborators
	SessionRepo    domain.SessionRepository
	EditStates     domain.EditStateStore
	Planner        services.Planner
	EventPublisher eventbus.Publisher

	// LocalBus is set when events are delivered in process. Callers may
	// register extra consumers on it.
	LocalBus *eventbus.InProcessBus

	// Services
	ConflictDetector *services.ConflictDetector
	Applier          *services.SequentialApplier
	Rebalancer       *services.Rebalancer

	// Command Handlers
	SaveSessionHandler      *commands.SaveSessionHandler
	PreviewRebalanceHandler *commands.PreviewRebalanceHandler
	EditMoveHandler         *commands.EditMoveHandler
	ApplyRebalanceHandler   *commands.ApplyRebalanceHandler

	// Query Handlers
	GetWeekBucketsHandler   *queries.GetWeekBucketsHandler
	GetWeeklyHeatmapHandler *queries.GetWeeklyHeatmapHandler

	pluginPlanner *planner.PluginPlanner
}

// NewContainer creates a new container with all dependencies wired. Without
// DATABASE_URL it runs in local mode: SQLite, an in-process event bus and
// in-memory edit state.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	if err := c.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := c.initEditState(ctx); err != nil {
		c.Close()
		return nil, err
	}

	if err := c.initPlanner(); err != nil {
		c.Close()
		return nil, err
	}

	if err := c.initPublisher(); err != nil {
		c.Close()
		return nil, err
	}

	c.wireHandlers()

	logger.Info("container ready",
		"driver", c.DB.Driver().String(),
		"local_mode", cfg.LocalMode,
		"redis", c.RedisClient != nil,
		"local_bus", c.LocalBus != nil,
	)
	return c, nil
}

func (c *Container) initDatabase(ctx context.Context) error {
	driver := database.Driver(c.Config.DatabaseDriver)
	url := c.Config.DatabaseURL
	if driver == database.DriverSQLite {
		url = ""
	}

	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     driver,
		URL:        url,
		SQLitePath: c.Config.SQLitePath,
		MaxConns:   c.Config.DatabaseConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.Migrate(ctx); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	c.DB = conn
	c.Health.Register("database", observability.PingChecker("database", observability.HealthStatusUnhealthy, conn.Ping))

	repo, err := sessionRepository(conn)
	if err != nil {
		_ = conn.Close()
		return err
	}
	c.SessionRepo = repo

	c.Logger.Info("connected to database", "driver", conn.Driver().String())
	return nil
}

// sessionRepository picks the repository matching the connection's SQL
// dialect.
func sessionRepository(conn database.Connection) (domain.SessionRepository, error) {
	switch conn.Driver() {
	case database.DriverPostgres:
		return persistence.NewPostgresSessionRepository(conn), nil
	case database.DriverSQLite:
		return persistence.NewSQLiteSessionRepository(conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", conn.Driver())
	}
}

func (c *Container) initEditState(ctx context.Context) error {
	if c.Config.RedisURL == "" {
		c.EditStates = editstate.NewMemoryStore(c.Config.EditStateTTL)
		return nil
	}

	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, edit state will use in-memory fallback", "error", err)
		c.EditStates = editstate.NewMemoryStore(c.Config.EditStateTTL)
		return nil
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, edit state will use in-memory fallback", "error", err)
		c.EditStates = editstate.NewMemoryStore(c.Config.EditStateTTL)
		return nil
	}

	c.RedisClient = client
	c.EditStates = editstate.NewRedisStore(client, c.Config.EditStateTTL)
	c.Health.Register("redis", observability.PingChecker("redis", observability.HealthStatusDegraded, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	c.Logger.Info("connected to Redis")
	return nil
}

func (c *Container) initPlanner() error {
	switch {
	case c.Config.PlannerPluginPath != "":
		p, err := planner.LaunchPlugin(c.Config.PlannerPluginPath, c.SessionRepo, c.Logger)
		if err != nil {
			return fmt.Errorf("failed to launch planner plugin: %w", err)
		}
		c.pluginPlanner = p
		c.Planner = p
		c.Logger.Info("using planner plugin", "path", c.Config.PlannerPluginPath)

	case c.Config.PlannerURL != "":
		client, err := planner.NewClient(planner.Config{
			BaseURL:         c.Config.PlannerURL,
			Timeout:         c.Config.PlannerTimeout,
			ClientID:        c.Config.PlannerClientID,
			ClientSecret:    c.Config.PlannerClientSecret,
			TokenURL:        c.Config.PlannerTokenURL,
			Scopes:          c.Config.PlannerScopes,
			BreakerFailures: uint32(max(c.Config.PlannerBreakerFailures, 0)),
		}, c.Logger, c.Metrics)
		if err != nil {
			return err
		}
		c.Planner = client
		c.Logger.Info("using planning service", "url", c.Config.PlannerURL, "oauth", c.Config.UsesOAuth())

	default:
		c.Logger.Warn("no planner configured; rebalance previews will fail")
		c.Planner = services.PlannerFunc(func(ctx context.Context, req services.PreviewRequest) ([]domain.Move, error) {
			return nil, fmt.Errorf("no planner configured: %w", domain.ErrPlannerUnavailable)
		})
	}
	return nil
}

func (c *Container) initPublisher() error {
	if c.Config.RabbitMQURL == "" || c.Config.LocalMode {
		bus := eventbus.NewInProcessBus(c.Logger)
		bus.RegisterConsumer(subscribers.NewScheduleRefreshSubscriber(nil, c.Logger))
		c.LocalBus = bus
		c.EventPublisher = bus
		return nil
	}

	publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
		c.EventPublisher = eventbus.NewNoopPublisher(c.Logger)
		return nil
	}
	c.EventPublisher = publisher
	c.Health.Register("rabbitmq", observability.PingChecker("rabbitmq", observability.HealthStatusDegraded, publisher.Ping))
	return nil
}

func (c *Container) wireHandlers() {
	loc := c.Config.Location
	notifier := notify.NewBusNotifier(c.EventPublisher, c.Logger, c.Metrics)

	c.ConflictDetector = services.NewConflictDetector(c.SessionRepo, c.Config.ConflictWindow, c.Logger)
	c.Applier = services.NewSequentialApplier(c.SessionRepo, c.ConflictDetector, notifier, loc, c.Logger, c.Metrics)
	orchestrator := services.NewPreviewOrchestrator(c.Planner, c.Logger, c.Metrics)
	c.Rebalancer = services.NewRebalancer(orchestrator, c.ConflictDetector, c.Applier, c.SessionRepo, loc)

	c.SaveSessionHandler = commands.NewSaveSessionHandler(c.SessionRepo)
	c.PreviewRebalanceHandler = commands.NewPreviewRebalanceHandler(c.Rebalancer, c.EditStates)
	c.EditMoveHandler = commands.NewEditMoveHandler(c.Rebalancer, c.EditStates)
	c.ApplyRebalanceHandler = commands.NewApplyRebalanceHandler(c.Rebalancer, c.Applier, c.EditStates, c.Logger)

	c.GetWeekBucketsHandler = queries.NewGetWeekBucketsHandler()
	c.GetWeeklyHeatmapHandler = queries.NewGetWeeklyHeatmapHandler(c.SessionRepo, loc)
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.pluginPlanner != nil {
		c.pluginPlanner.Close()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DB.Driver().String())
		}
	}
}
