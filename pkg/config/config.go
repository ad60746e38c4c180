package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string
	Timezone string
	Location *time.Location

	// Storage
	LocalMode      bool
	DatabaseDriver string
	DatabaseURL    string
	DatabaseConns  int
	SQLitePath     string

	// Redis
	RedisURL     string
	EditStateTTL time.Duration

	// RabbitMQ
	RabbitMQURL string

	// Rebalance
	ConflictWindow time.Duration

	// Planner
	PlannerURL             string
	PlannerTimeout         time.Duration
	PlannerClientID        string
	PlannerClientSecret    string
	PlannerTokenURL        string
	PlannerScopes          []string
	PlannerBreakerFailures int
	PlannerPluginPath      string

	// MCP
	MCPAddr      string
	MCPAuthToken string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	databaseURL := getEnv("DATABASE_URL", "")
	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("KINPLAN_TIMEZONE", "UTC"),

		LocalMode:   getBoolEnv("KINPLAN_LOCAL_MODE", databaseURL == ""),
		DatabaseURL:   databaseURL,
		DatabaseConns: getIntEnv("DATABASE_MAX_CONNS", 0),
		SQLitePath:    getEnv("SQLITE_PATH", defaultSQLitePath()),

		RedisURL:     getEnv("REDIS_URL", ""),
		EditStateTTL: getDurationEnv("KINPLAN_EDIT_STATE_TTL", 30*time.Minute),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		ConflictWindow: getDurationEnv("KINPLAN_CONFLICT_WINDOW", 24*time.Hour),

		PlannerURL:             getEnv("KINPLAN_PLANNER_URL", ""),
		PlannerTimeout:         getDurationEnv("KINPLAN_PLANNER_TIMEOUT", 15*time.Second),
		PlannerClientID:        getEnv("KINPLAN_PLANNER_CLIENT_ID", ""),
		PlannerClientSecret:    getEnv("KINPLAN_PLANNER_CLIENT_SECRET", ""),
		PlannerTokenURL:        getEnv("KINPLAN_PLANNER_TOKEN_URL", ""),
		PlannerScopes:          getListEnv("KINPLAN_PLANNER_SCOPES"),
		PlannerBreakerFailures: getIntEnv("KINPLAN_PLANNER_BREAKER_FAILURES", 5),
		PlannerPluginPath:      getEnv("KINPLAN_PLANNER_PLUGIN", ""),

		MCPAddr:      getEnv("MCP_ADDR", "127.0.0.1:8082"),
		MCPAuthToken: getEnv("MCP_AUTH_TOKEN", ""),
	}

	cfg.DatabaseDriver = "postgres"
	if cfg.LocalMode || cfg.DatabaseURL == "" {
		cfg.DatabaseDriver = "sqlite"
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid KINPLAN_TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// IsSQLite reports whether sessions live in the local SQLite file.
func (c *Config) IsSQLite() bool {
	return c.DatabaseDriver == "sqlite"
}

// IsPostgres reports whether sessions live in Postgres.
func (c *Config) IsPostgres() bool {
	return c.DatabaseDriver == "postgres"
}

// UsesOAuth reports whether planner requests need client-credentials tokens.
func (c *Config) UsesOAuth() bool {
	return c.PlannerClientID != "" && c.PlannerTokenURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".kinplan", "kinplan.db")
	}
	return filepath.Join(home, ".kinplan", "kinplan.db")
}
