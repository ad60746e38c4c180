package persistence

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/felixgeelhaar/kinplan/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/kinplan/internal/shared/infrastructure/database/postgres"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostgresRepo(t *testing.T) *PostgresSessionRepository {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	conn, err := postgres.NewConnection(ctx, database.Config{URL: dbURL})
	if err != nil {
		t.Skipf("Failed to connect to test database: %v", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		t.Skipf("Failed to ping test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.Migrate(ctx))
	_, _ = conn.Exec(ctx, "DELETE FROM learning_sessions")

	return NewPostgresSessionRepository(conn)
}

func TestPostgresSessionRepository_RoundTrip(t *testing.T) {
	repo := setupPostgresRepo(t)
	ctx := context.Background()
	learner := uuid.New()

	s := saveSession(t, repo, learner, "math", monday.Add(9*time.Hour), time.Hour)
	saveSession(t, repo, learner, "reading", monday.Add(11*time.Hour), 30*time.Minute)

	found, err := repo.FindByID(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, "math", found.Subject())
	assert.True(t, s.Start().Equal(found.Start()))

	window, err := repo.FindByLearnerWindow(ctx, learner, monday, monday.Add(24*time.Hour), domain.CommittedStatuses)
	require.NoError(t, err)
	assert.Len(t, window, 2)

	start := monday.Add(14 * time.Hour)
	require.NoError(t, repo.UpdateTimes(ctx, s.ID(), start, start.Add(time.Hour)))
	ranged, err := repo.FindByLearnerRange(ctx, learner, monday.Add(12*time.Hour), monday.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, s.ID(), ranged[0].ID())
}

func TestPostgresSessionRepository_NotFound(t *testing.T) {
	repo := setupPostgresRepo(t)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	err = repo.UpdateTimes(context.Background(), uuid.New(), monday, monday.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
