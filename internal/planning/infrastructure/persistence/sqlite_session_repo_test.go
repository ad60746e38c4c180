package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/felixgeelhaar/kinplan/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/kinplan/internal/shared/infrastructure/database/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLiteRepo(t *testing.T) *SQLiteSessionRepository {
	t.Helper()

	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: filepath.Join(t.TempDir(), "kinplan.db")})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.Migrate(ctx))

	return NewSQLiteSessionRepository(conn)
}

var monday = time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)

func saveSession(t *testing.T, repo domain.SessionRepository, learner uuid.UUID, subject string, start time.Time, d time.Duration) *domain.Session {
	t.Helper()
	s, err := domain.NewSession(learner, uuid.New(), subject, "", start, start.Add(d))
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), s))
	return s
}

func TestSQLiteSessionRepository_SaveAndFindByID(t *testing.T) {
	repo := setupSQLiteRepo(t)
	learner := uuid.New()
	saved := saveSession(t, repo, learner, "math", monday.Add(9*time.Hour), time.Hour)

	found, err := repo.FindByID(context.Background(), saved.ID())

	require.NoError(t, err)
	assert.Equal(t, saved.ID(), found.ID())
	assert.Equal(t, learner, found.LearnerID())
	assert.Equal(t, saved.PlanID(), found.PlanID())
	assert.Equal(t, "math", found.Subject())
	assert.Equal(t, "math", found.Title())
	assert.True(t, saved.Start().Equal(found.Start()))
	assert.True(t, saved.End().Equal(found.End()))
	assert.Equal(t, domain.StatusScheduled, found.Status())
}

func TestSQLiteSessionRepository_FindByID_NotFound(t *testing.T) {
	repo := setupSQLiteRepo(t)

	_, err := repo.FindByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSQLiteSessionRepository_SaveUpdatesStatus(t *testing.T) {
	repo := setupSQLiteRepo(t)
	s := saveSession(t, repo, uuid.New(), "math", monday.Add(9*time.Hour), time.Hour)

	s.MarkDone()
	require.NoError(t, repo.Save(context.Background(), s))

	found, err := repo.FindByID(context.Background(), s.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, found.Status())
}

func TestSQLiteSessionRepository_FindByLearnerWindow(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := context.Background()
	learner := uuid.New()

	morning := saveSession(t, repo, learner, "math", monday.Add(9*time.Hour), time.Hour)
	cancelled := saveSession(t, repo, learner, "art", monday.Add(11*time.Hour), time.Hour)
	cancelled.Cancel()
	require.NoError(t, repo.Save(ctx, cancelled))
	saveSession(t, repo, learner, "math", monday.Add(48*time.Hour), time.Hour)
	saveSession(t, repo, uuid.New(), "math", monday.Add(9*time.Hour), time.Hour)

	all, err := repo.FindByLearnerWindow(ctx, learner, monday, monday.Add(24*time.Hour), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	committed, err := repo.FindByLearnerWindow(ctx, learner, monday, monday.Add(24*time.Hour), domain.CommittedStatuses)
	require.NoError(t, err)
	require.Len(t, committed, 1)
	assert.Equal(t, morning.ID(), committed[0].ID())
}

func TestSQLiteSessionRepository_FindByLearnerWindow_TouchingExcluded(t *testing.T) {
	repo := setupSQLiteRepo(t)
	learner := uuid.New()
	saveSession(t, repo, learner, "math", monday.Add(9*time.Hour), time.Hour)

	found, err := repo.FindByLearnerWindow(context.Background(), learner, monday.Add(10*time.Hour), monday.Add(11*time.Hour), nil)

	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSQLiteSessionRepository_FindByLearnerRange(t *testing.T) {
	repo := setupSQLiteRepo(t)
	learner := uuid.New()
	first := saveSession(t, repo, learner, "math", monday.Add(9*time.Hour), time.Hour)
	second := saveSession(t, repo, learner, "reading", monday.Add(6*24*time.Hour+20*time.Hour), time.Hour)
	saveSession(t, repo, learner, "math", monday.Add(7*24*time.Hour), time.Hour)

	found, err := repo.FindByLearnerRange(context.Background(), learner, monday, monday.Add(7*24*time.Hour))

	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, first.ID(), found[0].ID())
	assert.Equal(t, second.ID(), found[1].ID())
}

func TestSQLiteSessionRepository_UpdateTimes(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := context.Background()
	s := saveSession(t, repo, uuid.New(), "math", monday.Add(9*time.Hour), time.Hour)

	start := monday.Add(33 * time.Hour)
	require.NoError(t, repo.UpdateTimes(ctx, s.ID(), start, start.Add(time.Hour)))

	found, err := repo.FindByID(ctx, s.ID())
	require.NoError(t, err)
	assert.True(t, start.Equal(found.Start()))
	assert.Equal(t, time.Hour, found.Duration())
}

func TestSQLiteSessionRepository_UpdateTimes_Errors(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := context.Background()

	err := repo.UpdateTimes(ctx, uuid.New(), monday, monday.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	err = repo.UpdateTimes(ctx, uuid.New(), monday, monday)
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}
