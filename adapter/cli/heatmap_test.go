package cli

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/application/queries"
	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rangeRepo struct {
	domain.SessionRepository
	sessions []*domain.Session
}

func (r *rangeRepo) FindByLearnerRange(ctx context.Context, learnerID uuid.UUID, from, to time.Time) ([]*domain.Session, error) {
	return r.sessions, nil
}

func session(t *testing.T, learner uuid.UUID, subject string, start time.Time, d time.Duration, status domain.SessionStatus) *domain.Session {
	t.Helper()
	return domain.RehydrateSession(uuid.New(), learner, uuid.Nil, subject, subject, start, start.Add(d), status, start, start)
}

func TestHeatmapCommand(t *testing.T) {
	learner := uuid.New()
	monday := time.Date(2024, time.September, 2, 9, 0, 0, 0, time.UTC)
	repo := &rangeRepo{sessions: []*domain.Session{
		session(t, learner, "math", monday, 30*time.Minute, domain.StatusScheduled),
		session(t, learner, "math", monday.AddDate(0, 0, 1), time.Hour, domain.StatusDone),
		session(t, learner, "math", monday.AddDate(0, 0, 2), time.Hour, domain.StatusCancelled),
	}}
	a := NewApp(nil, nil, nil, nil, nil, queries.NewGetWeeklyHeatmapHandler(repo, time.UTC))

	out, err := execute(t, a, "heatmap", "--learner", learner.String(), "--start", "2024-09-02", "--end", "2024-09-08")

	require.NoError(t, err)
	assert.Contains(t, out, "Week 1")
	assert.Contains(t, out, "60/90")
	assert.Contains(t, out, "Total: 60 of 90 minutes completed")
}

func TestHeatmapCommand_Empty(t *testing.T) {
	a := NewApp(nil, nil, nil, nil, nil, queries.NewGetWeeklyHeatmapHandler(&rangeRepo{}, time.UTC))

	out, err := execute(t, a, "heatmap", "--learner", uuid.NewString(), "--start", "2024-09-02", "--end", "2024-09-08")

	require.NoError(t, err)
	assert.Contains(t, out, "No sessions in range.")
}

func TestHeatmapCommand_BadLearner(t *testing.T) {
	a := NewApp(nil, nil, nil, nil, nil, queries.NewGetWeeklyHeatmapHandler(&rangeRepo{}, time.UTC))

	_, err := execute(t, a, "heatmap", "--learner", "nobody")

	assert.Error(t, err)
}
