package planner

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/application/services"
	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/felixgeelhaar/kinplan/pkg/plannersdk"
	plannertest "github.com/felixgeelhaar/kinplan/pkg/plannersdk/testing"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySessions struct {
	byID map[uuid.UUID]*domain.Session
}

func (m *memorySessions) Save(ctx context.Context, s *domain.Session) error {
	m.byID[s.ID()] = s
	return nil
}

func (m *memorySessions) FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (m *memorySessions) FindByLearnerWindow(ctx context.Context, learnerID uuid.UUID, from, to time.Time, statuses []domain.SessionStatus) ([]*domain.Session, error) {
	return nil, nil
}

func (m *memorySessions) FindByLearnerRange(ctx context.Context, learnerID uuid.UUID, from, to time.Time) ([]*domain.Session, error) {
	var out []*domain.Session
	for _, s := range m.byID {
		if s.LearnerID() == learnerID && !s.Start().Before(from) && s.Start().Before(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memorySessions) UpdateTimes(ctx context.Context, id uuid.UUID, start, end time.Time) error {
	return nil
}

// shiftPlanner moves every upcoming session by the anchor's offset.
type shiftPlanner struct {
	seen *plannersdk.PreviewArgs
}

func (p *shiftPlanner) PreviewRebalance(args plannersdk.PreviewArgs) (*plannersdk.PreviewReply, error) {
	*p.seen = args
	reply := &plannersdk.PreviewReply{}
	for _, s := range args.Upcoming {
		reply.Moves = append(reply.Moves, plannersdk.Move{
			SessionID:     s.ID,
			CurrentStart:  s.Start,
			ProposedStart: s.Start.Add(args.Offset()),
		})
	}
	return reply, nil
}

type failingPlanner struct{}

func (failingPlanner) PreviewRebalance(plannersdk.PreviewArgs) (*plannersdk.PreviewReply, error) {
	return nil, errors.New("plugin exploded")
}

func TestPluginPlanner_PreviewRebalance(t *testing.T) {
	learner := uuid.New()
	start := time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC)
	anchor, err := domain.NewSession(learner, uuid.New(), "math", "", start, start.Add(time.Hour))
	require.NoError(t, err)
	next, err := domain.NewSession(learner, uuid.New(), "math", "", start.Add(48*time.Hour), start.Add(49*time.Hour))
	require.NoError(t, err)
	other, err := domain.NewSession(uuid.New(), uuid.New(), "math", "", start.Add(24*time.Hour), start.Add(25*time.Hour))
	require.NoError(t, err)

	repo := &memorySessions{byID: map[uuid.UUID]*domain.Session{anchor.ID(): anchor, next.ID(): next, other.ID(): other}}
	var seen plannersdk.PreviewArgs
	h := plannertest.NewHarness(t, &shiftPlanner{seen: &seen})

	p := NewPluginPlanner(h.Planner(), repo, nil)
	moves, err := p.PreviewRebalance(context.Background(), services.PreviewRequest{
		AnchorSessionID: anchor.ID(),
		NewAnchorStart:  start.Add(24 * time.Hour),
	})

	require.NoError(t, err)
	assert.Equal(t, anchor.ID().String(), seen.Anchor.ID)
	require.Len(t, seen.Upcoming, 1)
	require.Len(t, moves, 1)
	assert.Equal(t, next.ID(), moves[0].SessionID)
	assert.True(t, start.Add(72*time.Hour).Equal(moves[0].ProposedStart))
}

func TestPluginPlanner_Errors(t *testing.T) {
	repo := &memorySessions{byID: map[uuid.UUID]*domain.Session{}}
	p := NewPluginPlanner(plannertest.NewHarness(t, failingPlanner{}).Planner(), repo, nil)

	_, err := p.PreviewRebalance(context.Background(), services.PreviewRequest{AnchorSessionID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	start := time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC)
	anchor, err := domain.NewSession(uuid.New(), uuid.Nil, "math", "", start, start.Add(time.Hour))
	require.NoError(t, err)
	repo.byID[anchor.ID()] = anchor

	_, err = p.PreviewRebalance(context.Background(), services.PreviewRequest{AnchorSessionID: anchor.ID(), NewAnchorStart: start})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin exploded")
}

func TestValidateBinary(t *testing.T) {
	_, err := validateBinary("")
	assert.Error(t, err)

	_, err = validateBinary("relative/planner")
	assert.Error(t, err)

	_, err = validateBinary(t.TempDir())
	assert.Error(t, err)
}

func TestHclogAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var h hclog.Logger = newHclogAdapter(logger)
	h.Named("rpc").With("pid", 42).Log(hclog.Warn, "plugin exited")

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "plugin=planner-plugin.rpc")
	assert.Contains(t, out, "pid=42")
}
