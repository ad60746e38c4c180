package rebalance

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/kinplan/adapter/cli"
	"github.com/felixgeelhaar/kinplan/internal/planning/application/commands"
	"github.com/felixgeelhaar/kinplan/internal/planning/application/queries"
	"github.com/felixgeelhaar/kinplan/internal/planning/application/services"
	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/felixgeelhaar/kinplan/internal/planning/infrastructure/editstate"
	"github.com/felixgeelhaar/kinplan/internal/planning/infrastructure/persistence"
	"github.com/felixgeelhaar/kinplan/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/kinplan/internal/shared/infrastructure/database/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2024, time.September, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	repo    domain.SessionRepository
	learner uuid.UUID
	plan    uuid.UUID
	anchor  uuid.UUID
	follow  []uuid.UUID
}

// newFixture stores an anchor on Monday and follow-up sessions on
// Wednesday and Friday, all at 09:00. The planner shifts follow-ups by
// the anchor's offset.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "kinplan.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.Migrate(ctx))

	f := &fixture{
		repo:    persistence.NewSQLiteSessionRepository(conn),
		learner: uuid.New(),
		plan:    uuid.New(),
	}
	save := commands.NewSaveSessionHandler(f.repo)
	for i := 0; i < 3; i++ {
		res, err := save.Handle(ctx, commands.SaveSessionCommand{
			LearnerID: f.learner,
			PlanID:    f.plan,
			Subject:   "math",
			Start:     monday.AddDate(0, 0, 2*i),
			Duration:  time.Hour,
		})
		require.NoError(t, err)
		if i == 0 {
			f.anchor = res.SessionID
		} else {
			f.follow = append(f.follow, res.SessionID)
		}
	}

	planner := services.PlannerFunc(func(ctx context.Context, req services.PreviewRequest) ([]domain.Move, error) {
		offset := req.NewAnchorStart.Sub(monday)
		moves := make([]domain.Move, 0, len(f.follow))
		for _, id := range f.follow {
			s, err := f.repo.FindByID(ctx, id)
			if err != nil {
				return nil, err
			}
			moves = append(moves, domain.Move{SessionID: id, CurrentStart: s.Start(), ProposedStart: s.Start().Add(offset)})
		}
		return moves, nil
	})

	states := editstate.NewMemoryStore(time.Minute)
	detector := services.NewConflictDetector(f.repo, 0, nil)
	applier := services.NewSequentialApplier(f.repo, detector, nil, time.UTC, nil, nil)
	rebalancer := services.NewRebalancer(services.NewPreviewOrchestrator(planner, nil, nil), detector, applier, f.repo, time.UTC)

	cli.SetApp(cli.NewApp(
		save,
		commands.NewPreviewRebalanceHandler(rebalancer, states),
		commands.NewEditMoveHandler(rebalancer, states),
		commands.NewApplyRebalanceHandler(rebalancer, applier, states, nil),
		queries.NewGetWeekBucketsHandler(),
		queries.NewGetWeeklyHeatmapHandler(f.repo, time.UTC),
	))
	t.Cleanup(func() { cli.SetApp(nil) })
	return f
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	previewPlan, previewStart = "", ""
	applyID, applyPlan, applyStart = "", "", ""
	applySkips, applyOverrides = nil, nil

	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(&out)
	Cmd.SetArgs(args)
	err := Cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (f *fixture) start(t *testing.T, id uuid.UUID) time.Time {
	t.Helper()
	s, err := f.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return s.Start().UTC()
}

func TestPreviewCommand(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, "preview", f.anchor.String(), "--plan", f.plan.String(), "--start", "2024-09-03 09:00")

	require.NoError(t, err)
	assert.Contains(t, out, "2 session(s) move")
	assert.Contains(t, out, f.follow[0].String())
	assert.Equal(t, monday.AddDate(0, 0, 2), f.start(t, f.follow[0]), "preview must not write")
}

func TestApplyCommand_SkipAndOverride(t *testing.T) {
	f := newFixture(t)

	out, err := run(t, "apply", f.anchor.String(),
		"--plan", f.plan.String(),
		"--start", "2024-09-03 09:00",
		"--skip", f.follow[1].String(),
		"--override", f.follow[0].String()+"=2024-09-05@14:00",
	)

	require.NoError(t, err)
	assert.Contains(t, out, "applied 1/1")
	assert.Contains(t, out, "Applied 1, failed 0, skipped by you 1")
	assert.Equal(t, time.Date(2024, time.September, 5, 14, 0, 0, 0, time.UTC), f.start(t, f.follow[0]))
	assert.Equal(t, monday.AddDate(0, 0, 4), f.start(t, f.follow[1]))
}

func TestApplyCommand_ConflictingOverrideRejected(t *testing.T) {
	f := newFixture(t)

	// Friday 09:00 is still taken by the second follow-up.
	out, err := run(t, "apply", f.anchor.String(),
		"--start", "2024-09-03 09:00",
		"--override", f.follow[0].String()+"=2024-09-06@09:30",
	)

	require.Error(t, err)
	assert.Contains(t, out, "conflict(s) block this rebalance")
	assert.Equal(t, monday.AddDate(0, 0, 2), f.start(t, f.follow[0]))
}

func TestApplyCommand_StoredSkipStaysSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := cli.GetApp()

	preview, err := app.PreviewRebalanceHandler.Handle(ctx, commands.PreviewRebalanceCommand{
		PlanID:          f.plan,
		AnchorSessionID: f.anchor,
		NewAnchorStart:  monday.AddDate(0, 0, 1),
	})
	require.NoError(t, err)
	toggled, err := app.EditMoveHandler.HandleToggleSkip(ctx, commands.ToggleSkipCommand{
		RebalanceID: preview.RebalanceID,
		SessionID:   f.follow[0],
	})
	require.NoError(t, err)
	require.True(t, toggled.Skipped)

	out, err := run(t, "apply", "--id", preview.RebalanceID.String(), "--skip", f.follow[0].String())

	require.NoError(t, err)
	assert.Contains(t, out, "Applied 1, failed 0, skipped by you 1")
	assert.Equal(t, monday.AddDate(0, 0, 2), f.start(t, f.follow[0]))
	assert.Equal(t, monday.AddDate(0, 0, 5), f.start(t, f.follow[1]))
}

func TestApplyCommand_RequiresAnchorOrID(t *testing.T) {
	newFixture(t)

	_, err := run(t, "apply")

	assert.Error(t, err)
}

func TestApplyCommand_BadOverride(t *testing.T) {
	f := newFixture(t)

	_, err := run(t, "apply", f.anchor.String(), "--start", "2024-09-03 09:00", "--override", "not-an-override")

	assert.Error(t, err)
}

func TestParseSkips_Dedupes(t *testing.T) {
	id := uuid.New()

	skips, err := parseSkips([]string{id.String(), id.String()})

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id}, skips)
}
