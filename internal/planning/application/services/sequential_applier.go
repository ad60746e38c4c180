package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/felixgeelhaar/kinplan/pkg/observability"
	"github.com/google/uuid"
)

// Notifier receives one ScheduleChanged event after an apply run changed
// at least one session.
type Notifier interface {
	ScheduleChanged(ctx context.Context, event domain.ScheduleChanged) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event domain.ScheduleChanged) error

// ScheduleChanged implements Notifier.
func (f NotifierFunc) ScheduleChanged(ctx context.Context, event domain.ScheduleChanged) error {
	return f(ctx, event)
}

// ProgressFunc is called after every successful update with the number of
// applied moves so far and the size of the working set.
type ProgressFunc func(applied, total int)

// SequentialApplier writes approved moves one at a time.
//
// Apply is best effort and not atomic: a failed update is recorded and the
// remaining moves are still attempted, so a run can leave some sessions
// moved and others not. The batch conflict check happens before any write;
// a session inserted between that check and an update is not re-checked.
// Once writing starts, cancelling the caller's context does not stop the run.
type SequentialApplier struct {
	sessions domain.SessionRepository
	detector *ConflictDetector
	notifier Notifier
	location *time.Location
	logger   *slog.Logger
	metrics  observability.Metrics
}

// NewSequentialApplier creates a new applier. Overrides are resolved in loc.
func NewSequentialApplier(
	sessions domain.SessionRepository,
	detector *ConflictDetector,
	notifier Notifier,
	loc *time.Location,
	logger *slog.Logger,
	metrics observability.Metrics,
) *SequentialApplier {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &SequentialApplier{
		sessions: sessions,
		detector: detector,
		notifier: notifier,
		location: loc,
		logger:   logger,
		metrics:  metrics,
	}
}

type plannedMove struct {
	sessionID uuid.UUID
	start     time.Time
}

// Apply writes every move whose decision is not skip. A missing decision
// means the proposed start is used. Unresolved conflicts abort the run with
// a ConflictError before anything is written.
func (a *SequentialApplier) Apply(
	ctx context.Context,
	moves []domain.Move,
	decisions map[uuid.UUID]domain.MoveDecision,
	onProgress ProgressFunc,
) (*domain.ApplyResult, error) {
	result := &domain.ApplyResult{Errors: []string{}}

	working := make([]plannedMove, 0, len(moves))
	for _, m := range moves {
		decision, ok := decisions[m.SessionID]
		if !ok {
			decision = domain.UseProposed()
		}
		if decision.IsSkip() {
			result.Excluded++
			continue
		}
		working = append(working, plannedMove{
			sessionID: m.SessionID,
			start:     decision.TargetStart(m, a.location),
		})
	}
	if len(working) == 0 {
		return result, nil
	}

	if err := a.preflight(ctx, working); err != nil {
		return nil, err
	}

	writeCtx := context.WithoutCancel(ctx)
	total := len(working)
	var (
		applied   []uuid.UUID
		learnerID uuid.UUID
		planID    uuid.UUID
	)
	for _, pm := range working {
		session, err := a.moveOne(writeCtx, pm)
		if err != nil {
			result.Skipped++
			itemErr := &domain.ApplyItemError{SessionID: pm.sessionID, Err: err}
			result.Errors = append(result.Errors, itemErr.Error())
			a.metrics.Counter(observability.MetricRebalanceFailed, 1)
			a.logger.WarnContext(writeCtx, "move failed",
				"session_id", pm.sessionID,
				"error", err,
			)
			continue
		}

		result.Applied++
		applied = append(applied, pm.sessionID)
		if learnerID == uuid.Nil {
			learnerID, planID = session.LearnerID(), session.PlanID()
		}
		a.metrics.Counter(observability.MetricRebalanceApplied, 1)
		if onProgress != nil {
			onProgress(result.Applied, total)
		}
	}

	a.logger.InfoContext(writeCtx, "rebalance applied",
		"applied", result.Applied,
		"failed", result.Skipped,
		"excluded", result.Excluded,
	)

	if result.Applied > 0 && a.notifier != nil {
		event := domain.NewScheduleChanged(planID, learnerID, applied)
		if err := a.notifier.ScheduleChanged(writeCtx, event); err != nil {
			a.logger.WarnContext(writeCtx, "failed to publish schedule change",
				"plan_id", planID,
				"error", err,
			)
		}
	}

	return result, nil
}

// preflight reads every working session and runs the strict batch check.
func (a *SequentialApplier) preflight(ctx context.Context, working []plannedMove) error {
	targets := make([]domain.MoveTarget, 0, len(working))
	for _, pm := range working {
		session, err := a.sessions.FindByID(ctx, pm.sessionID)
		if err != nil {
			return fmt.Errorf("failed to load session %s: %w", pm.sessionID, err)
		}
		targets = append(targets, domain.MoveTarget{
			SessionID: pm.sessionID,
			LearnerID: session.LearnerID(),
			Start:     pm.start,
			End:       pm.start.Add(session.Duration()),
		})
	}

	conflicts, err := a.detector.CheckBatch(ctx, targets)
	if err != nil {
		return fmt.Errorf("conflict check failed: %w", err)
	}
	if len(conflicts) == 0 {
		return nil
	}

	a.metrics.Counter(observability.MetricRebalanceConflicts, int64(len(conflicts)))
	cerr, err := domain.NewConflictError(conflicts)
	if err != nil {
		return err
	}
	return cerr
}

// moveOne re-reads the session so the stored duration is preserved.
func (a *SequentialApplier) moveOne(ctx context.Context, pm plannedMove) (*domain.Session, error) {
	session, err := a.sessions.FindByID(ctx, pm.sessionID)
	if err != nil {
		return nil, err
	}
	end := pm.start.Add(session.Duration())
	if err := a.sessions.UpdateTimes(ctx, pm.sessionID, pm.start, end); err != nil {
		return nil, err
	}
	return session, nil
}
