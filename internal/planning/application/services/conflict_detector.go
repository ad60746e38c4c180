package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/google/uuid"
)

// DefaultConflictWindow is how far around a candidate interval stored
// sessions are read.
const DefaultConflictWindow = 24 * time.Hour

// ConflictDetector checks candidate session times against a learner's
// committed sessions. Intervals are half-open, so back-to-back sessions
// never conflict.
type ConflictDetector struct {
	sessions domain.SessionRepository
	window   time.Duration
	logger   *slog.Logger
}

// NewConflictDetector creates a new conflict detector.
func NewConflictDetector(sessions domain.SessionRepository, window time.Duration, logger *slog.Logger) *ConflictDetector {
	if window <= 0 {
		window = DefaultConflictWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ConflictDetector{
		sessions: sessions,
		window:   window,
		logger:   logger,
	}
}

// Check reports the first committed session of learnerID that overlaps
// [newStart, newEnd), ignoring sessionID itself. Read errors are returned.
func (d *ConflictDetector) Check(
	ctx context.Context,
	sessionID, learnerID uuid.UUID,
	newStart, newEnd time.Time,
) (*domain.ConflictResult, error) {
	if !newEnd.After(newStart) {
		return nil, domain.ErrInvalidTimeRange
	}

	existing, err := d.load(ctx, learnerID, newStart, newEnd)
	if err != nil {
		return nil, err
	}

	candidate := domain.TimeRange{Start: newStart, End: newEnd}
	for _, s := range existing {
		if s.ID() == sessionID {
			continue
		}
		if candidate.Overlaps(s.Range()) {
			return &domain.ConflictResult{
				SessionID: sessionID,
				Message:   domain.ConflictMessage(s.Title(), s.Start()),
			}, nil
		}
	}
	return nil, nil
}

// CheckLive is the interactive variant of Check. A read failure is logged
// and reported as no conflict so the editor stays usable; the strict batch
// check before apply still catches real overlaps.
func (d *ConflictDetector) CheckLive(
	ctx context.Context,
	sessionID, learnerID uuid.UUID,
	newStart, newEnd time.Time,
) *domain.ConflictResult {
	result, err := d.Check(ctx, sessionID, learnerID, newStart, newEnd)
	if err != nil {
		d.logger.WarnContext(ctx, "live conflict check failed, treating as clear",
			"session_id", sessionID,
			"learner_id", learnerID,
			"error", err,
		)
		return nil
	}
	return result
}

// CheckBatch checks every target against stored sessions and against the
// other targets. Sessions in the batch are judged at their new positions,
// so their stored intervals are ignored. One result is returned per
// conflicting target, in input order.
func (d *ConflictDetector) CheckBatch(ctx context.Context, targets []domain.MoveTarget) ([]domain.ConflictResult, error) {
	if len(targets) == 0 {
		return nil, nil
	}

	moving := make(map[uuid.UUID]struct{}, len(targets))
	for _, t := range targets {
		moving[t.SessionID] = struct{}{}
	}

	stored, err := d.loadForTargets(ctx, targets)
	if err != nil {
		return nil, err
	}

	var conflicts []domain.ConflictResult
	for i, t := range targets {
		if msg, ok := d.firstOverlap(t, i, targets, stored[t.LearnerID], moving); ok {
			conflicts = append(conflicts, domain.ConflictResult{SessionID: t.SessionID, Message: msg})
		}
	}
	return conflicts, nil
}

func (d *ConflictDetector) firstOverlap(
	t domain.MoveTarget,
	idx int,
	targets []domain.MoveTarget,
	stored []*domain.Session,
	moving map[uuid.UUID]struct{},
) (string, bool) {
	r := t.Range()
	for _, s := range stored {
		if _, ok := moving[s.ID()]; ok {
			continue
		}
		if r.Overlaps(s.Range()) {
			return domain.ConflictMessage(s.Title(), s.Start()), true
		}
	}
	for j, other := range targets {
		if j == idx || other.LearnerID != t.LearnerID || other.SessionID == t.SessionID {
			continue
		}
		if r.Overlaps(other.Range()) {
			return fmt.Sprintf("conflicts with moved session %s at %s", other.SessionID, other.Start.Format(time.RFC3339)), true
		}
	}
	return "", false
}

// loadForTargets reads committed sessions once per learner over the span of
// that learner's targets.
func (d *ConflictDetector) loadForTargets(ctx context.Context, targets []domain.MoveTarget) (map[uuid.UUID][]*domain.Session, error) {
	type span struct{ from, to time.Time }
	spans := make(map[uuid.UUID]span)
	var learners []uuid.UUID
	for _, t := range targets {
		sp, ok := spans[t.LearnerID]
		if !ok {
			learners = append(learners, t.LearnerID)
			sp = span{from: t.Start, to: t.End}
		}
		if t.Start.Before(sp.from) {
			sp.from = t.Start
		}
		if t.End.After(sp.to) {
			sp.to = t.End
		}
		spans[t.LearnerID] = sp
	}
	sort.Slice(learners, func(i, j int) bool { return learners[i].String() < learners[j].String() })

	out := make(map[uuid.UUID][]*domain.Session, len(learners))
	for _, learner := range learners {
		sp := spans[learner]
		sessions, err := d.load(ctx, learner, sp.from, sp.to)
		if err != nil {
			return nil, err
		}
		out[learner] = sessions
	}
	return out, nil
}

func (d *ConflictDetector) load(ctx context.Context, learnerID uuid.UUID, from, to time.Time) ([]*domain.Session, error) {
	sessions, err := d.sessions.FindByLearnerWindow(ctx, learnerID, from.Add(-d.window), to.Add(d.window), domain.CommittedStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions for learner %s: %w", learnerID, err)
	}
	return sessions, nil
}
