package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/felixgeelhaar/kinplan/pkg/observability"
	"github.com/google/uuid"
)

var errInvalidMove = errors.New("planner returned an invalid move")

// PreviewRequest asks the planner which sessions must shift when the anchor
// session moves to NewAnchorStart.
type PreviewRequest struct {
	PlanID          uuid.UUID
	AnchorSessionID uuid.UUID
	NewAnchorStart  time.Time
}

// Planner computes compensating moves. Implementations return raw planner
// output; normalization happens in PreviewOrchestrator.
type Planner interface {
	PreviewRebalance(ctx context.Context, req PreviewRequest) ([]domain.Move, error)
}

// PlannerFunc adapts a function to Planner.
type PlannerFunc func(ctx context.Context, req PreviewRequest) ([]domain.Move, error)

// PreviewRebalance implements Planner.
func (f PlannerFunc) PreviewRebalance(ctx context.Context, req PreviewRequest) ([]domain.Move, error) {
	return f(ctx, req)
}

// PreviewResult holds the normalized moves for one preview.
type PreviewResult struct {
	Request PreviewRequest
	Moves   []domain.Move
}

// Empty reports that there is nothing to rebalance.
func (r *PreviewResult) Empty() bool {
	return r == nil || len(r.Moves) == 0
}

// PreviewOrchestrator fetches and normalizes candidate moves.
type PreviewOrchestrator struct {
	planner Planner
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewPreviewOrchestrator creates a new preview orchestrator.
func NewPreviewOrchestrator(planner Planner, logger *slog.Logger, metrics observability.Metrics) *PreviewOrchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &PreviewOrchestrator{
		planner: planner,
		logger:  logger,
		metrics: metrics,
	}
}

// Preview returns the moves proposed for req. An empty result is not an
// error; any planner failure is wrapped in PreviewFailedError.
func (o *PreviewOrchestrator) Preview(ctx context.Context, req PreviewRequest) (*PreviewResult, error) {
	timer := observability.StartTimer("rebalance.preview").
		WithLogger(o.logger).
		WithMetrics(o.metrics)

	raw, err := o.planner.PreviewRebalance(ctx, req)
	if err == nil {
		raw, err = normalizeMoves(req.AnchorSessionID, raw)
	}
	if err != nil {
		timer.StopWithError(err)
		var pf *domain.PreviewFailedError
		if errors.As(err, &pf) {
			return nil, err
		}
		return nil, &domain.PreviewFailedError{Err: err}
	}
	timer.Stop()

	o.metrics.Counter(observability.MetricRebalancePreviews, 1)
	o.logger.InfoContext(ctx, "rebalance preview ready",
		"plan_id", req.PlanID,
		"anchor_session_id", req.AnchorSessionID,
		"moves", len(raw),
	)
	return &PreviewResult{Request: req, Moves: raw}, nil
}

// normalizeMoves drops the anchor and duplicate sessions, trims reasons and
// keeps planner order. A move without a session or proposed start
// invalidates the whole response.
func normalizeMoves(anchor uuid.UUID, raw []domain.Move) ([]domain.Move, error) {
	moves := make([]domain.Move, 0, len(raw))
	seen := make(map[uuid.UUID]struct{}, len(raw))
	for i, m := range raw {
		if m.SessionID == uuid.Nil {
			return nil, fmt.Errorf("%w: entry %d has no session id", errInvalidMove, i)
		}
		if m.ProposedStart.IsZero() {
			return nil, fmt.Errorf("%w: session %s has no proposed start", errInvalidMove, m.SessionID)
		}
		if m.SessionID == anchor {
			continue
		}
		if _, dup := seen[m.SessionID]; dup {
			continue
		}
		seen[m.SessionID] = struct{}{}
		m.Reason = strings.TrimSpace(m.Reason)
		moves = append(moves, m)
	}
	return moves, nil
}
