package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/kinplan/internal/planning/application/services"
	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/google/uuid"
)

// ApplyRebalanceCommand applies moves either from a stored rebalance
// session (RebalanceID) or from the inline Moves, Overrides and Skips.
type ApplyRebalanceCommand struct {
	RebalanceID uuid.UUID
	Moves       []domain.Move
	Overrides   []domain.MoveOverride
	Skips       []uuid.UUID
	OnProgress  services.ProgressFunc
}

// ApplyRebalanceHandler handles the ApplyRebalanceCommand.
type ApplyRebalanceHandler struct {
	rebalancer *services.Rebalancer
	applier    *services.SequentialApplier
	states     domain.EditStateStore
	logger     *slog.Logger
}

// NewApplyRebalanceHandler creates a new ApplyRebalanceHandler.
func NewApplyRebalanceHandler(
	rebalancer *services.Rebalancer,
	applier *services.SequentialApplier,
	states domain.EditStateStore,
	logger *slog.Logger,
) *ApplyRebalanceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApplyRebalanceHandler{
		rebalancer: rebalancer,
		applier:    applier,
		states:     states,
		logger:     logger,
	}
}

// Handle executes the ApplyRebalanceCommand. A ConflictError is returned
// unchanged so callers can show each conflict.
func (h *ApplyRebalanceHandler) Handle(ctx context.Context, cmd ApplyRebalanceCommand) (*domain.ApplyResult, error) {
	if cmd.RebalanceID != uuid.Nil {
		return h.applyStored(ctx, cmd)
	}

	edits := domain.NewMoveEditStore()
	edits.Restore(domain.EditSnapshot{Overrides: cmd.Overrides, Skips: cmd.Skips})
	return h.applier.Apply(ctx, cmd.Moves, edits.Decisions(cmd.Moves), cmd.OnProgress)
}

func (h *ApplyRebalanceHandler) applyStored(ctx context.Context, cmd ApplyRebalanceCommand) (*domain.ApplyResult, error) {
	if h.states == nil {
		return nil, ErrEditStateNotConfigured
	}
	state, err := h.states.Load(ctx, cmd.RebalanceID)
	if err != nil {
		return nil, err
	}

	session := h.rebalancer.Resume(state)
	result, err := session.Apply(ctx, cmd.OnProgress)
	if err != nil {
		var cerr *domain.ConflictError
		if errors.As(err, &cerr) {
			// Keep the recorded conflicts so the caller can resolve them.
			if saveErr := h.states.Save(ctx, session.Snapshot()); saveErr != nil {
				return nil, fmt.Errorf("failed to store conflicts: %w", saveErr)
			}
		}
		return nil, err
	}

	if err := h.states.Delete(context.WithoutCancel(ctx), cmd.RebalanceID); err != nil {
		h.logger.WarnContext(ctx, "failed to drop rebalance session",
			"rebalance_id", cmd.RebalanceID,
			"error", err,
		)
	}
	return result, nil
}
