package commands

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/kinplan/internal/planning/application/services"
	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/google/uuid"
)

var ErrEditStateNotConfigured = errors.New("rebalance edit state store not configured")

// OverrideMoveCommand sets or clears a user-chosen time for one move.
type OverrideMoveCommand struct {
	RebalanceID uuid.UUID
	SessionID   uuid.UUID
	Date        domain.CalendarDate
	Time        domain.ClockTime
	Clear       bool
}

// OverrideMoveResult reports a conflict that kept the override from being saved.
type OverrideMoveResult struct {
	Saved    bool                   `json:"saved"`
	Conflict *domain.ConflictResult `json:"conflict,omitempty"`
}

// ToggleSkipCommand flips whether one move is excluded from apply.
type ToggleSkipCommand struct {
	RebalanceID uuid.UUID
	SessionID   uuid.UUID
}

// SkipMoveCommand excludes one move from apply. Repeating it keeps the move
// skipped.
type SkipMoveCommand struct {
	RebalanceID uuid.UUID
	SessionID   uuid.UUID
}

// ToggleSkipResult is the new skip state.
type ToggleSkipResult struct {
	Skipped bool `json:"skipped"`
}

// EditMoveHandler edits moves of a stored rebalance session.
type EditMoveHandler struct {
	rebalancer *services.Rebalancer
	states     domain.EditStateStore
}

// NewEditMoveHandler creates a new EditMoveHandler.
func NewEditMoveHandler(rebalancer *services.Rebalancer, states domain.EditStateStore) *EditMoveHandler {
	return &EditMoveHandler{rebalancer: rebalancer, states: states}
}

// HandleOverride executes the OverrideMoveCommand.
func (h *EditMoveHandler) HandleOverride(ctx context.Context, cmd OverrideMoveCommand) (*OverrideMoveResult, error) {
	result := &OverrideMoveResult{}
	err := h.withSession(ctx, cmd.RebalanceID, func(session *services.RebalanceSession) error {
		if cmd.Clear {
			return session.ClearOverride(cmd.SessionID)
		}
		conflict, err := session.SetOverride(ctx, cmd.SessionID, cmd.Date, cmd.Time)
		if err != nil {
			return err
		}
		result.Conflict = conflict
		result.Saved = conflict == nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// HandleToggleSkip executes the ToggleSkipCommand.
func (h *EditMoveHandler) HandleToggleSkip(ctx context.Context, cmd ToggleSkipCommand) (*ToggleSkipResult, error) {
	result := &ToggleSkipResult{}
	err := h.withSession(ctx, cmd.RebalanceID, func(session *services.RebalanceSession) error {
		skipped, err := session.ToggleSkip(cmd.SessionID)
		result.Skipped = skipped
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// HandleSkip executes the SkipMoveCommand.
func (h *EditMoveHandler) HandleSkip(ctx context.Context, cmd SkipMoveCommand) (*ToggleSkipResult, error) {
	err := h.withSession(ctx, cmd.RebalanceID, func(session *services.RebalanceSession) error {
		return session.Skip(cmd.SessionID)
	})
	if err != nil {
		return nil, err
	}
	return &ToggleSkipResult{Skipped: true}, nil
}

func (h *EditMoveHandler) withSession(ctx context.Context, id uuid.UUID, fn func(*services.RebalanceSession) error) error {
	if h.states == nil {
		return ErrEditStateNotConfigured
	}
	state, err := h.states.Load(ctx, id)
	if err != nil {
		return err
	}
	session := h.rebalancer.Resume(state)
	if err := fn(session); err != nil {
		return err
	}
	return h.states.Save(ctx, session.Snapshot())
}
