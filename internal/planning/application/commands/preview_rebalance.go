package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/application/services"
	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/google/uuid"
)

// PreviewRebalanceCommand asks which sessions move when the anchor moves.
type PreviewRebalanceCommand struct {
	PlanID          uuid.UUID
	AnchorSessionID uuid.UUID
	NewAnchorStart  time.Time
}

// PreviewRebalanceResult contains the moves and the id of the stored
// rebalance session that later edits refer to.
type PreviewRebalanceResult struct {
	RebalanceID uuid.UUID     `json:"rebalance_id"`
	Moves       []domain.Move `json:"moves"`
	Empty       bool          `json:"empty"`
}

// PreviewRebalanceHandler handles the PreviewRebalanceCommand.
type PreviewRebalanceHandler struct {
	rebalancer *services.Rebalancer
	states     domain.EditStateStore
}

// NewPreviewRebalanceHandler creates a new PreviewRebalanceHandler. states
// may be nil when sessions do not need to outlive the call.
func NewPreviewRebalanceHandler(rebalancer *services.Rebalancer, states domain.EditStateStore) *PreviewRebalanceHandler {
	return &PreviewRebalanceHandler{rebalancer: rebalancer, states: states}
}

// Handle executes the PreviewRebalanceCommand.
func (h *PreviewRebalanceHandler) Handle(ctx context.Context, cmd PreviewRebalanceCommand) (*PreviewRebalanceResult, error) {
	if cmd.AnchorSessionID == uuid.Nil {
		return nil, fmt.Errorf("anchor session is required")
	}
	if cmd.NewAnchorStart.IsZero() {
		return nil, fmt.Errorf("new anchor start is required")
	}

	session := h.rebalancer.Open(cmd.PlanID, cmd.AnchorSessionID, cmd.NewAnchorStart)
	preview, err := session.Preview(ctx)
	if err != nil {
		return nil, err
	}

	if h.states != nil && !preview.Empty() {
		if err := h.states.Save(ctx, session.Snapshot()); err != nil {
			return nil, fmt.Errorf("failed to store rebalance session: %w", err)
		}
	}

	return &PreviewRebalanceResult{
		RebalanceID: session.ID(),
		Moves:       preview.Moves,
		Empty:       preview.Empty(),
	}, nil
}
