package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrRebalanceStateNotFound = errors.New("rebalance session not found")

// RebalanceState is the persisted form of one open rebalance session.
type RebalanceState struct {
	ID              uuid.UUID        `json:"id"`
	PlanID          uuid.UUID        `json:"plan_id"`
	AnchorSessionID uuid.UUID        `json:"anchor_session_id"`
	NewAnchorStart  time.Time        `json:"new_anchor_start"`
	Moves           []Move           `json:"moves"`
	Edits           EditSnapshot     `json:"edits"`
	Conflicts       []ConflictResult `json:"conflicts,omitempty"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// EditStateStore keeps rebalance sessions between interactive calls.
type EditStateStore interface {
	Save(ctx context.Context, state *RebalanceState) error
	Load(ctx context.Context, id uuid.UUID) (*RebalanceState, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
