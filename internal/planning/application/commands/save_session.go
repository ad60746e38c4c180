package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/google/uuid"
)

// SaveSessionCommand creates a learning session.
type SaveSessionCommand struct {
	LearnerID uuid.UUID
	PlanID    uuid.UUID
	Subject   string
	Title     string
	Start     time.Time
	Duration  time.Duration
	Status    domain.SessionStatus
}

// SaveSessionResult contains the created session's id.
type SaveSessionResult struct {
	SessionID uuid.UUID
}

// SaveSessionHandler handles the SaveSessionCommand.
type SaveSessionHandler struct {
	sessions domain.SessionRepository
}

// NewSaveSessionHandler creates a new SaveSessionHandler.
func NewSaveSessionHandler(sessions domain.SessionRepository) *SaveSessionHandler {
	return &SaveSessionHandler{sessions: sessions}
}

// Handle executes the SaveSessionCommand.
func (h *SaveSessionHandler) Handle(ctx context.Context, cmd SaveSessionCommand) (*SaveSessionResult, error) {
	session, err := domain.NewSession(cmd.LearnerID, cmd.PlanID, cmd.Subject, cmd.Title, cmd.Start, cmd.Start.Add(cmd.Duration))
	if err != nil {
		return nil, err
	}

	switch cmd.Status {
	case domain.StatusDone:
		session.MarkDone()
	case domain.StatusSkipped:
		session.Skip()
	case domain.StatusCancelled:
		session.Cancel()
	}

	if err := h.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return &SaveSessionResult{SessionID: session.ID()}, nil
}
