package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionRepository persists learning sessions.
type SessionRepository interface {
	Save(ctx context.Context, session *Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)
	// FindByLearnerWindow returns sessions whose interval intersects [from, to]
	// and whose status is one of statuses (all statuses when empty).
	FindByLearnerWindow(ctx context.Context, learnerID uuid.UUID, from, to time.Time, statuses []SessionStatus) ([]*Session, error)
	// FindByLearnerRange returns sessions starting in [from, to).
	FindByLearnerRange(ctx context.Context, learnerID uuid.UUID, from, to time.Time) ([]*Session, error)
	UpdateTimes(ctx context.Context, id uuid.UUID, start, end time.Time) error
}
