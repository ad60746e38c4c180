package persistence

import (
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/google/uuid"
)

// sessionFields is a decoded learning_sessions row.
type sessionFields struct {
	id, learnerID, planID uuid.UUID
	subject, title        string
	start, end            time.Time
	status                domain.SessionStatus
	createdAt, updatedAt  time.Time
}

func (f sessionFields) session() *domain.Session {
	return domain.RehydrateSession(
		f.id, f.learnerID, f.planID,
		f.subject, f.title,
		f.start.UTC(), f.end.UTC(),
		f.status,
		f.createdAt.UTC(), f.updatedAt.UTC(),
	)
}
