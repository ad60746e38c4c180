package domain

import (
	sharedDomain "github.com/felixgeelhaar/kinplan/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "LearningPlan"

	RoutingKeyScheduleChanged = "planning.schedule.changed"
)

// ScheduleChanged is emitted after an apply run moved at least one session.
type ScheduleChanged struct {
	sharedDomain.BaseEvent
	LearnerID  uuid.UUID   `json:"learner_id"`
	PlanID     uuid.UUID   `json:"plan_id"`
	SessionIDs []uuid.UUID `json:"session_ids"`
	Applied    int         `json:"applied"`
}

// NewScheduleChanged creates a ScheduleChanged event for a plan.
func NewScheduleChanged(planID, learnerID uuid.UUID, sessionIDs []uuid.UUID) ScheduleChanged {
	ids := make([]uuid.UUID, len(sessionIDs))
	copy(ids, sessionIDs)
	return ScheduleChanged{
		BaseEvent:  sharedDomain.NewBaseEvent(planID, AggregateType, RoutingKeyScheduleChanged),
		LearnerID:  learnerID,
		PlanID:     planID,
		SessionIDs: ids,
		Applied:    len(ids),
	}
}
