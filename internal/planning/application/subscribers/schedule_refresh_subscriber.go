package subscribers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/felixgeelhaar/kinplan/internal/shared/infrastructure/eventbus"
)

// RefreshFunc is called once per ScheduleChanged signal.
type RefreshFunc func(ctx context.Context, change domain.ScheduleChanged) error

// ScheduleRefreshSubscriber turns ScheduleChanged events into view refreshes.
type ScheduleRefreshSubscriber struct {
	refresh RefreshFunc
	logger  *slog.Logger
}

// NewScheduleRefreshSubscriber creates a subscriber that calls refresh.
func NewScheduleRefreshSubscriber(refresh RefreshFunc, logger *slog.Logger) *ScheduleRefreshSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleRefreshSubscriber{refresh: refresh, logger: logger}
}

// EventTypes returns the event types this subscriber handles.
func (s *ScheduleRefreshSubscriber) EventTypes() []string {
	return []string{domain.RoutingKeyScheduleChanged}
}

// Handle decodes the change and runs the refresh callback.
func (s *ScheduleRefreshSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var change domain.ScheduleChanged
	if err := event.Decode(&change); err != nil {
		return fmt.Errorf("invalid %s event %s: %w", event.RoutingKey, event.EventID, err)
	}

	s.logger.InfoContext(ctx, "schedule changed",
		"plan_id", change.PlanID,
		"learner_id", change.LearnerID,
		"applied", change.Applied,
	)
	if s.refresh == nil {
		return nil
	}
	return s.refresh(ctx, change)
}
