// Package notify publishes the refresh signal after an apply run.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/kinplan/internal/planning/application/services"
	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/felixgeelhaar/kinplan/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/kinplan/pkg/observability"
)

// BusNotifier implements services.Notifier on an event bus publisher.
type BusNotifier struct {
	publisher eventbus.Publisher
	logger    *slog.Logger
	metrics   observability.Metrics
}

var _ services.Notifier = (*BusNotifier)(nil)

// NewBusNotifier creates a notifier that publishes to publisher.
func NewBusNotifier(publisher eventbus.Publisher, logger *slog.Logger, metrics observability.Metrics) *BusNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &BusNotifier{publisher: publisher, logger: logger, metrics: metrics}
}

// ScheduleChanged publishes event under domain.RoutingKeyScheduleChanged.
func (n *BusNotifier) ScheduleChanged(ctx context.Context, event domain.ScheduleChanged) error {
	payload, err := eventbus.Envelope(ctx, event, event.LearnerID, event)
	if err != nil {
		return err
	}
	if err := n.publisher.Publish(ctx, event.RoutingKey(), payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.RoutingKey(), err)
	}

	n.metrics.Counter(observability.MetricEventsPublished, 1, observability.T("routing_key", event.RoutingKey()))
	n.logger.DebugContext(ctx, "schedule change published",
		"plan_id", event.PlanID,
		"learner_id", event.LearnerID,
		"applied", event.Applied,
	)
	return nil
}
