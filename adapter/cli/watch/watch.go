package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/kinplan/internal/planning/application/subscribers"
	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/felixgeelhaar/kinplan/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/kinplan/pkg/config"
	"github.com/spf13/cobra"
)

var queueName string

// Cmd prints schedule changes published by other kinplan processes.
var Cmd = &cobra.Command{
	Use:   "watch",
	Short: "Print schedule changes as they are applied",
	Long: `Subscribe to ScheduleChanged events on RabbitMQ and print one line per
applied rebalance. Requires RABBITMQ_URL. Without --queue a temporary queue
is used and events published while the watcher is down are not seen.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.RabbitMQURL == "" {
			return errors.New("watch requires RABBITMQ_URL")
		}

		logger := slog.Default()
		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:       cfg.RabbitMQURL,
			QueueName: queueName,
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		defer consumer.Close()

		consumer.RegisterConsumer(subscribers.NewScheduleRefreshSubscriber(printChange(cmd.OutOrStdout()), logger))

		fmt.Fprintln(cmd.OutOrStdout(), "Watching for schedule changes (Ctrl+C to stop)")
		err = consumer.Start(cmd.Context())
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func printChange(out io.Writer) subscribers.RefreshFunc {
	return func(ctx context.Context, change domain.ScheduleChanged) error {
		ids := make([]string, len(change.SessionIDs))
		for i, id := range change.SessionIDs {
			ids[i] = id.String()
		}
		fmt.Fprintf(out, "plan %s learner %s: %d moved [%s]\n",
			change.PlanID, change.LearnerID, change.Applied, strings.Join(ids, ", "))
		return nil
	}
}

func init() {
	Cmd.Flags().StringVar(&queueName, "queue", "", "durable queue name (default: temporary queue)")
}
