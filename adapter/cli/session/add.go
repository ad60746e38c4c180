package session

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/kinplan/adapter/cli"
	"github.com/felixgeelhaar/kinplan/internal/planning/application/commands"
	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/spf13/cobra"
)

var (
	addLearner  string
	addPlan     string
	addSubject  string
	addTitle    string
	addStart    string
	addDuration time.Duration
	addStatus   string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a learning session",
	Long: `Add a learning session for a learner.

Examples:
  kinplan session add --learner <id> --plan <id> --subject math --start "2024-09-02 09:00"
  kinplan session add --learner <id> --subject reading --start 2024-09-02T16:00:00Z --duration 30m --status done`,
	Aliases: []string{"new"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.SaveSessionHandler == nil {
			return fmt.Errorf("session commands require a session store")
		}

		learnerID, err := cli.ParseUUID(addLearner, "learner")
		if err != nil {
			return err
		}
		planID, err := cli.ParseOptionalUUID(addPlan, "plan")
		if err != nil {
			return err
		}
		start, err := cli.ParseStart(addStart, app.Location)
		if err != nil {
			return err
		}
		status := domain.StatusScheduled
		if addStatus != "" {
			if status, err = domain.ParseSessionStatus(addStatus); err != nil {
				return err
			}
		}

		result, err := app.SaveSessionHandler.Handle(cmd.Context(), commands.SaveSessionCommand{
			LearnerID: learnerID,
			PlanID:    planID,
			Subject:   addSubject,
			Title:     addTitle,
			Start:     start,
			Duration:  addDuration,
			Status:    status,
		})
		if err != nil {
			return fmt.Errorf("failed to add session: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Added %s session %s\n", addSubject, result.SessionID)
		fmt.Fprintf(out, "  %s - %s (%s)\n",
			start.In(app.Location).Format("Mon Jan 2 15:04"),
			start.Add(addDuration).In(app.Location).Format("15:04"),
			status,
		)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addLearner, "learner", "", "learner id (required)")
	addCmd.Flags().StringVar(&addPlan, "plan", "", "plan id")
	addCmd.Flags().StringVarP(&addSubject, "subject", "s", "", "subject (required)")
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "title (defaults to subject)")
	addCmd.Flags().StringVar(&addStart, "start", "", `start, RFC 3339 or "YYYY-MM-DD HH:MM" (required)`)
	addCmd.Flags().DurationVarP(&addDuration, "duration", "d", 45*time.Minute, "session length")
	addCmd.Flags().StringVar(&addStatus, "status", "", "scheduled, done, skipped or cancelled")
	_ = addCmd.MarkFlagRequired("learner")
	_ = addCmd.MarkFlagRequired("subject")
	_ = addCmd.MarkFlagRequired("start")
}
