package rebalance

import (
	"fmt"

	"github.com/felixgeelhaar/kinplan/adapter/cli"
	"github.com/felixgeelhaar/kinplan/internal/planning/application/commands"
	"github.com/spf13/cobra"
)

var (
	previewPlan  string
	previewStart string
)

var previewCmd = &cobra.Command{
	Use:   "preview <anchor-session-id>",
	Short: "Show the moves caused by moving one session",
	Long: `Ask the planner which sessions move when the anchor session moves to
--start. Nothing is written. The printed rebalance id can be passed to
"rebalance apply --id" while the edit state is kept.

Examples:
  kinplan rebalance preview <session-id> --plan <plan-id> --start "2024-09-03 09:00"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.PreviewRebalanceHandler == nil {
			return fmt.Errorf("rebalance requires a session store")
		}

		anchor, err := cli.ParseUUID(args[0], "anchor session id")
		if err != nil {
			return err
		}
		planID, err := cli.ParseOptionalUUID(previewPlan, "plan")
		if err != nil {
			return err
		}
		start, err := cli.ParseStart(previewStart, app.Location)
		if err != nil {
			return err
		}

		result, err := app.PreviewRebalanceHandler.Handle(cmd.Context(), commands.PreviewRebalanceCommand{
			PlanID:          planID,
			AnchorSessionID: anchor,
			NewAnchorStart:  start,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if result.Empty {
			printMoves(out, nil, nil, app.Location)
			return nil
		}
		fmt.Fprintf(out, "Rebalance %s: %d session(s) move\n", result.RebalanceID, len(result.Moves))
		printMoves(out, result.Moves, nil, app.Location)
		return nil
	},
}

func init() {
	previewCmd.Flags().StringVar(&previewPlan, "plan", "", "plan id")
	previewCmd.Flags().StringVar(&previewStart, "start", "", `new anchor start, RFC 3339 or "YYYY-MM-DD HH:MM" (required)`)
	_ = previewCmd.MarkFlagRequired("start")
}
