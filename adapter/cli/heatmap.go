package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/application/queries"
	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/felixgeelhaar/kinplan/pkg/observability"
	"github.com/spf13/cobra"
)

var (
	heatmapLearner string
	heatmapStart   string
	heatmapEnd     string
)

var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Show scheduled and completed minutes per subject and week",
	Long: `Show a learner's sessions pivoted by subject and week. Each cell is
completed/scheduled minutes; scheduled includes sessions already done.

Examples:
  kinplan heatmap --learner <id> --start 2024-09-02 --end 2024-09-29`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.GetWeeklyHeatmapHandler == nil {
			return fmt.Errorf("heatmap requires a session store")
		}

		learnerID, err := ParseUUID(heatmapLearner, "learner")
		if err != nil {
			return err
		}
		today := domain.DateOf(time.Now().In(app.Location))
		start, err := ParseDate(heatmapStart, today)
		if err != nil {
			return err
		}
		end, err := ParseDate(heatmapEnd, start.AddDays(27))
		if err != nil {
			return err
		}

		ctx := observability.WithLearnerID(cmd.Context(), learnerID)
		heatmap, err := app.GetWeeklyHeatmapHandler.Handle(ctx, queries.GetWeeklyHeatmapQuery{
			LearnerID: learnerID,
			Start:     start,
			End:       end,
		})
		if err != nil {
			return err
		}

		printHeatmap(cmd, heatmap)
		return nil
	},
}

func printHeatmap(cmd *cobra.Command, h *queries.HeatmapDTO) {
	out := cmd.OutOrStdout()
	if len(h.Subjects) == 0 {
		fmt.Fprintln(out, "No sessions in range.")
		return
	}

	cells := make(map[string]map[int]domain.HeatmapCell, len(h.Subjects))
	for _, c := range h.Cells {
		if cells[c.Subject] == nil {
			cells[c.Subject] = make(map[int]domain.HeatmapCell)
		}
		cells[c.Subject][c.WeekIndex] = c
	}

	fmt.Fprintf(out, "%-16s", "subject")
	for _, w := range h.Weeks {
		fmt.Fprintf(out, " %10s", w.Label)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("-", 16+11*len(h.Weeks)))

	for _, subject := range h.Subjects {
		fmt.Fprintf(out, "%-16s", subject)
		for _, w := range h.Weeks {
			c := cells[subject][w.Index]
			fmt.Fprintf(out, " %10s", fmt.Sprintf("%d/%d", c.CompletedMinutes, c.ScheduledMinutes))
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "\nTotal: %d of %d minutes completed\n", h.TotalCompletedMinutes, h.TotalScheduledMinutes)
}

func init() {
	heatmapCmd.Flags().StringVar(&heatmapLearner, "learner", "", "learner id (required)")
	heatmapCmd.Flags().StringVar(&heatmapStart, "start", "", "first day (YYYY-MM-DD, default today)")
	heatmapCmd.Flags().StringVar(&heatmapEnd, "end", "", "last day, inclusive (YYYY-MM-DD, default start+27)")
	_ = heatmapCmd.MarkFlagRequired("learner")
	rootCmd.AddCommand(heatmapCmd)
}
