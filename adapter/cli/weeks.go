package cli

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/application/queries"
	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/spf13/cobra"
)

var (
	weeksStart string
	weeksEnd   string
)

var weeksCmd = &cobra.Command{
	Use:   "weeks",
	Short: "Split a plan range into week buckets",
	Long: `Split an inclusive date range into consecutive seven-day buckets.
The last bucket is shortened to end on --end.

Examples:
  kinplan weeks --start 2024-09-02 --end 2024-12-20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.GetWeekBucketsHandler == nil {
			return fmt.Errorf("app not initialized")
		}

		today := domain.DateOf(time.Now().In(app.Location))
		start, err := ParseDate(weeksStart, today)
		if err != nil {
			return err
		}
		end, err := ParseDate(weeksEnd, start.AddDays(6))
		if err != nil {
			return err
		}

		weeks, err := app.GetWeekBucketsHandler.Handle(cmd.Context(), queries.GetWeekBucketsQuery{Start: start, End: end})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, w := range weeks {
			fmt.Fprintf(out, "%-8s %s .. %s (%d days)\n", w.Label, w.Start, w.End, w.Days())
		}
		return nil
	},
}

func init() {
	weeksCmd.Flags().StringVar(&weeksStart, "start", "", "first day (YYYY-MM-DD, default today)")
	weeksCmd.Flags().StringVar(&weeksEnd, "end", "", "last day, inclusive (YYYY-MM-DD, default start+6)")
	rootCmd.AddCommand(weeksCmd)
}
