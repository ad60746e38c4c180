package cli

import (
	"fmt"

	"github.com/felixgeelhaar/kinplan/pkg/observability"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the session store, edit state and event bus",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}
		if app.Health == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		}

		results := app.Health.Check(cmd.Context())
		out := cmd.OutOrStdout()
		for _, r := range results {
			fmt.Fprintf(out, "%-10s %-9s %s\n", r.Name, r.Status, r.Message)
		}
		overall := observability.OverallStatus(results)
		fmt.Fprintf(out, "overall: %s\n", overall)
		if overall == observability.HealthStatusUnhealthy {
			return fmt.Errorf("unhealthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
