package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build information, set with -ldflags "-X".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "kinplan %s (commit %s, built %s)\n", Version, Commit, BuildDate)
		if app := GetApp(); app != nil && app.Location != nil {
			fmt.Fprintf(out, "timezone: %s\n", app.Location)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
