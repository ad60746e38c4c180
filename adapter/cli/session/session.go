package session

import "github.com/spf13/cobra"

// Cmd is the session command group.
var Cmd = &cobra.Command{
	Use:   "session",
	Short: "Manage learning sessions",
}

func init() {
	Cmd.AddCommand(addCmd)
}
