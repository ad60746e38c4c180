// Package mcp holds the commands that expose kinplan over the Model
// Context Protocol.
package mcp

import "github.com/spf13/cobra"

// Cmd groups the MCP commands.
var Cmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve kinplan tools to MCP clients",
}

func init() {
	Cmd.AddCommand(serveCmd)
}
