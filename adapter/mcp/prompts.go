package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for guided workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("rebalance_session").
		Description("Walk through moving one learning session and rebalancing the rest of its plan.").
		Argument("session_id", "The session that has to move", true).
		Argument("new_start", "Where it should move to (RFC 3339)", false).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			sessionID := args["session_id"]
			if sessionID == "" {
				sessionID = "[the session to move]"
			}
			newStart := args["new_start"]
			if newStart == "" {
				newStart = "[ask me for the new start time]"
			}

			return &mcp.PromptResult{
				Description: "Rebalance a learning plan",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`I need to move session %s to %s.

1. Call rebalance.preview with that anchor and start. If no moves come
   back, tell me nothing else changes.
2. Show me each proposed move as "current -> proposed" with its reason.
3. For any move I want to keep in place, call rebalance.skip. For any
   move I want at a different time, call rebalance.override with a date
   and time. If an override reports a conflict, tell me what it clashes
   with and ask for another time.
4. When I confirm, call rebalance.apply. If it comes back blocked, list
   the conflicts and help me resolve them before trying again.
5. Summarize how many sessions moved and any that failed.`, sessionID, newStart),
						},
					},
				},
			}, nil
		})

	srv.Prompt("weekly_load").
		Description("Review a learner's subject balance week by week.").
		Argument("learner_id", "The learner to review", true).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Weekly subject load",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`Call plan.heatmap for learner %s over the next four weeks.
Point out subjects with no time in a week, weeks that are much heavier
than the others, and how much of the scheduled time is already done.`, args["learner_id"]),
						},
					},
				},
			}, nil
		})

	return nil
}
