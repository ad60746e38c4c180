package rebalance

import (
	"fmt"
	"io"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/spf13/cobra"
)

// Cmd is the rebalance command group.
var Cmd = &cobra.Command{
	Use:   "rebalance",
	Short: "Move a session and rebalance the rest of its plan",
	Long: `Move an anchor session and let the planner propose compensating
moves for the sessions that follow it. Preview first, then apply with
optional skips and overrides.`,
}

func init() {
	Cmd.AddCommand(previewCmd)
	Cmd.AddCommand(applyCmd)
}

func printMoves(out io.Writer, moves []domain.Move, edits *domain.MoveEditStore, loc *time.Location) {
	if len(moves) == 0 {
		fmt.Fprintln(out, "No other sessions need to move.")
		return
	}
	for i, m := range moves {
		target := m.ProposedStart
		marker := " "
		if edits != nil {
			d := edits.Resolve(m)
			switch d.Kind {
			case domain.DecisionSkip:
				marker = "-"
			case domain.DecisionUseOverride:
				marker = "*"
			}
			target = d.TargetStart(m, loc)
		}
		fmt.Fprintf(out, "%s %2d. %s  %s -> %s",
			marker, i+1, m.SessionID,
			m.CurrentStart.In(loc).Format("Mon Jan 2 15:04"),
			target.In(loc).Format("Mon Jan 2 15:04"),
		)
		if m.Reason != "" {
			fmt.Fprintf(out, "  (%s)", m.Reason)
		}
		fmt.Fprintln(out)
	}
}

func printConflicts(out io.Writer, conflicts []domain.ConflictResult) {
	fmt.Fprintf(out, "%d conflict(s) block this rebalance:\n", len(conflicts))
	for _, c := range conflicts {
		fmt.Fprintf(out, "  ! %s %s\n", c.SessionID, c.Message)
	}
}
