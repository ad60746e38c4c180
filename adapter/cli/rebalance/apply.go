package rebalance

import (
	"errors"
	"fmt"
	"io"

	"github.com/felixgeelhaar/kinplan/adapter/cli"
	"github.com/felixgeelhaar/kinplan/internal/planning/application/commands"
	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	applyID        string
	applyPlan      string
	applyStart     string
	applySkips     []string
	applyOverrides []string
)

var applyCmd = &cobra.Command{
	Use:   "apply [anchor-session-id]",
	Short: "Preview, edit and apply a rebalance",
	Long: `Preview the moves for the anchor, apply the given skips and overrides,
then write the remaining moves one at a time. Nothing is written when any
kept move conflicts with another session.

Overrides use SESSION_ID=YYYY-MM-DD@HH:MM and are checked before they are
accepted. Use --id instead of an anchor to apply a stored rebalance.

Examples:
  kinplan rebalance apply <session-id> --plan <plan-id> --start "2024-09-03 09:00"
  kinplan rebalance apply <session-id> --start "2024-09-03 09:00" --skip <id> --override <id>=2024-09-06@16:00
  kinplan rebalance apply --id <rebalance-id>`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ApplyRebalanceHandler == nil {
			return fmt.Errorf("rebalance requires a session store")
		}
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		overrides := make([]domain.MoveOverride, 0, len(applyOverrides))
		for _, raw := range applyOverrides {
			o, err := cli.ParseOverride(raw)
			if err != nil {
				return err
			}
			overrides = append(overrides, o)
		}
		skips, err := parseSkips(applySkips)
		if err != nil {
			return err
		}

		var (
			rebalanceID uuid.UUID
			moves       []domain.Move
		)
		switch {
		case applyID != "":
			if len(args) > 0 {
				return errors.New("give either an anchor session or --id, not both")
			}
			if rebalanceID, err = cli.ParseUUID(applyID, "rebalance id"); err != nil {
				return err
			}
		case len(args) == 1:
			anchor, err := cli.ParseUUID(args[0], "anchor session id")
			if err != nil {
				return err
			}
			planID, err := cli.ParseOptionalUUID(applyPlan, "plan")
			if err != nil {
				return err
			}
			start, err := cli.ParseStart(applyStart, app.Location)
			if err != nil {
				return err
			}
			preview, err := app.PreviewRebalanceHandler.Handle(ctx, commands.PreviewRebalanceCommand{
				PlanID:          planID,
				AnchorSessionID: anchor,
				NewAnchorStart:  start,
			})
			if err != nil {
				return err
			}
			if preview.Empty {
				printMoves(out, nil, nil, app.Location)
				return nil
			}
			rebalanceID, moves = preview.RebalanceID, preview.Moves
		default:
			return errors.New("an anchor session id or --id is required")
		}

		edits := domain.NewMoveEditStore()
		for _, id := range skips {
			if _, err := app.EditMoveHandler.HandleSkip(ctx, commands.SkipMoveCommand{RebalanceID: rebalanceID, SessionID: id}); err != nil {
				return fmt.Errorf("skip %s: %w", id, err)
			}
			edits.Skip(id)
		}
		for _, o := range overrides {
			res, err := app.EditMoveHandler.HandleOverride(ctx, commands.OverrideMoveCommand{
				RebalanceID: rebalanceID,
				SessionID:   o.SessionID,
				Date:        o.Date,
				Time:        o.Time,
			})
			if err != nil {
				return fmt.Errorf("override %s: %w", o.SessionID, err)
			}
			if !res.Saved {
				printConflicts(out, []domain.ConflictResult{*res.Conflict})
				return fmt.Errorf("override for %s not accepted", o.SessionID)
			}
			edits.SetOverride(o.SessionID, o.Date, o.Time)
		}

		if len(moves) > 0 {
			printMoves(out, moves, edits, app.Location)
		}

		result, err := app.ApplyRebalanceHandler.Handle(ctx, commands.ApplyRebalanceCommand{
			RebalanceID: rebalanceID,
			OnProgress: func(applied, total int) {
				fmt.Fprintf(out, "applied %d/%d\n", applied, total)
			},
		})
		if err != nil {
			var cerr *domain.ConflictError
			if errors.As(err, &cerr) {
				printConflicts(out, cerr.Conflicts)
			}
			return err
		}

		printResult(out, result)
		if result.Skipped > 0 {
			return fmt.Errorf("%d move(s) failed", result.Skipped)
		}
		return nil
	},
}

func parseSkips(values []string) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool, len(values))
	out := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := cli.ParseUUID(v, "skip session id")
		if err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

func printResult(out io.Writer, r *domain.ApplyResult) {
	fmt.Fprintf(out, "Applied %d, failed %d, skipped by you %d\n", r.Applied, r.Skipped, r.Excluded)
	for _, msg := range r.Errors {
		fmt.Fprintf(out, "  x %s\n", msg)
	}
}

func init() {
	applyCmd.Flags().StringVar(&applyID, "id", "", "apply a stored rebalance instead of previewing")
	applyCmd.Flags().StringVar(&applyPlan, "plan", "", "plan id")
	applyCmd.Flags().StringVar(&applyStart, "start", "", `new anchor start, RFC 3339 or "YYYY-MM-DD HH:MM"`)
	applyCmd.Flags().StringArrayVar(&applySkips, "skip", nil, "session id to leave in place (repeatable)")
	applyCmd.Flags().StringArrayVar(&applyOverrides, "override", nil, "SESSION_ID=YYYY-MM-DD@HH:MM (repeatable)")
}
