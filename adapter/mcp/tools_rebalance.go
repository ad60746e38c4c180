package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/kinplan/internal/planning/application/commands"
	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/felixgeelhaar/mcp-go"
)

type previewInput struct {
	AnchorSessionID string `json:"anchor_session_id" jsonschema:"required"`
	PlanID          string `json:"plan_id,omitempty"`
	NewStart        string `json:"new_start" jsonschema:"required"`
}

type overrideInput struct {
	RebalanceID string `json:"rebalance_id" jsonschema:"required"`
	SessionID   string `json:"session_id" jsonschema:"required"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
	Clear       bool   `json:"clear,omitempty"`
}

type skipInput struct {
	RebalanceID string `json:"rebalance_id" jsonschema:"required"`
	SessionID   string `json:"session_id" jsonschema:"required"`
}

type applyInput struct {
	RebalanceID string `json:"rebalance_id" jsonschema:"required"`
}

// applyOutput is either a result or the conflicts that blocked the run.
type applyOutput struct {
	Status    string                  `json:"status"`
	Result    *domain.ApplyResult     `json:"result,omitempty"`
	Conflicts []domain.ConflictResult `json:"conflicts,omitempty"`
}

func registerRebalanceTools(srv *mcp.Server, deps ToolDependencies) error {
	srv.Tool("rebalance.preview").
		Description("Preview the moves caused by moving an anchor session to new_start (RFC 3339). Returns a rebalance_id for later edits").
		Handler(previewTool(deps))

	srv.Tool("rebalance.override").
		Description("Set (date YYYY-MM-DD, time HH:MM) or clear a user-chosen time for one move. Conflicting overrides are not saved").
		Handler(overrideTool(deps))

	srv.Tool("rebalance.skip").
		Description("Toggle whether one move is left out of apply").
		Handler(skipTool(deps))

	srv.Tool("rebalance.apply").
		Description("Apply the remaining moves of a rebalance one at a time. Nothing is written when any kept move conflicts").
		Handler(applyTool(deps))

	return nil
}

func previewTool(deps ToolDependencies) func(context.Context, previewInput) (*commands.PreviewRebalanceResult, error) {
	app := deps.App
	return func(ctx context.Context, input previewInput) (*commands.PreviewRebalanceResult, error) {
		if app == nil || app.PreviewRebalanceHandler == nil {
			return nil, errors.New("rebalance requires a session store")
		}
		anchor, err := parseUUID(input.AnchorSessionID)
		if err != nil {
			return nil, err
		}
		planID, err := parseOptionalUUID(input.PlanID)
		if err != nil {
			return nil, err
		}
		start, err := parseStart(input.NewStart)
		if err != nil {
			return nil, err
		}
		return app.PreviewRebalanceHandler.Handle(ctx, commands.PreviewRebalanceCommand{
			PlanID:          planID,
			AnchorSessionID: anchor,
			NewAnchorStart:  start,
		})
	}
}

func overrideTool(deps ToolDependencies) func(context.Context, overrideInput) (*commands.OverrideMoveResult, error) {
	app := deps.App
	return func(ctx context.Context, input overrideInput) (*commands.OverrideMoveResult, error) {
		if app == nil || app.EditMoveHandler == nil {
			return nil, errors.New("rebalance requires a session store")
		}
		rebalanceID, err := parseUUID(input.RebalanceID)
		if err != nil {
			return nil, err
		}
		sessionID, err := parseUUID(input.SessionID)
		if err != nil {
			return nil, err
		}

		cmd := commands.OverrideMoveCommand{RebalanceID: rebalanceID, SessionID: sessionID, Clear: input.Clear}
		if !input.Clear {
			if cmd.Date, err = domain.ParseCalendarDate(input.Date); err != nil {
				return nil, err
			}
			if cmd.Time, err = domain.ParseClockTime(input.Time); err != nil {
				return nil, err
			}
		}
		result, err := app.EditMoveHandler.HandleOverride(ctx, cmd)
		if err != nil {
			return nil, err
		}
		if input.Clear {
			result.Saved = true
		}
		return result, nil
	}
}

func skipTool(deps ToolDependencies) func(context.Context, skipInput) (*commands.ToggleSkipResult, error) {
	app := deps.App
	return func(ctx context.Context, input skipInput) (*commands.ToggleSkipResult, error) {
		if app == nil || app.EditMoveHandler == nil {
			return nil, errors.New("rebalance requires a session store")
		}
		rebalanceID, err := parseUUID(input.RebalanceID)
		if err != nil {
			return nil, err
		}
		sessionID, err := parseUUID(input.SessionID)
		if err != nil {
			return nil, err
		}
		return app.EditMoveHandler.HandleToggleSkip(ctx, commands.ToggleSkipCommand{
			RebalanceID: rebalanceID,
			SessionID:   sessionID,
		})
	}
}

func applyTool(deps ToolDependencies) func(context.Context, applyInput) (*applyOutput, error) {
	app := deps.App
	return func(ctx context.Context, input applyInput) (*applyOutput, error) {
		if app == nil || app.ApplyRebalanceHandler == nil {
			return nil, errors.New("rebalance requires a session store")
		}
		rebalanceID, err := parseUUID(input.RebalanceID)
		if err != nil {
			return nil, err
		}

		result, err := app.ApplyRebalanceHandler.Handle(ctx, commands.ApplyRebalanceCommand{RebalanceID: rebalanceID})
		if err != nil {
			var cerr *domain.ConflictError
			if errors.As(err, &cerr) {
				return &applyOutput{Status: "blocked", Conflicts: cerr.Conflicts}, nil
			}
			return nil, err
		}

		status := "applied"
		if result.Skipped > 0 {
			status = "partial"
		}
		return &applyOutput{Status: status, Result: result}, nil
	}
}
