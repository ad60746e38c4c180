package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/application/commands"
	"github.com/felixgeelhaar/kinplan/internal/planning/application/queries"
	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/felixgeelhaar/kinplan/pkg/observability"
	"github.com/felixgeelhaar/mcp-go"
)

type weeksInput struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type heatmapInput struct {
	LearnerID string `json:"learner_id" jsonschema:"required"`
	Start     string `json:"start,omitempty"`
	End       string `json:"end,omitempty"`
}

type sessionAddInput struct {
	LearnerID       string `json:"learner_id" jsonschema:"required"`
	PlanID          string `json:"plan_id,omitempty"`
	Subject         string `json:"subject" jsonschema:"required"`
	Title           string `json:"title,omitempty"`
	Start           string `json:"start" jsonschema:"required"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Status          string `json:"status,omitempty"`
}

func registerPlanTools(srv *mcp.Server, deps ToolDependencies) error {
	srv.Tool("plan.weeks").
		Description("Split an inclusive date range (YYYY-MM-DD) into seven-day buckets").
		Handler(weeksTool(deps))

	srv.Tool("plan.heatmap").
		Description("Scheduled and completed minutes per subject and week for one learner").
		Handler(heatmapTool(deps))

	srv.Tool("plan.session_add").
		Description("Add a learning session; start is RFC 3339").
		Handler(sessionAddTool(deps))

	return nil
}

func weeksTool(deps ToolDependencies) func(context.Context, weeksInput) ([]domain.WeekBucket, error) {
	app := deps.App
	return func(ctx context.Context, input weeksInput) ([]domain.WeekBucket, error) {
		if app == nil || app.GetWeekBucketsHandler == nil {
			return nil, errors.New("app not initialized")
		}
		start, err := parseDate(input.Start, today(app.Location))
		if err != nil {
			return nil, err
		}
		end, err := parseDate(input.End, start.AddDays(6))
		if err != nil {
			return nil, err
		}
		return app.GetWeekBucketsHandler.Handle(ctx, queries.GetWeekBucketsQuery{Start: start, End: end})
	}
}

func heatmapTool(deps ToolDependencies) func(context.Context, heatmapInput) (*queries.HeatmapDTO, error) {
	app := deps.App
	return func(ctx context.Context, input heatmapInput) (*queries.HeatmapDTO, error) {
		if app == nil || app.GetWeeklyHeatmapHandler == nil {
			return nil, errors.New("heatmap requires a session store")
		}
		learnerID, err := parseUUID(input.LearnerID)
		if err != nil {
			return nil, err
		}
		start, err := parseDate(input.Start, today(app.Location))
		if err != nil {
			return nil, err
		}
		end, err := parseDate(input.End, start.AddDays(27))
		if err != nil {
			return nil, err
		}
		return app.GetWeeklyHeatmapHandler.Handle(observability.WithLearnerID(ctx, learnerID), queries.GetWeeklyHeatmapQuery{
			LearnerID: learnerID,
			Start:     start,
			End:       end,
		})
	}
}

func sessionAddTool(deps ToolDependencies) func(context.Context, sessionAddInput) (map[string]any, error) {
	app := deps.App
	return func(ctx context.Context, input sessionAddInput) (map[string]any, error) {
		if app == nil || app.SaveSessionHandler == nil {
			return nil, errors.New("session commands require a session store")
		}
		learnerID, err := parseUUID(input.LearnerID)
		if err != nil {
			return nil, err
		}
		planID, err := parseOptionalUUID(input.PlanID)
		if err != nil {
			return nil, err
		}
		start, err := parseStart(input.Start)
		if err != nil {
			return nil, err
		}
		status := domain.StatusScheduled
		if input.Status != "" {
			if status, err = domain.ParseSessionStatus(input.Status); err != nil {
				return nil, err
			}
		}
		minutes := input.DurationMinutes
		if minutes <= 0 {
			minutes = 45
		}

		result, err := app.SaveSessionHandler.Handle(ctx, commands.SaveSessionCommand{
			LearnerID: learnerID,
			PlanID:    planID,
			Subject:   input.Subject,
			Title:     input.Title,
			Start:     start,
			Duration:  time.Duration(minutes) * time.Minute,
			Status:    status,
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"session_id": result.SessionID,
			"status":     status,
		}, nil
	}
}
