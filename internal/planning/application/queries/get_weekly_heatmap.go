package queries

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/google/uuid"
)

// GetWeeklyHeatmapQuery contains the parameters for a learner heatmap.
type GetWeeklyHeatmapQuery struct {
	LearnerID uuid.UUID
	Start     domain.CalendarDate
	End       domain.CalendarDate
}

// HeatmapDTO is the weekly heatmap for one learner.
type HeatmapDTO struct {
	LearnerID             uuid.UUID            `json:"learner_id"`
	Weeks                 []domain.WeekBucket  `json:"weeks"`
	Subjects              []string             `json:"subjects"`
	Cells                 []domain.HeatmapCell `json:"cells"`
	TotalScheduledMinutes int                  `json:"total_scheduled_minutes"`
	TotalCompletedMinutes int                  `json:"total_completed_minutes"`
}

// GetWeeklyHeatmapHandler handles the GetWeeklyHeatmapQuery.
type GetWeeklyHeatmapHandler struct {
	sessions domain.SessionRepository
	location *time.Location
}

// NewGetWeeklyHeatmapHandler creates a new GetWeeklyHeatmapHandler.
func NewGetWeeklyHeatmapHandler(sessions domain.SessionRepository, loc *time.Location) *GetWeeklyHeatmapHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &GetWeeklyHeatmapHandler{sessions: sessions, location: loc}
}

// Handle executes the GetWeeklyHeatmapQuery.
func (h *GetWeeklyHeatmapHandler) Handle(ctx context.Context, query GetWeeklyHeatmapQuery) (*HeatmapDTO, error) {
	weeks, err := domain.GenerateWeeks(query.Start, query.End)
	if err != nil {
		return nil, err
	}

	from := query.Start.In(h.location)
	to := query.End.AddDays(1).In(h.location)
	sessions, err := h.sessions.FindByLearnerRange(ctx, query.LearnerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	cells := domain.BuildHeatmap(weeks, sessions, h.location)
	dto := &HeatmapDTO{
		LearnerID: query.LearnerID,
		Weeks:     weeks,
		Subjects:  []string{},
		Cells:     cells,
	}
	seen := make(map[string]bool)
	for _, c := range cells {
		dto.TotalScheduledMinutes += c.ScheduledMinutes
		dto.TotalCompletedMinutes += c.CompletedMinutes
		if !seen[c.Subject] {
			seen[c.Subject] = true
			dto.Subjects = append(dto.Subjects, c.Subject)
		}
	}
	sort.Strings(dto.Subjects)
	return dto, nil
}
