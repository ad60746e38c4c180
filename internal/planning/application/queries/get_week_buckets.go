package queries

import (
	"context"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
)

// GetWeekBucketsQuery contains the range to split into weeks.
type GetWeekBucketsQuery struct {
	Start domain.CalendarDate
	End   domain.CalendarDate
}

// GetWeekBucketsHandler handles the GetWeekBucketsQuery.
type GetWeekBucketsHandler struct{}

// NewGetWeekBucketsHandler creates a new GetWeekBucketsHandler.
func NewGetWeekBucketsHandler() *GetWeekBucketsHandler {
	return &GetWeekBucketsHandler{}
}

// Handle executes the GetWeekBucketsQuery.
func (h *GetWeekBucketsHandler) Handle(ctx context.Context, query GetWeekBucketsQuery) ([]domain.WeekBucket, error) {
	return domain.GenerateWeeks(query.Start, query.End)
}
