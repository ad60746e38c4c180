package domain

import (
	"sort"
	"time"
)

// HeatmapCell aggregates session minutes for one subject in one week.
type HeatmapCell struct {
	WeekIndex        int    `json:"week_index"`
	Subject          string `json:"subject"`
	ScheduledMinutes int    `json:"scheduled_minutes"`
	CompletedMinutes int    `json:"completed_minutes"`
}

type heatmapKey struct {
	week    int
	subject string
}

// BuildHeatmap pivots sessions into week × subject cells. A session counts
// toward the week holding its start date in loc. Only committed sessions are
// counted; done sessions also count as completed. Empty cells are omitted.
func BuildHeatmap(weeks []WeekBucket, sessions []*Session, loc *time.Location) []HeatmapCell {
	if loc == nil {
		loc = time.UTC
	}

	cells := make(map[heatmapKey]*HeatmapCell)
	for _, s := range sessions {
		if s == nil || !s.Status().IsCommitted() {
			continue
		}
		week := WeekIndexOf(weeks, DateOf(s.Start().In(loc)))
		if week < 0 {
			continue
		}

		key := heatmapKey{week: week, subject: s.Subject()}
		cell, ok := cells[key]
		if !ok {
			cell = &HeatmapCell{WeekIndex: week, Subject: s.Subject()}
			cells[key] = cell
		}
		minutes := int(s.Duration() / time.Minute)
		cell.ScheduledMinutes += minutes
		if s.Status() == StatusDone {
			cell.CompletedMinutes += minutes
		}
	}

	result := make([]HeatmapCell, 0, len(cells))
	for _, c := range cells {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].WeekIndex != result[j].WeekIndex {
			return result[i].WeekIndex < result[j].WeekIndex
		}
		return result[i].Subject < result[j].Subject
	})
	return result
}
