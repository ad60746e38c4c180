package mcp

import (
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/google/uuid"
)

func parseDate(value string, fallback domain.CalendarDate) (domain.CalendarDate, error) {
	if value == "" {
		return fallback, nil
	}
	return domain.ParseCalendarDate(value)
}

func parseUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.UUID{}, errors.New("id is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

func parseOptionalUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, nil
	}
	return parseUUID(value)
}

func parseStart(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("new_start is required")
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time, use RFC 3339: %w", err)
	}
	return t, nil
}

func today(loc *time.Location) domain.CalendarDate {
	if loc == nil {
		loc = time.UTC
	}
	return domain.DateOf(time.Now().In(loc))
}
