package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/google/uuid"
)

const startLayout = "2006-01-02 15:04"

// ParseDate parses YYYY-MM-DD. An empty value yields fallback.
func ParseDate(value string, fallback domain.CalendarDate) (domain.CalendarDate, error) {
	if value == "" {
		return fallback, nil
	}
	return domain.ParseCalendarDate(value)
}

// ParseStart accepts RFC 3339 or "YYYY-MM-DD HH:MM" resolved in loc.
func ParseStart(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("start is required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(startLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start %q, use RFC 3339 or YYYY-MM-DD HH:MM", value)
	}
	return t, nil
}

// ParseUUID parses a required id.
func ParseUUID(value, name string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, fmt.Errorf("%s is required", name)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}

// ParseOptionalUUID parses an id that may be empty.
func ParseOptionalUUID(value, name string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, nil
	}
	return ParseUUID(value, name)
}

// ParseOverride parses "SESSION_ID=YYYY-MM-DD@HH:MM".
func ParseOverride(value string) (domain.MoveOverride, error) {
	idPart, when, ok := strings.Cut(value, "=")
	if !ok {
		return domain.MoveOverride{}, fmt.Errorf("invalid override %q, use SESSION_ID=YYYY-MM-DD@HH:MM", value)
	}
	id, err := ParseUUID(strings.TrimSpace(idPart), "session id")
	if err != nil {
		return domain.MoveOverride{}, err
	}
	datePart, clockPart, ok := strings.Cut(strings.TrimSpace(when), "@")
	if !ok {
		return domain.MoveOverride{}, fmt.Errorf("invalid override %q, use SESSION_ID=YYYY-MM-DD@HH:MM", value)
	}
	date, err := domain.ParseCalendarDate(datePart)
	if err != nil {
		return domain.MoveOverride{}, fmt.Errorf("invalid override date: %w", err)
	}
	clock, err := domain.ParseClockTime(clockPart)
	if err != nil {
		return domain.MoveOverride{}, fmt.Errorf("invalid override time: %w", err)
	}
	return domain.MoveOverride{SessionID: id, Date: date, Time: clock}, nil
}
