package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/kinplan/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrEmptySubject   = errors.New("session subject is required")
	ErrUnknownStatus  = errors.New("unknown session status")
	ErrMissingLearner = errors.New("session learner is required")
)

// SessionStatus is the lifecycle state of a learning session.
type SessionStatus string

const (
	StatusScheduled SessionStatus = "scheduled"
	StatusDone      SessionStatus = "done"
	StatusSkipped   SessionStatus = "skipped"
	StatusCancelled SessionStatus = "cancelled"
)

// CommittedStatuses are the statuses that occupy time on a learner's calendar.
var CommittedStatuses = []SessionStatus{StatusScheduled, StatusDone}

// ParseSessionStatus converts a stored or user-provided status.
func ParseSessionStatus(s string) (SessionStatus, error) {
	switch st := SessionStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusScheduled, StatusDone, StatusSkipped, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// IsCommitted reports whether the status blocks time.
func (s SessionStatus) IsCommitted() bool {
	return s == StatusScheduled || s == StatusDone
}

// Session is a single scheduled learning activity for one learner.
type Session struct {
	sharedDomain.BaseEntity
	learnerID uuid.UUID
	planID    uuid.UUID
	subject   string
	title     string
	start     time.Time
	end       time.Time
	status    SessionStatus
}

// NewSession creates a scheduled session.
func NewSession(learnerID, planID uuid.UUID, subject, title string, start, end time.Time) (*Session, error) {
	if learnerID == uuid.Nil {
		return nil, ErrMissingLearner
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, ErrEmptySubject
	}
	if !end.After(start) {
		return nil, ErrInvalidTimeRange
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = subject
	}

	return &Session{
		BaseEntity: sharedDomain.NewBaseEntity(),
		learnerID:  learnerID,
		planID:     planID,
		subject:    subject,
		title:      title,
		start:      start,
		end:        end,
		status:     StatusScheduled,
	}, nil
}

// Getters
func (s *Session) LearnerID() uuid.UUID    { return s.learnerID }
func (s *Session) PlanID() uuid.UUID       { return s.planID }
func (s *Session) Subject() string         { return s.subject }
func (s *Session) Title() string           { return s.title }
func (s *Session) Start() time.Time        { return s.start }
func (s *Session) End() time.Time          { return s.end }
func (s *Session) Status() SessionStatus   { return s.status }
func (s *Session) Duration() time.Duration { return s.end.Sub(s.start) }
func (s *Session) Range() TimeRange        { return TimeRange{Start: s.start, End: s.end} }

// Reschedule moves the session, keeping its status.
func (s *Session) Reschedule(start, end time.Time) error {
	if !end.After(start) {
		return ErrInvalidTimeRange
	}
	s.start = start
	s.end = end
	s.Touch()
	return nil
}

// MarkDone marks the session as completed.
func (s *Session) MarkDone() {
	s.status = StatusDone
	s.Touch()
}

// Skip marks the session as skipped.
func (s *Session) Skip() {
	s.status = StatusSkipped
	s.Touch()
}

// Cancel marks the session as cancelled.
func (s *Session) Cancel() {
	s.status = StatusCancelled
	s.Touch()
}

// RehydrateSession recreates a session from persisted state.
func RehydrateSession(
	id, learnerID, planID uuid.UUID,
	subject, title string,
	start, end time.Time,
	status SessionStatus,
	createdAt, updatedAt time.Time,
) *Session {
	return &Session{
		BaseEntity: sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		learnerID:  learnerID,
		planID:     planID,
		subject:    subject,
		title:      title,
		start:      start,
		end:        end,
		status:     status,
	}
}
