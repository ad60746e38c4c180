package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidRange       = errors.New("range start must not be after range end")
	ErrInvalidTimeRange   = errors.New("end time must be after start time")
	ErrSessionNotFound    = errors.New("session not found")
	ErrPlannerUnavailable = errors.New("planning service unavailable")
	ErrNoConflicts        = errors.New("conflict error requires at least one conflict")
)

// InvalidRangeError is returned when a date range starts after it ends.
type InvalidRangeError struct {
	Start CalendarDate
	End   CalendarDate
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range %s..%s: %v", e.Start, e.End, ErrInvalidRange)
}

// Is lets callers match with errors.Is(err, ErrInvalidRange).
func (e *InvalidRangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

// PreviewFailedError wraps a transport or decoding failure while fetching
// candidate moves. It is never used for an empty result.
type PreviewFailedError struct {
	Err error
}

func (e *PreviewFailedError) Error() string {
	return fmt.Sprintf("rebalance preview failed: %v", e.Err)
}

func (e *PreviewFailedError) Unwrap() error {
	return e.Err
}

// ConflictError blocks an apply run before anything is written.
type ConflictError struct {
	Conflicts []ConflictResult
}

// NewConflictError builds a ConflictError from at least one conflict.
func NewConflictError(conflicts []ConflictResult) (*ConflictError, error) {
	if len(conflicts) == 0 {
		return nil, ErrNoConflicts
	}
	cp := make([]ConflictResult, len(conflicts))
	copy(cp, conflicts)
	return &ConflictError{Conflicts: cp}, nil
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, c.String())
	}
	return fmt.Sprintf("%d unresolved conflict(s): %s", len(e.Conflicts), strings.Join(parts, "; "))
}

// ApplyItemError describes a single move that failed during apply.
// It is flattened into ApplyResult.Errors and never returned to callers.
type ApplyItemError struct {
	SessionID uuid.UUID
	Err       error
}

func (e *ApplyItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.SessionID, e.Err)
}

func (e *ApplyItemError) Unwrap() error {
	return e.Err
}
