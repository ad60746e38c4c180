package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Move is a planner proposal to shift one session. CurrentStart is
// informational; apply always re-reads the stored session.
type Move struct {
	SessionID     uuid.UUID `json:"session_id"`
	CurrentStart  time.Time `json:"current_start"`
	ProposedStart time.Time `json:"proposed_start"`
	Reason        string    `json:"reason,omitempty"`
}

// MoveOverride replaces a move's proposed start with a user-chosen date and time.
type MoveOverride struct {
	SessionID uuid.UUID    `json:"session_id"`
	Date      CalendarDate `json:"date"`
	Time      ClockTime    `json:"time"`
}

// StartIn resolves the override in loc.
func (o MoveOverride) StartIn(loc *time.Location) time.Time {
	return At(o.Date, o.Time, loc)
}

// DecisionKind is what the user decided to do with a move.
type DecisionKind int

const (
	DecisionUseProposed DecisionKind = iota
	DecisionUseOverride
	DecisionSkip
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionUseOverride:
		return "override"
	case DecisionSkip:
		return "skip"
	default:
		return "proposed"
	}
}

// MoveDecision is the resolved intent for one move.
type MoveDecision struct {
	Kind     DecisionKind
	Override *MoveOverride
}

// UseProposed is the default decision.
func UseProposed() MoveDecision { return MoveDecision{Kind: DecisionUseProposed} }

// Skip excludes the move from apply.
func Skip() MoveDecision { return MoveDecision{Kind: DecisionSkip} }

// UseOverride applies the move at the override's date and time.
func UseOverride(o MoveOverride) MoveDecision {
	return MoveDecision{Kind: DecisionUseOverride, Override: &o}
}

// IsSkip reports whether the move is excluded.
func (d MoveDecision) IsSkip() bool { return d.Kind == DecisionSkip }

// TargetStart returns the start the move should be applied at.
func (d MoveDecision) TargetStart(m Move, loc *time.Location) time.Time {
	if d.Kind == DecisionUseOverride && d.Override != nil {
		return d.Override.StartIn(loc)
	}
	return m.ProposedStart
}

// MoveTarget is a session at the interval it will occupy after apply.
type MoveTarget struct {
	SessionID uuid.UUID
	LearnerID uuid.UUID
	Start     time.Time
	End       time.Time
}

// Range returns the target interval.
func (t MoveTarget) Range() TimeRange {
	return TimeRange{Start: t.Start, End: t.End}
}

// ConflictResult records that a move would overlap an existing commitment.
type ConflictResult struct {
	SessionID uuid.UUID `json:"session_id"`
	Message   string    `json:"message"`
}

func (c ConflictResult) String() string {
	return fmt.Sprintf("%s: %s", c.SessionID, c.Message)
}

// ConflictMessage formats the user-facing conflict text for an existing session.
func ConflictMessage(title string, start time.Time) string {
	return fmt.Sprintf("conflicts with %q at %s", title, start.Format(time.RFC3339))
}

// ApplyResult summarizes a sequential apply run. Skipped counts moves that
// failed to update; Excluded counts moves the user chose to skip.
type ApplyResult struct {
	Applied  int      `json:"applied"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
	Excluded int      `json:"excluded"`
}

// Total returns the number of moves attempted.
func (r ApplyResult) Total() int {
	return r.Applied + r.Skipped
}
