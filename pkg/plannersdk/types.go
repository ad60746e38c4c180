package plannersdk

import "time"

// Session is the view of a learning session that a planner plugin sees.
type Session struct {
	ID      string
	Subject string
	Title   string
	Start   time.Time
	End     time.Time
	Status  string
}

// PreviewArgs describes one rebalance request. Upcoming holds the learner's
// sessions that start after the anchor, ordered by start.
type PreviewArgs struct {
	PlanID   string
	Anchor   Session
	NewStart time.Time
	Upcoming []Session
}

// Offset is how far the anchor moves.
func (a PreviewArgs) Offset() time.Duration {
	return a.NewStart.Sub(a.Anchor.Start)
}

// Move is a proposed new start for one session.
type Move struct {
	SessionID     string
	CurrentStart  time.Time
	ProposedStart time.Time
	Reason        string
}

// PreviewReply is the plugin's answer.
type PreviewReply struct {
	Moves []Move
}
