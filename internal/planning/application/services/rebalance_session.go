package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/google/uuid"
)

var ErrMoveNotInPreview = errors.New("session is not part of the current preview")

// Rebalancer opens and resumes rebalance sessions over shared services.
type Rebalancer struct {
	orchestrator *PreviewOrchestrator
	detector     *ConflictDetector
	applier      *SequentialApplier
	sessions     domain.SessionRepository
	location     *time.Location
}

// NewRebalancer creates a new rebalancer.
func NewRebalancer(
	orchestrator *PreviewOrchestrator,
	detector *ConflictDetector,
	applier *SequentialApplier,
	sessions domain.SessionRepository,
	loc *time.Location,
) *Rebalancer {
	if loc == nil {
		loc = time.UTC
	}
	return &Rebalancer{
		orchestrator: orchestrator,
		detector:     detector,
		applier:      applier,
		sessions:     sessions,
		location:     loc,
	}
}

// Open starts a new rebalance session for moving anchor to newStart.
// Call Preview to fetch moves.
func (r *Rebalancer) Open(planID, anchor uuid.UUID, newStart time.Time) *RebalanceSession {
	return &RebalanceSession{
		r:         r,
		id:        uuid.New(),
		planID:    planID,
		anchor:    anchor,
		newStart:  newStart,
		edits:     domain.NewMoveEditStore(),
		conflicts: make(map[uuid.UUID]domain.ConflictResult),
	}
}

// Resume rebuilds a session from stored state.
func (r *Rebalancer) Resume(state *domain.RebalanceState) *RebalanceSession {
	s := &RebalanceSession{
		r:         r,
		id:        state.ID,
		planID:    state.PlanID,
		anchor:    state.AnchorSessionID,
		newStart:  state.NewAnchorStart,
		moves:     append([]domain.Move(nil), state.Moves...),
		edits:     domain.NewMoveEditStore(),
		conflicts: make(map[uuid.UUID]domain.ConflictResult, len(state.Conflicts)),
	}
	s.edits.Restore(state.Edits)
	for _, c := range state.Conflicts {
		s.conflicts[c.SessionID] = c
	}
	return s
}

// RebalanceSession is one interactive rebalance: the moves from the last
// preview, the user's edits and the conflicts still blocking apply.
type RebalanceSession struct {
	r *Rebalancer

	mu        sync.Mutex
	id        uuid.UUID
	planID    uuid.UUID
	anchor    uuid.UUID
	newStart  time.Time
	moves     []domain.Move
	edits     *domain.MoveEditStore
	conflicts map[uuid.UUID]domain.ConflictResult
}

func (s *RebalanceSession) ID() uuid.UUID { return s.id }

// Moves returns a copy of the current moves.
func (s *RebalanceSession) Moves() []domain.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Move(nil), s.moves...)
}

// Edits exposes the session's edit store.
func (s *RebalanceSession) Edits() *domain.MoveEditStore { return s.edits }

// Preview fetches moves for the current anchor target. Edits and conflicts
// from a previous preview are discarded.
func (s *RebalanceSession) Preview(ctx context.Context) (*PreviewResult, error) {
	s.mu.Lock()
	req := PreviewRequest{PlanID: s.planID, AnchorSessionID: s.anchor, NewAnchorStart: s.newStart}
	s.mu.Unlock()

	result, err := s.r.orchestrator.Preview(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits.Reset()
	s.conflicts = make(map[uuid.UUID]domain.ConflictResult)
	if err != nil {
		s.moves = nil
		return nil, err
	}
	s.moves = result.Moves
	return result, nil
}

// Retarget changes the anchor's new start and previews again.
func (s *RebalanceSession) Retarget(ctx context.Context, newStart time.Time) (*PreviewResult, error) {
	s.mu.Lock()
	s.newStart = newStart
	s.mu.Unlock()
	return s.Preview(ctx)
}

// SetOverride live-checks the override and saves it only when clear. A
// conflict is recorded on the session and returned without error.
func (s *RebalanceSession) SetOverride(
	ctx context.Context,
	sessionID uuid.UUID,
	date domain.CalendarDate,
	clock domain.ClockTime,
) (*domain.ConflictResult, error) {
	if !s.hasMove(sessionID) {
		return nil, fmt.Errorf("%w: %s", ErrMoveNotInPreview, sessionID)
	}

	session, err := s.r.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	start := domain.At(date, clock, s.r.location)
	conflict := s.r.detector.CheckLive(ctx, sessionID, session.LearnerID(), start, start.Add(session.Duration()))

	s.mu.Lock()
	defer s.mu.Unlock()
	if conflict != nil {
		s.conflicts[sessionID] = *conflict
		return conflict, nil
	}
	s.edits.SetOverride(sessionID, date, clock)
	delete(s.conflicts, sessionID)
	return nil, nil
}

// ClearOverride returns the move to its proposed start.
func (s *RebalanceSession) ClearOverride(sessionID uuid.UUID) error {
	if !s.hasMove(sessionID) {
		return fmt.Errorf("%w: %s", ErrMoveNotInPreview, sessionID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits.ClearOverride(sessionID)
	delete(s.conflicts, sessionID)
	return nil
}

// ToggleSkip flips whether the move is excluded and returns the new state.
func (s *RebalanceSession) ToggleSkip(sessionID uuid.UUID) (bool, error) {
	if !s.hasMove(sessionID) {
		return false, fmt.Errorf("%w: %s", ErrMoveNotInPreview, sessionID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conflicts, sessionID)
	return s.edits.ToggleSkip(sessionID), nil
}

// Skip excludes the move from apply. Unlike ToggleSkip it is idempotent.
func (s *RebalanceSession) Skip(sessionID uuid.UUID) error {
	if !s.hasMove(sessionID) {
		return fmt.Errorf("%w: %s", ErrMoveNotInPreview, sessionID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conflicts, sessionID)
	s.edits.Skip(sessionID)
	return nil
}

// Conflicts returns unresolved conflicts in move order.
func (s *RebalanceSession) Conflicts() []domain.ConflictResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conflictsLocked()
}

func (s *RebalanceSession) conflictsLocked() []domain.ConflictResult {
	var out []domain.ConflictResult
	for _, m := range s.moves {
		if c, ok := s.conflicts[m.SessionID]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Apply runs the applier with the session's decisions. Once the batch check
// has run, the conflicts of kept moves are replaced by its result, so a
// ConflictError leaves exactly the still-blocking moves recorded.
func (s *RebalanceSession) Apply(ctx context.Context, onProgress ProgressFunc) (*domain.ApplyResult, error) {
	moves := s.Moves()
	decisions := s.edits.Decisions(moves)

	result, err := s.r.applier.Apply(ctx, moves, decisions, onProgress)
	var cerr *domain.ConflictError
	if err != nil && !errors.As(err, &cerr) {
		return nil, err
	}

	s.mu.Lock()
	for id, d := range decisions {
		if !d.IsSkip() {
			delete(s.conflicts, id)
		}
	}
	if cerr != nil {
		for _, c := range cerr.Conflicts {
			s.conflicts[c.SessionID] = c
		}
	}
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return result, nil
}

// Snapshot captures the session for an edit-state store.
func (s *RebalanceSession) Snapshot() *domain.RebalanceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &domain.RebalanceState{
		ID:              s.id,
		PlanID:          s.planID,
		AnchorSessionID: s.anchor,
		NewAnchorStart:  s.newStart,
		Moves:           append([]domain.Move(nil), s.moves...),
		Edits:           s.edits.Snapshot(),
		Conflicts:       s.conflictsLocked(),
		UpdatedAt:       time.Now().UTC(),
	}
}

func (s *RebalanceSession) hasMove(sessionID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.moves {
		if m.SessionID == sessionID {
			return true
		}
	}
	return false
}
