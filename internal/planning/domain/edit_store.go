package domain

import (
	"sync"

	"github.com/google/uuid"
)

type editEntry struct {
	override *MoveOverride
	skipped  bool
}

// MoveEditStore holds per-move user edits for one rebalance session.
// A session has either an override or a skip, never both.
type MoveEditStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]editEntry
}

// NewMoveEditStore creates an empty store.
func NewMoveEditStore() *MoveEditStore {
	return &MoveEditStore{entries: make(map[uuid.UUID]editEntry)}
}

// SetOverride records a user-chosen date and time and clears any skip.
func (s *MoveEditStore) SetOverride(sessionID uuid.UUID, date CalendarDate, clock ClockTime) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = editEntry{
		override: &MoveOverride{SessionID: sessionID, Date: date, Time: clock},
	}
}

// ClearOverride drops the override for a session, if any.
func (s *MoveEditStore) ClearOverride(sessionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sessionID]
	if !ok || e.override == nil {
		return
	}
	delete(s.entries, sessionID)
}

// ToggleSkip flips the skip flag. Skipping clears any override.
// It returns the new skip state.
func (s *MoveEditStore) ToggleSkip(sessionID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[sessionID]; ok && e.skipped {
		delete(s.entries, sessionID)
		return false
	}
	s.entries[sessionID] = editEntry{skipped: true}
	return true
}

// Skip marks the session skipped whatever its current state. Skipping clears
// any override.
func (s *MoveEditStore) Skip(sessionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = editEntry{skipped: true}
}

// Override returns the override for a session.
func (s *MoveEditStore) Override(sessionID uuid.UUID) (MoveOverride, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[sessionID]
	if !ok || e.override == nil {
		return MoveOverride{}, false
	}
	return *e.override, true
}

// IsSkipped reports whether the session is marked skip.
func (s *MoveEditStore) IsSkipped(sessionID uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[sessionID].skipped
}

// Resolve returns the decision for a move without changing state.
func (s *MoveEditStore) Resolve(m Move) MoveDecision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[m.SessionID]
	switch {
	case !ok:
		return UseProposed()
	case e.skipped:
		return Skip()
	case e.override != nil:
		return UseOverride(*e.override)
	default:
		return UseProposed()
	}
}

// Decisions resolves every move into a map keyed by session id.
func (s *MoveEditStore) Decisions(moves []Move) map[uuid.UUID]MoveDecision {
	out := make(map[uuid.UUID]MoveDecision, len(moves))
	for _, m := range moves {
		out[m.SessionID] = s.Resolve(m)
	}
	return out
}

// Reset clears every edit.
func (s *MoveEditStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[uuid.UUID]editEntry)
}

// EditSnapshot is the serializable form of a MoveEditStore.
type EditSnapshot struct {
	Overrides []MoveOverride `json:"overrides,omitempty"`
	Skips     []uuid.UUID    `json:"skips,omitempty"`
}

// Snapshot copies the current edits.
func (s *MoveEditStore) Snapshot() EditSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var snap EditSnapshot
	for id, e := range s.entries {
		if e.skipped {
			snap.Skips = append(snap.Skips, id)
		} else if e.override != nil {
			snap.Overrides = append(snap.Overrides, *e.override)
		}
	}
	return snap
}

// Restore replaces the store's edits with a snapshot. Overrides are applied
// before skips, so a session present in both ends up skipped.
func (s *MoveEditStore) Restore(snap EditSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[uuid.UUID]editEntry, len(snap.Overrides)+len(snap.Skips))
	for _, o := range snap.Overrides {
		o := o
		s.entries[o.SessionID] = editEntry{override: &o}
	}
	for _, id := range snap.Skips {
		s.entries[id] = editEntry{skipped: true}
	}
}
