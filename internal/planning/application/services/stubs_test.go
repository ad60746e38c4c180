package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/google/uuid"
)

var errStoreDown = errors.New("store unavailable")

type update struct {
	id         uuid.UUID
	start, end time.Time
}

type stubSessionRepo struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*domain.Session
	order     []uuid.UUID
	failIDs   map[uuid.UUID]error
	findErr   map[uuid.UUID]error
	windowErr error
	updates   []update
	windows   [][2]time.Time
	// honorCancel makes UpdateTimes fail when its context is cancelled.
	honorCancel bool
}

func newStubSessionRepo(sessions ...*domain.Session) *stubSessionRepo {
	r := &stubSessionRepo{
		sessions: make(map[uuid.UUID]*domain.Session),
		failIDs:  make(map[uuid.UUID]error),
		findErr:  make(map[uuid.UUID]error),
	}
	for _, s := range sessions {
		r.sessions[s.ID()] = s
		r.order = append(r.order, s.ID())
	}
	return r
}

func (r *stubSessionRepo) Save(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID()]; !ok {
		r.order = append(r.order, s.ID())
	}
	r.sessions[s.ID()] = s
	return nil
}

func (r *stubSessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.findErr[id]; err != nil {
		return nil, err
	}
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (r *stubSessionRepo) FindByLearnerWindow(ctx context.Context, learnerID uuid.UUID, from, to time.Time, statuses []domain.SessionStatus) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows = append(r.windows, [2]time.Time{from, to})
	if r.windowErr != nil {
		return nil, r.windowErr
	}
	var out []*domain.Session
	for _, id := range r.order {
		s := r.sessions[id]
		if s.LearnerID() != learnerID || !statusIn(s.Status(), statuses) {
			continue
		}
		if s.End().Before(from) || s.Start().After(to) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *stubSessionRepo) FindByLearnerRange(ctx context.Context, learnerID uuid.UUID, from, to time.Time) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Session
	for _, id := range r.order {
		s := r.sessions[id]
		if s.LearnerID() == learnerID && !s.Start().Before(from) && s.Start().Before(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *stubSessionRepo) UpdateTimes(ctx context.Context, id uuid.UUID, start, end time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.honorCancel && ctx.Err() != nil {
		return ctx.Err()
	}
	if err := r.failIDs[id]; err != nil {
		return err
	}
	s, ok := r.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	moved := domain.RehydrateSession(s.ID(), s.LearnerID(), s.PlanID(), s.Subject(), s.Title(), start, end, s.Status(), s.CreatedAt(), s.UpdatedAt())
	r.sessions[id] = moved
	r.updates = append(r.updates, update{id: id, start: start, end: end})
	return nil
}

func (r *stubSessionRepo) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

func statusIn(s domain.SessionStatus, statuses []domain.SessionStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

type recordingNotifier struct {
	events []domain.ScheduleChanged
	err    error
}

func (n *recordingNotifier) ScheduleChanged(ctx context.Context, event domain.ScheduleChanged) error {
	n.events = append(n.events, event)
	return n.err
}

var day = time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)

func at(dayOffset, hour, minute int) time.Time {
	return day.AddDate(0, 0, dayOffset).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func mustSession(learnerID uuid.UUID, title string, start time.Time, d time.Duration) *domain.Session {
	s, err := domain.NewSession(learnerID, uuid.Nil, "math", title, start, start.Add(d))
	if err != nil {
		panic(err)
	}
	return s
}
