// Package persistence stores learning sessions in SQLite or Postgres.
package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/felixgeelhaar/kinplan/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const sqliteSessionColumns = `id, learner_id, plan_id, subject, title, start_time, end_time, status, created_at, updated_at`

// SQLiteSessionRepository implements domain.SessionRepository using SQLite.
// Times are stored as UTC RFC 3339 text so they compare lexically.
type SQLiteSessionRepository struct {
	db database.Executor
}

// NewSQLiteSessionRepository creates a new SQLite session repository.
func NewSQLiteSessionRepository(db database.Executor) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db}
}

// Save inserts or updates a session.
func (r *SQLiteSessionRepository) Save(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO learning_sessions (` + sqliteSessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			subject = excluded.subject,
			title = excluded.title,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			status = excluded.status,
			updated_at = excluded.updated_at
	`
	_, err := r.db.Exec(ctx, query,
		s.ID().String(),
		s.LearnerID().String(),
		nullableID(s.PlanID()),
		s.Subject(),
		s.Title(),
		formatTime(s.Start()),
		formatTime(s.End()),
		string(s.Status()),
		formatTime(s.CreatedAt()),
		formatTime(s.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.ID(), err)
	}
	return nil
}

// FindByID returns domain.ErrSessionNotFound when no row matches.
func (r *SQLiteSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sqliteSessionColumns+` FROM learning_sessions WHERE id = ?`, id.String())
	session, err := scanSQLiteSession(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// FindByLearnerWindow returns sessions intersecting [from, to].
func (r *SQLiteSessionRepository) FindByLearnerWindow(
	ctx context.Context,
	learnerID uuid.UUID,
	from, to time.Time,
	statuses []domain.SessionStatus,
) ([]*domain.Session, error) {
	query := `SELECT ` + sqliteSessionColumns + ` FROM learning_sessions
		WHERE learner_id = ? AND start_time < ? AND end_time > ?`
	args := []any{learnerID.String(), formatTime(to), formatTime(from)}

	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		query += ` AND status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY start_time`

	return r.query(ctx, query, args...)
}

// FindByLearnerRange returns sessions starting in [from, to).
func (r *SQLiteSessionRepository) FindByLearnerRange(ctx context.Context, learnerID uuid.UUID, from, to time.Time) ([]*domain.Session, error) {
	query := `SELECT ` + sqliteSessionColumns + ` FROM learning_sessions
		WHERE learner_id = ? AND start_time >= ? AND start_time < ?
		ORDER BY start_time`
	return r.query(ctx, query, learnerID.String(), formatTime(from), formatTime(to))
}

// UpdateTimes moves a session without touching its other fields.
func (r *SQLiteSessionRepository) UpdateTimes(ctx context.Context, id uuid.UUID, start, end time.Time) error {
	if !end.After(start) {
		return domain.ErrInvalidTimeRange
	}
	result, err := r.db.Exec(ctx,
		`UPDATE learning_sessions SET start_time = ?, end_time = ?, updated_at = ? WHERE id = ?`,
		formatTime(start), formatTime(end), formatTime(time.Now()), id.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update session %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *SQLiteSessionRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Session, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		session, err := scanSQLiteSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func scanSQLiteSession(row database.Row) (*domain.Session, error) {
	var (
		id, learnerID, subject, title, status string
		planID                                *string
		start, end, createdAt, updatedAt      string
	)
	if err := row.Scan(&id, &learnerID, &planID, &subject, &title, &start, &end, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var (
		parsed sessionFields
		err    error
	)
	if parsed.id, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", id, err)
	}
	if parsed.learnerID, err = uuid.Parse(learnerID); err != nil {
		return nil, fmt.Errorf("invalid learner id %q: %w", learnerID, err)
	}
	if planID != nil {
		if parsed.planID, err = uuid.Parse(*planID); err != nil {
			return nil, fmt.Errorf("invalid plan id %q: %w", *planID, err)
		}
	}
	for _, f := range []struct {
		dst *time.Time
		src string
	}{{&parsed.start, start}, {&parsed.end, end}, {&parsed.createdAt, createdAt}, {&parsed.updatedAt, updatedAt}} {
		if *f.dst, err = time.Parse(time.RFC3339, f.src); err != nil {
			return nil, fmt.Errorf("invalid timestamp %q in session %s: %w", f.src, id, err)
		}
	}

	parsed.subject, parsed.title = subject, title
	if parsed.status, err = domain.ParseSessionStatus(status); err != nil {
		return nil, err
	}
	return parsed.session(), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func nullableID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id.String()
}
