package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/felixgeelhaar/kinplan/internal/shared/infrastructure/database"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const postgresSessionColumns = `id, learner_id, plan_id, subject, title, start_time, end_time, status, created_at, updated_at`

// PostgresSessionRepository implements domain.SessionRepository using PostgreSQL.
type PostgresSessionRepository struct {
	db database.Executor
}

// NewPostgresSessionRepository creates a new PostgreSQL session repository.
func NewPostgresSessionRepository(db database.Executor) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

// Save inserts or updates a session.
func (r *PostgresSessionRepository) Save(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO learning_sessions (` + postgresSessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			subject = EXCLUDED.subject,
			title = EXCLUDED.title,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`

	var planID *uuid.UUID
	if s.PlanID() != uuid.Nil {
		id := s.PlanID()
		planID = &id
	}

	_, err := r.db.Exec(ctx, query,
		s.ID(), s.LearnerID(), planID, s.Subject(), s.Title(),
		s.Start(), s.End(), string(s.Status()), s.CreatedAt(), s.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.ID(), err)
	}
	return nil
}

// FindByID returns domain.ErrSessionNotFound when no row matches.
func (r *PostgresSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	row := r.db.QueryRow(ctx, `SELECT `+postgresSessionColumns+` FROM learning_sessions WHERE id = $1`, id)
	session, err := scanPostgresSession(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// FindByLearnerWindow returns sessions intersecting [from, to]. An empty
// statuses list matches every status.
func (r *PostgresSessionRepository) FindByLearnerWindow(
	ctx context.Context,
	learnerID uuid.UUID,
	from, to time.Time,
	statuses []domain.SessionStatus,
) ([]*domain.Session, error) {
	filter := make([]string, len(statuses))
	for i, status := range statuses {
		filter[i] = string(status)
	}

	query := `SELECT ` + postgresSessionColumns + ` FROM learning_sessions
		WHERE learner_id = $1 AND start_time < $2 AND end_time > $3
		  AND (cardinality($4::text[]) = 0 OR status = ANY($4::text[]))
		ORDER BY start_time`
	return r.query(ctx, query, learnerID, to, from, pq.Array(filter))
}

// FindByLearnerRange returns sessions starting in [from, to).
func (r *PostgresSessionRepository) FindByLearnerRange(ctx context.Context, learnerID uuid.UUID, from, to time.Time) ([]*domain.Session, error) {
	query := `SELECT ` + postgresSessionColumns + ` FROM learning_sessions
		WHERE learner_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time`
	return r.query(ctx, query, learnerID, from, to)
}

// UpdateTimes moves a session without touching its other fields.
func (r *PostgresSessionRepository) UpdateTimes(ctx context.Context, id uuid.UUID, start, end time.Time) error {
	if !end.After(start) {
		return domain.ErrInvalidTimeRange
	}
	result, err := r.db.Exec(ctx,
		`UPDATE learning_sessions SET start_time = $2, end_time = $3, updated_at = NOW() WHERE id = $1`,
		id, start, end,
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

func (r *PostgresSessionRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Session, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		session, err := scanPostgresSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func scanPostgresSession(row database.Row) (*domain.Session, error) {
	var (
		f      sessionFields
		planID *uuid.UUID
		status string
	)
	err := row.Scan(&f.id, &f.learnerID, &planID, &f.subject, &f.title,
		&f.start, &f.end, &status, &f.createdAt, &f.updatedAt)
	if err != nil {
		return nil, err
	}
	if planID != nil {
		f.planID = *planID
	}
	if f.status, err = domain.ParseSessionStatus(status); err != nil {
		return nil, err
	}
	return f.session(), nil
}
