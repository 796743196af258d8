package events

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luca-ama/ama/internal/models"
)

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new event.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (id, title, starts_at, ends_at, is_open, created_by)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, e.Title, e.StartsAt, e.EndsAt, e.IsOpen, e.CreatedBy).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID returns an event by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	const q = `SELECT id, title, starts_at, ends_at, is_open, created_by, created_at, updated_at
		FROM events WHERE id = $1`
	var e models.Event
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&e.ID, &e.Title, &e.StartsAt, &e.EndsAt, &e.IsOpen, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns all events, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, title, starts_at, ends_at, is_open, created_by, created_at, updated_at
		FROM events ORDER BY starts_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.StartsAt, &e.EndsAt, &e.IsOpen, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// SetOpen opens or closes an event for new questions.
func (r *Repository) SetOpen(ctx context.Context, id uuid.UUID, open bool) error {
	const q = `UPDATE events SET is_open = $2, updated_at = now() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, open)
	return err
}

// Stats returns aggregate question activity for an event.
func (r *Repository) Stats(ctx context.Context, id uuid.UUID) (*models.EventStats, error) {
	const q = `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE is_answered),
		COALESCE((SELECT COUNT(*) FROM votes v JOIN questions q ON q.id = v.question_id WHERE q.event_id = $1), 0)
		FROM questions WHERE event_id = $1`
	s := models.EventStats{EventID: id}
	err := r.pool.QueryRow(ctx, q, id).Scan(&s.QuestionCount, &s.AnsweredCount, &s.VoteCount)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
