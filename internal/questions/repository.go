package questions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luca-ama/ama/internal/models"
)

// Repository handles question and vote persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a questions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const questionColumns = `q.id, q.event_id, q.author_id,
	CASE WHEN q.is_anonymous THEN '' ELSE u.full_name END,
	q.text, q.is_anonymous, q.is_starred, q.is_staged, q.is_answered,
	q.answered_by, q.answered_at, q.moderator_note, q.created_at,
	(SELECT COUNT(*) FROM votes v WHERE v.question_id = q.id),
	EXISTS (SELECT 1 FROM votes v WHERE v.question_id = q.id AND v.user_id = $2)`

func scanQuestion(row pgx.Row) (*models.Question, error) {
	var q models.Question
	err := row.Scan(&q.ID, &q.EventID, &q.AuthorID, &q.AuthorName,
		&q.Text, &q.IsAnonymous, &q.IsStarred, &q.IsStaged, &q.IsAnswered,
		&q.AnsweredBy, &q.AnsweredAt, &q.ModeratorNote, &q.CreatedAt,
		&q.Upvotes, &q.HasUserUpvoted)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListByEvent returns the event's questions ordered by upvotes desc with
// created_at as the stable tiebreaker. Vote fields are scoped to viewerID.
func (r *Repository) ListByEvent(ctx context.Context, eventID, viewerID uuid.UUID) ([]models.Question, error) {
	query := `SELECT ` + questionColumns + `
		FROM questions q JOIN users u ON u.id = q.author_id
		WHERE q.event_id = $1
		ORDER BY (SELECT COUNT(*) FROM votes v WHERE v.question_id = q.id) DESC, q.created_at ASC`
	rows, err := r.pool.Query(ctx, query, eventID, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *q)
	}
	return list, rows.Err()
}

// GetByID returns a question with vote fields scoped to viewerID.
func (r *Repository) GetByID(ctx context.Context, id, viewerID uuid.UUID) (*models.Question, error) {
	query := `SELECT ` + questionColumns + `
		FROM questions q JOIN users u ON u.id = q.author_id
		WHERE q.id = $1`
	return scanQuestion(r.pool.QueryRow(ctx, query, id, viewerID))
}

// Create inserts a new question.
func (r *Repository) Create(ctx context.Context, q *models.Question) error {
	const query = `INSERT INTO questions (id, event_id, author_id, text, is_anonymous)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, q.EventID, q.AuthorID, q.Text, q.IsAnonymous).
		Scan(&q.ID, &q.CreatedAt)
}

// ToggleVote removes the user's vote if present, otherwise adds it.
// Returns the resulting vote count and whether the user now has a vote.
func (r *Repository) ToggleVote(ctx context.Context, questionID, userID uuid.UUID) (upvotes int, voted bool, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM votes WHERE question_id = $1 AND user_id = $2`, questionID, userID)
	if err != nil {
		return 0, false, err
	}
	if tag.RowsAffected() == 0 {
		if _, err := tx.Exec(ctx, `INSERT INTO votes (question_id, user_id) VALUES ($1, $2)`, questionID, userID); err != nil {
			return 0, false, err
		}
		voted = true
	}

	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM votes WHERE question_id = $1`, questionID).Scan(&upvotes); err != nil {
		return 0, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, false, err
	}
	return upvotes, voted, nil
}

// UpdateParams holds the optional fields of a partial question update.
// AnsweredBy is stamped from the acting moderator when Answered flips to true.
type UpdateParams struct {
	IsStarred     *bool
	IsAnswered    *bool
	ModeratorNote *string
}

// UpdateFields applies a partial update of starred/answered/note in one
// transaction, so a mid-sequence failure never leaves the patch half applied.
// Answering stamps answered_by/answered_at; un-answering clears them.
func (r *Repository) UpdateFields(ctx context.Context, id, actorID uuid.UUID, p UpdateParams) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if p.IsStarred != nil {
		if _, err := tx.Exec(ctx, `UPDATE questions SET is_starred = $2 WHERE id = $1`, id, *p.IsStarred); err != nil {
			return err
		}
	}
	if p.IsAnswered != nil {
		if *p.IsAnswered {
			if _, err := tx.Exec(ctx,
				`UPDATE questions SET is_answered = TRUE, answered_by = $2, answered_at = $3 WHERE id = $1`,
				id, actorID, time.Now()); err != nil {
				return err
			}
		} else {
			if _, err := tx.Exec(ctx,
				`UPDATE questions SET is_answered = FALSE, answered_by = NULL, answered_at = NULL WHERE id = $1`,
				id); err != nil {
				return err
			}
		}
	}
	if p.ModeratorNote != nil {
		if _, err := tx.Exec(ctx, `UPDATE questions SET moderator_note = $2 WHERE id = $1`, id, *p.ModeratorNote); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ToggleStage flips the question's staged flag. Staging un-stages every other
// question in the event inside the same transaction, so the single-staged
// invariant holds at every commit point. Returns the id of the question that
// is staged after the toggle, if any.
func (r *Repository) ToggleStage(ctx context.Context, questionID uuid.UUID) (stagedID *uuid.UUID, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var eventID uuid.UUID
	var isStaged bool
	if err := tx.QueryRow(ctx,
		`SELECT event_id, is_staged FROM questions WHERE id = $1 FOR UPDATE`, questionID).
		Scan(&eventID, &isStaged); err != nil {
		return nil, err
	}

	if isStaged {
		if _, err := tx.Exec(ctx, `UPDATE questions SET is_staged = FALSE WHERE id = $1`, questionID); err != nil {
			return nil, err
		}
	} else {
		if _, err := tx.Exec(ctx, `UPDATE questions SET is_staged = FALSE WHERE event_id = $1 AND is_staged`, eventID); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `UPDATE questions SET is_staged = TRUE WHERE id = $1`, questionID); err != nil {
			return nil, err
		}
		stagedID = &questionID
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return stagedID, nil
}

// StagedQuestion returns the id of the event's currently staged question, or
// nil when none is staged. Used to report the authoritative winner after
// concurrent stage toggles.
func (r *Repository) StagedQuestion(ctx context.Context, eventID uuid.UUID) (*uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM questions WHERE event_id = $1 AND is_staged`, eventID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}
