package models

import (
	"time"

	"github.com/google/uuid"
)

// Question represents an audience question in an AMA event.
//
// Upvotes and HasUserUpvoted are viewer-scoped projections of the normalized
// votes table: Upvotes is the total count, HasUserUpvoted whether the viewing
// user currently contributes one of them.
type Question struct {
	ID             uuid.UUID  `json:"id"`
	EventID        uuid.UUID  `json:"event_id"`
	AuthorID       uuid.UUID  `json:"author_id"`
	AuthorName     string     `json:"author_name,omitempty"`
	Text           string     `json:"text"`
	IsAnonymous    bool       `json:"is_anonymous"`
	Upvotes        int        `json:"upvotes"`
	HasUserUpvoted bool       `json:"has_user_upvoted"`
	IsStarred      bool       `json:"is_starred"`
	IsStaged       bool       `json:"is_staged"`
	IsAnswered     bool       `json:"is_answered"`
	AnsweredBy     *uuid.UUID `json:"answered_by,omitempty"`
	AnsweredAt     *time.Time `json:"answered_at,omitempty"`
	ModeratorNote  string     `json:"moderator_note,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Clone returns a deep copy, including the answered_by/answered_at pointers.
func (q Question) Clone() Question {
	out := q
	if q.AnsweredBy != nil {
		id := *q.AnsweredBy
		out.AnsweredBy = &id
	}
	if q.AnsweredAt != nil {
		at := *q.AnsweredAt
		out.AnsweredAt = &at
	}
	return out
}
