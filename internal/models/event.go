package models

import (
	"time"

	"github.com/google/uuid"
)

// Event represents an AMA session that questions belong to.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	IsOpen    bool      `json:"is_open"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventStats aggregates question activity for an event dashboard.
type EventStats struct {
	EventID       uuid.UUID `json:"event_id"`
	QuestionCount int       `json:"question_count"`
	AnsweredCount int       `json:"answered_count"`
	VoteCount     int       `json:"vote_count"`
}
