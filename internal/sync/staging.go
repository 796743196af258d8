package sync

import (
	"github.com/google/uuid"

	"github.com/luca-ama/ama/internal/models"
)

// ApplyStaging returns the question list with the target's staged flag set to
// the given value. Staging a question forces is_staged off on every other
// question, so at most one question is ever staged; un-staging touches only
// the target. Pure function over the in-memory list, no I/O.
func ApplyStaging(questions []models.Question, id uuid.UUID, staged bool) []models.Question {
	out := make([]models.Question, len(questions))
	for i, q := range questions {
		switch {
		case q.ID == id:
			q.IsStaged = staged
		case staged:
			q.IsStaged = false
		}
		out[i] = q
	}
	return out
}
