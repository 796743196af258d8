package sync

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-ama/ama/internal/models"
)

func TestPatchUnknownQuestionIsNoOp(t *testing.T) {
	s := newStoreWith(newQuestion(0, false))

	called := false
	ok := s.Patch(uuid.New(), func(q *models.Question) { called = true })

	assert.False(t, ok)
	assert.False(t, called)
	assert.Len(t, s.List(), 1)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	q := newQuestion(3, false)
	actor := uuid.New()
	at := time.Now()
	q.AnsweredBy = &actor
	q.AnsweredAt = &at
	s := newStoreWith(q)

	snap, ok := s.Snapshot(q.ID)
	require.True(t, ok)

	// Mutating the live entry must not reach the snapshot.
	s.Patch(q.ID, func(live *models.Question) {
		live.Upvotes = 99
		*live.AnsweredBy = uuid.New()
	})

	assert.Equal(t, 3, snap.Upvotes)
	assert.Equal(t, actor, *snap.AnsweredBy)
}

func TestPatchClampsUpvotesAtZero(t *testing.T) {
	q := newQuestion(0, false)
	s := newStoreWith(q)

	s.Patch(q.ID, func(live *models.Question) { live.Upvotes-- })

	got, ok := s.Snapshot(q.ID)
	require.True(t, ok)
	assert.Equal(t, 0, got.Upvotes)
}

func TestReplaceAllPreservesInFlightEntries(t *testing.T) {
	q := newQuestion(5, false)
	s := newStoreWith(q)

	s.BeginMutation(q.ID)
	defer s.EndMutation(q.ID)
	s.Patch(q.ID, func(live *models.Question) {
		live.Upvotes = 6
		live.HasUserUpvoted = true
	})

	stale := q.Clone() // still carries upvotes=5 from before the mutation
	s.ReplaceAll([]models.Question{stale})

	got, ok := s.Snapshot(q.ID)
	require.True(t, ok)
	assert.Equal(t, 6, got.Upvotes)
	assert.True(t, got.HasUserUpvoted)
}

func TestReplaceAllKeepsInFlightEntryMissingFromServer(t *testing.T) {
	q := newQuestion(2, false)
	other := newQuestion(1, false)
	s := newStoreWith(q, other)

	s.BeginMutation(q.ID)
	defer s.EndMutation(q.ID)

	s.ReplaceAll([]models.Question{other})

	_, ok := s.Snapshot(q.ID)
	assert.True(t, ok, "in-flight entry should survive a poll that omits it")
	assert.Len(t, s.List(), 2)
}

func TestReplaceAllAdoptsServerOrder(t *testing.T) {
	a := newQuestion(1, false)
	b := newQuestion(9, false)
	s := newStoreWith(a, b)

	s.ReplaceAll([]models.Question{b, a})

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)
}

func TestEndMutationAlwaysClearsInFlight(t *testing.T) {
	q := newQuestion(0, false)
	s := newStoreWith(q)

	s.BeginMutation(q.ID)
	s.BeginMutation(q.ID)
	assert.True(t, s.MutationInFlight())

	s.EndMutation(q.ID)
	assert.True(t, s.MutationInFlight())
	s.EndMutation(q.ID)
	assert.False(t, s.MutationInFlight())
}

func TestSubscribeFiresOnChange(t *testing.T) {
	q := newQuestion(0, false)
	s := newStoreWith(q)

	var renders int
	s.Subscribe(func() { renders++ })

	s.Patch(q.ID, func(live *models.Question) { live.IsStarred = true })
	s.ReplaceAll([]models.Question{q})

	assert.Equal(t, 2, renders)
}
