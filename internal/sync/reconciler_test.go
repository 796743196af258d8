package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-ama/ama/internal/models"
)

func TestPollAppliesAuthoritativeList(t *testing.T) {
	q := newQuestion(2, false)
	store := newStoreWith(q)

	fresh := q.Clone()
	fresh.Upvotes = 4
	backend := &fakeBackend{fetchResult: []models.Question{fresh}}
	r := NewReconciler(store, backend, q.EventID, 10*time.Second, 2*time.Second, nil)

	r.pollOnce(context.Background())

	got, _ := store.Snapshot(q.ID)
	assert.Equal(t, 4, got.Upvotes)
}

func TestPollDiscardedWhileMutationInFlight(t *testing.T) {
	q := newQuestion(0, false)
	q.IsStaged = false
	store := newStoreWith(q)

	// Optimistic stage is pending for q.
	store.BeginMutation(q.ID)
	defer store.EndMutation(q.ID)
	store.SetStaged(q.ID, true)

	stale := q.Clone() // fetched before the stage call resolved
	stale.IsStaged = false
	backend := &fakeBackend{fetchResult: []models.Question{stale}}
	r := NewReconciler(store, backend, q.EventID, 10*time.Second, 2*time.Second, nil)

	r.pollOnce(context.Background())

	assert.Equal(t, 0, backend.fetchCalls, "poll skipped entirely while a mutation is in flight")
	got, _ := store.Snapshot(q.ID)
	assert.True(t, got.IsStaged, "stale poll must not clobber the optimistic value")
}

func TestPollDiscardedWhenMutationStartsDuringFetch(t *testing.T) {
	q := newQuestion(5, false)
	store := newStoreWith(q)

	stale := q.Clone()
	backend := &fakeBackend{fetchResult: []models.Question{stale}}
	backend.onFetch = func() {
		// A vote begins while the fetch is outstanding.
		store.BeginMutation(q.ID)
		store.Patch(q.ID, func(live *models.Question) {
			live.Upvotes = 6
			live.HasUserUpvoted = true
		})
	}
	r := NewReconciler(store, backend, q.EventID, 10*time.Second, 2*time.Second, nil)

	r.pollOnce(context.Background())
	store.EndMutation(q.ID)

	got, _ := store.Snapshot(q.ID)
	assert.Equal(t, 6, got.Upvotes)
	assert.True(t, got.HasUserUpvoted)
}

func TestPollPausesWhileTyping(t *testing.T) {
	q := newQuestion(0, false)
	store := newStoreWith(q)
	backend := &fakeBackend{fetchResult: []models.Question{q}}
	r := NewReconciler(store, backend, q.EventID, 10*time.Second, 2*time.Second, nil)

	now := time.Unix(3000, 0)
	r.now = func() time.Time { return now }

	r.NoteTyping()
	r.pollOnce(context.Background())
	assert.Equal(t, 0, backend.fetchCalls, "poll paused while typing")

	now = now.Add(2500 * time.Millisecond)
	r.pollOnce(context.Background())
	assert.Equal(t, 1, backend.fetchCalls, "poll resumed after idle period")
}

func TestPollFailureLeavesStoreUntouched(t *testing.T) {
	q := newQuestion(3, false)
	store := newStoreWith(q)
	backend := &fakeBackend{fetchErr: errRemote}
	r := NewReconciler(store, backend, q.EventID, 10*time.Second, 2*time.Second, nil)

	r.pollOnce(context.Background())

	got, ok := store.Snapshot(q.ID)
	require.True(t, ok)
	assert.Equal(t, 3, got.Upvotes)
}

func TestStopCancelsPollingLoop(t *testing.T) {
	q := newQuestion(0, false)
	store := newStoreWith(q)
	backend := &fakeBackend{fetchResult: []models.Question{q}}
	r := NewReconciler(store, backend, q.EventID, 10*time.Millisecond, 2*time.Second, nil)

	r.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	r.Stop()

	backend.mu.Lock()
	calls := backend.fetchCalls
	backend.mu.Unlock()
	assert.Greater(t, calls, 0)

	time.Sleep(50 * time.Millisecond)
	backend.mu.Lock()
	after := backend.fetchCalls
	backend.mu.Unlock()
	assert.Equal(t, calls, after, "no polls after Stop")
}

func TestStartTwiceRunsSingleLoop(t *testing.T) {
	q := newQuestion(0, false)
	store := newStoreWith(q)
	backend := &fakeBackend{fetchResult: []models.Question{q}}
	r := NewReconciler(store, backend, q.EventID, 10*time.Millisecond, 2*time.Second, nil)

	r.Start(context.Background())
	r.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	r.Stop()

	// The single loop Stop cancels is the only one polling; a leaked second
	// loop would keep incrementing the count.
	backend.mu.Lock()
	calls := backend.fetchCalls
	backend.mu.Unlock()

	time.Sleep(50 * time.Millisecond)
	backend.mu.Lock()
	after := backend.fetchCalls
	backend.mu.Unlock()
	assert.Equal(t, calls, after)
}

func TestStopIsIdempotent(t *testing.T) {
	q := newQuestion(0, false)
	store := newStoreWith(q)
	backend := &fakeBackend{fetchResult: []models.Question{q}}
	r := NewReconciler(store, backend, q.EventID, time.Hour, 2*time.Second, nil)

	r.Start(context.Background())
	r.Stop()
	r.Stop()
}
