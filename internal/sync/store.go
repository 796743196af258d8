// Package sync keeps a client-side view of one event's question list
// consistent with the server while making user actions feel instant. It
// layers optimistic local mutations over a periodic full-list poll, rolling
// back on remote failure and suppressing stale poll data while a mutation is
// in flight.
package sync

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luca-ama/ama/internal/models"
)

// Store is the in-memory cache of one event's question list and the source
// of truth for rendering. All mutations are synchronous and atomic under the
// lock; nothing suspends while holding it, so a poll callback can never
// observe a partial write.
type Store struct {
	mu        sync.Mutex
	questions []models.Question
	index     map[uuid.UUID]int
	inflight  map[uuid.UUID]int // per-question count of outstanding remote mutations
	listeners []func()
	logger    *zap.Logger
}

// NewStore creates an empty question store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		index:    make(map[uuid.UUID]int),
		inflight: make(map[uuid.UUID]int),
		logger:   logger,
	}
}

// Subscribe registers a listener invoked after every visible change
// (re-render hook). Listeners run outside the lock.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// List returns a deep copy of the current question list in render order.
func (s *Store) List() []models.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Question, len(s.questions))
	for i, q := range s.questions {
		out[i] = q.Clone()
	}
	return out
}

// Snapshot returns a deep copy of one entry for rollback, or false if the
// question is not in the store.
func (s *Store) Snapshot(id uuid.UUID) (models.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		s.logger.Debug("snapshot of unknown question", zap.String("question_id", id.String()))
		return models.Question{}, false
	}
	return s.questions[i].Clone(), true
}

// SnapshotAll returns a deep copy of the whole list, used to roll back
// mutations that fan out across questions (staging).
func (s *Store) SnapshotAll() []models.Question {
	return s.List()
}

// Patch applies a partial mutation to one entry. The mutation runs
// synchronously under the lock. A missing id is a silent no-op (logged): the
// server is authoritative on existence, so the entry is treated as already
// deleted. Reports whether the entry was found.
func (s *Store) Patch(id uuid.UUID, mutate func(q *models.Question)) bool {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("patch of unknown question", zap.String("question_id", id.String()))
		return false
	}
	mutate(&s.questions[i])
	if s.questions[i].Upvotes < 0 {
		s.questions[i].Upvotes = 0
	}
	s.mu.Unlock()
	s.notifyListeners()
	return true
}

// RestoreStaged restores only the staged flags from a snapshot list, used to
// roll back a failed stage toggle without clobbering unrelated fields that a
// concurrent mutation may have confirmed in the meantime.
func (s *Store) RestoreStaged(snapshots []models.Question) {
	s.mu.Lock()
	for _, snap := range snapshots {
		if i, ok := s.index[snap.ID]; ok {
			s.questions[i].IsStaged = snap.IsStaged
		}
	}
	s.mu.Unlock()
	s.notifyListeners()
}

// SetStaged applies a staged-flag change to the target and, when staging,
// un-stages every other question in the same atomic update, so the view
// never shows two staged questions even transiently.
func (s *Store) SetStaged(id uuid.UUID, staged bool) bool {
	s.mu.Lock()
	if _, ok := s.index[id]; !ok {
		s.mu.Unlock()
		s.logger.Debug("stage of unknown question", zap.String("question_id", id.String()))
		return false
	}
	s.questions = ApplyStaging(s.questions, id, staged)
	s.reindex()
	s.mu.Unlock()
	s.notifyListeners()
	return true
}

// ReconcileStaged forces the staged flags to match the server's
// authoritative staged question id (nil means nothing staged).
func (s *Store) ReconcileStaged(stagedID *uuid.UUID) {
	s.mu.Lock()
	for i := range s.questions {
		s.questions[i].IsStaged = stagedID != nil && s.questions[i].ID == *stagedID
	}
	s.mu.Unlock()
	s.notifyListeners()
}

// ReplaceAll merges a freshly polled authoritative list. Entries with an
// in-flight mutation keep their local (optimistic) state; everything else is
// replaced wholesale in the server's order. Local in-flight entries missing
// from the server list are kept at the end rather than dropped.
func (s *Store) ReplaceAll(questions []models.Question) {
	s.mu.Lock()
	merged := make([]models.Question, 0, len(questions))
	seen := make(map[uuid.UUID]bool, len(questions))
	for _, q := range questions {
		seen[q.ID] = true
		if s.inflight[q.ID] > 0 {
			if i, ok := s.index[q.ID]; ok {
				merged = append(merged, s.questions[i])
				continue
			}
		}
		merged = append(merged, q.Clone())
	}
	for id := range s.inflight {
		if s.inflight[id] > 0 && !seen[id] {
			if i, ok := s.index[id]; ok {
				merged = append(merged, s.questions[i])
			}
		}
	}
	s.questions = merged
	s.reindex()
	s.mu.Unlock()
	s.notifyListeners()
}

// BeginMutation marks a question as having an outstanding remote mutation,
// which shields it from poll overwrites until EndMutation.
func (s *Store) BeginMutation(id uuid.UUID) {
	s.mu.Lock()
	s.inflight[id]++
	s.mu.Unlock()
}

// EndMutation clears the in-flight mark. Always call via defer so a failed
// remote call never leaves a question permanently shielded from polling.
func (s *Store) EndMutation(id uuid.UUID) {
	s.mu.Lock()
	if s.inflight[id] > 1 {
		s.inflight[id]--
	} else {
		delete(s.inflight, id)
	}
	s.mu.Unlock()
}

// MutationInFlight reports whether any question has an outstanding remote
// mutation. The reconciler discards whole poll results while this is true.
func (s *Store) MutationInFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight) > 0
}

func (s *Store) reindex() {
	s.index = make(map[uuid.UUID]int, len(s.questions))
	for i, q := range s.questions {
		s.index[q.ID] = i
	}
}

func (s *Store) notifyListeners() {
	s.mu.Lock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}
