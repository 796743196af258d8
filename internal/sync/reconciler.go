package sync

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reconciler periodically refetches the event's authoritative question list
// and merges it into the store, so actions taken in other views of the same
// event eventually become visible.
//
// A poll result is discarded in its entirety while any local mutation is in
// flight: the poll's snapshot was fetched before that mutation's remote call
// resolved, and merging it would visibly undo the user's own pending change.
// The in-flight set is checked both before the fetch and again after it, in
// case a mutation started while the fetch was outstanding.
type Reconciler struct {
	store    *Store
	backend  Backend
	eventID  uuid.UUID
	interval time.Duration
	idle     time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	lastTyped time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewReconciler creates a reconciler for one event view. interval is the
// poll period; idle is the quiet period after a keystroke before polling
// resumes.
func NewReconciler(store *Store, backend Backend, eventID uuid.UUID, interval, idle time.Duration, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		store:    store,
		backend:  backend,
		eventID:  eventID,
		interval: interval,
		idle:     idle,
		logger:   logger,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start launches the polling loop. The loop stops when ctx is canceled or
// Stop is called (view teardown), so no timer outlives its view. Only the
// first call starts a loop; later calls are no-ops.
func (r *Reconciler) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		ctx, r.cancel = context.WithCancel(ctx)
		go func() {
			defer close(r.done)
			ticker := time.NewTicker(r.interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					r.pollOnce(ctx)
				}
			}
		}()
	})
}

// Stop cancels the polling loop and waits for it to exit.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() {
		if r.cancel != nil {
			r.cancel()
			<-r.done
		}
	})
}

// NoteTyping records a keystroke in the question-composition field. Polling
// pauses while the user is actively typing and resumes after the idle
// period, so the list does not reorder mid-type.
func (r *Reconciler) NoteTyping() {
	r.mu.Lock()
	r.lastTyped = r.now()
	r.mu.Unlock()
}

func (r *Reconciler) typing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.lastTyped.IsZero() && r.now().Sub(r.lastTyped) < r.idle
}

func (r *Reconciler) pollOnce(ctx context.Context) {
	if r.typing() {
		r.logger.Debug("poll skipped: user typing")
		return
	}
	if r.store.MutationInFlight() {
		r.logger.Debug("poll skipped: mutation in flight")
		return
	}

	questions, err := r.backend.FetchQuestions(ctx, r.eventID)
	if err != nil {
		r.logger.Warn("poll failed", zap.String("event_id", r.eventID.String()), zap.Error(err))
		return
	}

	// The fetch itself suspends; a mutation may have started meanwhile, in
	// which case this snapshot is stale and must be discarded whole.
	if r.store.MutationInFlight() {
		r.logger.Debug("poll discarded: mutation started during fetch")
		return
	}
	r.store.ReplaceAll(questions)
}
