package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luca-ama/ama/internal/models"
)

// Session identifies the acting user for a view. The capability check runs
// here even though unauthorized controls are expected to be hidden in the UI;
// the core does not trust that.
type Session struct {
	UserID uuid.UUID
	Role   models.Role
}

// CanModerate reports whether the session may star/stage/answer/annotate.
func (s Session) CanModerate() bool { return s.Role.CanModerate() }

// Mutator applies an immediate local state change for a user action, invokes
// the remote operation, and reconciles: on success the optimistic state is
// corrected to the server's canonical fields, on failure the fields the
// action touched are rolled back to the pre-mutation snapshot and a transient
// notification is surfaced. Rollbacks are field-scoped so a different
// mutation on the same question that confirmed while this one was in flight
// is never reverted with it. The local write always happens before the
// remote call is issued, so the view never lags the user's click.
type Mutator struct {
	store   *Store
	backend Backend
	session Session
	notify  Notifier
	logger  *zap.Logger
	now     func() time.Time
}

// NewMutator creates a mutator for one view of an event.
func NewMutator(store *Store, backend Backend, session Session, notify Notifier, logger *zap.Logger) *Mutator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notify == nil {
		notify = LogNotifier{Logger: logger}
	}
	return &Mutator{
		store:   store,
		backend: backend,
		session: session,
		notify:  notify,
		logger:  logger,
		now:     time.Now,
	}
}

// ToggleVote flips the viewer's vote on a question, adjusting the count by
// one in the same local update. On remote failure both fields revert and the
// error is retryable by clicking again; no automatic retry happens here.
func (m *Mutator) ToggleVote(ctx context.Context, id uuid.UUID) error {
	snap, ok := m.store.Snapshot(id)
	if !ok {
		return nil
	}

	m.store.BeginMutation(id)
	defer m.store.EndMutation(id)

	m.store.Patch(id, func(q *models.Question) {
		if q.HasUserUpvoted {
			q.HasUserUpvoted = false
			q.Upvotes--
		} else {
			q.HasUserUpvoted = true
			q.Upvotes++
		}
	})

	res, err := m.backend.ToggleVote(ctx, id)
	if err != nil {
		m.store.Patch(id, func(q *models.Question) {
			q.Upvotes = snap.Upvotes
			q.HasUserUpvoted = snap.HasUserUpvoted
		})
		m.notify.Notify("Could not record your vote. Please try again.")
		m.logger.Warn("vote toggle failed", zap.String("question_id", id.String()), zap.Error(err))
		return err
	}

	m.store.Patch(id, func(q *models.Question) {
		q.Upvotes = res.Upvotes
		q.HasUserUpvoted = res.HasUserUpvoted
	})
	return nil
}

// ToggleStar flips the starred flag. Refused locally without a network call
// when the session lacks the moderate capability.
func (m *Mutator) ToggleStar(ctx context.Context, id uuid.UUID) error {
	if !m.session.CanModerate() {
		return nil
	}
	snap, ok := m.store.Snapshot(id)
	if !ok {
		return nil
	}

	m.store.BeginMutation(id)
	defer m.store.EndMutation(id)

	starred := !snap.IsStarred
	m.store.Patch(id, func(q *models.Question) { q.IsStarred = starred })

	if _, err := m.backend.UpdateQuestion(ctx, id, QuestionUpdate{IsStarred: &starred}); err != nil {
		m.store.Patch(id, func(q *models.Question) { q.IsStarred = snap.IsStarred })
		m.notify.Notify("Could not update the star. Please try again.")
		m.logger.Warn("star toggle failed", zap.String("question_id", id.String()), zap.Error(err))
		return err
	}
	return nil
}

// ToggleStage flips the staged flag. Staging un-stages every other question
// in the same atomic local update before the remote call resolves; the
// server's response then names the authoritative staged question, which wins
// when two moderators raced. On failure the staged flags of every touched
// question revert.
func (m *Mutator) ToggleStage(ctx context.Context, id uuid.UUID) error {
	if !m.session.CanModerate() {
		return nil
	}
	snap, ok := m.store.Snapshot(id)
	if !ok {
		return nil
	}
	all := m.store.SnapshotAll()

	m.store.BeginMutation(id)
	defer m.store.EndMutation(id)

	m.store.SetStaged(id, !snap.IsStaged)

	res, err := m.backend.ToggleStage(ctx, id)
	if err != nil {
		m.store.RestoreStaged(all)
		m.notify.Notify("Could not update the stage. Please try again.")
		m.logger.Warn("stage toggle failed", zap.String("question_id", id.String()), zap.Error(err))
		return err
	}

	m.store.ReconcileStaged(res.StagedID)
	return nil
}

// ToggleAnswer flips the answered flag, stamping answered_by/answered_at
// locally when answering and clearing them when un-answering. The server's
// canonical stamps replace the local ones on success.
func (m *Mutator) ToggleAnswer(ctx context.Context, id uuid.UUID) error {
	if !m.session.CanModerate() {
		return nil
	}
	snap, ok := m.store.Snapshot(id)
	if !ok {
		return nil
	}

	m.store.BeginMutation(id)
	defer m.store.EndMutation(id)

	answered := !snap.IsAnswered
	actor := m.session.UserID
	now := m.now()
	m.store.Patch(id, func(q *models.Question) {
		q.IsAnswered = answered
		if answered {
			q.AnsweredBy = &actor
			q.AnsweredAt = &now
		} else {
			q.AnsweredBy = nil
			q.AnsweredAt = nil
		}
	})

	updated, err := m.backend.UpdateQuestion(ctx, id, QuestionUpdate{IsAnswered: &answered})
	if err != nil {
		// snap is a deep copy, so handing its pointers to the store is safe.
		m.store.Patch(id, func(q *models.Question) {
			q.IsAnswered = snap.IsAnswered
			q.AnsweredBy = snap.AnsweredBy
			q.AnsweredAt = snap.AnsweredAt
		})
		m.notify.Notify("Could not update the answer state. Please try again.")
		m.logger.Warn("answer toggle failed", zap.String("question_id", id.String()), zap.Error(err))
		return err
	}

	m.store.Patch(id, func(q *models.Question) {
		q.IsAnswered = updated.IsAnswered
		q.AnsweredBy = updated.AnsweredBy
		q.AnsweredAt = updated.AnsweredAt
	})
	return nil
}

// SaveNote saves the moderator note (empty text clears it). Deliberately not
// optimistic: losing typed text has a worse failure mode than losing a vote,
// so the store is only patched after the server confirms. On failure the
// caller must keep the typed text in the editor; nothing here reverts it.
func (m *Mutator) SaveNote(ctx context.Context, id uuid.UUID, text string) error {
	if !m.session.CanModerate() {
		return nil
	}
	if _, ok := m.store.Snapshot(id); !ok {
		return nil
	}

	m.store.BeginMutation(id)
	defer m.store.EndMutation(id)

	updated, err := m.backend.UpdateQuestion(ctx, id, QuestionUpdate{ModeratorNote: &text})
	if err != nil {
		m.notify.Notify("Could not save the note. Your text is preserved; please retry.")
		m.logger.Warn("note save failed", zap.String("question_id", id.String()), zap.Error(err))
		return err
	}

	m.store.Patch(id, func(q *models.Question) {
		q.ModeratorNote = updated.ModeratorNote
	})
	return nil
}
