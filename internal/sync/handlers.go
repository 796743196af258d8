package sync

import (
	"context"

	"github.com/google/uuid"
)

// Handlers is the action surface the UI layer wires its controls to. Every
// action passes through the serializer first, so rapid duplicate invocations
// of the same logical action are dropped before they reach the mutator.
type Handlers struct {
	serializer *Serializer
	mutator    *Mutator
}

// NewHandlers wires the serializer in front of the mutator.
func NewHandlers(serializer *Serializer, mutator *Mutator) *Handlers {
	return &Handlers{serializer: serializer, mutator: mutator}
}

// OnVote handles a vote-button click.
func (h *Handlers) OnVote(ctx context.Context, id uuid.UUID) error {
	if !h.serializer.Accept("vote:" + id.String()) {
		return nil
	}
	return h.mutator.ToggleVote(ctx, id)
}

// OnStar handles a star-button click.
func (h *Handlers) OnStar(ctx context.Context, id uuid.UUID) error {
	if !h.serializer.Accept("star:" + id.String()) {
		return nil
	}
	return h.mutator.ToggleStar(ctx, id)
}

// OnStage handles a stage-button click.
func (h *Handlers) OnStage(ctx context.Context, id uuid.UUID) error {
	if !h.serializer.Accept("stage:" + id.String()) {
		return nil
	}
	return h.mutator.ToggleStage(ctx, id)
}

// OnAnswer handles an answer-button click.
func (h *Handlers) OnAnswer(ctx context.Context, id uuid.UUID) error {
	if !h.serializer.Accept("answer:" + id.String()) {
		return nil
	}
	return h.mutator.ToggleAnswer(ctx, id)
}

// OnSaveNote handles saving the moderator note editor. Note saves are not
// debounced by key: saving twice quickly is two saves of (possibly) different
// text, and last-write-wins is the intended semantics.
func (h *Handlers) OnSaveNote(ctx context.Context, id uuid.UUID, text string) error {
	return h.mutator.SaveNote(ctx, id, text)
}
