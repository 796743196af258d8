package sync

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-ama/ama/internal/models"
)

func stagedCount(list []models.Question) int {
	n := 0
	for _, q := range list {
		if q.IsStaged {
			n++
		}
	}
	return n
}

func TestApplyStagingUnstagesEveryOtherQuestion(t *testing.T) {
	a := newQuestion(0, false)
	b := newQuestion(0, false)
	b.IsStaged = true
	c := newQuestion(0, false)

	out := ApplyStaging([]models.Question{a, b, c}, a.ID, true)

	require.Len(t, out, 3)
	assert.True(t, out[0].IsStaged)
	assert.False(t, out[1].IsStaged)
	assert.False(t, out[2].IsStaged)
}

func TestApplyStagingUnstageTouchesOnlyTarget(t *testing.T) {
	a := newQuestion(0, false)
	a.IsStaged = true
	b := newQuestion(0, false)

	out := ApplyStaging([]models.Question{a, b}, a.ID, false)

	assert.Equal(t, 0, stagedCount(out))
	assert.Equal(t, b.IsStaged, out[1].IsStaged)
}

func TestApplyStagingDoesNotMutateInput(t *testing.T) {
	a := newQuestion(0, false)
	b := newQuestion(0, false)
	in := []models.Question{a, b}

	_ = ApplyStaging(in, a.ID, true)

	assert.False(t, in[0].IsStaged)
}

func TestApplyStagingInvariantUnderRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	list := []models.Question{newQuestion(0, false), newQuestion(0, false), newQuestion(0, false), newQuestion(0, false)}

	for i := 0; i < 200; i++ {
		target := list[rng.Intn(len(list))].ID
		list = ApplyStaging(list, target, rng.Intn(2) == 0)
		assert.LessOrEqual(t, stagedCount(list), 1)
	}
}
