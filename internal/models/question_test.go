package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCloneCopiesAnsweredPointers(t *testing.T) {
	actor := uuid.New()
	at := time.Now()
	q := Question{ID: uuid.New(), AnsweredBy: &actor, AnsweredAt: &at}

	c := q.Clone()
	wantActor := actor
	wantAt := at

	// Writing through the original's pointers must not reach the clone.
	*q.AnsweredBy = uuid.New()
	*q.AnsweredAt = at.Add(time.Hour)

	assert.Equal(t, wantActor, *c.AnsweredBy)
	assert.True(t, c.AnsweredAt.Equal(wantAt))
}

func TestRoleCanModerate(t *testing.T) {
	assert.True(t, RoleAdmin.CanModerate())
	assert.True(t, RoleModerator.CanModerate())
	assert.True(t, RolePresenter.CanModerate())
	assert.False(t, RoleUser.CanModerate())
	assert.False(t, Role("guest").CanModerate())
}
