package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSerializerDropsDuplicateWithinWindow(t *testing.T) {
	s := NewSerializer(time.Second, nil)
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	assert.True(t, s.Accept("vote:q1"))
	now = now.Add(300 * time.Millisecond)
	assert.False(t, s.Accept("vote:q1"))
}

func TestSerializerAcceptsAfterWindow(t *testing.T) {
	s := NewSerializer(time.Second, nil)
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	assert.True(t, s.Accept("vote:q1"))
	now = now.Add(1100 * time.Millisecond)
	assert.True(t, s.Accept("vote:q1"))
}

func TestSerializerKeysAreIndependent(t *testing.T) {
	s := NewSerializer(time.Second, nil)
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	assert.True(t, s.Accept("vote:q1"))
	assert.True(t, s.Accept("vote:q2"))
	assert.True(t, s.Accept("star:q1"))
}

func TestSerializerWindowMeasuredFromLastAccepted(t *testing.T) {
	s := NewSerializer(time.Second, nil)
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	assert.True(t, s.Accept("vote:q1"))
	// A storm of clicks inside the window never extends it.
	for i := 0; i < 5; i++ {
		now = now.Add(150 * time.Millisecond)
		s.Accept("vote:q1")
	}
	now = now.Add(300 * time.Millisecond) // 1.05s after the accepted call
	assert.True(t, s.Accept("vote:q1"))
}
