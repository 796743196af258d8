package sync

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Serializer collapses rapid duplicate invocations of the same logical
// action (same kind + same question id) into a single effective call, so a
// double-click cannot fire a mutation twice before the first optimistic
// update has changed the button state. It only tracks call frequency; it
// knows nothing about whether the underlying action succeeds.
type Serializer struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
	logger *zap.Logger
}

// NewSerializer creates a serializer with the given dedup window.
func NewSerializer(window time.Duration, logger *zap.Logger) *Serializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Serializer{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
		logger: logger,
	}
}

// Accept reports whether the action should proceed. A key accepted within
// the window is dropped silently (logged only) and not recorded again, so
// the window is measured from the last accepted call.
func (s *Serializer) Accept(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if last, ok := s.last[key]; ok && now.Sub(last) < s.window {
		s.logger.Debug("duplicate action dropped", zap.String("action", key))
		return false
	}
	s.last[key] = now
	return true
}
