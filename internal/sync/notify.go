package sync

import "go.uber.org/zap"

// Notifier surfaces transient, dismissable messages to the user when a
// remote call fails. Failures are never fatal: the optimistic state is
// rolled back and the user may retry immediately.
type Notifier interface {
	Notify(message string)
}

// LogNotifier is a Notifier that writes to the logger. Useful for headless
// embedders and as a default.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) Notify(message string) {
	n.Logger.Warn("user notification", zap.String("message", message))
}

// NotifyFunc adapts a function to the Notifier interface.
type NotifyFunc func(message string)

func (f NotifyFunc) Notify(message string) { f(message) }
