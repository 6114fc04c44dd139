// Package notify defines the fire-and-forget notification sink consumed by
// the services. The core pipeline behaves identically whether or not a sink
// is attached.
package notify

import "go.uber.org/zap"

// Notifier receives user-facing success/error/info signals.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

// Nop is a Notifier that discards everything.
type Nop struct{}

func (Nop) Success(string) {}
func (Nop) Error(string)   {}
func (Nop) Info(string)    {}

// ZapNotifier forwards notifications to a zap logger.
type ZapNotifier struct {
	log *zap.Logger
}

// NewZapNotifier creates a Notifier backed by the given logger.
func NewZapNotifier(log *zap.Logger) *ZapNotifier {
	return &ZapNotifier{log: log}
}

func (n *ZapNotifier) Success(msg string) { n.log.Info(msg, zap.String("kind", "success")) }
func (n *ZapNotifier) Error(msg string)   { n.log.Warn(msg, zap.String("kind", "error")) }
func (n *ZapNotifier) Info(msg string)    { n.log.Info(msg, zap.String("kind", "info")) }

// Notify-or-ignore helpers: services hold a possibly-nil Notifier and these
// keep the nil checks out of the call sites.

// Success sends a success signal if n is non-nil.
func Success(n Notifier, msg string) {
	if n != nil {
		n.Success(msg)
	}
}

// Error sends an error signal if n is non-nil.
func Error(n Notifier, msg string) {
	if n != nil {
		n.Error(msg)
	}
}

// Info sends an info signal if n is non-nil.
func Info(n Notifier, msg string) {
	if n != nil {
		n.Info(msg)
	}
}
