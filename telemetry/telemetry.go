/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package telemetry

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventFirstEntry is sent the first time an entry of a model is created.
const EventFirstEntry = "didCreateFirstContentTypeEntry"

// Event is one usage signal.
type Event struct {
	Name  string `json:"event"`
	Model string `json:"model"`
}

// Sender delivers events.
type Sender interface {
	Send(ctx context.Context, ev Event) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, ev Event) error

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Notifier sends EventFirstEntry for a model's first entry. The caller
// decides that an entry is the first; the Notifier only drops repeats for
// the life of the process.
type Notifier struct {
	sender Sender
	logger *zap.Logger
	seen   sync.Map
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithLogger sets the logger used for delivery failures.
func WithLogger(l *zap.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.logger = l
		}
	}
}

// NewNotifier creates a Notifier delivering through sender.
func NewNotifier(sender Sender, opts ...Option) *Notifier {
	n := &Notifier{sender: sender, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// EntryCreated records a created entry of model. A failed delivery is logged
// and allows a later entry to retry.
func (n *Notifier) EntryCreated(ctx context.Context, model string) {
	if _, loaded := n.seen.LoadOrStore(model, struct{}{}); loaded {
		return
	}
	ev := Event{Name: EventFirstEntry, Model: model}
	if err := n.sender.Send(ctx, ev); err != nil {
		n.seen.Delete(model)
		n.logger.Warn("telemetry delivery failed",
			zap.String("event", ev.Name),
			zap.String("model", model),
			zap.Error(err))
	}
}

// LogSender writes events to a zap logger.
func LogSender(l *zap.Logger) Sender {
	return SenderFunc(func(_ context.Context, ev Event) error {
		l.Info("telemetry", zap.String("event", ev.Name), zap.String("model", ev.Model))
		return nil
	})
}
