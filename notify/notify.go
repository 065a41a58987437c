// Copyright (c) 2025 BVK Chaitanya

// Package notify sends short text notifications about order activity to the
// configured receivers.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type Notifier interface {
	SendMessage(ctx context.Context, at time.Time, msg string) error
}

// Multi sends every message to all notifiers. Failures are logged and
// returned together.
type Multi []Notifier

func (m Multi) SendMessage(ctx context.Context, at time.Time, msg string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.SendMessage(ctx, at, msg); err != nil {
			slog.Warn("could not send notification (ignored)", "message", msg, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard is a notifier that drops all messages.
var Discard Notifier = discard{}

type discard struct{}

func (discard) SendMessage(context.Context, time.Time, string) error {
	return nil
}
