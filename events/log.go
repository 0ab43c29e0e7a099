package events

import (
	"context"
	"log/slog"
)

// LogPublisher records events in the application log when no broker is
// configured.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, e Event) error {
	l := p.Logger
	if l == nil {
		l = slog.Default()
	}
	l.InfoContext(ctx, "event", "type", e.Type, "key", e.Key, "payload", string(e.Payload))
	return nil
}

func (LogPublisher) Close() error { return nil }
