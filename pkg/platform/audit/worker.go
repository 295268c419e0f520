package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from a channel, persists them, and forwards
// compliance events to the publisher when one is configured. It keeps
// background processing testable without wiring queue implementations into
// domain services.
type Worker struct {
	store     Store
	publisher Publisher
	inbox     <-chan Event
	logger    *slog.Logger
}

func NewWorker(store Store, publisher Publisher, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, publisher: publisher, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				if w.logger != nil {
					w.logger.ErrorContext(ctx, "audit append failed",
						"action", event.Action,
						"error", err,
					)
				}
				continue
			}
			if w.publisher != nil && event.Category == CategoryCompliance {
				if err := w.publisher.Publish(ctx, event); err != nil && w.logger != nil {
					w.logger.WarnContext(ctx, "audit publish failed",
						"action", event.Action,
						"error", err,
					)
				}
			}
		}
	}
}
