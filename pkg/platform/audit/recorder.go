package audit

import (
	"context"
	"log/slog"

	"relief/pkg/platform/middleware/metadata"
	"relief/pkg/requestcontext"
)

// Recorder accepts audit events from domain services. Implementations must
// never block the caller; recording is best-effort from the service's point
// of view, durability is the worker's job.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// ChannelRecorder buffers events on a channel drained by a Worker. Full
// buffer drops the event and logs; domain flows never stall on audit.
type ChannelRecorder struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewChannelRecorder(buffer int, logger *slog.Logger) *ChannelRecorder {
	return &ChannelRecorder{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

func (r *ChannelRecorder) Record(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = metadata.GetClientIP(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = metadata.GetUserAgent(ctx)
	}
	if event.Device == "" {
		event.Device = metadata.GetDevice(ctx)
	}
	select {
	case r.inbox <- event:
	default:
		if r.logger != nil {
			r.logger.WarnContext(ctx, "audit buffer full, dropping event",
				"action", event.Action,
				"category", event.Category,
			)
		}
	}
}

// Inbox exposes the receive side for the worker.
func (r *ChannelRecorder) Inbox() <-chan Event { return r.inbox }

// NopRecorder discards events; useful in tests that don't assert audit.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Event) {}
