package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relief/pkg/domain"
	"relief/pkg/platform/middleware/metadata"
	"relief/pkg/requestcontext"
)

const chromeUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

func TestChannelRecorderStamping(t *testing.T) {
	record := func(t *testing.T, ctx context.Context, ev Event) Event {
		t.Helper()
		r := NewChannelRecorder(1, nil)
		r.Record(ctx, ev)
		select {
		case got := <-r.Inbox():
			return got
		default:
			t.Fatal("event was not buffered")
			return Event{}
		}
	}

	t.Run("client metadata from the request context lands on the event", func(t *testing.T) {
		ctx := metadata.WithClientMetadata(context.Background(), "203.0.113.9", chromeUA)
		got := record(t, ctx, Event{
			Category: CategorySecurity,
			UserID:   domain.UserID("user-1"),
			Action:   "lockout_entered",
		})
		assert.Equal(t, "203.0.113.9", got.ClientIP)
		assert.Equal(t, chromeUA, got.UserAgent)
		assert.Contains(t, got.Device, "Chrome")
	})

	t.Run("time and request id come from the context when unset", func(t *testing.T) {
		now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(context.Background(), now)
		ctx = requestcontext.WithRequestID(ctx, "req-42")
		got := record(t, ctx, Event{Action: "application_submitted"})
		assert.Equal(t, now, got.Timestamp)
		assert.Equal(t, "req-42", got.RequestID)
	})

	t.Run("explicit fields win over the context", func(t *testing.T) {
		ctx := metadata.WithClientMetadata(context.Background(), "203.0.113.9", chromeUA)
		got := record(t, ctx, Event{Action: "session_integrity_signout", ClientIP: "10.0.0.1"})
		assert.Equal(t, "10.0.0.1", got.ClientIP)
	})

	t.Run("full buffer drops without blocking", func(t *testing.T) {
		r := NewChannelRecorder(1, nil)
		r.Record(context.Background(), Event{Action: "first"})
		r.Record(context.Background(), Event{Action: "second"})
		got := <-r.Inbox()
		require.Equal(t, "first", got.Action)
		select {
		case ev := <-r.Inbox():
			t.Fatalf("unexpected buffered event %q", ev.Action)
		default:
		}
	})
}
