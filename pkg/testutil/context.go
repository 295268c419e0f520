package testutil

import (
	"context"
	"time"

	"relief/pkg/domain"
	"relief/pkg/requestcontext"
)

// AuthedContext builds a context carrying an authenticated user, their
// claim-derived role, and a fixed request time. Mirrors what the HTTP
// middleware chain produces so service tests skip the transport layer.
func AuthedContext(uid domain.UserID, role domain.Role, now time.Time) context.Context {
	ctx := context.Background()
	ctx = requestcontext.WithUserID(ctx, uid)
	ctx = requestcontext.WithRole(ctx, role)
	ctx = requestcontext.WithTime(ctx, now)
	return ctx
}
