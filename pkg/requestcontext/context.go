// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Values are typically set by middleware (or by the session layer for
// non-HTTP callers) and consumed by services. The package stays free of
// net/http so services can import it without pulling transport code.
//
// Usage in services (read values):
//
//	uid := requestcontext.UserID(ctx)
//	role := requestcontext.Role(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithRole(ctx, domain.RoleAdmin)
package requestcontext

import (
	"context"
	"time"

	"relief/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	userIDKey         struct{}
	roleKey           struct{}
	accountCreatedKey struct{}
	fundCodeKey       struct{}
	requestIDKey      struct{}
	requestTimeKey    struct{}
)

// UserID retrieves the authenticated user ID from the context.
func UserID(ctx context.Context) domain.UserID {
	if uid, ok := ctx.Value(userIDKey{}).(domain.UserID); ok {
		return uid
	}
	return ""
}

// WithUserID injects a user ID into the context.
func WithUserID(ctx context.Context, uid domain.UserID) context.Context {
	return context.WithValue(ctx, userIDKey{}, uid)
}

// Role retrieves the role derived from the authorization claim. Defaults to
// RoleUser: absence of a claim never grants admin.
func Role(ctx context.Context) domain.Role {
	if role, ok := ctx.Value(roleKey{}).(domain.Role); ok {
		return role
	}
	return domain.RoleUser
}

// WithRole injects the claim-derived role into the context.
func WithRole(ctx context.Context, role domain.Role) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

// FundCode retrieves the caller's active fund code, when one is known.
func FundCode(ctx context.Context) domain.FundCode {
	if code, ok := ctx.Value(fundCodeKey{}).(domain.FundCode); ok {
		return code
	}
	return ""
}

// WithFundCode injects the active fund code into the context.
func WithFundCode(ctx context.Context, code domain.FundCode) context.Context {
	return context.WithValue(ctx, fundCodeKey{}, code)
}

// AccountCreatedAt retrieves the account creation time carried by the auth
// claims. Zero when the token did not carry one.
func AccountCreatedAt(ctx context.Context) time.Time {
	if t, ok := ctx.Value(accountCreatedKey{}).(time.Time); ok {
		return t
	}
	return time.Time{}
}

// WithAccountCreatedAt injects the account creation time into the context.
func WithAccountCreatedAt(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, accountCreatedKey{}, t)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts (workers, CLI, tests without injection).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests and for batch work that needs one consistent timestamp.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
