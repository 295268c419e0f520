// Package admin gates routes on the claim-derived admin role. Must run after
// auth.RequireAuth in the chain.
package admin

import (
	"log/slog"
	"net/http"

	request "relief/pkg/platform/middleware/request"
	"relief/pkg/requestcontext"
)

// RequireAdmin rejects requests whose token did not carry the admin claim.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !requestcontext.Role(ctx).IsAdmin() {
				logger.WarnContext(ctx, "admin route denied",
					"user_id", requestcontext.UserID(ctx),
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"admin role required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
