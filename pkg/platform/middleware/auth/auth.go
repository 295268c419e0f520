// Package auth provides JWT bearer-token authentication middleware. The
// claim-derived identity and role land in the request context; the admin
// claim is re-read from the token on every request, never from stored data.
package auth

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"relief/pkg/domain"
	request "relief/pkg/platform/middleware/request"
	"relief/pkg/requestcontext"
)

// Claims is what the middleware needs from a validated token.
type Claims struct {
	UserID string
	Admin  bool
	// AccountCreatedAt feeds the provisioning grace check during session
	// hydration.
	AccountCreatedAt time.Time
}

// Validator validates a raw bearer token.
type Validator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + errCode + `","error_description":"` + errDesc + `"}`))
}

// RequireAuth rejects requests without a valid bearer token and injects the
// authenticated user ID and role into the context.
func RequireAuth(validator Validator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access, missing token",
					"request_id", request.GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access, invalid token",
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithUserID(ctx, domain.UserID(claims.UserID))
			ctx = requestcontext.WithRole(ctx, domain.RoleFromClaim(claims.Admin))
			ctx = requestcontext.WithAccountCreatedAt(ctx, claims.AccountCreatedAt)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
