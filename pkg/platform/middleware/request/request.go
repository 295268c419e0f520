// Package request provides request correlation ID middleware. Every request
// gets an ID, either the one the caller sent or a fresh one, echoed back in
// the response header and available to handlers and services via context.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"relief/pkg/requestcontext"
)

// HeaderName is the request/response header carrying the correlation ID.
const HeaderName = "X-Request-ID"

// Middleware assigns the correlation ID for the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderName)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderName, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the correlation ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
