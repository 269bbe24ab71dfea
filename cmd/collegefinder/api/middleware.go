package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader is set on every response.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// requestID tags each request with a fresh uuid, echoed in RequestIDHeader.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
