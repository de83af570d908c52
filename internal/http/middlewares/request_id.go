package middlewares

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/snapcal/registrar/internal/observability/logger"
)

// WithRequestID assigns each request an id, echoes it in X-Request-ID
// and injects a request-scoped logger into the context.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", reqID)

			l := logger.L().With(logger.RequestID(reqID))
			ctx := logger.ToContext(r.Context(), l)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
