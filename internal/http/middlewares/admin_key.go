package middlewares

import (
	"crypto/subtle"
	"net/http"

	"github.com/snapcal/registrar/internal/http/errors"
)

// WithAdminKey guards operator endpoints with a shared API key passed
// in X-Admin-Key. An empty configured key disables the endpoints.
func WithAdminKey(key string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				errors.WriteError(w, errors.ErrNotFound)
				return
			}
			got := r.Header.Get("X-Admin-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
