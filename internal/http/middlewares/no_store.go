package middlewares

import "net/http"

// WithNoStore disables caching. Applied to the OAuth endpoints so no
// intermediary can replay state or code values from a cache.
func WithNoStore() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			w.Header().Set("Pragma", "no-cache")
			next.ServeHTTP(w, r)
		})
	}
}
