package middlewares

import (
	"net"
	"net/http"

	"github.com/snapcal/registrar/internal/http/errors"
	"github.com/snapcal/registrar/internal/ratelimit"
)

// KeyFunc extracts the rate-limit key from a request. An empty key
// falls back to the remote IP.
type KeyFunc func(r *http.Request) string

// WithRateLimit rejects requests over the limit with 429.
func WithRateLimit(limiter *ratelimit.PerKey, keyFor KeyFunc) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ""
			if keyFor != nil {
				key = keyFor(r)
			}
			if key == "" {
				key = remoteIP(r)
			}
			if !limiter.Allow(key) {
				errors.WriteError(w, errors.ErrRateLimitExceeded)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
