package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	domainerrors "github.com/listenupapp/booktable/internal/errors"
	"github.com/listenupapp/booktable/internal/ratelimit"
)

// RateLimitMiddleware creates a middleware that rate limits requests by client IP.
// Returns 429 with a RATE_LIMITED error when the limit is exceeded. Health
// checks are never limited.
func RateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			key := getClientIP(r)
			if !limiter.Allow(key) {
				logger.Warn("Rate limit exceeded",
					"ip", key,
					"path", r.URL.Path,
				)
				writeError(w, newAPIError(http.StatusTooManyRequests, "",
					domainerrors.RateLimited("Too many requests. Please try again later.")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func getClientIP(r *http.Request) string {
	// First entry of X-Forwarded-For is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
