// Package ratelimit provides a per-client sliding window rate limiter for
// the API. The window is in-memory; a multi-instance deployment would need a
// shared store behind the same interface.
package ratelimit

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"consentdesk/pkg/requestcontext"
)

// Result reports the outcome of a limiter check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter tracks request timestamps per key over a sliding window, which
// avoids the burst-at-boundary problem of fixed windows.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	span    time.Duration
}

type window struct {
	timestamps []time.Time
}

func NewLimiter(limit int, span time.Duration) *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		limit:   limit,
		span:    span,
	}
}

// Allow records a request for key and reports whether it fits the limit.
func (l *Limiter) Allow(key string, now time.Time) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windows[key]
	if w == nil {
		w = &window{}
		l.windows[key] = w
	}
	w.expire(now.Add(-l.span))

	if len(w.timestamps) >= l.limit {
		return Result{Allowed: false, ResetAt: w.timestamps[0].Add(l.span)}
	}

	w.timestamps = append(w.timestamps, now)
	return Result{
		Allowed:   true,
		Remaining: l.limit - len(w.timestamps),
		ResetAt:   w.timestamps[0].Add(l.span),
	}
}

func (w *window) expire(cutoff time.Time) {
	i := 0
	for ; i < len(w.timestamps); i++ {
		if w.timestamps[i].After(cutoff) {
			break
		}
	}
	w.timestamps = w.timestamps[i:]
}

// Middleware enforces the limiter per client IP and exposes the standard
// X-RateLimit headers. Requests without a resolvable IP share one bucket.
func Middleware(l *Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := requestcontext.ClientIP(r.Context())
			res := l.Allow(key, time.Now())

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if !res.Allowed {
				logger.WarnContext(r.Context(), "rate limit exceeded",
					"client_ip", key,
					"path", r.URL.Path,
				)
				retryAfter := int(time.Until(res.ResetAt).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write(fmt.Appendf(nil, `{"error":%q}`, "rate_limited"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
