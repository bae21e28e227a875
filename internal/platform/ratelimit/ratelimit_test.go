package ratelimit

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"consentdesk/pkg/requestcontext"
)

func TestAllowUpToLimit(t *testing.T) {
	l := NewLimiter(3, time.Minute)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1", now).Allowed, "request %d", i+1)
	}
	assert.False(t, l.Allow("10.0.0.1", now).Allowed)
	assert.True(t, l.Allow("10.0.0.2", now).Allowed, "keys are independent")
}

func TestWindowSlides(t *testing.T) {
	l := NewLimiter(2, time.Minute)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	l.Allow("k", now)
	l.Allow("k", now.Add(30*time.Second))
	assert.False(t, l.Allow("k", now.Add(45*time.Second)).Allowed)

	// First timestamp ages out after a full minute, freeing one slot.
	assert.True(t, l.Allow("k", now.Add(61*time.Second)).Allowed)
}

func TestMiddlewareEmitsHeaders(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := Middleware(NewLimiter(1, time.Minute), logger)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/consent-records", nil)
	req = req.WithContext(requestcontext.WithClientMetadata(req.Context(), "10.0.0.9", "test"))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), "rate_limited")
}
