package testutil

import (
	"net/http"
	"time"

	"consentdesk/pkg/requestcontext"
)

// WithUserID adds an authenticated user id to the request context, simulating
// what the auth middleware would do.
func WithUserID(req *http.Request, userID int64) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// WithTime pins the request-scoped clock on the request context so lifecycle
// assertions are deterministic.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
