package testutil

import (
	"net/http"
	"time"

	"sportclub/pkg/requestcontext"
)

// WithSession attaches a session to the request context, as RequireAuth does.
func WithSession(req *http.Request, s requestcontext.SessionInfo) *http.Request {
	return req.WithContext(requestcontext.WithSession(req.Context(), s))
}

// WithTime pins the request-scoped "now" used by age checks.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
