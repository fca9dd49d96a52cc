// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services and the form validators read them. Keeping
// the package free of net/http lets the core import it without pulling in transport code.
//
// Usage in services (read values):
//
//	session := requestcontext.Session(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithSession(ctx, requestcontext.SessionInfo{UserID: userID})
package requestcontext

import (
	"context"
	"time"

	id "sportclub/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	sessionKey     struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeySession     = sessionKey{}
	ContextKeyClientIP    = clientIPKey{}
	ContextKeyUserAgent   = userAgentKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Session
// -----------------------------------------------------------------------------

// SessionInfo is the authenticated caller as seen by the core. It is passed
// explicitly through the context rather than read from any global.
type SessionInfo struct {
	UserID    id.UserID
	Roles     []id.Role
	BirthDate time.Time
}

// IsAuthenticated reports whether the session carries a user.
func (s SessionInfo) IsAuthenticated() bool {
	return !s.UserID.IsNil()
}

// HasRole reports whether the session holds want (super_admin satisfies admin).
func (s SessionInfo) HasRole(want id.Role) bool {
	return id.HasRole(s.Roles, want)
}

// Session retrieves the session from the context. Returns the zero value if not set.
func Session(ctx context.Context) SessionInfo {
	if s, ok := ctx.Value(ContextKeySession).(SessionInfo); ok {
		return s
	}
	return SessionInfo{}
}

// WithSession injects a session into the context.
func WithSession(ctx context.Context, s SessionInfo) context.Context {
	return context.WithValue(ctx, ContextKeySession, s)
}

// UserID is shorthand for Session(ctx).UserID.
func UserID(ctx context.Context) id.UserID {
	return Session(ctx).UserID
}

// -----------------------------------------------------------------------------
// Client metadata (IP, User-Agent)
// -----------------------------------------------------------------------------

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
// Useful for service unit tests that don't run the full HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	return ctx
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like CLI and tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Age checks read it so tests can pin the evaluation date.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
