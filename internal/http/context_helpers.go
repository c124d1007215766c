package httpx

import (
	"context"

	"github.com/courseq/courseq/internal/domain/model"
	"github.com/courseq/courseq/internal/session"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type sessionKey struct{}

// SetSessionInContext returns a child context carrying the decoded session.
func SetSessionInContext(ctx context.Context, s session.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// GetSessionFromContext returns the session placed in the context by the
// session middleware. Requests that never passed through the middleware read
// as an empty session.
func GetSessionFromContext(ctx context.Context) session.Session {
	if s, ok := ctx.Value(sessionKey{}).(session.Session); ok {
		return s
	}
	return session.Session{}
}

// CurrentUser returns the logged-in user, or nil for guests and identities
// still in onboarding.
func CurrentUser(ctx context.Context) *model.User {
	return GetSessionFromContext(ctx).User
}
