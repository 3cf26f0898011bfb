package middleware

import (
	"context"

	"github.com/juniorjunco/blog-pro/internal/domain"
)

// ContextKey is a private type for request context keys.
type ContextKey string

const (
	// IdentityCtxKey holds the domain.Identity set by JWTAuth.
	IdentityCtxKey = ContextKey("identity")
	// UserIDCtxKey holds the authenticated user ID as a string.
	UserIDCtxKey = ContextKey("user_id")
)

// IdentityFromContext returns the identity stored by JWTAuth.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(IdentityCtxKey).(domain.Identity)
	return identity, ok && identity.UserID != ""
}

// WithIdentity stores identity in ctx.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	ctx = context.WithValue(ctx, IdentityCtxKey, identity)
	return context.WithValue(ctx, UserIDCtxKey, identity.UserID)
}
