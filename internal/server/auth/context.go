package auth

import (
	"context"

	"github.com/dmitrijs2005/storefront/internal/server/models"
)

type ctxKey int

const principalKey ctxKey = iota

// Principal is the caller of a request: an authenticated user or nobody,
// together with the role used for permission checks.
type Principal struct {
	User     *models.User
	RoleType string
}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the caller stored in ctx. Requests without one are
// treated as public.
func PrincipalFrom(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey).(Principal); ok {
		return p
	}
	return Principal{RoleType: models.RoleTypePublic}
}

// UserFrom returns the authenticated user, or nil.
func UserFrom(ctx context.Context) *models.User {
	return PrincipalFrom(ctx).User
}
