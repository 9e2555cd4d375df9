package api

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// Cookie names shared by the auth handlers (set) and middleware (read).
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

type ctxKey int

const userKey ctxKey = 0

// WithUser attaches the resolved request identity to the context.
func WithUser(ctx context.Context, u *models.PublicUser) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom returns the identity attached by the auth middleware, or nil
// on an unauthenticated request.
func UserFrom(ctx context.Context) *models.PublicUser {
	u, _ := ctx.Value(userKey).(*models.PublicUser)
	return u
}
