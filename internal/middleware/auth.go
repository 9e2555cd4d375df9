package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/api"
	"github.com/clipstream/backend/internal/apperr"
	"github.com/clipstream/backend/internal/models"
)

// TokenVerifier checks an access token and returns the user id it names.
type TokenVerifier interface {
	VerifyAccess(raw string) (string, error)
}

// UserResolver loads a user record by id. A (nil, nil) result means the
// id has no matching record.
type UserResolver interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// RequireAuth validates the access token from the accessToken cookie or
// the Authorization header and injects the sanitized user into the
// request context. Every failure mode collapses into the same 401:
// clients see one shape whether the token is missing, expired or
// malformed.
func RequireAuth(tokens TokenVerifier, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				api.WriteErr(w, apperr.ErrUnauthenticated, "Unauthorized access")
				return
			}

			userID, err := tokens.VerifyAccess(raw)
			if err != nil {
				api.WriteErr(w, apperr.ErrUnauthenticated, "Unauthorized access")
				return
			}

			user, err := users.FindByID(r.Context(), userID)
			if err != nil || user == nil {
				api.WriteErr(w, apperr.ErrUnauthenticated, "Unauthorized access")
				return
			}

			ctx := api.WithUser(r.Context(), user.Public())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// tokenFromRequest prefers the access token cookie, falling back to an
// Authorization: Bearer header.
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(api.AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
