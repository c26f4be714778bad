// Package auth holds the request-scoped identity of the caller.
package auth

import (
	"context"
	"net/http"
	"strings"

	"coursecart-be/internal/apperr"
)

const AccessTokenCookie = "access_token"

const RoleAdmin = "ADMIN"

var ErrUnauthorized = apperr.New(apperr.Unauthorized, "user not authenticated")

// User is the authenticated caller as carried by the session token.
type User struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (u User) IsAdmin() bool {
	return strings.EqualFold(u.Role, RoleAdmin)
}

type ctxKey struct{}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// CurrentUser returns the authenticated user of the request, if any.
func CurrentUser(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(ctxKey{}).(User)
	if !ok || u.ID == 0 {
		return User{}, false
	}
	return u, true
}

// RequireUser is CurrentUser for code paths where anonymous access is an error.
func RequireUser(ctx context.Context) (User, error) {
	u, ok := CurrentUser(ctx)
	if !ok {
		return User{}, ErrUnauthorized
	}
	return u, nil
}

// AccessTokens returns the session token candidates of the request: the
// access_token cookie first, then a Bearer Authorization header.
func AccessTokens(r *http.Request) []string {
	var tokens []string
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		tokens = append(tokens, cookie.Value)
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		if t := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")); t != "" {
			tokens = append(tokens, t)
		}
	}

	return tokens
}
