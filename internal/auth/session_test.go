package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"coursecart-be/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokens(t *testing.T) {
	t.Run("Cookie Before Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie_token"})
		req.Header.Set("Authorization", "Bearer header_token")

		assert.Equal(t, []string{"cookie_token", "header_token"}, AccessTokens(req))
	})

	t.Run("Empty Cookie Skipped", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: ""})
		req.Header.Set("Authorization", "Bearer header_token")

		assert.Equal(t, []string{"header_token"}, AccessTokens(req))
	})

	t.Run("No Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Empty(t, AccessTokens(req))
	})

	t.Run("Malformed Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic user:pass")
		assert.Empty(t, AccessTokens(req))
	})

	t.Run("Blank Bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer   ")
		assert.Empty(t, AccessTokens(req))
	})
}

func TestCurrentUser(t *testing.T) {
	t.Run("Anonymous", func(t *testing.T) {
		_, ok := CurrentUser(context.Background())
		assert.False(t, ok)

		_, err := RequireUser(context.Background())
		assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
	})

	t.Run("Zero ID is anonymous", func(t *testing.T) {
		ctx := WithUser(context.Background(), User{Email: "x@example.com"})
		_, ok := CurrentUser(ctx)
		assert.False(t, ok)
	})

	t.Run("Authenticated", func(t *testing.T) {
		ctx := WithUser(context.Background(), User{ID: 7, Email: "a@example.com", Role: "admin"})

		u, err := RequireUser(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint(7), u.ID)
		assert.True(t, u.IsAdmin())
	})
}
