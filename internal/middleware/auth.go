package middleware

import (
	"coursecart-be/internal/apperr"
	"coursecart-be/internal/auth"
	"coursecart-be/internal/logger"
	"coursecart-be/internal/user"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var ErrAdminOnly = apperr.New(apperr.Forbidden, "admin access required")

// Authenticate resolves the session token (cookie or Bearer header) into an
// auth.User on the request context. A request without a valid token passes
// through anonymously; RequireAuth and RequireAdmin reject it where needed.
func Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			for _, token := range auth.AccessTokens(req) {
				claims, err := user.ParseJWT(token)
				if err != nil {
					logger.FromCtx(req.Context()).Debug("invalid session token", zap.Error(err))
					continue
				}

				ctx := auth.WithUser(req.Context(), auth.User{
					ID:    claims.UserID,
					Email: claims.Email,
					Name:  claims.Name,
					Role:  claims.Role,
				})
				ctx = logger.WithFields(ctx, zap.Uint("user_id", claims.UserID))
				c.SetRequest(req.WithContext(ctx))
				break
			}
			return next(c)
		}
	}
}

func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := auth.CurrentUser(c.Request().Context()); !ok {
			return auth.ErrUnauthorized
		}
		return next(c)
	}
}

func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, ok := auth.CurrentUser(c.Request().Context())
		if !ok {
			return auth.ErrUnauthorized
		}
		if !u.IsAdmin() {
			logger.FromCtx(c.Request().Context()).Warn("admin route denied", zap.Uint("user_id", u.ID))
			return ErrAdminOnly
		}
		return next(c)
	}
}
