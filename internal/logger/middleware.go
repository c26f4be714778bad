package logger

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const HeaderRequestID = "X-Request-ID"

// RequestID propagates X-Request-ID (generating one when absent) into the
// request context so FromCtx can tag every log line of the request.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			reqID := req.Header.Get(HeaderRequestID)
			if reqID == "" {
				reqID = uuid.New().String()
			}

			c.Response().Header().Set(HeaderRequestID, reqID)
			c.SetRequest(req.WithContext(WithRequestID(req.Context(), reqID)))

			return next(c)
		}
	}
}
