package httpapi

import (
	"errors"
	"net/http"

	"coursecart-be/internal/apperr"
	"coursecart-be/internal/auth"
	"coursecart-be/internal/logger"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var errInvalidBody = apperr.FieldError("body", "invalid request body")

var kindStatus = map[apperr.Kind]int{
	apperr.Unauthorized:   http.StatusUnauthorized,
	apperr.Forbidden:      http.StatusForbidden,
	apperr.NotFound:       http.StatusNotFound,
	apperr.Conflict:       http.StatusConflict,
	apperr.Validation:     http.StatusBadRequest,
	apperr.PaymentGateway: http.StatusBadGateway,
	apperr.Persistence:    http.StatusServiceUnavailable,
}

type errorBody struct {
	Error any `json:"error"`
}

// NewHTTPErrorHandler maps domain errors onto status codes and JSON bodies.
// Anything unclassified is logged and answered with a generic 500.
func NewHTTPErrorHandler(v *Validator) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := classify(err, v)
		if code >= http.StatusInternalServerError {
			fields := []zap.Field{
				zap.Int("status", code),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
			}
			if u, ok := auth.CurrentUser(c.Request().Context()); ok {
				fields = append(fields, zap.Uint("user_id", u.ID))
			}
			logger.FromCtx(c.Request().Context()).Error("request failed", fields...)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			logger.FromCtx(c.Request().Context()).Warn("failed to write error response", zap.Error(err))
		}
	}
}

func classify(err error, v *Validator) (int, errorBody) {
	var (
		httpErr *echo.HTTPError
		valErrs validator.ValidationErrors
		appErr  *apperr.Error
	)

	switch {
	case errors.As(err, &httpErr):
		if httpErr.Code >= http.StatusInternalServerError {
			return httpErr.Code, errorBody{Error: http.StatusText(httpErr.Code)}
		}
		return httpErr.Code, errorBody{Error: httpErr.Message}

	case errors.As(err, &valErrs):
		return http.StatusBadRequest, errorBody{Error: v.Fields(valErrs)}

	case errors.As(err, &appErr):
		code, ok := kindStatus[appErr.Kind]
		if !ok {
			break
		}
		switch appErr.Kind {
		case apperr.Validation:
			if len(appErr.Fields) > 0 {
				return code, errorBody{Error: appErr.Fields}
			}
		case apperr.PaymentGateway:
			return code, errorBody{Error: "payment gateway error"}
		case apperr.Persistence:
			return code, errorBody{Error: "service temporarily unavailable"}
		}
		return code, errorBody{Error: appErr.Message}
	}

	return http.StatusInternalServerError, errorBody{Error: http.StatusText(http.StatusInternalServerError)}
}
