package httpapi

import (
	"strconv"

	"coursecart-be/internal/apperr"
	"coursecart-be/internal/auth"
	"coursecart-be/internal/utils"

	"github.com/labstack/echo/v4"
)

// currentUser is only used behind RequireAuth or by handlers that let the
// service enforce authentication.
func currentUser(c echo.Context) (auth.User, error) {
	return auth.RequireUser(c.Request().Context())
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := utils.ToUint(c.Param(name))
	if err != nil || id == 0 {
		return 0, apperr.FieldError(name, "must be a positive integer")
	}
	return id, nil
}

func queryID(c echo.Context, name string) (uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, apperr.FieldError(name, "is required")
	}
	id, err := utils.ToUint(raw)
	if err != nil || id == 0 {
		return 0, apperr.FieldError(name, "must be a positive integer")
	}
	return id, nil
}

// page reads limit and page query params; zero means default.
func page(c echo.Context) (limit, pg int) {
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	pg, _ = strconv.Atoi(c.QueryParam("page"))
	return limit, pg
}
