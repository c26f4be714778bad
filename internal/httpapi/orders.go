package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) listOrders(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}

	limit, pg := page(c)
	orders, err := s.opts.Orders.ListOrders(c.Request().Context(), u.ID, limit, pg)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

func (s *Server) getOrder(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	o, err := s.opts.Orders.GetOrderDetail(c.Request().Context(), u, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

func (s *Server) listEnrollments(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}

	courses, err := s.opts.Enrollments.ListCourses(c.Request().Context(), u.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, courses)
}
