package httpapi

import (
	"net/http"

	"coursecart-be/internal/cart"

	"github.com/labstack/echo/v4"
)

type addCartItemRequest struct {
	CourseID uint `json:"courseId" validate:"required,gt=0"`
}

type cartCheckResponse struct {
	InCart bool           `json:"inCart"`
	Item   *cart.CartItem `json:"item"`
}

func (s *Server) addCartItem(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}

	var req addCartItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	item, err := s.opts.Cart.AddItem(c.Request().Context(), u.ID, req.CourseID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

func (s *Server) listCart(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}

	items, err := s.opts.Cart.ListItems(c.Request().Context(), u.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) removeCartItem(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := s.opts.Cart.RemoveItem(c.Request().Context(), u.ID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "cart item removed"})
}

func (s *Server) clearCart(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := s.opts.Cart.Clear(c.Request().Context(), u.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "cart cleared"})
}

func (s *Server) checkCart(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}

	courseID, err := queryID(c, "courseId")
	if err != nil {
		return err
	}

	item, err := s.opts.Cart.CheckItem(c.Request().Context(), u.ID, courseID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cartCheckResponse{InCart: true, Item: item})
}
