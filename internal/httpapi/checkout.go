package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"coursecart-be/internal/apperr"
	"coursecart-be/internal/checkout"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const (
	HeaderIdempotencyKey    = "Idempotency-Key"
	HeaderIdempotentReplay  = "Idempotent-Replayed"
	maxIdempotencyKeyLength = 128
)

type checkoutRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Name   string          `json:"name" validate:"required,notblank,max=120"`
	Email  string          `json:"email" validate:"required,email"`
}

type buyNowRequest struct {
	CourseID  uint            `json:"courseId" validate:"required,gt=0"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Name      string          `json:"name" validate:"required,notblank,max=120"`
	Email     string          `json:"email" validate:"required,email"`
	ModeID    *uint           `json:"modeId" validate:"omitempty,gt=0"`
	AttemptID *uint           `json:"attemptId" validate:"omitempty,gt=0"`
}

type verifyRequest struct {
	OrderID           uint   `json:"orderId" validate:"required,gt=0"`
	RazorpayOrderID   string `json:"razorpayOrderId" validate:"required"`
	RazorpayPaymentID string `json:"razorpayPaymentId" validate:"required"`
	RazorpaySignature string `json:"razorpaySignature" validate:"required"`
}

var errIdempotencyKey = apperr.FieldError(HeaderIdempotencyKey,
	fmt.Sprintf("must be valid UTF-8 of at most %d bytes", maxIdempotencyKeyLength))

// idempotencyKey rejects keys the orders table could not store; it runs
// before the gateway is called.
func idempotencyKey(c echo.Context) (string, error) {
	key := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey))
	if len(key) > maxIdempotencyKeyLength || !utf8.ValidString(key) {
		return "", errIdempotencyKey
	}
	return key, nil
}

func writeResult(c echo.Context, res *checkout.Result) error {
	if res.Empty {
		return c.JSON(http.StatusOK, []any{})
	}
	if res.Replayed {
		c.Response().Header().Set(HeaderIdempotentReplay, "true")
	}
	return c.JSON(http.StatusOK, res.Response)
}

// checkout and buyNow authenticate before reading the body so an anonymous
// caller always gets 401.
func (s *Server) checkout(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return err
	}

	var req checkoutRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	key, err := idempotencyKey(c)
	if err != nil {
		return err
	}

	res, err := s.opts.Checkout.Checkout(c.Request().Context(), checkout.CartCheckoutRequest{
		Amount:         req.Amount,
		Name:           req.Name,
		Email:          req.Email,
		IdempotencyKey: key,
	})
	if err != nil {
		return err
	}
	return writeResult(c, res)
}

func (s *Server) buyNow(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return err
	}

	var req buyNowRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	key, err := idempotencyKey(c)
	if err != nil {
		return err
	}

	res, err := s.opts.Checkout.BuyNow(c.Request().Context(), checkout.BuyNowRequest{
		CourseID:       req.CourseID,
		Amount:         req.Amount,
		Name:           req.Name,
		Email:          req.Email,
		ModeID:         req.ModeID,
		AttemptID:      req.AttemptID,
		IdempotencyKey: key,
	})
	if err != nil {
		return err
	}
	return writeResult(c, res)
}

func (s *Server) verifyPayment(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return err
	}

	var req verifyRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	o, err := s.opts.Checkout.VerifyPayment(c.Request().Context(), checkout.VerifyRequest{
		OrderID:           req.OrderID,
		RazorpayOrderID:   req.RazorpayOrderID,
		RazorpayPaymentID: req.RazorpayPaymentID,
		RazorpaySignature: req.RazorpaySignature,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}
