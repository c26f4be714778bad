package checkout

import (
	"coursecart-be/internal/order"
	"coursecart-be/internal/payment"

	"github.com/shopspring/decimal"
)

const (
	FlowCart   = "cart"
	FlowBuyNow = "buy_now"
)

type CartCheckoutRequest struct {
	Amount         decimal.Decimal
	Name           string
	Email          string
	IdempotencyKey string
}

type BuyNowRequest struct {
	CourseID       uint
	Amount         decimal.Decimal
	Name           string
	Email          string
	ModeID         *uint
	AttemptID      *uint
	IdempotencyKey string
}

type VerifyRequest struct {
	OrderID           uint
	RazorpayOrderID   string
	RazorpayPaymentID string
	RazorpaySignature string
}

// Response is what the client needs to open the provider's payment sheet.
type Response struct {
	ID              uint   `json:"id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	RazorpayOrderID string `json:"razorpayOrderId"`
}

// Result of a checkout. Empty is set when the cart had nothing to buy.
type Result struct {
	Empty    bool
	Response *Response
	// Replayed marks a response served from an earlier submission with the
	// same idempotency key.
	Replayed bool
}

func responseFor(o *order.Order) *Response {
	return &Response{
		ID:              o.ID,
		Amount:          payment.ToMinorUnits(o.Amount),
		Currency:        o.Currency,
		RazorpayOrderID: o.RazorpayOrderID,
	}
}
