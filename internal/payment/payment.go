package payment

import (
	"context"
	"fmt"

	"coursecart-be/internal/apperr"

	"github.com/shopspring/decimal"
)

const ProviderRazorpay = "RAZORPAY"

type Gateway interface {
	// CreateOrder registers a provider-side order for amount (major units).
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency string) (*ProviderOrder, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) error
	VerifyWebhookSignature(body []byte, signature string) error
}

// ToMinorUnits converts a major-unit amount to the provider's integer minor
// units, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// ErrGateway classifies every provider failure as a PaymentGateway error.
var ErrGateway = apperr.New(apperr.PaymentGateway, "payment gateway error")

var ErrInvalidSignature = apperr.New(apperr.Unauthorized, "invalid payment signature")

// GatewayError describes a failed provider call.
type GatewayError struct {
	Op          string
	StatusCode  int
	Code        string
	Description string
	Err         error
}

func (e *GatewayError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("razorpay %s: status %d %s: %s", e.Op, e.StatusCode, e.Code, e.Description)
	case e.Err != nil:
		return fmt.Sprintf("razorpay %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("razorpay %s failed", e.Op)
	}
}

func (e *GatewayError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrGateway}
	}
	return []error{ErrGateway, e.Err}
}
