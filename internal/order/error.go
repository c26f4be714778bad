package order

import "coursecart-be/internal/apperr"

var (
	// -- Validation & Input --
	ErrNoLineItems = apperr.FieldError("items", "order needs at least one line item")

	// -- Resource State --
	ErrOrderNotFound        = apperr.New(apperr.NotFound, "order not found")
	ErrDuplicateOrder       = apperr.New(apperr.Conflict, "order already exists for this provider order")
	ErrInvalidTransition    = apperr.New(apperr.Conflict, "order is no longer pending")
	ErrPaymentOrderMismatch = apperr.FieldError("razorpayOrderId", "does not belong to this order")

	// -- Authentication/Authorization --
	ErrForbidden = apperr.New(apperr.Forbidden, "order belongs to another user")
)
