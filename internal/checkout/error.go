package checkout

import "coursecart-be/internal/apperr"

var (
	// -- Validation & Input --
	ErrAmountMismatch = apperr.FieldError("amount", "amount does not match the payable total")
	ErrInvalidAmount  = apperr.FieldError("amount", "amount must be greater than zero")

	// -- Resource State --
	ErrAlreadyEnrolled = apperr.New(apperr.Conflict, "already enrolled in this course")
)
