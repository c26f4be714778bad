package cart

import "coursecart-be/internal/apperr"

var (
	// -- Resource State --
	ErrCartItemNotFound     = apperr.New(apperr.NotFound, "cart item not found")
	ErrCartItemAlreadyExist = apperr.New(apperr.Conflict, "course already in cart")
	ErrAlreadyEnrolled      = apperr.New(apperr.Conflict, "already enrolled in this course")

	// -- Authentication/Authorization --
	ErrNotOwner = apperr.New(apperr.Forbidden, "cart item belongs to another user")
)
