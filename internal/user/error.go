package user

import "coursecart-be/internal/apperr"

var (
	ErrUserNotFound = apperr.New(apperr.NotFound, "user not found")
	ErrEmailExists  = apperr.New(apperr.Conflict, "email already registered")

	ErrInvalidCredentials = apperr.New(apperr.Unauthorized, "invalid email or password")
)
