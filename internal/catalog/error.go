package catalog

import "coursecart-be/internal/apperr"

var (
	// -- Resource State --
	ErrCourseNotFound    = apperr.New(apperr.NotFound, "course not found")
	ErrLookupNotFound    = apperr.New(apperr.NotFound, "record not found")
	ErrUnknownLookupKind = apperr.New(apperr.NotFound, "unknown catalog resource")
	ErrDuplicateSlug     = apperr.New(apperr.Conflict, "slug already in use")
	ErrCourseInUse       = apperr.New(apperr.Conflict, "course has orders and cannot be deleted")

	// -- Validation & Input --
	ErrModeNotOffered       = apperr.FieldError("modeId", "mode is not offered for this course")
	ErrAttemptNotOffered    = apperr.FieldError("attemptId", "attempt is not offered for this course")
	ErrInvalidCourseStatus  = apperr.FieldError("status", "must be one of DRAFT PUBLISHED ARCHIVED")
	ErrInvalidDiscountPrice = apperr.FieldError("discountPrice", "must be positive and below the price")
	ErrInvalidSlug          = apperr.FieldError("slug", "must be lowercase letters, digits and dashes")
	ErrInvalidPrice         = apperr.FieldError("price", "must be zero or greater")
)
