package errors

import "errors"

// Sentinel errors shared across the service layers. Use cases wrap these
// with %w and request detail; the HTTP layer resolves them with errors.Is
// and maps them to response statuses. A pool pair with no exploitable price
// gap is a regular result, not one of these.
var (
	ErrValidation   = errors.New("validation error")
	ErrInvalidInput = errors.New("invalid input")

	ErrNotFound     = errors.New("not found")
	ErrBusinessRule = errors.New("business rule violation")

	ErrExternalService = errors.New("external service error")
	ErrTimeout         = errors.New("timeout error")

	ErrInternal = errors.New("internal error")
)
