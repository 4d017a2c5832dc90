package errors

import "errors"

var (
	ErrInvalidRequest         = errors.New("invalid request")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key reused with a different payload")
	ErrProductNotFound        = errors.New("product not found")
	ErrProductInactive        = errors.New("product is not available")
	ErrInvalidPrice           = errors.New("prices must be zero or positive")
	ErrInvalidForm            = errors.New("invalid product form")
	ErrInvalidSelection       = errors.New("selection does not match the product form")
	ErrRequiredFieldMissing   = errors.New("a required field is missing")
)
