package errors

import "errors"

var (
	ErrInvalidRequest         = errors.New("invalid request")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key reused with a different payload")
	ErrForbidden              = errors.New("forbidden")
	ErrShopNotFound           = errors.New("shop not found")
	ErrShopInactive           = errors.New("shop is not accepting orders")
	ErrProductNotFound        = errors.New("product not found")
	ErrProductUnavailable     = errors.New("product is not available")
	ErrInvalidSelection       = errors.New("invalid product selection")
	ErrOrderNotFound          = errors.New("order not found")
	ErrInvalidTransition      = errors.New("order status does not allow this action")
	ErrConcurrentUpdate       = errors.New("order was modified concurrently")
	ErrQuoteExpired           = errors.New("quote has expired")
	ErrInvalidQuote           = errors.New("invalid quote")
	ErrInvalidPickupDate      = errors.New("invalid pickup date")
	ErrSlotUnavailable        = errors.New("pickup date is not available")
	ErrDuplicateRef           = errors.New("order reference already exists")
	ErrRefGenerationFailed    = errors.New("could not allocate a unique order reference")
)
