package errors

import "errors"

var (
	ErrInvalidRequest         = errors.New("invalid request")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key reused with different request")
	ErrForbidden              = errors.New("forbidden")

	ErrShopNotFound           = errors.New("shop not found")
	ErrShopInactive           = errors.New("shop is not active")
	ErrShopAlreadyExists      = errors.New("owner already has a shop")
	ErrSlugTaken              = errors.New("shop slug already taken")
	ErrInvalidSlug            = errors.New("slug must be 3-40 lowercase letters, digits or dashes")
	ErrInvalidColor           = errors.New("color must be #rrggbb")
	ErrInvalidFont            = errors.New("font family is not supported")
	ErrInvalidCurrency        = errors.New("currency must be an ISO 4217 code")
	ErrInvalidPaypalHandle    = errors.New("paypal handle must be 1-20 letters or digits")
	ErrInvalidDeposit         = errors.New("deposit percentage must be between 0 and 100")
	ErrInvalidWeekday         = errors.New("weekday must be between 0 and 6")
	ErrInvalidDateRange       = errors.New("unavailability start must not be after end")
	ErrUnavailabilityNotFound = errors.New("unavailability not found")
	ErrFAQNotFound            = errors.New("faq entry not found")
	ErrInvalidFAQOrder        = errors.New("faq order must list every faq id exactly once")
)
