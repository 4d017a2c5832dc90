package errors

import "errors"

var (
	ErrInvalidEvent      = errors.New("invalid order event")
	ErrUnknownTemplate   = errors.New("no email template for event")
	ErrInvalidRecipient  = errors.New("invalid email recipient")
	ErrDeliveryNotFound  = errors.New("delivery not found")
	ErrMailerUnavailable = errors.New("mailer unavailable")
	ErrUnknownRecipient  = errors.New("recipient no longer derivable from event")
)
