package services

import (
	"strings"

	"cakeshop/contexts/notifications/mailer-service/domain/entities"
)

// Order event types handled by the mailer. They mirror the order contract.
const (
	EventPlaced         = "order.placed"
	EventRequested      = "order.requested"
	EventQuoted         = "order.quoted"
	EventQuoteAccepted  = "order.quote_accepted"
	EventConfirmed      = "order.confirmed"
	EventReady          = "order.ready"
	EventCompleted      = "order.completed"
	EventRefused        = "order.refused"
	EventPickupReminder = "order.pickup_reminder"
)

// Parties are the people an order event can be addressed to.
type Parties struct {
	CustomerName  string
	CustomerEmail string
	ShopName      string
	ShopEmail     string
	RefusedBy     string
}

// Recipients returns who gets an email for the event. Empty addresses are
// skipped and unknown events have no recipients.
func Recipients(eventType string, parties Parties) []entities.Recipient {
	customer := entities.Recipient{Email: parties.CustomerEmail, Name: parties.CustomerName, Role: entities.RoleCustomer}
	merchant := entities.Recipient{Email: parties.ShopEmail, Name: parties.ShopName, Role: entities.RoleMerchant}

	var out []entities.Recipient
	switch eventType {
	case EventPlaced, EventRequested:
		out = []entities.Recipient{customer, merchant}
	case EventQuoted, EventConfirmed, EventReady, EventCompleted, EventPickupReminder:
		out = []entities.Recipient{customer}
	case EventQuoteAccepted:
		out = []entities.Recipient{merchant}
	case EventRefused:
		out = []entities.Recipient{customer}
		if parties.RefusedBy == string(entities.RoleCustomer) {
			out = append(out, merchant)
		}
	}

	filtered := out[:0]
	for _, recipient := range out {
		if strings.TrimSpace(recipient.Email) != "" {
			filtered = append(filtered, recipient)
		}
	}
	return filtered
}
