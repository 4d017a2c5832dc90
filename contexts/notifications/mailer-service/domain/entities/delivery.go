package entities

import (
	"strings"
	"time"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleMerchant Role = "merchant"
)

type Recipient struct {
	Email string
	Name  string
	Role  Role
}

// Key identifies the recipient within one event. The role is part of it so a
// merchant ordering from their own shop still gets both emails.
func (r Recipient) Key() string {
	return string(r.Role) + ":" + strings.ToLower(strings.TrimSpace(r.Email))
}

type DeliveryStatus string

const (
	// DeliveryPending is a send in flight. NextAttemptAt is its lease: past
	// it, the retry sweep may take the row over.
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	// DeliveryFailed waits for the retry sweep until NextAttemptAt.
	DeliveryFailed DeliveryStatus = "failed"
	// DeliveryAbandoned ran out of attempts.
	DeliveryAbandoned DeliveryStatus = "abandoned"
)

// Delivery records one email for one event and recipient. Envelope keeps the
// raw event so a retry can render the message again.
type Delivery struct {
	EventID       string
	EventType     string
	OrderRef      string
	Recipient     string
	Role          Role
	Subject       string
	Status        DeliveryStatus
	Attempts      int
	LastError     string
	NextAttemptAt *time.Time
	Envelope      []byte
	CreatedAt     time.Time
	SentAt        *time.Time
}
