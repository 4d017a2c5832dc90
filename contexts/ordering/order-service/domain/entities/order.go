package entities

import (
	"net/mail"
	"strings"
	"time"

	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
)

const DateLayout = "2006-01-02"

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusQuoted    OrderStatus = "quoted"
	StatusToVerify  OrderStatus = "to_verify"
	StatusConfirmed OrderStatus = "confirmed"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusRefused   OrderStatus = "refused"
)

// AllStatuses lists statuses in lifecycle order.
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusQuoted,
	StatusToVerify,
	StatusConfirmed,
	StatusReady,
	StatusCompleted,
	StatusRefused,
}

func (s OrderStatus) Valid() bool {
	for _, status := range AllStatuses {
		if status == s {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusRefused
}

type OrderKind string

const (
	KindCatalog OrderKind = "catalog"
	KindCustom  OrderKind = "custom"
)

type Actor string

const (
	ActorMerchant Actor = "merchant"
	ActorCustomer Actor = "customer"
	ActorSystem   Actor = "system"
)

type Customer struct {
	Name  string
	Email string
	Phone string
}

func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" || len(c.Name) > 120 {
		return domainerrors.ErrInvalidRequest
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(c.Email)); err != nil {
		return domainerrors.ErrInvalidRequest
	}
	if len(c.Phone) > 30 {
		return domainerrors.ErrInvalidRequest
	}
	return nil
}

type OrderLine struct {
	Label      string
	Value      string
	PriceCents int64
}

type Quote struct {
	AmountCents  int64
	DepositCents int64
	Message      string
	ExpiresAt    time.Time
}

type Order struct {
	OrderID           string
	Ref               string
	ShopID            string
	Kind              OrderKind
	Status            OrderStatus
	ProductID         string
	ProductName       string
	Lines             []OrderLine
	Customer          Customer
	PickupDate        time.Time
	Message           string
	InspirationURLs   []string
	BudgetCents       int64
	TotalCents        int64
	DepositCents      int64
	Currency          string
	Quote             *Quote
	RefusalReason     string
	RefusedBy         Actor
	PaymentDeclaredAt *time.Time
	ConfirmedAt       *time.Time
	ReadyAt           *time.Time
	CompletedAt       *time.Time
	ReminderSentAt    *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OutstandingDepositCents is the amount the customer still has to pay
// through the payment link before the merchant can confirm.
func (o Order) OutstandingDepositCents() int64 {
	switch o.Status {
	case StatusQuoted:
		if o.Quote != nil {
			return o.Quote.DepositCents
		}
	case StatusToVerify:
		return o.DepositCents
	}
	return 0
}

func (o Order) QuoteExpired(now time.Time) bool {
	return o.Status == StatusQuoted && o.Quote != nil && !o.Quote.ExpiresAt.IsZero() && now.After(o.Quote.ExpiresAt)
}

func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, domainerrors.ErrInvalidPickupDate
	}
	return parsed.UTC(), nil
}
