package ports

import (
	"context"
	"time"

	"cakeshop/contexts/shop/shop-service/domain/entities"
	contractsv1 "cakeshop/contracts/gen/events/v1"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	Payload     []byte
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

// ShopRepository owns shop rows and the weekly schedule attached to them.
type ShopRepository interface {
	// CreateShopWithAvailabilities must persist the shop and its schedule atomically.
	CreateShopWithAvailabilities(ctx context.Context, shop entities.Shop, availabilities []entities.Availability) error
	GetShop(ctx context.Context, shopID string) (entities.Shop, error)
	GetShopBySlug(ctx context.Context, slug string) (entities.Shop, error)
	GetShopByOwner(ctx context.Context, ownerID string) (entities.Shop, error)
	UpdateShop(ctx context.Context, shop entities.Shop) error

	ListAvailabilities(ctx context.Context, shopID string) ([]entities.Availability, error)
	UpsertAvailability(ctx context.Context, availability entities.Availability) error
	ListUnavailabilities(ctx context.Context, shopID string, endingFrom time.Time) ([]entities.Unavailability, error)
	CreateUnavailability(ctx context.Context, item entities.Unavailability) error
	DeleteUnavailability(ctx context.Context, shopID string, unavailabilityID string) error
}

type FAQRepository interface {
	ListFAQ(ctx context.Context, shopID string) ([]entities.FAQ, error)
	GetFAQ(ctx context.Context, shopID string, faqID string) (entities.FAQ, error)
	CreateFAQ(ctx context.Context, faq entities.FAQ) error
	UpdateFAQ(ctx context.Context, faq entities.FAQ) error
	// DeleteFAQ removes the entry and closes the gap in positions.
	DeleteFAQ(ctx context.Context, shopID string, faqID string, now time.Time) error
	ReorderFAQ(ctx context.Context, shopID string, orderedIDs []string, now time.Time) error
}

// Sanitizer strips merchant-supplied rich text down to a safe subset.
type Sanitizer interface {
	SanitizeHTML(input string) string
}

type EventEnvelope = contractsv1.Envelope

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type CreateShopInput struct {
	OwnerID     string
	Slug        string
	Name        string
	Email       string
	Description string
}

// UpdateProfileInput leaves the notice period unchanged when MinDaysNotice
// is nil.
type UpdateProfileInput struct {
	Slug          string
	Name          string
	Email         string
	Description   string
	MinDaysNotice *int
}

// UpdatePaymentInput leaves the currency unchanged when empty and the
// deposit unchanged when nil.
type UpdatePaymentInput struct {
	PaypalHandle        string
	PaymentInstructions string
	Currency            string
	DepositPercentage   *int
}

type SetAvailabilityInput struct {
	Weekday         int
	IsOpen          bool
	DailyOrderLimit int
}

type AddUnavailabilityInput struct {
	StartDate string
	EndDate   string
	Reason    string
}

type FAQInput struct {
	Question string
	Answer   string
}

// Schedule is the weekly availability plus the closures still ahead.
type Schedule struct {
	ShopID           string
	Availabilities   []entities.Availability
	Unavailabilities []entities.Unavailability
}
