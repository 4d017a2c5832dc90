package ports

import (
	"context"
	"time"

	"cakeshop/contexts/ordering/order-service/domain/entities"
	"cakeshop/contexts/ordering/order-service/domain/services"
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

// ShopSnapshot is the ordering view of a shop, bridged from the shop module.
type ShopSnapshot struct {
	ShopID            string
	Slug              string
	Name              string
	Email             string
	Currency          string
	DepositPercentage int
	MinDaysNotice     int
	PaypalHandle      string
	IsActive          bool
	Week              [7]services.DaySchedule
	Closures          []services.Closure
}

// ShopDirectory resolves shops for ordering. Lookups return
// ErrShopNotFound when the shop does not exist.
type ShopDirectory interface {
	FindShopBySlug(ctx context.Context, slug string) (ShopSnapshot, error)
	FindShopByID(ctx context.Context, shopID string) (ShopSnapshot, error)
	PaymentLink(ctx context.Context, shopID string, amountCents int64) (string, error)
}

// ProductSnapshot is a priced catalog product. Lines and TotalCents are
// only filled by PriceProduct.
type ProductSnapshot struct {
	ProductID      string
	ShopID         string
	Name           string
	IsActive       bool
	MinDaysNotice  *int
	BasePriceCents int64
	Lines          []entities.OrderLine
	TotalCents     int64
}

// Catalog is bridged from the catalog module. PriceProduct returns
// ErrProductUnavailable for inactive products and ErrInvalidSelection
// when the answers do not match the product form.
type Catalog interface {
	GetProduct(ctx context.Context, shopID string, productID string) (ProductSnapshot, error)
	PriceProduct(ctx context.Context, shopID string, productID string, selection map[string]any) (ProductSnapshot, error)
}

type OrderFilter struct {
	ShopID   string
	Statuses []entities.OrderStatus
	// PickupFrom and PickupTo bound the pickup date, both inclusive.
	PickupFrom *time.Time
	PickupTo   *time.Time
	Page       int
	Limit      int
}

type OrderRepository interface {
	// CreateOrderWithOutbox must atomically persist the order and its event.
	// A taken ref returns ErrDuplicateRef. With dailyLimit > 0 the non-refused
	// orders on the pickup date are recounted while writes for that shop and
	// date are serialized, and a full date returns ErrSlotUnavailable.
	CreateOrderWithOutbox(ctx context.Context, order entities.Order, dailyLimit int, event EventEnvelope) error
	// UpdateOrderWithOutbox writes the order only while its stored status is
	// still expected, otherwise ErrConcurrentUpdate.
	UpdateOrderWithOutbox(ctx context.Context, order entities.Order, expected entities.OrderStatus, event EventEnvelope) error
	MarkReminderSentWithOutbox(ctx context.Context, orderID string, sentAt time.Time, event EventEnvelope) error

	GetOrder(ctx context.Context, orderID string) (entities.Order, error)
	GetOrderByRef(ctx context.Context, ref string) (entities.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]entities.Order, int, error)
	// CountActiveOrdersOnDates counts non-refused orders per pickup date
	// (keyed by YYYY-MM-DD) in the inclusive range.
	CountActiveOrdersOnDates(ctx context.Context, shopID string, from time.Time, to time.Time) (map[string]int, error)
	ListExpiredQuotes(ctx context.Context, now time.Time, limit int) ([]entities.Order, error)
	ListReminderCandidates(ctx context.Context, pickupDate time.Time, limit int) ([]entities.Order, error)

	StatusCounts(ctx context.Context, shopID string) (map[entities.OrderStatus]int, error)
	// SumConfirmedRevenue sums totals of orders confirmed in [from, to).
	SumConfirmedRevenue(ctx context.Context, shopID string, from time.Time, to time.Time) (int64, error)
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

type EventEnvelope = contractsv1.Envelope

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// OrderMetrics is optional instrumentation fed by the use cases.
type OrderMetrics interface {
	OrderCreated(kind string)
	OrderTransitioned(from string, to string)
}
