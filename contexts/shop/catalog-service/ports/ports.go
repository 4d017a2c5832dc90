package ports

import (
	"context"
	"time"

	"cakeshop/contexts/shop/catalog-service/domain/entities"
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

type ProductFilter struct {
	ShopID          string
	IncludeInactive bool
	Category        string
	Page            int
	Limit           int
}

// ProductRepository never returns soft-deleted products from lists; GetProduct
// still resolves them so historical orders stay readable.
type ProductRepository interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]entities.Product, int, error)
	GetProduct(ctx context.Context, productID string) (entities.Product, error)
	CreateProduct(ctx context.Context, product entities.Product) error
	UpdateProduct(ctx context.Context, product entities.Product) error
	NextPosition(ctx context.Context, shopID string) (int, error)
}

type ProductInput struct {
	Name           string
	Description    string
	BasePriceCents int64
	ImageURL       string
	Category       string
	MinDaysNotice  *int
	IsActive       bool
}
