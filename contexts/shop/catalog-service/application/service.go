package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cakeshop/contexts/shop/catalog-service/domain/entities"
	domainerrors "cakeshop/contexts/shop/catalog-service/domain/errors"
	"cakeshop/contexts/shop/catalog-service/domain/services"
	"cakeshop/contexts/shop/catalog-service/ports"
)

type Service struct {
	Products       ports.ProductRepository
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	Logger         *slog.Logger
	IdempotencyTTL time.Duration
}

func (s Service) ListProducts(ctx context.Context, filter ports.ProductFilter) ([]entities.Product, int, error) {
	if strings.TrimSpace(filter.ShopID) == "" {
		return nil, 0, domainerrors.ErrInvalidRequest
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	return s.Products.ListProducts(ctx, filter)
}

// GetProduct returns a product of the shop. Deleted products are not found;
// inactive ones only when includeInactive is set.
func (s Service) GetProduct(ctx context.Context, shopID string, productID string, includeInactive bool) (entities.Product, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(productID) == "" {
		return entities.Product{}, domainerrors.ErrInvalidRequest
	}
	product, err := s.Products.GetProduct(ctx, productID)
	if err != nil {
		return entities.Product{}, err
	}
	if product.ShopID != shopID || product.IsDeleted() {
		return entities.Product{}, domainerrors.ErrProductNotFound
	}
	if !product.IsActive && !includeInactive {
		return entities.Product{}, domainerrors.ErrProductNotFound
	}
	return product, nil
}

func (s Service) CreateProduct(
	ctx context.Context,
	idempotencyKey string,
	shopID string,
	input ports.ProductInput,
) (entities.Product, error) {
	var out entities.Product
	if strings.TrimSpace(shopID) == "" {
		return out, domainerrors.ErrInvalidRequest
	}
	if err := entities.ValidateProductDetails(input.Name, input.Description, input.BasePriceCents, input.MinDaysNotice); err != nil {
		return out, err
	}
	if err := s.requireIdempotency(idempotencyKey); err != nil {
		return out, err
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return out, fmt.Errorf("encode product input: %w", err)
	}
	requestHash := hashStrings("create_product", shopID, string(payload))
	err = s.runIdempotent(
		ctx,
		strings.TrimSpace(idempotencyKey),
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &out) },
		func() ([]byte, error) {
			productID, err := s.IDGenerator.NewID(ctx)
			if err != nil {
				return nil, err
			}
			position, err := s.Products.NextPosition(ctx, shopID)
			if err != nil {
				return nil, err
			}
			now := s.now()
			product := entities.Product{
				ProductID:      productID,
				ShopID:         shopID,
				Name:           strings.TrimSpace(input.Name),
				Description:    strings.TrimSpace(input.Description),
				BasePriceCents: input.BasePriceCents,
				ImageURL:       strings.TrimSpace(input.ImageURL),
				Category:       strings.TrimSpace(input.Category),
				MinDaysNotice:  input.MinDaysNotice,
				IsActive:       input.IsActive,
				Position:       position,
				Form:           []entities.FormField{},
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := s.Products.CreateProduct(ctx, product); err != nil {
				return nil, err
			}
			return json.Marshal(product)
		},
	)
	return out, err
}

func (s Service) UpdateProduct(
	ctx context.Context,
	idempotencyKey string,
	shopID string,
	productID string,
	input ports.ProductInput,
) (entities.Product, error) {
	if err := entities.ValidateProductDetails(input.Name, input.Description, input.BasePriceCents, input.MinDaysNotice); err != nil {
		return entities.Product{}, err
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return entities.Product{}, fmt.Errorf("encode product input: %w", err)
	}
	return s.mutateProduct(ctx, idempotencyKey, shopID, productID, hashStrings("update_product", shopID, productID, string(payload)),
		func(product *entities.Product) error {
			product.Name = strings.TrimSpace(input.Name)
			product.Description = strings.TrimSpace(input.Description)
			product.BasePriceCents = input.BasePriceCents
			product.ImageURL = strings.TrimSpace(input.ImageURL)
			product.Category = strings.TrimSpace(input.Category)
			product.MinDaysNotice = input.MinDaysNotice
			product.IsActive = input.IsActive
			return nil
		},
	)
}

func (s Service) SetProductActive(
	ctx context.Context,
	idempotencyKey string,
	shopID string,
	productID string,
	active bool,
) (entities.Product, error) {
	return s.mutateProduct(ctx, idempotencyKey, shopID, productID, hashStrings("set_product_active", shopID, productID, fmt.Sprintf("%t", active)),
		func(product *entities.Product) error {
			product.IsActive = active
			return nil
		},
	)
}

func (s Service) SetProductForm(
	ctx context.Context,
	idempotencyKey string,
	shopID string,
	productID string,
	fields []entities.FormField,
) (entities.Product, error) {
	if err := entities.ValidateForm(fields); err != nil {
		return entities.Product{}, err
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return entities.Product{}, fmt.Errorf("encode product form: %w", err)
	}
	return s.mutateProduct(ctx, idempotencyKey, shopID, productID, hashStrings("set_product_form", shopID, productID, string(payload)),
		func(product *entities.Product) error {
			product.Form = append([]entities.FormField(nil), fields...)
			return nil
		},
	)
}

// DeleteProduct soft-deletes the product and hides it from the storefront.
func (s Service) DeleteProduct(ctx context.Context, idempotencyKey string, shopID string, productID string) error {
	_, err := s.mutateProduct(ctx, idempotencyKey, shopID, productID, hashStrings("delete_product", shopID, productID),
		func(product *entities.Product) error {
			deletedAt := s.now()
			product.DeletedAt = &deletedAt
			product.IsActive = false
			return nil
		},
	)
	return err
}

// PriceSelection prices a customer's answers for an orderable product.
func (s Service) PriceSelection(
	ctx context.Context,
	shopID string,
	productID string,
	selection services.Selection,
) (entities.Product, services.PriceQuote, error) {
	product, err := s.GetProduct(ctx, shopID, productID, true)
	if err != nil {
		return entities.Product{}, services.PriceQuote{}, err
	}
	if !product.IsOrderable() {
		return entities.Product{}, services.PriceQuote{}, domainerrors.ErrProductInactive
	}
	quote, err := services.PriceSelection(product, selection)
	if err != nil {
		return entities.Product{}, services.PriceQuote{}, err
	}
	return product, quote, nil
}

func (s Service) mutateProduct(
	ctx context.Context,
	idempotencyKey string,
	shopID string,
	productID string,
	requestHash string,
	apply func(*entities.Product) error,
) (entities.Product, error) {
	var out entities.Product
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(productID) == "" {
		return out, domainerrors.ErrInvalidRequest
	}
	if err := s.requireIdempotency(idempotencyKey); err != nil {
		return out, err
	}
	err := s.runIdempotent(
		ctx,
		strings.TrimSpace(idempotencyKey),
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &out) },
		func() ([]byte, error) {
			product, err := s.GetProduct(ctx, shopID, productID, true)
			if err != nil {
				return nil, err
			}
			if err := apply(&product); err != nil {
				return nil, err
			}
			product.UpdatedAt = s.now()
			if err := s.Products.UpdateProduct(ctx, product); err != nil {
				return nil, err
			}
			ResolveLogger(s.Logger).Debug("product updated",
				"event", "catalog_product_updated",
				"module", "shop/catalog-service",
				"layer", "application",
				"shop_id", shopID,
				"product_id", productID,
			)
			return json.Marshal(product)
		},
	)
	return out, err
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.IdempotencyTTL
}

func (s Service) requireIdempotency(key string) error {
	if strings.TrimSpace(key) == "" {
		return domainerrors.ErrIdempotencyKeyRequired
	}
	return nil
}

func (s Service) runIdempotent(
	ctx context.Context,
	key string,
	requestHash string,
	decode func([]byte) error,
	exec func() ([]byte, error),
) error {
	now := s.now()
	record, found, err := s.Idempotency.Get(ctx, key, now)
	if err != nil {
		return err
	}
	if found {
		if record.RequestHash != requestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		return decode(record.Payload)
	}

	payload, err := exec()
	if err != nil {
		return err
	}
	if err := s.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Payload:     payload,
		ExpiresAt:   now.Add(s.idempotencyTTL()),
	}); err != nil {
		return err
	}
	return decode(payload)
}

func hashStrings(values ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(values, "|")))
	return hex.EncodeToString(sum[:])
}
