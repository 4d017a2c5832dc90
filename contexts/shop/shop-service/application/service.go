package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cakeshop/contexts/shop/shop-service/domain/entities"
	domainerrors "cakeshop/contexts/shop/shop-service/domain/errors"
	"cakeshop/contexts/shop/shop-service/domain/services"
	"cakeshop/contexts/shop/shop-service/ports"
	contractsv1 "cakeshop/contracts/gen/events/v1"
)

type Service struct {
	Shops          ports.ShopRepository
	FAQs           ports.FAQRepository
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	Sanitizer      ports.Sanitizer
	Publisher      ports.EventPublisher
	Logger         *slog.Logger
	IdempotencyTTL time.Duration
}

func (s Service) CreateShop(ctx context.Context, idempotencyKey string, input ports.CreateShopInput) (entities.Shop, error) {
	var out entities.Shop
	if strings.TrimSpace(input.OwnerID) == "" || strings.TrimSpace(input.Name) == "" {
		return out, domainerrors.ErrInvalidRequest
	}
	if err := entities.ValidateSlug(entities.NormalizeSlug(input.Slug)); err != nil {
		return out, err
	}
	if err := s.requireIdempotency(idempotencyKey); err != nil {
		return out, err
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return out, fmt.Errorf("encode shop input: %w", err)
	}
	requestHash := hashStrings("create_shop", string(payload))
	err = s.runIdempotent(
		ctx,
		strings.TrimSpace(idempotencyKey),
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &out) },
		func() ([]byte, error) {
			if _, err := s.Shops.GetShopByOwner(ctx, input.OwnerID); err == nil {
				return nil, domainerrors.ErrShopAlreadyExists
			} else if !errors.Is(err, domainerrors.ErrShopNotFound) {
				return nil, err
			}

			shopID, err := s.IDGenerator.NewID(ctx)
			if err != nil {
				return nil, err
			}
			now := s.now()
			shop, err := entities.NewShop(shopID, input.OwnerID, input.Slug, input.Name, input.Email, now)
			if err != nil {
				return nil, err
			}
			shop.Description = s.sanitize(input.Description)

			if err := s.Shops.CreateShopWithAvailabilities(ctx, shop, entities.DefaultAvailabilities(shop.ShopID)); err != nil {
				return nil, err
			}
			s.publishShopCreated(ctx, shop, now)
			return json.Marshal(shop)
		},
	)
	if err == nil {
		ResolveLogger(s.Logger).Info("shop created",
			"event", "shop_created",
			"module", "shop/shop-service",
			"layer", "application",
			"shop_id", out.ShopID,
			"slug", out.Slug,
		)
	}
	return out, err
}

func (s Service) GetShop(ctx context.Context, shopID string) (entities.Shop, error) {
	if strings.TrimSpace(shopID) == "" {
		return entities.Shop{}, domainerrors.ErrInvalidRequest
	}
	return s.Shops.GetShop(ctx, shopID)
}

// GetShopBySlug resolves a storefront. Inactive shops are reported as not
// found unless includeInactive is set.
func (s Service) GetShopBySlug(ctx context.Context, slug string, includeInactive bool) (entities.Shop, error) {
	slug = entities.NormalizeSlug(slug)
	if slug == "" {
		return entities.Shop{}, domainerrors.ErrInvalidRequest
	}
	shop, err := s.Shops.GetShopBySlug(ctx, slug)
	if err != nil {
		return entities.Shop{}, err
	}
	if !shop.IsActive && !includeInactive {
		return entities.Shop{}, domainerrors.ErrShopNotFound
	}
	return shop, nil
}

func (s Service) GetShopByOwner(ctx context.Context, ownerID string) (entities.Shop, error) {
	if strings.TrimSpace(ownerID) == "" {
		return entities.Shop{}, domainerrors.ErrForbidden
	}
	return s.Shops.GetShopByOwner(ctx, ownerID)
}

func (s Service) UpdateProfile(
	ctx context.Context,
	idempotencyKey string,
	ownerID string,
	input ports.UpdateProfileInput,
) (entities.Shop, error) {
	if strings.TrimSpace(input.Name) == "" || !strings.Contains(input.Email, "@") {
		return entities.Shop{}, domainerrors.ErrInvalidRequest
	}
	slug := entities.NormalizeSlug(input.Slug)
	if slug != "" {
		if err := entities.ValidateSlug(slug); err != nil {
			return entities.Shop{}, err
		}
	}
	if notice := input.MinDaysNotice; notice != nil && (*notice < 0 || *notice > entities.MaxMinDaysNotice) {
		return entities.Shop{}, domainerrors.ErrInvalidRequest
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return entities.Shop{}, fmt.Errorf("encode shop input: %w", err)
	}
	return s.mutateShop(ctx, idempotencyKey, ownerID, hashStrings("update_profile", ownerID, string(payload)),
		func(shop *entities.Shop) error {
			if slug != "" {
				shop.Slug = slug
			}
			shop.Name = strings.TrimSpace(input.Name)
			shop.Email = strings.TrimSpace(input.Email)
			shop.Description = s.sanitize(input.Description)
			if input.MinDaysNotice != nil {
				shop.MinDaysNotice = *input.MinDaysNotice
			}
			return nil
		},
	)
}

func (s Service) UpdateCustomization(
	ctx context.Context,
	idempotencyKey string,
	ownerID string,
	input entities.Customization,
) (entities.Shop, error) {
	if err := input.Validate(); err != nil {
		return entities.Shop{}, err
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return entities.Shop{}, fmt.Errorf("encode shop input: %w", err)
	}
	return s.mutateShop(ctx, idempotencyKey, ownerID, hashStrings("update_customization", ownerID, string(payload)),
		func(shop *entities.Shop) error {
			shop.Customization = input
			return nil
		},
	)
}

func (s Service) UpdatePaymentSettings(
	ctx context.Context,
	idempotencyKey string,
	ownerID string,
	input ports.UpdatePaymentInput,
) (entities.Shop, error) {
	settings := entities.PaymentSettings{
		PaypalHandle:        strings.TrimSpace(input.PaypalHandle),
		PaymentInstructions: strings.TrimSpace(input.PaymentInstructions),
	}
	if err := settings.Validate(); err != nil {
		return entities.Shop{}, err
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	checkCurrency, checkDeposit := currency, 0
	if checkCurrency == "" {
		checkCurrency = entities.DefaultCurrency
	}
	if input.DepositPercentage != nil {
		checkDeposit = *input.DepositPercentage
	}
	if err := entities.ValidateSettings(checkCurrency, checkDeposit, 0); err != nil {
		return entities.Shop{}, err
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return entities.Shop{}, fmt.Errorf("encode shop input: %w", err)
	}
	return s.mutateShop(ctx, idempotencyKey, ownerID, hashStrings("update_payment", ownerID, string(payload)),
		func(shop *entities.Shop) error {
			shop.Payment = settings
			if currency != "" {
				shop.Currency = currency
			}
			if input.DepositPercentage != nil {
				shop.DepositPercentage = *input.DepositPercentage
			}
			return nil
		},
	)
}

func (s Service) SetActive(ctx context.Context, idempotencyKey string, ownerID string, active bool) (entities.Shop, error) {
	return s.mutateShop(ctx, idempotencyKey, ownerID, hashStrings("set_active", ownerID, fmt.Sprintf("%t", active)),
		func(shop *entities.Shop) error {
			shop.IsActive = active
			return nil
		},
	)
}

// PaymentLink returns the deposit link of a shop, or "" when the shop has
// no paypal handle configured.
func (s Service) PaymentLink(ctx context.Context, shopID string, amountCents int64) (string, error) {
	shop, err := s.GetShop(ctx, shopID)
	if err != nil {
		return "", err
	}
	return services.PaymentLink(shop.Payment.PaypalHandle, amountCents, shop.Currency), nil
}

func (s Service) mutateShop(
	ctx context.Context,
	idempotencyKey string,
	ownerID string,
	requestHash string,
	apply func(*entities.Shop) error,
) (entities.Shop, error) {
	var out entities.Shop
	if strings.TrimSpace(ownerID) == "" {
		return out, domainerrors.ErrForbidden
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
			shop, err := s.Shops.GetShopByOwner(ctx, ownerID)
			if err != nil {
				return nil, err
			}
			if err := apply(&shop); err != nil {
				return nil, err
			}
			shop.UpdatedAt = s.now()
			if err := s.Shops.UpdateShop(ctx, shop); err != nil {
				return nil, err
			}
			return json.Marshal(shop)
		},
	)
	return out, err
}

func (s Service) sanitize(input string) string {
	input = strings.TrimSpace(input)
	if s.Sanitizer == nil {
		return input
	}
	return s.Sanitizer.SanitizeHTML(input)
}

func (s Service) publishShopCreated(ctx context.Context, shop entities.Shop, now time.Time) {
	if s.Publisher == nil {
		return
	}
	logger := ResolveLogger(s.Logger)
	eventID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		logger.Warn("shop created event id generation failed",
			"event", "shop_created_event_id_failed",
			"module", "shop/shop-service",
			"layer", "application",
			"shop_id", shop.ShopID,
			"error", err.Error(),
		)
		return
	}
	data, err := json.Marshal(contractsv1.ShopCreatedData{
		ShopID:  shop.ShopID,
		OwnerID: shop.OwnerID,
		Slug:    shop.Slug,
		Name:    shop.Name,
		Email:   shop.Email,
	})
	if err != nil {
		logger.Warn("shop created event encoding failed",
			"event", "shop_created_event_encode_failed",
			"module", "shop/shop-service",
			"layer", "application",
			"shop_id", shop.ShopID,
			"error", err.Error(),
		)
		return
	}
	envelope := contractsv1.Envelope{
		EventID:          eventID,
		EventType:        contractsv1.ShopCreated,
		OccurredAt:       now,
		SourceService:    "shop-service",
		SchemaVersion:    1,
		PartitionKeyPath: "shop_id",
		PartitionKey:     shop.ShopID,
		Data:             data,
	}
	if err := s.Publisher.Publish(ctx, contractsv1.ShopCreated, envelope); err != nil {
		logger.Warn("shop created event publish failed",
			"event", "shop_created_publish_failed",
			"module", "shop/shop-service",
			"layer", "application",
			"shop_id", shop.ShopID,
			"error", err.Error(),
		)
	}
}
