package application

import (
	"context"
	"encoding/json"
	"strings"

	"cakeshop/contexts/shop/shop-service/domain/entities"
	domainerrors "cakeshop/contexts/shop/shop-service/domain/errors"
	"cakeshop/contexts/shop/shop-service/ports"
)

func (s Service) ListFAQ(ctx context.Context, shopID string) ([]entities.FAQ, error) {
	if strings.TrimSpace(shopID) == "" {
		return nil, domainerrors.ErrInvalidRequest
	}
	return s.FAQs.ListFAQ(ctx, shopID)
}

func (s Service) CreateFAQ(ctx context.Context, idempotencyKey string, ownerID string, input ports.FAQInput) (entities.FAQ, error) {
	var out entities.FAQ
	if err := entities.ValidateFAQ(input.Question, input.Answer); err != nil {
		return out, err
	}
	if err := s.requireIdempotency(idempotencyKey); err != nil {
		return out, err
	}
	requestHash := hashStrings("create_faq", ownerID, input.Question, input.Answer)
	err := s.runIdempotent(
		ctx,
		strings.TrimSpace(idempotencyKey),
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &out) },
		func() ([]byte, error) {
			shop, err := s.GetShopByOwner(ctx, ownerID)
			if err != nil {
				return nil, err
			}
			existing, err := s.FAQs.ListFAQ(ctx, shop.ShopID)
			if err != nil {
				return nil, err
			}
			id, err := s.IDGenerator.NewID(ctx)
			if err != nil {
				return nil, err
			}
			now := s.now()
			faq := entities.FAQ{
				FAQID:     id,
				ShopID:    shop.ShopID,
				Question:  strings.TrimSpace(input.Question),
				Answer:    s.sanitize(input.Answer),
				Position:  len(existing),
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.FAQs.CreateFAQ(ctx, faq); err != nil {
				return nil, err
			}
			return json.Marshal(faq)
		},
	)
	return out, err
}

func (s Service) UpdateFAQ(
	ctx context.Context,
	idempotencyKey string,
	ownerID string,
	faqID string,
	input ports.FAQInput,
) (entities.FAQ, error) {
	var out entities.FAQ
	if strings.TrimSpace(faqID) == "" {
		return out, domainerrors.ErrInvalidRequest
	}
	if err := entities.ValidateFAQ(input.Question, input.Answer); err != nil {
		return out, err
	}
	if err := s.requireIdempotency(idempotencyKey); err != nil {
		return out, err
	}
	requestHash := hashStrings("update_faq", ownerID, faqID, input.Question, input.Answer)
	err := s.runIdempotent(
		ctx,
		strings.TrimSpace(idempotencyKey),
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &out) },
		func() ([]byte, error) {
			shop, err := s.GetShopByOwner(ctx, ownerID)
			if err != nil {
				return nil, err
			}
			faq, err := s.FAQs.GetFAQ(ctx, shop.ShopID, faqID)
			if err != nil {
				return nil, err
			}
			faq.Question = strings.TrimSpace(input.Question)
			faq.Answer = s.sanitize(input.Answer)
			faq.UpdatedAt = s.now()
			if err := s.FAQs.UpdateFAQ(ctx, faq); err != nil {
				return nil, err
			}
			return json.Marshal(faq)
		},
	)
	return out, err
}

func (s Service) DeleteFAQ(ctx context.Context, idempotencyKey string, ownerID string, faqID string) error {
	if strings.TrimSpace(faqID) == "" {
		return domainerrors.ErrInvalidRequest
	}
	if err := s.requireIdempotency(idempotencyKey); err != nil {
		return err
	}
	return s.runIdempotent(
		ctx,
		strings.TrimSpace(idempotencyKey),
		hashStrings("delete_faq", ownerID, faqID),
		ignorePayload,
		func() ([]byte, error) {
			shop, err := s.GetShopByOwner(ctx, ownerID)
			if err != nil {
				return nil, err
			}
			if err := s.FAQs.DeleteFAQ(ctx, shop.ShopID, faqID, s.now()); err != nil {
				return nil, err
			}
			return []byte(`{}`), nil
		},
	)
}

func (s Service) ReorderFAQ(ctx context.Context, idempotencyKey string, ownerID string, orderedIDs []string) ([]entities.FAQ, error) {
	var out []entities.FAQ
	if len(orderedIDs) == 0 {
		return nil, domainerrors.ErrInvalidFAQOrder
	}
	if err := s.requireIdempotency(idempotencyKey); err != nil {
		return nil, err
	}
	requestHash := hashStrings("reorder_faq", ownerID, strings.Join(orderedIDs, ","))
	err := s.runIdempotent(
		ctx,
		strings.TrimSpace(idempotencyKey),
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &out) },
		func() ([]byte, error) {
			shop, err := s.GetShopByOwner(ctx, ownerID)
			if err != nil {
				return nil, err
			}
			existing, err := s.FAQs.ListFAQ(ctx, shop.ShopID)
			if err != nil {
				return nil, err
			}
			if err := entities.ValidateFAQOrder(existing, orderedIDs); err != nil {
				return nil, err
			}
			if err := s.FAQs.ReorderFAQ(ctx, shop.ShopID, orderedIDs, s.now()); err != nil {
				return nil, err
			}
			reordered, err := s.FAQs.ListFAQ(ctx, shop.ShopID)
			if err != nil {
				return nil, err
			}
			return json.Marshal(reordered)
		},
	)
	return out, err
}
