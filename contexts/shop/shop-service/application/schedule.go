package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cakeshop/contexts/shop/shop-service/domain/entities"
	domainerrors "cakeshop/contexts/shop/shop-service/domain/errors"
	"cakeshop/contexts/shop/shop-service/ports"
)

// GetSchedule returns the weekly availability ordered from Sunday and the
// closures that have not ended yet.
func (s Service) GetSchedule(ctx context.Context, shopID string) (ports.Schedule, error) {
	if strings.TrimSpace(shopID) == "" {
		return ports.Schedule{}, domainerrors.ErrInvalidRequest
	}
	availabilities, err := s.Shops.ListAvailabilities(ctx, shopID)
	if err != nil {
		return ports.Schedule{}, err
	}
	unavailabilities, err := s.Shops.ListUnavailabilities(ctx, shopID, entities.DateOnly(s.now()))
	if err != nil {
		return ports.Schedule{}, err
	}
	return ports.Schedule{
		ShopID:           shopID,
		Availabilities:   completeWeek(shopID, availabilities),
		Unavailabilities: unavailabilities,
	}, nil
}

func (s Service) SetAvailability(
	ctx context.Context,
	idempotencyKey string,
	ownerID string,
	input ports.SetAvailabilityInput,
) (entities.Availability, error) {
	var out entities.Availability
	if err := entities.ValidateAvailability(input.Weekday, input.DailyOrderLimit); err != nil {
		return out, err
	}
	if err := s.requireIdempotency(idempotencyKey); err != nil {
		return out, err
	}
	requestHash := hashStrings(
		"set_availability",
		ownerID,
		fmt.Sprintf("%d", input.Weekday),
		fmt.Sprintf("%t", input.IsOpen),
		fmt.Sprintf("%d", input.DailyOrderLimit),
	)
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
			availability := entities.Availability{
				ShopID:          shop.ShopID,
				Weekday:         time.Weekday(input.Weekday),
				IsOpen:          input.IsOpen,
				DailyOrderLimit: input.DailyOrderLimit,
			}
			if err := s.Shops.UpsertAvailability(ctx, availability); err != nil {
				return nil, err
			}
			return json.Marshal(availability)
		},
	)
	return out, err
}

func (s Service) AddUnavailability(
	ctx context.Context,
	idempotencyKey string,
	ownerID string,
	input ports.AddUnavailabilityInput,
) (entities.Unavailability, error) {
	var out entities.Unavailability
	start, err := entities.ParseDate(input.StartDate)
	if err != nil {
		return out, err
	}
	end, err := entities.ParseDate(input.EndDate)
	if err != nil {
		return out, err
	}
	if start.After(end) {
		return out, domainerrors.ErrInvalidDateRange
	}
	if err := s.requireIdempotency(idempotencyKey); err != nil {
		return out, err
	}
	requestHash := hashStrings("add_unavailability", ownerID, input.StartDate, input.EndDate, input.Reason)
	err = s.runIdempotent(
		ctx,
		strings.TrimSpace(idempotencyKey),
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &out) },
		func() ([]byte, error) {
			shop, err := s.GetShopByOwner(ctx, ownerID)
			if err != nil {
				return nil, err
			}
			id, err := s.IDGenerator.NewID(ctx)
			if err != nil {
				return nil, err
			}
			item, err := entities.NewUnavailability(id, shop.ShopID, start, end, input.Reason, s.now())
			if err != nil {
				return nil, err
			}
			if err := s.Shops.CreateUnavailability(ctx, item); err != nil {
				return nil, err
			}
			return json.Marshal(item)
		},
	)
	return out, err
}

func (s Service) RemoveUnavailability(
	ctx context.Context,
	idempotencyKey string,
	ownerID string,
	unavailabilityID string,
) error {
	if strings.TrimSpace(unavailabilityID) == "" {
		return domainerrors.ErrInvalidRequest
	}
	if err := s.requireIdempotency(idempotencyKey); err != nil {
		return err
	}
	requestHash := hashStrings("remove_unavailability", ownerID, unavailabilityID)
	return s.runIdempotent(
		ctx,
		strings.TrimSpace(idempotencyKey),
		requestHash,
		ignorePayload,
		func() ([]byte, error) {
			shop, err := s.GetShopByOwner(ctx, ownerID)
			if err != nil {
				return nil, err
			}
			if err := s.Shops.DeleteUnavailability(ctx, shop.ShopID, unavailabilityID); err != nil {
				return nil, err
			}
			return []byte(`{}`), nil
		},
	)
}

func completeWeek(shopID string, items []entities.Availability) []entities.Availability {
	byDay := make(map[int]entities.Availability, len(items))
	for _, item := range items {
		byDay[int(item.Weekday)] = item
	}
	defaults := entities.DefaultAvailabilities(shopID)
	out := make([]entities.Availability, 0, len(defaults))
	for _, fallback := range defaults {
		if item, ok := byDay[int(fallback.Weekday)]; ok {
			out = append(out, item)
			continue
		}
		out = append(out, fallback)
	}
	return out
}
