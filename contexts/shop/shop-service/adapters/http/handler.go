package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"cakeshop/contexts/shop/shop-service/application"
	"cakeshop/contexts/shop/shop-service/domain/entities"
	domainerrors "cakeshop/contexts/shop/shop-service/domain/errors"
	"cakeshop/contexts/shop/shop-service/ports"
	httptransport "cakeshop/contexts/shop/shop-service/transport/http"

	"golang.org/x/text/currency"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) GetPublicShopHandler(ctx context.Context, slug string) (httptransport.PublicShopResponse, error) {
	shop, err := h.Service.GetShopBySlug(ctx, slug, false)
	if err != nil {
		return httptransport.PublicShopResponse{}, err
	}
	return httptransport.PublicShopResponse{Status: "success", Data: toPublicShopDTO(shop)}, nil
}

func (h Handler) GetOwnShopHandler(ctx context.Context, ownerID string) (httptransport.ShopResponse, error) {
	shop, err := h.Service.GetShopByOwner(ctx, ownerID)
	if err != nil {
		return httptransport.ShopResponse{}, err
	}
	return httptransport.ShopResponse{Status: "success", Data: toShopDTO(shop)}, nil
}

func (h Handler) CreateShopHandler(
	ctx context.Context,
	idempotencyKey string,
	ownerID string,
	req httptransport.CreateShopRequest,
) (httptransport.ShopResponse, error) {
	shop, err := h.Service.CreateShop(ctx, idempotencyKey, ports.CreateShopInput{
		OwnerID:     ownerID,
		Slug:        req.Slug,
		Name:        req.Name,
		Email:       req.Email,
		Description: req.Description,
	})
	if err != nil {
		return httptransport.ShopResponse{}, err
	}
	return httptransport.ShopResponse{Status: "success", Data: toShopDTO(shop)}, nil
}

func (h Handler) UpdateProfileHandler(
	ctx context.Context,
	idempotencyKey string,
	ownerID string,
	req httptransport.UpdateProfileRequest,
) (httptransport.ShopResponse, error) {
	shop, err := h.Service.UpdateProfile(ctx, idempotencyKey, ownerID, ports.UpdateProfileInput{
		Slug:          req.Slug,
		Name:          req.Name,
		Email:         req.Email,
		Description:   req.Description,
		MinDaysNotice: req.MinDaysNotice,
	})
	if err != nil {
		return httptransport.ShopResponse{}, err
	}
	return httptransport.ShopResponse{Status: "success", Data: toShopDTO(shop)}, nil
}

func (h Handler) UpdateCustomizationHandler(
	ctx context.Context,
	idempotencyKey string,
	ownerID string,
	req httptransport.UpdateCustomizationRequest,
) (httptransport.ShopResponse, error) {
	shop, err := h.Service.UpdateCustomization(ctx, idempotencyKey, ownerID, entities.Customization{
		PrimaryColor:    req.PrimaryColor,
		SecondaryColor:  req.SecondaryColor,
		BackgroundColor: req.BackgroundColor,
		FontFamily:      req.FontFamily,
		LogoURL:         strings.TrimSpace(req.LogoURL),
		BannerURL:       strings.TrimSpace(req.BannerURL),
	})
	if err != nil {
		return httptransport.ShopResponse{}, err
	}
	return httptransport.ShopResponse{Status: "success", Data: toShopDTO(shop)}, nil
}

func (h Handler) UpdatePaymentHandler(
	ctx context.Context,
	idempotencyKey string,
	ownerID string,
	req httptransport.UpdatePaymentRequest,
) (httptransport.ShopResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Currency))
	if code != "" {
		if _, err := currency.ParseISO(code); err != nil {
			return httptransport.ShopResponse{}, domainerrors.ErrInvalidCurrency
		}
	}
	shop, err := h.Service.UpdatePaymentSettings(ctx, idempotencyKey, ownerID, ports.UpdatePaymentInput{
		PaypalHandle:        req.PaypalHandle,
		PaymentInstructions: req.PaymentInstructions,
		Currency:            code,
		DepositPercentage:   req.DepositPercentage,
	})
	if err != nil {
		return httptransport.ShopResponse{}, err
	}
	return httptransport.ShopResponse{Status: "success", Data: toShopDTO(shop)}, nil
}

func (h Handler) SetActiveHandler(
	ctx context.Context,
	idempotencyKey string,
	ownerID string,
	req httptransport.SetActiveRequest,
) (httptransport.ShopResponse, error) {
	shop, err := h.Service.SetActive(ctx, idempotencyKey, ownerID, req.IsActive)
	if err != nil {
		return httptransport.ShopResponse{}, err
	}
	return httptransport.ShopResponse{Status: "success", Data: toShopDTO(shop)}, nil
}

func (h Handler) GetScheduleHandler(ctx context.Context, ownerID string) (httptransport.ScheduleResponse, error) {
	shop, err := h.Service.GetShopByOwner(ctx, ownerID)
	if err != nil {
		return httptransport.ScheduleResponse{}, err
	}
	schedule, err := h.Service.GetSchedule(ctx, shop.ShopID)
	if err != nil {
		return httptransport.ScheduleResponse{}, err
	}
	resp := httptransport.ScheduleResponse{Status: "success"}
	resp.Data.Availabilities = make([]httptransport.AvailabilityDTO, 0, len(schedule.Availabilities))
	for _, item := range schedule.Availabilities {
		resp.Data.Availabilities = append(resp.Data.Availabilities, toAvailabilityDTO(item))
	}
	resp.Data.Unavailabilities = make([]httptransport.UnavailabilityDTO, 0, len(schedule.Unavailabilities))
	for _, item := range schedule.Unavailabilities {
		resp.Data.Unavailabilities = append(resp.Data.Unavailabilities, toUnavailabilityDTO(item))
	}
	return resp, nil
}

func (h Handler) SetAvailabilityHandler(
	ctx context.Context,
	idempotencyKey string,
	ownerID string,
	weekday int,
	req httptransport.SetAvailabilityRequest,
) (httptransport.AvailabilityResponse, error) {
	item, err := h.Service.SetAvailability(ctx, idempotencyKey, ownerID, ports.SetAvailabilityInput{
		Weekday:         weekday,
		IsOpen:          req.IsOpen,
		DailyOrderLimit: req.DailyOrderLimit,
	})
	if err != nil {
		return httptransport.AvailabilityResponse{}, err
	}
	return httptransport.AvailabilityResponse{Status: "success", Data: toAvailabilityDTO(item)}, nil
}

func (h Handler) AddUnavailabilityHandler(
	ctx context.Context,
	idempotencyKey string,
	ownerID string,
	req httptransport.AddUnavailabilityRequest,
) (httptransport.UnavailabilityResponse, error) {
	item, err := h.Service.AddUnavailability(ctx, idempotencyKey, ownerID, ports.AddUnavailabilityInput{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
	})
	if err != nil {
		return httptransport.UnavailabilityResponse{}, err
	}
	return httptransport.UnavailabilityResponse{Status: "success", Data: toUnavailabilityDTO(item)}, nil
}

func (h Handler) RemoveUnavailabilityHandler(ctx context.Context, idempotencyKey string, ownerID string, unavailabilityID string) error {
	return h.Service.RemoveUnavailability(ctx, idempotencyKey, ownerID, unavailabilityID)
}

func (h Handler) ListPublicFAQHandler(ctx context.Context, slug string) (httptransport.ListFAQResponse, error) {
	shop, err := h.Service.GetShopBySlug(ctx, slug, false)
	if err != nil {
		return httptransport.ListFAQResponse{}, err
	}
	return h.listFAQ(ctx, shop.ShopID)
}

func (h Handler) ListOwnFAQHandler(ctx context.Context, ownerID string) (httptransport.ListFAQResponse, error) {
	shop, err := h.Service.GetShopByOwner(ctx, ownerID)
	if err != nil {
		return httptransport.ListFAQResponse{}, err
	}
	return h.listFAQ(ctx, shop.ShopID)
}

func (h Handler) CreateFAQHandler(
	ctx context.Context,
	idempotencyKey string,
	ownerID string,
	req httptransport.FAQRequest,
) (httptransport.FAQResponse, error) {
	faq, err := h.Service.CreateFAQ(ctx, idempotencyKey, ownerID, ports.FAQInput{Question: req.Question, Answer: req.Answer})
	if err != nil {
		return httptransport.FAQResponse{}, err
	}
	return httptransport.FAQResponse{Status: "success", Data: toFAQDTO(faq)}, nil
}

func (h Handler) UpdateFAQHandler(
	ctx context.Context,
	idempotencyKey string,
	ownerID string,
	faqID string,
	req httptransport.FAQRequest,
) (httptransport.FAQResponse, error) {
	faq, err := h.Service.UpdateFAQ(ctx, idempotencyKey, ownerID, faqID, ports.FAQInput{Question: req.Question, Answer: req.Answer})
	if err != nil {
		return httptransport.FAQResponse{}, err
	}
	return httptransport.FAQResponse{Status: "success", Data: toFAQDTO(faq)}, nil
}

func (h Handler) DeleteFAQHandler(ctx context.Context, idempotencyKey string, ownerID string, faqID string) error {
	return h.Service.DeleteFAQ(ctx, idempotencyKey, ownerID, faqID)
}

func (h Handler) ReorderFAQHandler(
	ctx context.Context,
	idempotencyKey string,
	ownerID string,
	req httptransport.ReorderFAQRequest,
) (httptransport.ListFAQResponse, error) {
	items, err := h.Service.ReorderFAQ(ctx, idempotencyKey, ownerID, req.FAQIDs)
	if err != nil {
		return httptransport.ListFAQResponse{}, err
	}
	return toListFAQResponse(items), nil
}

func (h Handler) listFAQ(ctx context.Context, shopID string) (httptransport.ListFAQResponse, error) {
	items, err := h.Service.ListFAQ(ctx, shopID)
	if err != nil {
		return httptransport.ListFAQResponse{}, err
	}
	return toListFAQResponse(items), nil
}

func toListFAQResponse(items []entities.FAQ) httptransport.ListFAQResponse {
	resp := httptransport.ListFAQResponse{Status: "success"}
	resp.Data.Items = make([]httptransport.FAQDTO, 0, len(items))
	for _, item := range items {
		resp.Data.Items = append(resp.Data.Items, toFAQDTO(item))
	}
	return resp
}

func toPublicShopDTO(shop entities.Shop) httptransport.PublicShopDTO {
	return httptransport.PublicShopDTO{
		ShopID:            shop.ShopID,
		Slug:              shop.Slug,
		Name:              shop.Name,
		Description:       shop.Description,
		Currency:          shop.Currency,
		DepositPercentage: shop.DepositPercentage,
		MinDaysNotice:     shop.MinDaysNotice,
		Customization: httptransport.CustomizationDTO{
			PrimaryColor:    shop.Customization.PrimaryColor,
			SecondaryColor:  shop.Customization.SecondaryColor,
			BackgroundColor: shop.Customization.BackgroundColor,
			FontFamily:      shop.Customization.FontFamily,
			LogoURL:         shop.Customization.LogoURL,
			BannerURL:       shop.Customization.BannerURL,
		},
		PaymentInstructions: shop.Payment.PaymentInstructions,
	}
}

func toShopDTO(shop entities.Shop) httptransport.ShopDTO {
	return httptransport.ShopDTO{
		PublicShopDTO: toPublicShopDTO(shop),
		OwnerID:       shop.OwnerID,
		Email:         shop.Email,
		PaypalHandle:  shop.Payment.PaypalHandle,
		IsActive:      shop.IsActive,
		CreatedAt:     shop.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     shop.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toAvailabilityDTO(item entities.Availability) httptransport.AvailabilityDTO {
	return httptransport.AvailabilityDTO{
		Weekday:         int(item.Weekday),
		IsOpen:          item.IsOpen,
		DailyOrderLimit: item.DailyOrderLimit,
	}
}

func toUnavailabilityDTO(item entities.Unavailability) httptransport.UnavailabilityDTO {
	return httptransport.UnavailabilityDTO{
		UnavailabilityID: item.UnavailabilityID,
		StartDate:        item.StartDate.Format(entities.DateLayout),
		EndDate:          item.EndDate.Format(entities.DateLayout),
		Reason:           item.Reason,
	}
}

func toFAQDTO(item entities.FAQ) httptransport.FAQDTO {
	return httptransport.FAQDTO{
		FAQID:    item.FAQID,
		Question: item.Question,
		Answer:   item.Answer,
		Position: item.Position,
	}
}
