package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "cakeshop/contexts/ordering/order-service/application"
	"cakeshop/contexts/ordering/order-service/application/commands"
	"cakeshop/contexts/ordering/order-service/application/queries"
	"cakeshop/contexts/ordering/order-service/domain/entities"
	domainerrors "cakeshop/contexts/ordering/order-service/domain/errors"
	"cakeshop/contexts/ordering/order-service/ports"
	httptransport "cakeshop/contexts/ordering/order-service/transport/http"
)

type Handler struct {
	Checkout       commands.CheckoutUseCase
	RequestCustom  commands.RequestCustomOrderUseCase
	SendQuote      commands.SendQuoteUseCase
	Transition     commands.TransitionUseCase
	GetOrder       queries.GetOrderUseCase
	GetOrderByRef  queries.GetOrderByRefUseCase
	ListOrders     queries.ListOrdersUseCase
	Summary        queries.SummaryUseCase
	AvailableDates queries.AvailableDatesUseCase
	Logger         *slog.Logger
}

// CheckoutHandler godoc
// @Summary Place a catalog order
// @Description Prices the product form answers, checks the pickup date and creates the order awaiting deposit.
// @Tags orders
// @Accept json
// @Produce json
// @Param slug path string true "Shop slug"
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body httptransport.CheckoutRequest true "Checkout payload"
// @Success 201 {object} httptransport.PlacementResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/shop/v1/shops/{slug}/checkout [post]
func (h Handler) CheckoutHandler(
	ctx context.Context,
	idempotencyKey string,
	slug string,
	req httptransport.CheckoutRequest,
) (httptransport.PlacementResponse, error) {
	result, err := h.Checkout.Execute(ctx, commands.CheckoutCommand{
		IdempotencyKey: idempotencyKey,
		ShopSlug:       slug,
		ProductID:      req.ProductID,
		Selection:      req.Selection,
		Customer:       toCustomer(req.Customer),
		PickupDate:     req.PickupDate,
		Message:        req.Message,
	})
	if err != nil {
		h.logFailure("checkout", err)
		return httptransport.PlacementResponse{}, err
	}
	return toPlacementResponse(result), nil
}

// CustomOrderHandler godoc
// @Summary Request a custom cake
// @Tags orders
// @Accept json
// @Produce json
// @Param slug path string true "Shop slug"
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body httptransport.CustomOrderRequest true "Custom order payload"
// @Success 201 {object} httptransport.PlacementResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /api/shop/v1/shops/{slug}/custom-orders [post]
func (h Handler) CustomOrderHandler(
	ctx context.Context,
	idempotencyKey string,
	slug string,
	req httptransport.CustomOrderRequest,
) (httptransport.PlacementResponse, error) {
	result, err := h.RequestCustom.Execute(ctx, commands.RequestCustomOrderCommand{
		IdempotencyKey:  idempotencyKey,
		ShopSlug:        slug,
		Customer:        toCustomer(req.Customer),
		PickupDate:      req.PickupDate,
		Message:         req.Message,
		InspirationURLs: req.InspirationURLs,
		BudgetCents:     req.BudgetCents,
	})
	if err != nil {
		h.logFailure("custom_order", err)
		return httptransport.PlacementResponse{}, err
	}
	return toPlacementResponse(result), nil
}

// GetPublicOrderHandler godoc
// @Summary Order status page
// @Tags orders
// @Produce json
// @Param ref path string true "Order reference"
// @Success 200 {object} httptransport.PublicOrderResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/shop/v1/orders/{ref} [get]
func (h Handler) GetPublicOrderHandler(ctx context.Context, ref string) (httptransport.PublicOrderResponse, error) {
	view, err := h.GetOrderByRef.Execute(ctx, ref)
	if err != nil {
		return httptransport.PublicOrderResponse{}, err
	}
	resp := httptransport.PublicOrderResponse{Status: "success"}
	resp.Data.Order = toOrderDTO(view.Order)
	resp.Data.ShopName = view.ShopName
	resp.Data.ShopSlug = view.ShopSlug
	resp.Data.PaymentLink = view.PaymentLink
	resp.Data.QuoteExpired = view.QuoteExpired
	return resp, nil
}

func (h Handler) AcceptQuoteHandler(ctx context.Context, idempotencyKey string, ref string) (httptransport.OrderResponse, error) {
	return h.customerTransition(ctx, idempotencyKey, ref, entities.ActionAcceptQuote, "")
}

func (h Handler) RejectQuoteHandler(
	ctx context.Context,
	idempotencyKey string,
	ref string,
	req httptransport.ReasonRequest,
) (httptransport.OrderResponse, error) {
	return h.customerTransition(ctx, idempotencyKey, ref, entities.ActionRejectQuote, req.Reason)
}

// AvailableDatesHandler godoc
// @Summary Pickup dates of a shop
// @Description Returns per day availability with the closing reason: closed_day, unavailable, too_soon or full.
// @Tags orders
// @Produce json
// @Param slug path string true "Shop slug"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param days query int false "Number of days (max 90)"
// @Param product_id query string false "Product whose notice period applies"
// @Success 200 {object} httptransport.AvailableDatesResponse
// @Router /api/shop/v1/shops/{slug}/available-dates [get]
func (h Handler) AvailableDatesHandler(
	ctx context.Context,
	slug string,
	req httptransport.AvailableDatesRequest,
) (httptransport.AvailableDatesResponse, error) {
	slots, err := h.AvailableDates.Execute(ctx, queries.AvailableDatesQuery{
		ShopSlug:  slug,
		ProductID: req.ProductID,
		From:      req.From,
		Days:      req.Days,
	})
	if err != nil {
		return httptransport.AvailableDatesResponse{}, err
	}
	resp := httptransport.AvailableDatesResponse{
		Status: "success",
		Data:   make([]httptransport.AvailableDateDTO, 0, len(slots)),
	}
	for _, slot := range slots {
		item := httptransport.AvailableDateDTO{
			Date:      slot.Date.Format(entities.DateLayout),
			Available: slot.Available,
			Reason:    slot.Reason,
		}
		if slot.Remaining >= 0 {
			remaining := slot.Remaining
			item.Remaining = &remaining
		}
		resp.Data = append(resp.Data, item)
	}
	return resp, nil
}

func (h Handler) ListOrdersHandler(
	ctx context.Context,
	shopID string,
	req httptransport.ListOrdersRequest,
) (httptransport.ListOrdersResponse, error) {
	filter := ports.OrderFilter{ShopID: shopID, Page: req.Page, Limit: req.Limit}
	for _, status := range req.Statuses {
		if status = strings.TrimSpace(status); status != "" {
			filter.Statuses = append(filter.Statuses, entities.OrderStatus(status))
		}
	}
	if strings.TrimSpace(req.From) != "" {
		from, err := entities.ParseDate(req.From)
		if err != nil {
			return httptransport.ListOrdersResponse{}, domainerrors.ErrInvalidRequest
		}
		filter.PickupFrom = &from
	}
	if strings.TrimSpace(req.To) != "" {
		to, err := entities.ParseDate(req.To)
		if err != nil {
			return httptransport.ListOrdersResponse{}, domainerrors.ErrInvalidRequest
		}
		filter.PickupTo = &to
	}

	result, err := h.ListOrders.Execute(ctx, filter)
	if err != nil {
		return httptransport.ListOrdersResponse{}, err
	}
	resp := httptransport.ListOrdersResponse{Status: "success"}
	resp.Data.Orders = toOrderDTOs(result.Items)
	resp.Data.Pagination.Page = result.Page
	resp.Data.Pagination.Limit = result.Limit
	resp.Data.Pagination.Total = result.Total
	resp.Data.Pagination.Pages = (result.Total + result.Limit - 1) / result.Limit
	if resp.Data.Pagination.Pages == 0 {
		resp.Data.Pagination.Pages = 1
	}
	return resp, nil
}

func (h Handler) SummaryHandler(ctx context.Context, shopID string) (httptransport.SummaryResponse, error) {
	summary, err := h.Summary.Execute(ctx, shopID)
	if err != nil {
		return httptransport.SummaryResponse{}, err
	}
	resp := httptransport.SummaryResponse{Status: "success"}
	resp.Data.Counts = make(map[string]int, len(summary.Counts))
	for status, count := range summary.Counts {
		resp.Data.Counts[string(status)] = count
	}
	resp.Data.ToPrepare = toOrderDTOs(summary.ToPrepare)
	resp.Data.MonthRevenueCents = summary.MonthRevenueCents
	resp.Data.Currency = summary.Currency
	return resp, nil
}

func (h Handler) GetOrderHandler(ctx context.Context, shopID string, orderID string) (httptransport.OrderResponse, error) {
	order, err := h.GetOrder.Execute(ctx, shopID, orderID)
	if err != nil {
		return httptransport.OrderResponse{}, err
	}
	return httptransport.OrderResponse{Status: "success", Data: toOrderDTO(order)}, nil
}

// SendQuoteHandler godoc
// @Summary Quote a custom order
// @Tags dashboard-orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param order_id path string true "Order id"
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body httptransport.SendQuoteRequest true "Quote"
// @Success 200 {object} httptransport.OrderResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/dashboard/v1/orders/{order_id}/quote [post]
func (h Handler) SendQuoteHandler(
	ctx context.Context,
	idempotencyKey string,
	shopID string,
	orderID string,
	req httptransport.SendQuoteRequest,
) (httptransport.OrderResponse, error) {
	result, err := h.SendQuote.Execute(ctx, commands.SendQuoteCommand{
		IdempotencyKey: idempotencyKey,
		ShopID:         shopID,
		OrderID:        orderID,
		AmountCents:    req.AmountCents,
		DepositCents:   req.DepositCents,
		Message:        req.Message,
		ValidDays:      req.ValidDays,
	})
	if err != nil {
		h.logFailure("send_quote", err)
		return httptransport.OrderResponse{}, err
	}
	return httptransport.OrderResponse{Status: "success", Replayed: result.Replayed, Data: toOrderDTO(result.Order)}, nil
}

// MerchantTransitionHandler runs confirm-payment, ready, complete and refuse.
func (h Handler) MerchantTransitionHandler(
	ctx context.Context,
	idempotencyKey string,
	shopID string,
	orderID string,
	action entities.Action,
	req httptransport.ReasonRequest,
) (httptransport.OrderResponse, error) {
	result, err := h.Transition.Merchant(ctx, commands.TransitionCommand{
		IdempotencyKey: idempotencyKey,
		ShopID:         shopID,
		OrderID:        orderID,
		Action:         action,
		Reason:         req.Reason,
	})
	if err != nil {
		h.logFailure(string(action), err)
		return httptransport.OrderResponse{}, err
	}
	return httptransport.OrderResponse{Status: "success", Replayed: result.Replayed, Data: toOrderDTO(result.Order)}, nil
}

func (h Handler) customerTransition(
	ctx context.Context,
	idempotencyKey string,
	ref string,
	action entities.Action,
	reason string,
) (httptransport.OrderResponse, error) {
	result, err := h.Transition.Customer(ctx, commands.TransitionCommand{
		IdempotencyKey: idempotencyKey,
		Ref:            ref,
		Action:         action,
		Reason:         reason,
	})
	if err != nil {
		h.logFailure(string(action), err)
		return httptransport.OrderResponse{}, err
	}
	return httptransport.OrderResponse{Status: "success", Replayed: result.Replayed, Data: toOrderDTO(result.Order)}, nil
}

func (h Handler) logFailure(operation string, err error) {
	application.ResolveLogger(h.Logger).Warn("order request failed",
		"event", "http_order_request_failed",
		"module", "ordering/order-service",
		"layer", "transport",
		"operation", operation,
		"error", err.Error(),
	)
}

func toCustomer(dto httptransport.CustomerDTO) entities.Customer {
	return entities.Customer{Name: dto.Name, Email: dto.Email, Phone: dto.Phone}
}

func toPlacementResponse(result commands.PlacementResult) httptransport.PlacementResponse {
	resp := httptransport.PlacementResponse{Status: "success", Replayed: result.Replayed}
	resp.Data.Order = toOrderDTO(result.Order)
	resp.Data.PaymentLink = result.PaymentLink
	return resp
}

func toOrderDTOs(items []entities.Order) []httptransport.OrderDTO {
	out := make([]httptransport.OrderDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toOrderDTO(item))
	}
	return out
}

func toOrderDTO(order entities.Order) httptransport.OrderDTO {
	lines := make([]httptransport.OrderLineDTO, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, httptransport.OrderLineDTO{Label: line.Label, Value: line.Value, PriceCents: line.PriceCents})
	}
	dto := httptransport.OrderDTO{
		OrderID:     order.OrderID,
		Ref:         order.Ref,
		Kind:        string(order.Kind),
		Status:      string(order.Status),
		ProductID:   order.ProductID,
		ProductName: order.ProductName,
		Lines:       lines,
		Customer: httptransport.CustomerDTO{
			Name:  order.Customer.Name,
			Email: order.Customer.Email,
			Phone: order.Customer.Phone,
		},
		PickupDate:        order.PickupDate.Format(entities.DateLayout),
		Message:           order.Message,
		InspirationURLs:   order.InspirationURLs,
		BudgetCents:       order.BudgetCents,
		TotalCents:        order.TotalCents,
		DepositCents:      order.DepositCents,
		Currency:          order.Currency,
		RefusalReason:     order.RefusalReason,
		RefusedBy:         string(order.RefusedBy),
		PaymentDeclaredAt: formatTime(order.PaymentDeclaredAt),
		ConfirmedAt:       formatTime(order.ConfirmedAt),
		ReadyAt:           formatTime(order.ReadyAt),
		CompletedAt:       formatTime(order.CompletedAt),
		CreatedAt:         order.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         order.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if order.Quote != nil {
		dto.Quote = &httptransport.QuoteDTO{
			AmountCents:  order.Quote.AmountCents,
			DepositCents: order.Quote.DepositCents,
			Message:      order.Quote.Message,
			ExpiresAt:    order.Quote.ExpiresAt.UTC().Format(time.RFC3339),
		}
	}
	return dto
}

func formatTime(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
