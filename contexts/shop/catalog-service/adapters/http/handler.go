package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"cakeshop/contexts/shop/catalog-service/application"
	"cakeshop/contexts/shop/catalog-service/domain/entities"
	"cakeshop/contexts/shop/catalog-service/ports"
	httptransport "cakeshop/contexts/shop/catalog-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// ListProductsHandler lists the storefront catalog of a shop, or the full
// dashboard catalog when includeInactive is set.
func (h Handler) ListProductsHandler(
	ctx context.Context,
	shopID string,
	includeInactive bool,
	req httptransport.ListProductsRequest,
) (httptransport.ListProductsResponse, error) {
	filter := ports.ProductFilter{
		ShopID:          shopID,
		IncludeInactive: includeInactive,
		Category:        req.Category,
		Page:            req.Page,
		Limit:           req.Limit,
	}
	items, total, err := h.Service.ListProducts(ctx, filter)
	if err != nil {
		return httptransport.ListProductsResponse{}, err
	}

	resp := httptransport.ListProductsResponse{Status: "success"}
	resp.Data.Products = make([]httptransport.ProductDTO, 0, len(items))
	for _, item := range items {
		resp.Data.Products = append(resp.Data.Products, toProductDTO(item))
	}
	resp.Data.Pagination.Page = req.Page
	if resp.Data.Pagination.Page <= 0 {
		resp.Data.Pagination.Page = 1
	}
	resp.Data.Pagination.Limit = req.Limit
	if resp.Data.Pagination.Limit <= 0 {
		resp.Data.Pagination.Limit = 50
	}
	if resp.Data.Pagination.Limit > 100 {
		resp.Data.Pagination.Limit = 100
	}
	resp.Data.Pagination.Total = total
	resp.Data.Pagination.Pages = total / resp.Data.Pagination.Limit
	if total%resp.Data.Pagination.Limit != 0 {
		resp.Data.Pagination.Pages++
	}
	if resp.Data.Pagination.Pages == 0 {
		resp.Data.Pagination.Pages = 1
	}
	return resp, nil
}

func (h Handler) GetProductHandler(ctx context.Context, shopID string, productID string, includeInactive bool) (httptransport.ProductResponse, error) {
	product, err := h.Service.GetProduct(ctx, shopID, productID, includeInactive)
	if err != nil {
		return httptransport.ProductResponse{}, err
	}
	return httptransport.ProductResponse{Status: "success", Data: toProductDTO(product)}, nil
}

func (h Handler) CreateProductHandler(
	ctx context.Context,
	idempotencyKey string,
	shopID string,
	req httptransport.ProductRequest,
) (httptransport.ProductResponse, error) {
	product, err := h.Service.CreateProduct(ctx, idempotencyKey, shopID, toProductInput(req))
	if err != nil {
		return httptransport.ProductResponse{}, err
	}
	return httptransport.ProductResponse{Status: "success", Data: toProductDTO(product)}, nil
}

func (h Handler) UpdateProductHandler(
	ctx context.Context,
	idempotencyKey string,
	shopID string,
	productID string,
	req httptransport.ProductRequest,
) (httptransport.ProductResponse, error) {
	product, err := h.Service.UpdateProduct(ctx, idempotencyKey, shopID, productID, toProductInput(req))
	if err != nil {
		return httptransport.ProductResponse{}, err
	}
	return httptransport.ProductResponse{Status: "success", Data: toProductDTO(product)}, nil
}

func (h Handler) SetProductActiveHandler(
	ctx context.Context,
	idempotencyKey string,
	shopID string,
	productID string,
	req httptransport.SetProductActiveRequest,
) (httptransport.ProductResponse, error) {
	product, err := h.Service.SetProductActive(ctx, idempotencyKey, shopID, productID, req.IsActive)
	if err != nil {
		return httptransport.ProductResponse{}, err
	}
	return httptransport.ProductResponse{Status: "success", Data: toProductDTO(product)}, nil
}

func (h Handler) SetProductFormHandler(
	ctx context.Context,
	idempotencyKey string,
	shopID string,
	productID string,
	req httptransport.SetProductFormRequest,
) (httptransport.ProductResponse, error) {
	fields := make([]entities.FormField, 0, len(req.Fields))
	for _, field := range req.Fields {
		options := make([]entities.FieldOption, 0, len(field.Options))
		for _, option := range field.Options {
			options = append(options, entities.FieldOption{
				OptionID:   option.OptionID,
				Label:      option.Label,
				PriceCents: option.PriceCents,
			})
		}
		fields = append(fields, entities.FormField{
			FieldID:    field.FieldID,
			Label:      field.Label,
			Type:       entities.FieldType(field.Type),
			Required:   field.Required,
			Options:    options,
			PriceCents: field.PriceCents,
		})
	}
	product, err := h.Service.SetProductForm(ctx, idempotencyKey, shopID, productID, fields)
	if err != nil {
		return httptransport.ProductResponse{}, err
	}
	return httptransport.ProductResponse{Status: "success", Data: toProductDTO(product)}, nil
}

func (h Handler) DeleteProductHandler(ctx context.Context, idempotencyKey string, shopID string, productID string) error {
	return h.Service.DeleteProduct(ctx, idempotencyKey, shopID, productID)
}

func toProductInput(req httptransport.ProductRequest) ports.ProductInput {
	return ports.ProductInput{
		Name:           req.Name,
		Description:    req.Description,
		BasePriceCents: req.BasePriceCents,
		ImageURL:       req.ImageURL,
		Category:       req.Category,
		MinDaysNotice:  req.MinDaysNotice,
		IsActive:       req.IsActive,
	}
}

func toProductDTO(product entities.Product) httptransport.ProductDTO {
	form := make([]httptransport.FormFieldDTO, 0, len(product.Form))
	for _, field := range product.Form {
		dto := httptransport.FormFieldDTO{
			FieldID:    field.FieldID,
			Label:      field.Label,
			Type:       string(field.Type),
			Required:   field.Required,
			PriceCents: field.PriceCents,
		}
		for _, option := range field.Options {
			dto.Options = append(dto.Options, httptransport.FieldOptionDTO{
				OptionID:   option.OptionID,
				Label:      option.Label,
				PriceCents: option.PriceCents,
			})
		}
		form = append(form, dto)
	}
	return httptransport.ProductDTO{
		ProductID:      product.ProductID,
		Name:           product.Name,
		Description:    product.Description,
		BasePriceCents: product.BasePriceCents,
		ImageURL:       product.ImageURL,
		Category:       product.Category,
		MinDaysNotice:  product.MinDaysNotice,
		IsActive:       product.IsActive,
		Position:       product.Position,
		Form:           form,
		CreatedAt:      product.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      product.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
