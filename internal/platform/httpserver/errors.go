package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	ordererrors "cakeshop/contexts/ordering/order-service/domain/errors"
	orderhttp "cakeshop/contexts/ordering/order-service/transport/http"
	catalogerrors "cakeshop/contexts/shop/catalog-service/domain/errors"
	cataloghttp "cakeshop/contexts/shop/catalog-service/transport/http"
	shoperrors "cakeshop/contexts/shop/shop-service/domain/errors"
	shophttp "cakeshop/contexts/shop/shop-service/transport/http"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

// writeDecodeError answers a body that could not be read, in the error
// shape of the calling context.
func writeDecodeError(w http.ResponseWriter, err error, write func(http.ResponseWriter, int, string, string)) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		write(w, http.StatusRequestEntityTooLarge, "payload_too_large",
			fmt.Sprintf("request body must not exceed %d bytes", tooLarge.Limit))
		return
	}
	write(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
}

func writeShopError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, shophttp.ErrorResponse{Code: code, Message: message})
}

func writeShopDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shoperrors.ErrShopNotFound):
		writeShopError(w, http.StatusNotFound, "shop_not_found", err.Error())
	case errors.Is(err, shoperrors.ErrUnavailabilityNotFound),
		errors.Is(err, shoperrors.ErrFAQNotFound):
		writeShopError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shoperrors.ErrIdempotencyKeyRequired):
		writeShopError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, shoperrors.ErrIdempotencyConflict):
		writeShopError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, shoperrors.ErrShopAlreadyExists):
		writeShopError(w, http.StatusConflict, "shop_already_exists", err.Error())
	case errors.Is(err, shoperrors.ErrSlugTaken):
		writeShopError(w, http.StatusConflict, "slug_taken", err.Error())
	case errors.Is(err, shoperrors.ErrShopInactive):
		writeShopError(w, http.StatusConflict, "shop_inactive", err.Error())
	case errors.Is(err, shoperrors.ErrForbidden):
		writeShopError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, shoperrors.ErrInvalidSlug),
		errors.Is(err, shoperrors.ErrInvalidColor),
		errors.Is(err, shoperrors.ErrInvalidFont),
		errors.Is(err, shoperrors.ErrInvalidCurrency),
		errors.Is(err, shoperrors.ErrInvalidPaypalHandle),
		errors.Is(err, shoperrors.ErrInvalidDeposit),
		errors.Is(err, shoperrors.ErrInvalidWeekday),
		errors.Is(err, shoperrors.ErrInvalidDateRange),
		errors.Is(err, shoperrors.ErrInvalidFAQOrder),
		errors.Is(err, shoperrors.ErrInvalidRequest):
		writeShopError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeShopError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeCatalogError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, cataloghttp.ErrorResponse{Code: code, Message: message})
}

func writeCatalogDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalogerrors.ErrProductNotFound):
		writeCatalogError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, catalogerrors.ErrProductInactive):
		writeCatalogError(w, http.StatusConflict, "product_inactive", err.Error())
	case errors.Is(err, catalogerrors.ErrIdempotencyKeyRequired):
		writeCatalogError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, catalogerrors.ErrIdempotencyConflict):
		writeCatalogError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, catalogerrors.ErrInvalidForm):
		writeCatalogError(w, http.StatusBadRequest, "invalid_form", err.Error())
	case errors.Is(err, catalogerrors.ErrInvalidPrice),
		errors.Is(err, catalogerrors.ErrInvalidSelection),
		errors.Is(err, catalogerrors.ErrRequiredFieldMissing),
		errors.Is(err, catalogerrors.ErrInvalidRequest):
		writeCatalogError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeCatalogError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeOrderError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, orderhttp.ErrorResponse{Code: code, Message: message})
}

func writeOrderDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ordererrors.ErrShopNotFound):
		writeOrderError(w, http.StatusNotFound, "shop_not_found", err.Error())
	case errors.Is(err, ordererrors.ErrProductNotFound):
		writeOrderError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, ordererrors.ErrOrderNotFound):
		writeOrderError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, ordererrors.ErrShopInactive):
		writeOrderError(w, http.StatusConflict, "shop_inactive", err.Error())
	case errors.Is(err, ordererrors.ErrProductUnavailable):
		writeOrderError(w, http.StatusConflict, "product_unavailable", err.Error())
	case errors.Is(err, ordererrors.ErrSlotUnavailable):
		writeOrderError(w, http.StatusUnprocessableEntity, "slot_unavailable", err.Error())
	case errors.Is(err, ordererrors.ErrQuoteExpired):
		writeOrderError(w, http.StatusGone, "quote_expired", err.Error())
	case errors.Is(err, ordererrors.ErrInvalidTransition):
		writeOrderError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, ordererrors.ErrConcurrentUpdate):
		writeOrderError(w, http.StatusConflict, "concurrent_update", err.Error())
	case errors.Is(err, ordererrors.ErrIdempotencyKeyRequired):
		writeOrderError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, ordererrors.ErrIdempotencyConflict):
		writeOrderError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, ordererrors.ErrForbidden):
		writeOrderError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, ordererrors.ErrInvalidPickupDate):
		writeOrderError(w, http.StatusBadRequest, "invalid_pickup_date", err.Error())
	case errors.Is(err, ordererrors.ErrInvalidSelection):
		writeOrderError(w, http.StatusBadRequest, "invalid_selection", err.Error())
	case errors.Is(err, ordererrors.ErrInvalidQuote):
		writeOrderError(w, http.StatusBadRequest, "invalid_quote", err.Error())
	case errors.Is(err, ordererrors.ErrInvalidRequest):
		writeOrderError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ordererrors.ErrRefGenerationFailed):
		writeOrderError(w, http.StatusServiceUnavailable, "ref_unavailable", err.Error())
	default:
		writeOrderError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
