package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"cakeshop/contexts/ordering/order-service/domain/entities"
	orderhttp "cakeshop/contexts/ordering/order-service/transport/http"
)

func (s *Server) registerDashboardOrderRoutes() {
	s.handle("GET "+dashboardPrefix+"/orders", s.authenticated(s.withShop(s.handleListOrders)))
	s.handle("GET "+dashboardPrefix+"/orders/summary", s.authenticated(s.withShop(s.handleOrderSummary)))
	s.handle("GET "+dashboardPrefix+"/orders/{order_id}", s.authenticated(s.withShop(s.handleGetOrder)))
	s.handle("POST "+dashboardPrefix+"/orders/{order_id}/quote", s.authenticated(s.withShop(s.handleSendQuote)))
	s.handle("POST "+dashboardPrefix+"/orders/{order_id}/confirm-payment",
		s.authenticated(s.withShop(s.merchantTransition(entities.ActionConfirmPayment))))
	s.handle("POST "+dashboardPrefix+"/orders/{order_id}/ready",
		s.authenticated(s.withShop(s.merchantTransition(entities.ActionMarkReady))))
	s.handle("POST "+dashboardPrefix+"/orders/{order_id}/complete",
		s.authenticated(s.withShop(s.merchantTransition(entities.ActionComplete))))
	s.handle("POST "+dashboardPrefix+"/orders/{order_id}/refuse",
		s.authenticated(s.withShop(s.merchantTransition(entities.ActionRefuse))))
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request, shopID string) {
	query := r.URL.Query()
	req := orderhttp.ListOrdersRequest{
		From: query.Get("from"),
		To:   query.Get("to"),
	}
	for _, raw := range query["status"] {
		for _, status := range strings.Split(raw, ",") {
			if status = strings.TrimSpace(status); status != "" {
				req.Statuses = append(req.Statuses, status)
			}
		}
	}
	for name, target := range map[string]*int{"page": &req.Page, "limit": &req.Limit} {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			writeOrderError(w, http.StatusBadRequest, "invalid_"+name, name+" must be an integer")
			return
		}
		*target = value
	}

	resp, err := s.modules.Orders.Handler.ListOrdersHandler(r.Context(), shopID, req)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOrderSummary(w http.ResponseWriter, r *http.Request, shopID string) {
	resp, err := s.modules.Orders.Handler.SummaryHandler(r.Context(), shopID)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request, shopID string) {
	resp, err := s.modules.Orders.Handler.GetOrderHandler(r.Context(), shopID, r.PathValue("order_id"))
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSendQuote(w http.ResponseWriter, r *http.Request, shopID string) {
	var req orderhttp.SendQuoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err, writeOrderError)
		return
	}
	resp, err := s.modules.Orders.Handler.SendQuoteHandler(r.Context(), idempotencyKey(r), shopID, r.PathValue("order_id"), req)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) merchantTransition(action entities.Action) shopHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, shopID string) {
		var req orderhttp.ReasonRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDecodeError(w, err, writeOrderError)
			return
		}
		resp, err := s.modules.Orders.Handler.MerchantTransitionHandler(r.Context(), idempotencyKey(r), shopID, r.PathValue("order_id"), action, req)
		if err != nil {
			writeOrderDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
