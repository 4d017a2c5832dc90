package httpserver

import (
	"net/http"
	"strconv"

	orderhttp "cakeshop/contexts/ordering/order-service/transport/http"
	cataloghttp "cakeshop/contexts/shop/catalog-service/transport/http"
)

func (s *Server) registerStorefrontRoutes() {
	s.handle("GET "+publicPrefix+"/shops/{slug}", s.handlePublicShop)
	s.handle("GET "+publicPrefix+"/shops/{slug}/faq", s.handlePublicFAQ)
	s.handle("GET "+publicPrefix+"/shops/{slug}/products", s.handlePublicProducts)
	s.handle("GET "+publicPrefix+"/shops/{slug}/products/{product_id}", s.handlePublicProduct)
	s.handle("GET "+publicPrefix+"/shops/{slug}/available-dates", s.handleAvailableDates)
	s.handle("POST "+publicPrefix+"/shops/{slug}/checkout",
		s.rateLimited("checkout", s.handleCheckout))
	s.handle("POST "+publicPrefix+"/shops/{slug}/custom-orders",
		s.rateLimited("custom_order", s.handleCustomOrder))
	s.handle("GET "+publicPrefix+"/orders/{ref}", s.handlePublicOrder)
	s.handle("POST "+publicPrefix+"/orders/{ref}/accept-quote",
		s.rateLimited("accept_quote", s.handleAcceptQuote))
	s.handle("POST "+publicPrefix+"/orders/{ref}/reject-quote",
		s.rateLimited("reject_quote", s.handleRejectQuote))
}

func (s *Server) handlePublicShop(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Shops.Handler.GetPublicShopHandler(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeShopDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePublicFAQ(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Shops.Handler.ListPublicFAQHandler(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeShopDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePublicProducts(w http.ResponseWriter, r *http.Request) {
	shop, err := s.modules.Shops.Service.GetShopBySlug(r.Context(), r.PathValue("slug"), false)
	if err != nil {
		writeShopDomainError(w, err)
		return
	}
	req, ok := listProductsRequest(w, r)
	if !ok {
		return
	}
	resp, err := s.modules.Catalog.Handler.ListProductsHandler(r.Context(), shop.ShopID, false, req)
	if err != nil {
		writeCatalogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePublicProduct(w http.ResponseWriter, r *http.Request) {
	shop, err := s.modules.Shops.Service.GetShopBySlug(r.Context(), r.PathValue("slug"), false)
	if err != nil {
		writeShopDomainError(w, err)
		return
	}
	resp, err := s.modules.Catalog.Handler.GetProductHandler(r.Context(), shop.ShopID, r.PathValue("product_id"), false)
	if err != nil {
		writeCatalogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAvailableDates(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := orderhttp.AvailableDatesRequest{
		ProductID: query.Get("product_id"),
		From:      query.Get("from"),
	}
	if raw := query.Get("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			writeOrderError(w, http.StatusBadRequest, "invalid_days", "days must be an integer")
			return
		}
		req.Days = days
	}
	resp, err := s.modules.Orders.Handler.AvailableDatesHandler(r.Context(), r.PathValue("slug"), req)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req orderhttp.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err, writeOrderError)
		return
	}
	resp, err := s.modules.Orders.Handler.CheckoutHandler(r.Context(), idempotencyKey(r), r.PathValue("slug"), req)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, placementStatus(resp), resp)
}

func (s *Server) handleCustomOrder(w http.ResponseWriter, r *http.Request) {
	var req orderhttp.CustomOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err, writeOrderError)
		return
	}
	resp, err := s.modules.Orders.Handler.CustomOrderHandler(r.Context(), idempotencyKey(r), r.PathValue("slug"), req)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, placementStatus(resp), resp)
}

func (s *Server) handlePublicOrder(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Orders.Handler.GetPublicOrderHandler(r.Context(), r.PathValue("ref"))
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAcceptQuote(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Orders.Handler.AcceptQuoteHandler(r.Context(), idempotencyKey(r), r.PathValue("ref"))
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRejectQuote(w http.ResponseWriter, r *http.Request) {
	var req orderhttp.ReasonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err, writeOrderError)
		return
	}
	resp, err := s.modules.Orders.Handler.RejectQuoteHandler(r.Context(), idempotencyKey(r), r.PathValue("ref"), req)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func placementStatus(resp orderhttp.PlacementResponse) int {
	if resp.Replayed {
		return http.StatusOK
	}
	return http.StatusCreated
}

func listProductsRequest(w http.ResponseWriter, r *http.Request) (cataloghttp.ListProductsRequest, bool) {
	query := r.URL.Query()
	req := cataloghttp.ListProductsRequest{Category: query.Get("category")}
	for name, target := range map[string]*int{"page": &req.Page, "limit": &req.Limit} {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			writeCatalogError(w, http.StatusBadRequest, "invalid_"+name, name+" must be an integer")
			return req, false
		}
		*target = value
	}
	return req, true
}
