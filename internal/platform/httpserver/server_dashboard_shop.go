package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	shophttp "cakeshop/contexts/shop/shop-service/transport/http"
)

func (s *Server) registerDashboardShopRoutes() {
	s.handle("POST "+dashboardPrefix+"/shop", s.authenticated(s.handleCreateShop))
	s.handle("GET "+dashboardPrefix+"/shop", s.authenticated(s.handleGetOwnShop))
	s.handle("PUT "+dashboardPrefix+"/shop/profile", s.authenticated(s.handleUpdateProfile))
	s.handle("PUT "+dashboardPrefix+"/shop/customization", s.authenticated(s.handleUpdateCustomization))
	s.handle("PUT "+dashboardPrefix+"/shop/payment", s.authenticated(s.handleUpdatePayment))
	s.handle("PUT "+dashboardPrefix+"/shop/active", s.authenticated(s.handleSetShopActive))

	s.handle("GET "+dashboardPrefix+"/shop/schedule", s.authenticated(s.handleGetSchedule))
	s.handle("PUT "+dashboardPrefix+"/shop/schedule/{weekday}", s.authenticated(s.handleSetAvailability))
	s.handle("POST "+dashboardPrefix+"/shop/unavailabilities", s.authenticated(s.handleAddUnavailability))
	s.handle("DELETE "+dashboardPrefix+"/shop/unavailabilities/{id}", s.authenticated(s.handleRemoveUnavailability))

	s.handle("GET "+dashboardPrefix+"/faq", s.authenticated(s.handleListOwnFAQ))
	s.handle("POST "+dashboardPrefix+"/faq", s.authenticated(s.handleCreateFAQ))
	s.handle("PUT "+dashboardPrefix+"/faq/order", s.authenticated(s.handleReorderFAQ))
	s.handle("PUT "+dashboardPrefix+"/faq/{faq_id}", s.authenticated(s.handleUpdateFAQ))
	s.handle("DELETE "+dashboardPrefix+"/faq/{faq_id}", s.authenticated(s.handleDeleteFAQ))
}

func owner(r *http.Request) string {
	principal, _ := principalFrom(r.Context())
	return principal.Subject
}

func (s *Server) handleCreateShop(w http.ResponseWriter, r *http.Request) {
	var req shophttp.CreateShopRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err, writeShopError)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		principal, _ := principalFrom(r.Context())
		req.Email = principal.Email
	}
	resp, err := s.modules.Shops.Handler.CreateShopHandler(r.Context(), idempotencyKey(r), owner(r), req)
	if err != nil {
		writeShopDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetOwnShop(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Shops.Handler.GetOwnShopHandler(r.Context(), owner(r))
	if err != nil {
		writeShopDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req shophttp.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err, writeShopError)
		return
	}
	resp, err := s.modules.Shops.Handler.UpdateProfileHandler(r.Context(), idempotencyKey(r), owner(r), req)
	if err != nil {
		writeShopDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateCustomization(w http.ResponseWriter, r *http.Request) {
	var req shophttp.UpdateCustomizationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err, writeShopError)
		return
	}
	resp, err := s.modules.Shops.Handler.UpdateCustomizationHandler(r.Context(), idempotencyKey(r), owner(r), req)
	if err != nil {
		writeShopDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req shophttp.UpdatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err, writeShopError)
		return
	}
	resp, err := s.modules.Shops.Handler.UpdatePaymentHandler(r.Context(), idempotencyKey(r), owner(r), req)
	if err != nil {
		writeShopDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetShopActive(w http.ResponseWriter, r *http.Request) {
	var req shophttp.SetActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err, writeShopError)
		return
	}
	resp, err := s.modules.Shops.Handler.SetActiveHandler(r.Context(), idempotencyKey(r), owner(r), req)
	if err != nil {
		writeShopDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Shops.Handler.GetScheduleHandler(r.Context(), owner(r))
	if err != nil {
		writeShopDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	weekday, err := strconv.Atoi(r.PathValue("weekday"))
	if err != nil {
		writeShopError(w, http.StatusBadRequest, "invalid_weekday", "weekday must be an integer between 0 and 6")
		return
	}
	var req shophttp.SetAvailabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err, writeShopError)
		return
	}
	resp, err := s.modules.Shops.Handler.SetAvailabilityHandler(r.Context(), idempotencyKey(r), owner(r), weekday, req)
	if err != nil {
		writeShopDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddUnavailability(w http.ResponseWriter, r *http.Request) {
	var req shophttp.AddUnavailabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err, writeShopError)
		return
	}
	resp, err := s.modules.Shops.Handler.AddUnavailabilityHandler(r.Context(), idempotencyKey(r), owner(r), req)
	if err != nil {
		writeShopDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRemoveUnavailability(w http.ResponseWriter, r *http.Request) {
	if err := s.modules.Shops.Handler.RemoveUnavailabilityHandler(r.Context(), idempotencyKey(r), owner(r), r.PathValue("id")); err != nil {
		writeShopDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListOwnFAQ(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Shops.Handler.ListOwnFAQHandler(r.Context(), owner(r))
	if err != nil {
		writeShopDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateFAQ(w http.ResponseWriter, r *http.Request) {
	var req shophttp.FAQRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err, writeShopError)
		return
	}
	resp, err := s.modules.Shops.Handler.CreateFAQHandler(r.Context(), idempotencyKey(r), owner(r), req)
	if err != nil {
		writeShopDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateFAQ(w http.ResponseWriter, r *http.Request) {
	var req shophttp.FAQRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err, writeShopError)
		return
	}
	resp, err := s.modules.Shops.Handler.UpdateFAQHandler(r.Context(), idempotencyKey(r), owner(r), r.PathValue("faq_id"), req)
	if err != nil {
		writeShopDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteFAQ(w http.ResponseWriter, r *http.Request) {
	if err := s.modules.Shops.Handler.DeleteFAQHandler(r.Context(), idempotencyKey(r), owner(r), r.PathValue("faq_id")); err != nil {
		writeShopDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorderFAQ(w http.ResponseWriter, r *http.Request) {
	var req shophttp.ReorderFAQRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err, writeShopError)
		return
	}
	resp, err := s.modules.Shops.Handler.ReorderFAQHandler(r.Context(), idempotencyKey(r), owner(r), req)
	if err != nil {
		writeShopDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
