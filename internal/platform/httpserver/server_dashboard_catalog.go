package httpserver

import (
	"net/http"

	cataloghttp "cakeshop/contexts/shop/catalog-service/transport/http"
)

func (s *Server) registerDashboardCatalogRoutes() {
	s.handle("GET "+dashboardPrefix+"/products", s.authenticated(s.withShop(s.handleListOwnProducts)))
	s.handle("POST "+dashboardPrefix+"/products", s.authenticated(s.withShop(s.handleCreateProduct)))
	s.handle("GET "+dashboardPrefix+"/products/{product_id}", s.authenticated(s.withShop(s.handleGetOwnProduct)))
	s.handle("PUT "+dashboardPrefix+"/products/{product_id}", s.authenticated(s.withShop(s.handleUpdateProduct)))
	s.handle("DELETE "+dashboardPrefix+"/products/{product_id}", s.authenticated(s.withShop(s.handleDeleteProduct)))
	s.handle("PUT "+dashboardPrefix+"/products/{product_id}/form", s.authenticated(s.withShop(s.handleSetProductForm)))
	s.handle("PUT "+dashboardPrefix+"/products/{product_id}/active", s.authenticated(s.withShop(s.handleSetProductActive)))
}

type shopHandlerFunc func(w http.ResponseWriter, r *http.Request, shopID string)

// withShop resolves the shop owned by the authenticated subject.
func (s *Server) withShop(next shopHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop, err := s.modules.Shops.Service.GetShopByOwner(r.Context(), owner(r))
		if err != nil {
			writeShopDomainError(w, err)
			return
		}
		next(w, r, shop.ShopID)
	}
}

func (s *Server) handleListOwnProducts(w http.ResponseWriter, r *http.Request, shopID string) {
	req, ok := listProductsRequest(w, r)
	if !ok {
		return
	}
	resp, err := s.modules.Catalog.Handler.ListProductsHandler(r.Context(), shopID, true, req)
	if err != nil {
		writeCatalogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request, shopID string) {
	var req cataloghttp.ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err, writeCatalogError)
		return
	}
	resp, err := s.modules.Catalog.Handler.CreateProductHandler(r.Context(), idempotencyKey(r), shopID, req)
	if err != nil {
		writeCatalogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetOwnProduct(w http.ResponseWriter, r *http.Request, shopID string) {
	resp, err := s.modules.Catalog.Handler.GetProductHandler(r.Context(), shopID, r.PathValue("product_id"), true)
	if err != nil {
		writeCatalogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request, shopID string) {
	var req cataloghttp.ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err, writeCatalogError)
		return
	}
	resp, err := s.modules.Catalog.Handler.UpdateProductHandler(r.Context(), idempotencyKey(r), shopID, r.PathValue("product_id"), req)
	if err != nil {
		writeCatalogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request, shopID string) {
	if err := s.modules.Catalog.Handler.DeleteProductHandler(r.Context(), idempotencyKey(r), shopID, r.PathValue("product_id")); err != nil {
		writeCatalogDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetProductForm(w http.ResponseWriter, r *http.Request, shopID string) {
	var req cataloghttp.SetProductFormRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err, writeCatalogError)
		return
	}
	resp, err := s.modules.Catalog.Handler.SetProductFormHandler(r.Context(), idempotencyKey(r), shopID, r.PathValue("product_id"), req)
	if err != nil {
		writeCatalogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetProductActive(w http.ResponseWriter, r *http.Request, shopID string) {
	var req cataloghttp.SetProductActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err, writeCatalogError)
		return
	}
	resp, err := s.modules.Catalog.Handler.SetProductActiveHandler(r.Context(), idempotencyKey(r), shopID, r.PathValue("product_id"), req)
	if err != nil {
		writeCatalogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
