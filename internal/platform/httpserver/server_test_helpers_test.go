package httpserver

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	orderservice "cakeshop/contexts/ordering/order-service"
	ordererrors "cakeshop/contexts/ordering/order-service/domain/errors"
	orderports "cakeshop/contexts/ordering/order-service/ports"
	catalogservice "cakeshop/contexts/shop/catalog-service"
	shopservice "cakeshop/contexts/shop/shop-service"
	shopports "cakeshop/contexts/shop/shop-service/ports"
	"cakeshop/internal/platform/metrics"
)

const testSecret = "test-secret"

type missingShops struct{}

func (missingShops) FindShopBySlug(context.Context, string) (orderports.ShopSnapshot, error) {
	return orderports.ShopSnapshot{}, ordererrors.ErrShopNotFound
}

func (missingShops) FindShopByID(context.Context, string) (orderports.ShopSnapshot, error) {
	return orderports.ShopSnapshot{}, ordererrors.ErrShopNotFound
}

func (missingShops) PaymentLink(context.Context, string, int64) (string, error) {
	return "", nil
}

type missingCatalog struct{}

func (missingCatalog) GetProduct(context.Context, string, string) (orderports.ProductSnapshot, error) {
	return orderports.ProductSnapshot{}, ordererrors.ErrProductNotFound
}

func (missingCatalog) PriceProduct(context.Context, string, string, map[string]any) (orderports.ProductSnapshot, error) {
	return orderports.ProductSnapshot{}, ordererrors.ErrProductNotFound
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	modules := Modules{
		Shops:   shopservice.NewInMemoryModule(logger),
		Catalog: catalogservice.NewInMemoryModule(logger),
		Orders:  orderservice.NewInMemoryModule(missingShops{}, missingCatalog{}, nil, logger),
	}
	if opts.JWTSecret == "" {
		opts.JWTSecret = testSecret
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRegistry("test")
	}
	opts.Logger = logger
	return New(modules, opts)
}

func tokenFor(t *testing.T, subject string) string {
	t.Helper()
	token, err := NewAuthenticator(testSecret).Issue(subject, subject+"@example.com", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func createShop(t *testing.T, server *Server, ownerID string, slug string) string {
	t.Helper()
	shop, err := server.modules.Shops.Service.CreateShop(context.Background(), "idem-"+slug, shopports.CreateShopInput{
		OwnerID: ownerID,
		Slug:    slug,
		Name:    "Shop " + slug,
		Email:   ownerID + "@example.com",
	})
	if err != nil {
		t.Fatalf("create shop: %v", err)
	}
	return shop.ShopID
}

func doRequest(server *Server, method string, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func withHeader(headers map[string]string, name string, value string) map[string]string {
	out := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		out[k] = v
	}
	out[name] = value
	return out
}

