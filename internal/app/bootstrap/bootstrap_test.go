package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mailerentities "cakeshop/contexts/notifications/mailer-service/domain/entities"
	orderhttp "cakeshop/contexts/ordering/order-service/transport/http"
	cataloghttp "cakeshop/contexts/shop/catalog-service/transport/http"
	shophttp "cakeshop/contexts/shop/shop-service/transport/http"
	"cakeshop/internal/platform/config"
	"cakeshop/internal/platform/httpserver"
)

const testSecret = "bootstrap-test-secret"

func newTestAPI(t *testing.T) *APIApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := NewAPI(context.Background(), config.Config{
		ServiceName:        "cakeshop-test",
		JWTSecret:          testSecret,
		PublicBaseURL:      "https://shop.example.com",
		OrderRefPrefix:     "CMD",
		MailLocale:         "fr",
		RateLimitRPS:       100,
		RateLimitBurst:     100,
		WorkerPollInterval: time.Second,
		ReminderCron:       "0 8 * * *",
		EnableQuoteExpiry:  true,
	}, logger)
	if err != nil {
		t.Fatalf("build api: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func merchantToken(t *testing.T, subject string) string {
	t.Helper()
	token, err := httpserver.NewAuthenticator(testSecret).Issue(subject, subject+"@example.com", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func call(t *testing.T, handler http.Handler, method string, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func merchant(token string, key string) map[string]string {
	headers := map[string]string{"Authorization": "Bearer " + token}
	if key != "" {
		headers["Idempotency-Key"] = key
	}
	return headers
}

func customer(key string) map[string]string {
	return map[string]string{"Idempotency-Key": key, "X-Forwarded-For": "203.0.113.7"}
}

// openPickupDate returns a date past the default notice period that is not
// a Sunday, the day new shops are closed.
func openPickupDate() string {
	date := time.Now().UTC().AddDate(0, 0, 5)
	if date.Weekday() == time.Sunday {
		date = date.AddDate(0, 0, 1)
	}
	return date.Format("2006-01-02")
}

func setupShopWithProduct(t *testing.T, handler http.Handler, token string) string {
	t.Helper()
	rr := call(t, handler, http.MethodPost, "/api/dashboard/v1/shop", shophttp.CreateShopRequest{
		Slug:  "la-fraise",
		Name:  "La Fraise",
		Email: "atelier@la-fraise.example",
	}, merchant(token, "shop-1"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating shop, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = call(t, handler, http.MethodPost, "/api/dashboard/v1/products", cataloghttp.ProductRequest{
		Name:           "Fraisier",
		Description:    "Génoise, crème mousseline, fraises",
		BasePriceCents: 3800,
		IsActive:       true,
	}, merchant(token, "product-1"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating product, got %d: %s", rr.Code, rr.Body.String())
	}
	var product cataloghttp.ProductResponse
	decode(t, rr, &product)
	return product.Data.ProductID
}

func waitForMail(t *testing.T, app *APIApp, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(app.rt.mailer.Store.Sent()) < want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d mails, got %d", want, len(app.rt.mailer.Store.Sent()))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCatalogCheckoutFlowNotifiesBothParties(t *testing.T) {
	app := newTestAPI(t)
	handler := app.Handler()
	token := merchantToken(t, "merchant-1")
	productID := setupShopWithProduct(t, handler, token)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := app.rt.mailer.Notifier.Start(ctx); err != nil {
		t.Fatalf("start notifier: %v", err)
	}

	rr := call(t, handler, http.MethodPost, "/api/shop/v1/shops/la-fraise/checkout", orderhttp.CheckoutRequest{
		ProductID:  productID,
		Selection:  map[string]any{},
		Customer:   orderhttp.CustomerDTO{Name: "Camille Martin", Email: "camille@example.com"},
		PickupDate: openPickupDate(),
	}, customer("checkout-1"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 from checkout, got %d: %s", rr.Code, rr.Body.String())
	}
	var placed orderhttp.PlacementResponse
	decode(t, rr, &placed)
	order := placed.Data.Order
	if order.Status != "to_verify" {
		t.Fatalf("expected to_verify, got %s", order.Status)
	}
	if order.TotalCents != 3800 || order.DepositCents != 1140 {
		t.Fatalf("expected total 3800 and deposit 1140, got %d and %d", order.TotalCents, order.DepositCents)
	}
	if !strings.HasPrefix(order.Ref, "CMD-") {
		t.Fatalf("expected CMD- ref, got %s", order.Ref)
	}

	replay := call(t, handler, http.MethodPost, "/api/shop/v1/shops/la-fraise/checkout", orderhttp.CheckoutRequest{
		ProductID:  productID,
		Selection:  map[string]any{},
		Customer:   orderhttp.CustomerDTO{Name: "Camille Martin", Email: "camille@example.com"},
		PickupDate: order.PickupDate,
	}, customer("checkout-1"))
	if replay.Code != http.StatusOK {
		t.Fatalf("expected 200 on replay, got %d: %s", replay.Code, replay.Body.String())
	}

	app.rt.workers().tick(ctx)
	waitForMail(t, app, 2)
	recipients := map[string]bool{}
	for _, msg := range app.rt.mailer.Store.Sent() {
		recipients[msg.To] = true
	}
	if !recipients["camille@example.com"] || !recipients["atelier@la-fraise.example"] {
		t.Fatalf("expected customer and shop to be mailed, got %v", recipients)
	}

	rr = call(t, handler, http.MethodPost, "/api/dashboard/v1/orders/"+order.OrderID+"/confirm-payment", nil, merchant(token, "confirm-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 confirming payment, got %d: %s", rr.Code, rr.Body.String())
	}
	var confirmed orderhttp.OrderResponse
	decode(t, rr, &confirmed)
	if confirmed.Data.Status != "confirmed" {
		t.Fatalf("expected confirmed, got %s", confirmed.Data.Status)
	}

	rr = call(t, handler, http.MethodGet, "/api/shop/v1/orders/"+order.Ref, nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for public order, got %d: %s", rr.Code, rr.Body.String())
	}
	var public orderhttp.PublicOrderResponse
	decode(t, rr, &public)
	if public.Data.ShopSlug != "la-fraise" || public.Data.Order.Status != "confirmed" {
		t.Fatalf("unexpected public order: %+v", public.Data)
	}
}

type shiftedClock struct {
	offset time.Duration
}

func (c shiftedClock) Now() time.Time {
	return time.Now().Add(c.offset)
}

func TestFailedMailIsResentByWorkerTick(t *testing.T) {
	app := newTestAPI(t)
	handler := app.Handler()
	token := merchantToken(t, "merchant-1")
	productID := setupShopWithProduct(t, handler, token)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := app.rt.mailer.Notifier.Start(ctx); err != nil {
		t.Fatalf("start notifier: %v", err)
	}
	app.rt.mailer.Store.FailNextSend(errors.New("smtp: 421 try later"))

	rr := call(t, handler, http.MethodPost, "/api/shop/v1/shops/la-fraise/checkout", orderhttp.CheckoutRequest{
		ProductID:  productID,
		Selection:  map[string]any{},
		Customer:   orderhttp.CustomerDTO{Name: "Camille Martin", Email: "camille@example.com"},
		PickupDate: openPickupDate(),
	}, customer("checkout-retry"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 from checkout, got %d: %s", rr.Code, rr.Body.String())
	}

	// The relay publishes the outbox row; the customer send fails.
	app.rt.workers().tick(ctx)
	deadline := time.Now().Add(2 * time.Second)
	for {
		failed := 0
		for _, delivery := range app.rt.mailer.Store.Deliveries() {
			if delivery.Status == mailerentities.DeliveryFailed {
				failed++
			}
		}
		if failed == 1 && len(app.rt.mailer.Store.Sent()) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected one failed delivery and one mail, got %+v", app.rt.mailer.Store.Deliveries())
		}
		time.Sleep(10 * time.Millisecond)
	}

	app.rt.workers().tick(ctx)
	if got := len(app.rt.mailer.Store.Sent()); got != 1 {
		t.Fatalf("expected no resend before the retry delay, got %d", got)
	}

	app.rt.mailer.Retrier.Notifier.Clock = shiftedClock{offset: time.Hour}
	app.rt.workers().tick(ctx)
	sent := app.rt.mailer.Store.Sent()
	if len(sent) != 2 || sent[1].To != "camille@example.com" {
		t.Fatalf("expected customer mail resent on the next tick, got %+v", sent)
	}
	for _, delivery := range app.rt.mailer.Store.Deliveries() {
		if delivery.Status != mailerentities.DeliverySent {
			t.Fatalf("expected every delivery sent, got %+v", delivery)
		}
	}
}

func TestCustomOrderQuoteFlow(t *testing.T) {
	app := newTestAPI(t)
	handler := app.Handler()
	token := merchantToken(t, "merchant-2")
	setupShopWithProduct(t, handler, token)

	rr := call(t, handler, http.MethodPost, "/api/shop/v1/shops/la-fraise/custom-orders", orderhttp.CustomOrderRequest{
		Customer:   orderhttp.CustomerDTO{Name: "Louis Petit", Email: "louis@example.com"},
		PickupDate: openPickupDate(),
		Message:    "Gâteau licorne pour 12 personnes",
	}, customer("custom-1"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 for custom order, got %d: %s", rr.Code, rr.Body.String())
	}
	var placed orderhttp.PlacementResponse
	decode(t, rr, &placed)
	order := placed.Data.Order
	if order.Status != "pending" || order.Kind != "custom" {
		t.Fatalf("expected pending custom order, got %s %s", order.Status, order.Kind)
	}

	rr = call(t, handler, http.MethodPost, "/api/dashboard/v1/orders/"+order.OrderID+"/quote",
		orderhttp.SendQuoteRequest{AmountCents: 6500, Message: "Licorne 3 étages"}, merchant(token, "quote-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 sending quote, got %d: %s", rr.Code, rr.Body.String())
	}
	var quoted orderhttp.OrderResponse
	decode(t, rr, &quoted)
	if quoted.Data.Status != "quoted" || quoted.Data.Quote == nil {
		t.Fatalf("expected quoted order with quote, got %+v", quoted.Data)
	}

	rr = call(t, handler, http.MethodPost, "/api/shop/v1/orders/"+order.Ref+"/accept-quote", nil, customer("accept-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 accepting quote, got %d: %s", rr.Code, rr.Body.String())
	}
	var accepted orderhttp.OrderResponse
	decode(t, rr, &accepted)
	if accepted.Data.Status != "to_verify" || accepted.Data.TotalCents != 6500 {
		t.Fatalf("expected to_verify at 6500, got %s at %d", accepted.Data.Status, accepted.Data.TotalCents)
	}

	rr = call(t, handler, http.MethodPost, "/api/shop/v1/orders/"+order.Ref+"/reject-quote", nil, customer("reject-1"))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 rejecting an accepted quote, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestInactiveProductCannotBeOrdered(t *testing.T) {
	app := newTestAPI(t)
	handler := app.Handler()
	token := merchantToken(t, "merchant-3")
	productID := setupShopWithProduct(t, handler, token)

	rr := call(t, handler, http.MethodPut, "/api/dashboard/v1/products/"+productID+"/active",
		cataloghttp.SetProductActiveRequest{IsActive: false}, merchant(token, "deactivate-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 deactivating product, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = call(t, handler, http.MethodPost, "/api/shop/v1/shops/la-fraise/checkout", orderhttp.CheckoutRequest{
		ProductID:  productID,
		Customer:   orderhttp.CustomerDTO{Name: "Camille Martin", Email: "camille@example.com"},
		PickupDate: openPickupDate(),
	}, customer("checkout-inactive"))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for inactive product, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestNewWorkerRequiresPostgres(t *testing.T) {
	if _, err := NewWorker(context.Background(), config.Config{}, nil); err == nil {
		t.Fatalf("expected error without postgres dsn")
	}
}

func TestNewAPIRequiresSecretWithPostgres(t *testing.T) {
	_, err := NewAPI(context.Background(), config.Config{PostgresDSN: "postgres://localhost/cakeshop"}, nil)
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
}

func TestMetricsNamespaceSanitizesServiceName(t *testing.T) {
	if got := metricsNamespace("Cake-Shop.api"); got != "cake_shop_api" {
		t.Fatalf("expected cake_shop_api, got %s", got)
	}
	if got := metricsNamespace(""); got != "cakeshop" {
		t.Fatalf("expected cakeshop, got %s", got)
	}
}
