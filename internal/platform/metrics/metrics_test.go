package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOrderCounters(t *testing.T) {
	r := NewRegistry("test")
	r.OrderCreated("catalog")
	r.OrderCreated("catalog")
	r.OrderTransitioned("to_verify", "confirmed")

	if got := testutil.ToFloat64(r.ordersCreated.WithLabelValues("catalog")); got != 2 {
		t.Fatalf("expected 2 catalog orders, got %v", got)
	}
	if got := testutil.ToFloat64(r.orderTransitions.WithLabelValues("to_verify", "confirmed")); got != 1 {
		t.Fatalf("expected 1 transition, got %v", got)
	}
}

func TestHandlerExposesHTTPMetrics(t *testing.T) {
	r := NewRegistry("test")
	r.ObserveHTTP("GET /healthz", http.MethodGet, http.StatusOK, 3*time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `test_http_requests_total{code="200",method="GET",route="GET /healthz"} 1`) {
		t.Fatalf("expected request counter in exposition, got %s", rec.Body.String())
	}
}
