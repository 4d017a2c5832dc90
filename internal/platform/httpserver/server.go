package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	orderservice "cakeshop/contexts/ordering/order-service"
	catalogservice "cakeshop/contexts/shop/catalog-service"
	shopservice "cakeshop/contexts/shop/shop-service"
	_ "cakeshop/internal/platform/httpserver/docs"
	"cakeshop/internal/platform/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	publicPrefix    = "/api/shop/v1"
	dashboardPrefix = "/api/dashboard/v1"
	maxBodyBytes    = 1 << 20
)

// Modules are the bounded contexts served over HTTP.
type Modules struct {
	Shops   shopservice.Module
	Catalog catalogservice.Module
	Orders  orderservice.Module
}

type Options struct {
	Addr           string
	JWTSecret      string
	RateLimitRPS   int
	RateLimitBurst int
	// TrustedProxies are the IPs or CIDRs whose X-Forwarded-For is honoured.
	TrustedProxies []string
	Metrics        *metrics.Registry
	Live           *LiveHub
	// Ready reports backing store health for /healthz.
	Ready  func(ctx context.Context) error
	Logger *slog.Logger
}

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	modules Modules
	auth    Authenticator
	limiter *ipRateLimiter
	proxies []netip.Prefix
	metrics *metrics.Registry
	live    *LiveHub
	ready   func(ctx context.Context) error
}

func New(modules Modules, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":8080"
	}
	registry := opts.Metrics
	if registry == nil {
		registry = metrics.NewRegistry("cakeshop")
	}
	live := opts.Live
	if live == nil {
		live = NewLiveHub(logger)
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		modules: modules,
		auth:    NewAuthenticator(opts.JWTSecret),
		limiter: newIPRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst, 10*time.Minute),
		proxies: parseTrustedProxies(opts.TrustedProxies, logger),
		metrics: registry,
		live:    live,
		ready:   opts.Ready,
	}
	s.registerRoutes()
	return s
}

// Handler exposes the routed mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.logger.Info("http server stopping",
			"event", "http_server_stopping",
			"module", "internal/platform/httpserver",
			"layer", "platform",
		)
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.Handle("GET /metrics", s.metrics.Handler())
	s.handle("GET /healthz", s.handleHealth)

	s.registerStorefrontRoutes()
	s.registerDashboardShopRoutes()
	s.registerDashboardCatalogRoutes()
	s.registerDashboardOrderRoutes()

	// Not wrapped: the upgrade needs the raw ResponseWriter.
	s.mux.HandleFunc("GET "+dashboardPrefix+"/live", s.handleLive)
}

// handle registers a route with request metrics and debug logging.
func (s *Server) handle(pattern string, handler http.HandlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		r.Body = http.MaxBytesReader(rec, r.Body, maxBodyBytes)
		handler(rec, r)
		elapsed := time.Since(started)
		s.metrics.ObserveHTTP(pattern, r.Method, rec.status, elapsed)
		s.logger.Debug("http request served",
			"event", "http_request",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"route", pattern,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reads a JSON body. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func idempotencyKey(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("Idempotency-Key"))
}

