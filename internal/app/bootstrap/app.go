package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"cakeshop/internal/platform/config"
	"cakeshop/internal/platform/httpserver"

	"golang.org/x/sync/errgroup"
)

type APIApp struct {
	rt         *runtime
	server     *httpserver.Server
	live       *httpserver.LiveHub
	runWorkers bool
	logger     *slog.Logger
}

type WorkerApp struct {
	rt     *runtime
	logger *slog.Logger
}

// NewLogger builds the process logger from the configured level.
func NewLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With("service", cfg.ServiceName)
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewAPI(ctx, cfg, NewLogger(cfg).With("process", "api"))
}

// NewAPI assembles the HTTP process. Without POSTGRES_DSN everything runs
// in memory, workers included.
func NewAPI(ctx context.Context, cfg config.Config, logger *slog.Logger) (*APIApp, error) {
	if logger == nil {
		logger = slog.Default()
	}
	secret := strings.TrimSpace(cfg.JWTSecret)
	if secret == "" {
		if strings.TrimSpace(cfg.PostgresDSN) != "" {
			return nil, errors.New("JWT_SECRET is required")
		}
		secret = devJWTSecret
		logger.Warn("using development jwt secret",
			"event", "bootstrap_dev_secret",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}

	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	live := httpserver.NewLiveHub(logger)
	server := httpserver.New(httpserver.Modules{
		Shops:   rt.shops,
		Catalog: rt.catalog,
		Orders:  rt.orders,
	}, httpserver.Options{
		Addr:           normalizeAddr(cfg.HTTPPort),
		JWTSecret:      secret,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		TrustedProxies: cfg.TrustedProxies,
		Metrics:        rt.metrics,
		Live:           live,
		Ready:          rt.Ready,
		Logger:         logger,
	})
	return &APIApp{
		rt:         rt,
		server:     server,
		live:       live,
		runWorkers: cfg.RunWorkersInAPI,
		logger:     logger,
	}, nil
}

func (a *APIApp) Handler() http.Handler {
	return a.server.Handler()
}

func (a *APIApp) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	if err := a.live.Start(ctx, a.rt.bus); err != nil {
		return err
	}
	if a.runWorkers {
		workers := a.rt.workers()
		g.Go(func() error { return workers.Run(ctx) })
	}
	g.Go(func() error { return a.server.Start(ctx) })

	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"storage", a.rt.storageMode(),
		"workers_in_process", a.runWorkers,
	)
	return g.Wait()
}

func (a *APIApp) Close() error {
	return a.rt.Close()
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewWorker(ctx, cfg, NewLogger(cfg).With("process", "worker"))
}

// NewWorker assembles the background process. It needs Postgres: an
// in-memory worker would see none of the api's orders.
func NewWorker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*WorkerApp, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &WorkerApp{rt: rt, logger: logger}, nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	return w.rt.workers().Run(ctx)
}

func (w *WorkerApp) Close() error {
	return w.rt.Close()
}
