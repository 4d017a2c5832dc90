package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mailerservice "cakeshop/contexts/notifications/mailer-service"
	mailermemory "cakeshop/contexts/notifications/mailer-service/adapters/memory"
	mailerpostgres "cakeshop/contexts/notifications/mailer-service/adapters/postgres"
	mailersmtp "cakeshop/contexts/notifications/mailer-service/adapters/smtp"
	"cakeshop/contexts/notifications/mailer-service/adapters/templates"
	mailerdomain "cakeshop/contexts/notifications/mailer-service/domain/services"
	orderservice "cakeshop/contexts/ordering/order-service"
	ordermemory "cakeshop/contexts/ordering/order-service/adapters/memory"
	orderpostgres "cakeshop/contexts/ordering/order-service/adapters/postgres"
	orderredis "cakeshop/contexts/ordering/order-service/adapters/redis"
	orderports "cakeshop/contexts/ordering/order-service/ports"
	catalogservice "cakeshop/contexts/shop/catalog-service"
	catalogmemory "cakeshop/contexts/shop/catalog-service/adapters/memory"
	catalogpostgres "cakeshop/contexts/shop/catalog-service/adapters/postgres"
	shopservice "cakeshop/contexts/shop/shop-service"
	shopmemory "cakeshop/contexts/shop/shop-service/adapters/memory"
	shoppostgres "cakeshop/contexts/shop/shop-service/adapters/postgres"
	eventsv1 "cakeshop/contracts/gen/events/v1"
	"cakeshop/internal/platform/cache"
	"cakeshop/internal/platform/config"
	"cakeshop/internal/platform/db"
	"cakeshop/internal/platform/mail"
	"cakeshop/internal/platform/messaging"
	"cakeshop/internal/platform/metrics"
	"cakeshop/internal/platform/migrations"

	"github.com/go-redis/redis/v8"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const (
	idempotencyTTL    = 7 * 24 * time.Hour
	workerBatchSize   = 100
	redisKeyScope = "cakeshop"
	devJWTSecret      = "cakeshop-dev-secret"
)

type eventBus interface {
	Publish(ctx context.Context, topic string, event eventsv1.Envelope) error
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, eventsv1.Envelope) error,
	) error
}

// runtime holds the infrastructure and modules shared by the api and
// worker processes. Postgres and Redis are nil in in-memory mode.
type runtime struct {
	cfg      config.Config
	logger   *slog.Logger
	postgres *db.Postgres
	redis    *redis.Client
	bus      eventBus
	metrics  *metrics.Registry

	shops   shopservice.Module
	catalog catalogservice.Module
	orders  orderservice.Module
	mailer  mailerservice.Module
}

func newRuntime(ctx context.Context, cfg config.Config, logger *slog.Logger) (*runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &runtime{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewRegistry(metricsNamespace(cfg.ServiceName)),
	}

	if dsn := strings.TrimSpace(cfg.PostgresDSN); dsn != "" {
		pg, err := db.Connect(dsn)
		if err != nil {
			return nil, err
		}
		rt.postgres = pg
		if cfg.AutoMigrate {
			sqlDB, err := pg.SQL()
			if err != nil {
				_ = rt.Close()
				return nil, err
			}
			if err := migrations.Up(sqlDB, logger); err != nil {
				_ = rt.Close()
				return nil, err
			}
		}
	}

	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		client, err := cache.Connect(ctx, cache.Options{Addr: addr})
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.redis = client
		bus, err := messaging.NewRedisBus(client, redisKeyScope, logger)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.bus = bus
	} else {
		rt.bus = messaging.NewBus(logger)
	}

	if err := rt.buildModules(); err != nil {
		_ = rt.Close()
		return nil, err
	}

	logger.Info("runtime assembled",
		"event", "bootstrap_runtime_ready",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"storage", rt.storageMode(),
		"bus", rt.busMode(),
		"mailer", rt.mailerMode(),
	)
	return rt, nil
}

func (rt *runtime) buildModules() error {
	if rt.postgres == nil {
		rt.buildInMemoryModules()
	} else {
		rt.buildPostgresModules()
	}

	renderer, err := templates.NewRenderer(rt.cfg.MailLocale)
	if err != nil {
		return fmt.Errorf("load mail templates: %w", err)
	}
	mailerDeps := mailerservice.Dependencies{
		Subscriber: rt.bus,
		Renderer:   renderer,
		Retry: mailerdomain.RetryPolicy{
			MaxAttempts: rt.cfg.MailMaxAttempts,
			BaseDelay:   rt.cfg.MailRetryDelay,
		},
		Logger: rt.logger,
	}
	var captured *mailermemory.Store
	if rt.postgres != nil {
		mailerDeps.Deliveries = mailerpostgres.NewRepository(rt.postgres.DB, rt.logger)
	} else {
		captured = mailermemory.NewStore()
		mailerDeps.Deliveries = captured
	}
	if strings.TrimSpace(rt.cfg.SMTPHost) != "" {
		client, err := mail.NewSMTPClient(mail.SMTPOptions{
			Host:     rt.cfg.SMTPHost,
			Port:     rt.cfg.SMTPPort,
			Username: rt.cfg.SMTPUsername,
			Password: rt.cfg.SMTPPassword,
		})
		if err != nil {
			return fmt.Errorf("configure smtp: %w", err)
		}
		mailerDeps.Mailer = mailersmtp.NewMailer(client, rt.cfg.MailFrom, rt.cfg.ServiceName, rt.logger)
	} else {
		if captured == nil {
			captured = mailermemory.NewStore()
		}
		mailerDeps.Mailer = captured
	}
	rt.mailer = mailerservice.NewModule(mailerDeps)
	rt.mailer.Store = captured
	return nil
}

func (rt *runtime) buildInMemoryModules() {
	shopStore := shopmemory.NewStore()
	rt.shops = shopservice.NewModule(shopservice.Dependencies{
		Shops:          shopStore,
		FAQs:           shopStore,
		Idempotency:    shopStore,
		Clock:          shopStore,
		IDGenerator:    shopStore,
		Publisher:      rt.bus,
		IdempotencyTTL: idempotencyTTL,
		Logger:         rt.logger,
	})
	rt.shops.Store = shopStore

	productStore := catalogmemory.NewStore()
	rt.catalog = catalogservice.NewModule(catalogservice.Dependencies{
		Products:       productStore,
		Idempotency:    productStore,
		Clock:          productStore,
		IDGenerator:    productStore,
		IdempotencyTTL: idempotencyTTL,
		Logger:         rt.logger,
	})
	rt.catalog.Store = productStore

	orderStore := ordermemory.NewStore()
	rt.orders = orderservice.NewModule(rt.orderDependencies(orderStore, orderStore, orderStore, orderStore, orderStore))
	rt.orders.Store = orderStore
}

func (rt *runtime) buildPostgresModules() {
	shopRepo := shoppostgres.NewRepository(rt.postgres.DB, rt.logger)
	rt.shops = shopservice.NewModule(shopservice.Dependencies{
		Shops:          shopRepo,
		FAQs:           shopRepo,
		Idempotency:    shopRepo,
		Clock:          shoppostgres.SystemClock{},
		IDGenerator:    shoppostgres.UUIDGenerator{},
		Publisher:      rt.bus,
		IdempotencyTTL: idempotencyTTL,
		Logger:         rt.logger,
	})

	productRepo := catalogpostgres.NewRepository(rt.postgres.DB, rt.logger)
	rt.catalog = catalogservice.NewModule(catalogservice.Dependencies{
		Products:       productRepo,
		Idempotency:    productRepo,
		Clock:          catalogpostgres.SystemClock{},
		IDGenerator:    catalogpostgres.UUIDGenerator{},
		IdempotencyTTL: idempotencyTTL,
		Logger:         rt.logger,
	})

	orderRepo := orderpostgres.NewRepository(rt.postgres.DB, rt.logger)
	rt.orders = orderservice.NewModule(rt.orderDependencies(
		orderRepo,
		orderRepo,
		orderRepo,
		orderpostgres.SystemClock{},
		orderpostgres.UUIDGenerator{},
	))
}

// orderDependencies wires ordering to the other contexts. Redis, when
// configured, takes over idempotency records from the primary store.
func (rt *runtime) orderDependencies(
	orders orderports.OrderRepository,
	outbox orderports.OutboxRepository,
	idempotency orderports.IdempotencyStore,
	clock orderports.Clock,
	ids orderports.IDGenerator,
) orderservice.Dependencies {
	if rt.redis != nil {
		idempotency = orderredis.NewIdempotencyStore(rt.redis, redisKeyScope+":orders:idempotency")
	}
	return orderservice.Dependencies{
		Orders:         orders,
		Outbox:         outbox,
		Idempotency:    idempotency,
		Shops:          shopDirectory{shops: rt.shops.Service},
		Catalog:        productCatalog{catalog: rt.catalog.Service},
		Publisher:      rt.bus,
		Clock:          clock,
		IDGenerator:    ids,
		Metrics:        rt.metrics,
		RefPrefix:      rt.cfg.OrderRefPrefix,
		PublicBaseURL:  rt.cfg.PublicBaseURL,
		IdempotencyTTL: idempotencyTTL,
		BatchSize:      workerBatchSize,
		Logger:         rt.logger,
	}
}

// Ready pings the backing stores that are configured.
func (rt *runtime) Ready(ctx context.Context) error {
	if rt.postgres != nil {
		sqlDB, err := rt.postgres.SQL()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if rt.redis != nil {
		if err := rt.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (rt *runtime) workers() workerSet {
	return workerSet{
		orders:          rt.orders,
		mailer:          rt.mailer,
		pollInterval:    rt.cfg.WorkerPollInterval,
		reminderSpec:    rt.cfg.ReminderCron,
		enableReminders: rt.cfg.EnablePickupReminders,
		enableExpiry:    rt.cfg.EnableQuoteExpiry,
		logger:          rt.logger,
	}
}

func (rt *runtime) Close() error {
	var errs []error
	if rt.redis != nil {
		errs = append(errs, rt.redis.Close())
	}
	if rt.postgres != nil {
		errs = append(errs, rt.postgres.Close())
	}
	return errors.Join(errs...)
}

func (rt *runtime) storageMode() string {
	if rt.postgres != nil {
		return "postgres"
	}
	return "memory"
}

func (rt *runtime) busMode() string {
	if rt.redis != nil {
		return "redis"
	}
	return "in-process"
}

func (rt *runtime) mailerMode() string {
	if strings.TrimSpace(rt.cfg.SMTPHost) != "" {
		return "smtp"
	}
	return "capture"
}

func metricsNamespace(service string) string {
	service = strings.ToLower(strings.TrimSpace(service))
	if service == "" {
		return "cakeshop"
	}
	return strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(service)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.Contains(value, ":") {
		return value
	}
	return ":" + value
}

