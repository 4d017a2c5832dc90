package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mailerservice "cakeshop/contexts/notifications/mailer-service"
	orderservice "cakeshop/contexts/ordering/order-service"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// workerSet runs the asynchronous side of ordering: outbox relay, quote
// expiry and mail retries on a poll interval, pickup reminders on a cron
// schedule, and the order mailer subscribed to the bus.
type workerSet struct {
	orders          orderservice.Module
	mailer          mailerservice.Module
	pollInterval    time.Duration
	reminderSpec    string
	enableReminders bool
	enableExpiry    bool
	logger          *slog.Logger
}

func (w workerSet) Run(ctx context.Context) error {
	if err := w.mailer.Notifier.Start(ctx); err != nil {
		return fmt.Errorf("start order mailer: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.pollLoop(ctx) })
	if w.enableReminders {
		g.Go(func() error { return w.reminderSchedule(ctx) })
	}

	w.logger.Info("workers started",
		"event", "bootstrap_workers_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.interval().String(),
		"reminder_cron", w.reminderSpec,
		"reminders", w.enableReminders,
		"quote_expiry", w.enableExpiry,
	)
	return g.Wait()
}

func (w workerSet) pollLoop(ctx context.Context) error {
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		w.tick(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// tick expires stale quotes before relaying, so the refusal events they
// produce go out in the same pass.
func (w workerSet) tick(ctx context.Context) {
	if w.enableExpiry {
		if err := w.orders.QuoteExpirer.RunOnce(ctx); err != nil {
			w.logFailure(ctx, "quote_expirer", err)
		}
	}
	if err := w.orders.OutboxRelay.RunOnce(ctx); err != nil {
		w.logFailure(ctx, "outbox_relay", err)
	}
	if err := w.mailer.Retrier.RunOnce(ctx); err != nil {
		w.logFailure(ctx, "mail_retrier", err)
	}
}

func (w workerSet) reminderSchedule(ctx context.Context) error {
	scheduler := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := scheduler.AddFunc(w.reminderSpec, func() {
		if err := w.orders.PickupReminder.RunOnce(ctx); err != nil {
			w.logFailure(ctx, "pickup_reminder", err)
		}
	}); err != nil {
		return fmt.Errorf("parse reminder schedule %q: %w", w.reminderSpec, err)
	}
	scheduler.Start()
	<-ctx.Done()
	<-scheduler.Stop().Done()
	return nil
}

func (w workerSet) interval() time.Duration {
	if w.pollInterval <= 0 {
		return 2 * time.Second
	}
	return w.pollInterval
}

func (w workerSet) logFailure(ctx context.Context, worker string, err error) {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return
	}
	w.logger.Error("worker pass failed",
		"event", "bootstrap_worker_failed",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"worker", worker,
		"error", err.Error(),
	)
}
