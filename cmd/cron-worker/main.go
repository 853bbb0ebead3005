package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/calebmoran/printworks-backend/internal/cart"
	"github.com/calebmoran/printworks-backend/internal/cron"
	"github.com/calebmoran/printworks-backend/internal/customers"
	"github.com/calebmoran/printworks-backend/internal/invoicing"
	"github.com/calebmoran/printworks-backend/internal/notifications"
	"github.com/calebmoran/printworks-backend/internal/squarecustomers"
	"github.com/calebmoran/printworks-backend/internal/subscriptions"
	"github.com/calebmoran/printworks-backend/pkg/config"
	"github.com/calebmoran/printworks-backend/pkg/db"
	"github.com/calebmoran/printworks-backend/pkg/instance"
	"github.com/calebmoran/printworks-backend/pkg/logger"
	"github.com/calebmoran/printworks-backend/pkg/metrics"
	"github.com/calebmoran/printworks-backend/pkg/migrate"
	"github.com/calebmoran/printworks-backend/pkg/outbox"
	"github.com/calebmoran/printworks-backend/pkg/redis"
	"github.com/calebmoran/printworks-backend/pkg/square"

	billingpkg "github.com/calebmoran/printworks-backend/internal/billing"
)

const lockKeyFormat = "pw:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap square", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(cfg, logg, dbClient, squareClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build cron jobs", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, squareClient *square.Client) (*cron.Registry, error) {
	invoiceRepo := invoicing.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	invoicingService, err := invoicing.NewService(invoiceRepo, dbClient, invoicing.DefaultTermsTable(), outboxService, nil)
	if err != nil {
		return nil, fmt.Errorf("invoicing service: %w", err)
	}

	invoiceReminderJob, err := cron.NewInvoiceReminderJob(cron.InvoiceReminderJobParams{
		Logger:      logg,
		DB:          dbClient,
		InvoiceRepo: invoiceRepo,
		Invoices:    invoicingService,
		Outbox:      outboxService,
	})
	if err != nil {
		return nil, fmt.Errorf("invoice reminder job: %w", err)
	}

	notificationCleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: notifications.NewRepository(dbClient.DB()),
	})
	if err != nil {
		return nil, fmt.Errorf("notification cleanup job: %w", err)
	}

	outboxRetentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(dbClient.DB()),
	})
	if err != nil {
		return nil, fmt.Errorf("outbox retention job: %w", err)
	}

	quoteTTLJob, err := cron.NewQuoteTTLJob(cron.QuoteTTLJobParams{
		Logger: logg,
		Carts:  cart.NewRepository(dbClient.DB()),
	})
	if err != nil {
		return nil, fmt.Errorf("quote ttl job: %w", err)
	}

	customersService, err := customers.NewService(customers.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		return nil, fmt.Errorf("customers service: %w", err)
	}
	subscriptionsService, err := subscriptions.NewService(subscriptions.ServiceParams{
		BillingRepo:       billingpkg.NewRepository(dbClient.DB()),
		Customers:         customersService,
		SquareCustomers:   squarecustomers.NewService(squareClient),
		Cards:             squareClient,
		SquareClient:      subscriptions.NewSquareClient(squareClient, cfg.Square.LocationID),
		TransactionRunner: dbClient,
	})
	if err != nil {
		return nil, fmt.Errorf("subscriptions service: %w", err)
	}
	subscriptionReconcileJob, err := cron.NewSubscriptionReconcileJob(cron.SubscriptionReconcileJobParams{
		Logger:        logg,
		Subscriptions: subscriptionsService,
	})
	if err != nil {
		return nil, fmt.Errorf("subscription reconcile job: %w", err)
	}

	return cron.NewRegistry(
		invoiceReminderJob,
		notificationCleanupJob,
		outboxRetentionJob,
		quoteTTLJob,
		subscriptionReconcileJob,
	), nil
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
