package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/calebmoran/printworks-backend/api/routes"
	"github.com/calebmoran/printworks-backend/internal/analytics"
	"github.com/calebmoran/printworks-backend/internal/auth"
	"github.com/calebmoran/printworks-backend/internal/billing"
	"github.com/calebmoran/printworks-backend/internal/cart"
	"github.com/calebmoran/printworks-backend/internal/catalog"
	"github.com/calebmoran/printworks-backend/internal/checkout"
	"github.com/calebmoran/printworks-backend/internal/customers"
	"github.com/calebmoran/printworks-backend/internal/invoicing"
	"github.com/calebmoran/printworks-backend/internal/ledger"
	"github.com/calebmoran/printworks-backend/internal/moq"
	"github.com/calebmoran/printworks-backend/internal/notifications"
	"github.com/calebmoran/printworks-backend/internal/orders"
	"github.com/calebmoran/printworks-backend/internal/paymentmethods"
	"github.com/calebmoran/printworks-backend/internal/promos"
	"github.com/calebmoran/printworks-backend/internal/proofs"
	"github.com/calebmoran/printworks-backend/internal/squarecustomers"
	"github.com/calebmoran/printworks-backend/internal/subscriptions"
	"github.com/calebmoran/printworks-backend/internal/tickets"
	"github.com/calebmoran/printworks-backend/internal/users"
	squarewebhook "github.com/calebmoran/printworks-backend/internal/webhooks/square"
	stripewebhook "github.com/calebmoran/printworks-backend/internal/webhooks/stripe"
	"github.com/calebmoran/printworks-backend/pkg/auth/session"
	"github.com/calebmoran/printworks-backend/pkg/bigquery"
	"github.com/calebmoran/printworks-backend/pkg/config"
	"github.com/calebmoran/printworks-backend/pkg/db"
	"github.com/calebmoran/printworks-backend/pkg/logger"
	"github.com/calebmoran/printworks-backend/pkg/maps"
	"github.com/calebmoran/printworks-backend/pkg/migrate"
	"github.com/calebmoran/printworks-backend/pkg/outbox"
	"github.com/calebmoran/printworks-backend/internal/pricing"
	"github.com/calebmoran/printworks-backend/pkg/redis"
	"github.com/calebmoran/printworks-backend/pkg/square"
	"github.com/calebmoran/printworks-backend/pkg/storage/gcs"
	"github.com/calebmoran/printworks-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(logg, "database", err)
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
	requireResource(logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	requireResource(logg, "gcs", err)
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs client", err)
		}
	}()

	bqClient, err := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
	requireResource(logg, "bigquery", err)
	defer func() {
		if err := bqClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing bigquery client", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	requireResource(logg, "stripe", err)

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	requireResource(logg, "square", err)

	var mapsClient *maps.Client
	if cfg.Maps.APIKey != "" {
		mapsClient, err = maps.NewClient(cfg.Maps.APIKey)
		requireResource(logg, "maps", err)
	} else {
		logg.Warn(context.Background(), "maps api key not set, address lookup disabled")
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(logg, "session manager", err)

	// Repositories shared across services.
	usersRepo := users.NewRepository(dbClient.DB())
	customersRepo := customers.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	proofsRepo := proofs.NewRepository(dbClient.DB())
	ticketsRepo := tickets.NewRepository(dbClient.DB())
	invoiceRepo := invoicing.NewRepository(dbClient.DB())
	billingRepo := billing.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())

	// The outbox service is the single write path for domain events; every
	// emitting service shares it so events ride the same transaction as the
	// state change they describe.
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	ledgerService, err := ledger.NewService(ledgerRepo)
	requireResource(logg, "ledger service", err)

	catalogService, err := catalog.NewService(catalogRepo)
	requireResource(logg, "catalog service", err)

	customersService, err := customers.NewService(customersRepo, dbClient)
	requireResource(logg, "customers service", err)

	promosService, err := promos.NewService(promos.NewRepository(dbClient.DB()))
	requireResource(logg, "promos service", err)

	moqService, err := moq.NewService(moq.NewRepository(dbClient.DB()))
	requireResource(logg, "moq service", err)

	notificationsService, err := notifications.NewService(notificationsRepo)
	requireResource(logg, "notifications service", err)

	invoicingService, err := invoicing.NewService(invoiceRepo, dbClient, invoicing.DefaultTermsTable(), outboxService, ledgerService)
	requireResource(logg, "invoicing service", err)

	proofsService, err := proofs.NewService(proofs.ServiceParams{
		Repo:              proofsRepo,
		Orders:            ordersRepo,
		Signer:            gcsClient,
		TransactionRunner: dbClient,
		Outbox:            outboxService,
		Bucket:            cfg.GCS.BucketName,
		UploadTTL:         cfg.GCS.UploadURLExpiry,
		DownloadTTL:       cfg.GCS.DownloadURLExpiry,
		MaxRevisions:      cfg.Artwork.MaxRevisions,
		MaxUploadMB:       cfg.Artwork.MaxUploadMB,
	})
	requireResource(logg, "proofs service", err)

	ordersService, err := orders.NewService(ordersRepo, dbClient, outboxService, proofsService)
	requireResource(logg, "orders service", err)

	ticketsService, err := tickets.NewService(ticketsRepo, dbClient, outboxService)
	requireResource(logg, "tickets service", err)

	calculator, err := pricing.NewCalculator(pricing.DefaultTable(), cfg.Pricing.TaxRateDecimal())
	requireResource(logg, "pricing calculator", err)

	cartService, err := cart.NewService(cartRepo, dbClient, catalogRepo, customersRepo, promosService, moqService, calculator, 0)
	requireResource(logg, "cart service", err)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:        dbClient,
		CartRepo:  cartRepo,
		OrderRepo: ordersRepo,
		Customers: customersRepo,
		Credit:    customersService,
		Products:  catalogRepo,
		Invoices:  invoicingService,
		Ledger:    ledgerService,
		Outbox:    outboxService,
		Stripe:    checkout.NewStripeClient(stripeClient),
		Table:     pricing.DefaultTable(),
		TaxRate:   cfg.Pricing.TaxRateDecimal(),
	})
	requireResource(logg, "checkout service", err)

	billingService, err := billing.NewService(billing.ServiceParams{
		Repo:              billingRepo,
		TransactionRunner: dbClient,
	})
	requireResource(logg, "billing service", err)

	squareSubscriptions := subscriptions.NewSquareClient(squareClient, cfg.Square.LocationID)
	subscriptionsService, err := subscriptions.NewService(subscriptions.ServiceParams{
		BillingRepo:       billingRepo,
		Customers:         customersService,
		SquareCustomers:   squarecustomers.NewService(squareClient),
		Cards:             squareClient,
		SquareClient:      squareSubscriptions,
		TransactionRunner: dbClient,
	})
	requireResource(logg, "subscriptions service", err)

	paymentMethodsService, err := paymentmethods.NewService(paymentmethods.ServiceParams{
		BillingRepo:       billingRepo,
		Customers:         customersService,
		Stripe:            paymentmethods.NewStripeClient(stripeClient),
		TransactionRunner: dbClient,
	})
	requireResource(logg, "payment methods service", err)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		CustomerRepo:   customersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	requireResource(logg, "auth service", err)

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	requireResource(logg, "register service", err)

	analyticsService, err := analytics.NewService(bqClient, cfg.GCP.ProjectID, cfg.BigQuery.Dataset, cfg.BigQuery.StorefrontEventsTable)
	requireResource(logg, "analytics service", err)

	stripeWebhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		BillingRepo:       billingRepo,
		TransactionRunner: dbClient,
		Outbox:            outboxService,
	})
	requireResource(logg, "stripe webhook service", err)

	squareWebhookService, err := squarewebhook.NewService(squarewebhook.ServiceParams{
		BillingRepo:       billingRepo,
		Customers:         customersService,
		SquareClient:      squareSubscriptions,
		TransactionRunner: dbClient,
	})
	requireResource(logg, "square webhook service", err)

	stripeGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.OutboxIdempotencyTTL, "stripe-webhook")
	requireResource(logg, "stripe webhook guard", err)

	squareGuard, err := squarewebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.OutboxIdempotencyTTL, "square-webhook")
	requireResource(logg, "square webhook guard", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			gcsClient,
			bqClient,
			sessionManager,
			authService,
			registerService,
			catalogService,
			cartService,
			checkoutService,
			ordersService,
			invoicingService,
			proofsService,
			ticketsService,
			customersService,
			promosService,
			moqService,
			subscriptionsService,
			billingService,
			paymentMethodsService,
			notificationsService,
			analyticsService,
			ledgerService,
			stripeClient,
			squareClient,
			mapsClient,
			stripeWebhookService,
			squareWebhookService,
			stripeGuard,
			squareGuard,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to bootstrap "+resource, err)
	os.Exit(1)
}
