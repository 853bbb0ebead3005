package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/calebmoran/printworks-backend/api/controllers"
	addresscontrollers "github.com/calebmoran/printworks-backend/api/controllers/addresses"
	analyticscontrollers "github.com/calebmoran/printworks-backend/api/controllers/analytics"
	billingcontrollers "github.com/calebmoran/printworks-backend/api/controllers/billing"
	cartcontrollers "github.com/calebmoran/printworks-backend/api/controllers/cart"
	catalogcontrollers "github.com/calebmoran/printworks-backend/api/controllers/catalog"
	customercontrollers "github.com/calebmoran/printworks-backend/api/controllers/customers"
	invoicecontrollers "github.com/calebmoran/printworks-backend/api/controllers/invoices"
	moqcontrollers "github.com/calebmoran/printworks-backend/api/controllers/moq"
	promocontrollers "github.com/calebmoran/printworks-backend/api/controllers/promos"
	proofcontrollers "github.com/calebmoran/printworks-backend/api/controllers/proofs"
	subscriptioncontrollers "github.com/calebmoran/printworks-backend/api/controllers/subscriptions"
	ticketcontrollers "github.com/calebmoran/printworks-backend/api/controllers/tickets"
	webhookcontrollers "github.com/calebmoran/printworks-backend/api/controllers/webhooks"
	ordercontrollers "github.com/calebmoran/printworks-backend/api/controllers/orders"
	"github.com/calebmoran/printworks-backend/api/middleware"
	"github.com/calebmoran/printworks-backend/internal/analytics"
	"github.com/calebmoran/printworks-backend/internal/auth"
	billingsvc "github.com/calebmoran/printworks-backend/internal/billing"
	"github.com/calebmoran/printworks-backend/internal/cart"
	"github.com/calebmoran/printworks-backend/internal/catalog"
	checkoutsvc "github.com/calebmoran/printworks-backend/internal/checkout"
	"github.com/calebmoran/printworks-backend/internal/customers"
	"github.com/calebmoran/printworks-backend/internal/invoicing"
	"github.com/calebmoran/printworks-backend/internal/ledger"
	"github.com/calebmoran/printworks-backend/internal/moq"
	"github.com/calebmoran/printworks-backend/internal/notifications"
	"github.com/calebmoran/printworks-backend/internal/orders"
	"github.com/calebmoran/printworks-backend/internal/paymentmethods"
	"github.com/calebmoran/printworks-backend/internal/promos"
	"github.com/calebmoran/printworks-backend/internal/proofs"
	subscriptionsvc "github.com/calebmoran/printworks-backend/internal/subscriptions"
	"github.com/calebmoran/printworks-backend/internal/tickets"
	squarewebhook "github.com/calebmoran/printworks-backend/internal/webhooks/square"
	stripewebhook "github.com/calebmoran/printworks-backend/internal/webhooks/stripe"
	"github.com/calebmoran/printworks-backend/pkg/auth/session"
	"github.com/calebmoran/printworks-backend/pkg/bigquery"
	"github.com/calebmoran/printworks-backend/pkg/config"
	"github.com/calebmoran/printworks-backend/pkg/db"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	"github.com/calebmoran/printworks-backend/pkg/logger"
	"github.com/calebmoran/printworks-backend/pkg/maps"
	"github.com/calebmoran/printworks-backend/pkg/redis"
	"github.com/calebmoran/printworks-backend/pkg/square"
	"github.com/calebmoran/printworks-backend/pkg/storage/gcs"
	"github.com/calebmoran/printworks-backend/pkg/stripe"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gcsClient gcs.Pinger,
	bigqueryClient bigquery.Pinger,
	sessions sessionManager,
	authService auth.Service,
	registerService auth.RegisterService,
	catalogService catalog.Service,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	ordersService *orders.Service,
	invoicingService invoicing.Service,
	proofsService *proofs.Service,
	ticketsService *tickets.Service,
	customersService customers.Service,
	promosService promos.Service,
	moqService moq.Service,
	subscriptionsService subscriptionsvc.Service,
	billingService *billingsvc.Service,
	paymentMethodsService paymentmethods.Service,
	notificationsService notifications.Service,
	analyticsService analytics.Service,
	ledgerService ledger.Service,
	stripeClient *stripe.Client,
	squareClient *square.Client,
	mapsClient *maps.Client,
	stripeWebhookService *stripewebhook.Service,
	squareWebhookService *squarewebhook.Service,
	stripeGuard *stripewebhook.IdempotencyGuard,
	squareGuard *squarewebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.ReadinessDeps(dbP, redisClient, gcsClient, bigqueryClient)))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.PublicValidate(logg))
	})

	// Storefront catalog is browsable without an account.
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/products", catalogcontrollers.ListProducts(catalogService, logg))
		r.Get("/products/{productId}", catalogcontrollers.GetProduct(catalogService, logg))
		r.Get("/materials", catalogcontrollers.ListMaterials(catalogService, logg))
		r.Get("/materials/compare", catalogcontrollers.CompareMaterials(catalogService, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, stripeGuard, logg))
		r.Post("/square", webhookcontrollers.SquareWebhook(squareWebhookService, squareClient, squareGuard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.AuthLogin(authService, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, redisClient, logg),
			middleware.Idempotency(redisClient, logg),
		).Post("/register", controllers.AuthRegister(registerService, authService, logg))
		r.Post("/logout", controllers.AuthLogout(sessions, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessions, cfg.JWT, logg))
	})

	r.Route("/api/v1/admin/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.AdminAuthLogin(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Group(func(r chi.Router) {
			r.Use(middleware.CustomerContext(logg))

			r.Get("/me", customercontrollers.Profile(customersService, logg))
			r.Put("/me", customercontrollers.UpdateProfile(customersService, logg))

			r.Get("/addresses/autocomplete", addresscontrollers.Autocomplete(mapsClient, logg))
			r.Get("/addresses/places/{placeId}", addresscontrollers.ResolvePlace(mapsClient, logg))

			r.Put("/cart", cartcontrollers.CartQuote(cartService, logg))
			r.Get("/cart", cartcontrollers.CartFetch(cartService, logg))
			r.Delete("/cart", cartcontrollers.CartAbandon(cartService, logg))

			r.Post("/checkout", controllers.Checkout(checkoutService, logg))

			r.Get("/orders", ordercontrollers.List(ordersService, logg))
			r.Get("/orders/number/{orderNumber}", ordercontrollers.DetailByNumber(ordersService, logg))
			r.Get("/orders/{orderId}", ordercontrollers.Detail(ordersService, logg))
			r.Post("/orders/{orderId}/cancel", ordercontrollers.Cancel(ordersService, logg))
			r.Get("/orders/{orderId}/proofs", proofcontrollers.ListByOrder(proofsService, logg))

			r.Get("/invoices", invoicecontrollers.List(invoicingService, logg))
			r.Get("/invoices/{invoiceId}", invoicecontrollers.Detail(invoicingService, logg))

			r.Get("/proofs/{proofId}", proofcontrollers.Detail(proofsService, logg))
			r.Get("/proofs/{proofId}/artwork", proofcontrollers.ArtworkURL(proofsService, logg))
			r.Post("/proofs/{proofId}/decision", proofcontrollers.Decision(proofsService, logg))
			r.Post("/artwork/presign", proofcontrollers.PresignArtwork(proofsService, logg))
			r.Post("/artwork/finalize", proofcontrollers.FinalizeArtwork(proofsService, logg))

			r.Post("/tickets", ticketcontrollers.Open(ticketsService, logg))
			r.Get("/tickets", ticketcontrollers.List(ticketsService, logg))
			r.Get("/tickets/{ticketId}", ticketcontrollers.Detail(ticketsService, logg))
			r.Post("/tickets/{ticketId}/replies", ticketcontrollers.Reply(ticketsService, logg))

			r.Get("/notifications", controllers.ListNotifications(notificationsService, logg))
			r.Post("/notifications/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/notifications/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))

			r.Post("/subscriptions", subscriptioncontrollers.Create(subscriptionsService, logg))
			r.Post("/subscriptions/cancel", subscriptioncontrollers.Cancel(subscriptionsService, logg))
			r.Get("/subscriptions", subscriptioncontrollers.Get(subscriptionsService, logg))

			r.Get("/billing/plans", billingcontrollers.ListPlans(billingService, logg))
			r.Get("/billing/charges", billingcontrollers.ListCharges(billingService, logg))
			r.Post("/payment-methods/cc", billingcontrollers.StoreCard(paymentMethodsService, logg))
			r.Get("/payment-methods", billingcontrollers.ListPaymentMethods(billingService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.MemberRoleAdmin, enums.MemberRoleStaff))

			r.Get("/ping", controllers.AdminPing())

			r.Post("/products", catalogcontrollers.AdminCreateProduct(catalogService, logg))
			r.Get("/products", catalogcontrollers.AdminListProducts(catalogService, logg))
			r.Patch("/products/{productId}", catalogcontrollers.AdminUpdateProduct(catalogService, logg))
			r.Delete("/products/{productId}", catalogcontrollers.AdminDeactivateProduct(catalogService, logg))

			r.Get("/orders", ordercontrollers.AdminList(ordersService, logg))
			r.Get("/orders/{orderId}", ordercontrollers.AdminDetail(ordersService, logg))
			r.Post("/orders/{orderId}/status", ordercontrollers.AdminUpdateStatus(ordersService, logg))
			r.Post("/orders/{orderId}/proofs", proofcontrollers.AdminRequest(proofsService, logg))
			r.Get("/orders/{orderId}/proofs", proofcontrollers.AdminListByOrder(proofsService, logg))

			r.Post("/invoices", invoicecontrollers.AdminIssue(invoicingService, logg))
			r.Get("/invoices", invoicecontrollers.AdminList(invoicingService, logg))
			r.Get("/invoices/{invoiceId}", invoicecontrollers.AdminDetail(invoicingService, logg))
			r.Post("/invoices/{invoiceId}/payments", invoicecontrollers.AdminRecordPayment(invoicingService, logg))
			r.Post("/invoices/{invoiceId}/cancel", invoicecontrollers.AdminCancel(invoicingService, logg))

			r.Post("/promos", promocontrollers.AdminCreate(promosService, logg))
			r.Get("/promos", promocontrollers.AdminList(promosService, logg))
			r.Get("/promos/{promoId}", promocontrollers.AdminDetail(promosService, logg))
			r.Post("/promos/{promoId}/active", promocontrollers.AdminSetActive(promosService, logg))

			r.Post("/moq-rules", moqcontrollers.AdminCreateRule(moqService, logg))
			r.Get("/moq-rules", moqcontrollers.AdminListRules(moqService, logg))
			r.Post("/moq-rules/{ruleId}/active", moqcontrollers.AdminSetRuleActive(moqService, logg))

			r.Post("/customers", customercontrollers.AdminCreate(customersService, logg))
			r.Get("/customers/{customerId}", customercontrollers.AdminDetail(customersService, logg))
			r.Patch("/customers/{customerId}", customercontrollers.AdminUpdate(customersService, logg))
			r.Post("/customers/{customerId}/tier", customercontrollers.AdminAssignTier(customersService, logg))
			r.Get("/customers/{customerId}/tier-history", customercontrollers.AdminTierHistory(customersService, logg))
			r.Put("/customers/{customerId}/credit-limit", customercontrollers.AdminSetCreditLimit(customersService, logg))
			r.Get("/customers/{customerId}/ledger", analyticscontrollers.AdminCustomerLedger(ledgerService, logg))

			r.Get("/tickets", ticketcontrollers.AdminList(ticketsService, logg))
			r.Get("/tickets/{ticketId}", ticketcontrollers.AdminDetail(ticketsService, logg))
			r.Post("/tickets/{ticketId}/replies", ticketcontrollers.AdminReply(ticketsService, logg))
			r.Post("/tickets/{ticketId}/resolve", ticketcontrollers.AdminResolve(ticketsService, logg))
			r.Post("/tickets/{ticketId}/close", ticketcontrollers.AdminClose(ticketsService, logg))
			r.Post("/tickets/{ticketId}/assign", ticketcontrollers.AdminAssign(ticketsService, logg))
			r.Post("/tickets/{ticketId}/priority", ticketcontrollers.AdminSetPriority(ticketsService, logg))

			r.Get("/analytics/summary", analyticscontrollers.AdminSummary(analyticsService, logg))
		})
	})

	return r
}
