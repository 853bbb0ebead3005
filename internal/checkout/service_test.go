package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/internal/cart"
	"github.com/calebmoran/printworks-backend/internal/invoicing"
	"github.com/calebmoran/printworks-backend/internal/orders"
	"github.com/calebmoran/printworks-backend/internal/pricing"
	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/outbox"
	"github.com/calebmoran/printworks-backend/pkg/pagination"
)

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeCartRepo struct {
	record    *models.CartRecord
	converted bool
}

func (f *fakeCartRepo) WithTx(tx *gorm.DB) cart.CartRepository { return f }

func (f *fakeCartRepo) Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	return record, nil
}

func (f *fakeCartRepo) Update(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	return record, nil
}

func (f *fakeCartRepo) FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCartRepo) FindByIDAndCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.CartRecord, error) {
	if f.record == nil || f.record.ID != id || f.record.CustomerID != customerID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f.record
	return &copied, nil
}

func (f *fakeCartRepo) ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error {
	return nil
}

func (f *fakeCartRepo) AbandonStale(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeCartRepo) MarkConverted(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.converted = true
	f.record.Status = enums.CartStatusConverted
	return nil
}

type fakeOrderRepo struct {
	created *models.Order
	updated *models.Order
}

func (f *fakeOrderRepo) WithTx(tx *gorm.DB) orders.Repository { return f }

func (f *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	order.ID = uuid.New()
	f.created = order
	return nil
}

func (f *fakeOrderRepo) Update(ctx context.Context, order *models.Order) error {
	f.updated = order
	return nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrderRepo) FindByNumber(ctx context.Context, number int64) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrderRepo) ListByCustomer(ctx context.Context, params orders.ListOrdersQuery) ([]models.Order, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (f *fakeOrderRepo) NextOrderNumber(ctx context.Context) (int64, error) {
	return 1001, nil
}

type fakeCustomers struct {
	customer *models.Customer
}

func (f *fakeCustomers) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	if f.customer == nil || f.customer.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f.customer
	return &copied, nil
}

type fakeCredit struct {
	reserved decimal.Decimal
	calls    int
}

func (f *fakeCredit) ReserveCredit(tx *gorm.DB, id uuid.UUID, amount decimal.Decimal) error {
	f.reserved = amount
	f.calls++
	return nil
}

type fakeProducts struct {
	products map[uuid.UUID]models.Product
}

func (f *fakeProducts) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var result []models.Product
	for _, id := range ids {
		if product, ok := f.products[id]; ok {
			result = append(result, product)
		}
	}
	return result, nil
}

type fakeInvoices struct {
	decision invoicing.NetTermsDecision
	issued   *invoicing.IssueInvoiceInput
	invoice  *invoicing.InvoiceDTO
	issueErr error
}

func (f *fakeInvoices) Issue(ctx context.Context, input invoicing.IssueInvoiceInput) (*invoicing.InvoiceDTO, error) {
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	f.issued = &input
	if f.invoice == nil {
		f.invoice = &invoicing.InvoiceDTO{ID: uuid.New(), InvoiceNumber: "INV-202608-0001"}
	}
	return f.invoice, nil
}

func (f *fakeInvoices) CanApplyNetTerms(ctx context.Context, terms enums.NetTerms, orderTotal, creditLimit, creditUsed decimal.Decimal) (invoicing.NetTermsDecision, error) {
	return f.decision, nil
}

type fakeLedger struct {
	events []*models.LedgerEvent
}

func (f *fakeLedger) RecordTx(tx *gorm.DB, event *models.LedgerEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeStripe struct {
	intent *stripe.PaymentIntent
	err    error
	params *stripe.PaymentIntentParams
}

func (f *fakeStripe) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return f.intent, nil
}

type checkoutFixture struct {
	svc       Service
	cartRepo  *fakeCartRepo
	orderRepo *fakeOrderRepo
	customers *fakeCustomers
	credit    *fakeCredit
	invoices  *fakeInvoices
	ledger    *fakeLedger
	outbox    *fakeOutbox
	stripe    *fakeStripe
	cartID    uuid.UUID
	customer  *models.Customer
	product   models.Product
}

func newCheckoutFixture(t *testing.T, tier enums.CustomerTier) *checkoutFixture {
	t.Helper()

	template := "https://storage.example.com/templates/stk-vnl-3x3.pdf"
	product := models.Product{
		ID:                 uuid.New(),
		SKU:                "STK-VNL-3X3",
		Name:               "3x3 Vinyl Sticker",
		Category:           enums.ProductCategoryStickers,
		Material:           enums.ProductMaterialVinyl,
		Unit:               enums.ProductUnitPiece,
		BasePrice:          decimal.NewFromFloat(1),
		MOQ:                1,
		IsActive:           true,
		ArtworkTemplateURL: &template,
	}
	customer := &models.Customer{
		ID:          uuid.New(),
		ContactName: "Dana Fields",
		Email:       "dana@printworks.test",
		Tier:        tier,
		CreditLimit: decimal.NewFromInt(5000),
		CreditUsed:  decimal.Zero,
		IsActive:    true,
	}
	record := &models.CartRecord{
		ID:            uuid.New(),
		CustomerID:    customer.ID,
		Status:        enums.CartStatusActive,
		Currency:      enums.CurrencyUSD,
		ValidUntil:    time.Now().UTC().Add(time.Hour),
		Subtotal:      decimal.NewFromFloat(950),
		DiscountTotal: decimal.NewFromFloat(50),
		EstimatedTax:  decimal.NewFromFloat(68.88),
		Total:         decimal.NewFromFloat(1018.88),
		Items: []models.CartItem{
			{
				ID:                uuid.New(),
				ProductID:         product.ID,
				Quantity:          1000,
				MOQ:               1,
				BaseUnitPrice:     decimal.NewFromFloat(1),
				ResolvedUnitPrice: decimal.NewFromFloat(0.95),
				LineSubtotal:      decimal.NewFromFloat(950),
				Status:            enums.CartItemStatusOK,
			},
		},
	}

	fixture := &checkoutFixture{
		cartRepo:  &fakeCartRepo{record: record},
		orderRepo: &fakeOrderRepo{},
		customers: &fakeCustomers{customer: customer},
		credit:    &fakeCredit{},
		invoices:  &fakeInvoices{decision: invoicing.NetTermsDecision{Allowed: true}},
		ledger:    &fakeLedger{},
		outbox:    &fakeOutbox{},
		stripe: &fakeStripe{intent: &stripe.PaymentIntent{
			ID:     "pi_test_123",
			Status: stripe.PaymentIntentStatusSucceeded,
		}},
		cartID:   record.ID,
		customer: customer,
		product:  product,
	}

	svc, err := NewService(ServiceParams{
		Tx:        fakeTx{},
		CartRepo:  fixture.cartRepo,
		OrderRepo: fixture.orderRepo,
		Customers: fixture.customers,
		Credit:    fixture.credit,
		Products:  &fakeProducts{products: map[uuid.UUID]models.Product{product.ID: product}},
		Invoices:  fixture.invoices,
		Ledger:    fixture.ledger,
		Outbox:    fixture.outbox,
		Stripe:    fixture.stripe,
		Table:     pricing.DefaultTable(),
		TaxRate:   decimal.NewFromFloat(0.0725),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	fixture.svc = svc
	return fixture
}

func stringPtr(s string) *string { return &s }

func TestConfirmCardChargesAndConverts(t *testing.T) {
	fixture := newCheckoutFixture(t, enums.CustomerTierRetail)

	result, err := fixture.svc.Confirm(context.Background(), ConfirmInput{
		CustomerID:            fixture.customer.ID,
		CartID:                fixture.cartID,
		StripePaymentMethodID: stringPtr("pm_card_visa"),
		ActorUserID:           uuid.New(),
	})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if result.Order.OrderNumber != 1001 {
		t.Fatalf("expected order number 1001, got %d", result.Order.OrderNumber)
	}
	if result.Order.Status != "pending" {
		t.Fatalf("expected pending order, got %s", result.Order.Status)
	}
	if result.Invoice != nil {
		t.Fatal("card checkout must not produce an invoice")
	}
	if !fixture.cartRepo.converted {
		t.Fatal("expected cart to be marked converted")
	}
	if fixture.stripe.params == nil || *fixture.stripe.params.Amount != 101888 {
		t.Fatalf("unexpected charge amount: %+v", fixture.stripe.params)
	}
	if len(fixture.outbox.events) != 1 || fixture.outbox.events[0].EventType != enums.EventOrderPlaced {
		t.Fatalf("expected order_placed event, got %+v", fixture.outbox.events)
	}
	if len(fixture.ledger.events) != 1 || fixture.ledger.events[0].Type != enums.LedgerEventTypeChargeSucceeded {
		t.Fatalf("expected charge_succeeded ledger event, got %+v", fixture.ledger.events)
	}
	if fixture.credit.calls != 0 {
		t.Fatal("card checkout must not touch credit")
	}
	item := fixture.orderRepo.created.Items[0]
	if item.SKU != "STK-VNL-3X3" || !item.ProofRequired {
		t.Fatalf("unexpected line snapshot: %+v", item)
	}
}

func TestConfirmCardDeclined(t *testing.T) {
	fixture := newCheckoutFixture(t, enums.CustomerTierRetail)
	fixture.stripe.intent = &stripe.PaymentIntent{
		ID:     "pi_test_456",
		Status: stripe.PaymentIntentStatusRequiresPaymentMethod,
	}

	_, err := fixture.svc.Confirm(context.Background(), ConfirmInput{
		CustomerID:            fixture.customer.ID,
		CartID:                fixture.cartID,
		StripePaymentMethodID: stringPtr("pm_card_declined"),
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestConfirmNetTermsIssuesInvoice(t *testing.T) {
	fixture := newCheckoutFixture(t, enums.CustomerTierWholesale)
	terms := enums.NetTerms30

	result, err := fixture.svc.Confirm(context.Background(), ConfirmInput{
		CustomerID: fixture.customer.ID,
		CartID:     fixture.cartID,
		NetTerms:   &terms,
	})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if result.Invoice == nil {
		t.Fatal("expected an invoice for net-terms checkout")
	}
	if result.Order.InvoiceID == nil || *result.Order.InvoiceID != result.Invoice.ID {
		t.Fatal("expected order to link the issued invoice")
	}
	if fixture.credit.calls != 1 || !fixture.credit.reserved.Equal(decimal.NewFromFloat(1018.88)) {
		t.Fatalf("expected credit reservation of 1018.88, got %s after %d calls",
			fixture.credit.reserved, fixture.credit.calls)
	}
	if fixture.invoices.issued == nil || fixture.invoices.issued.OrderID == nil {
		t.Fatal("expected invoice issued with order reference")
	}
	if fixture.orderRepo.created.NetTerms == nil || *fixture.orderRepo.created.NetTerms != terms {
		t.Fatal("expected net terms recorded on order")
	}
	if len(fixture.ledger.events) != 0 {
		t.Fatal("invoice path records its ledger entry inside invoicing, not checkout")
	}
}

func TestConfirmNetTermsIneligibleTier(t *testing.T) {
	fixture := newCheckoutFixture(t, enums.CustomerTierRetail)
	terms := enums.NetTerms30

	_, err := fixture.svc.Confirm(context.Background(), ConfirmInput{
		CustomerID: fixture.customer.ID,
		CartID:     fixture.cartID,
		NetTerms:   &terms,
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if fixture.orderRepo.created != nil {
		t.Fatal("no order should be created")
	}
}

func TestConfirmNetTermsCreditDenied(t *testing.T) {
	fixture := newCheckoutFixture(t, enums.CustomerTierWholesale)
	fixture.invoices.decision = invoicing.NetTermsDecision{
		Allowed: false,
		Reason:  "available credit 100.00 is insufficient for order total 1018.88",
	}
	terms := enums.NetTerms30

	_, err := fixture.svc.Confirm(context.Background(), ConfirmInput{
		CustomerID: fixture.customer.ID,
		CartID:     fixture.cartID,
		NetTerms:   &terms,
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if fixture.credit.calls != 0 {
		t.Fatal("denied checkout must not reserve credit")
	}
	if fixture.cartRepo.converted {
		t.Fatal("denied checkout must not convert the cart")
	}
}

func TestConfirmExpiredQuote(t *testing.T) {
	fixture := newCheckoutFixture(t, enums.CustomerTierRetail)
	fixture.cartRepo.record.ValidUntil = time.Now().UTC().Add(-time.Minute)

	_, err := fixture.svc.Confirm(context.Background(), ConfirmInput{
		CustomerID:            fixture.customer.ID,
		CartID:                fixture.cartID,
		StripePaymentMethodID: stringPtr("pm_card_visa"),
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestConfirmCartAlreadyProcessed(t *testing.T) {
	fixture := newCheckoutFixture(t, enums.CustomerTierRetail)
	fixture.cartRepo.record.Status = enums.CartStatusConverted

	_, err := fixture.svc.Confirm(context.Background(), ConfirmInput{
		CustomerID:            fixture.customer.ID,
		CartID:                fixture.cartID,
		StripePaymentMethodID: stringPtr("pm_card_visa"),
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestConfirmUnavailableItemBlocks(t *testing.T) {
	fixture := newCheckoutFixture(t, enums.CustomerTierRetail)
	fixture.cartRepo.record.Items[0].Status = enums.CartItemStatusNotAvailable

	_, err := fixture.svc.Confirm(context.Background(), ConfirmInput{
		CustomerID:            fixture.customer.ID,
		CartID:                fixture.cartID,
		StripePaymentMethodID: stringPtr("pm_card_visa"),
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestConfirmValidation(t *testing.T) {
	fixture := newCheckoutFixture(t, enums.CustomerTierRetail)

	cases := []struct {
		name  string
		input ConfirmInput
	}{
		{"missing customer", ConfirmInput{CartID: fixture.cartID, StripePaymentMethodID: stringPtr("pm")}},
		{"missing cart", ConfirmInput{CustomerID: fixture.customer.ID, StripePaymentMethodID: stringPtr("pm")}},
		{"missing payment method", ConfirmInput{CustomerID: fixture.customer.ID, CartID: fixture.cartID}},
	}
	for _, tc := range cases {
		_, err := fixture.svc.Confirm(context.Background(), tc.input)
		coded := pkgerrors.As(err)
		if coded == nil || coded.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestConfirmInactiveCustomer(t *testing.T) {
	fixture := newCheckoutFixture(t, enums.CustomerTierRetail)
	fixture.customers.customer.IsActive = false

	_, err := fixture.svc.Confirm(context.Background(), ConfirmInput{
		CustomerID:            fixture.customer.ID,
		CartID:                fixture.cartID,
		StripePaymentMethodID: stringPtr("pm_card_visa"),
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestConfirmStripeErrorIsDependency(t *testing.T) {
	fixture := newCheckoutFixture(t, enums.CustomerTierRetail)
	fixture.stripe.err = errors.New("stripe unavailable")

	_, err := fixture.svc.Confirm(context.Background(), ConfirmInput{
		CustomerID:            fixture.customer.ID,
		CartID:                fixture.cartID,
		StripePaymentMethodID: stringPtr("pm_card_visa"),
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if fixture.cartRepo.converted {
		t.Fatal("failed charge must not convert the cart")
	}
}
