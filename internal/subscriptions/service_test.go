package subscriptions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/internal/billing"
	"github.com/calebmoran/printworks-backend/internal/customers"
	"github.com/calebmoran/printworks-backend/internal/squarecustomers"
	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/pagination"
	"github.com/calebmoran/printworks-backend/pkg/square"
)

type fakeBillingRepo struct {
	subsByCustomer map[uuid.UUID]*models.Subscription
	plans          map[string]*models.BillingPlan
	defaultPlan    *models.BillingPlan
	reconcileSubs  []models.Subscription
	createErr      error
	created        []*models.Subscription
	updated        []*models.Subscription
}

func newFakeBillingRepo() *fakeBillingRepo {
	return &fakeBillingRepo{
		subsByCustomer: map[uuid.UUID]*models.Subscription{},
		plans:          map[string]*models.BillingPlan{},
	}
}

func (f *fakeBillingRepo) WithTx(tx *gorm.DB) billing.Repository { return f }

func (f *fakeBillingRepo) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	if f.createErr != nil {
		return f.createErr
	}
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	copied := *sub
	f.subsByCustomer[sub.CustomerID] = &copied
	f.created = append(f.created, sub)
	return nil
}

func (f *fakeBillingRepo) UpdateSubscription(ctx context.Context, sub *models.Subscription) error {
	copied := *sub
	f.subsByCustomer[sub.CustomerID] = &copied
	f.updated = append(f.updated, sub)
	return nil
}

func (f *fakeBillingRepo) FindSubscriptionByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Subscription, error) {
	sub, ok := f.subsByCustomer[customerID]
	if !ok {
		return nil, nil
	}
	copied := *sub
	return &copied, nil
}

func (f *fakeBillingRepo) FindSubscriptionBySquareID(ctx context.Context, squareSubscriptionID string) (*models.Subscription, error) {
	for _, sub := range f.subsByCustomer {
		if sub.SquareSubscriptionID == squareSubscriptionID {
			copied := *sub
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeBillingRepo) ListSubscriptionsByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Subscription, error) {
	return nil, nil
}

func (f *fakeBillingRepo) ListSubscriptionsForReconciliation(ctx context.Context, limit int, lookback time.Duration) ([]models.Subscription, error) {
	return f.reconcileSubs, nil
}

func (f *fakeBillingRepo) CreateBillingPlan(ctx context.Context, plan *models.BillingPlan) error {
	return nil
}

func (f *fakeBillingRepo) UpdateBillingPlan(ctx context.Context, plan *models.BillingPlan) error {
	return nil
}

func (f *fakeBillingRepo) ListBillingPlans(ctx context.Context, params billing.ListBillingPlansQuery) ([]models.BillingPlan, error) {
	return nil, nil
}

func (f *fakeBillingRepo) FindBillingPlanByID(ctx context.Context, id string) (*models.BillingPlan, error) {
	return f.plans[id], nil
}

func (f *fakeBillingRepo) FindBillingPlanBySquareID(ctx context.Context, squareBillingPlanID string) (*models.BillingPlan, error) {
	return nil, nil
}

func (f *fakeBillingRepo) FindDefaultBillingPlan(ctx context.Context) (*models.BillingPlan, error) {
	return f.defaultPlan, nil
}

func (f *fakeBillingRepo) CreatePaymentMethod(ctx context.Context, method *models.PaymentMethod) error {
	return nil
}

func (f *fakeBillingRepo) ListPaymentMethodsByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.PaymentMethod, error) {
	return nil, nil
}

func (f *fakeBillingRepo) ClearDefaultPaymentMethod(ctx context.Context, customerID uuid.UUID) error {
	return nil
}

func (f *fakeBillingRepo) CreateCharge(ctx context.Context, charge *models.Charge) error { return nil }

func (f *fakeBillingRepo) UpdateCharge(ctx context.Context, charge *models.Charge) error { return nil }

func (f *fakeBillingRepo) FindChargeByStripeID(ctx context.Context, stripeChargeID string) (*models.Charge, error) {
	return nil, nil
}

func (f *fakeBillingRepo) ListCharges(ctx context.Context, params billing.ListChargesQuery) ([]models.Charge, *pagination.Cursor, error) {
	return nil, nil, nil
}

type tierChange struct {
	customerID uuid.UUID
	tier       enums.CustomerTier
	reason     string
}

type fakeCustomers struct {
	byID        map[uuid.UUID]*customers.CustomerDTO
	assignments []tierChange
	assignErr   error
}

func (f *fakeCustomers) GetByID(ctx context.Context, id uuid.UUID) (*customers.CustomerDTO, error) {
	dto, ok := f.byID[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	copied := *dto
	return &copied, nil
}

func (f *fakeCustomers) AssignTier(ctx context.Context, id uuid.UUID, input customers.AssignTierInput) (*customers.CustomerDTO, error) {
	if f.assignErr != nil {
		return nil, f.assignErr
	}
	reason := ""
	if input.Reason != nil {
		reason = *input.Reason
	}
	f.assignments = append(f.assignments, tierChange{customerID: id, tier: input.Tier, reason: reason})
	if dto, ok := f.byID[id]; ok {
		dto.Tier = input.Tier.String()
	}
	return f.byID[id], nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeSquareCustomers struct {
	id       string
	captured *squarecustomers.Input
}

func (f *fakeSquareCustomers) EnsureCustomer(ctx context.Context, input squarecustomers.Input) (string, error) {
	f.captured = &input
	return f.id, nil
}

type fakeCardVault struct {
	cardID string
	err    error
	params *square.CardCreateParams
}

func (f *fakeCardVault) CreateCard(ctx context.Context, params square.CardCreateParams) (*sq.Card, error) {
	f.params = &params
	if f.err != nil {
		return nil, f.err
	}
	id := f.cardID
	return &sq.Card{ID: &id}, nil
}

type subscriptionFixture struct {
	repo       *fakeBillingRepo
	customers  *fakeCustomers
	sqc        *fakeSquareCustomers
	cards      *fakeCardVault
	square     *stubSquareSubscriptionClient
	svc        Service
	customerID uuid.UUID
}

func newSubscriptionFixture(t *testing.T, tier enums.CustomerTier) *subscriptionFixture {
	t.Helper()

	customerID := uuid.New()
	repo := newFakeBillingRepo()
	repo.defaultPlan = &models.BillingPlan{
		ID:                  "plan-wholesale-monthly",
		Name:                "Wholesale Monthly",
		Status:              enums.PlanStatusActive,
		SquareBillingPlanID: "sq-plan-var-monthly",
		IsDefault:           true,
		Interval:            enums.BillingIntervalMonthly,
	}
	repo.plans[repo.defaultPlan.ID] = repo.defaultPlan

	directory := &fakeCustomers{
		byID: map[uuid.UUID]*customers.CustomerDTO{
			customerID: {
				ID:          customerID,
				ContactName: "Jamie Rivera",
				Email:       "jamie@example.com",
				Tier:        tier.String(),
				IsActive:    true,
			},
		},
	}
	sqc := &fakeSquareCustomers{id: "sq-cust-1"}
	cards := &fakeCardVault{cardID: "sq-card-1"}
	square := &stubSquareSubscriptionClient{
		createResp: &SquareSubscription{
			ID:                 "sq-sub-1",
			Status:             "ACTIVE",
			StartDate:          time.Now().UTC().Unix(),
			ChargedThroughDate: time.Now().UTC().Add(30 * 24 * time.Hour).Unix(),
		},
	}

	svc, err := NewService(ServiceParams{
		BillingRepo:       repo,
		Customers:         directory,
		SquareCustomers:   sqc,
		Cards:             cards,
		SquareClient:      square,
		TransactionRunner: fakeTxRunner{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &subscriptionFixture{
		repo:       repo,
		customers:  directory,
		sqc:        sqc,
		cards:      cards,
		square:     square,
		svc:        svc,
		customerID: customerID,
	}
}

func validInput() CreateSubscriptionInput {
	return CreateSubscriptionInput{
		CardSourceID:   "cnon:token",
		CardholderName: "Jamie Rivera",
	}
}

func TestCreateSubscriptionPersistsAndUpgradesTier(t *testing.T) {
	fx := newSubscriptionFixture(t, enums.CustomerTierRetail)

	sub, created, err := fx.svc.Create(context.Background(), fx.customerID, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created {
		t.Fatal("expected a new subscription")
	}
	if sub.SquareSubscriptionID != "sq-sub-1" {
		t.Fatalf("unexpected square id %s", sub.SquareSubscriptionID)
	}
	if sub.PlanID != "plan-wholesale-monthly" {
		t.Fatalf("expected default plan, got %s", sub.PlanID)
	}
	if sub.Status != enums.SubscriptionStatusActive {
		t.Fatalf("unexpected status %s", sub.Status)
	}

	if fx.sqc.captured == nil || fx.sqc.captured.ReferenceID != fx.customerID.String() {
		t.Fatal("expected customer id as square reference")
	}
	if fx.cards.params == nil {
		t.Fatal("square card not vaulted")
	}
	if fx.cards.params.CustomerID != "sq-cust-1" {
		t.Fatalf("card vaulted against wrong square customer %q", fx.cards.params.CustomerID)
	}
	if fx.cards.params.SourceID != "cnon:token" {
		t.Fatalf("card source not forwarded, got %q", fx.cards.params.SourceID)
	}
	if fx.cards.params.IdempotencyKey == "" {
		t.Fatal("expected an idempotency key for card creation")
	}

	if fx.square.createParams == nil {
		t.Fatal("square create not called")
	}
	if fx.square.createParams.CustomerID != "sq-cust-1" {
		t.Fatalf("square customer not forwarded, got %s", fx.square.createParams.CustomerID)
	}
	if fx.square.createParams.CardID != "sq-card-1" {
		t.Fatalf("vaulted card not forwarded, got %s", fx.square.createParams.CardID)
	}
	if fx.square.createParams.PlanVariationID != "sq-plan-var-monthly" {
		t.Fatalf("plan variation not forwarded, got %s", fx.square.createParams.PlanVariationID)
	}
	if fx.square.createParams.Metadata["customer_id"] != fx.customerID.String() {
		t.Fatal("customer id missing from square metadata")
	}

	if len(fx.customers.assignments) != 1 {
		t.Fatalf("expected 1 tier change, got %d", len(fx.customers.assignments))
	}
	if fx.customers.assignments[0].tier != enums.CustomerTierWholesale {
		t.Fatalf("expected wholesale upgrade, got %s", fx.customers.assignments[0].tier)
	}
}

func TestCreateSubscriptionEnterpriseTierUntouched(t *testing.T) {
	fx := newSubscriptionFixture(t, enums.CustomerTierEnterprise)

	_, created, err := fx.svc.Create(context.Background(), fx.customerID, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created {
		t.Fatal("expected a new subscription")
	}
	if len(fx.customers.assignments) != 0 {
		t.Fatal("enterprise tier must not be reassigned")
	}
}

func TestCreateReturnsExistingActiveSubscription(t *testing.T) {
	fx := newSubscriptionFixture(t, enums.CustomerTierWholesale)
	fx.repo.subsByCustomer[fx.customerID] = &models.Subscription{
		ID:                   uuid.New(),
		CustomerID:           fx.customerID,
		PlanID:               "plan-wholesale-monthly",
		SquareSubscriptionID: "sq-sub-existing",
		Status:               enums.SubscriptionStatusActive,
	}

	sub, created, err := fx.svc.Create(context.Background(), fx.customerID, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created {
		t.Fatal("expected existing subscription to be reused")
	}
	if sub.SquareSubscriptionID != "sq-sub-existing" {
		t.Fatalf("unexpected subscription %s", sub.SquareSubscriptionID)
	}
	if fx.square.createParams != nil {
		t.Fatal("square create must not be called")
	}
	if fx.cards.params != nil {
		t.Fatal("no card should be vaulted when reusing a subscription")
	}
}

func TestCreateValidation(t *testing.T) {
	fx := newSubscriptionFixture(t, enums.CustomerTierRetail)

	cases := []struct {
		name       string
		customerID uuid.UUID
		input      CreateSubscriptionInput
	}{
		{name: "missing customer", customerID: uuid.Nil, input: validInput()},
		{name: "missing card source", customerID: fx.customerID, input: CreateSubscriptionInput{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := fx.svc.Create(context.Background(), tc.customerID, tc.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateInactiveCustomer(t *testing.T) {
	fx := newSubscriptionFixture(t, enums.CustomerTierRetail)
	fx.customers.byID[fx.customerID].IsActive = false

	_, _, err := fx.svc.Create(context.Background(), fx.customerID, validInput())
	if err == nil {
		t.Fatal("expected error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCreateUnknownPlan(t *testing.T) {
	fx := newSubscriptionFixture(t, enums.CustomerTierRetail)
	input := validInput()
	input.PlanID = "plan-missing"

	_, _, err := fx.svc.Create(context.Background(), fx.customerID, input)
	if err == nil {
		t.Fatal("expected error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateRetiredPlanRejected(t *testing.T) {
	fx := newSubscriptionFixture(t, enums.CustomerTierRetail)
	fx.repo.plans["plan-retired"] = &models.BillingPlan{
		ID:                  "plan-retired",
		Status:              enums.PlanStatusRetired,
		SquareBillingPlanID: "sq-plan-var-old",
	}
	input := validInput()
	input.PlanID = "plan-retired"

	_, _, err := fx.svc.Create(context.Background(), fx.customerID, input)
	if err == nil {
		t.Fatal("expected error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCreateCardVaultFailureStopsSignup(t *testing.T) {
	fx := newSubscriptionFixture(t, enums.CustomerTierRetail)
	fx.cards.err = errors.New("card declined")

	_, _, err := fx.svc.Create(context.Background(), fx.customerID, validInput())
	if err == nil {
		t.Fatal("expected error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if fx.square.createParams != nil {
		t.Fatal("subscription must not be created when the card vault fails")
	}
	if len(fx.repo.created) != 0 {
		t.Fatal("no subscription row expected")
	}
}

func TestCreateCancelsSquareOnPersistFailure(t *testing.T) {
	fx := newSubscriptionFixture(t, enums.CustomerTierRetail)
	fx.repo.createErr = errors.New("insert failed")

	_, _, err := fx.svc.Create(context.Background(), fx.customerID, validInput())
	if err == nil {
		t.Fatal("expected error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(fx.square.cancelCalls) != 1 || fx.square.cancelCalls[0] != "sq-sub-1" {
		t.Fatalf("expected square compensation cancel, got %v", fx.square.cancelCalls)
	}
}

func TestCancelMarksCancelAtPeriodEnd(t *testing.T) {
	fx := newSubscriptionFixture(t, enums.CustomerTierWholesale)
	periodEnd := time.Now().UTC().Add(12 * 24 * time.Hour)
	fx.repo.subsByCustomer[fx.customerID] = &models.Subscription{
		ID:                   uuid.New(),
		CustomerID:           fx.customerID,
		PlanID:               "plan-wholesale-monthly",
		SquareSubscriptionID: "sq-sub-1",
		Status:               enums.SubscriptionStatusActive,
		CurrentPeriodEnd:     periodEnd,
	}
	fx.square.cancelResp = &SquareSubscription{
		ID:                 "sq-sub-1",
		Status:             "ACTIVE",
		CanceledAt:         periodEnd.Unix(),
		ChargedThroughDate: periodEnd.Unix(),
	}

	sub, err := fx.svc.Cancel(context.Background(), fx.customerID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !sub.CancelAtPeriodEnd {
		t.Fatal("expected cancel at period end")
	}
	if sub.Status != enums.SubscriptionStatusActive {
		t.Fatalf("subscription should stay active until the period lapses, got %s", sub.Status)
	}
	if sub.CanceledAt == nil {
		t.Fatal("expected canceled_at to be recorded")
	}
	// Tier downgrades happen in reconciliation, not at cancel time.
	if len(fx.customers.assignments) != 0 {
		t.Fatal("cancel must not change the tier")
	}
}

func TestCancelWithoutActiveSubscription(t *testing.T) {
	fx := newSubscriptionFixture(t, enums.CustomerTierRetail)

	_, err := fx.svc.Cancel(context.Background(), fx.customerID)
	if err == nil {
		t.Fatal("expected error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetReturnsLatestSubscription(t *testing.T) {
	fx := newSubscriptionFixture(t, enums.CustomerTierWholesale)
	fx.repo.subsByCustomer[fx.customerID] = &models.Subscription{
		ID:                   uuid.New(),
		CustomerID:           fx.customerID,
		SquareSubscriptionID: "sq-sub-1",
		Status:               enums.SubscriptionStatusCanceled,
	}

	sub, err := fx.svc.Get(context.Background(), fx.customerID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sub.Status != enums.SubscriptionStatusCanceled {
		t.Fatalf("unexpected status %s", sub.Status)
	}
}

func TestGetNotFound(t *testing.T) {
	fx := newSubscriptionFixture(t, enums.CustomerTierRetail)

	_, err := fx.svc.Get(context.Background(), fx.customerID)
	if err == nil {
		t.Fatal("expected error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReconcileSyncsStatusAndDowngradesTier(t *testing.T) {
	fx := newSubscriptionFixture(t, enums.CustomerTierWholesale)
	subID := uuid.New()
	fx.repo.reconcileSubs = []models.Subscription{
		{
			ID:                   subID,
			CustomerID:           fx.customerID,
			PlanID:               "plan-wholesale-monthly",
			SquareSubscriptionID: "sq-sub-1",
			Status:               enums.SubscriptionStatusActive,
			CancelAtPeriodEnd:    true,
		},
	}
	canceledAt := time.Now().UTC().Add(-time.Hour)
	fx.square.getResp = map[string]*SquareSubscription{
		"sq-sub-1": {
			ID:         "sq-sub-1",
			Status:     "CANCELED",
			CanceledAt: canceledAt.Unix(),
		},
	}

	result, err := fx.svc.Reconcile(context.Background(), 100)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result.Checked != 1 || result.Updated != 1 || result.Downgraded != 1 || result.Failed != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(fx.repo.updated) != 1 {
		t.Fatalf("expected 1 subscription update, got %d", len(fx.repo.updated))
	}
	if fx.repo.updated[0].Status != enums.SubscriptionStatusCanceled {
		t.Fatalf("status not synced, got %s", fx.repo.updated[0].Status)
	}
	if len(fx.customers.assignments) != 1 {
		t.Fatalf("expected 1 tier change, got %d", len(fx.customers.assignments))
	}
	if fx.customers.assignments[0].tier != enums.CustomerTierRetail {
		t.Fatalf("expected retail downgrade, got %s", fx.customers.assignments[0].tier)
	}
}

func TestReconcileCountsFailedLookups(t *testing.T) {
	fx := newSubscriptionFixture(t, enums.CustomerTierWholesale)
	fx.repo.reconcileSubs = []models.Subscription{
		{
			ID:                   uuid.New(),
			CustomerID:           fx.customerID,
			SquareSubscriptionID: "sq-sub-1",
			Status:               enums.SubscriptionStatusActive,
		},
	}
	fx.square.getErr = errors.New("square unavailable")

	result, err := fx.svc.Reconcile(context.Background(), 100)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result.Checked != 1 || result.Failed != 1 || result.Updated != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(fx.repo.updated) != 0 {
		t.Fatal("no updates expected when square lookup fails")
	}
}
