package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/pagination"
)

type stubRepo struct {
	listChargesFn  func(ctx context.Context, params ListChargesQuery) ([]models.Charge, *pagination.Cursor, error)
	defaultPlan    *models.BillingPlan
	plansByID      map[string]*models.BillingPlan
	created        []*models.PaymentMethod
	clearedDefault []uuid.UUID
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }
func (s *stubRepo) CreateSubscription(ctx context.Context, subscription *models.Subscription) error {
	return nil
}
func (s *stubRepo) UpdateSubscription(ctx context.Context, subscription *models.Subscription) error {
	return nil
}
func (s *stubRepo) FindSubscriptionByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Subscription, error) {
	return nil, nil
}
func (s *stubRepo) FindSubscriptionBySquareID(ctx context.Context, squareSubscriptionID string) (*models.Subscription, error) {
	return nil, nil
}
func (s *stubRepo) ListSubscriptionsByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Subscription, error) {
	return nil, nil
}
func (s *stubRepo) ListSubscriptionsForReconciliation(ctx context.Context, limit int, lookback time.Duration) ([]models.Subscription, error) {
	return nil, nil
}
func (s *stubRepo) CreateBillingPlan(ctx context.Context, plan *models.BillingPlan) error { return nil }
func (s *stubRepo) UpdateBillingPlan(ctx context.Context, plan *models.BillingPlan) error { return nil }
func (s *stubRepo) ListBillingPlans(ctx context.Context, params ListBillingPlansQuery) ([]models.BillingPlan, error) {
	return nil, nil
}
func (s *stubRepo) FindBillingPlanByID(ctx context.Context, id string) (*models.BillingPlan, error) {
	if s.plansByID == nil {
		return nil, nil
	}
	return s.plansByID[id], nil
}
func (s *stubRepo) FindBillingPlanBySquareID(ctx context.Context, squareBillingPlanID string) (*models.BillingPlan, error) {
	return nil, nil
}
func (s *stubRepo) FindDefaultBillingPlan(ctx context.Context) (*models.BillingPlan, error) {
	return s.defaultPlan, nil
}
func (s *stubRepo) CreatePaymentMethod(ctx context.Context, method *models.PaymentMethod) error {
	s.created = append(s.created, method)
	return nil
}
func (s *stubRepo) ListPaymentMethodsByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.PaymentMethod, error) {
	return nil, nil
}
func (s *stubRepo) ClearDefaultPaymentMethod(ctx context.Context, customerID uuid.UUID) error {
	s.clearedDefault = append(s.clearedDefault, customerID)
	return nil
}
func (s *stubRepo) CreateCharge(ctx context.Context, charge *models.Charge) error { return nil }
func (s *stubRepo) UpdateCharge(ctx context.Context, charge *models.Charge) error { return nil }
func (s *stubRepo) FindChargeByStripeID(ctx context.Context, stripeChargeID string) (*models.Charge, error) {
	return nil, nil
}
func (s *stubRepo) ListCharges(ctx context.Context, params ListChargesQuery) ([]models.Charge, *pagination.Cursor, error) {
	if s.listChargesFn != nil {
		return s.listChargesFn(ctx, params)
	}
	return nil, nil, nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, TransactionRunner: stubTx{}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestListChargesRequiresCustomer(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	if _, err := svc.ListCharges(context.Background(), ListChargesParams{}); err == nil {
		t.Fatal("expected error when customer id is missing")
	} else if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListChargesInvalidCursor(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	_, err := svc.ListCharges(context.Background(), ListChargesParams{
		CustomerID: uuid.New(),
		Cursor:     "not-a-cursor",
	})
	if err == nil {
		t.Fatal("expected error for invalid cursor")
	} else if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListChargesForwardsFiltersAndCursor(t *testing.T) {
	now := time.Now().UTC()
	next := pagination.Cursor{
		CreatedAt: now.Add(-time.Hour),
		ID:        uuid.New(),
	}

	captured := ListChargesQuery{}
	repo := &stubRepo{
		listChargesFn: func(ctx context.Context, params ListChargesQuery) ([]models.Charge, *pagination.Cursor, error) {
			captured = params
			return []models.Charge{
				{
					ID:        uuid.New(),
					CreatedAt: now,
				},
			}, &next, nil
		},
	}

	svc := newTestService(t, repo)
	typ := enums.ChargeTypeInvoice
	status := enums.ChargeStatusSucceeded
	result, err := svc.ListCharges(context.Background(), ListChargesParams{
		CustomerID: uuid.New(),
		Limit:      5,
		Cursor:     pagination.EncodeCursor(next),
		Type:       &typ,
		Status:     &status,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.Limit != 5 {
		t.Fatalf("expected limit 5, got %d", captured.Limit)
	}
	if captured.Type == nil || *captured.Type != typ {
		t.Fatal("type filter not forwarded")
	}
	if captured.Status == nil || *captured.Status != status {
		t.Fatal("status filter not forwarded")
	}

	expectedCursor := pagination.EncodeCursor(next)
	if result.Cursor != expectedCursor {
		t.Fatalf("expected cursor %s, got %s", expectedCursor, result.Cursor)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 charge, got %d", len(result.Items))
	}
}

func TestGetPlanNotFound(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	_, err := svc.GetPlan(context.Background(), "plan-missing")
	if err == nil {
		t.Fatal("expected error for unknown plan")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDefaultPlanMissingConfigured(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	if _, err := svc.DefaultPlan(context.Background()); err == nil {
		t.Fatal("expected error when no default plan exists")
	} else if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddDefaultPaymentMethodClearsPrevious(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)
	customerID := uuid.New()

	err := svc.AddPaymentMethod(context.Background(), &models.PaymentMethod{
		CustomerID:            customerID,
		StripePaymentMethodID: "pm_123",
		IsDefault:             true,
	})
	if err != nil {
		t.Fatalf("add payment method: %v", err)
	}
	if len(repo.clearedDefault) != 1 || repo.clearedDefault[0] != customerID {
		t.Fatal("expected previous default to be cleared")
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 created method, got %d", len(repo.created))
	}
}

func TestAddNonDefaultPaymentMethodSkipsClear(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)

	err := svc.AddPaymentMethod(context.Background(), &models.PaymentMethod{
		CustomerID:            uuid.New(),
		StripePaymentMethodID: "pm_456",
	})
	if err != nil {
		t.Fatalf("add payment method: %v", err)
	}
	if len(repo.clearedDefault) != 0 {
		t.Fatal("did not expect default clearing")
	}
}
