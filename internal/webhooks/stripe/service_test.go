package stripewebhook

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/internal/billing"
	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
)

type stubBillingRepo struct {
	billing.Repository

	charge  *models.Charge
	updated *models.Charge
}

func (s *stubBillingRepo) WithTx(tx *gorm.DB) billing.Repository { return s }

func (s *stubBillingRepo) FindChargeByStripeID(ctx context.Context, stripeChargeID string) (*models.Charge, error) {
	if s.charge != nil && s.charge.StripeChargeID == stripeChargeID {
		return s.charge, nil
	}
	return nil, nil
}

func (s *stubBillingRepo) UpdateCharge(ctx context.Context, charge *models.Charge) error {
	s.updated = charge
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo *stubBillingRepo) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		BillingRepo:       repo,
		TransactionRunner: stubTxRunner{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func intentEvent(t *testing.T, eventType stripe.EventType, intentID string) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"id": intentID})
	if err != nil {
		t.Fatalf("marshal intent: %v", err)
	}
	return &stripe.Event{
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func pendingCharge(intentID string) *models.Charge {
	return &models.Charge{
		ID:             uuid.New(),
		CustomerID:     uuid.New(),
		StripeChargeID: intentID,
		AmountCents:    12500,
		Status:         enums.ChargeStatusPending,
	}
}

func TestHandleEventMarksChargeSucceeded(t *testing.T) {
	repo := &stubBillingRepo{charge: pendingCharge("pi_123")}
	svc := newTestService(t, repo)

	err := svc.HandleEvent(context.Background(), intentEvent(t, stripe.EventTypePaymentIntentSucceeded, "pi_123"))
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if repo.updated == nil {
		t.Fatal("expected charge update")
	}
	if repo.updated.Status != enums.ChargeStatusSucceeded {
		t.Fatalf("expected succeeded, got %s", repo.updated.Status)
	}
	if repo.updated.BilledAt == nil {
		t.Fatal("expected billed_at to be set")
	}
}

func TestHandleEventMarksChargeFailed(t *testing.T) {
	repo := &stubBillingRepo{charge: pendingCharge("pi_456")}
	svc := newTestService(t, repo)

	err := svc.HandleEvent(context.Background(), intentEvent(t, stripe.EventTypePaymentIntentPaymentFailed, "pi_456"))
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if repo.updated == nil || repo.updated.Status != enums.ChargeStatusFailed {
		t.Fatalf("expected failed charge, got %+v", repo.updated)
	}
}

func TestHandleEventRefundsSettledCharge(t *testing.T) {
	charge := pendingCharge("pi_789")
	charge.Status = enums.ChargeStatusSucceeded
	now := time.Now().UTC()
	charge.BilledAt = &now
	repo := &stubBillingRepo{charge: charge}
	svc := newTestService(t, repo)

	raw, err := json.Marshal(map[string]any{
		"id":             "ch_1",
		"payment_intent": map[string]any{"id": "pi_789"},
	})
	if err != nil {
		t.Fatalf("marshal charge: %v", err)
	}
	event := &stripe.Event{Type: stripe.EventTypeChargeRefunded, Data: &stripe.EventData{Raw: raw}}

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if repo.updated == nil || repo.updated.Status != enums.ChargeStatusRefunded {
		t.Fatalf("expected refunded charge, got %+v", repo.updated)
	}
}

func TestHandleEventIgnoresUnknownCharge(t *testing.T) {
	repo := &stubBillingRepo{}
	svc := newTestService(t, repo)

	err := svc.HandleEvent(context.Background(), intentEvent(t, stripe.EventTypePaymentIntentSucceeded, "pi_unknown"))
	if err != nil {
		t.Fatalf("expected unknown charge to be acknowledged, got %v", err)
	}
	if repo.updated != nil {
		t.Fatal("expected no update for unknown charge")
	}
}

func TestHandleEventNeverDowngradesRefund(t *testing.T) {
	charge := pendingCharge("pi_refunded")
	charge.Status = enums.ChargeStatusRefunded
	repo := &stubBillingRepo{charge: charge}
	svc := newTestService(t, repo)

	err := svc.HandleEvent(context.Background(), intentEvent(t, stripe.EventTypePaymentIntentPaymentFailed, "pi_refunded"))
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if repo.updated != nil {
		t.Fatal("refunded charge must not change status")
	}
}

func TestHandleEventIgnoresUnrelatedTypes(t *testing.T) {
	repo := &stubBillingRepo{charge: pendingCharge("pi_1")}
	svc := newTestService(t, repo)

	event := &stripe.Event{Type: stripe.EventType("customer.created"), Data: &stripe.EventData{Raw: []byte(`{}`)}}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if repo.updated != nil {
		t.Fatal("expected no update for unrelated event")
	}
}
