package stripewebhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/internal/billing"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/outbox"
	"github.com/calebmoran/printworks-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams bundles the dependencies for the Stripe webhook handler.
type ServiceParams struct {
	BillingRepo       billing.Repository
	TransactionRunner txRunner
	Outbox            outboxEmitter
}

// Service keeps the stored charge rows aligned with Stripe's view of each
// payment intent. Checkout confirms intents synchronously, so these events
// mostly affect refunds and asynchronous payment methods.
type Service struct {
	billingRepo billing.Repository
	txRunner    txRunner
	outbox      outboxEmitter
}

func NewService(params ServiceParams) (*Service, error) {
	if params.BillingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		billingRepo: params.BillingRepo,
		txRunner:    params.TransactionRunner,
		outbox:      params.Outbox,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		intent, err := decodePaymentIntent(event)
		if err != nil {
			return err
		}
		return s.settleCharge(ctx, intent.ID, enums.ChargeStatusSucceeded)
	case stripe.EventTypePaymentIntentPaymentFailed:
		intent, err := decodePaymentIntent(event)
		if err != nil {
			return err
		}
		return s.settleCharge(ctx, intent.ID, enums.ChargeStatusFailed)
	case stripe.EventTypeChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode charge event")
		}
		if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment intent missing from refund event")
		}
		return s.settleCharge(ctx, charge.PaymentIntent.ID, enums.ChargeStatusRefunded)
	default:
		return nil
	}
}

// settleCharge moves the stored charge to the given status. Events for
// payments this system never recorded are acknowledged without action so
// Stripe stops retrying them.
func (s *Service) settleCharge(ctx context.Context, paymentIntentID string, status enums.ChargeStatus) error {
	if paymentIntentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)
		stored, err := repo.FindChargeByStripeID(ctx, paymentIntentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup charge")
		}
		if stored == nil {
			return nil
		}
		if stored.Status == status {
			return nil
		}
		// A refund can land after success; a failure never overwrites a
		// refund.
		if stored.Status == enums.ChargeStatusRefunded {
			return nil
		}
		stored.Status = status
		if status == enums.ChargeStatusSucceeded && stored.BilledAt == nil {
			now := time.Now().UTC()
			stored.BilledAt = &now
		}
		if err := repo.UpdateCharge(ctx, stored); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update charge")
		}

		var eventType enums.OutboxEventType
		switch status {
		case enums.ChargeStatusSucceeded:
			eventType = enums.EventPaymentSettled
		case enums.ChargeStatusFailed:
			eventType = enums.EventPaymentFailed
		default:
			return nil
		}
		if s.outbox != nil {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     eventType,
				AggregateType: enums.AggregateCustomer,
				AggregateID:   stored.CustomerID,
				Version:       1,
				Data: payloads.PaymentEvent{
					ChargeID:       stored.ID,
					CustomerID:     stored.CustomerID,
					OrderID:        stored.OrderID,
					InvoiceID:      stored.InvoiceID,
					StripeChargeID: stored.StripeChargeID,
					AmountCents:    stored.AmountCents,
					Currency:       stored.Currency,
					Status:         stored.Status,
				},
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payment event")
			}
		}
		return nil
	})
}

func decodePaymentIntent(event *stripe.Event) (*stripe.PaymentIntent, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
	}
	if intent.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}
	return &intent, nil
}
