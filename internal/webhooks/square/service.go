package squarewebhook

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/internal/billing"
	"github.com/calebmoran/printworks-backend/internal/customers"
	"github.com/calebmoran/printworks-backend/internal/subscriptions"
	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
)

const (
	tierUpgradeReason   = "wholesale program subscription started"
	tierDowngradeReason = "wholesale program subscription ended"
)

type customerDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*customers.CustomerDTO, error)
	AssignTier(ctx context.Context, id uuid.UUID, input customers.AssignTierInput) (*customers.CustomerDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	BillingRepo       billing.Repository
	Customers         customerDirectory
	SquareClient      subscriptions.SquareSubscriptionClient
	TransactionRunner txRunner
}

// Service mirrors Square subscription events into the billing tables and
// keeps the customer's wholesale tier aligned with the subscription state.
type Service struct {
	billingRepo billing.Repository
	customers   customerDirectory
	square      subscriptions.SquareSubscriptionClient
	txRunner    txRunner
}

func NewService(params ServiceParams) (*Service, error) {
	if params.BillingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customer directory required")
	}
	if params.SquareClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "square client required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		billingRepo: params.BillingRepo,
		customers:   params.Customers,
		square:      params.SquareClient,
		txRunner:    params.TransactionRunner,
	}, nil
}

type SquareWebhookEvent struct {
	EventID string            `json:"event_id"`
	Type    string            `json:"type"`
	Data    SquareWebhookData `json:"data"`
}

type SquareWebhookData struct {
	Type   string              `json:"type"`
	ID     string              `json:"id"`
	Object SquareWebhookObject `json:"object"`
}

type SquareWebhookObject struct {
	Type         string                            `json:"type"`
	ID           string                            `json:"id"`
	Subscription *subscriptions.SquareSubscription `json:"subscription"`
}

// HandleEvent processes Square subscription and invoice events.
func (s *Service) HandleEvent(ctx context.Context, event *SquareWebhookEvent) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "square event required")
	}

	switch strings.ToLower(event.Type) {
	case "subscription.created", "subscription.updated", "subscription.canceled":
		if event.Data.Object.Subscription == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "subscription payload missing")
		}
		return s.syncSubscription(ctx, event.Data.Object.Subscription)
	case "invoice.payment_made", "invoice.payment_failed":
		subscriptionID := event.Data.Object.ID
		if subscriptionID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "subscription id missing")
		}
		squareSub, err := s.square.Get(ctx, subscriptionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch square subscription")
		}
		return s.syncSubscription(ctx, squareSub)
	default:
		return nil
	}
}

func (s *Service) syncSubscription(ctx context.Context, squareSub *subscriptions.SquareSubscription) error {
	if squareSub == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription is required")
	}

	var synced *models.Subscription
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)
		stored, err := repo.FindSubscriptionBySquareID(ctx, squareSub.ID)
		if err != nil {
			return err
		}

		if stored == nil {
			customerID, err := subscriptions.CustomerIDFromMetadata(squareSub.Metadata)
			if err != nil {
				return err
			}
			planID, err := s.resolvePlanID(ctx, repo, squareSub)
			if err != nil {
				return err
			}
			built, err := subscriptions.BuildSubscriptionFromSquare(squareSub, customerID, planID)
			if err != nil {
				return err
			}
			if err := repo.CreateSubscription(ctx, built); err != nil {
				return err
			}
			synced = built
			return nil
		}

		if err := subscriptions.UpdateSubscriptionFromSquare(stored, squareSub); err != nil {
			return err
		}
		if err := repo.UpdateSubscription(ctx, stored); err != nil {
			return err
		}
		synced = stored
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return appErr
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist subscription")
	}

	return s.alignTier(ctx, synced)
}

// resolvePlanID prefers the plan recorded in the subscription metadata,
// falling back to the Square plan variation mapping.
func (s *Service) resolvePlanID(ctx context.Context, repo billing.Repository, squareSub *subscriptions.SquareSubscription) (string, error) {
	if squareSub.Metadata != nil {
		if planID := strings.TrimSpace(squareSub.Metadata["plan_id"]); planID != "" {
			return planID, nil
		}
	}
	if squareSub.PlanVariationID != "" {
		plan, err := repo.FindBillingPlanBySquareID(ctx, squareSub.PlanVariationID)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup billing plan")
		}
		if plan != nil {
			return plan.ID, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "billing plan unresolved for subscription")
}

// alignTier mirrors the reconciliation sweep: active subscriptions grant the
// wholesale tier to retail customers, lapsed ones revert wholesale customers
// to retail. Enterprise tiers are never touched.
func (s *Service) alignTier(ctx context.Context, sub *models.Subscription) error {
	customer, err := s.customers.GetByID(ctx, sub.CustomerID)
	if err != nil {
		return err
	}
	switch {
	case subscriptions.IsActiveStatus(sub.Status) && customer.Tier == enums.CustomerTierRetail.String():
		return s.assignTier(ctx, sub.CustomerID, enums.CustomerTierWholesale, tierUpgradeReason)
	case !subscriptions.IsActiveStatus(sub.Status) && customer.Tier == enums.CustomerTierWholesale.String():
		return s.assignTier(ctx, sub.CustomerID, enums.CustomerTierRetail, tierDowngradeReason)
	}
	return nil
}

func (s *Service) assignTier(ctx context.Context, customerID uuid.UUID, tier enums.CustomerTier, reason string) error {
	r := reason
	_, err := s.customers.AssignTier(ctx, customerID, customers.AssignTierInput{
		Tier:   tier,
		Reason: &r,
	})
	return err
}
