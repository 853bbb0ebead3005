package subscriptions

import (
	"context"
	"fmt"
	"strings"
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
	"github.com/calebmoran/printworks-backend/pkg/square"
	"github.com/calebmoran/printworks-backend/pkg/types"
)

const (
	reconcileLookback = 7 * 24 * time.Hour

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

type squareCustomerEnsurer interface {
	EnsureCustomer(ctx context.Context, input squarecustomers.Input) (string, error)
}

type cardCreator interface {
	CreateCard(ctx context.Context, params square.CardCreateParams) (*sq.Card, error)
}

// Service defines the wholesale-program subscription lifecycle.
type Service interface {
	Create(ctx context.Context, customerID uuid.UUID, input CreateSubscriptionInput) (*models.Subscription, bool, error)
	Cancel(ctx context.Context, customerID uuid.UUID) (*models.Subscription, error)
	Get(ctx context.Context, customerID uuid.UUID) (*models.Subscription, error)
	Reconcile(ctx context.Context, limit int) (*ReconcileResult, error)
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	BillingRepo       billing.Repository
	Customers         customerDirectory
	SquareCustomers   squareCustomerEnsurer
	Cards             cardCreator
	SquareClient      SquareSubscriptionClient
	TransactionRunner txRunner
}

// CreateSubscriptionInput captures the data required to start a subscription.
// PlanID falls back to the default billing plan when empty. CardSourceID is
// the Square card token from the client; the service vaults the card against
// the customer's Square profile before starting the subscription.
type CreateSubscriptionInput struct {
	PlanID            string
	CardSourceID      string
	CardholderName    string
	VerificationToken string
}

// ReconcileResult summarizes one reconciliation sweep against Square.
type ReconcileResult struct {
	Checked    int
	Updated    int
	Downgraded int
	Failed     int
}

type service struct {
	billingRepo     billing.Repository
	customers       customerDirectory
	squareCustomers squareCustomerEnsurer
	cards           cardCreator
	square          SquareSubscriptionClient
	txRunner        txRunner
}

// NewService builds a subscription service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.BillingRepo == nil {
		return nil, fmt.Errorf("billing repo required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer directory required")
	}
	if params.SquareCustomers == nil {
		return nil, fmt.Errorf("square customer service required")
	}
	if params.Cards == nil {
		return nil, fmt.Errorf("square card client required")
	}
	if params.SquareClient == nil {
		return nil, fmt.Errorf("square client required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		billingRepo:     params.BillingRepo,
		customers:       params.Customers,
		squareCustomers: params.SquareCustomers,
		cards:           params.Cards,
		square:          params.SquareClient,
		txRunner:        params.TransactionRunner,
	}, nil
}

// Create starts a wholesale-program subscription, or returns the existing one
// when the customer already has an active subscription. The bool result
// reports whether a new subscription was created. The card token from the
// client is vaulted against the customer's Square profile first; the Square
// customer is created on demand. Retail customers are upgraded to the
// wholesale tier once the subscription is persisted; if that upgrade fails
// the subscription is still returned alongside the error, and the next
// reconciliation sweep retries the tier change.
func (s *service) Create(ctx context.Context, customerID uuid.UUID, input CreateSubscriptionInput) (*models.Subscription, bool, error) {
	if customerID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	cardSource := strings.TrimSpace(input.CardSourceID)
	if cardSource == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "card_source_id is required")
	}

	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, false, err
	}
	if !customer.IsActive {
		return nil, false, pkgerrors.New(pkgerrors.CodeStateConflict, "customer account is inactive")
	}

	if existing, err := s.findActive(ctx, customerID); err != nil {
		return nil, false, err
	} else if existing != nil {
		return existing, false, nil
	}

	plan, err := s.resolvePlan(ctx, input.PlanID)
	if err != nil {
		return nil, false, err
	}

	squareCustomerID, err := s.ensureSquareCustomer(ctx, customer)
	if err != nil {
		return nil, false, err
	}
	squareCardID, err := s.vaultCard(ctx, squareCustomerID, cardSource, input)
	if err != nil {
		return nil, false, err
	}

	squareSub, err := s.square.Create(ctx, &SquareSubscriptionParams{
		CustomerID:      squareCustomerID,
		PlanVariationID: plan.SquareBillingPlanID,
		CardID:          squareCardID,
		Metadata: map[string]string{
			"customer_id": customerID.String(),
			"plan_id":     plan.ID,
		},
	})
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create square subscription")
	}

	var (
		createdSub    *models.Subscription
		existingAfter *models.Subscription
		skipped       bool
	)
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.billingRepo.WithTx(tx)

		active, err := s.findActiveWith(ctx, txRepo, customerID)
		if err != nil {
			return err
		}
		if active != nil {
			existingAfter = active
			skipped = true
			return nil
		}

		sub, err := BuildSubscriptionFromSquare(squareSub, customerID, plan.ID)
		if err != nil {
			return err
		}
		if err := txRepo.CreateSubscription(ctx, sub); err != nil {
			return err
		}
		createdSub = sub
		return nil
	})
	if err != nil {
		// The Square subscription exists but was never persisted; cancel it
		// so the customer is not billed for an untracked subscription.
		if cancelErr := s.cancelSquare(ctx, squareSub.ID); cancelErr != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, cancelErr, "cancel square subscription after db error")
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist subscription")
	}

	if skipped {
		if cancelErr := s.cancelSquare(ctx, squareSub.ID); cancelErr != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, cancelErr, "cancel duplicate square subscription")
		}
		return existingAfter, false, nil
	}

	if IsActiveStatus(createdSub.Status) && customer.Tier == enums.CustomerTierRetail.String() {
		if err := s.assignTier(ctx, customerID, enums.CustomerTierWholesale, tierUpgradeReason); err != nil {
			return createdSub, true, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscription created but tier upgrade failed")
		}
	}
	return createdSub, true, nil
}

// Cancel schedules the active subscription to end at the close of the current
// billing period. The wholesale tier stays in force until reconciliation sees
// the subscription fully canceled.
func (s *service) Cancel(ctx context.Context, customerID uuid.UUID) (*models.Subscription, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	active, err := s.findActive(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active subscription")
	}

	squareSub, err := s.square.Cancel(ctx, active.SquareSubscriptionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel square subscription")
	}

	var updated *models.Subscription
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.billingRepo.WithTx(tx)
		stored, err := s.findSubscriptionWith(ctx, txRepo, customerID)
		if err != nil {
			return err
		}
		if stored == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
		}
		if err := UpdateSubscriptionFromSquare(stored, squareSub); err != nil {
			return err
		}
		if stored.Status != enums.SubscriptionStatusCanceled {
			stored.CancelAtPeriodEnd = true
		}
		if err := txRepo.UpdateSubscription(ctx, stored); err != nil {
			return err
		}
		updated = stored
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cancellation")
	}
	return updated, nil
}

// Get returns the customer's latest subscription regardless of status.
func (s *service) Get(ctx context.Context, customerID uuid.UUID) (*models.Subscription, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	sub, err := s.findSubscription(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}
	return sub, nil
}

// Reconcile pulls live state from Square for every subscription that could
// still change and realigns the stored row plus the customer's tier. Lookup
// failures are counted and skipped so one bad subscription cannot stall the
// sweep.
func (s *service) Reconcile(ctx context.Context, limit int) (*ReconcileResult, error) {
	subs, err := s.billingRepo.ListSubscriptionsForReconciliation(ctx, limit, reconcileLookback)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscriptions for reconciliation")
	}

	result := &ReconcileResult{Checked: len(subs)}
	for i := range subs {
		stored := &subs[i]
		live, err := s.square.Get(ctx, stored.SquareSubscriptionID)
		if err != nil {
			result.Failed++
			continue
		}
		previousStatus := stored.Status
		if err := UpdateSubscriptionFromSquare(stored, live); err != nil {
			result.Failed++
			continue
		}
		if err := s.billingRepo.UpdateSubscription(ctx, stored); err != nil {
			result.Failed++
			continue
		}
		if stored.Status != previousStatus {
			result.Updated++
		}
		downgraded, err := s.alignTier(ctx, stored)
		if err != nil {
			result.Failed++
			continue
		}
		if downgraded {
			result.Downgraded++
		}
	}
	return result, nil
}

// alignTier keeps the customer tier consistent with the subscription state:
// an active subscription grants wholesale to retail customers, a lapsed one
// returns wholesale customers to retail. Enterprise tiers are never touched.
// The bool result reports a downgrade.
func (s *service) alignTier(ctx context.Context, sub *models.Subscription) (bool, error) {
	customer, err := s.customers.GetByID(ctx, sub.CustomerID)
	if err != nil {
		return false, err
	}
	switch {
	case IsActiveStatus(sub.Status) && customer.Tier == enums.CustomerTierRetail.String():
		return false, s.assignTier(ctx, sub.CustomerID, enums.CustomerTierWholesale, tierUpgradeReason)
	case !IsActiveStatus(sub.Status) && customer.Tier == enums.CustomerTierWholesale.String():
		if err := s.assignTier(ctx, sub.CustomerID, enums.CustomerTierRetail, tierDowngradeReason); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (s *service) assignTier(ctx context.Context, customerID uuid.UUID, tier enums.CustomerTier, reason string) error {
	r := reason
	_, err := s.customers.AssignTier(ctx, customerID, customers.AssignTierInput{
		Tier:   tier,
		Reason: &r,
	})
	return err
}

func (s *service) resolvePlan(ctx context.Context, planID string) (*models.BillingPlan, error) {
	planID = strings.TrimSpace(planID)
	var (
		plan *models.BillingPlan
		err  error
	)
	if planID != "" {
		plan, err = s.billingRepo.FindBillingPlanByID(ctx, planID)
	} else {
		plan, err = s.billingRepo.FindDefaultBillingPlan(ctx)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup billing plan")
	}
	if plan == nil {
		if planID != "" {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "billing plan not found")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no default billing plan configured")
	}
	if plan.Status != enums.PlanStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("billing plan %s is %s", plan.ID, plan.Status))
	}
	return plan, nil
}

func (s *service) findActive(ctx context.Context, customerID uuid.UUID) (*models.Subscription, error) {
	return s.findActiveWith(ctx, s.billingRepo, customerID)
}

func (s *service) findActiveWith(ctx context.Context, repo billing.Repository, customerID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.findSubscriptionWith(ctx, repo, customerID)
	if err != nil {
		return nil, err
	}
	if sub == nil || !IsActiveStatus(sub.Status) {
		return nil, nil
	}
	return sub, nil
}

func (s *service) findSubscription(ctx context.Context, customerID uuid.UUID) (*models.Subscription, error) {
	return s.findSubscriptionWith(ctx, s.billingRepo, customerID)
}

func (s *service) findSubscriptionWith(ctx context.Context, repo billing.Repository, customerID uuid.UUID) (*models.Subscription, error) {
	sub, err := repo.FindSubscriptionByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup subscription")
	}
	return sub, nil
}

func (s *service) cancelSquare(ctx context.Context, id string) error {
	_, err := s.square.Cancel(ctx, id)
	return err
}

func (s *service) ensureSquareCustomer(ctx context.Context, customer *customers.CustomerDTO) (string, error) {
	first, last := splitContactName(customer.ContactName)
	company := ""
	if customer.CompanyName != nil {
		company = *customer.CompanyName
	}
	address := types.Address{}
	if customer.ShippingAddress != nil {
		address = *customer.ShippingAddress
	}
	id, err := s.squareCustomers.EnsureCustomer(ctx, squarecustomers.Input{
		ReferenceID: customer.ID.String(),
		FirstName:   first,
		LastName:    last,
		Email:       customer.Email,
		Phone:       customer.Phone,
		CompanyName: company,
		Address:     address,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(id) == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "square customer id missing")
	}
	return strings.TrimSpace(id), nil
}

func (s *service) vaultCard(ctx context.Context, squareCustomerID, cardSource string, input CreateSubscriptionInput) (string, error) {
	params := square.CardCreateParams{
		CustomerID:     squareCustomerID,
		SourceID:       cardSource,
		IdempotencyKey: uuid.NewString(),
	}
	if cardholder := strings.TrimSpace(input.CardholderName); cardholder != "" {
		params.CardholderName = cardholder
	}
	if token := strings.TrimSpace(input.VerificationToken); token != "" {
		params.VerificationToken = token
	}
	card, err := s.cards.CreateCard(ctx, params)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create square card")
	}
	if card == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "square card response is nil")
	}
	cardID := card.GetID()
	if cardID == nil || strings.TrimSpace(*cardID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "square card missing id")
	}
	return strings.TrimSpace(*cardID), nil
}

func splitContactName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
