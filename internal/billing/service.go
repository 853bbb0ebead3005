package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the billing service.
type ServiceParams struct {
	Repo              Repository
	TransactionRunner txRunner
}

// Service exposes plan, payment method, and charge history operations.
type Service struct {
	repo     Repository
	txRunner txRunner
}

// ListChargesParams configures the customer-facing charge listing.
type ListChargesParams struct {
	CustomerID uuid.UUID
	Limit      int
	Cursor     string
	Type       *enums.ChargeType
	Status     *enums.ChargeStatus
}

// ListChargesResult carries one page of charges plus the encoded next cursor.
type ListChargesResult struct {
	Items  []models.Charge
	Cursor string
}

// NewService builds a billing service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.TransactionRunner == nil {
		return nil, errors.New("transaction runner is required")
	}
	return &Service{repo: params.Repo, txRunner: params.TransactionRunner}, nil
}

// ListPlans returns the plan catalog, optionally filtered by status.
func (s *Service) ListPlans(ctx context.Context, status *enums.PlanStatus) ([]models.BillingPlan, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid plan status %q", *status))
	}
	return s.repo.ListBillingPlans(ctx, ListBillingPlansQuery{Status: status})
}

// GetPlan resolves a plan by its local identifier.
func (s *Service) GetPlan(ctx context.Context, id string) (*models.BillingPlan, error) {
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan id is required")
	}
	plan, err := s.repo.FindBillingPlanByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup billing plan")
	}
	if plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "billing plan not found")
	}
	return plan, nil
}

// DefaultPlan returns the plan new wholesale-program subscribers land on.
func (s *Service) DefaultPlan(ctx context.Context) (*models.BillingPlan, error) {
	plan, err := s.repo.FindDefaultBillingPlan(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup default billing plan")
	}
	if plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no default billing plan configured")
	}
	return plan, nil
}

// ListSubscriptions returns a customer's subscription history, newest first.
func (s *Service) ListSubscriptions(ctx context.Context, customerID uuid.UUID) ([]models.Subscription, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	return s.repo.ListSubscriptionsByCustomer(ctx, customerID)
}

// AddPaymentMethod stores a payment method. Marking it default clears the
// previous default inside the same transaction.
func (s *Service) AddPaymentMethod(ctx context.Context, method *models.PaymentMethod) error {
	if method == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}
	if method.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if method.StripePaymentMethodID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe payment method id is required")
	}
	if !method.IsDefault {
		return s.repo.CreatePaymentMethod(ctx, method)
	}
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.ClearDefaultPaymentMethod(ctx, method.CustomerID); err != nil {
			return err
		}
		return txRepo.CreatePaymentMethod(ctx, method)
	})
}

// ListPaymentMethods returns a customer's stored payment methods.
func (s *Service) ListPaymentMethods(ctx context.Context, customerID uuid.UUID) ([]models.PaymentMethod, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	return s.repo.ListPaymentMethodsByCustomer(ctx, customerID)
}

// ListCharges pages through a customer's charge history.
func (s *Service) ListCharges(ctx context.Context, params ListChargesParams) (*ListChargesResult, error) {
	if params.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if params.Type != nil && !params.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid charge type %q", *params.Type))
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid charge status %q", *params.Status))
	}

	var cursor *pagination.Cursor
	if params.Cursor != "" {
		parsed, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		cursor = parsed
	}

	charges, next, err := s.repo.ListCharges(ctx, ListChargesQuery{
		CustomerID: params.CustomerID,
		Limit:      params.Limit,
		Cursor:     cursor,
		Type:       params.Type,
		Status:     params.Status,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list charges")
	}

	result := &ListChargesResult{Items: charges}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}
