package paymentmethods

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/internal/billing"
	"github.com/calebmoran/printworks-backend/internal/customers"
	"github.com/calebmoran/printworks-backend/pkg/db/models"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
)

// Service orchestrates card-on-file persistence.
type Service interface {
	StoreCard(ctx context.Context, customerID uuid.UUID, input StoreCardInput) (*models.PaymentMethod, error)
}

// StoreCardInput captures the payload required to save a card on file. The
// client confirms a SetupIntent with Stripe and sends the resulting payment
// method id here.
type StoreCardInput struct {
	StripePaymentMethodID string
	IsDefault             bool
}

// ServiceParams groups dependencies for the payment method service.
type ServiceParams struct {
	BillingRepo       billing.Repository
	Customers         customerLoader
	Stripe            StripeVaultClient
	TransactionRunner txRunner
}

type customerLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*customers.CustomerDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo      billing.Repository
	customers customerLoader
	stripe    StripeVaultClient
	txRunner  txRunner
}

// NewService constructs a payment method service.
func NewService(params ServiceParams) (*service, error) {
	if params.BillingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customer loader required")
	}
	if params.Stripe == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}

	return &service{
		repo:      params.BillingRepo,
		customers: params.Customers,
		stripe:    params.Stripe,
		txRunner:  params.TransactionRunner,
	}, nil
}

// StoreCard snapshots a confirmed Stripe payment method and persists it. The
// first card on file always becomes the default. Replaying the same payment
// method id returns the stored row unchanged.
func (s *service) StoreCard(ctx context.Context, customerID uuid.UUID, input StoreCardInput) (*models.PaymentMethod, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	pmID := strings.TrimSpace(input.StripePaymentMethodID)
	if pmID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stripe_payment_method_id is required")
	}

	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !customer.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "customer account is inactive")
	}

	existingMethods, err := s.repo.ListPaymentMethodsByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment methods")
	}
	for i := range existingMethods {
		if existingMethods[i].StripePaymentMethodID == pmID {
			return &existingMethods[i], nil
		}
	}

	pm, err := s.stripe.GetPaymentMethod(ctx, pmID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch stripe payment method")
	}
	if pm == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stripe payment method response is nil")
	}
	if pm.Type != stripe.PaymentMethodTypeCard || pm.Card == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only card payment methods can be stored")
	}

	hasDefault := false
	hasExisting := len(existingMethods) > 0
	for _, method := range existingMethods {
		if method.IsDefault {
			hasDefault = true
			break
		}
	}

	shouldDefault := !hasExisting || input.IsDefault
	if !hasDefault && hasExisting {
		shouldDefault = true
	}

	method, err := buildPaymentMethod(pm, customerID, shouldDefault)
	if err != nil {
		return nil, err
	}

	if err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if shouldDefault && hasExisting {
			if err := txRepo.ClearDefaultPaymentMethod(ctx, customerID); err != nil {
				return err
			}
		}
		return txRepo.CreatePaymentMethod(ctx, method)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment method")
	}

	return method, nil
}

func buildPaymentMethod(pm *stripe.PaymentMethod, customerID uuid.UUID, isDefault bool) (*models.PaymentMethod, error) {
	billingDetails, err := marshalBillingDetails(pm.BillingDetails)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal billing details")
	}

	method := &models.PaymentMethod{
		CustomerID:            customerID,
		StripePaymentMethodID: pm.ID,
		IsDefault:             isDefault,
		BillingDetails:        billingDetails,
	}
	if brand := string(pm.Card.Brand); brand != "" {
		method.CardBrand = &brand
	}
	if last4 := pm.Card.Last4; last4 != "" {
		method.CardLast4 = &last4
	}
	if pm.Card.ExpMonth > 0 {
		expMonth := int(pm.Card.ExpMonth)
		method.CardExpMonth = &expMonth
	}
	if pm.Card.ExpYear > 0 {
		expYear := int(pm.Card.ExpYear)
		method.CardExpYear = &expYear
	}
	return method, nil
}

func marshalBillingDetails(details *stripe.PaymentMethodBillingDetails) (json.RawMessage, error) {
	if details == nil {
		return json.RawMessage("{}"), nil
	}
	fields := map[string]any{}
	if strings.TrimSpace(details.Name) != "" {
		fields["name"] = details.Name
	}
	if strings.TrimSpace(details.Email) != "" {
		fields["email"] = details.Email
	}
	if strings.TrimSpace(details.Phone) != "" {
		fields["phone"] = details.Phone
	}
	if details.Address != nil {
		fields["address"] = details.Address
	}
	if len(fields) == 0 {
		return json.RawMessage("{}"), nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}
