package paymentmethods

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentmethod"

	pkgstripe "github.com/calebmoran/printworks-backend/pkg/stripe"
)

// StripeVaultClient exposes the subset of Stripe operations card vaulting needs.
type StripeVaultClient interface {
	GetPaymentMethod(ctx context.Context, id string) (*stripe.PaymentMethod, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the provided Stripe client so the vault can be tested.
func NewStripeClient(api *pkgstripe.Client) StripeVaultClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) GetPaymentMethod(ctx context.Context, id string) (*stripe.PaymentMethod, error) {
	params := &stripe.PaymentMethodParams{}
	params.Context = ctx
	return paymentmethod.Get(id, params)
}
