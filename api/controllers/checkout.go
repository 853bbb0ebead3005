package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/api/middleware"
	"github.com/calebmoran/printworks-backend/api/responses"
	"github.com/calebmoran/printworks-backend/api/validators"
	"github.com/calebmoran/printworks-backend/internal/checkout"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/logger"
)

type checkoutRequest struct {
	CartID                string  `json:"cart_id" validate:"required,uuid4"`
	NetTerms              *string `json:"net_terms,omitempty"`
	StripePaymentMethodID *string `json:"stripe_payment_method_id,omitempty"`
	Notes                 *string `json:"notes,omitempty"`
}

// Checkout converts the customer's active cart into an order. Card payments
// are captured synchronously; net-terms checkouts issue an invoice instead.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		customerID, err := middleware.CustomerUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := middleware.UserUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cartID, err := uuid.Parse(body.CartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart_id"))
			return
		}

		input := checkout.ConfirmInput{
			CustomerID:            customerID,
			CartID:                cartID,
			StripePaymentMethodID: body.StripePaymentMethodID,
			Notes:                 body.Notes,
			ActorUserID:           actorID,
		}

		if body.NetTerms != nil && strings.TrimSpace(*body.NetTerms) != "" {
			terms, err := enums.ParseNetTerms(*body.NetTerms)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid net_terms"))
				return
			}
			input.NetTerms = &terms
		}

		result, err := svc.Confirm(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
