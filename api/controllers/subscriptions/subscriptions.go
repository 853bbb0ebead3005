package subscriptions

import (
	"net/http"
	"strings"

	"github.com/calebmoran/printworks-backend/api/middleware"
	"github.com/calebmoran/printworks-backend/api/responses"
	"github.com/calebmoran/printworks-backend/api/validators"
	internalsubs "github.com/calebmoran/printworks-backend/internal/subscriptions"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/logger"
)

type createRequest struct {
	PlanID            string `json:"plan_id,omitempty"`
	CardSourceID      string `json:"card_source_id" validate:"required"`
	CardholderName    string `json:"cardholder_name,omitempty"`
	VerificationToken string `json:"verification_token,omitempty"`
}

// Create starts a wholesale subscription for the signed-in customer.
// Returns 200 when an active subscription already exists and 201 on a
// fresh signup.
func Create(svc internalsubs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		customerID, err := middleware.CustomerUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, created, err := svc.Create(r.Context(), customerID, internalsubs.CreateSubscriptionInput{
			PlanID:            strings.TrimSpace(body.PlanID),
			CardSourceID:      strings.TrimSpace(body.CardSourceID),
			CardholderName:    strings.TrimSpace(body.CardholderName),
			VerificationToken: strings.TrimSpace(body.VerificationToken),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if created {
			responses.WriteSuccessStatus(w, http.StatusCreated, sub)
			return
		}
		responses.WriteSuccess(w, sub)
	}
}

// Cancel ends the customer's subscription at Square and locally.
func Cancel(svc internalsubs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		customerID, err := middleware.CustomerUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.Cancel(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sub)
	}
}

// Get returns the customer's current subscription.
func Get(svc internalsubs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		customerID, err := middleware.CustomerUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.Get(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sub)
	}
}
