package billing

import (
	"net/http"
	"strings"

	"github.com/calebmoran/printworks-backend/api/middleware"
	"github.com/calebmoran/printworks-backend/api/responses"
	"github.com/calebmoran/printworks-backend/api/validators"
	internalbilling "github.com/calebmoran/printworks-backend/internal/billing"
	"github.com/calebmoran/printworks-backend/internal/paymentmethods"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/logger"
	"github.com/calebmoran/printworks-backend/pkg/pagination"
)

// ListPlans returns the subscription plans offered to customers. The
// status filter is admin-facing; storefront callers get active plans.
func ListPlans(svc *internalbilling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		status := enums.PlanStatusActive
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status = enums.PlanStatus(strings.ToLower(raw))
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid plan status"))
				return
			}
		}

		plans, err := svc.ListPlans(r.Context(), &status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plans)
	}
}

type storeCardRequest struct {
	StripePaymentMethodID string `json:"stripe_payment_method_id" validate:"required"`
	IsDefault             bool   `json:"is_default"`
}

// StoreCard saves a confirmed Stripe payment method on file.
func StoreCard(svc paymentmethods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment methods service unavailable"))
			return
		}

		customerID, err := middleware.CustomerUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body storeCardRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := svc.StoreCard(r.Context(), customerID, paymentmethods.StoreCardInput{
			StripePaymentMethodID: strings.TrimSpace(body.StripePaymentMethodID),
			IsDefault:             body.IsDefault,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, method)
	}
}

// ListPaymentMethods returns the customer's cards on file.
func ListPaymentMethods(svc *internalbilling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		customerID, err := middleware.CustomerUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		methods, err := svc.ListPaymentMethods(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, methods)
	}
}

// ListCharges returns the customer's charge history, newest first.
func ListCharges(svc *internalbilling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		customerID, err := middleware.CustomerUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := internalbilling.ListChargesParams{
			CustomerID: customerID,
			Limit:      limit,
			Cursor:     strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			chargeType := enums.ChargeType(strings.ToLower(raw))
			if !chargeType.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid charge type"))
				return
			}
			params.Type = &chargeType
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			chargeStatus := enums.ChargeStatus(strings.ToLower(raw))
			if !chargeStatus.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid charge status"))
				return
			}
			params.Status = &chargeStatus
		}

		result, err := svc.ListCharges(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
