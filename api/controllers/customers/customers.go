package customers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/api/middleware"
	"github.com/calebmoran/printworks-backend/api/responses"
	"github.com/calebmoran/printworks-backend/api/validators"
	internalcustomers "github.com/calebmoran/printworks-backend/internal/customers"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/logger"
	"github.com/calebmoran/printworks-backend/pkg/types"
)

// Profile returns the signed-in customer's own account.
func Profile(svc internalcustomers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customers service unavailable"))
			return
		}

		userID, err := middleware.UserUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.GetByUserID(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

type updateProfileRequest struct {
	CompanyName     *string        `json:"company_name,omitempty"`
	ContactName     *string        `json:"contact_name,omitempty"`
	Phone           *string        `json:"phone,omitempty"`
	ShippingAddress *types.Address `json:"shipping_address,omitempty"`
}

// UpdateProfile lets the customer edit their own contact details.
func UpdateProfile(svc internalcustomers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customers service unavailable"))
			return
		}

		customerID, err := middleware.CustomerUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Update(r.Context(), customerID, internalcustomers.UpdateCustomerInput{
			CompanyName:     body.CompanyName,
			ContactName:     body.ContactName,
			Phone:           body.Phone,
			ShippingAddress: body.ShippingAddress,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

type createCustomerRequest struct {
	CompanyName     *string        `json:"company_name,omitempty"`
	ContactName     string         `json:"contact_name" validate:"required"`
	Email           string         `json:"email" validate:"required,email"`
	Phone           *string        `json:"phone,omitempty"`
	Tier            *string        `json:"tier,omitempty"`
	CreditLimit     *string        `json:"credit_limit,omitempty"`
	ShippingAddress *types.Address `json:"shipping_address,omitempty"`
}

// AdminCreate provisions a customer account without a storefront login.
func AdminCreate(svc internalcustomers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customers service unavailable"))
			return
		}

		var body createCustomerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalcustomers.CreateCustomerInput{
			CompanyName:     body.CompanyName,
			ContactName:     strings.TrimSpace(body.ContactName),
			Email:           strings.TrimSpace(body.Email),
			Phone:           body.Phone,
			Tier:            enums.CustomerTierRetail,
			ShippingAddress: body.ShippingAddress,
		}

		if body.Tier != nil && strings.TrimSpace(*body.Tier) != "" {
			tier, err := enums.ParseCustomerTier(*body.Tier)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier"))
				return
			}
			input.Tier = tier
		}
		if body.CreditLimit != nil && strings.TrimSpace(*body.CreditLimit) != "" {
			limit, err := decimal.NewFromString(strings.TrimSpace(*body.CreditLimit))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid credit_limit"))
				return
			}
			input.CreditLimit = limit
		}

		customer, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, customer)
	}
}

// AdminDetail returns any customer account.
func AdminDetail(svc internalcustomers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customers service unavailable"))
			return
		}

		customerID, err := parseCustomerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.GetByID(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

type adminUpdateRequest struct {
	CompanyName     *string        `json:"company_name,omitempty"`
	ContactName     *string        `json:"contact_name,omitempty"`
	Phone           *string        `json:"phone,omitempty"`
	ShippingAddress *types.Address `json:"shipping_address,omitempty"`
	IsActive        *bool          `json:"is_active,omitempty"`
	Notes           *string        `json:"notes,omitempty"`
}

// AdminUpdate patches account fields, including activation and notes.
func AdminUpdate(svc internalcustomers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customers service unavailable"))
			return
		}

		customerID, err := parseCustomerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body adminUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Update(r.Context(), customerID, internalcustomers.UpdateCustomerInput{
			CompanyName:     body.CompanyName,
			ContactName:     body.ContactName,
			Phone:           body.Phone,
			ShippingAddress: body.ShippingAddress,
			IsActive:        body.IsActive,
			Notes:           body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

type assignTierRequest struct {
	Tier   string  `json:"tier" validate:"required"`
	Reason *string `json:"reason,omitempty"`
}

// AdminAssignTier moves a customer between pricing tiers.
func AdminAssignTier(svc internalcustomers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customers service unavailable"))
			return
		}

		customerID, err := parseCustomerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body assignTierRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tier, err := enums.ParseCustomerTier(body.Tier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier"))
			return
		}

		input := internalcustomers.AssignTierInput{Tier: tier, Reason: body.Reason}
		if actorID, err := middleware.UserUUID(r.Context()); err == nil {
			input.ActorUserID = &actorID
		}

		customer, err := svc.AssignTier(r.Context(), customerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

// AdminTierHistory returns the audit trail of tier changes.
func AdminTierHistory(svc internalcustomers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customers service unavailable"))
			return
		}

		customerID, err := parseCustomerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		history, err := svc.TierHistory(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}

type creditLimitRequest struct {
	CreditLimit string `json:"credit_limit" validate:"required"`
}

// AdminSetCreditLimit changes the net-terms credit ceiling.
func AdminSetCreditLimit(svc internalcustomers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customers service unavailable"))
			return
		}

		customerID, err := parseCustomerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body creditLimitRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := decimal.NewFromString(strings.TrimSpace(body.CreditLimit))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid credit_limit"))
			return
		}

		customer, err := svc.SetCreditLimit(r.Context(), customerID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

func parseCustomerID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "customerId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id")
	}
	return parsed, nil
}
