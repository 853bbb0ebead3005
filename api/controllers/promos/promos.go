package promos

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/api/responses"
	"github.com/calebmoran/printworks-backend/api/validators"
	internalpromos "github.com/calebmoran/printworks-backend/internal/promos"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/logger"
)

type createPromoRequest struct {
	Code        string  `json:"code" validate:"required,min=3,max=32"`
	Percent     string  `json:"percent" validate:"required"`
	MinQuantity int     `json:"min_quantity" validate:"gte=0"`
	ExpiresAt   *string `json:"expires_at,omitempty"`
	Description *string `json:"description,omitempty"`
}

// AdminCreate registers a new promo code.
func AdminCreate(svc internalpromos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promos service unavailable"))
			return
		}

		var body createPromoRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		percent, err := decimal.NewFromString(strings.TrimSpace(body.Percent))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid percent"))
			return
		}

		input := internalpromos.CreatePromoInput{
			Code:        strings.TrimSpace(body.Code),
			Percent:     percent,
			MinQuantity: body.MinQuantity,
			Description: body.Description,
		}
		if body.ExpiresAt != nil && strings.TrimSpace(*body.ExpiresAt) != "" {
			expires, err := time.Parse(time.RFC3339, strings.TrimSpace(*body.ExpiresAt))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "expires_at must be RFC3339"))
				return
			}
			input.ExpiresAt = &expires
		}

		promo, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, promo)
	}
}

// AdminList returns every promo code, active or not.
func AdminList(svc internalpromos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promos service unavailable"))
			return
		}

		promoList, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, promoList)
	}
}

// AdminDetail returns a single promo code.
func AdminDetail(svc internalpromos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promos service unavailable"))
			return
		}

		promoID, err := parsePromoID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promo, err := svc.GetByID(r.Context(), promoID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, promo)
	}
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// AdminSetActive toggles a promo code on or off.
func AdminSetActive(svc internalpromos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promos service unavailable"))
			return
		}

		promoID, err := parsePromoID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setActiveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promo, err := svc.SetActive(r.Context(), promoID, *body.Active)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, promo)
	}
}

func parsePromoID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "promoId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "promo id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid promo id")
	}
	return parsed, nil
}
