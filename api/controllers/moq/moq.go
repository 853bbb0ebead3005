package moq

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/api/responses"
	"github.com/calebmoran/printworks-backend/api/validators"
	internalmoq "github.com/calebmoran/printworks-backend/internal/moq"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/logger"
)

type createRuleRequest struct {
	ProductID      *string `json:"product_id,omitempty" validate:"omitempty,uuid4"`
	Category       *string `json:"category,omitempty"`
	Tier           *string `json:"tier,omitempty"`
	MinimumQty     int     `json:"minimum_qty" validate:"required,gt=0"`
	IncrementQty   *int    `json:"increment_qty,omitempty" validate:"omitempty,gt=0"`
	EffectiveFrom  *string `json:"effective_from,omitempty"`
	EffectiveUntil *string `json:"effective_until,omitempty"`
	Position       int     `json:"position" validate:"gte=0"`
}

// AdminCreateRule adds a minimum order quantity rule.
func AdminCreateRule(svc internalmoq.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "moq service unavailable"))
			return
		}

		var body createRuleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalmoq.CreateRuleInput{
			MinimumQty:   body.MinimumQty,
			IncrementQty: body.IncrementQty,
			Position:     body.Position,
		}

		if body.ProductID != nil && strings.TrimSpace(*body.ProductID) != "" {
			productID, err := uuid.Parse(strings.TrimSpace(*body.ProductID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id"))
				return
			}
			input.ProductID = &productID
		}
		if body.Category != nil && strings.TrimSpace(*body.Category) != "" {
			category, err := enums.ParseProductCategory(*body.Category)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
				return
			}
			input.Category = &category
		}
		if body.Tier != nil && strings.TrimSpace(*body.Tier) != "" {
			tier, err := enums.ParseCustomerTier(*body.Tier)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier"))
				return
			}
			input.Tier = &tier
		}
		if body.EffectiveFrom != nil && strings.TrimSpace(*body.EffectiveFrom) != "" {
			from, err := time.Parse(time.RFC3339, strings.TrimSpace(*body.EffectiveFrom))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "effective_from must be RFC3339"))
				return
			}
			input.EffectiveFrom = &from
		}
		if body.EffectiveUntil != nil && strings.TrimSpace(*body.EffectiveUntil) != "" {
			until, err := time.Parse(time.RFC3339, strings.TrimSpace(*body.EffectiveUntil))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "effective_until must be RFC3339"))
				return
			}
			input.EffectiveUntil = &until
		}

		rule, err := svc.CreateRule(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rule)
	}
}

// AdminListRules returns every MOQ rule in evaluation order.
func AdminListRules(svc internalmoq.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "moq service unavailable"))
			return
		}

		rules, err := svc.ListRules(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rules)
	}
}

type setRuleActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// AdminSetRuleActive enables or disables a rule without deleting it.
func AdminSetRuleActive(svc internalmoq.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "moq service unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "ruleId"))
		ruleID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rule id"))
			return
		}

		var body setRuleActiveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rule, err := svc.SetRuleActive(r.Context(), ruleID, *body.Active)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rule)
	}
}
