package cart

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/api/middleware"
	"github.com/calebmoran/printworks-backend/api/responses"
	"github.com/calebmoran/printworks-backend/api/validators"
	internalcart "github.com/calebmoran/printworks-backend/internal/cart"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/logger"
	"github.com/calebmoran/printworks-backend/pkg/types"
)

type quoteLineRequest struct {
	ProductID         string  `json:"product_id" validate:"required,uuid4"`
	Quantity          int     `json:"quantity" validate:"required,gt=0"`
	ExpectedUnitPrice *string `json:"expected_unit_price,omitempty"`
}

type quoteRequest struct {
	Lines           []quoteLineRequest `json:"lines" validate:"required,min=1,dive"`
	PromoCode       *string            `json:"promo_code,omitempty"`
	ShippingMethod  string             `json:"shipping_method" validate:"required"`
	ShippingAddress *types.Address     `json:"shipping_address,omitempty"`
}

// CartQuote replaces the active cart with a freshly priced quote.
func CartQuote(svc internalcart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := middleware.CustomerUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body quoteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := buildQuoteInput(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.Quote(r.Context(), customerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartFetch returns the customer's active cart, if any.
func CartFetch(svc internalcart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := middleware.CustomerUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.GetActiveCart(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartAbandon discards the active cart.
func CartAbandon(svc internalcart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := middleware.CustomerUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Abandon(r.Context(), customerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

func buildQuoteInput(body quoteRequest) (internalcart.QuoteInput, error) {
	var input internalcart.QuoteInput

	method, err := enums.ParseShippingMethod(body.ShippingMethod)
	if err != nil {
		return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping_method")
	}
	input.ShippingMethod = method
	input.ShippingAddress = body.ShippingAddress

	if body.PromoCode != nil {
		code := strings.TrimSpace(*body.PromoCode)
		if code != "" {
			input.PromoCode = &code
		}
	}

	for _, line := range body.Lines {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id")
		}
		quoted := internalcart.QuoteLineInput{
			ProductID: productID,
			Quantity:  line.Quantity,
		}
		if line.ExpectedUnitPrice != nil {
			price, err := decimal.NewFromString(strings.TrimSpace(*line.ExpectedUnitPrice))
			if err != nil {
				return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid expected_unit_price")
			}
			quoted.ExpectedUnitPrice = &price
		}
		input.Lines = append(input.Lines, quoted)
	}
	return input, nil
}
