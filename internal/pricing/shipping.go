package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
)

var shippingBaseCost = map[enums.ShippingMethod]decimal.Decimal{
	enums.ShippingMethodStandard:  decimal.RequireFromString("9.99"),
	enums.ShippingMethodExpedited: decimal.RequireFromString("19.99"),
	enums.ShippingMethodPriority:  decimal.RequireFromString("39.99"),
}

// Shipping computes the shipping cost for a cart subtotal. The free
// shipping threshold is boundary inclusive and takes precedence over the
// tier's shipping discount: at or above it the result is exactly zero.
func (c *Calculator) Shipping(method enums.ShippingMethod, subtotal decimal.Decimal, tier enums.CustomerTier) (decimal.Decimal, error) {
	base, ok := shippingBaseCost[method]
	if !ok {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method")
	}

	benefits, err := c.table.Benefits(tier)
	if err != nil {
		return decimal.Zero, err
	}

	if benefits.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(benefits.FreeShippingThreshold) {
		return decimal.Zero, nil
	}

	if benefits.ShippingDiscountPercent.IsZero() {
		return base, nil
	}
	return base.Mul(decimal.NewFromInt(1).Sub(benefits.ShippingDiscountPercent.Div(oneHundred))), nil
}
