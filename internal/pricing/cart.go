package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/internal/promos"
	"github.com/calebmoran/printworks-backend/pkg/enums"
)

// CartPricing aggregates line quotes into cart totals.
type CartPricing struct {
	Lines             []Quote
	Subtotal          decimal.Decimal
	TotalDiscount     decimal.Decimal
	EstimatedTax      decimal.Decimal
	EstimatedShipping decimal.Decimal
	Total             decimal.Decimal
	// SavingsPercent = totalDiscount / (subtotal + totalDiscount) * 100,
	// the effective rate against the undiscounted cart.
	SavingsPercent decimal.Decimal
}

// LineInput pairs a product with its requested quantity.
type LineInput struct {
	Product  Product
	Quantity int
}

// CartContext carries the shared inputs for pricing a whole cart.
type CartContext struct {
	Tier           enums.CustomerTier
	Promo          *promos.PromoCode
	ShippingMethod enums.ShippingMethod
	Now            time.Time
}

// PriceCart prices every line, then aggregates subtotal, estimated tax,
// shipping, and total. Tax applies to the discounted subtotal only;
// shipping is never taxed.
func (c *Calculator) PriceCart(lines []LineInput, ctx CartContext) (CartPricing, error) {
	result := CartPricing{
		Lines:         make([]Quote, 0, len(lines)),
		Subtotal:      decimal.Zero,
		TotalDiscount: decimal.Zero,
	}

	for _, line := range lines {
		quote, err := c.PriceProduct(line.Product, Context{
			Tier:     ctx.Tier,
			Quantity: line.Quantity,
			Promo:    ctx.Promo,
			Now:      ctx.Now,
		})
		if err != nil {
			return CartPricing{}, err
		}
		result.Lines = append(result.Lines, quote)
		result.Subtotal = result.Subtotal.Add(quote.FinalPrice)
		result.TotalDiscount = result.TotalDiscount.Add(quote.DiscountAmount)
	}

	result.EstimatedTax = result.Subtotal.Mul(c.taxRate)

	shipping, err := c.Shipping(ctx.ShippingMethod, result.Subtotal, ctx.Tier)
	if err != nil {
		return CartPricing{}, err
	}
	result.EstimatedShipping = shipping

	result.Total = result.Subtotal.Add(result.EstimatedTax).Add(result.EstimatedShipping)

	undiscounted := result.Subtotal.Add(result.TotalDiscount)
	if undiscounted.IsPositive() {
		result.SavingsPercent = result.TotalDiscount.Div(undiscounted).Mul(oneHundred)
	} else {
		result.SavingsPercent = decimal.Zero
	}
	return result, nil
}
