package pricing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/internal/promos"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// Product is the pricing view of a catalog item.
type Product struct {
	ID        uuid.UUID
	BasePrice decimal.Decimal
}

// Context carries the per-request inputs for pricing a line.
type Context struct {
	Tier     enums.CustomerTier
	Quantity int
	// Promo is the loaded promo code, nil when none was supplied or the
	// code is unknown. Validation failures contribute a zero discount.
	Promo *promos.PromoCode
	Now   time.Time
}

// StageDiscount records one stage's contribution to a line quote.
type StageDiscount struct {
	Stage   enums.DiscountStage
	Percent decimal.Decimal
	// Amount is the dollar value this stage removed from the line,
	// computed on the running price at the time the stage applied.
	Amount decimal.Decimal
}

// Quote is the result of pricing one line item. DisplayDiscountPercent is
// the simple sum of the stage percentages; the dollar figures come from
// the compounded computation. The two intentionally diverge for stacked
// discounts.
type Quote struct {
	ProductID              uuid.UUID
	BasePrice              decimal.Decimal
	Quantity               int
	UnitPrice              decimal.Decimal
	Subtotal               decimal.Decimal
	DisplayDiscountPercent decimal.Decimal
	DiscountAmount         decimal.Decimal
	FinalPrice             decimal.Decimal
	PromoMessage           string
	Breakdown              []StageDiscount
}

// Calculator prices products against a benefits table. It is stateless
// beyond its configuration and safe for concurrent use.
type Calculator struct {
	table   Table
	taxRate decimal.Decimal
}

// NewCalculator builds a calculator over a validated table.
func NewCalculator(table Table, taxRate decimal.Decimal) (*Calculator, error) {
	if taxRate.IsNegative() || taxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("tax rate must be in [0, 1)")
	}
	return &Calculator{table: table, taxRate: taxRate}, nil
}

// EstimateTax applies the configured rate to a discounted subtotal.
// Shipping is never part of the taxable base.
func (c *Calculator) EstimateTax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(c.taxRate)
}

// PriceProduct resolves the unit price for one product line. Discounts
// apply strictly in sequence (tier, then volume, then promo), each stage
// on the already-discounted running price. Stacked percentages compound
// rather than sum.
func (c *Calculator) PriceProduct(product Product, ctx Context) (Quote, error) {
	if ctx.Quantity <= 0 {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	if product.BasePrice.IsNegative() {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "base price must not be negative")
	}

	benefits, err := c.table.Benefits(ctx.Tier)
	if err != nil {
		return Quote{}, err
	}

	qty := decimal.NewFromInt(int64(ctx.Quantity))
	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}

	unit := product.BasePrice
	breakdown := make([]StageDiscount, 0, 3)
	displayPercent := decimal.Zero

	applyStage := func(stage enums.DiscountStage, percent decimal.Decimal) {
		if percent.IsZero() {
			return
		}
		before := unit
		unit = unit.Mul(decimal.NewFromInt(1).Sub(percent.Div(oneHundred)))
		breakdown = append(breakdown, StageDiscount{
			Stage:   stage,
			Percent: percent,
			Amount:  before.Sub(unit).Mul(qty),
		})
		displayPercent = displayPercent.Add(percent)
	}

	applyStage(enums.DiscountStageTier, benefits.DiscountPercent)

	if band := selectVolumeBand(benefits.VolumeBands, product.ID, ctx.Quantity); band != nil {
		applyStage(enums.DiscountStageVolume, band.Percent)
	}

	promoMessage := ""
	if ctx.Promo != nil {
		validation := promos.Validate(ctx.Promo, ctx.Quantity, now)
		if validation.Valid {
			applyStage(enums.DiscountStagePromo, validation.Percent)
		} else {
			promoMessage = validation.Message
		}
	}

	subtotal := unit.Mul(qty)
	baseSubtotal := product.BasePrice.Mul(qty)

	return Quote{
		ProductID:              product.ID,
		BasePrice:              product.BasePrice,
		Quantity:               ctx.Quantity,
		UnitPrice:              unit,
		Subtotal:               subtotal,
		DisplayDiscountPercent: displayPercent,
		DiscountAmount:         baseSubtotal.Sub(subtotal),
		FinalPrice:             subtotal,
		PromoMessage:           promoMessage,
		Breakdown:              breakdown,
	}, nil
}

// selectVolumeBand returns the first band, in declared order, whose
// quantity range and product scope both match. The table validated
// non-overlap, so first match is the only match.
func selectVolumeBand(bands []VolumeBand, productID uuid.UUID, quantity int) *VolumeBand {
	for i := range bands {
		if bands[i].contains(quantity) && bands[i].appliesTo(productID) {
			return &bands[i]
		}
	}
	return nil
}
