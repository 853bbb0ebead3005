package pricing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/internal/promos"
	"github.com/calebmoran/printworks-backend/pkg/enums"
)

func testCalculator(t *testing.T) *Calculator {
	t.Helper()
	calc, err := NewCalculator(DefaultTable(), decimal.RequireFromString("0.0725"))
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}
	return calc
}

func mustPrice(t *testing.T, calc *Calculator, product Product, ctx Context) Quote {
	t.Helper()
	quote, err := calc.PriceProduct(product, ctx)
	if err != nil {
		t.Fatalf("price product: %v", err)
	}
	return quote
}

func decEq(t *testing.T, got decimal.Decimal, want string, label string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s: expected %s, got %s", label, want, got)
	}
}

func TestPriceProductWholesaleScenario(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t)

	// $0.35 base at qty 500: 15% tier then 18% volume, compounded.
	quote := mustPrice(t, calc, Product{ID: uuid.New(), BasePrice: decimal.RequireFromString("0.35")}, Context{
		Tier:     enums.CustomerTierWholesale,
		Quantity: 500,
	})

	decEq(t, quote.UnitPrice, "0.24395", "unit price")
	decEq(t, quote.Subtotal, "121.975", "subtotal")
	decEq(t, quote.FinalPrice, "121.975", "final price")
	decEq(t, quote.DisplayDiscountPercent, "33", "display percent")

	if len(quote.Breakdown) != 2 {
		t.Fatalf("expected 2 breakdown stages, got %d", len(quote.Breakdown))
	}
	if quote.Breakdown[0].Stage != enums.DiscountStageTier {
		t.Fatalf("expected tier stage first, got %s", quote.Breakdown[0].Stage)
	}
	if quote.Breakdown[1].Stage != enums.DiscountStageVolume {
		t.Fatalf("expected volume stage second, got %s", quote.Breakdown[1].Stage)
	}
}

func TestPriceProductCompoundsNotSums(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t)
	base := decimal.RequireFromString("10")

	quote := mustPrice(t, calc, Product{ID: uuid.New(), BasePrice: base}, Context{
		Tier:     enums.CustomerTierWholesale,
		Quantity: 100,
	})

	// 15% tier then 10% volume: 10 * 0.85 * 0.90, never 10 * 0.75.
	decEq(t, quote.UnitPrice, "7.65", "compounded unit price")
	decEq(t, quote.DisplayDiscountPercent, "25", "summed display percent")

	additive := base.Mul(decimal.RequireFromString("0.75"))
	if quote.UnitPrice.Equal(additive) {
		t.Fatal("discounts must compound, not sum")
	}
}

func TestPriceProductWithPromo(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t)
	promo := &promos.PromoCode{
		ID:          uuid.New(),
		Code:        "PRINT10",
		Percent:     decimal.NewFromInt(10),
		MinQuantity: 1,
		Active:      true,
	}

	quote := mustPrice(t, calc, Product{ID: uuid.New(), BasePrice: decimal.NewFromInt(10)}, Context{
		Tier:     enums.CustomerTierWholesale,
		Quantity: 100,
		Promo:    promo,
	})

	// 10 * 0.85 * 0.90 * 0.90
	decEq(t, quote.UnitPrice, "6.885", "unit price with promo")
	decEq(t, quote.DisplayDiscountPercent, "35", "display percent with promo")
	if quote.PromoMessage != "" {
		t.Fatalf("expected no promo message, got %q", quote.PromoMessage)
	}
}

func TestPriceProductInvalidPromoContributesZero(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t)
	expired := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	promo := &promos.PromoCode{
		ID:          uuid.New(),
		Code:        "OLD10",
		Percent:     decimal.NewFromInt(10),
		MinQuantity: 1,
		ExpiresAt:   &expired,
		Active:      true,
	}

	quote := mustPrice(t, calc, Product{ID: uuid.New(), BasePrice: decimal.NewFromInt(10)}, Context{
		Tier:     enums.CustomerTierWholesale,
		Quantity: 100,
		Promo:    promo,
		Now:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	decEq(t, quote.UnitPrice, "7.65", "unit price without promo contribution")
	if quote.PromoMessage == "" {
		t.Fatal("expected a promo message explaining the rejection")
	}
}

func TestPriceProductRejectsNonPositiveQuantity(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t)
	product := Product{ID: uuid.New(), BasePrice: decimal.NewFromInt(10)}

	for _, qty := range []int{0, -5} {
		if _, err := calc.PriceProduct(product, Context{Tier: enums.CustomerTierRetail, Quantity: qty}); err == nil {
			t.Fatalf("expected error for quantity %d", qty)
		}
	}
}

func TestPriceProductUnknownTier(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t)
	_, err := calc.PriceProduct(Product{ID: uuid.New(), BasePrice: decimal.NewFromInt(10)}, Context{
		Tier:     enums.CustomerTier("platinum"),
		Quantity: 10,
	})
	if err == nil {
		t.Fatal("expected error for unknown tier")
	}
}

func TestVolumeBandBoundaries(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t)
	product := Product{ID: uuid.New(), BasePrice: decimal.NewFromInt(1)}

	// qty 499 sits in the 100-499 band, qty 500 moves to 500-1999.
	at499 := mustPrice(t, calc, product, Context{Tier: enums.CustomerTierWholesale, Quantity: 499})
	decEq(t, at499.UnitPrice, "0.765", "band 100-499 unit price")

	at500 := mustPrice(t, calc, product, Context{Tier: enums.CustomerTierWholesale, Quantity: 500})
	decEq(t, at500.UnitPrice, "0.697", "band 500-1999 unit price")

	// Below every band only the tier discount applies.
	at99 := mustPrice(t, calc, product, Context{Tier: enums.CustomerTierWholesale, Quantity: 99})
	decEq(t, at99.UnitPrice, "0.85", "no band unit price")
}

func TestVolumeBandScopeFiltering(t *testing.T) {
	t.Parallel()
	scoped := uuid.New()
	other := uuid.New()

	table, err := NewTable(map[enums.CustomerTier]TierBenefits{
		enums.CustomerTierRetail: {
			DiscountPercent: decimal.Zero,
			MinOrderQty:     1,
			VolumeBands: []VolumeBand{
				{MinQty: 100, Percent: decimal.NewFromInt(20), Scope: enums.DiscountScopeSpecificProducts, ProductIDs: []uuid.UUID{scoped}},
			},
		},
	})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	calc, err := NewCalculator(table, decimal.Zero)
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}

	inScope := mustPrice(t, calc, Product{ID: scoped, BasePrice: decimal.NewFromInt(1)}, Context{Tier: enums.CustomerTierRetail, Quantity: 100})
	decEq(t, inScope.UnitPrice, "0.8", "scoped product discounted")

	outOfScope := mustPrice(t, calc, Product{ID: other, BasePrice: decimal.NewFromInt(1)}, Context{Tier: enums.CustomerTierRetail, Quantity: 100})
	decEq(t, outOfScope.UnitPrice, "1", "unscoped product full price")
}

func TestTableRejectsOverlappingBands(t *testing.T) {
	t.Parallel()
	_, err := NewTable(map[enums.CustomerTier]TierBenefits{
		enums.CustomerTierRetail: {
			MinOrderQty: 1,
			VolumeBands: []VolumeBand{
				{MinQty: 100, MaxQty: intPtr(500), Percent: decimal.NewFromInt(10), Scope: enums.DiscountScopeAllProducts},
				{MinQty: 500, Percent: decimal.NewFromInt(15), Scope: enums.DiscountScopeAllProducts},
			},
		},
	})
	if err == nil {
		t.Fatal("expected overlapping bands to be rejected")
	}
}

func TestTableAllowsDisjointScopedBands(t *testing.T) {
	t.Parallel()
	a := uuid.New()
	b := uuid.New()
	_, err := NewTable(map[enums.CustomerTier]TierBenefits{
		enums.CustomerTierRetail: {
			MinOrderQty: 1,
			VolumeBands: []VolumeBand{
				{MinQty: 100, Percent: decimal.NewFromInt(10), Scope: enums.DiscountScopeSpecificProducts, ProductIDs: []uuid.UUID{a}},
				{MinQty: 100, Percent: decimal.NewFromInt(15), Scope: enums.DiscountScopeSpecificProducts, ProductIDs: []uuid.UUID{b}},
			},
		},
	})
	if err != nil {
		t.Fatalf("disjoint scoped bands should validate: %v", err)
	}
}
