package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/pkg/enums"
)

func TestShippingFreeThresholdInclusive(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t)

	// Wholesale threshold is 500.00, boundary inclusive.
	atThreshold, err := calc.Shipping(enums.ShippingMethodStandard, decimal.NewFromInt(500), enums.CustomerTierWholesale)
	if err != nil {
		t.Fatalf("shipping: %v", err)
	}
	if !atThreshold.IsZero() {
		t.Fatalf("expected exactly zero shipping at threshold, got %s", atThreshold)
	}

	justBelow, err := calc.Shipping(enums.ShippingMethodStandard, decimal.RequireFromString("499.99"), enums.CustomerTierWholesale)
	if err != nil {
		t.Fatalf("shipping: %v", err)
	}
	// 9.99 with the 50% wholesale shipping discount.
	decEq(t, justBelow, "4.995", "discounted shipping below threshold")
	if !justBelow.IsPositive() {
		t.Fatal("expected positive shipping below threshold")
	}
}

func TestShippingMethodBaseCosts(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t)

	cases := []struct {
		method enums.ShippingMethod
		want   string
	}{
		{enums.ShippingMethodStandard, "9.99"},
		{enums.ShippingMethodExpedited, "19.99"},
		{enums.ShippingMethodPriority, "39.99"},
	}
	for _, tc := range cases {
		got, err := calc.Shipping(tc.method, decimal.NewFromInt(10), enums.CustomerTierRetail)
		if err != nil {
			t.Fatalf("shipping %s: %v", tc.method, err)
		}
		decEq(t, got, tc.want, string(tc.method))
	}
}

func TestShippingUnknownMethod(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t)
	if _, err := calc.Shipping(enums.ShippingMethod("drone"), decimal.NewFromInt(10), enums.CustomerTierRetail); err == nil {
		t.Fatal("expected error for unknown shipping method")
	}
}

func TestPriceCartAggregation(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t)

	lines := []LineInput{
		{Product: Product{ID: uuid.New(), BasePrice: decimal.RequireFromString("0.35")}, Quantity: 500},
		{Product: Product{ID: uuid.New(), BasePrice: decimal.NewFromInt(2)}, Quantity: 50},
	}

	cart, err := calc.PriceCart(lines, CartContext{
		Tier:           enums.CustomerTierWholesale,
		ShippingMethod: enums.ShippingMethodStandard,
	})
	if err != nil {
		t.Fatalf("price cart: %v", err)
	}

	// Line 1: 0.35 * 0.85 * 0.82 * 500 = 121.975
	// Line 2: 2 * 0.85 * 50 = 85 (qty 50 sits below every wholesale band)
	decEq(t, cart.Subtotal, "206.975", "subtotal")
	decEq(t, cart.EstimatedTax, "15.00568750", "estimated tax")

	// Subtotal under the 500 threshold: discounted standard shipping.
	decEq(t, cart.EstimatedShipping, "4.995", "shipping")

	wantTotal := cart.Subtotal.Add(cart.EstimatedTax).Add(cart.EstimatedShipping)
	if !cart.Total.Equal(wantTotal) {
		t.Fatalf("total mismatch: %s vs %s", cart.Total, wantTotal)
	}

	undiscounted := cart.Subtotal.Add(cart.TotalDiscount)
	wantSavings := cart.TotalDiscount.Div(undiscounted).Mul(decimal.NewFromInt(100))
	if !cart.SavingsPercent.Equal(wantSavings) {
		t.Fatalf("savings mismatch: %s vs %s", cart.SavingsPercent, wantSavings)
	}
}

func TestPriceCartEmpty(t *testing.T) {
	t.Parallel()
	calc := testCalculator(t)

	cart, err := calc.PriceCart(nil, CartContext{
		Tier:           enums.CustomerTierRetail,
		ShippingMethod: enums.ShippingMethodStandard,
	})
	if err != nil {
		t.Fatalf("price cart: %v", err)
	}
	if !cart.Subtotal.IsZero() || !cart.SavingsPercent.IsZero() {
		t.Fatalf("expected zero subtotal and savings, got %s / %s", cart.Subtotal, cart.SavingsPercent)
	}
	// An empty cart still carries the base shipping cost.
	decEq(t, cart.EstimatedShipping, "9.99", "empty cart shipping")
}
