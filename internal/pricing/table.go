package pricing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
)

// VolumeBand is a quantity band carrying a percent discount. A nil MaxQty
// means the band is unbounded above. Scope restricts the band to all
// products or an explicit product list.
type VolumeBand struct {
	MinQty     int
	MaxQty     *int
	Percent    decimal.Decimal
	Scope      enums.DiscountScope
	ProductIDs []uuid.UUID
}

func (b VolumeBand) contains(quantity int) bool {
	if quantity < b.MinQty {
		return false
	}
	return b.MaxQty == nil || quantity <= *b.MaxQty
}

func (b VolumeBand) appliesTo(productID uuid.UUID) bool {
	if b.Scope != enums.DiscountScopeSpecificProducts {
		return true
	}
	for _, id := range b.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// TierBenefits holds the pricing benefits for a single customer tier.
// Loaded once at startup and treated as read-only afterwards.
type TierBenefits struct {
	DiscountPercent         decimal.Decimal
	VolumeBands             []VolumeBand
	MinOrderQty             int
	EligibleNetTerms        []enums.NetTerms
	FreeShippingThreshold   decimal.Decimal
	ShippingDiscountPercent decimal.Decimal
}

// Table maps customer tiers to their benefits. Callers pass it explicitly;
// there is no package-level singleton.
type Table struct {
	tiers map[enums.CustomerTier]TierBenefits
}

// NewTable builds a benefits table and validates it. Overlapping volume
// bands within a tier and scope are rejected so first-match selection is
// deterministic by construction.
func NewTable(tiers map[enums.CustomerTier]TierBenefits) (Table, error) {
	table := Table{tiers: tiers}
	if err := table.Validate(); err != nil {
		return Table{}, err
	}
	return table, nil
}

// Benefits returns the benefits record for a tier.
func (t Table) Benefits(tier enums.CustomerTier) (TierBenefits, error) {
	benefits, ok := t.tiers[tier]
	if !ok {
		return TierBenefits{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no benefits configured for tier %q", tier))
	}
	return benefits, nil
}

// Validate checks every tier's volume bands for range sanity and overlap.
func (t Table) Validate() error {
	for tier, benefits := range t.tiers {
		if !tier.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown tier %q", tier))
		}
		if err := validateBands(tier, benefits.VolumeBands); err != nil {
			return err
		}
	}
	return nil
}

func validateBands(tier enums.CustomerTier, bands []VolumeBand) error {
	for i, band := range bands {
		if band.MinQty < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("tier %s: volume band min quantity must be at least 1", tier))
		}
		if band.MaxQty != nil && *band.MaxQty < band.MinQty {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("tier %s: volume band max quantity below min", tier))
		}
		if band.Percent.IsNegative() || band.Percent.GreaterThanOrEqual(decimal.NewFromInt(100)) {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("tier %s: volume band percent must be in [0, 100)", tier))
		}
		for j := i + 1; j < len(bands); j++ {
			if bandsOverlap(band, bands[j]) {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("tier %s: overlapping volume bands %d and %d", tier, i, j))
			}
		}
	}
	return nil
}

// bandsOverlap reports whether two bands with an intersecting scope share
// any quantity. Bands on disjoint product scopes never conflict.
func bandsOverlap(a, b VolumeBand) bool {
	if !scopesIntersect(a, b) {
		return false
	}
	aMax := a.MaxQty
	bMax := b.MaxQty
	if aMax != nil && *aMax < b.MinQty {
		return false
	}
	if bMax != nil && *bMax < a.MinQty {
		return false
	}
	return true
}

func scopesIntersect(a, b VolumeBand) bool {
	if a.Scope != enums.DiscountScopeSpecificProducts || b.Scope != enums.DiscountScopeSpecificProducts {
		return true
	}
	for _, aid := range a.ProductIDs {
		for _, bid := range b.ProductIDs {
			if aid == bid {
				return true
			}
		}
	}
	return false
}

func intPtr(v int) *int { return &v }

// DefaultTable returns the standard benefits configuration. Wholesale
// carries a 15% tier discount with an 18% band at 500-1999 units.
func DefaultTable() Table {
	table, err := NewTable(map[enums.CustomerTier]TierBenefits{
		enums.CustomerTierRetail: {
			DiscountPercent:         decimal.Zero,
			MinOrderQty:             1,
			EligibleNetTerms:        nil,
			FreeShippingThreshold:   decimal.NewFromInt(75),
			ShippingDiscountPercent: decimal.Zero,
			VolumeBands: []VolumeBand{
				{MinQty: 50, MaxQty: intPtr(249), Percent: decimal.NewFromInt(5), Scope: enums.DiscountScopeAllProducts},
				{MinQty: 250, Percent: decimal.NewFromInt(10), Scope: enums.DiscountScopeAllProducts},
			},
		},
		enums.CustomerTierWholesale: {
			DiscountPercent:         decimal.NewFromInt(15),
			MinOrderQty:             50,
			EligibleNetTerms:        []enums.NetTerms{enums.NetTerms15, enums.NetTerms30},
			FreeShippingThreshold:   decimal.NewFromInt(500),
			ShippingDiscountPercent: decimal.NewFromInt(50),
			VolumeBands: []VolumeBand{
				{MinQty: 100, MaxQty: intPtr(499), Percent: decimal.NewFromInt(10), Scope: enums.DiscountScopeAllProducts},
				{MinQty: 500, MaxQty: intPtr(1999), Percent: decimal.NewFromInt(18), Scope: enums.DiscountScopeAllProducts},
				{MinQty: 2000, Percent: decimal.NewFromInt(25), Scope: enums.DiscountScopeAllProducts},
			},
		},
		enums.CustomerTierEnterprise: {
			DiscountPercent:         decimal.NewFromInt(25),
			MinOrderQty:             250,
			EligibleNetTerms:        []enums.NetTerms{enums.NetTerms30, enums.NetTerms45, enums.NetTerms60},
			FreeShippingThreshold:   decimal.NewFromInt(1000),
			ShippingDiscountPercent: decimal.NewFromInt(75),
			VolumeBands: []VolumeBand{
				{MinQty: 500, MaxQty: intPtr(1999), Percent: decimal.NewFromInt(20), Scope: enums.DiscountScopeAllProducts},
				{MinQty: 2000, MaxQty: intPtr(9999), Percent: decimal.NewFromInt(28), Scope: enums.DiscountScopeAllProducts},
				{MinQty: 10000, Percent: decimal.NewFromInt(35), Scope: enums.DiscountScopeAllProducts},
			},
		},
	})
	if err != nil {
		// The default table is static; a failure here is a programming error.
		panic(err)
	}
	return table
}
