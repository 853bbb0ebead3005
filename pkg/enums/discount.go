package enums

import "fmt"

// DiscountScope describes which products a volume discount band applies to.
type DiscountScope string

const (
	DiscountScopeAllProducts      DiscountScope = "all_products"
	DiscountScopeSpecificProducts DiscountScope = "specific_products"
)

var validDiscountScopes = []DiscountScope{
	DiscountScopeAllProducts,
	DiscountScopeSpecificProducts,
}

// String implements fmt.Stringer.
func (s DiscountScope) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DiscountScope.
func (s DiscountScope) IsValid() bool {
	for _, candidate := range validDiscountScopes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseDiscountScope converts raw input into a DiscountScope.
func ParseDiscountScope(value string) (DiscountScope, error) {
	for _, candidate := range validDiscountScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount scope %q", value)
}

// DiscountStage names one step of the sequential discount pipeline.
type DiscountStage string

const (
	DiscountStageTier   DiscountStage = "tier"
	DiscountStageVolume DiscountStage = "volume"
	DiscountStagePromo  DiscountStage = "promo"
)

var validDiscountStages = []DiscountStage{
	DiscountStageTier,
	DiscountStageVolume,
	DiscountStagePromo,
}

// String implements fmt.Stringer.
func (s DiscountStage) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DiscountStage.
func (s DiscountStage) IsValid() bool {
	for _, candidate := range validDiscountStages {
		if candidate == s {
			return true
		}
	}
	return false
}
