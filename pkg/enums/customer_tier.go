package enums

import "fmt"

// CustomerTier classifies a customer account for pricing and terms purposes.
// The tier is assigned at account creation (or upgrade) and is never empty.
type CustomerTier string

const (
	CustomerTierRetail     CustomerTier = "retail"
	CustomerTierWholesale  CustomerTier = "wholesale"
	CustomerTierEnterprise CustomerTier = "enterprise"
)

var validCustomerTiers = []CustomerTier{
	CustomerTierRetail,
	CustomerTierWholesale,
	CustomerTierEnterprise,
}

// String implements fmt.Stringer.
func (t CustomerTier) String() string {
	return string(t)
}

// IsValid reports whether the value is a known CustomerTier.
func (t CustomerTier) IsValid() bool {
	for _, candidate := range validCustomerTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseCustomerTier converts raw input into a CustomerTier.
func ParseCustomerTier(value string) (CustomerTier, error) {
	for _, candidate := range validCustomerTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customer tier %q", value)
}

// CustomerTiers returns every known tier in ascending benefit order.
func CustomerTiers() []CustomerTier {
	out := make([]CustomerTier, len(validCustomerTiers))
	copy(out, validCustomerTiers)
	return out
}
