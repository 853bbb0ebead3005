package enums

import "fmt"

// CartStatus tracks whether a cart is still editable.
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusConverted CartStatus = "converted"
	CartStatusAbandoned CartStatus = "abandoned"
)

var validCartStatuses = []CartStatus{
	CartStatusActive,
	CartStatusConverted,
	CartStatusAbandoned,
}

// String implements fmt.Stringer.
func (s CartStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CartStatus.
func (s CartStatus) IsValid() bool {
	for _, candidate := range validCartStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CartItemStatus reflects the outcome of quoting one line item.
type CartItemStatus string

const (
	CartItemStatusOK           CartItemStatus = "ok"
	CartItemStatusNotAvailable CartItemStatus = "not_available"
	CartItemStatusInvalid      CartItemStatus = "invalid"
)

var validCartItemStatuses = []CartItemStatus{
	CartItemStatusOK,
	CartItemStatusNotAvailable,
	CartItemStatusInvalid,
}

// String implements fmt.Stringer.
func (s CartItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CartItemStatus.
func (s CartItemStatus) IsValid() bool {
	for _, candidate := range validCartItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CartItemWarningType labels non-fatal adjustments surfaced during quoting.
type CartItemWarningType string

const (
	CartItemWarningTypeBelowMOQ          CartItemWarningType = "below_moq"
	CartItemWarningTypeIncrementAdjusted CartItemWarningType = "increment_adjusted"
	CartItemWarningTypePriceChanged      CartItemWarningType = "price_changed"
	CartItemWarningTypeNotAvailable      CartItemWarningType = "not_available"
	CartItemWarningTypeInvalidPromo      CartItemWarningType = "invalid_promo"
)

var validCartItemWarningTypes = []CartItemWarningType{
	CartItemWarningTypeBelowMOQ,
	CartItemWarningTypeIncrementAdjusted,
	CartItemWarningTypePriceChanged,
	CartItemWarningTypeNotAvailable,
	CartItemWarningTypeInvalidPromo,
}

// String implements fmt.Stringer.
func (w CartItemWarningType) String() string {
	return string(w)
}

// IsValid reports whether the value is a known CartItemWarningType.
func (w CartItemWarningType) IsValid() bool {
	for _, candidate := range validCartItemWarningTypes {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseCartItemWarningType converts raw input into a CartItemWarningType.
func ParseCartItemWarningType(value string) (CartItemWarningType, error) {
	for _, candidate := range validCartItemWarningTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart item warning type %q", value)
}
