package enums

import "fmt"

// AnalyticsEventType labels storefront facts written to the warehouse.
type AnalyticsEventType string

const (
	AnalyticsEventProductViewed  AnalyticsEventType = "product_viewed"
	AnalyticsEventQuoteRequested AnalyticsEventType = "quote_requested"
	AnalyticsEventCartConverted  AnalyticsEventType = "cart_converted"
	AnalyticsEventOrderPlaced    AnalyticsEventType = "order_placed"
	AnalyticsEventInvoicePaid    AnalyticsEventType = "invoice_paid"
	AnalyticsEventProofApproved  AnalyticsEventType = "proof_approved"
)

var validAnalyticsEventTypes = []AnalyticsEventType{
	AnalyticsEventProductViewed,
	AnalyticsEventQuoteRequested,
	AnalyticsEventCartConverted,
	AnalyticsEventOrderPlaced,
	AnalyticsEventInvoicePaid,
	AnalyticsEventProofApproved,
}

// String implements fmt.Stringer.
func (t AnalyticsEventType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known AnalyticsEventType.
func (t AnalyticsEventType) IsValid() bool {
	for _, candidate := range validAnalyticsEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseAnalyticsEventType converts raw input into an AnalyticsEventType.
func ParseAnalyticsEventType(value string) (AnalyticsEventType, error) {
	for _, candidate := range validAnalyticsEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid analytics event type %q", value)
}
