package enums

// ChargeStatus tracks the settlement state of a card charge.
type ChargeStatus string

const (
	ChargeStatusPending   ChargeStatus = "pending"
	ChargeStatusSucceeded ChargeStatus = "succeeded"
	ChargeStatusFailed    ChargeStatus = "failed"
	ChargeStatusRefunded  ChargeStatus = "refunded"
)

var validChargeStatuses = []ChargeStatus{
	ChargeStatusPending,
	ChargeStatusSucceeded,
	ChargeStatusFailed,
	ChargeStatusRefunded,
}

// String implements fmt.Stringer.
func (s ChargeStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ChargeStatus.
func (s ChargeStatus) IsValid() bool {
	for _, candidate := range validChargeStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ChargeType distinguishes what a charge paid for.
type ChargeType string

const (
	ChargeTypeOrder        ChargeType = "order"
	ChargeTypeInvoice      ChargeType = "invoice"
	ChargeTypeSubscription ChargeType = "subscription"
	ChargeTypeOther        ChargeType = "other"
)

var validChargeTypes = []ChargeType{
	ChargeTypeOrder,
	ChargeTypeInvoice,
	ChargeTypeSubscription,
	ChargeTypeOther,
}

// String implements fmt.Stringer.
func (t ChargeType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ChargeType.
func (t ChargeType) IsValid() bool {
	for _, candidate := range validChargeTypes {
		if candidate == t {
			return true
		}
	}
	return false
}
