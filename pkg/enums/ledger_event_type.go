package enums

// LedgerEventType names a money movement recorded in the ledger.
type LedgerEventType string

const (
	LedgerEventTypeInvoiceIssued   LedgerEventType = "invoice_issued"
	LedgerEventTypePaymentRecorded LedgerEventType = "payment_recorded"
	LedgerEventTypeChargeSucceeded LedgerEventType = "charge_succeeded"
	LedgerEventTypeAdjustment      LedgerEventType = "adjustment"
	LedgerEventTypeRefund          LedgerEventType = "refund"
)

var validLedgerEventTypes = []LedgerEventType{
	LedgerEventTypeInvoiceIssued,
	LedgerEventTypePaymentRecorded,
	LedgerEventTypeChargeSucceeded,
	LedgerEventTypeAdjustment,
	LedgerEventTypeRefund,
}

// String implements fmt.Stringer.
func (t LedgerEventType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known LedgerEventType.
func (t LedgerEventType) IsValid() bool {
	for _, candidate := range validLedgerEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}
