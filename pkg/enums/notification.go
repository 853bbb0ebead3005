package enums

// NotificationType buckets in-app notifications for filtering.
type NotificationType string

const (
	NotificationTypeOrderAlert      NotificationType = "order_alert"
	NotificationTypeInvoiceReminder NotificationType = "invoice_reminder"
	NotificationTypeProofUpdate     NotificationType = "proof_update"
	NotificationTypeTicketUpdate    NotificationType = "ticket_update"
	NotificationTypeSystem          NotificationType = "system_announcement"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderAlert,
	NotificationTypeInvoiceReminder,
	NotificationTypeProofUpdate,
	NotificationTypeTicketUpdate,
	NotificationTypeSystem,
}

// String implements fmt.Stringer.
func (t NotificationType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known NotificationType.
func (t NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == t {
			return true
		}
	}
	return false
}
