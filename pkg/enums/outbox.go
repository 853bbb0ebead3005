package enums

// OutboxAggregateType identifies the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder        OutboxAggregateType = "order"
	AggregateInvoice      OutboxAggregateType = "invoice"
	AggregateProof        OutboxAggregateType = "proof"
	AggregateTicket       OutboxAggregateType = "ticket"
	AggregateCustomer     OutboxAggregateType = "customer"
	AggregateLedgerEvent  OutboxAggregateType = "ledger_event"
	AggregateNotification OutboxAggregateType = "notification"
	AggregateAnalytics    OutboxAggregateType = "analytics"
)

// OutboxEventType enumerates every event the service publishes.
type OutboxEventType string

const (
	EventOrderPlaced          OutboxEventType = "order_placed"
	EventOrderStatusChanged   OutboxEventType = "order_status_changed"
	EventOrderCancelled       OutboxEventType = "order_cancelled"
	EventInvoiceIssued        OutboxEventType = "invoice_issued"
	EventInvoicePaymentPosted OutboxEventType = "invoice_payment_posted"
	EventInvoicePaid          OutboxEventType = "invoice_paid"
	EventInvoiceOverdue       OutboxEventType = "invoice_overdue"
	EventInvoiceReminderDue   OutboxEventType = "invoice_reminder_due"
	EventProofSubmitted       OutboxEventType = "proof_submitted"
	EventProofDecided         OutboxEventType = "proof_decided"
	EventTicketOpened         OutboxEventType = "ticket_opened"
	EventTicketReplied        OutboxEventType = "ticket_replied"
	EventProductViewed        OutboxEventType = "product_viewed"
	EventQuoteRequested       OutboxEventType = "quote_requested"
	EventPaymentSettled       OutboxEventType = "payment_settled"
	EventPaymentFailed        OutboxEventType = "payment_failed"
)

// OutboxStatus tracks publication state of an outbox row.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// OutboxDLQErrorReason captures why a message landed in the dead letter queue.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts_exceeded"
)
