package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/pkg/enums"
)

// OrderPlacedEvent signals a confirmed checkout.
type OrderPlacedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber int64     `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	Total       string    `json:"total"`
	NetTerms    *string   `json:"net_terms,omitempty"`
}

// OrderStatusChangedEvent is emitted on every order lifecycle step.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	CustomerID uuid.UUID         `json:"customer_id"`
	From       enums.OrderStatus `json:"from"`
	To         enums.OrderStatus `json:"to"`
}

// OrderCancelledEvent is emitted when a pre-production order is cancelled.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	CancelledAt time.Time `json:"cancelled_at"`
	Reason      string    `json:"reason,omitempty"`
}

// InvoiceIssuedEvent signals a new net-terms invoice.
type InvoiceIssuedEvent struct {
	InvoiceID     uuid.UUID  `json:"invoice_id"`
	InvoiceNumber string     `json:"invoice_number"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	OrderID       *uuid.UUID `json:"order_id,omitempty"`
	Total         string     `json:"total"`
	DueDate       time.Time  `json:"due_date"`
}

// InvoicePaymentPostedEvent records money received against an invoice.
type InvoicePaymentPostedEvent struct {
	InvoiceID       uuid.UUID `json:"invoice_id"`
	PaymentID       uuid.UUID `json:"payment_id"`
	CustomerID      uuid.UUID `json:"customer_id"`
	Amount          string    `json:"amount"`
	AmountRemaining string    `json:"amount_remaining"`
	Paid            bool      `json:"paid"`
}

// InvoicePaidEvent signals an invoice settled in full.
type InvoicePaidEvent struct {
	InvoiceID     uuid.UUID  `json:"invoice_id"`
	InvoiceNumber string     `json:"invoice_number"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	OrderID       *uuid.UUID `json:"order_id,omitempty"`
	Total         string     `json:"total"`
	PaidAt        time.Time  `json:"paid_at"`
}

// InvoiceReminderDueEvent tells the notification consumer to send an
// overdue reminder.
type InvoiceReminderDueEvent struct {
	InvoiceID      uuid.UUID `json:"invoice_id"`
	InvoiceNumber  string    `json:"invoice_number"`
	CustomerID     uuid.UUID `json:"customer_id"`
	ReminderNumber int       `json:"reminder_number"`
	DaysOverdue    int       `json:"days_overdue"`
	AmountDue      string    `json:"amount_due"`
}

// InvoiceOverdueEvent is emitted when the overdue sweep flips an invoice.
type InvoiceOverdueEvent struct {
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	CustomerID    uuid.UUID `json:"customer_id"`
	DueDate       time.Time `json:"due_date"`
	AmountDue     string    `json:"amount_due"`
}

// PaymentEvent reflects a card charge reaching a terminal state.
type PaymentEvent struct {
	ChargeID       uuid.UUID          `json:"charge_id"`
	CustomerID     uuid.UUID          `json:"customer_id"`
	OrderID        *uuid.UUID         `json:"order_id,omitempty"`
	InvoiceID      *uuid.UUID         `json:"invoice_id,omitempty"`
	StripeChargeID string             `json:"stripe_charge_id"`
	AmountCents    int64              `json:"amount_cents"`
	Currency       string             `json:"currency"`
	Status         enums.ChargeStatus `json:"status"`
}

// ProofEvent covers proof submission and decision notifications.
type ProofEvent struct {
	ProofID    uuid.UUID         `json:"proof_id"`
	OrderID    uuid.UUID         `json:"order_id"`
	CustomerID uuid.UUID         `json:"customer_id"`
	Status     enums.ProofStatus `json:"status"`
	Revision   int               `json:"revision"`
	Feedback   string            `json:"feedback,omitempty"`
}

// TicketEvent covers ticket lifecycle notifications.
type TicketEvent struct {
	TicketID   uuid.UUID          `json:"ticket_id"`
	CustomerID uuid.UUID          `json:"customer_id"`
	Status     enums.TicketStatus `json:"status"`
	Subject    string             `json:"subject"`
}

// StorefrontEvent is the analytics payload for storefront activity.
type StorefrontEvent struct {
	EventType  enums.AnalyticsEventType `json:"event_type"`
	CustomerID *uuid.UUID               `json:"customer_id,omitempty"`
	ProductID  *uuid.UUID               `json:"product_id,omitempty"`
	OrderID    *uuid.UUID               `json:"order_id,omitempty"`
	Quantity   int                      `json:"quantity,omitempty"`
	Amount     string                   `json:"amount,omitempty"`
	OccurredAt time.Time                `json:"occurred_at"`
}
