package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// LineItem is one invoiced charge line.
type LineItem struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// Payment is an immutable record of money received against an invoice.
type Payment struct {
	ID         uuid.UUID
	Amount     decimal.Decimal
	Method     enums.PaymentMethod
	Reference  *string
	ReceivedAt time.Time
}

// Invoice is the engine's value object. Every mutation returns a new
// invoice; callers persist the result.
type Invoice struct {
	ID              uuid.UUID
	InvoiceNumber   string
	CustomerID      uuid.UUID
	OrderID         *uuid.UUID
	Status          enums.InvoiceStatus
	Terms           enums.NetTerms
	IssuedAt        time.Time
	DueDate         time.Time
	LineItems       []LineItem
	Subtotal        decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	TaxRate         decimal.Decimal
	TaxAmount       decimal.Decimal
	Shipping        decimal.Decimal
	Total           decimal.Decimal
	AmountPaid      decimal.Decimal
	AmountRemaining decimal.Decimal
	Payments        []Payment
	RemindersSent   int
}

// Totals is the monetary breakdown computed from line items.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// CalculateTotals derives invoice totals. The discount applies to the
// subtotal; tax applies to the post-discount, pre-shipping amount.
// Shipping itself is never taxed.
func CalculateTotals(lineItems []LineItem, discountPercent, taxRate, shipping decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range lineItems {
		subtotal = subtotal.Add(item.LineTotal)
	}

	discount := subtotal.Mul(discountPercent.Div(oneHundred))
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(taxRate)

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          taxable.Add(tax).Add(shipping),
	}
}

// DueDate computes the payment deadline for an invoice date under the
// given terms.
func (t TermsTable) DueDate(invoiceDate time.Time, terms enums.NetTerms) (time.Time, error) {
	cfg, err := t.Config(terms)
	if err != nil {
		return time.Time{}, err
	}
	return invoiceDate.AddDate(0, 0, cfg.Days), nil
}

// PaymentStatusFor derives the payment status. Check order matters:
// paid wins outright, then overdue, so an overdue invoice with a partial
// payment reports overdue, not partial.
func PaymentStatusFor(dueDate time.Time, amountRemaining, amountPaid decimal.Decimal, now time.Time) enums.PaymentStatus {
	switch {
	case amountRemaining.LessThanOrEqual(decimal.Zero):
		return enums.PaymentStatusPaid
	case now.After(dueDate):
		return enums.PaymentStatusOverdue
	case amountPaid.IsPositive():
		return enums.PaymentStatusPartial
	default:
		return enums.PaymentStatusUnpaid
	}
}

// DaysOverdue returns whole days past the due date, zero when not yet
// due.
func DaysOverdue(dueDate, now time.Time) int {
	if !now.After(dueDate) {
		return 0
	}
	return int(now.Sub(dueDate).Hours() / 24)
}

// RecordPayment appends a payment and returns the updated invoice.
// AmountRemaining clamps at zero: an overpayment is accepted, never
// rejected, and no negative remainder is exposed. The invoice reaches
// paid iff the remainder is exactly zero.
func RecordPayment(invoice Invoice, payment Payment) (Invoice, error) {
	if invoice.Status == enums.InvoiceStatusCancelled {
		return Invoice{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot record a payment on a cancelled invoice")
	}
	if !payment.Amount.IsPositive() {
		return Invoice{}, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	updated := invoice
	updated.Payments = append(append([]Payment(nil), invoice.Payments...), payment)
	updated.AmountPaid = invoice.AmountPaid.Add(payment.Amount)

	remaining := updated.Total.Sub(updated.AmountPaid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	updated.AmountRemaining = remaining

	if remaining.IsZero() {
		updated.Status = enums.InvoiceStatusPaid
	} else {
		updated.Status = enums.InvoiceStatusPartiallyPaid
	}
	return updated, nil
}

// Reminder thresholds in days overdue, indexed by reminders already
// sent. Four reminders total; the last at thirty days.
var reminderSchedule = []int{1, 7, 14, 30}

// ShouldSendReminder reports whether the next overdue reminder is due.
// Paid invoices never remind, and nothing is sent past the final
// reminder.
func ShouldSendReminder(invoice Invoice, now time.Time) bool {
	if invoice.Status == enums.InvoiceStatusPaid || invoice.Status == enums.InvoiceStatusCancelled {
		return false
	}
	if invoice.AmountRemaining.LessThanOrEqual(decimal.Zero) {
		return false
	}
	if invoice.RemindersSent >= len(reminderSchedule) {
		return false
	}
	return DaysOverdue(invoice.DueDate, now) >= reminderSchedule[invoice.RemindersSent]
}
