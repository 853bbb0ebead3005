package invoicing

import (
	"time"

	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
)

// InvoiceDTO is the invoice payload returned to clients. Monetary values
// are fixed-point strings.
type InvoiceDTO struct {
	ID              uuid.UUID            `json:"id"`
	InvoiceNumber   string               `json:"invoice_number"`
	OrderID         *uuid.UUID           `json:"order_id,omitempty"`
	CustomerID      uuid.UUID            `json:"customer_id"`
	Status          string               `json:"status"`
	Terms           string               `json:"terms"`
	IssuedAt        time.Time            `json:"issued_at"`
	DueDate         time.Time            `json:"due_date"`
	Subtotal        string               `json:"subtotal"`
	DiscountPercent string               `json:"discount_percent"`
	DiscountAmount  string               `json:"discount_amount"`
	TaxRate         string               `json:"tax_rate"`
	TaxAmount       string               `json:"tax_amount"`
	Shipping        string               `json:"shipping"`
	Total           string               `json:"total"`
	AmountPaid      string               `json:"amount_paid"`
	AmountRemaining string               `json:"amount_remaining"`
	RemindersSent   int                  `json:"reminders_sent"`
	LineItems       []InvoiceLineItemDTO `json:"line_items,omitempty"`
	Payments        []PaymentDTO         `json:"payments,omitempty"`
	SentAt          *time.Time           `json:"sent_at,omitempty"`
	ViewedAt        *time.Time           `json:"viewed_at,omitempty"`
	PaidAt          *time.Time           `json:"paid_at,omitempty"`
	CancelledAt     *time.Time           `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

// InvoiceLineItemDTO is one invoiced charge line.
type InvoiceLineItemDTO struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	LineTotal   string    `json:"line_total"`
}

// PaymentDTO is one recorded payment.
type PaymentDTO struct {
	ID         uuid.UUID `json:"id"`
	Amount     string    `json:"amount"`
	Method     string    `json:"method"`
	Reference  *string   `json:"reference,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

func invoiceFromModel(m *models.Invoice) *InvoiceDTO {
	dto := &InvoiceDTO{
		ID:              m.ID,
		InvoiceNumber:   m.InvoiceNumber,
		OrderID:         m.OrderID,
		CustomerID:      m.CustomerID,
		Status:          m.Status.String(),
		Terms:           m.Terms.String(),
		IssuedAt:        m.IssuedAt,
		DueDate:         m.DueDate,
		Subtotal:        m.Subtotal.StringFixed(2),
		DiscountPercent: m.DiscountPercent.String(),
		DiscountAmount:  m.DiscountAmount.StringFixed(2),
		TaxRate:         m.TaxRate.String(),
		TaxAmount:       m.TaxAmount.StringFixed(2),
		Shipping:        m.Shipping.StringFixed(2),
		Total:           m.Total.StringFixed(2),
		AmountPaid:      m.AmountPaid.StringFixed(2),
		AmountRemaining: m.AmountRemaining.StringFixed(2),
		RemindersSent:   m.RemindersSent,
		SentAt:          m.SentAt,
		ViewedAt:        m.ViewedAt,
		PaidAt:          m.PaidAt,
		CancelledAt:     m.CancelledAt,
		CreatedAt:       m.CreatedAt,
	}
	for _, item := range m.LineItems {
		dto.LineItems = append(dto.LineItems, InvoiceLineItemDTO{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.String(),
			LineTotal:   item.LineTotal.StringFixed(2),
		})
	}
	for _, payment := range m.Payments {
		dto.Payments = append(dto.Payments, PaymentDTO{
			ID:         payment.ID,
			Amount:     payment.Amount.StringFixed(2),
			Method:     payment.Method.String(),
			Reference:  payment.Reference,
			ReceivedAt: payment.ReceivedAt,
		})
	}
	return dto
}

// invoiceToValue maps a persisted invoice into the engine's value object.
func invoiceToValue(m *models.Invoice) Invoice {
	value := Invoice{
		ID:              m.ID,
		InvoiceNumber:   m.InvoiceNumber,
		CustomerID:      m.CustomerID,
		OrderID:         m.OrderID,
		Status:          m.Status,
		Terms:           m.Terms,
		IssuedAt:        m.IssuedAt,
		DueDate:         m.DueDate,
		Subtotal:        m.Subtotal,
		DiscountPercent: m.DiscountPercent,
		DiscountAmount:  m.DiscountAmount,
		TaxRate:         m.TaxRate,
		TaxAmount:       m.TaxAmount,
		Shipping:        m.Shipping,
		Total:           m.Total,
		AmountPaid:      m.AmountPaid,
		AmountRemaining: m.AmountRemaining,
		RemindersSent:   m.RemindersSent,
	}
	for _, item := range m.LineItems {
		value.LineItems = append(value.LineItems, LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
	}
	for _, payment := range m.Payments {
		value.Payments = append(value.Payments, Payment{
			ID:         payment.ID,
			Amount:     payment.Amount,
			Method:     payment.Method,
			Reference:  payment.Reference,
			ReceivedAt: payment.ReceivedAt,
		})
	}
	return value
}
