package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/pkg/enums"
)

// Invoice is a net-terms invoice issued for an order. Invoices are
// cancelled, never deleted; payments are append-only children.
type Invoice struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceNumber   string              `gorm:"column:invoice_number;not null;uniqueIndex"`
	OrderID         *uuid.UUID          `gorm:"column:order_id;type:uuid;index"`
	CustomerID      uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	Status          enums.InvoiceStatus `gorm:"column:status;type:invoice_status;not null;default:'draft'"`
	Terms           enums.NetTerms      `gorm:"column:terms;type:net_terms;not null"`
	IssuedAt        time.Time           `gorm:"column:issued_at;not null"`
	DueDate         time.Time           `gorm:"column:due_date;not null"`
	Subtotal        decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DiscountPercent decimal.Decimal     `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	DiscountAmount  decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	TaxRate         decimal.Decimal     `gorm:"column:tax_rate;type:numeric(6,4);not null;default:0"`
	TaxAmount       decimal.Decimal     `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	Shipping        decimal.Decimal     `gorm:"column:shipping;type:numeric(12,2);not null;default:0"`
	Total           decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	AmountPaid      decimal.Decimal     `gorm:"column:amount_paid;type:numeric(12,2);not null;default:0"`
	AmountRemaining decimal.Decimal     `gorm:"column:amount_remaining;type:numeric(12,2);not null"`
	RemindersSent   int                 `gorm:"column:reminders_sent;not null;default:0"`
	LastReminderAt  *time.Time          `gorm:"column:last_reminder_at"`
	SentAt          *time.Time          `gorm:"column:sent_at"`
	ViewedAt        *time.Time          `gorm:"column:viewed_at"`
	PaidAt          *time.Time          `gorm:"column:paid_at"`
	CancelledAt     *time.Time          `gorm:"column:cancelled_at"`
	LineItems       []InvoiceLineItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Payments        []Payment           `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// InvoiceLineItem is an invoiced charge line.
type InvoiceLineItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceID   uuid.UUID       `gorm:"column:invoice_id;type:uuid;not null;index"`
	Description string          `gorm:"column:description;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,4);not null"`
	LineTotal   decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// InvoiceSequence backs monthly invoice numbering (INV-YYYYMM-NNNN).
type InvoiceSequence struct {
	YearMonth string    `gorm:"column:year_month;primaryKey"`
	LastValue int       `gorm:"column:last_value;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
