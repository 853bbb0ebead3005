package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/pkg/enums"
)

// Payment records money received against an invoice. Rows are append-only.
type Payment struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceID   uuid.UUID           `gorm:"column:invoice_id;type:uuid;not null;index"`
	Amount      decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Method      enums.PaymentMethod `gorm:"column:method;type:payment_method;not null"`
	Reference   *string             `gorm:"column:reference"`
	ReceivedAt  time.Time           `gorm:"column:received_at;not null"`
	RecordedBy  *uuid.UUID          `gorm:"column:recorded_by;type:uuid"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
}
