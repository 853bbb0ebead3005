package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/pkg/enums"
)

// LedgerEvent records an immutable money lifecycle event tied to an order
// or invoice.
type LedgerEvent struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID  uuid.UUID             `gorm:"column:customer_id;type:uuid;not null;index"`
	OrderID     *uuid.UUID            `gorm:"column:order_id;type:uuid"`
	InvoiceID   *uuid.UUID            `gorm:"column:invoice_id;type:uuid"`
	ActorUserID *uuid.UUID            `gorm:"column:actor_user_id;type:uuid"`
	Type        enums.LedgerEventType `gorm:"column:type;type:ledger_event_type_enum;not null"`
	Amount      decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	Metadata    json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}
