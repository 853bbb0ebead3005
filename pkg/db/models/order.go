package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/pkg/enums"
	"github.com/calebmoran/printworks-backend/pkg/types"
)

// Order is the immutable record produced at checkout confirmation. Line
// items snapshot prices; later catalog edits never change an order.
type Order struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     int64                `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID      uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index"`
	CartID          *uuid.UUID           `gorm:"column:cart_id;type:uuid"`
	Status          enums.OrderStatus    `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Currency        enums.Currency       `gorm:"column:currency;not null;default:'USD'"`
	ShippingAddress *types.Address       `gorm:"column:shipping_address;type:address_t"`
	ShippingLine    *types.ShippingLine  `gorm:"column:shipping_line;type:jsonb;serializer:json"`
	PaymentMethod   enums.PaymentMethod  `gorm:"column:payment_method;type:payment_method;not null;default:'credit_card'"`
	NetTerms        *enums.NetTerms      `gorm:"column:net_terms;type:net_terms"`
	Subtotal        decimal.Decimal      `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DiscountTotal   decimal.Decimal      `gorm:"column:discount_total;type:numeric(12,2);not null;default:0"`
	Tax             decimal.Decimal      `gorm:"column:tax;type:numeric(12,2);not null;default:0"`
	Shipping        decimal.Decimal      `gorm:"column:shipping;type:numeric(12,2);not null;default:0"`
	Total           decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null"`
	AppliedPromos   types.AppliedPromos  `gorm:"column:applied_promos;type:applied_promo[]"`
	InvoiceID       *uuid.UUID           `gorm:"column:invoice_id;type:uuid"`
	Notes           *string              `gorm:"column:notes"`
	Items           []OrderLineItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CancelledAt     *time.Time           `gorm:"column:cancelled_at"`
	ShippedAt       *time.Time           `gorm:"column:shipped_at"`
	DeliveredAt     *time.Time           `gorm:"column:delivered_at"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderSequence backs order numbering. A single row holds the last
// allocated number and is locked while checkout assigns the next one.
type OrderSequence struct {
	ID        int       `gorm:"column:id;primaryKey"`
	LastValue int64     `gorm:"column:last_value;not null;default:1000"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
