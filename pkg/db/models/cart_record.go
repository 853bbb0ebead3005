package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/pkg/enums"
	"github.com/calebmoran/printworks-backend/pkg/types"
)

// CartRecord captures a customer-scoped cart snapshot produced by the quote
// pipeline. Monetary fields hold the last server-side quote.
type CartRecord struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID      uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index"`
	Status          enums.CartStatus     `gorm:"column:status;type:cart_status;not null;default:'active'"`
	ShippingAddress *types.Address       `gorm:"column:shipping_address;type:address_t"`
	ShippingMethod  enums.ShippingMethod `gorm:"column:shipping_method;type:shipping_method;not null;default:'standard'"`
	PromoCode       *string              `gorm:"column:promo_code"`
	Currency        enums.Currency       `gorm:"column:currency;not null;default:'USD'"`
	ValidUntil      time.Time            `gorm:"column:valid_until;not null"`
	Subtotal        decimal.Decimal      `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	DiscountTotal   decimal.Decimal      `gorm:"column:discount_total;type:numeric(12,2);not null;default:0"`
	EstimatedTax    decimal.Decimal      `gorm:"column:estimated_tax;type:numeric(12,2);not null;default:0"`
	ShippingLine    *types.ShippingLine  `gorm:"column:shipping_line;type:jsonb;serializer:json"`
	Total           decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null;default:0"`
	ConvertedAt     *time.Time           `gorm:"column:converted_at"`
	Items           []CartItem           `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
