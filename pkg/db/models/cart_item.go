package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/pkg/enums"
	"github.com/calebmoran/printworks-backend/pkg/types"
)

// CartItem persists per-product quote snapshots tied to a CartRecord.
type CartItem struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID            uuid.UUID               `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID         uuid.UUID               `gorm:"column:product_id;type:uuid;not null"`
	Quantity          int                     `gorm:"column:quantity;not null"`
	MOQ               int                     `gorm:"column:moq;not null;default:1"`
	BaseUnitPrice     decimal.Decimal         `gorm:"column:base_unit_price;type:numeric(12,4);not null"`
	ResolvedUnitPrice decimal.Decimal         `gorm:"column:resolved_unit_price;type:numeric(12,4);not null"`
	DiscountBreakdown types.DiscountBreakdown `gorm:"column:discount_breakdown;type:jsonb;serializer:json"`
	Warnings          types.CartItemWarnings  `gorm:"column:warnings;type:jsonb;serializer:json"`
	LineSubtotal      decimal.Decimal         `gorm:"column:line_subtotal;type:numeric(12,2);not null"`
	Status            enums.CartItemStatus    `gorm:"column:status;type:cart_item_status;not null;default:'ok'"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
