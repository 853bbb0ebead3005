package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/pkg/enums"
	"github.com/calebmoran/printworks-backend/pkg/types"
)

// OrderLineItem captures the price snapshot of each item within an order.
type OrderLineItem struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID         *uuid.UUID              `gorm:"column:product_id;type:uuid"`
	SKU               string                  `gorm:"column:sku;not null"`
	Name              string                  `gorm:"column:name;not null"`
	Category          enums.ProductCategory   `gorm:"column:category;type:product_category;not null"`
	Unit              enums.ProductUnit       `gorm:"column:unit;type:product_unit;not null"`
	Quantity          int                     `gorm:"column:quantity;not null"`
	BaseUnitPrice     decimal.Decimal         `gorm:"column:base_unit_price;type:numeric(12,4);not null"`
	ResolvedUnitPrice decimal.Decimal         `gorm:"column:resolved_unit_price;type:numeric(12,4);not null"`
	DiscountBreakdown types.DiscountBreakdown `gorm:"column:discount_breakdown;type:jsonb;serializer:json"`
	LineTotal         decimal.Decimal         `gorm:"column:line_total;type:numeric(12,2);not null"`
	ProofRequired     bool                    `gorm:"column:proof_required;not null;default:false"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
