package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/pkg/enums"
)

// Product represents a catalog listing for a printable item.
type Product struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU                string                `gorm:"column:sku;not null;uniqueIndex"`
	Name               string                `gorm:"column:name;not null"`
	Description        *string               `gorm:"column:description"`
	Category           enums.ProductCategory `gorm:"column:category;type:product_category;not null"`
	Material           enums.ProductMaterial `gorm:"column:material;type:product_material;not null"`
	Unit               enums.ProductUnit     `gorm:"column:unit;type:product_unit;not null;default:'piece'"`
	BasePrice          decimal.Decimal       `gorm:"column:base_price;type:numeric(12,4);not null"`
	MOQ                int                   `gorm:"column:moq;not null;default:1"`
	IsActive           bool                  `gorm:"column:is_active;not null;default:true"`
	ArtworkTemplateURL *string               `gorm:"column:artwork_template_url"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
