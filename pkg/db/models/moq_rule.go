package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/pkg/enums"
)

// MOQRule defines a minimum order quantity constraint. A nil ProductID,
// Category, or Tier means the rule applies to every value of that axis.
// Position controls first-match ordering for increment resolution.
type MOQRule struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID      *uuid.UUID             `gorm:"column:product_id;type:uuid;index"`
	Category       *enums.ProductCategory `gorm:"column:category;type:product_category"`
	Tier           *enums.CustomerTier    `gorm:"column:tier;type:customer_tier"`
	MinimumQty     int                    `gorm:"column:minimum_qty;not null"`
	IncrementQty   *int                   `gorm:"column:increment_qty"`
	EffectiveFrom  *time.Time             `gorm:"column:effective_from"`
	EffectiveUntil *time.Time             `gorm:"column:effective_until"`
	Active         bool                   `gorm:"column:active;not null;default:true"`
	Position       int                    `gorm:"column:position;not null;default:0"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
