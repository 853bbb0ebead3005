package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/pkg/enums"
)

// MaterialSpec holds the printable properties of a stock material,
// used by the catalog comparison endpoint.
type MaterialSpec struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Material          enums.ProductMaterial `gorm:"column:material;type:product_material;not null;uniqueIndex"`
	DisplayName       string                `gorm:"column:display_name;not null"`
	Description       *string               `gorm:"column:description"`
	DurabilityYears   int                   `gorm:"column:durability_years;not null;default:1"`
	Waterproof        bool                  `gorm:"column:waterproof;not null;default:false"`
	OutdoorSafe       bool                  `gorm:"column:outdoor_safe;not null;default:false"`
	FinishOptions     pq.StringArray        `gorm:"column:finish_options;type:text[];not null;default:ARRAY[]::text[]"`
	PricePerSquareFt  decimal.Decimal       `gorm:"column:price_per_square_ft;type:numeric(12,4);not null"`
	MinDPI            int                   `gorm:"column:min_dpi;not null;default:300"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
