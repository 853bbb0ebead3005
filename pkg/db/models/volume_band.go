package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/calebmoran/printworks-backend/pkg/db/types"
	"github.com/calebmoran/printworks-backend/pkg/enums"
)

// VolumeBand is a quantity-banded discount attached to a tier benefit.
// Position controls first-match ordering when bands are evaluated.
type VolumeBand struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TierBenefitID uuid.UUID           `gorm:"column:tier_benefit_id;type:uuid;not null;index"`
	MinQty        int                 `gorm:"column:min_qty;not null"`
	MaxQty        *int                `gorm:"column:max_qty"`
	Percent       decimal.Decimal     `gorm:"column:percent;type:numeric(5,2);not null"`
	Scope         enums.DiscountScope `gorm:"column:scope;type:discount_scope;not null;default:'all_products'"`
	ProductIDs    dbtypes.UUIDArray   `gorm:"column:product_ids;type:uuid[];not null;default:ARRAY[]::uuid[]"`
	Position      int                 `gorm:"column:position;not null;default:0"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}
