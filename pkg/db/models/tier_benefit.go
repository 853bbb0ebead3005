package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/pkg/enums"
)

// TierBenefit captures the pricing benefits granted to a customer tier.
type TierBenefit struct {
	ID                      uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Tier                    enums.CustomerTier `gorm:"column:tier;type:customer_tier;not null;uniqueIndex"`
	DiscountPercent         decimal.Decimal    `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	MinOrderQty             int                `gorm:"column:min_order_qty;not null;default:1"`
	FreeShippingThreshold   decimal.Decimal    `gorm:"column:free_shipping_threshold;type:numeric(12,2);not null;default:0"`
	ShippingDiscountPercent decimal.Decimal    `gorm:"column:shipping_discount_percent;type:numeric(5,2);not null;default:0"`
	EligibleNetTerms        pq.StringArray     `gorm:"column:eligible_net_terms;type:text[];not null;default:ARRAY[]::text[]"`
	VolumeBands             []VolumeBand       `gorm:"foreignKey:TierBenefitID;constraint:OnDelete:CASCADE"`
	CreatedAt               time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
