package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromoCode is an admin-managed percent discount code.
type PromoCode struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code        string          `gorm:"column:code;not null;uniqueIndex"`
	Percent     decimal.Decimal `gorm:"column:percent;type:numeric(5,2);not null"`
	MinQuantity int             `gorm:"column:min_quantity;not null;default:1"`
	ExpiresAt   *time.Time      `gorm:"column:expires_at"`
	Description *string         `gorm:"column:description"`
	Active      bool            `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
