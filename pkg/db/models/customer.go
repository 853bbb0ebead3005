package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/pkg/enums"
	"github.com/calebmoran/printworks-backend/pkg/types"
)

// Customer is a buying account. Tier is never null; retail is assigned at
// creation and upgrades are recorded as CustomerTierChange rows.
type Customer struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          *uuid.UUID         `gorm:"column:user_id;type:uuid;uniqueIndex"`
	CompanyName     *string            `gorm:"column:company_name"`
	ContactName     string             `gorm:"column:contact_name;not null"`
	Email           string             `gorm:"column:email;not null;uniqueIndex"`
	Phone           *string            `gorm:"column:phone"`
	Tier            enums.CustomerTier `gorm:"column:tier;type:customer_tier;not null;default:'retail'"`
	CreditLimit     decimal.Decimal    `gorm:"column:credit_limit;type:numeric(12,2);not null;default:0"`
	CreditUsed      decimal.Decimal    `gorm:"column:credit_used;type:numeric(12,2);not null;default:0"`
	ShippingAddress *types.Address     `gorm:"column:shipping_address;type:address_t"`
	IsActive        bool               `gorm:"column:is_active;not null;default:true"`
	Notes           *string            `gorm:"column:notes"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// CustomerTierChange is an append-only record of a tier assignment.
type CustomerTierChange struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID  uuid.UUID          `gorm:"column:customer_id;type:uuid;not null;index"`
	FromTier    enums.CustomerTier `gorm:"column:from_tier;type:customer_tier;not null"`
	ToTier      enums.CustomerTier `gorm:"column:to_tier;type:customer_tier;not null"`
	ActorUserID *uuid.UUID         `gorm:"column:actor_user_id;type:uuid"`
	Reason      *string            `gorm:"column:reason"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}
