package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PaymentMethod mirrors Stripe payment methods per customer.
type PaymentMethod struct {
	ID                    uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID            uuid.UUID       `gorm:"column:customer_id;type:uuid;not null;index"`
	StripePaymentMethodID string          `gorm:"column:stripe_payment_method_id;not null;unique"`
	CardBrand             *string         `gorm:"column:card_brand"`
	CardLast4             *string         `gorm:"column:card_last4"`
	CardExpMonth          *int            `gorm:"column:card_exp_month"`
	CardExpYear           *int            `gorm:"column:card_exp_year"`
	IsDefault             bool            `gorm:"column:is_default;not null;default:false"`
	BillingDetails        json.RawMessage `gorm:"column:billing_details;type:jsonb"`
	CreatedAt             time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
