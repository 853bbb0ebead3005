package customers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/types"
)

// CustomerDTO represents the customer payload returned to clients.
type CustomerDTO struct {
	ID              uuid.UUID      `json:"id"`
	UserID          *uuid.UUID     `json:"user_id,omitempty"`
	CompanyName     *string        `json:"company_name,omitempty"`
	ContactName     string         `json:"contact_name"`
	Email           string         `json:"email"`
	Phone           *string        `json:"phone,omitempty"`
	Tier            string         `json:"tier"`
	CreditLimit     string         `json:"credit_limit"`
	CreditUsed      string         `json:"credit_used"`
	AvailableCredit string         `json:"available_credit"`
	ShippingAddress *types.Address `json:"shipping_address,omitempty"`
	IsActive        bool           `json:"is_active"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// TierChangeDTO is one entry in the tier history.
type TierChangeDTO struct {
	ID          uuid.UUID  `json:"id"`
	FromTier    string     `json:"from_tier"`
	ToTier      string     `json:"to_tier"`
	ActorUserID *uuid.UUID `json:"actor_user_id,omitempty"`
	Reason      *string    `json:"reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewCustomerDTO builds a DTO from the persisted model.
func NewCustomerDTO(customer *models.Customer) *CustomerDTO {
	available := customer.CreditLimit.Sub(customer.CreditUsed)
	if available.IsNegative() {
		available = decimal.Zero
	}
	return &CustomerDTO{
		ID:              customer.ID,
		UserID:          customer.UserID,
		CompanyName:     customer.CompanyName,
		ContactName:     customer.ContactName,
		Email:           customer.Email,
		Phone:           customer.Phone,
		Tier:            customer.Tier.String(),
		CreditLimit:     customer.CreditLimit.StringFixed(2),
		CreditUsed:      customer.CreditUsed.StringFixed(2),
		AvailableCredit: available.StringFixed(2),
		ShippingAddress: customer.ShippingAddress,
		IsActive:        customer.IsActive,
		CreatedAt:       customer.CreatedAt,
		UpdatedAt:       customer.UpdatedAt,
	}
}

// NewTierChangeDTO builds a DTO from a tier history row.
func NewTierChangeDTO(change *models.CustomerTierChange) TierChangeDTO {
	return TierChangeDTO{
		ID:          change.ID,
		FromTier:    change.FromTier.String(),
		ToTier:      change.ToTier.String(),
		ActorUserID: change.ActorUserID,
		Reason:      change.Reason,
		CreatedAt:   change.CreatedAt,
	}
}
