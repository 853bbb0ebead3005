package promos

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromoCode is the loaded value a validation runs against.
type PromoCode struct {
	ID          uuid.UUID
	Code        string
	Percent     decimal.Decimal
	MinQuantity int
	ExpiresAt   *time.Time
	Description *string
	Active      bool
}

// Validation is the outcome of checking a promo code against a quantity
// at a point in time. Invalid codes contribute a zero percent discount;
// they are never surfaced as errors.
type Validation struct {
	Valid   bool
	Message string
	Percent decimal.Decimal
}

// Validate checks a promo code against expiry and minimum quantity. It
// fails closed: a nil (unknown) code, an inactive or expired code, or a
// quantity below the minimum all yield an invalid result.
func Validate(promo *PromoCode, quantity int, now time.Time) Validation {
	if promo == nil {
		return Validation{Valid: false, Message: "promo code not found"}
	}
	if !promo.Active {
		return Validation{Valid: false, Message: "promo code is no longer active"}
	}
	if promo.ExpiresAt != nil && now.After(*promo.ExpiresAt) {
		return Validation{Valid: false, Message: "promo code has expired"}
	}
	if quantity < promo.MinQuantity {
		return Validation{
			Valid:   false,
			Message: fmt.Sprintf("promo code requires a minimum quantity of %d", promo.MinQuantity),
		}
	}
	return Validation{Valid: true, Percent: promo.Percent}
}
