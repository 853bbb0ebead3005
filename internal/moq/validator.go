package moq

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
)

// Rule is a minimum order quantity constraint. Nil ProductID, Category,
// or Tier match every value on that axis. Rules are evaluated in slice
// order where order matters (increment resolution).
type Rule struct {
	ID             uuid.UUID
	ProductID      *uuid.UUID
	Category       *enums.ProductCategory
	Tier           *enums.CustomerTier
	MinimumQty     int
	IncrementQty   *int
	EffectiveFrom  *time.Time
	EffectiveUntil *time.Time
	Active         bool
}

func (r Rule) matches(productID uuid.UUID, tier enums.CustomerTier, category *enums.ProductCategory, now time.Time) bool {
	if !r.Active {
		return false
	}
	if r.EffectiveFrom != nil && now.Before(*r.EffectiveFrom) {
		return false
	}
	if r.EffectiveUntil != nil && now.After(*r.EffectiveUntil) {
		return false
	}
	if r.Tier != nil && *r.Tier != tier {
		return false
	}
	if r.ProductID != nil && *r.ProductID != productID {
		return false
	}
	if r.Category != nil {
		if category == nil || *r.Category != *category {
			return false
		}
	}
	return true
}

// Validator evaluates MOQ rules. It holds a read-only rule list and is
// safe for concurrent use.
type Validator struct {
	rules []Rule
}

// NewValidator builds a validator over the given rules. Rule order is
// preserved; increments resolve to the first matching rule that defines
// one.
func NewValidator(rules []Rule) *Validator {
	return &Validator{rules: rules}
}

// EffectiveMOQ returns the maximum minimum quantity over all active,
// date-valid, matching rules, or 1 when none match.
func (v *Validator) EffectiveMOQ(productID uuid.UUID, tier enums.CustomerTier, category *enums.ProductCategory, now time.Time) int {
	moq := 1
	for _, rule := range v.rules {
		if rule.matches(productID, tier, category, now) && rule.MinimumQty > moq {
			moq = rule.MinimumQty
		}
	}
	return moq
}

// IncrementFor returns the increment of the first matching rule that
// defines one. Increments do not aggregate across rules.
func (v *Validator) IncrementFor(productID uuid.UUID, tier enums.CustomerTier, category *enums.ProductCategory, now time.Time) *int {
	for _, rule := range v.rules {
		if rule.IncrementQty != nil && rule.matches(productID, tier, category, now) {
			inc := *rule.IncrementQty
			return &inc
		}
	}
	return nil
}

// Validation reports the outcome of an MOQ check with numeric
// remediation hints.
type Validation struct {
	Valid        bool
	Message      string
	EffectiveMOQ int
	// QuantityNeeded is the shortfall below the MOQ, zero when met.
	QuantityNeeded int
	// NextValidQuantity is the nearest valid quantity at or above the
	// request when an increment misalignment was found.
	NextValidQuantity int
}

// Validate checks a quantity against the effective MOQ and increment.
// A quantity exactly at the MOQ is valid. Quantities of zero or below
// are rejected outright.
func (v *Validator) Validate(quantity int, productID uuid.UUID, tier enums.CustomerTier, category *enums.ProductCategory, now time.Time) (Validation, error) {
	if quantity <= 0 {
		return Validation{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}

	moq := v.EffectiveMOQ(productID, tier, category, now)
	if quantity < moq {
		return Validation{
			Valid:          false,
			Message:        fmt.Sprintf("quantity %d is below the minimum of %d; add %d more", quantity, moq, moq-quantity),
			EffectiveMOQ:   moq,
			QuantityNeeded: moq - quantity,
		}, nil
	}

	if inc := v.IncrementFor(productID, tier, category, now); inc != nil && quantity%*inc != 0 {
		next := ((quantity / *inc) + 1) * *inc
		return Validation{
			Valid:             false,
			Message:           fmt.Sprintf("quantity must be a multiple of %d; next valid quantity is %d", *inc, next),
			EffectiveMOQ:      moq,
			NextValidQuantity: next,
		}, nil
	}

	return Validation{Valid: true, EffectiveMOQ: moq}, nil
}

// CartLine is one cart entry to validate.
type CartLine struct {
	ProductID uuid.UUID
	Category  *enums.ProductCategory
	Quantity  int
}

// LineValidation pairs a cart line with its MOQ outcome.
type LineValidation struct {
	ProductID  uuid.UUID
	Validation Validation
}

// CartValidation aggregates per-line results. The cart is valid iff
// every line is valid; lines never aggregate quantities across each
// other.
type CartValidation struct {
	Valid bool
	Lines []LineValidation
}

// ValidateCart validates each line independently.
func (v *Validator) ValidateCart(lines []CartLine, tier enums.CustomerTier, now time.Time) (CartValidation, error) {
	result := CartValidation{Valid: true, Lines: make([]LineValidation, 0, len(lines))}
	for _, line := range lines {
		validation, err := v.Validate(line.Quantity, line.ProductID, tier, line.Category, now)
		if err != nil {
			return CartValidation{}, err
		}
		if !validation.Valid {
			result.Valid = false
		}
		result.Lines = append(result.Lines, LineValidation{ProductID: line.ProductID, Validation: validation})
	}
	return result, nil
}
