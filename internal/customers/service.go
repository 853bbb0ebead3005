package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/types"
)

type customerRepository interface {
	Create(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Customer, error)
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
	FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Customer, error)
	UpdateWithTx(tx *gorm.DB, customer *models.Customer) error
	ListTierChanges(ctx context.Context, customerID uuid.UUID) ([]models.CustomerTierChange, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes customer account operations.
type Service interface {
	Create(ctx context.Context, input CreateCustomerInput) (*CustomerDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*CustomerDTO, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*CustomerDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCustomerInput) (*CustomerDTO, error)
	AssignTier(ctx context.Context, id uuid.UUID, input AssignTierInput) (*CustomerDTO, error)
	TierHistory(ctx context.Context, id uuid.UUID) ([]TierChangeDTO, error)
	SetCreditLimit(ctx context.Context, id uuid.UUID, limit decimal.Decimal) (*CustomerDTO, error)
	ReserveCredit(tx *gorm.DB, id uuid.UUID, amount decimal.Decimal) error
	ReleaseCredit(tx *gorm.DB, id uuid.UUID, amount decimal.Decimal) error
}

// CreateCustomerInput holds the validated payload to create a customer.
// Tier defaults to retail when unset; accounts never exist without a tier.
type CreateCustomerInput struct {
	UserID          *uuid.UUID
	CompanyName     *string
	ContactName     string
	Email           string
	Phone           *string
	Tier            enums.CustomerTier
	CreditLimit     decimal.Decimal
	ShippingAddress *types.Address
}

// UpdateCustomerInput captures the allowed profile fields for mutation.
type UpdateCustomerInput struct {
	CompanyName     *string
	ContactName     *string
	Phone           *string
	ShippingAddress *types.Address
	IsActive        *bool
	Notes           *string
}

// AssignTierInput records who changed the tier and why.
type AssignTierInput struct {
	Tier        enums.CustomerTier
	ActorUserID *uuid.UUID
	Reason      *string
}

type service struct {
	repo   customerRepository
	client txRunner
}

// NewService builds a customer service with the provided repository.
func NewService(repo customerRepository, client txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, client: client}, nil
}

func (s *service) Create(ctx context.Context, input CreateCustomerInput) (*CustomerDTO, error) {
	if strings.TrimSpace(input.ContactName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact_name is required")
	}
	if !strings.Contains(input.Email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}
	tier := input.Tier
	if tier == "" {
		tier = enums.CustomerTierRetail
	}
	if !tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid tier %q", tier))
	}
	if input.CreditLimit.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit_limit cannot be negative")
	}

	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email uniqueness")
	}

	customer := &models.Customer{
		UserID:          input.UserID,
		CompanyName:     input.CompanyName,
		ContactName:     strings.TrimSpace(input.ContactName),
		Email:           strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:           input.Phone,
		Tier:            tier,
		CreditLimit:     input.CreditLimit,
		CreditUsed:      decimal.Zero,
		ShippingAddress: input.ShippingAddress,
		IsActive:        true,
	}
	created, err := s.repo.Create(ctx, customer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	return NewCustomerDTO(created), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*CustomerDTO, error) {
	customer, err := s.loadCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewCustomerDTO(customer), nil
}

func (s *service) GetByUserID(ctx context.Context, userID uuid.UUID) (*CustomerDTO, error) {
	customer, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return NewCustomerDTO(customer), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateCustomerInput) (*CustomerDTO, error) {
	customer, err := s.loadCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.CompanyName != nil {
		customer.CompanyName = input.CompanyName
	}
	if input.ContactName != nil {
		if strings.TrimSpace(*input.ContactName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact_name cannot be empty")
		}
		customer.ContactName = strings.TrimSpace(*input.ContactName)
	}
	if input.Phone != nil {
		customer.Phone = input.Phone
	}
	if input.ShippingAddress != nil {
		customer.ShippingAddress = input.ShippingAddress
	}
	if input.IsActive != nil {
		customer.IsActive = *input.IsActive
	}
	if input.Notes != nil {
		customer.Notes = input.Notes
	}

	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	return NewCustomerDTO(customer), nil
}

// AssignTier moves the customer to a new tier and appends the change to the
// audit trail in the same transaction. Assigning the current tier is a no-op
// conflict rather than a duplicate history row.
func (s *service) AssignTier(ctx context.Context, id uuid.UUID, input AssignTierInput) (*CustomerDTO, error) {
	if !input.Tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid tier %q", input.Tier))
	}

	var updated *models.Customer
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		customer, err := s.repo.FindByIDWithTx(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
		}
		if customer.Tier == input.Tier {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("customer already on tier %q", input.Tier))
		}

		change := &models.CustomerTierChange{
			CustomerID:  customer.ID,
			FromTier:    customer.Tier,
			ToTier:      input.Tier,
			ActorUserID: input.ActorUserID,
			Reason:      input.Reason,
		}
		customer.Tier = input.Tier

		if err := s.repo.UpdateWithTx(tx, customer); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer tier")
		}
		if err := tx.Create(change).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append tier change")
		}
		updated = customer
		return nil
	})
	if err != nil {
		var coded *pkgerrors.Error
		if errors.As(err, &coded) {
			return nil, coded
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign tier")
	}
	return NewCustomerDTO(updated), nil
}

func (s *service) TierHistory(ctx context.Context, id uuid.UUID) ([]TierChangeDTO, error) {
	if _, err := s.loadCustomer(ctx, id); err != nil {
		return nil, err
	}
	changes, err := s.repo.ListTierChanges(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tier changes")
	}
	out := make([]TierChangeDTO, 0, len(changes))
	for i := range changes {
		out = append(out, NewTierChangeDTO(&changes[i]))
	}
	return out, nil
}

func (s *service) SetCreditLimit(ctx context.Context, id uuid.UUID, limit decimal.Decimal) (*CustomerDTO, error) {
	if limit.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit_limit cannot be negative")
	}
	customer, err := s.loadCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	customer.CreditLimit = limit
	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set credit limit")
	}
	return NewCustomerDTO(customer), nil
}

// ReserveCredit bumps credit_used inside the caller's transaction. Checkout
// calls this when a net-terms order is confirmed.
func (s *service) ReserveCredit(tx *gorm.DB, id uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "credit amount must be positive")
	}
	customer, err := s.repo.FindByIDWithTx(tx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	next := customer.CreditUsed.Add(amount)
	if next.GreaterThan(customer.CreditLimit) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf(
			"insufficient credit: limit %s, used %s, requested %s",
			customer.CreditLimit.StringFixed(2), customer.CreditUsed.StringFixed(2), amount.StringFixed(2)))
	}
	customer.CreditUsed = next
	if err := s.repo.UpdateWithTx(tx, customer); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve credit")
	}
	return nil
}

// ReleaseCredit lowers credit_used inside the caller's transaction, clamping
// at zero. Invoicing calls this as payments post.
func (s *service) ReleaseCredit(tx *gorm.DB, id uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "credit amount must be positive")
	}
	customer, err := s.repo.FindByIDWithTx(tx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	next := customer.CreditUsed.Sub(amount)
	if next.IsNegative() {
		next = decimal.Zero
	}
	customer.CreditUsed = next
	if err := s.repo.UpdateWithTx(tx, customer); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release credit")
	}
	return nil
}

func (s *service) loadCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}
