package moq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
)

type ruleRepository interface {
	Create(ctx context.Context, rule *models.MOQRule) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.MOQRule, error)
	ListActive(ctx context.Context) ([]models.MOQRule, error)
	List(ctx context.Context) ([]models.MOQRule, error)
	Update(ctx context.Context, rule *models.MOQRule) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// Service exposes MOQ rule administration and quantity validation.
type Service interface {
	CreateRule(ctx context.Context, input CreateRuleInput) (*RuleDTO, error)
	ListRules(ctx context.Context) ([]RuleDTO, error)
	SetRuleActive(ctx context.Context, id uuid.UUID, active bool) (*RuleDTO, error)
	// LoadValidator builds a validator over the currently active rules.
	LoadValidator(ctx context.Context) (*Validator, error)
	Validate(ctx context.Context, quantity int, productID uuid.UUID, tier enums.CustomerTier, category *enums.ProductCategory) (Validation, error)
}

type service struct {
	repo ruleRepository
}

// NewService builds an MOQ service with the provided repository.
func NewService(repo ruleRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("moq rule repository required")
	}
	return &service{repo: repo}, nil
}

// CreateRuleInput captures the fields for a new MOQ rule.
type CreateRuleInput struct {
	ProductID      *uuid.UUID
	Category       *enums.ProductCategory
	Tier           *enums.CustomerTier
	MinimumQty     int
	IncrementQty   *int
	EffectiveFrom  *time.Time
	EffectiveUntil *time.Time
	Position       int
}

// RuleDTO is the MOQ rule payload returned to clients.
type RuleDTO struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      *uuid.UUID `json:"product_id,omitempty"`
	Category       *string    `json:"category,omitempty"`
	Tier           *string    `json:"tier,omitempty"`
	MinimumQty     int        `json:"minimum_qty"`
	IncrementQty   *int       `json:"increment_qty,omitempty"`
	EffectiveFrom  *time.Time `json:"effective_from,omitempty"`
	EffectiveUntil *time.Time `json:"effective_until,omitempty"`
	Active         bool       `json:"active"`
	Position       int        `json:"position"`
	CreatedAt      time.Time  `json:"created_at"`
}

func ruleFromModel(m *models.MOQRule) *RuleDTO {
	dto := &RuleDTO{
		ID:             m.ID,
		ProductID:      m.ProductID,
		MinimumQty:     m.MinimumQty,
		IncrementQty:   m.IncrementQty,
		EffectiveFrom:  m.EffectiveFrom,
		EffectiveUntil: m.EffectiveUntil,
		Active:         m.Active,
		Position:       m.Position,
		CreatedAt:      m.CreatedAt,
	}
	if m.Category != nil {
		category := m.Category.String()
		dto.Category = &category
	}
	if m.Tier != nil {
		tier := m.Tier.String()
		dto.Tier = &tier
	}
	return dto
}

func ruleToValue(m *models.MOQRule) Rule {
	return Rule{
		ID:             m.ID,
		ProductID:      m.ProductID,
		Category:       m.Category,
		Tier:           m.Tier,
		MinimumQty:     m.MinimumQty,
		IncrementQty:   m.IncrementQty,
		EffectiveFrom:  m.EffectiveFrom,
		EffectiveUntil: m.EffectiveUntil,
		Active:         m.Active,
	}
}

func (s *service) CreateRule(ctx context.Context, input CreateRuleInput) (*RuleDTO, error) {
	if input.MinimumQty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum quantity must be at least 1")
	}
	if input.IncrementQty != nil && *input.IncrementQty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "increment quantity must be at least 1")
	}
	if input.Category != nil && !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if input.Tier != nil && !input.Tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid tier")
	}
	if input.EffectiveFrom != nil && input.EffectiveUntil != nil && input.EffectiveUntil.Before(*input.EffectiveFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "effective range is inverted")
	}

	rule := &models.MOQRule{
		ProductID:      input.ProductID,
		Category:       input.Category,
		Tier:           input.Tier,
		MinimumQty:     input.MinimumQty,
		IncrementQty:   input.IncrementQty,
		EffectiveFrom:  input.EffectiveFrom,
		EffectiveUntil: input.EffectiveUntil,
		Active:         true,
		Position:       input.Position,
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create moq rule")
	}
	return ruleFromModel(rule), nil
}

func (s *service) ListRules(ctx context.Context) ([]RuleDTO, error) {
	rules, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list moq rules")
	}
	result := make([]RuleDTO, 0, len(rules))
	for i := range rules {
		result = append(result, *ruleFromModel(&rules[i]))
	}
	return result, nil
}

func (s *service) SetRuleActive(ctx context.Context, id uuid.UUID, active bool) (*RuleDTO, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "moq rule not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update moq rule")
	}
	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load moq rule")
	}
	return ruleFromModel(rule), nil
}

func (s *service) LoadValidator(ctx context.Context) (*Validator, error) {
	rules, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load moq rules")
	}
	values := make([]Rule, 0, len(rules))
	for i := range rules {
		values = append(values, ruleToValue(&rules[i]))
	}
	return NewValidator(values), nil
}

func (s *service) Validate(ctx context.Context, quantity int, productID uuid.UUID, tier enums.CustomerTier, category *enums.ProductCategory) (Validation, error) {
	validator, err := s.LoadValidator(ctx)
	if err != nil {
		return Validation{}, err
	}
	return validator.Validate(quantity, productID, tier, category, time.Now())
}
