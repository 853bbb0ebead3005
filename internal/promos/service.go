package promos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/pkg/db"
	"github.com/calebmoran/printworks-backend/pkg/db/models"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
)

type promoRepository interface {
	Create(ctx context.Context, promo *models.PromoCode) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PromoCode, error)
	FindByCode(ctx context.Context, code string) (*models.PromoCode, error)
	List(ctx context.Context) ([]models.PromoCode, error)
	Update(ctx context.Context, promo *models.PromoCode) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// Service exposes promo code administration and validation.
type Service interface {
	Create(ctx context.Context, input CreatePromoInput) (*PromoDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*PromoDTO, error)
	List(ctx context.Context) ([]PromoDTO, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*PromoDTO, error)
	// Resolve loads a code for the pricing pipeline. An unknown code
	// resolves to nil rather than an error; validation fails closed.
	Resolve(ctx context.Context, code string) (*PromoCode, error)
	Validate(ctx context.Context, code string, quantity int, now time.Time) (Validation, error)
}

type service struct {
	repo promoRepository
}

// NewService builds a promo service with the provided repository.
func NewService(repo promoRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promo repository required")
	}
	return &service{repo: repo}, nil
}

// CreatePromoInput captures the fields for a new promo code.
type CreatePromoInput struct {
	Code        string
	Percent     decimal.Decimal
	MinQuantity int
	ExpiresAt   *time.Time
	Description *string
}

// PromoDTO is the promo code payload returned to clients.
type PromoDTO struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	Percent     string     `json:"percent"`
	MinQuantity int        `json:"min_quantity"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Description *string    `json:"description,omitempty"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
}

func fromModel(m *models.PromoCode) *PromoDTO {
	return &PromoDTO{
		ID:          m.ID,
		Code:        m.Code,
		Percent:     m.Percent.String(),
		MinQuantity: m.MinQuantity,
		ExpiresAt:   m.ExpiresAt,
		Description: m.Description,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
	}
}

func toValue(m *models.PromoCode) *PromoCode {
	return &PromoCode{
		ID:          m.ID,
		Code:        m.Code,
		Percent:     m.Percent,
		MinQuantity: m.MinQuantity,
		ExpiresAt:   m.ExpiresAt,
		Description: m.Description,
		Active:      m.Active,
	}
}

func (s *service) Create(ctx context.Context, input CreatePromoInput) (*PromoDTO, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if input.Percent.IsNegative() || input.Percent.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percent must be in [0, 100)")
	}
	if input.MinQuantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min quantity must be at least 1")
	}

	if _, err := s.repo.FindByCode(ctx, code); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "promo code already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup promo code")
	}

	promo := &models.PromoCode{
		Code:        code,
		Percent:     input.Percent,
		MinQuantity: input.MinQuantity,
		ExpiresAt:   input.ExpiresAt,
		Description: input.Description,
		Active:      true,
	}
	if err := s.repo.Create(ctx, promo); err != nil {
		// The code pre-check can race a concurrent create; the unique
		// index is the authority.
		if db.IsUniqueViolation(err, "idx_promo_codes_code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "promo code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create promo code")
	}
	return fromModel(promo), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*PromoDTO, error) {
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promo code")
	}
	return fromModel(promo), nil
}

func (s *service) List(ctx context.Context) ([]PromoDTO, error) {
	promos, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promo codes")
	}
	result := make([]PromoDTO, 0, len(promos))
	for i := range promos {
		result = append(result, *fromModel(&promos[i]))
	}
	return result, nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*PromoDTO, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update promo code")
	}
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promo code")
	}
	return fromModel(promo), nil
}

func (s *service) Resolve(ctx context.Context, code string) (*PromoCode, error) {
	if strings.TrimSpace(code) == "" {
		return nil, nil
	}
	promo, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup promo code")
	}
	return toValue(promo), nil
}

func (s *service) Validate(ctx context.Context, code string, quantity int, now time.Time) (Validation, error) {
	promo, err := s.Resolve(ctx, code)
	if err != nil {
		return Validation{}, err
	}
	return Validate(promo, quantity, now), nil
}
