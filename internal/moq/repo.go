package moq

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
)

// Repository handles MOQ rule persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to MOQ rule operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new rule row.
func (r *Repository) Create(ctx context.Context, rule *models.MOQRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

// FindByID loads a rule by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.MOQRule, error) {
	var rule models.MOQRule
	if err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

// ListActive returns active rules in position order, the order increment
// resolution depends on.
func (r *Repository) ListActive(ctx context.Context) ([]models.MOQRule, error) {
	var rules []models.MOQRule
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("position ASC, created_at ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// List returns every rule in position order.
func (r *Repository) List(ctx context.Context) ([]models.MOQRule, error) {
	var rules []models.MOQRule
	if err := r.db.WithContext(ctx).
		Order("position ASC, created_at ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// Update saves the provided rule.
func (r *Repository) Update(ctx context.Context, rule *models.MOQRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

// SetActive flips the active flag on a rule.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.MOQRule{}).
		Where("id = ?", id).
		Update("active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
