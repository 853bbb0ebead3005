package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
)

// Repository handles customer persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to customer operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create persists a new customer row.
func (r *Repository) Create(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

// FindByID loads a customer by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindByUserID loads the customer account owned by a user.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindByEmail loads a customer by email, case-insensitively.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).
		First(&customer, "LOWER(email) = ?", strings.ToLower(email)).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// Update saves the provided customer.
func (r *Repository) Update(ctx context.Context, customer *models.Customer) error {
	if customer == nil {
		return fmt.Errorf("customer is required")
	}
	return r.db.WithContext(ctx).Save(customer).Error
}

// FindByIDWithTx loads a customer under the provided transaction, locking
// the row so concurrent credit adjustments serialize.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Customer, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var customer models.Customer
	if err := tx.First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// UpdateWithTx persists the customer using the provided transaction.
func (r *Repository) UpdateWithTx(tx *gorm.DB, customer *models.Customer) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if customer == nil {
		return fmt.Errorf("customer is required")
	}
	return tx.Save(customer).Error
}

// AppendTierChange records a tier assignment in the audit trail.
func (r *Repository) AppendTierChange(ctx context.Context, change *models.CustomerTierChange) error {
	return r.db.WithContext(ctx).Create(change).Error
}

// ListTierChanges returns the tier history for a customer, oldest first.
func (r *Repository) ListTierChanges(ctx context.Context, customerID uuid.UUID) ([]models.CustomerTierChange, error) {
	var changes []models.CustomerTierChange
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&changes).Error; err != nil {
		return nil, err
	}
	return changes, nil
}
