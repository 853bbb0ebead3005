package proofs

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
)

// Repository handles proof persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, proof *models.Proof) error
	Update(ctx context.Context, proof *models.Proof) error
	CreateRevision(ctx context.Context, revision *models.ProofRevision) error
	SetRevisionFeedback(ctx context.Context, proofID uuid.UUID, revision int, feedback string) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Proof, error)
	FindByLineItem(ctx context.Context, lineItemID uuid.UUID) (*models.Proof, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Proof, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a proof repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, proof *models.Proof) error {
	return r.db.WithContext(ctx).Create(proof).Error
}

func (r *repository) Update(ctx context.Context, proof *models.Proof) error {
	return r.db.WithContext(ctx).Omit("Revisions").Save(proof).Error
}

func (r *repository) CreateRevision(ctx context.Context, revision *models.ProofRevision) error {
	return r.db.WithContext(ctx).Create(revision).Error
}

func (r *repository) SetRevisionFeedback(ctx context.Context, proofID uuid.UUID, revision int, feedback string) error {
	return r.db.WithContext(ctx).
		Model(&models.ProofRevision{}).
		Where("proof_id = ? AND revision = ?", proofID, revision).
		Update("feedback", feedback).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Proof, error) {
	var proof models.Proof
	if err := r.db.WithContext(ctx).
		Preload("Revisions", func(db *gorm.DB) *gorm.DB {
			return db.Order("revision ASC")
		}).
		First(&proof, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &proof, nil
}

func (r *repository) FindByLineItem(ctx context.Context, lineItemID uuid.UUID) (*models.Proof, error) {
	var proof models.Proof
	if err := r.db.WithContext(ctx).
		Preload("Revisions", func(db *gorm.DB) *gorm.DB {
			return db.Order("revision ASC")
		}).
		First(&proof, "order_line_item_id = ?", lineItemID).Error; err != nil {
		return nil, err
	}
	return &proof, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Proof, error) {
	var proofs []models.Proof
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&proofs).Error; err != nil {
		return nil, err
	}
	return proofs, nil
}
