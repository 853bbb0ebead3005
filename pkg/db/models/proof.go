package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/pkg/enums"
)

// Proof tracks the artwork approval workflow for one order line item.
// Production is blocked until the proof is approved.
type Proof struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	OrderLineItemID uuid.UUID         `gorm:"column:order_line_item_id;type:uuid;not null;uniqueIndex"`
	CustomerID      uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	Status          enums.ProofStatus `gorm:"column:status;type:proof_status;not null;default:'pending'"`
	RevisionCount   int               `gorm:"column:revision_count;not null;default:0"`
	ArtworkPath     *string           `gorm:"column:artwork_path"`
	PreviewPath     *string           `gorm:"column:preview_path"`
	SubmittedAt     *time.Time        `gorm:"column:submitted_at"`
	ApprovedAt      *time.Time        `gorm:"column:approved_at"`
	Revisions       []ProofRevision   `gorm:"foreignKey:ProofID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// ProofRevision is one round of submitted artwork plus reviewer feedback.
type ProofRevision struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProofID     uuid.UUID  `gorm:"column:proof_id;type:uuid;not null;index"`
	Revision    int        `gorm:"column:revision;not null"`
	ArtworkPath string     `gorm:"column:artwork_path;not null"`
	Feedback    *string    `gorm:"column:feedback"`
	CreatedBy   *uuid.UUID `gorm:"column:created_by;type:uuid"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}
