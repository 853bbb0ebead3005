package proofs

import (
	"time"

	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
)

// ProofDTO is the proof payload returned to clients.
type ProofDTO struct {
	ID              uuid.UUID          `json:"id"`
	OrderID         uuid.UUID          `json:"order_id"`
	OrderLineItemID uuid.UUID          `json:"order_line_item_id"`
	CustomerID      uuid.UUID          `json:"customer_id"`
	Status          string             `json:"status"`
	RevisionCount   int                `json:"revision_count"`
	ArtworkPath     *string            `json:"artwork_path,omitempty"`
	PreviewPath     *string            `json:"preview_path,omitempty"`
	SubmittedAt     *time.Time         `json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time         `json:"approved_at,omitempty"`
	Revisions       []ProofRevisionDTO `json:"revisions,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// ProofRevisionDTO is one submitted artwork round.
type ProofRevisionDTO struct {
	Revision    int        `json:"revision"`
	ArtworkPath string     `json:"artwork_path"`
	Feedback    *string    `json:"feedback,omitempty"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewProofDTO builds a DTO from the persisted proof.
func NewProofDTO(proof *models.Proof) *ProofDTO {
	revisions := make([]ProofRevisionDTO, 0, len(proof.Revisions))
	for _, rev := range proof.Revisions {
		revisions = append(revisions, ProofRevisionDTO{
			Revision:    rev.Revision,
			ArtworkPath: rev.ArtworkPath,
			Feedback:    rev.Feedback,
			CreatedBy:   rev.CreatedBy,
			CreatedAt:   rev.CreatedAt,
		})
	}
	return &ProofDTO{
		ID:              proof.ID,
		OrderID:         proof.OrderID,
		OrderLineItemID: proof.OrderLineItemID,
		CustomerID:      proof.CustomerID,
		Status:          proof.Status.String(),
		RevisionCount:   proof.RevisionCount,
		ArtworkPath:     proof.ArtworkPath,
		PreviewPath:     proof.PreviewPath,
		SubmittedAt:     proof.SubmittedAt,
		ApprovedAt:      proof.ApprovedAt,
		Revisions:       revisions,
		CreatedAt:       proof.CreatedAt,
		UpdatedAt:       proof.UpdatedAt,
	}
}
