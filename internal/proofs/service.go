package proofs

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/outbox"
	"github.com/calebmoran/printworks-backend/pkg/outbox/payloads"
)

const (
	defaultMaxRevisions = 3
	defaultMaxUploadMB  = 200
)

// Artwork is uploaded by customers as print-ready files; previews are
// rendered server-side, so only these types are accepted here.
var allowedArtworkMimes = []string{"image/png", "image/jpeg", "application/pdf"}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type orderLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type artworkSigner interface {
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
}

// Actor identifies who is driving a proof transition.
type Actor struct {
	UserID     uuid.UUID
	CustomerID *uuid.UUID
	Role       enums.MemberRole
}

func (a *Actor) ref() *outbox.ActorRef {
	if a == nil || a.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{
		UserID:     a.UserID,
		CustomerID: a.CustomerID,
		Role:       a.Role.String(),
	}
}

// Service runs the artwork approval workflow. Each proof belongs to one
// order line item and must reach approved before the order can enter
// production.
type Service struct {
	repo         Repository
	orders       orderLoader
	signer       artworkSigner
	client       txRunner
	outbox       outboxEmitter
	bucket       string
	uploadTTL    time.Duration
	downloadTTL  time.Duration
	maxRevisions int
	maxUploadMB  int
}

// ServiceParams wires the proofs service dependencies.
type ServiceParams struct {
	Repo              Repository
	Orders            orderLoader
	Signer            artworkSigner
	TransactionRunner txRunner
	Outbox            outboxEmitter
	Bucket            string
	UploadTTL         time.Duration
	DownloadTTL       time.Duration
	MaxRevisions      int
	MaxUploadMB       int
}

// NewService builds a proofs service. The outbox emitter may be nil.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("proof repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order loader required")
	}
	if params.Signer == nil {
		return nil, fmt.Errorf("artwork signer required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Bucket == "" {
		return nil, fmt.Errorf("artwork bucket required")
	}
	if params.UploadTTL <= 0 {
		return nil, fmt.Errorf("upload ttl must be positive")
	}
	if params.DownloadTTL <= 0 {
		return nil, fmt.Errorf("download ttl must be positive")
	}
	maxRevisions := params.MaxRevisions
	if maxRevisions <= 0 {
		maxRevisions = defaultMaxRevisions
	}
	maxUploadMB := params.MaxUploadMB
	if maxUploadMB <= 0 {
		maxUploadMB = defaultMaxUploadMB
	}
	return &Service{
		repo:         params.Repo,
		orders:       params.Orders,
		signer:       params.Signer,
		client:       params.TransactionRunner,
		outbox:       params.Outbox,
		bucket:       params.Bucket,
		uploadTTL:    params.UploadTTL,
		downloadTTL:  params.DownloadTTL,
		maxRevisions: maxRevisions,
		maxUploadMB:  maxUploadMB,
	}, nil
}

// RequestInput opens a proof for one order line item.
type RequestInput struct {
	OrderID         uuid.UUID
	OrderLineItemID uuid.UUID
}

// Request opens a proof for a line item that requires artwork approval.
// Requesting a proof twice for the same line returns the existing one.
func (s *Service) Request(ctx context.Context, input RequestInput) (*ProofDTO, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if input.OrderLineItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order line item id is required")
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is cancelled")
	}

	var line *models.OrderLineItem
	for i := range order.Items {
		if order.Items[i].ID == input.OrderLineItemID {
			line = &order.Items[i]
			break
		}
	}
	if line == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order line item not found")
	}
	if !line.ProofRequired {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item does not require a proof")
	}

	existing, err := s.repo.FindByLineItem(ctx, input.OrderLineItemID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load proof")
	}
	if existing != nil {
		return NewProofDTO(existing), nil
	}

	proof := &models.Proof{
		ID:              uuid.New(),
		OrderID:         order.ID,
		OrderLineItemID: line.ID,
		CustomerID:      order.CustomerID,
		Status:          enums.ProofStatusPending,
	}
	if err := s.repo.Create(ctx, proof); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create proof")
	}
	return NewProofDTO(proof), nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*ProofDTO, error) {
	proof, err := s.loadProof(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewProofDTO(proof), nil
}

func (s *Service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]ProofDTO, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	proofs, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list proofs")
	}
	result := make([]ProofDTO, 0, len(proofs))
	for i := range proofs {
		result = append(result, *NewProofDTO(&proofs[i]))
	}
	return result, nil
}

// PresignArtworkInput requests an upload URL for the next revision.
type PresignArtworkInput struct {
	ProofID   uuid.UUID
	FileName  string
	MimeType  string
	SizeBytes int64
}

// PresignArtworkOutput carries the signed upload URL. The upload must
// send the returned content type verbatim or the signature fails.
type PresignArtworkOutput struct {
	ProofID      uuid.UUID `json:"proof_id"`
	Revision     int       `json:"revision"`
	ArtworkPath  string    `json:"artwork_path"`
	SignedPUTURL string    `json:"signed_put_url"`
	ContentType  string    `json:"content_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// PresignArtwork returns a direct-upload URL for the proof's next
// revision. The proof must still accept artwork.
func (s *Service) PresignArtwork(ctx context.Context, input PresignArtworkInput) (*PresignArtworkOutput, error) {
	if input.ProofID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proof id is required")
	}
	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}
	mimeType := strings.TrimSpace(input.MimeType)
	if !isAllowedArtworkMime(mimeType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type must be png, jpeg, or pdf")
	}
	maxBytes := int64(s.maxUploadMB) * 1024 * 1024
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if input.SizeBytes > maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("artwork exceeds the %d MB upload limit", s.maxUploadMB))
	}

	proof, err := s.loadProof(ctx, input.ProofID)
	if err != nil {
		return nil, err
	}
	if err := s.acceptsArtwork(proof); err != nil {
		return nil, err
	}

	revision := proof.RevisionCount + 1
	artworkPath := buildArtworkKey(proof.ID, revision, fileName)
	expiresAt := time.Now().Add(s.uploadTTL)
	signedURL, err := s.signer.SignedURL(s.bucket, artworkPath, mimeType, s.uploadTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &PresignArtworkOutput{
		ProofID:      proof.ID,
		Revision:     revision,
		ArtworkPath:  artworkPath,
		SignedPUTURL: signedURL,
		ContentType:  mimeType,
		ExpiresAt:    expiresAt,
	}, nil
}

// ArtworkURL returns a time-limited download URL for the proof's current
// artwork.
func (s *Service) ArtworkURL(ctx context.Context, proofID uuid.UUID) (string, error) {
	proof, err := s.loadProof(ctx, proofID)
	if err != nil {
		return "", err
	}
	if proof.ArtworkPath == nil || *proof.ArtworkPath == "" {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "proof has no artwork")
	}
	signedURL, err := s.signer.SignedReadURL(s.bucket, *proof.ArtworkPath, s.downloadTTL)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign download url")
	}
	return signedURL, nil
}

// SubmitInput records an uploaded artwork file as the next revision.
type SubmitInput struct {
	ProofID     uuid.UUID
	ArtworkPath string
	PreviewPath *string
	Actor       *Actor
}

// SubmitArtwork moves the proof to awaiting_approval with a new revision.
// Submissions stop once the revision limit is reached.
func (s *Service) SubmitArtwork(ctx context.Context, input SubmitInput) (*ProofDTO, error) {
	if input.ProofID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proof id is required")
	}
	artworkPath := strings.TrimSpace(input.ArtworkPath)
	if artworkPath == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artwork_path is required")
	}

	var dto *ProofDTO
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		proof, err := repo.FindByID(ctx, input.ProofID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "proof not found")
			}
			return fmt.Errorf("load proof: %w", err)
		}
		if err := s.acceptsArtwork(proof); err != nil {
			return err
		}
		if proof.RevisionCount >= s.maxRevisions {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("proof reached the %d revision limit", s.maxRevisions))
		}

		now := time.Now().UTC()
		revision := &models.ProofRevision{
			ProofID:     proof.ID,
			Revision:    proof.RevisionCount + 1,
			ArtworkPath: artworkPath,
		}
		if input.Actor != nil && input.Actor.UserID != uuid.Nil {
			userID := input.Actor.UserID
			revision.CreatedBy = &userID
		}
		if err := repo.CreateRevision(ctx, revision); err != nil {
			return fmt.Errorf("create revision: %w", err)
		}

		proof.Status = enums.ProofStatusAwaitingApproval
		proof.RevisionCount = revision.Revision
		proof.ArtworkPath = &artworkPath
		proof.PreviewPath = input.PreviewPath
		proof.SubmittedAt = &now
		if err := repo.Update(ctx, proof); err != nil {
			return fmt.Errorf("update proof: %w", err)
		}

		if err := s.emit(ctx, tx, enums.EventProofSubmitted, proof, input.Actor, ""); err != nil {
			return err
		}

		proof.Revisions = append(proof.Revisions, *revision)
		dto = NewProofDTO(proof)
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit artwork")
	}
	return dto, nil
}

// ApproveInput approves the proof's current revision.
type ApproveInput struct {
	ProofID uuid.UUID
	Actor   *Actor
}

// Approve accepts the current artwork. Approval is terminal; further
// submissions are rejected.
func (s *Service) Approve(ctx context.Context, input ApproveInput) (*ProofDTO, error) {
	if input.ProofID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proof id is required")
	}

	var dto *ProofDTO
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		proof, err := repo.FindByID(ctx, input.ProofID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "proof not found")
			}
			return fmt.Errorf("load proof: %w", err)
		}
		if proof.Status != enums.ProofStatusAwaitingApproval {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("proof is %s and cannot be approved", proof.Status))
		}

		now := time.Now().UTC()
		proof.Status = enums.ProofStatusApproved
		proof.ApprovedAt = &now
		if err := repo.Update(ctx, proof); err != nil {
			return fmt.Errorf("update proof: %w", err)
		}

		if err := s.emit(ctx, tx, enums.EventProofDecided, proof, input.Actor, ""); err != nil {
			return err
		}

		dto = NewProofDTO(proof)
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve proof")
	}
	return dto, nil
}

// RequestChangesInput sends the current revision back with feedback.
type RequestChangesInput struct {
	ProofID  uuid.UUID
	Feedback string
	Actor    *Actor
}

// RequestChanges rejects the current artwork. Feedback is attached to
// the revision under review and the customer may submit again while
// revisions remain.
func (s *Service) RequestChanges(ctx context.Context, input RequestChangesInput) (*ProofDTO, error) {
	if input.ProofID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proof id is required")
	}
	feedback := strings.TrimSpace(input.Feedback)
	if feedback == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "feedback is required")
	}

	var dto *ProofDTO
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		proof, err := repo.FindByID(ctx, input.ProofID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "proof not found")
			}
			return fmt.Errorf("load proof: %w", err)
		}
		if proof.Status != enums.ProofStatusAwaitingApproval {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("proof is %s and cannot be sent back", proof.Status))
		}

		proof.Status = enums.ProofStatusChangesRequested
		if err := repo.Update(ctx, proof); err != nil {
			return fmt.Errorf("update proof: %w", err)
		}
		if err := repo.SetRevisionFeedback(ctx, proof.ID, proof.RevisionCount, feedback); err != nil {
			return fmt.Errorf("record feedback: %w", err)
		}

		if err := s.emit(ctx, tx, enums.EventProofDecided, proof, input.Actor, feedback); err != nil {
			return err
		}

		for i := range proof.Revisions {
			if proof.Revisions[i].Revision == proof.RevisionCount {
				proof.Revisions[i].Feedback = &feedback
			}
		}
		dto = NewProofDTO(proof)
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "request proof changes")
	}
	return dto, nil
}

// ReadyForProduction reports whether every line item that requires a
// proof has an approved one. Orders consult it before moving into
// production.
func (s *Service) ReadyForProduction(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	proofs, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list proofs")
	}
	approvedByLine := make(map[uuid.UUID]bool, len(proofs))
	for i := range proofs {
		approvedByLine[proofs[i].OrderLineItemID] = proofs[i].Status == enums.ProofStatusApproved
	}

	blocked := 0
	for i := range order.Items {
		if !order.Items[i].ProofRequired {
			continue
		}
		if !approvedByLine[order.Items[i].ID] {
			blocked++
		}
	}
	if blocked > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("%d line items are waiting on proof approval", blocked))
	}
	return nil
}

func (s *Service) loadProof(ctx context.Context, id uuid.UUID) (*models.Proof, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proof id is required")
	}
	proof, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "proof not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load proof")
	}
	return proof, nil
}

func (s *Service) acceptsArtwork(proof *models.Proof) error {
	switch proof.Status {
	case enums.ProofStatusPending, enums.ProofStatusChangesRequested:
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("proof is %s and does not accept artwork", proof.Status))
	}
}

func (s *Service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, proof *models.Proof, actor *Actor, feedback string) error {
	if s.outbox == nil {
		return nil
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateProof,
		AggregateID:   proof.ID,
		Actor:         actor.ref(),
		Version:       1,
		Data: payloads.ProofEvent{
			ProofID:    proof.ID,
			OrderID:    proof.OrderID,
			CustomerID: proof.CustomerID,
			Status:     proof.Status,
			Revision:   proof.RevisionCount,
			Feedback:   feedback,
		},
	}); err != nil {
		return fmt.Errorf("emit proof event: %w", err)
	}
	return nil
}

func isAllowedArtworkMime(mimeType string) bool {
	for _, candidate := range allowedArtworkMimes {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

func buildArtworkKey(proofID uuid.UUID, revision int, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = proofID.String()
	}
	return fmt.Sprintf("artwork/%s/rev-%d/%s", proofID, revision, cleanName)
}

func sanitizeFileName(name string) string {
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" || clean == "." || clean == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
