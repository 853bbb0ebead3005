package proofs

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/api/middleware"
	"github.com/calebmoran/printworks-backend/api/responses"
	"github.com/calebmoran/printworks-backend/api/validators"
	internalproofs "github.com/calebmoran/printworks-backend/internal/proofs"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/logger"
)

// ListByOrder returns every proof attached to one of the customer's orders.
func ListByOrder(svc *internalproofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "proofs service unavailable"))
			return
		}

		customerID, err := middleware.CustomerUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rawOrderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
		orderID, err := uuid.Parse(rawOrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		proofs, err := svc.ListByOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		for _, proof := range proofs {
			if proof.CustomerID != customerID {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
				return
			}
		}
		responses.WriteSuccess(w, proofs)
	}
}

// Detail returns one proof after verifying ownership.
func Detail(svc *internalproofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "proofs service unavailable"))
			return
		}

		proof, err := ownedProof(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, proof)
	}
}

// ArtworkURL returns a short-lived signed download link for the latest artwork.
func ArtworkURL(svc *internalproofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "proofs service unavailable"))
			return
		}

		proof, err := ownedProof(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		url, err := svc.ArtworkURL(r.Context(), proof.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"url": url})
	}
}

type decisionRequest struct {
	Decision string `json:"decision" validate:"required"`
	Feedback string `json:"feedback,omitempty"`
}

// Decision records the customer's verdict on a submitted proof.
func Decision(svc *internalproofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "proofs service unavailable"))
			return
		}

		proof, err := ownedProof(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body decisionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		switch strings.ToLower(strings.TrimSpace(body.Decision)) {
		case "approve":
			updated, err := svc.Approve(r.Context(), internalproofs.ApproveInput{ProofID: proof.ID, Actor: actor})
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, updated)
		case "request_changes":
			updated, err := svc.RequestChanges(r.Context(), internalproofs.RequestChangesInput{
				ProofID:  proof.ID,
				Feedback: strings.TrimSpace(body.Feedback),
				Actor:    actor,
			})
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, updated)
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or request_changes"))
		}
	}
}

type presignRequest struct {
	ProofID   string `json:"proof_id" validate:"required,uuid4"`
	FileName  string `json:"file_name" validate:"required"`
	MimeType  string `json:"mime_type" validate:"required"`
	SizeBytes int64  `json:"size_bytes" validate:"required,gt=0"`
}

// PresignArtwork issues a signed upload URL for the customer's artwork file.
func PresignArtwork(svc *internalproofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "proofs service unavailable"))
			return
		}

		customerID, err := middleware.CustomerUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body presignRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		proofID, err := uuid.Parse(body.ProofID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid proof_id"))
			return
		}

		proof, err := svc.GetByID(r.Context(), proofID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if proof.CustomerID != customerID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "proof not found"))
			return
		}

		output, err := svc.PresignArtwork(r.Context(), internalproofs.PresignArtworkInput{
			ProofID:   proofID,
			FileName:  strings.TrimSpace(body.FileName),
			MimeType:  strings.TrimSpace(body.MimeType),
			SizeBytes: body.SizeBytes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, output)
	}
}

type finalizeRequest struct {
	ProofID     string  `json:"proof_id" validate:"required,uuid4"`
	ArtworkPath string  `json:"artwork_path" validate:"required"`
	PreviewPath *string `json:"preview_path,omitempty"`
}

// FinalizeArtwork marks an uploaded file as the submitted proof artwork.
func FinalizeArtwork(svc *internalproofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "proofs service unavailable"))
			return
		}

		customerID, err := middleware.CustomerUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body finalizeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		proofID, err := uuid.Parse(body.ProofID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid proof_id"))
			return
		}

		proof, err := svc.GetByID(r.Context(), proofID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if proof.CustomerID != customerID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "proof not found"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.SubmitArtwork(r.Context(), internalproofs.SubmitInput{
			ProofID:     proofID,
			ArtworkPath: strings.TrimSpace(body.ArtworkPath),
			PreviewPath: body.PreviewPath,
			Actor:       actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

type requestProofRequest struct {
	OrderID         string `json:"order_id" validate:"required,uuid4"`
	OrderLineItemID string `json:"order_line_item_id" validate:"required,uuid4"`
}

// AdminRequest opens a proofing round for one order line item.
func AdminRequest(svc *internalproofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "proofs service unavailable"))
			return
		}

		var body requestProofRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuid.Parse(body.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order_id"))
			return
		}
		lineItemID, err := uuid.Parse(body.OrderLineItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order_line_item_id"))
			return
		}

		proof, err := svc.Request(r.Context(), internalproofs.RequestInput{
			OrderID:         orderID,
			OrderLineItemID: lineItemID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, proof)
	}
}

// AdminListByOrder returns proofs for any order.
func AdminListByOrder(svc *internalproofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "proofs service unavailable"))
			return
		}

		rawOrderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
		orderID, err := uuid.Parse(rawOrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		proofs, err := svc.ListByOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, proofs)
	}
}

func ownedProof(r *http.Request, svc *internalproofs.Service) (*internalproofs.ProofDTO, error) {
	customerID, err := middleware.CustomerUUID(r.Context())
	if err != nil {
		return nil, err
	}

	raw := strings.TrimSpace(chi.URLParam(r, "proofId"))
	proofID, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid proof id")
	}

	proof, err := svc.GetByID(r.Context(), proofID)
	if err != nil {
		return nil, err
	}
	if proof.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "proof not found")
	}
	return proof, nil
}

func actorFromContext(r *http.Request) (*internalproofs.Actor, error) {
	userID, err := middleware.UserUUID(r.Context())
	if err != nil {
		return nil, err
	}
	role, err := enums.ParseMemberRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "unknown actor role")
	}
	actor := &internalproofs.Actor{UserID: userID, Role: role}
	if raw := middleware.CustomerIDFromContext(r.Context()); raw != "" {
		if parsed, err := uuid.Parse(raw); err == nil {
			actor.CustomerID = &parsed
		}
	}
	return actor, nil
}
