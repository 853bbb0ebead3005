package tickets

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/api/middleware"
	"github.com/calebmoran/printworks-backend/api/responses"
	"github.com/calebmoran/printworks-backend/api/validators"
	internaltickets "github.com/calebmoran/printworks-backend/internal/tickets"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/logger"
	"github.com/calebmoran/printworks-backend/pkg/pagination"
)

type openRequest struct {
	OrderID  *string `json:"order_id,omitempty"`
	Subject  string  `json:"subject" validate:"required,min=3,max=200"`
	Body     string  `json:"body" validate:"required,min=1"`
	Priority *string `json:"priority,omitempty"`
}

// Open starts a new support ticket for the signed-in customer.
func Open(svc *internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		customerID, err := middleware.CustomerUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		authorID, err := middleware.UserUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body openRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internaltickets.OpenInput{
			CustomerID:   customerID,
			Subject:      strings.TrimSpace(body.Subject),
			Body:         strings.TrimSpace(body.Body),
			Priority:     enums.TicketPriorityNormal,
			AuthorUserID: authorID,
		}

		if body.OrderID != nil && strings.TrimSpace(*body.OrderID) != "" {
			orderID, err := uuid.Parse(strings.TrimSpace(*body.OrderID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order_id"))
				return
			}
			input.OrderID = &orderID
		}
		if body.Priority != nil && strings.TrimSpace(*body.Priority) != "" {
			priority, err := enums.ParseTicketPriority(*body.Priority)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority"))
				return
			}
			input.Priority = priority
		}

		ticket, err := svc.Open(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ticket)
	}
}

type replyRequest struct {
	Body     string `json:"body" validate:"required,min=1"`
	Internal bool   `json:"internal,omitempty"`
}

// Reply appends a customer message to an open ticket.
func Reply(svc *internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		customerID, err := middleware.CustomerUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		authorID, err := middleware.UserUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticketID, err := parseTicketID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		existing, err := svc.GetByID(r.Context(), ticketID, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if existing.CustomerID != customerID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found"))
			return
		}

		var body replyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticket, err := svc.Reply(r.Context(), internaltickets.ReplyInput{
			TicketID:     ticketID,
			AuthorUserID: authorID,
			Body:         strings.TrimSpace(body.Body),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticket)
	}
}

// Detail returns one ticket thread, without internal staff notes.
func Detail(svc *internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		customerID, err := middleware.CustomerUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticketID, err := parseTicketID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticket, err := svc.GetByID(r.Context(), ticketID, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if ticket.CustomerID != customerID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found"))
			return
		}
		responses.WriteSuccess(w, ticket)
	}
}

// List pages the customer's own tickets.
func List(svc *internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		customerID, err := middleware.CustomerUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := buildListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.CustomerID = &customerID

		list, next, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"tickets": list, "next_cursor": next})
	}
}

// AdminList pages tickets across all customers with optional filters.
func AdminList(svc *internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		params, err := buildListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("customer_id")); raw != "" {
			customerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer_id"))
				return
			}
			params.CustomerID = &customerID
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("assigned_to")); raw != "" {
			assignedTo, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid assigned_to"))
				return
			}
			params.AssignedTo = &assignedTo
		}

		list, next, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"tickets": list, "next_cursor": next})
	}
}

// AdminDetail returns the full ticket thread including internal notes.
func AdminDetail(svc *internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		ticketID, err := parseTicketID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticket, err := svc.GetByID(r.Context(), ticketID, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticket)
	}
}

// AdminReply appends a staff message, optionally internal-only.
func AdminReply(svc *internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		authorID, err := middleware.UserUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticketID, err := parseTicketID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body replyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticket, err := svc.Reply(r.Context(), internaltickets.ReplyInput{
			TicketID:     ticketID,
			AuthorUserID: authorID,
			Body:         strings.TrimSpace(body.Body),
			Internal:     body.Internal,
			Staff:        true,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticket)
	}
}

// AdminResolve marks a ticket resolved.
func AdminResolve(svc *internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return ticketTransition(svc, logg, func(r *http.Request, id uuid.UUID) (*internaltickets.TicketDTO, error) {
		return svc.Resolve(r.Context(), id)
	})
}

// AdminClose closes a ticket permanently.
func AdminClose(svc *internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return ticketTransition(svc, logg, func(r *http.Request, id uuid.UUID) (*internaltickets.TicketDTO, error) {
		return svc.Close(r.Context(), id)
	})
}

type assignRequest struct {
	StaffUserID string `json:"staff_user_id" validate:"required,uuid4"`
}

// AdminAssign routes a ticket to a staff member.
func AdminAssign(svc *internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		ticketID, err := parseTicketID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body assignRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		staffID, err := uuid.Parse(body.StaffUserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid staff_user_id"))
			return
		}

		ticket, err := svc.Assign(r.Context(), ticketID, staffID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticket)
	}
}

type priorityRequest struct {
	Priority string `json:"priority" validate:"required"`
}

// AdminSetPriority changes a ticket's triage priority.
func AdminSetPriority(svc *internaltickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		ticketID, err := parseTicketID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body priorityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		priority, err := enums.ParseTicketPriority(body.Priority)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority"))
			return
		}

		ticket, err := svc.SetPriority(r.Context(), ticketID, priority)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticket)
	}
}

func ticketTransition(svc *internaltickets.Service, logg *logger.Logger, fn func(r *http.Request, id uuid.UUID) (*internaltickets.TicketDTO, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tickets service unavailable"))
			return
		}

		ticketID, err := parseTicketID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticket, err := fn(r, ticketID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticket)
	}
}

func parseTicketID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "ticketId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ticket id")
	}
	return parsed, nil
}

func buildListParams(r *http.Request) (internaltickets.ListParams, error) {
	var params internaltickets.ListParams

	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return params, err
	}
	params.Limit = limit
	params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseTicketStatus(raw)
		if err != nil {
			return params, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		params.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("priority")); raw != "" {
		priority, err := enums.ParseTicketPriority(raw)
		if err != nil {
			return params, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority")
		}
		params.Priority = &priority
	}
	return params, nil
}
