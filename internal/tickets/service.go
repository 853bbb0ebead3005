package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/outbox"
	"github.com/calebmoran/printworks-backend/pkg/outbox/payloads"
	"github.com/calebmoran/printworks-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service runs support ticket threads. Customers open and reply,
// staff triage, respond, and resolve.
type Service struct {
	repo   Repository
	client txRunner
	outbox outboxEmitter
}

// NewService builds a tickets service. The emitter may be nil.
func NewService(repo Repository, client txRunner, emitter outboxEmitter) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ticket repository required")
	}
	if client == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &Service{repo: repo, client: client, outbox: emitter}, nil
}

// OpenInput opens a new ticket with its first message.
type OpenInput struct {
	CustomerID   uuid.UUID
	OrderID      *uuid.UUID
	Subject      string
	Body         string
	Priority     enums.TicketPriority
	AuthorUserID uuid.UUID
}

// Open creates a ticket thread. The first message is written in the
// same transaction as the ticket itself.
func (s *Service) Open(ctx context.Context, input OpenInput) (*TicketDTO, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if input.AuthorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "author user id is required")
	}
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject is required")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}
	priority := input.Priority
	if priority == "" {
		priority = enums.TicketPriorityNormal
	}
	if !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid ticket priority")
	}

	var dto *TicketDTO
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		ticket := &models.Ticket{
			ID:         uuid.New(),
			CustomerID: input.CustomerID,
			OrderID:    input.OrderID,
			Subject:    subject,
			Status:     enums.TicketStatusOpen,
			Priority:   priority,
		}
		if err := repo.Create(ctx, ticket); err != nil {
			return fmt.Errorf("create ticket: %w", err)
		}

		message := &models.TicketMessage{
			TicketID:     ticket.ID,
			AuthorUserID: input.AuthorUserID,
			Body:         body,
		}
		if err := repo.CreateMessage(ctx, message); err != nil {
			return fmt.Errorf("create message: %w", err)
		}

		if err := s.emit(ctx, tx, enums.EventTicketOpened, ticket); err != nil {
			return err
		}

		ticket.Messages = append(ticket.Messages, *message)
		dto = NewTicketDTO(ticket, true)
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open ticket")
	}
	return dto, nil
}

// ReplyInput appends a message to a ticket thread.
type ReplyInput struct {
	TicketID     uuid.UUID
	AuthorUserID uuid.UUID
	Body         string
	Internal     bool
	Staff        bool
}

// Reply appends a message. A staff reply moves the ticket to pending
// (waiting on the customer); a customer reply reopens it. Internal
// notes require a staff author and leave the status alone.
func (s *Service) Reply(ctx context.Context, input ReplyInput) (*TicketDTO, error) {
	if input.TicketID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket id is required")
	}
	if input.AuthorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "author user id is required")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}
	if input.Internal && !input.Staff {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "internal notes are staff only")
	}

	var dto *TicketDTO
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		ticket, err := repo.FindByID(ctx, input.TicketID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
			}
			return fmt.Errorf("load ticket: %w", err)
		}
		if ticket.Status == enums.TicketStatusClosed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "ticket is closed")
		}

		message := &models.TicketMessage{
			TicketID:     ticket.ID,
			AuthorUserID: input.AuthorUserID,
			Body:         body,
			Internal:     input.Internal,
		}
		if err := repo.CreateMessage(ctx, message); err != nil {
			return fmt.Errorf("create message: %w", err)
		}

		if !input.Internal {
			if input.Staff {
				ticket.Status = enums.TicketStatusPending
			} else {
				ticket.Status = enums.TicketStatusOpen
				ticket.ResolvedAt = nil
			}
			if err := repo.Update(ctx, ticket); err != nil {
				return fmt.Errorf("update ticket: %w", err)
			}
			if err := s.emit(ctx, tx, enums.EventTicketReplied, ticket); err != nil {
				return err
			}
		}

		ticket.Messages = append(ticket.Messages, *message)
		dto = NewTicketDTO(ticket, input.Staff)
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reply to ticket")
	}
	return dto, nil
}

// Resolve marks the ticket resolved. Resolving twice is a no-op; the
// customer can still reopen it by replying.
func (s *Service) Resolve(ctx context.Context, ticketID uuid.UUID) (*TicketDTO, error) {
	return s.transition(ctx, ticketID, enums.TicketStatusResolved)
}

// Close closes the ticket permanently. Closed tickets reject replies.
func (s *Service) Close(ctx context.Context, ticketID uuid.UUID) (*TicketDTO, error) {
	return s.transition(ctx, ticketID, enums.TicketStatusClosed)
}

func (s *Service) transition(ctx context.Context, ticketID uuid.UUID, target enums.TicketStatus) (*TicketDTO, error) {
	if ticketID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket id is required")
	}

	var dto *TicketDTO
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		ticket, err := repo.FindByID(ctx, ticketID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
			}
			return fmt.Errorf("load ticket: %w", err)
		}
		if ticket.Status == target {
			dto = NewTicketDTO(ticket, true)
			return nil
		}
		if ticket.Status == enums.TicketStatusClosed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "ticket is closed")
		}

		now := time.Now().UTC()
		ticket.Status = target
		switch target {
		case enums.TicketStatusResolved:
			ticket.ResolvedAt = &now
		case enums.TicketStatusClosed:
			ticket.ClosedAt = &now
		}
		if err := repo.Update(ctx, ticket); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}

		dto = NewTicketDTO(ticket, true)
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ticket status")
	}
	return dto, nil
}

// Assign routes the ticket to a staff member.
func (s *Service) Assign(ctx context.Context, ticketID, staffUserID uuid.UUID) (*TicketDTO, error) {
	if staffUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "staff user id is required")
	}
	return s.modify(ctx, ticketID, func(ticket *models.Ticket) {
		ticket.AssignedTo = &staffUserID
	})
}

// SetPriority reorders the ticket in the support queue.
func (s *Service) SetPriority(ctx context.Context, ticketID uuid.UUID, priority enums.TicketPriority) (*TicketDTO, error) {
	if !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid ticket priority")
	}
	return s.modify(ctx, ticketID, func(ticket *models.Ticket) {
		ticket.Priority = priority
	})
}

func (s *Service) modify(ctx context.Context, ticketID uuid.UUID, apply func(*models.Ticket)) (*TicketDTO, error) {
	if ticketID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket id is required")
	}

	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket")
	}
	if ticket.Status == enums.TicketStatusClosed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ticket is closed")
	}

	apply(ticket)
	if err := s.repo.Update(ctx, ticket); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ticket")
	}
	return NewTicketDTO(ticket, true), nil
}

// GetByID loads a ticket thread. Internal notes are stripped for
// non-staff callers.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID, includeInternal bool) (*TicketDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket id is required")
	}
	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket")
	}
	return NewTicketDTO(ticket, includeInternal), nil
}

// ListParams filters the ticket queue.
type ListParams struct {
	CustomerID *uuid.UUID
	Status     *enums.TicketStatus
	Priority   *enums.TicketPriority
	AssignedTo *uuid.UUID
	Limit      int
	Cursor     string
}

func (s *Service) List(ctx context.Context, params ListParams) ([]TicketDTO, string, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid ticket status")
	}
	if params.Priority != nil && !params.Priority.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid ticket priority")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	tickets, next, err := s.repo.List(ctx, ListTicketsQuery{
		CustomerID: params.CustomerID,
		Status:     params.Status,
		Priority:   params.Priority,
		AssignedTo: params.AssignedTo,
		Limit:      params.Limit,
		Cursor:     cursor,
	})
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tickets")
	}

	result := make([]TicketDTO, 0, len(tickets))
	for i := range tickets {
		result = append(result, *NewTicketDTO(&tickets[i], true))
	}
	nextCursor := ""
	if next != nil {
		nextCursor = pagination.EncodeCursor(*next)
	}
	return result, nextCursor, nil
}

func (s *Service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, ticket *models.Ticket) error {
	if s.outbox == nil {
		return nil
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateTicket,
		AggregateID:   ticket.ID,
		Version:       1,
		Data: payloads.TicketEvent{
			TicketID:   ticket.ID,
			CustomerID: ticket.CustomerID,
			Status:     ticket.Status,
			Subject:    ticket.Subject,
		},
	}); err != nil {
		return fmt.Errorf("emit ticket event: %w", err)
	}
	return nil
}
