package tickets

import (
	"time"

	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
)

// TicketDTO is the ticket payload returned to clients.
type TicketDTO struct {
	ID         uuid.UUID          `json:"id"`
	CustomerID uuid.UUID          `json:"customer_id"`
	OrderID    *uuid.UUID         `json:"order_id,omitempty"`
	Subject    string             `json:"subject"`
	Status     string             `json:"status"`
	Priority   string             `json:"priority"`
	AssignedTo *uuid.UUID         `json:"assigned_to,omitempty"`
	Messages   []TicketMessageDTO `json:"messages,omitempty"`
	ResolvedAt *time.Time         `json:"resolved_at,omitempty"`
	ClosedAt   *time.Time         `json:"closed_at,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// TicketMessageDTO is one entry in a ticket thread.
type TicketMessageDTO struct {
	ID           uuid.UUID `json:"id"`
	AuthorUserID uuid.UUID `json:"author_user_id"`
	Body         string    `json:"body"`
	Internal     bool      `json:"internal"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewTicketDTO builds a DTO from the persisted ticket. Internal notes
// are stripped unless includeInternal is set.
func NewTicketDTO(ticket *models.Ticket, includeInternal bool) *TicketDTO {
	messages := make([]TicketMessageDTO, 0, len(ticket.Messages))
	for _, msg := range ticket.Messages {
		if msg.Internal && !includeInternal {
			continue
		}
		messages = append(messages, TicketMessageDTO{
			ID:           msg.ID,
			AuthorUserID: msg.AuthorUserID,
			Body:         msg.Body,
			Internal:     msg.Internal,
			CreatedAt:    msg.CreatedAt,
		})
	}
	return &TicketDTO{
		ID:         ticket.ID,
		CustomerID: ticket.CustomerID,
		OrderID:    ticket.OrderID,
		Subject:    ticket.Subject,
		Status:     ticket.Status.String(),
		Priority:   ticket.Priority.String(),
		AssignedTo: ticket.AssignedTo,
		Messages:   messages,
		ResolvedAt: ticket.ResolvedAt,
		ClosedAt:   ticket.ClosedAt,
		CreatedAt:  ticket.CreatedAt,
		UpdatedAt:  ticket.UpdatedAt,
	}
}
