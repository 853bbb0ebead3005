package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/pkg/enums"
)

// Ticket is a customer support thread, optionally tied to an order.
type Ticket struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index"`
	OrderID    *uuid.UUID           `gorm:"column:order_id;type:uuid"`
	Subject    string               `gorm:"column:subject;not null"`
	Status     enums.TicketStatus   `gorm:"column:status;type:ticket_status;not null;default:'open'"`
	Priority   enums.TicketPriority `gorm:"column:priority;type:ticket_priority;not null;default:'normal'"`
	AssignedTo *uuid.UUID           `gorm:"column:assigned_to;type:uuid"`
	Messages   []TicketMessage      `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE"`
	ResolvedAt *time.Time           `gorm:"column:resolved_at"`
	ClosedAt   *time.Time           `gorm:"column:closed_at"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// TicketMessage is one entry in a ticket thread. Internal messages are
// visible to staff only.
type TicketMessage struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TicketID     uuid.UUID `gorm:"column:ticket_id;type:uuid;not null;index"`
	AuthorUserID uuid.UUID `gorm:"column:author_user_id;type:uuid;not null"`
	Body         string    `gorm:"column:body;not null"`
	Internal     bool      `gorm:"column:internal;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
