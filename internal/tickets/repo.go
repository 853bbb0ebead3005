package tickets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	"github.com/calebmoran/printworks-backend/pkg/pagination"
)

// Repository handles ticket persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ticket *models.Ticket) error
	Update(ctx context.Context, ticket *models.Ticket) error
	CreateMessage(ctx context.Context, message *models.TicketMessage) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	List(ctx context.Context, params ListTicketsQuery) ([]models.Ticket, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ticket repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *repository) Update(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Omit("Messages").Save(ticket).Error
}

func (r *repository) CreateMessage(ctx context.Context, message *models.TicketMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&ticket, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ListTicketsQuery configures ticket list queries. Nil filters match all.
type ListTicketsQuery struct {
	CustomerID *uuid.UUID
	Status     *enums.TicketStatus
	Priority   *enums.TicketPriority
	AssignedTo *uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
}

func (r *repository) List(ctx context.Context, params ListTicketsQuery) ([]models.Ticket, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Priority != nil {
		query = query.Where("priority = ?", *params.Priority)
	}
	if params.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *params.AssignedTo)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var tickets []models.Ticket
	if err := query.Find(&tickets).Error; err != nil {
		return nil, nil, err
	}

	if len(tickets) > limit {
		tickets = tickets[:limit]
		last := tickets[len(tickets)-1]
		return tickets, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return tickets, nil, nil
}
