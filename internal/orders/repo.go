package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	"github.com/calebmoran/printworks-backend/pkg/pagination"
)

// Repository handles order persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	Update(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByNumber(ctx context.Context, number int64) (*models.Order, error)
	ListByCustomer(ctx context.Context, params ListOrdersQuery) ([]models.Order, *pagination.Cursor, error)
	NextOrderNumber(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) Update(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Items").Save(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByNumber(ctx context.Context, number int64) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, "order_number = ?", number).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrdersQuery configures order list queries.
type ListOrdersQuery struct {
	CustomerID uuid.UUID
	Status     *enums.OrderStatus
	Limit      int
	Cursor     *pagination.Cursor
}

func (r *repository) ListByCustomer(ctx context.Context, params ListOrdersQuery) ([]models.Order, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Where("customer_id = ?", params.CustomerID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, nil, err
	}

	if len(orders) > limit {
		orders = orders[:limit]
		last := orders[len(orders)-1]
		return orders, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return orders, nil, nil
}

// NextOrderNumber allocates the next order number. The sequence row is
// locked for the duration of the surrounding transaction.
func (r *repository) NextOrderNumber(ctx context.Context) (int64, error) {
	var seq models.OrderSequence
	db := r.db.WithContext(ctx)

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.OrderSequence{ID: 1}).Error; err != nil {
		return 0, err
	}
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&seq, "id = ?", 1).Error; err != nil {
		return 0, err
	}

	seq.LastValue++
	if err := db.Save(&seq).Error; err != nil {
		return 0, err
	}
	return seq.LastValue, nil
}
