package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	"github.com/calebmoran/printworks-backend/pkg/pagination"
)

// Repository handles invoice persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invoice *models.Invoice) error
	Update(ctx context.Context, invoice *models.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	FindByNumber(ctx context.Context, number string) (*models.Invoice, error)
	ListByCustomer(ctx context.Context, params ListInvoicesQuery) ([]models.Invoice, *pagination.Cursor, error)
	ListUnpaidPastDue(ctx context.Context, now time.Time, limit int) ([]models.Invoice, error)
	AppendPayment(ctx context.Context, payment *models.Payment) error
	NextInvoiceNumber(ctx context.Context, issuedAt time.Time) (string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an invoice repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repository) Update(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Save(invoice).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).
		Preload("LineItems").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("received_at ASC, created_at ASC")
		}).
		First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) FindByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).
		Preload("LineItems").
		Preload("Payments").
		First(&invoice, "invoice_number = ?", number).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ListInvoicesQuery configures invoice list queries.
type ListInvoicesQuery struct {
	CustomerID uuid.UUID
	Status     *enums.InvoiceStatus
	Limit      int
	Cursor     *pagination.Cursor
}

func (r *repository) ListByCustomer(ctx context.Context, params ListInvoicesQuery) ([]models.Invoice, *pagination.Cursor, error) {
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

	var invoices []models.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		return nil, nil, err
	}

	if len(invoices) > limit {
		invoices = invoices[:limit]
		last := invoices[len(invoices)-1]
		return invoices, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return invoices, nil, nil
}

// ListUnpaidPastDue returns unpaid, uncancelled invoices whose due date
// has passed, oldest due first. The reminder cron walks this list.
func (r *repository) ListUnpaidPastDue(ctx context.Context, now time.Time, limit int) ([]models.Invoice, error) {
	if limit <= 0 {
		limit = 250
	}
	var invoices []models.Invoice
	if err := r.db.WithContext(ctx).
		Where("due_date < ?", now).
		Where("status NOT IN ?", []enums.InvoiceStatus{
			enums.InvoiceStatusPaid,
			enums.InvoiceStatusCancelled,
			enums.InvoiceStatusDraft,
		}).
		Where("amount_remaining > 0").
		Order("due_date ASC").
		Limit(limit).
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repository) AppendPayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// NextInvoiceNumber allocates the next INV-YYYYMM-NNNN number for the
// issue month. The per-month sequence row is locked for the duration of
// the surrounding transaction.
func (r *repository) NextInvoiceNumber(ctx context.Context, issuedAt time.Time) (string, error) {
	yearMonth := issuedAt.UTC().Format("200601")

	var seq models.InvoiceSequence
	db := r.db.WithContext(ctx)

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.InvoiceSequence{YearMonth: yearMonth}).Error; err != nil {
		return "", err
	}
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&seq, "year_month = ?", yearMonth).Error; err != nil {
		return "", err
	}

	seq.LastValue++
	if err := db.Save(&seq).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%s-%04d", yearMonth, seq.LastValue), nil
}
