package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	"github.com/calebmoran/printworks-backend/pkg/pagination"
)

// Repository wires together catalog persistence for products and material specs.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct updates an existing product row.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindProductByID loads a product by primary key.
func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProductBySKU loads a product by its unique SKU.
func (r *Repository) FindProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProductsByIDs loads the given products in one query. Missing IDs are
// simply absent from the result; callers decide whether that is an error.
func (r *Repository) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ProductListQuery configures the catalog browse query.
type ProductListQuery struct {
	Category     *enums.ProductCategory
	Material     *enums.ProductMaterial
	Search       string
	IncludeInactive bool
	Pagination   pagination.Params
}

// ListProducts pages through catalog products newest first.
func (r *Repository) ListProducts(ctx context.Context, query ProductListQuery) ([]models.Product, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(query.Pagination.Limit)

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, nil, err
	}

	qb := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if !query.IncludeInactive {
		qb = qb.Where("is_active = ?", true)
	}
	if query.Category != nil {
		qb = qb.Where("category = ?", *query.Category)
	}
	if query.Material != nil {
		qb = qb.Where("material = ?", *query.Material)
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(name) LIKE ? OR LOWER(sku) LIKE ?)", pattern, pattern)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var products []models.Product
	if err := qb.Find(&products).Error; err != nil {
		return nil, nil, err
	}

	if len(products) > limit {
		products = products[:limit]
		last := products[len(products)-1]
		return products, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return products, nil, nil
}

// DeactivateProduct soft-retires a listing. Products referenced by orders
// are never deleted.
func (r *Repository) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": false, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpsertMaterialSpec creates or replaces the spec for a material.
func (r *Repository) UpsertMaterialSpec(ctx context.Context, spec *models.MaterialSpec) (*models.MaterialSpec, error) {
	if err := r.db.WithContext(ctx).Save(spec).Error; err != nil {
		return nil, err
	}
	return spec, nil
}

// FindMaterialSpecsByIDs loads material specs preserving no particular order.
func (r *Repository) FindMaterialSpecsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.MaterialSpec, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var specs []models.MaterialSpec
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&specs).Error; err != nil {
		return nil, err
	}
	return specs, nil
}

// FindMaterialSpec returns the spec for one material.
func (r *Repository) FindMaterialSpec(ctx context.Context, material enums.ProductMaterial) (*models.MaterialSpec, error) {
	var spec models.MaterialSpec
	if err := r.db.WithContext(ctx).First(&spec, "material = ?", material).Error; err != nil {
		return nil, err
	}
	return &spec, nil
}

// ListMaterialSpecs returns all known material specs.
func (r *Repository) ListMaterialSpecs(ctx context.Context) ([]models.MaterialSpec, error) {
	var specs []models.MaterialSpec
	if err := r.db.WithContext(ctx).Order("display_name ASC").Find(&specs).Error; err != nil {
		return nil, err
	}
	return specs, nil
}
