package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/pkg/db"
	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/pagination"
)

// Service exposes catalog management and read operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeactivateProduct(ctx context.Context, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	ListMaterials(ctx context.Context) ([]MaterialSpecDTO, error)
	CompareMaterials(ctx context.Context, ids []uuid.UUID) (*MaterialComparison, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	SKU                string
	Name               string
	Description        *string
	Category           enums.ProductCategory
	Material           enums.ProductMaterial
	Unit               enums.ProductUnit
	BasePrice          decimal.Decimal
	MOQ                int
	IsActive           bool
	ArtworkTemplateURL *string
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name               *string
	Description        *string
	Category           *enums.ProductCategory
	Material           *enums.ProductMaterial
	Unit               *enums.ProductUnit
	BasePrice          *decimal.Decimal
	MOQ                *int
	IsActive           *bool
	ArtworkTemplateURL *string
}

// ListProductsInput captures the inputs for the browse endpoint.
type ListProductsInput struct {
	Category        *enums.ProductCategory
	Material        *enums.ProductMaterial
	Search          string
	IncludeInactive bool
	Pagination      pagination.Params
}

// ProductListResult is one page of catalog products.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type service struct {
	repo *Repository
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func validateProductInput(input CreateProductInput) error {
	if strings.TrimSpace(input.SKU) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid category %q", input.Category))
	}
	if !input.Material.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid material %q", input.Material))
	}
	if !input.Unit.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid unit %q", input.Unit))
	}
	if !input.BasePrice.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "base_price must be positive")
	}
	if input.MOQ < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "moq must be at least 1")
	}
	return nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindProductBySKU(ctx, input.SKU); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("sku %q already exists", input.SKU))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check sku uniqueness")
	}

	product := &models.Product{
		SKU:                strings.TrimSpace(input.SKU),
		Name:               strings.TrimSpace(input.Name),
		Description:        input.Description,
		Category:           input.Category,
		Material:           input.Material,
		Unit:               input.Unit,
		BasePrice:          input.BasePrice,
		MOQ:                input.MOQ,
		IsActive:           input.IsActive,
		ArtworkTemplateURL: input.ArtworkTemplateURL,
	}
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		// The SKU pre-check can race a concurrent create; the unique
		// index is the authority.
		if db.IsUniqueViolation(err, "idx_products_sku") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("sku %q already exists", input.SKU))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return NewProductDTO(created), nil
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid category %q", *input.Category))
		}
		product.Category = *input.Category
	}
	if input.Material != nil {
		if !input.Material.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid material %q", *input.Material))
		}
		product.Material = *input.Material
	}
	if input.Unit != nil {
		if !input.Unit.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid unit %q", *input.Unit))
		}
		product.Unit = *input.Unit
	}
	if input.BasePrice != nil {
		if !input.BasePrice.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "base_price must be positive")
		}
		product.BasePrice = *input.BasePrice
	}
	if input.MOQ != nil {
		if *input.MOQ < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "moq must be at least 1")
		}
		product.MOQ = *input.MOQ
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.ArtworkTemplateURL != nil {
		product.ArtworkTemplateURL = input.ArtworkTemplateURL
	}

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return NewProductDTO(updated), nil
}

func (s *service) DeactivateProduct(ctx context.Context, productID uuid.UUID) error {
	if err := s.repo.DeactivateProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate product")
	}
	return nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return NewProductDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	products, next, err := s.repo.ListProducts(ctx, ProductListQuery{
		Category:        input.Category,
		Material:        input.Material,
		Search:          input.Search,
		IncludeInactive: input.IncludeInactive,
		Pagination:      input.Pagination,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	result := &ProductListResult{Products: make([]ProductDTO, 0, len(products))}
	for i := range products {
		result.Products = append(result.Products, *NewProductDTO(&products[i]))
	}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) ListMaterials(ctx context.Context) ([]MaterialSpecDTO, error) {
	specs, err := s.repo.ListMaterialSpecs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list material specs")
	}
	out := make([]MaterialSpecDTO, 0, len(specs))
	for i := range specs {
		out = append(out, NewMaterialSpecDTO(&specs[i]))
	}
	return out, nil
}
