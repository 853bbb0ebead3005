package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
)

// ProductDTO represents the catalog product payload returned to clients.
type ProductDTO struct {
	ID                 uuid.UUID `json:"id"`
	SKU                string    `json:"sku"`
	Name               string    `json:"name"`
	Description        *string   `json:"description,omitempty"`
	Category           string    `json:"category"`
	Material           string    `json:"material"`
	Unit               string    `json:"unit"`
	BasePrice          string    `json:"base_price"`
	MOQ                int       `json:"moq"`
	IsActive           bool      `json:"is_active"`
	ArtworkTemplateURL *string   `json:"artwork_template_url,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// MaterialSpecDTO surfaces the printable properties of a material.
type MaterialSpecDTO struct {
	ID               uuid.UUID `json:"id"`
	Material         string    `json:"material"`
	DisplayName      string    `json:"display_name"`
	Description      *string   `json:"description,omitempty"`
	DurabilityYears  int       `json:"durability_years"`
	Waterproof       bool      `json:"waterproof"`
	OutdoorSafe      bool      `json:"outdoor_safe"`
	FinishOptions    []string  `json:"finish_options"`
	PricePerSquareFt string    `json:"price_per_square_ft"`
	MinDPI           int       `json:"min_dpi"`
}

// MaterialComparison pairs the requested specs with derived highlights.
type MaterialComparison struct {
	Materials      []MaterialSpecDTO `json:"materials"`
	MostDurable    string            `json:"most_durable"`
	CheapestPerSqFt string           `json:"cheapest_per_sq_ft"`
	AllOutdoorSafe bool              `json:"all_outdoor_safe"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:                 product.ID,
		SKU:                product.SKU,
		Name:               product.Name,
		Description:        product.Description,
		Category:           product.Category.String(),
		Material:           product.Material.String(),
		Unit:               product.Unit.String(),
		BasePrice:          product.BasePrice.String(),
		MOQ:                product.MOQ,
		IsActive:           product.IsActive,
		ArtworkTemplateURL: product.ArtworkTemplateURL,
		CreatedAt:          product.CreatedAt,
		UpdatedAt:          product.UpdatedAt,
	}
}

// NewMaterialSpecDTO builds a DTO from the persisted spec.
func NewMaterialSpecDTO(spec *models.MaterialSpec) MaterialSpecDTO {
	return MaterialSpecDTO{
		ID:               spec.ID,
		Material:         spec.Material.String(),
		DisplayName:      spec.DisplayName,
		Description:      spec.Description,
		DurabilityYears:  spec.DurabilityYears,
		Waterproof:       spec.Waterproof,
		OutdoorSafe:      spec.OutdoorSafe,
		FinishOptions:    append([]string{}, spec.FinishOptions...),
		PricePerSquareFt: spec.PricePerSquareFt.String(),
		MinDPI:           spec.MinDPI,
	}
}
