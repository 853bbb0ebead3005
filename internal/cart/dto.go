package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/types"
)

// CartDTO is the quoted cart payload returned to clients.
type CartDTO struct {
	ID              uuid.UUID           `json:"id"`
	CustomerID      uuid.UUID           `json:"customer_id"`
	Status          string              `json:"status"`
	ShippingMethod  string              `json:"shipping_method"`
	ShippingAddress *types.Address      `json:"shipping_address,omitempty"`
	PromoCode       *string             `json:"promo_code,omitempty"`
	Currency        string              `json:"currency"`
	ValidUntil      time.Time           `json:"valid_until"`
	Subtotal        string              `json:"subtotal"`
	DiscountTotal   string              `json:"discount_total"`
	EstimatedTax    string              `json:"estimated_tax"`
	ShippingLine    *types.ShippingLine `json:"shipping_line,omitempty"`
	Total           string              `json:"total"`
	Items           []CartItemDTO       `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// CartItemDTO is one quoted line.
type CartItemDTO struct {
	ID                uuid.UUID               `json:"id"`
	ProductID         uuid.UUID               `json:"product_id"`
	Quantity          int                     `json:"quantity"`
	MOQ               int                     `json:"moq"`
	BaseUnitPrice     string                  `json:"base_unit_price"`
	ResolvedUnitPrice string                  `json:"resolved_unit_price"`
	DiscountBreakdown types.DiscountBreakdown `json:"discount_breakdown,omitempty"`
	Warnings          types.CartItemWarnings  `json:"warnings,omitempty"`
	LineSubtotal      string                  `json:"line_subtotal"`
	Status            string                  `json:"status"`
}

// NewCartDTO builds a DTO from the persisted record.
func NewCartDTO(record *models.CartRecord) *CartDTO {
	dto := &CartDTO{
		ID:              record.ID,
		CustomerID:      record.CustomerID,
		Status:          record.Status.String(),
		ShippingMethod:  record.ShippingMethod.String(),
		ShippingAddress: record.ShippingAddress,
		PromoCode:       record.PromoCode,
		Currency:        string(record.Currency),
		ValidUntil:      record.ValidUntil,
		Subtotal:        record.Subtotal.StringFixed(2),
		DiscountTotal:   record.DiscountTotal.StringFixed(2),
		EstimatedTax:    record.EstimatedTax.StringFixed(2),
		ShippingLine:    record.ShippingLine,
		Total:           record.Total.StringFixed(2),
		Items:           make([]CartItemDTO, 0, len(record.Items)),
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	}
	for _, item := range record.Items {
		dto.Items = append(dto.Items, CartItemDTO{
			ID:                item.ID,
			ProductID:         item.ProductID,
			Quantity:          item.Quantity,
			MOQ:               item.MOQ,
			BaseUnitPrice:     item.BaseUnitPrice.String(),
			ResolvedUnitPrice: item.ResolvedUnitPrice.String(),
			DiscountBreakdown: item.DiscountBreakdown,
			Warnings:          item.Warnings,
			LineSubtotal:      item.LineSubtotal.StringFixed(2),
			Status:            item.Status.String(),
		})
	}
	return dto
}
