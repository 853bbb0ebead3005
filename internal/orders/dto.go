package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/types"
)

// OrderDTO is the order payload returned to clients.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     int64               `json:"order_number"`
	CustomerID      uuid.UUID           `json:"customer_id"`
	Status          string              `json:"status"`
	Currency        string              `json:"currency"`
	ShippingAddress *types.Address      `json:"shipping_address,omitempty"`
	ShippingLine    *types.ShippingLine `json:"shipping_line,omitempty"`
	PaymentMethod   string              `json:"payment_method"`
	NetTerms        *string             `json:"net_terms,omitempty"`
	Subtotal        string              `json:"subtotal"`
	DiscountTotal   string              `json:"discount_total"`
	Tax             string              `json:"tax"`
	Shipping        string              `json:"shipping"`
	Total           string              `json:"total"`
	AppliedPromos   types.AppliedPromos `json:"applied_promos,omitempty"`
	InvoiceID       *uuid.UUID          `json:"invoice_id,omitempty"`
	Notes           *string             `json:"notes,omitempty"`
	Items           []OrderLineItemDTO  `json:"items"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
	ShippedAt       *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// OrderLineItemDTO is one snapshotted order line.
type OrderLineItemDTO struct {
	ID                uuid.UUID               `json:"id"`
	ProductID         *uuid.UUID              `json:"product_id,omitempty"`
	SKU               string                  `json:"sku"`
	Name              string                  `json:"name"`
	Category          string                  `json:"category"`
	Unit              string                  `json:"unit"`
	Quantity          int                     `json:"quantity"`
	BaseUnitPrice     string                  `json:"base_unit_price"`
	ResolvedUnitPrice string                  `json:"resolved_unit_price"`
	DiscountBreakdown types.DiscountBreakdown `json:"discount_breakdown,omitempty"`
	LineTotal         string                  `json:"line_total"`
	ProofRequired     bool                    `json:"proof_required"`
}

// NewOrderDTO builds a DTO from the persisted order.
func NewOrderDTO(order *models.Order) *OrderDTO {
	var terms *string
	if order.NetTerms != nil {
		value := order.NetTerms.String()
		terms = &value
	}
	dto := &OrderDTO{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID,
		Status:          order.Status.String(),
		Currency:        string(order.Currency),
		ShippingAddress: order.ShippingAddress,
		ShippingLine:    order.ShippingLine,
		PaymentMethod:   order.PaymentMethod.String(),
		NetTerms:        terms,
		Subtotal:        order.Subtotal.StringFixed(2),
		DiscountTotal:   order.DiscountTotal.StringFixed(2),
		Tax:             order.Tax.StringFixed(2),
		Shipping:        order.Shipping.StringFixed(2),
		Total:           order.Total.StringFixed(2),
		AppliedPromos:   order.AppliedPromos,
		InvoiceID:       order.InvoiceID,
		Notes:           order.Notes,
		Items:           make([]OrderLineItemDTO, 0, len(order.Items)),
		CancelledAt:     order.CancelledAt,
		ShippedAt:       order.ShippedAt,
		DeliveredAt:     order.DeliveredAt,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderLineItemDTO{
			ID:                item.ID,
			ProductID:         item.ProductID,
			SKU:               item.SKU,
			Name:              item.Name,
			Category:          item.Category.String(),
			Unit:              item.Unit.String(),
			Quantity:          item.Quantity,
			BaseUnitPrice:     item.BaseUnitPrice.String(),
			ResolvedUnitPrice: item.ResolvedUnitPrice.String(),
			DiscountBreakdown: item.DiscountBreakdown,
			LineTotal:         item.LineTotal.StringFixed(2),
			ProofRequired:     item.ProofRequired,
		})
	}
	return dto
}
