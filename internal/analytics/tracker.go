package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/outbox"
	"github.com/calebmoran/printworks-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Tracker records storefront activity through the outbox so the analytics
// consumer can land it in BigQuery.
type Tracker struct {
	client txRunner
	outbox outboxEmitter
}

// NewTracker builds a storefront activity tracker.
func NewTracker(client txRunner, emitter outboxEmitter) (*Tracker, error) {
	if client == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &Tracker{client: client, outbox: emitter}, nil
}

// TrackProductViewInput describes a storefront product page view.
type TrackProductViewInput struct {
	ProductID  uuid.UUID
	CustomerID *uuid.UUID
}

// TrackProductView emits a product_viewed event.
func (t *Tracker) TrackProductView(ctx context.Context, input TrackProductViewInput) error {
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	productID := input.ProductID
	return t.emit(ctx, enums.EventProductViewed, productID, payloads.StorefrontEvent{
		EventType:  enums.AnalyticsEventProductViewed,
		CustomerID: input.CustomerID,
		ProductID:  &productID,
		OccurredAt: time.Now().UTC(),
	})
}

// TrackQuoteRequestedInput describes a wholesale quote request.
type TrackQuoteRequestedInput struct {
	ProductID  uuid.UUID
	CustomerID *uuid.UUID
	Quantity   int
}

// TrackQuoteRequested emits a quote_requested event.
func (t *Tracker) TrackQuoteRequested(ctx context.Context, input TrackQuoteRequestedInput) error {
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	productID := input.ProductID
	return t.emit(ctx, enums.EventQuoteRequested, productID, payloads.StorefrontEvent{
		EventType:  enums.AnalyticsEventQuoteRequested,
		CustomerID: input.CustomerID,
		ProductID:  &productID,
		Quantity:   input.Quantity,
		OccurredAt: time.Now().UTC(),
	})
}

func (t *Tracker) emit(ctx context.Context, eventType enums.OutboxEventType, aggregateID uuid.UUID, data payloads.StorefrontEvent) error {
	return t.client.WithTx(ctx, func(tx *gorm.DB) error {
		return t.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateAnalytics,
			AggregateID:   aggregateID,
			Version:       1,
			Data:          data,
			OccurredAt:    data.OccurredAt,
		})
	})
}
