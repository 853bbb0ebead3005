package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/internal/analytics/types"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	"github.com/calebmoran/printworks-backend/pkg/logger"
	"github.com/calebmoran/printworks-backend/pkg/outbox"
	"github.com/calebmoran/printworks-backend/pkg/outbox/payloads"
)

const analyticsConsumerName = "analytics"

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer writes storefront events to BigQuery while honoring Redis idempotency.
type Consumer struct {
	client      tableInserter
	table       string
	manager     idempotencyChecker
	logg        *logger.Logger
	eventFilter map[enums.OutboxEventType]struct{}
}

// NewConsumer builds a new analytics consumer.
func NewConsumer(client tableInserter, table string, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("bigquery table name required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		client:  client,
		table:   strings.TrimSpace(table),
		manager: manager,
		logg:    logg,
		eventFilter: map[enums.OutboxEventType]struct{}{
			enums.EventProductViewed:  {},
			enums.EventQuoteRequested: {},
			enums.EventOrderPlaced:    {},
			enums.EventInvoicePaid:    {},
		},
	}, nil
}

// Process ingests the outbox envelope into BigQuery if the event is supported.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if _, ok := c.eventFilter[eventType]; !ok {
		c.logg.Info(logCtx, "event not handled by analytics consumer")
		return nil
	}

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, analyticsConsumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	row, err := buildRow(eventType, envelope)
	if err != nil {
		c.logg.Error(logCtx, "failed to build storefront row", err)
		_ = c.manager.Delete(ctx, analyticsConsumerName, eventID)
		return err
	}

	if err := c.client.InsertRows(ctx, c.table, []any{row}); err != nil {
		c.logg.Error(logCtx, "failed to insert storefront row", err)
		_ = c.manager.Delete(ctx, analyticsConsumerName, eventID)
		return err
	}

	c.logg.Info(logCtx, "storefront event ingested")
	return nil
}

func buildRow(eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) (*types.StorefrontEventRow, error) {
	row := &types.StorefrontEventRow{
		EventID:    envelope.EventID,
		OccurredAt: envelope.OccurredAt,
	}
	if len(envelope.Data) > 0 {
		row.Payload = cbigquery.NullJSON{Valid: true, JSONVal: string(envelope.Data)}
	}

	switch eventType {
	case enums.EventProductViewed, enums.EventQuoteRequested:
		var payload payloads.StorefrontEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return nil, fmt.Errorf("decode storefront payload: %w", err)
		}
		row.EventType = string(payload.EventType)
		if row.EventType == "" {
			row.EventType = string(eventType)
		}
		row.CustomerID = uuidString(payload.CustomerID)
		row.ProductID = uuidString(payload.ProductID)
		row.OrderID = uuidString(payload.OrderID)
		if payload.Quantity > 0 {
			quantity := int64(payload.Quantity)
			row.Quantity = &quantity
		}
	case enums.EventOrderPlaced:
		var payload payloads.OrderPlacedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return nil, fmt.Errorf("decode order payload: %w", err)
		}
		row.EventType = string(enums.AnalyticsEventOrderPlaced)
		row.CustomerID = uuidString(&payload.CustomerID)
		row.OrderID = uuidString(&payload.OrderID)
		// Net-terms orders are counted as revenue when the invoice settles,
		// not at placement.
		if payload.NetTerms == nil {
			cents, err := amountToCents(payload.Total)
			if err != nil {
				return nil, err
			}
			row.AmountCents = &cents
		}
	case enums.EventInvoicePaid:
		var payload payloads.InvoicePaidEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return nil, fmt.Errorf("decode invoice payload: %w", err)
		}
		row.EventType = string(enums.AnalyticsEventInvoicePaid)
		row.CustomerID = uuidString(&payload.CustomerID)
		row.OrderID = uuidString(payload.OrderID)
		cents, err := amountToCents(payload.Total)
		if err != nil {
			return nil, err
		}
		row.AmountCents = &cents
	default:
		return nil, fmt.Errorf("unsupported event type %q", eventType)
	}

	return row, nil
}

func uuidString(id *uuid.UUID) *string {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	str := id.String()
	return &str
}

func amountToCents(amount string) (int64, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return value.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}
