package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/calebmoran/printworks-backend/internal/analytics/types"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	"github.com/calebmoran/printworks-backend/pkg/logger"
	"github.com/calebmoran/printworks-backend/pkg/outbox"
	"github.com/calebmoran/printworks-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

func TestAnalyticsConsumerProcessesProductViewed(t *testing.T) {
	inserter := &fakeInserter{}
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			return nil
		},
	}
	consumer := mustConsumer(t, inserter, manager)

	productID := uuid.New()
	customerID := uuid.New()
	envelope := buildEnvelope(t, uuid.New(), payloads.StorefrontEvent{
		EventType:  enums.AnalyticsEventProductViewed,
		CustomerID: &customerID,
		ProductID:  &productID,
		OccurredAt: time.Now().UTC(),
	})

	if err := consumer.Process(context.Background(), enums.EventProductViewed, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if len(inserter.rows) != 1 {
		t.Fatalf("expected 1 row inserted, got %d", len(inserter.rows))
	}
	row, ok := inserter.rows[0].(*types.StorefrontEventRow)
	if !ok {
		t.Fatalf("expected StorefrontEventRow, got %T", inserter.rows[0])
	}
	if row.EventType != "product_viewed" {
		t.Fatalf("unexpected event type: %s", row.EventType)
	}
	if row.ProductID == nil || *row.ProductID != productID.String() {
		t.Fatalf("product id mismatch")
	}
	if row.CustomerID == nil || *row.CustomerID != customerID.String() {
		t.Fatalf("customer id mismatch")
	}
	if row.AmountCents != nil {
		t.Fatalf("amount should be nil for product views")
	}
	if !row.Payload.Valid {
		t.Fatalf("payload should be valid json")
	}
}

func TestAnalyticsConsumerQuoteRequestedKeepsQuantity(t *testing.T) {
	inserter := &fakeInserter{}
	consumer := mustConsumer(t, inserter, passthroughIdempotency())

	productID := uuid.New()
	envelope := buildEnvelope(t, uuid.New(), payloads.StorefrontEvent{
		EventType:  enums.AnalyticsEventQuoteRequested,
		ProductID:  &productID,
		Quantity:   2500,
		OccurredAt: time.Now().UTC(),
	})

	if err := consumer.Process(context.Background(), enums.EventQuoteRequested, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	row := inserter.rows[0].(*types.StorefrontEventRow)
	if row.EventType != "quote_requested" {
		t.Fatalf("unexpected event type: %s", row.EventType)
	}
	if row.Quantity == nil || *row.Quantity != 2500 {
		t.Fatalf("quantity mismatch: %v", row.Quantity)
	}
	if row.CustomerID != nil {
		t.Fatalf("anonymous quote should have nil customer id")
	}
}

func TestAnalyticsConsumerOrderPlacedCardOrderCarriesAmount(t *testing.T) {
	inserter := &fakeInserter{}
	consumer := mustConsumer(t, inserter, passthroughIdempotency())

	orderID := uuid.New()
	envelope := buildEnvelope(t, uuid.New(), payloads.OrderPlacedEvent{
		OrderID:     orderID,
		OrderNumber: 1042,
		CustomerID:  uuid.New(),
		Total:       "101.89",
	})

	if err := consumer.Process(context.Background(), enums.EventOrderPlaced, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	row := inserter.rows[0].(*types.StorefrontEventRow)
	if row.EventType != "order_placed" {
		t.Fatalf("unexpected event type: %s", row.EventType)
	}
	if row.AmountCents == nil || *row.AmountCents != 10189 {
		t.Fatalf("amount cents mismatch: %v", row.AmountCents)
	}
	if row.OrderID == nil || *row.OrderID != orderID.String() {
		t.Fatalf("order id mismatch")
	}
}

func TestAnalyticsConsumerNetTermsOrderDefersRevenue(t *testing.T) {
	inserter := &fakeInserter{}
	consumer := mustConsumer(t, inserter, passthroughIdempotency())

	terms := "net_30"
	envelope := buildEnvelope(t, uuid.New(), payloads.OrderPlacedEvent{
		OrderID:     uuid.New(),
		OrderNumber: 1043,
		CustomerID:  uuid.New(),
		Total:       "4200.00",
		NetTerms:    &terms,
	})

	if err := consumer.Process(context.Background(), enums.EventOrderPlaced, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	row := inserter.rows[0].(*types.StorefrontEventRow)
	if row.AmountCents != nil {
		t.Fatalf("net-terms order should not carry revenue at placement")
	}
}

func TestAnalyticsConsumerInvoicePaidRecordsRevenue(t *testing.T) {
	inserter := &fakeInserter{}
	consumer := mustConsumer(t, inserter, passthroughIdempotency())

	orderID := uuid.New()
	envelope := buildEnvelope(t, uuid.New(), payloads.InvoicePaidEvent{
		InvoiceID:     uuid.New(),
		InvoiceNumber: "INV-2026-00017",
		CustomerID:    uuid.New(),
		OrderID:       &orderID,
		Total:         "4200.00",
		PaidAt:        time.Now().UTC(),
	})

	if err := consumer.Process(context.Background(), enums.EventInvoicePaid, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	row := inserter.rows[0].(*types.StorefrontEventRow)
	if row.EventType != "invoice_paid" {
		t.Fatalf("unexpected event type: %s", row.EventType)
	}
	if row.AmountCents == nil || *row.AmountCents != 420000 {
		t.Fatalf("amount cents mismatch: %v", row.AmountCents)
	}
}

func TestAnalyticsConsumerSkipsUnhandledEvents(t *testing.T) {
	inserter := &fakeInserter{}
	consumer := mustConsumer(t, inserter, passthroughIdempotency())

	envelope := buildEnvelope(t, uuid.New(), map[string]any{})
	if err := consumer.Process(context.Background(), enums.EventTicketOpened, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(inserter.rows) != 0 {
		t.Fatalf("expected no rows for unhandled event")
	}
}

func TestAnalyticsConsumerIsIdempotent(t *testing.T) {
	inserter := &fakeInserter{}
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return true, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			return nil
		},
	}
	consumer := mustConsumer(t, inserter, manager)

	envelope := buildEnvelope(t, uuid.New(), payloads.StorefrontEvent{
		EventType:  enums.AnalyticsEventProductViewed,
		OccurredAt: time.Now().UTC(),
	})
	if err := consumer.Process(context.Background(), enums.EventProductViewed, envelope); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(inserter.rows) != 0 {
		t.Fatalf("expected no rows inserted when idempotent")
	}
}

func TestAnalyticsConsumerDeletesOnInsertFailure(t *testing.T) {
	inserter := &fakeInserter{err: errors.New("bigquery down")}
	deleted := false
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	consumer := mustConsumer(t, inserter, manager)

	productID := uuid.New()
	envelope := buildEnvelope(t, uuid.New(), payloads.StorefrontEvent{
		EventType:  enums.AnalyticsEventProductViewed,
		ProductID:  &productID,
		OccurredAt: time.Now().UTC(),
	})
	if err := consumer.Process(context.Background(), enums.EventProductViewed, envelope); err == nil {
		t.Fatalf("expected error when insert fails")
	}
	if !deleted {
		t.Fatalf("expected idempotency key deletion on failure")
	}
}

func TestAnalyticsConsumerDeletesOnPayloadDecodeFailure(t *testing.T) {
	inserter := &fakeInserter{}
	deleted := false
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	consumer := mustConsumer(t, inserter, manager)

	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       []byte("{invalid json"),
	}
	if err := consumer.Process(context.Background(), enums.EventOrderPlaced, envelope); err == nil {
		t.Fatalf("expected error for bad payload")
	}
	if !deleted {
		t.Fatalf("expected idempotency key deletion on payload error")
	}
	if len(inserter.rows) != 0 {
		t.Fatalf("expected no rows inserted on payload failure")
	}
}

type fakeInserter struct {
	rows []any
	err  error
}

func (f *fakeInserter) InsertRows(ctx context.Context, table string, rows []any) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, rows...)
	return f.err
}

type fakeIdempotency struct {
	check    func(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	deleteFn func(ctx context.Context, consumer string, eventID uuid.UUID) error
}

func (f fakeIdempotency) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	return f.check(ctx, consumer, eventID)
}

func (f fakeIdempotency) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	return f.deleteFn(ctx, consumer, eventID)
}

func passthroughIdempotency() fakeIdempotency {
	return fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			return nil
		},
	}
}

func mustConsumer(t *testing.T, inserter *fakeInserter, manager fakeIdempotency) *Consumer {
	t.Helper()
	consumer, err := NewConsumer(inserter, "storefront_events", manager, logger.New(logger.Options{
		ServiceName: "analytics-test",
		Level:       logger.ParseLevel("debug"),
		Output:      io.Discard,
	}))
	if err != nil {
		t.Fatalf("failed to build consumer: %v", err)
	}
	return consumer
}

func buildEnvelope(t *testing.T, eventID uuid.UUID, payload any) outbox.PayloadEnvelope {
	t.Helper()
	bytes, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: time.Now(),
		Data:       bytes,
	}
}
