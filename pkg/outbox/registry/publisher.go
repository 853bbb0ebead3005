package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/calebmoran/printworks-backend/pkg/config"
	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	"github.com/calebmoran/printworks-backend/pkg/outbox"
	"github.com/calebmoran/printworks-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

// EventDescriptor links an event type to its aggregate, payload schema,
// and the topics it fans out to. Most events land on one domain topic;
// events a consumer in this repo reacts to carry a second topic so the
// notification and analytics workers get their own copy.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topics         []string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.OrdersTopic == "" {
		return nil, fmt.Errorf("orders topic is required")
	}
	if cfg.ArtworkTopic == "" {
		return nil, fmt.Errorf("artwork topic is required")
	}
	if cfg.BillingTopic == "" {
		return nil, fmt.Errorf("billing topic is required")
	}
	if cfg.NotificationTopic == "" {
		return nil, fmt.Errorf("notification topic is required")
	}
	if cfg.AnalyticsTopic == "" {
		return nil, fmt.Errorf("analytics topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}

	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventOrderPlaced,
			AggregateType:  enums.AggregateOrder,
			Topics:         []string{cfg.OrdersTopic, cfg.AnalyticsTopic},
			PayloadFactory: func() interface{} { return &payloads.OrderPlacedEvent{} },
		},
		{
			EventType:      enums.EventOrderStatusChanged,
			AggregateType:  enums.AggregateOrder,
			Topics:         []string{cfg.OrdersTopic, cfg.NotificationTopic},
			PayloadFactory: func() interface{} { return &payloads.OrderStatusChangedEvent{} },
		},
		{
			EventType:      enums.EventOrderCancelled,
			AggregateType:  enums.AggregateOrder,
			Topics:         []string{cfg.OrdersTopic, cfg.NotificationTopic},
			PayloadFactory: func() interface{} { return &payloads.OrderCancelledEvent{} },
		},
		{
			EventType:      enums.EventProofSubmitted,
			AggregateType:  enums.AggregateProof,
			Topics:         []string{cfg.ArtworkTopic, cfg.NotificationTopic},
			PayloadFactory: func() interface{} { return &payloads.ProofEvent{} },
		},
		{
			EventType:      enums.EventProofDecided,
			AggregateType:  enums.AggregateProof,
			Topics:         []string{cfg.ArtworkTopic, cfg.NotificationTopic},
			PayloadFactory: func() interface{} { return &payloads.ProofEvent{} },
		},
	} {
		reg.register(desc)
	}

	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventInvoiceIssued,
			AggregateType:  enums.AggregateInvoice,
			Topics:         []string{cfg.BillingTopic},
			PayloadFactory: func() interface{} { return &payloads.InvoiceIssuedEvent{} },
		},
		{
			EventType:      enums.EventInvoicePaymentPosted,
			AggregateType:  enums.AggregateInvoice,
			Topics:         []string{cfg.BillingTopic},
			PayloadFactory: func() interface{} { return &payloads.InvoicePaymentPostedEvent{} },
		},
		{
			EventType:      enums.EventInvoicePaid,
			AggregateType:  enums.AggregateInvoice,
			Topics:         []string{cfg.BillingTopic, cfg.AnalyticsTopic},
			PayloadFactory: func() interface{} { return &payloads.InvoicePaidEvent{} },
		},
		{
			EventType:      enums.EventInvoiceOverdue,
			AggregateType:  enums.AggregateInvoice,
			Topics:         []string{cfg.BillingTopic},
			PayloadFactory: func() interface{} { return &payloads.InvoiceOverdueEvent{} },
		},
		{
			EventType:      enums.EventInvoiceReminderDue,
			AggregateType:  enums.AggregateInvoice,
			Topics:         []string{cfg.BillingTopic, cfg.NotificationTopic},
			PayloadFactory: func() interface{} { return &payloads.InvoiceReminderDueEvent{} },
		},
		{
			EventType:      enums.EventPaymentSettled,
			AggregateType:  enums.AggregateCustomer,
			Topics:         []string{cfg.BillingTopic},
			PayloadFactory: func() interface{} { return &payloads.PaymentEvent{} },
		},
		{
			EventType:      enums.EventPaymentFailed,
			AggregateType:  enums.AggregateCustomer,
			Topics:         []string{cfg.BillingTopic},
			PayloadFactory: func() interface{} { return &payloads.PaymentEvent{} },
		},
	} {
		reg.register(desc)
	}

	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventTicketOpened,
			AggregateType:  enums.AggregateTicket,
			Topics:         []string{cfg.NotificationTopic},
			PayloadFactory: func() interface{} { return &payloads.TicketEvent{} },
		},
		{
			EventType:      enums.EventTicketReplied,
			AggregateType:  enums.AggregateTicket,
			Topics:         []string{cfg.NotificationTopic},
			PayloadFactory: func() interface{} { return &payloads.TicketEvent{} },
		},
		{
			EventType:      enums.EventProductViewed,
			AggregateType:  enums.AggregateAnalytics,
			Topics:         []string{cfg.AnalyticsTopic},
			PayloadFactory: func() interface{} { return &payloads.StorefrontEvent{} },
		},
		{
			EventType:      enums.EventQuoteRequested,
			AggregateType:  enums.AggregateAnalytics,
			Topics:         []string{cfg.AnalyticsTopic},
			PayloadFactory: func() interface{} { return &payloads.StorefrontEvent{} },
		},
	} {
		reg.register(desc)
	}

	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if payload == nil {
		return nil, NewNonRetryableError(fmt.Errorf("payload factory not configured for %s", event.EventType))
	}
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}
