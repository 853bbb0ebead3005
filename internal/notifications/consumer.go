package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	"github.com/calebmoran/printworks-backend/pkg/logger"
	"github.com/calebmoran/printworks-backend/pkg/outbox"
	"github.com/calebmoran/printworks-backend/pkg/outbox/idempotency"
	"github.com/calebmoran/printworks-backend/pkg/outbox/payloads"
)

const notificationConsumer = "customer-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches domain events and turns order, invoice, proof, and
// ticket activity into in-app notifications.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds the customer notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	})

	builder, handled := builders[eventType]
	if !handled {
		c.logg.Info(logCtx, "event has no notification mapping")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, notificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	notification, err := builder(envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to build notification", err)
		_ = c.idempotency.Delete(ctx, notificationConsumer, eventID)
		return processResult{nack: true}
	}
	if notification == nil {
		c.logg.Info(logCtx, "event requires no notification")
		return processResult{ack: true}
	}

	if err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "failed to store notification", err)
		_ = c.idempotency.Delete(ctx, notificationConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(c.logg.WithFields(logCtx, map[string]any{
		"customer_id": notification.CustomerID.String(),
		"type":        notification.Type.String(),
	}), "notification created")
	return processResult{ack: true}
}

type notificationBuilder func(data json.RawMessage) (*models.Notification, error)

var builders = map[enums.OutboxEventType]notificationBuilder{
	enums.EventOrderStatusChanged: buildOrderStatusNotification,
	enums.EventOrderCancelled:     buildOrderCancelledNotification,
	enums.EventInvoiceReminderDue: buildInvoiceReminderNotification,
	enums.EventProofSubmitted:     buildProofNotification,
	enums.EventProofDecided:       buildProofNotification,
	enums.EventTicketOpened:       buildTicketNotification,
	enums.EventTicketReplied:      buildTicketNotification,
}

func buildOrderStatusNotification(data json.RawMessage) (*models.Notification, error) {
	var payload payloads.OrderStatusChangedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.CustomerID == uuid.Nil {
		return nil, fmt.Errorf("customer id missing")
	}
	var message string
	switch payload.To {
	case enums.OrderStatusInProduction:
		message = "Your order has entered production."
	case enums.OrderStatusShipped:
		message = "Your order has shipped."
	case enums.OrderStatusDelivered:
		message = "Your order has been delivered."
	default:
		message = fmt.Sprintf("Your order moved to %s.", payload.To)
	}
	return &models.Notification{
		CustomerID: payload.CustomerID,
		Type:       enums.NotificationTypeOrderAlert,
		Title:      "Order update",
		Message:    message,
		Link:       stringPtr(fmt.Sprintf("/orders/%s", payload.OrderID)),
	}, nil
}

func buildOrderCancelledNotification(data json.RawMessage) (*models.Notification, error) {
	var payload payloads.OrderCancelledEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.CustomerID == uuid.Nil {
		return nil, fmt.Errorf("customer id missing")
	}
	message := "Your order was cancelled."
	if payload.Reason != "" {
		message = fmt.Sprintf("Your order was cancelled: %s", payload.Reason)
	}
	return &models.Notification{
		CustomerID: payload.CustomerID,
		Type:       enums.NotificationTypeOrderAlert,
		Title:      "Order cancelled",
		Message:    message,
		Link:       stringPtr(fmt.Sprintf("/orders/%s", payload.OrderID)),
	}, nil
}

func buildInvoiceReminderNotification(data json.RawMessage) (*models.Notification, error) {
	var payload payloads.InvoiceReminderDueEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.CustomerID == uuid.Nil {
		return nil, fmt.Errorf("customer id missing")
	}
	return &models.Notification{
		CustomerID: payload.CustomerID,
		Type:       enums.NotificationTypeInvoiceReminder,
		Title:      fmt.Sprintf("Invoice %s is overdue", payload.InvoiceNumber),
		Message: fmt.Sprintf("Invoice %s is %d days overdue. Amount due: %s.",
			payload.InvoiceNumber, payload.DaysOverdue, payload.AmountDue),
		Link: stringPtr(fmt.Sprintf("/invoices/%s", payload.InvoiceID)),
	}, nil
}

func buildProofNotification(data json.RawMessage) (*models.Notification, error) {
	var payload payloads.ProofEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.CustomerID == uuid.Nil {
		return nil, fmt.Errorf("customer id missing")
	}
	var title, message string
	switch payload.Status {
	case enums.ProofStatusAwaitingApproval:
		title = "Artwork received"
		message = fmt.Sprintf("Revision %d of your artwork is in review.", payload.Revision)
	case enums.ProofStatusApproved:
		title = "Artwork approved"
		message = "Your artwork was approved and the order can enter production."
	case enums.ProofStatusChangesRequested:
		title = "Changes requested"
		message = "Our team requested changes to your artwork."
		if payload.Feedback != "" {
			message = fmt.Sprintf("Our team requested changes to your artwork: %s", payload.Feedback)
		}
	default:
		return nil, nil
	}
	return &models.Notification{
		CustomerID: payload.CustomerID,
		Type:       enums.NotificationTypeProofUpdate,
		Title:      title,
		Message:    message,
		Link:       stringPtr(fmt.Sprintf("/orders/%s/proofs/%s", payload.OrderID, payload.ProofID)),
	}, nil
}

func buildTicketNotification(data json.RawMessage) (*models.Notification, error) {
	var payload payloads.TicketEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.CustomerID == uuid.Nil {
		return nil, fmt.Errorf("customer id missing")
	}
	var title, message string
	switch payload.Status {
	case enums.TicketStatusOpen:
		title = "Support ticket received"
		message = fmt.Sprintf("We received your ticket %q and will respond shortly.", payload.Subject)
	case enums.TicketStatusPending:
		title = "Support replied"
		message = fmt.Sprintf("Our team replied to your ticket %q.", payload.Subject)
	default:
		title = "Support ticket updated"
		message = fmt.Sprintf("Ticket %q is now %s.", payload.Subject, payload.Status)
	}
	return &models.Notification{
		CustomerID: payload.CustomerID,
		Type:       enums.NotificationTypeTicketUpdate,
		Title:      title,
		Message:    message,
		Link:       stringPtr(fmt.Sprintf("/tickets/%s", payload.TicketID)),
	}, nil
}

func stringPtr(value string) *string {
	return &value
}
