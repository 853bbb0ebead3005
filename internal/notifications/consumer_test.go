package notifications

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/pkg/enums"
	"github.com/calebmoran/printworks-backend/pkg/outbox/payloads"
)

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func TestBuildProofNotificationChangesRequested(t *testing.T) {
	customerID := uuid.New()
	data := mustJSON(t, payloads.ProofEvent{
		ProofID:    uuid.New(),
		OrderID:    uuid.New(),
		CustomerID: customerID,
		Status:     enums.ProofStatusChangesRequested,
		Revision:   2,
		Feedback:   "increase the bleed to 3mm",
	})

	notification, err := buildProofNotification(data)
	if err != nil {
		t.Fatalf("buildProofNotification: %v", err)
	}
	if notification.CustomerID != customerID {
		t.Fatal("customer id not carried over")
	}
	if notification.Type != enums.NotificationTypeProofUpdate {
		t.Fatalf("unexpected type %s", notification.Type)
	}
	if !strings.Contains(notification.Message, "increase the bleed to 3mm") {
		t.Fatalf("feedback missing from message: %q", notification.Message)
	}
}

func TestBuildProofNotificationSkipsPending(t *testing.T) {
	data := mustJSON(t, payloads.ProofEvent{
		ProofID:    uuid.New(),
		CustomerID: uuid.New(),
		Status:     enums.ProofStatusPending,
	})

	notification, err := buildProofNotification(data)
	if err != nil {
		t.Fatalf("buildProofNotification: %v", err)
	}
	if notification != nil {
		t.Fatalf("pending proofs must not notify, got %+v", notification)
	}
}

func TestBuildInvoiceReminderNotification(t *testing.T) {
	data := mustJSON(t, payloads.InvoiceReminderDueEvent{
		InvoiceID:      uuid.New(),
		InvoiceNumber:  "INV-2026-08-0042",
		CustomerID:     uuid.New(),
		ReminderNumber: 2,
		DaysOverdue:    7,
		AmountDue:      "1250.00",
	})

	notification, err := buildInvoiceReminderNotification(data)
	if err != nil {
		t.Fatalf("buildInvoiceReminderNotification: %v", err)
	}
	if notification.Type != enums.NotificationTypeInvoiceReminder {
		t.Fatalf("unexpected type %s", notification.Type)
	}
	if !strings.Contains(notification.Message, "7 days overdue") {
		t.Fatalf("unexpected message %q", notification.Message)
	}
	if !strings.Contains(notification.Title, "INV-2026-08-0042") {
		t.Fatalf("invoice number missing from title %q", notification.Title)
	}
}

func TestBuildOrderStatusNotification(t *testing.T) {
	data := mustJSON(t, payloads.OrderStatusChangedEvent{
		OrderID:    uuid.New(),
		CustomerID: uuid.New(),
		From:       enums.OrderStatusInProduction,
		To:         enums.OrderStatusShipped,
	})

	notification, err := buildOrderStatusNotification(data)
	if err != nil {
		t.Fatalf("buildOrderStatusNotification: %v", err)
	}
	if notification.Message != "Your order has shipped." {
		t.Fatalf("unexpected message %q", notification.Message)
	}
}

func TestBuildTicketNotificationStaffReply(t *testing.T) {
	data := mustJSON(t, payloads.TicketEvent{
		TicketID:   uuid.New(),
		CustomerID: uuid.New(),
		Status:     enums.TicketStatusPending,
		Subject:    "wrong color on reorder",
	})

	notification, err := buildTicketNotification(data)
	if err != nil {
		t.Fatalf("buildTicketNotification: %v", err)
	}
	if notification.Title != "Support replied" {
		t.Fatalf("unexpected title %q", notification.Title)
	}
}

func TestBuildersRejectMissingCustomer(t *testing.T) {
	data := mustJSON(t, payloads.ProofEvent{ProofID: uuid.New(), Status: enums.ProofStatusApproved})
	if _, err := buildProofNotification(data); err == nil {
		t.Fatal("expected error for missing customer id")
	}
}
