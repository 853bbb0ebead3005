package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
)

// Service defines operations that record and query ledger events.
type Service interface {
	RecordEvent(ctx context.Context, input RecordLedgerEventInput) (*models.LedgerEvent, error)
	RecordTx(tx *gorm.DB, event *models.LedgerEvent) error
	HasOrderEvent(ctx context.Context, orderID uuid.UUID, eventType enums.LedgerEventType) (bool, error)
	HasInvoiceEvent(ctx context.Context, invoiceID uuid.UUID, eventType enums.LedgerEventType) (bool, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]models.LedgerEvent, error)
}

type service struct {
	repo Repository
}

// RecordLedgerEventInput captures the immutable data a ledger event requires.
type RecordLedgerEventInput struct {
	CustomerID  uuid.UUID             `json:"customer_id"`
	OrderID     *uuid.UUID            `json:"order_id"`
	InvoiceID   *uuid.UUID            `json:"invoice_id"`
	ActorUserID *uuid.UUID            `json:"actor_user_id"`
	Type        enums.LedgerEventType `json:"type"`
	Amount      decimal.Decimal       `json:"amount"`
	Metadata    json.RawMessage       `json:"metadata"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func validateEvent(customerID uuid.UUID, orderID, invoiceID *uuid.UUID, eventType enums.LedgerEventType) error {
	if customerID == uuid.Nil {
		return fmt.Errorf("customer id is required")
	}
	if !eventType.IsValid() {
		return fmt.Errorf("invalid ledger event type %q", eventType)
	}
	if (orderID == nil || *orderID == uuid.Nil) && (invoiceID == nil || *invoiceID == uuid.Nil) {
		return fmt.Errorf("ledger event requires an order or invoice reference")
	}
	return nil
}

func (s *service) RecordEvent(ctx context.Context, input RecordLedgerEventInput) (*models.LedgerEvent, error) {
	if err := validateEvent(input.CustomerID, input.OrderID, input.InvoiceID, input.Type); err != nil {
		return nil, err
	}

	event := &models.LedgerEvent{
		CustomerID:  input.CustomerID,
		OrderID:     input.OrderID,
		InvoiceID:   input.InvoiceID,
		ActorUserID: input.ActorUserID,
		Type:        input.Type,
		Amount:      input.Amount,
		Metadata:    input.Metadata,
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// RecordTx appends a ledger event inside the caller's transaction. The
// invoicing and checkout flows use this so a money event and the state
// change it describes commit atomically.
func (s *service) RecordTx(tx *gorm.DB, event *models.LedgerEvent) error {
	if tx == nil {
		return fmt.Errorf("ledger: transaction required")
	}
	if event == nil {
		return fmt.Errorf("ledger: event required")
	}
	if err := validateEvent(event.CustomerID, event.OrderID, event.InvoiceID, event.Type); err != nil {
		return err
	}
	return tx.Create(event).Error
}

func (s *service) HasOrderEvent(ctx context.Context, orderID uuid.UUID, eventType enums.LedgerEventType) (bool, error) {
	if orderID == uuid.Nil {
		return false, fmt.Errorf("order id is required")
	}
	if !eventType.IsValid() {
		return false, fmt.Errorf("invalid ledger event type %q", eventType)
	}

	events, err := s.repo.ListByOrderID(ctx, orderID)
	if err != nil {
		return false, err
	}
	return hasType(events, eventType), nil
}

func (s *service) HasInvoiceEvent(ctx context.Context, invoiceID uuid.UUID, eventType enums.LedgerEventType) (bool, error) {
	if invoiceID == uuid.Nil {
		return false, fmt.Errorf("invoice id is required")
	}
	if !eventType.IsValid() {
		return false, fmt.Errorf("invalid ledger event type %q", eventType)
	}

	events, err := s.repo.ListByInvoiceID(ctx, invoiceID)
	if err != nil {
		return false, err
	}
	return hasType(events, eventType), nil
}

func (s *service) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]models.LedgerEvent, error) {
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("customer id is required")
	}
	return s.repo.ListByCustomerID(ctx, customerID, limit)
}

func hasType(events []models.LedgerEvent, eventType enums.LedgerEventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
