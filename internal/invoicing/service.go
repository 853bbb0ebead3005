package invoicing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/calebmoran/printworks-backend/pkg/db"
	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/outbox"
	"github.com/calebmoran/printworks-backend/pkg/outbox/payloads"
	"github.com/calebmoran/printworks-backend/pkg/pagination"
)

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ledgerRecorder interface {
	RecordTx(tx *gorm.DB, event *models.LedgerEvent) error
}

// Service exposes invoice lifecycle operations.
type Service interface {
	Issue(ctx context.Context, input IssueInvoiceInput) (*InvoiceDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*InvoiceDTO, error)
	List(ctx context.Context, customerID uuid.UUID, status *enums.InvoiceStatus, params pagination.Params) ([]InvoiceDTO, string, error)
	MarkViewed(ctx context.Context, id uuid.UUID) error
	RecordPayment(ctx context.Context, id uuid.UUID, input RecordPaymentInput) (*InvoiceDTO, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	// MarkOverdue sweeps past-due invoices into overdue status. Run by
	// the cron worker.
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
	CanApplyNetTerms(ctx context.Context, terms enums.NetTerms, orderTotal, creditLimit, creditUsed decimal.Decimal) (NetTermsDecision, error)
	Terms() TermsTable
}

type service struct {
	repo   Repository
	client *dbpkg.Client
	terms  TermsTable
	outbox outboxEmitter
	ledger ledgerRecorder
}

// NewService builds an invoicing service.
func NewService(repo Repository, client *dbpkg.Client, terms TermsTable, emitter outboxEmitter, ledger ledgerRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("terms table required")
	}
	return &service{repo: repo, client: client, terms: terms, outbox: emitter, ledger: ledger}, nil
}

// IssueInvoiceInput captures everything needed to issue an invoice.
type IssueInvoiceInput struct {
	CustomerID      uuid.UUID
	OrderID         *uuid.UUID
	Terms           enums.NetTerms
	IssuedAt        time.Time
	LineItems       []LineItem
	DiscountPercent decimal.Decimal
	TaxRate         decimal.Decimal
	Shipping        decimal.Decimal
}

// RecordPaymentInput captures one payment against an invoice.
type RecordPaymentInput struct {
	Amount     decimal.Decimal
	Method     enums.PaymentMethod
	Reference  *string
	ReceivedAt time.Time
	RecordedBy *uuid.UUID
}

func (s *service) Terms() TermsTable { return s.terms }

func (s *service) Issue(ctx context.Context, input IssueInvoiceInput) (*InvoiceDTO, error) {
	if len(input.LineItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice requires at least one line item")
	}
	if !input.Terms.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid net terms")
	}
	issuedAt := input.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}

	dueDate, err := s.terms.DueDate(issuedAt, input.Terms)
	if err != nil {
		return nil, err
	}
	totals := CalculateTotals(input.LineItems, input.DiscountPercent, input.TaxRate, input.Shipping)

	var created *models.Invoice
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		number, err := repo.NextInvoiceNumber(ctx, issuedAt)
		if err != nil {
			return fmt.Errorf("allocate invoice number: %w", err)
		}

		invoice := &models.Invoice{
			InvoiceNumber:   number,
			OrderID:         input.OrderID,
			CustomerID:      input.CustomerID,
			Status:          enums.InvoiceStatusSent,
			Terms:           input.Terms,
			IssuedAt:        issuedAt,
			DueDate:         dueDate,
			Subtotal:        totals.Subtotal,
			DiscountPercent: input.DiscountPercent,
			DiscountAmount:  totals.DiscountAmount,
			TaxRate:         input.TaxRate,
			TaxAmount:       totals.TaxAmount,
			Shipping:        input.Shipping,
			Total:           totals.Total,
			AmountPaid:      decimal.Zero,
			AmountRemaining: totals.Total,
			SentAt:          &issuedAt,
		}
		for _, item := range input.LineItems {
			invoice.LineItems = append(invoice.LineItems, models.InvoiceLineItem{
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				LineTotal:   item.LineTotal,
			})
		}
		if err := repo.Create(ctx, invoice); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		if s.ledger != nil {
			if err := s.ledger.RecordTx(tx, &models.LedgerEvent{
				CustomerID: invoice.CustomerID,
				OrderID:    invoice.OrderID,
				InvoiceID:  &invoice.ID,
				Type:       enums.LedgerEventTypeInvoiceIssued,
				Amount:     invoice.Total,
			}); err != nil {
				return fmt.Errorf("record ledger event: %w", err)
			}
		}

		if s.outbox != nil {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventInvoiceIssued,
				AggregateType: enums.AggregateInvoice,
				AggregateID:   invoice.ID,
				Version:       1,
				Data: payloads.InvoiceIssuedEvent{
					InvoiceID:     invoice.ID,
					InvoiceNumber: invoice.InvoiceNumber,
					CustomerID:    invoice.CustomerID,
					OrderID:       invoice.OrderID,
					Total:         invoice.Total.StringFixed(2),
					DueDate:       invoice.DueDate,
				},
			}); err != nil {
				return fmt.Errorf("emit invoice event: %w", err)
			}
		}

		created = invoice
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issue invoice")
	}
	return invoiceFromModel(created), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*InvoiceDTO, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	return invoiceFromModel(invoice), nil
}

func (s *service) List(ctx context.Context, customerID uuid.UUID, status *enums.InvoiceStatus, params pagination.Params) ([]InvoiceDTO, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	invoices, next, err := s.repo.ListByCustomer(ctx, ListInvoicesQuery{
		CustomerID: customerID,
		Status:     status,
		Limit:      params.Limit,
		Cursor:     cursor,
	})
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}

	result := make([]InvoiceDTO, 0, len(invoices))
	for i := range invoices {
		result = append(result, *invoiceFromModel(&invoices[i]))
	}
	nextCursor := ""
	if next != nil {
		nextCursor = pagination.EncodeCursor(*next)
	}
	return result, nextCursor, nil
}

func (s *service) MarkViewed(ctx context.Context, id uuid.UUID) error {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	if invoice.Status != enums.InvoiceStatusSent {
		return nil
	}

	now := time.Now().UTC()
	invoice.Status = enums.InvoiceStatusViewed
	invoice.ViewedAt = &now
	if err := s.repo.Update(ctx, invoice); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoice")
	}
	return nil
}

func (s *service) RecordPayment(ctx context.Context, id uuid.UUID, input RecordPaymentInput) (*InvoiceDTO, error) {
	receivedAt := input.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	var updated *models.Invoice
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		invoice, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
			}
			return fmt.Errorf("load invoice: %w", err)
		}

		payment := Payment{
			ID:         uuid.New(),
			Amount:     input.Amount,
			Method:     input.Method,
			Reference:  input.Reference,
			ReceivedAt: receivedAt,
		}
		value, err := RecordPayment(invoiceToValue(invoice), payment)
		if err != nil {
			return err
		}

		row := &models.Payment{
			ID:         payment.ID,
			InvoiceID:  invoice.ID,
			Amount:     payment.Amount,
			Method:     payment.Method,
			Reference:  payment.Reference,
			ReceivedAt: payment.ReceivedAt,
			RecordedBy: input.RecordedBy,
		}
		if err := repo.AppendPayment(ctx, row); err != nil {
			return fmt.Errorf("append payment: %w", err)
		}

		invoice.AmountPaid = value.AmountPaid
		invoice.AmountRemaining = value.AmountRemaining
		invoice.Status = value.Status
		if value.Status == enums.InvoiceStatusPaid && invoice.PaidAt == nil {
			invoice.PaidAt = &receivedAt
		}
		invoice.Payments = nil
		if err := repo.Update(ctx, invoice); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}

		if s.ledger != nil {
			if err := s.ledger.RecordTx(tx, &models.LedgerEvent{
				CustomerID:  invoice.CustomerID,
				OrderID:     invoice.OrderID,
				InvoiceID:   &invoice.ID,
				ActorUserID: input.RecordedBy,
				Type:        enums.LedgerEventTypePaymentRecorded,
				Amount:      payment.Amount,
			}); err != nil {
				return fmt.Errorf("record ledger event: %w", err)
			}
		}

		if s.outbox != nil {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventInvoicePaymentPosted,
				AggregateType: enums.AggregateInvoice,
				AggregateID:   invoice.ID,
				Version:       1,
				Data: payloads.InvoicePaymentPostedEvent{
					InvoiceID:       invoice.ID,
					PaymentID:       payment.ID,
					CustomerID:      invoice.CustomerID,
					Amount:          payment.Amount.StringFixed(2),
					AmountRemaining: invoice.AmountRemaining.StringFixed(2),
					Paid:            invoice.Status == enums.InvoiceStatusPaid,
				},
			}); err != nil {
				return fmt.Errorf("emit payment event: %w", err)
			}

			if invoice.Status == enums.InvoiceStatusPaid {
				if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
					EventType:     enums.EventInvoicePaid,
					AggregateType: enums.AggregateInvoice,
					AggregateID:   invoice.ID,
					Version:       1,
					Data: payloads.InvoicePaidEvent{
						InvoiceID:     invoice.ID,
						InvoiceNumber: invoice.InvoiceNumber,
						CustomerID:    invoice.CustomerID,
						OrderID:       invoice.OrderID,
						Total:         invoice.Total.StringFixed(2),
						PaidAt:        receivedAt,
					},
				}); err != nil {
					return fmt.Errorf("emit invoice paid event: %w", err)
				}
			}
		}

		updated = invoice
		return nil
	})
	if err != nil {
		var appErr *pkgerrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
	}
	return invoiceFromModel(updated), nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) error {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	if invoice.Status == enums.InvoiceStatusPaid {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "paid invoices cannot be cancelled")
	}
	if invoice.Status == enums.InvoiceStatusCancelled {
		return nil
	}

	now := time.Now().UTC()
	invoice.Status = enums.InvoiceStatusCancelled
	invoice.CancelledAt = &now
	if err := s.repo.Update(ctx, invoice); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoice")
	}
	return nil
}

func (s *service) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	invoices, err := s.repo.ListUnpaidPastDue(ctx, now, 0)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list past-due invoices")
	}

	marked := 0
	for i := range invoices {
		invoice := &invoices[i]
		if invoice.Status == enums.InvoiceStatusOverdue {
			continue
		}
		err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			invoice.Status = enums.InvoiceStatusOverdue
			if err := repo.Update(ctx, invoice); err != nil {
				return fmt.Errorf("update invoice: %w", err)
			}
			if s.outbox != nil {
				if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
					EventType:     enums.EventInvoiceOverdue,
					AggregateType: enums.AggregateInvoice,
					AggregateID:   invoice.ID,
					Version:       1,
					Data: payloads.InvoiceOverdueEvent{
						InvoiceID:     invoice.ID,
						InvoiceNumber: invoice.InvoiceNumber,
						CustomerID:    invoice.CustomerID,
						DueDate:       invoice.DueDate,
						AmountDue:     invoice.AmountRemaining.StringFixed(2),
					},
				}); err != nil {
					return fmt.Errorf("emit overdue event: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			return marked, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark invoice overdue")
		}
		marked++
	}
	return marked, nil
}

func (s *service) CanApplyNetTerms(ctx context.Context, terms enums.NetTerms, orderTotal, creditLimit, creditUsed decimal.Decimal) (NetTermsDecision, error) {
	return s.terms.CanApplyNetTerms(terms, orderTotal, creditLimit, creditUsed)
}
