package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/internal/invoicing"
	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	"github.com/calebmoran/printworks-backend/pkg/logger"
	"github.com/calebmoran/printworks-backend/pkg/outbox"
	"github.com/calebmoran/printworks-backend/pkg/outbox/payloads"
)

const defaultReminderBatch = 500

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type overdueMarker interface {
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
}

// InvoiceReminderJobParams configures the daily invoice sweep.
type InvoiceReminderJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	InvoiceRepo invoicing.Repository
	Invoices    overdueMarker
	Outbox      outboxEmitter
	Batch       int
}

// NewInvoiceReminderJob builds the cron job that marks invoices overdue
// and queues reminder events on the 1/7/14/30 day schedule.
func NewInvoiceReminderJob(params InvoiceReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.InvoiceRepo == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	if params.Invoices == nil {
		return nil, fmt.Errorf("invoicing service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	batch := params.Batch
	if batch <= 0 {
		batch = defaultReminderBatch
	}
	return &invoiceReminderJob{
		logg:     params.Logger,
		db:       params.DB,
		repo:     params.InvoiceRepo,
		invoices: params.Invoices,
		outbox:   params.Outbox,
		batch:    batch,
		now:      time.Now,
	}, nil
}

type invoiceReminderJob struct {
	logg     *logger.Logger
	db       txRunner
	repo     invoicing.Repository
	invoices overdueMarker
	outbox   outboxEmitter
	batch    int
	now      func() time.Time
}

func (j *invoiceReminderJob) Name() string { return "invoice-reminders" }

func (j *invoiceReminderJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.markOverdue(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.sendReminders(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

func (j *invoiceReminderJob) markOverdue(ctx context.Context) error {
	marked, err := j.invoices.MarkOverdue(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("mark overdue invoices: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": marked})
	j.logg.Info(logCtx, "overdue sweep complete")
	return nil
}

func (j *invoiceReminderJob) sendReminders(ctx context.Context) error {
	now := j.now().UTC()
	invoices, err := j.repo.ListUnpaidPastDue(ctx, now, j.batch)
	if err != nil {
		return fmt.Errorf("query past-due invoices: %w", err)
	}

	sent := 0
	for i := range invoices {
		invoice := &invoices[i]
		due := invoicing.ShouldSendReminder(invoicing.Invoice{
			Status:          invoice.Status,
			DueDate:         invoice.DueDate,
			AmountRemaining: invoice.AmountRemaining,
			RemindersSent:   invoice.RemindersSent,
		}, now)
		if !due {
			continue
		}
		if err := j.queueReminder(ctx, invoice, now); err != nil {
			return err
		}
		sent++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(invoices),
		"sent":       sent,
	})
	j.logg.Info(logCtx, "reminder sweep complete")
	return nil
}

// queueReminder advances the reminder counter and emits the event in one
// transaction, so a crash never repeats or skips a reminder.
func (j *invoiceReminderJob) queueReminder(ctx context.Context, invoice *models.Invoice, now time.Time) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repo.WithTx(tx)

		invoice.RemindersSent++
		invoice.LastReminderAt = &now
		invoice.LineItems = nil
		invoice.Payments = nil
		if err := repo.Update(ctx, invoice); err != nil {
			return fmt.Errorf("update reminder count: %w", err)
		}

		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInvoiceReminderDue,
			AggregateType: enums.AggregateInvoice,
			AggregateID:   invoice.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.InvoiceReminderDueEvent{
				InvoiceID:      invoice.ID,
				InvoiceNumber:  invoice.InvoiceNumber,
				CustomerID:     invoice.CustomerID,
				ReminderNumber: invoice.RemindersSent,
				DaysOverdue:    invoicing.DaysOverdue(invoice.DueDate, now),
				AmountDue:      invoice.AmountRemaining.StringFixed(2),
			},
		})
	})
}
