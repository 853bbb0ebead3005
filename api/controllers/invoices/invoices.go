package invoices

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/api/middleware"
	"github.com/calebmoran/printworks-backend/api/responses"
	"github.com/calebmoran/printworks-backend/api/validators"
	"github.com/calebmoran/printworks-backend/internal/invoicing"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/logger"
	"github.com/calebmoran/printworks-backend/pkg/pagination"
)

// List returns the signed-in customer's invoices.
func List(svc invoicing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoicing service unavailable"))
			return
		}

		customerID, err := middleware.CustomerUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := parseStatusParam(r.URL.Query().Get("status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := parsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, next, err := svc.List(r.Context(), customerID, status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"invoices": list, "next_cursor": next})
	}
}

// Detail returns one invoice and records that the customer viewed it.
func Detail(svc invoicing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoicing service unavailable"))
			return
		}

		customerID, err := middleware.CustomerUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoiceID, err := parseInvoiceID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.GetByID(r.Context(), invoiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if invoice.CustomerID != customerID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found"))
			return
		}

		if err := svc.MarkViewed(r.Context(), invoiceID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

type issueLineItemRequest struct {
	Description string `json:"description" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	UnitPrice   string `json:"unit_price" validate:"required"`
}

type issueRequest struct {
	CustomerID      string                 `json:"customer_id" validate:"required,uuid4"`
	OrderID         *string                `json:"order_id,omitempty"`
	Terms           string                 `json:"terms" validate:"required"`
	LineItems       []issueLineItemRequest `json:"line_items" validate:"required,min=1,dive"`
	DiscountPercent *string                `json:"discount_percent,omitempty"`
	TaxRate         *string                `json:"tax_rate,omitempty"`
	Shipping        *string                `json:"shipping,omitempty"`
}

// AdminIssue creates a standalone invoice outside the checkout flow.
func AdminIssue(svc invoicing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoicing service unavailable"))
			return
		}

		var body issueRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := buildIssueInput(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.Issue(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invoice)
	}
}

// AdminList pages invoices for one customer account.
func AdminList(svc invoicing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoicing service unavailable"))
			return
		}

		rawCustomer := strings.TrimSpace(r.URL.Query().Get("customer_id"))
		if rawCustomer == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "customer_id is required"))
			return
		}
		customerID, err := uuid.Parse(rawCustomer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer_id"))
			return
		}

		status, err := parseStatusParam(r.URL.Query().Get("status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := parsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, next, err := svc.List(r.Context(), customerID, status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"invoices": list, "next_cursor": next})
	}
}

// AdminDetail returns any invoice for back-office staff.
func AdminDetail(svc invoicing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoicing service unavailable"))
			return
		}

		invoiceID, err := parseInvoiceID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.GetByID(r.Context(), invoiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

type recordPaymentRequest struct {
	Amount     string  `json:"amount" validate:"required"`
	Method     string  `json:"method" validate:"required"`
	Reference  *string `json:"reference,omitempty"`
	ReceivedAt *string `json:"received_at,omitempty"`
}

// AdminRecordPayment applies a payment against an open invoice.
func AdminRecordPayment(svc invoicing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoicing service unavailable"))
			return
		}

		invoiceID, err := parseInvoiceID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body recordPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(body.Amount))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount"))
			return
		}

		method, err := enums.ParsePaymentMethod(body.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid method"))
			return
		}

		receivedAt := time.Now().UTC()
		if body.ReceivedAt != nil && strings.TrimSpace(*body.ReceivedAt) != "" {
			parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*body.ReceivedAt))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid received_at"))
				return
			}
			receivedAt = parsed
		}

		input := invoicing.RecordPaymentInput{
			Amount:     amount,
			Method:     method,
			Reference:  body.Reference,
			ReceivedAt: receivedAt,
		}
		if actorID, err := middleware.UserUUID(r.Context()); err == nil {
			input.RecordedBy = &actorID
		}

		invoice, err := svc.RecordPayment(r.Context(), invoiceID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

// AdminCancel voids an unpaid invoice.
func AdminCancel(svc invoicing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoicing service unavailable"))
			return
		}

		invoiceID, err := parseInvoiceID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), invoiceID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

func buildIssueInput(body issueRequest) (invoicing.IssueInvoiceInput, error) {
	var input invoicing.IssueInvoiceInput

	customerID, err := uuid.Parse(body.CustomerID)
	if err != nil {
		return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer_id")
	}
	input.CustomerID = customerID

	if body.OrderID != nil && strings.TrimSpace(*body.OrderID) != "" {
		orderID, err := uuid.Parse(strings.TrimSpace(*body.OrderID))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order_id")
		}
		input.OrderID = &orderID
	}

	terms, err := enums.ParseNetTerms(body.Terms)
	if err != nil {
		return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid terms")
	}
	input.Terms = terms
	input.IssuedAt = time.Now().UTC()

	for _, item := range body.LineItems {
		unitPrice, err := decimal.NewFromString(strings.TrimSpace(item.UnitPrice))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit_price")
		}
		input.LineItems = append(input.LineItems, invoicing.LineItem{
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
			LineTotal:   unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}

	input.DiscountPercent, err = parseOptionalDecimal(body.DiscountPercent, "discount_percent")
	if err != nil {
		return input, err
	}
	input.TaxRate, err = parseOptionalDecimal(body.TaxRate, "tax_rate")
	if err != nil {
		return input, err
	}
	input.Shipping, err = parseOptionalDecimal(body.Shipping, "shipping")
	if err != nil {
		return input, err
	}
	return input, nil
}

func parseOptionalDecimal(raw *string, field string) (decimal.Decimal, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return value, nil
}

func parseInvoiceID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "invoiceId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invoice id")
	}
	return parsed, nil
}

func parseStatusParam(raw string) (*enums.InvoiceStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	status, err := enums.ParseInvoiceStatus(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	return &status, nil
}

func parsePagination(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
