package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/internal/cart"
	"github.com/calebmoran/printworks-backend/internal/invoicing"
	"github.com/calebmoran/printworks-backend/internal/orders"
	"github.com/calebmoran/printworks-backend/internal/pricing"
	pkgcheckout "github.com/calebmoran/printworks-backend/pkg/checkout"
	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/outbox"
	"github.com/calebmoran/printworks-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type productLoader interface {
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type customerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type creditReserver interface {
	ReserveCredit(tx *gorm.DB, id uuid.UUID, amount decimal.Decimal) error
}

type invoiceIssuer interface {
	Issue(ctx context.Context, input invoicing.IssueInvoiceInput) (*invoicing.InvoiceDTO, error)
	CanApplyNetTerms(ctx context.Context, terms enums.NetTerms, orderTotal, creditLimit, creditUsed decimal.Decimal) (invoicing.NetTermsDecision, error)
}

type ledgerRecorder interface {
	RecordTx(tx *gorm.DB, event *models.LedgerEvent) error
}

// Service confirms a quoted cart into an order.
type Service interface {
	Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error)
}

// ConfirmInput captures the checkout request.
type ConfirmInput struct {
	CustomerID uuid.UUID
	CartID     uuid.UUID
	// NetTerms switches checkout to deferred payment. Nil means the card
	// on file is charged immediately.
	NetTerms              *enums.NetTerms
	StripePaymentMethodID *string
	Notes                 *string
	ActorUserID           uuid.UUID
}

// ConfirmResult is the order produced by checkout plus the invoice when
// the order was placed on net terms.
type ConfirmResult struct {
	Order   *orders.OrderDTO
	Invoice *invoicing.InvoiceDTO
}

type service struct {
	tx        txRunner
	cartRepo  cart.CartRepository
	orderRepo orders.Repository
	customers customerLoader
	credit    creditReserver
	products  productLoader
	invoices  invoiceIssuer
	ledger    ledgerRecorder
	outbox    outboxPublisher
	stripe    StripeChargeClient
	table     pricing.Table
	taxRate   decimal.Decimal
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Tx        txRunner
	CartRepo  cart.CartRepository
	OrderRepo orders.Repository
	Customers customerLoader
	Credit    creditReserver
	Products  productLoader
	Invoices  invoiceIssuer
	Ledger    ledgerRecorder
	Outbox    outboxPublisher
	Stripe    StripeChargeClient
	Table     pricing.Table
	TaxRate   decimal.Decimal
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.OrderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer loader required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Invoices == nil {
		return nil, fmt.Errorf("invoice issuer required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.TaxRate.IsNegative() {
		return nil, fmt.Errorf("tax rate must not be negative")
	}
	return &service{
		tx:        params.Tx,
		cartRepo:  params.CartRepo,
		orderRepo: params.OrderRepo,
		customers: params.Customers,
		credit:    params.Credit,
		products:  params.Products,
		invoices:  params.Invoices,
		ledger:    params.Ledger,
		outbox:    params.Outbox,
		stripe:    params.Stripe,
		table:     params.Table,
		taxRate:   params.TaxRate,
	}, nil
}

func (s *service) Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if input.CartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	if input.NetTerms == nil {
		if s.stripe == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "card payments are not configured")
		}
		if input.StripePaymentMethodID == nil || *input.StripePaymentMethodID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required for card checkout")
		}
	} else if !input.NetTerms.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid net terms")
	}

	customer, err := s.customers.FindByID(ctx, input.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	if !customer.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "customer account is inactive")
	}
	if input.NetTerms != nil {
		if err := s.checkTermsEligibility(customer.Tier, *input.NetTerms); err != nil {
			return nil, err
		}
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		record, err := cartRepo.FindByIDAndCustomer(ctx, input.CartID, input.CustomerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return fmt.Errorf("load cart: %w", err)
		}
		if record.Status != enums.CartStatusActive {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart already processed")
		}
		if len(record.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
		}
		now := time.Now().UTC()
		if now.After(record.ValidUntil) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "quote has expired, request a new quote")
		}

		products, err := s.loadProducts(ctx, record.Items)
		if err != nil {
			return err
		}
		if err := validateItems(record.Items, products); err != nil {
			return err
		}

		if input.NetTerms != nil {
			decision, err := s.invoices.CanApplyNetTerms(ctx, *input.NetTerms, record.Total, customer.CreditLimit, customer.CreditUsed)
			if err != nil {
				return err
			}
			if !decision.Allowed {
				return pkgerrors.New(pkgerrors.CodeStateConflict, decision.Reason)
			}
			if s.credit == nil {
				return fmt.Errorf("credit reserver not configured")
			}
			if err := s.credit.ReserveCredit(tx, customer.ID, record.Total); err != nil {
				return err
			}
		}

		number, err := orderRepo.NextOrderNumber(ctx)
		if err != nil {
			return fmt.Errorf("allocate order number: %w", err)
		}

		order = buildOrder(number, record, products, input)
		if err := orderRepo.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		if input.NetTerms == nil {
			if err := s.chargeCard(ctx, tx, order, customer, *input.StripePaymentMethodID); err != nil {
				return err
			}
		}

		if err := cartRepo.MarkConverted(ctx, record.ID, now); err != nil {
			return fmt.Errorf("convert cart: %w", err)
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         buildActor(input.ActorUserID, customer.ID),
			Version:       1,
			Data: payloads.OrderPlacedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CustomerID:  order.CustomerID,
				Total:       order.Total.StringFixed(2),
				NetTerms:    netTermsString(input.NetTerms),
			},
		})
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm checkout")
	}

	result := &ConfirmResult{Order: orders.NewOrderDTO(order)}
	if input.NetTerms != nil {
		invoice, err := s.issueInvoice(ctx, order, *input.NetTerms)
		if err != nil {
			return nil, err
		}
		result.Invoice = invoice
		result.Order.InvoiceID = &invoice.ID
	}
	return result, nil
}

// checkTermsEligibility enforces the tier's allowed net-terms list before
// any money math runs.
func (s *service) checkTermsEligibility(tier enums.CustomerTier, terms enums.NetTerms) error {
	benefits, err := s.table.Benefits(tier)
	if err != nil {
		return err
	}
	for _, eligible := range benefits.EligibleNetTerms {
		if eligible == terms {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden,
		fmt.Sprintf("tier %s is not eligible for %s", tier, terms))
}

func (s *service) loadProducts(ctx context.Context, items []models.CartItem) (map[uuid.UUID]*models.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	rows, err := s.products.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	products := make(map[uuid.UUID]*models.Product, len(rows))
	for i := range rows {
		products[rows[i].ID] = &rows[i]
	}
	return products, nil
}

// validateItems re-runs the server-side gates on the persisted quote. A
// cart that quoted with warnings or whose products have since gone away
// must be re-quoted, not silently repaired here.
func validateItems(items []models.CartItem, products map[uuid.UUID]*models.Product) error {
	moqInputs := make([]pkgcheckout.MOQValidationInput, 0, len(items))
	for _, item := range items {
		if item.Status != enums.CartItemStatusOK {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart has unavailable items, request a new quote")
		}
		product, ok := products[item.ProductID]
		if !ok || !product.IsActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "a quoted product is no longer available, request a new quote")
		}
		moqInputs = append(moqInputs, pkgcheckout.MOQValidationInput{
			ProductID:   item.ProductID,
			ProductName: product.Name,
			MOQ:         item.MOQ,
			Quantity:    item.Quantity,
		})
	}
	return pkgcheckout.ValidateMOQ(moqInputs)
}

func buildOrder(number int64, record *models.CartRecord, products map[uuid.UUID]*models.Product, input ConfirmInput) *models.Order {
	shipping := decimal.Zero
	if record.ShippingLine != nil {
		shipping = record.ShippingLine.Amount
	}
	paymentMethod := enums.PaymentMethodCreditCard
	if input.NetTerms != nil {
		paymentMethod = enums.PaymentMethodACH
	}

	order := &models.Order{
		OrderNumber:     number,
		CustomerID:      record.CustomerID,
		CartID:          &record.ID,
		Status:          enums.OrderStatusPending,
		Currency:        record.Currency,
		ShippingAddress: record.ShippingAddress,
		ShippingLine:    record.ShippingLine,
		PaymentMethod:   paymentMethod,
		NetTerms:        input.NetTerms,
		Subtotal:        record.Subtotal,
		DiscountTotal:   record.DiscountTotal,
		Tax:             record.EstimatedTax,
		Shipping:        shipping,
		Total:           record.Total,
		Notes:           input.Notes,
	}
	for _, item := range record.Items {
		product := products[item.ProductID]
		productID := item.ProductID
		order.Items = append(order.Items, models.OrderLineItem{
			ProductID:         &productID,
			SKU:               product.SKU,
			Name:              product.Name,
			Category:          product.Category,
			Unit:              product.Unit,
			Quantity:          item.Quantity,
			BaseUnitPrice:     item.BaseUnitPrice,
			ResolvedUnitPrice: item.ResolvedUnitPrice,
			DiscountBreakdown: item.DiscountBreakdown,
			LineTotal:         item.LineSubtotal,
			ProofRequired:     product.ArtworkTemplateURL != nil,
		})
	}
	return order
}

// chargeCard charges the order total through Stripe and records both the
// charge row and the ledger entry inside the checkout transaction.
func (s *service) chargeCard(ctx context.Context, tx *gorm.DB, order *models.Order, customer *models.Customer, paymentMethodID string) error {
	amountCents := order.Total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	intent, err := s.stripe.CreatePaymentIntent(ctx, &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amountCents),
		Currency:      stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethod: stripe.String(paymentMethodID),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String(fmt.Sprintf("order #%d", order.OrderNumber)),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "card charge failed")
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("card charge did not succeed (status %s)", intent.Status))
	}

	now := time.Now().UTC()
	charge := &models.Charge{
		CustomerID:     customer.ID,
		Type:           enums.ChargeTypeOrder,
		OrderID:        &order.ID,
		StripeChargeID: intent.ID,
		AmountCents:    amountCents,
		Currency:       string(stripe.CurrencyUSD),
		Status:         enums.ChargeStatusSucceeded,
		BilledAt:       &now,
	}
	if err := tx.Create(charge).Error; err != nil {
		return fmt.Errorf("record charge: %w", err)
	}

	if s.ledger != nil {
		if err := s.ledger.RecordTx(tx, &models.LedgerEvent{
			CustomerID: customer.ID,
			OrderID:    &order.ID,
			Type:       enums.LedgerEventTypeChargeSucceeded,
			Amount:     order.Total,
		}); err != nil {
			return fmt.Errorf("record ledger event: %w", err)
		}
	}
	return nil
}

// issueInvoice runs after the checkout transaction commits. A failure
// here leaves a pending order without an invoice; re-issuing against the
// order is safe because the order itself is already placed.
func (s *service) issueInvoice(ctx context.Context, order *models.Order, terms enums.NetTerms) (*invoicing.InvoiceDTO, error) {
	lineItems := make([]invoicing.LineItem, 0, len(order.Items))
	for _, item := range order.Items {
		lineItems = append(lineItems, invoicing.LineItem{
			Description: fmt.Sprintf("%s (%s)", item.Name, item.SKU),
			Quantity:    item.Quantity,
			UnitPrice:   item.ResolvedUnitPrice,
			LineTotal:   item.LineTotal,
		})
	}

	invoice, err := s.invoices.Issue(ctx, invoicing.IssueInvoiceInput{
		CustomerID: order.CustomerID,
		OrderID:    &order.ID,
		Terms:      terms,
		LineItems:  lineItems,
		TaxRate:    s.taxRate,
		Shipping:   order.Shipping,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("order %d placed but invoice issuance failed", order.OrderNumber))
	}

	order.InvoiceID = &invoice.ID
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link invoice to order")
	}
	return invoice, nil
}

func buildActor(userID, customerID uuid.UUID) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{
		UserID:     userID,
		CustomerID: &customerID,
		Role:       enums.MemberRoleCustomer.String(),
	}
}

func netTermsString(terms *enums.NetTerms) *string {
	if terms == nil {
		return nil
	}
	value := terms.String()
	return &value
}
