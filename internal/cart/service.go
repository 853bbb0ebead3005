package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/internal/moq"
	"github.com/calebmoran/printworks-backend/internal/pricing"
	"github.com/calebmoran/printworks-backend/internal/promos"
	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type customerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type promoResolver interface {
	Resolve(ctx context.Context, code string) (*promos.PromoCode, error)
}

type moqSource interface {
	LoadValidator(ctx context.Context) (*moq.Validator, error)
}

// Service runs the quote pipeline and persists the resulting cart.
type Service interface {
	Quote(ctx context.Context, customerID uuid.UUID, input QuoteInput) (*CartDTO, error)
	GetActiveCart(ctx context.Context, customerID uuid.UUID) (*CartDTO, error)
	Abandon(ctx context.Context, customerID uuid.UUID) error
}

// QuoteInput is the client's requested cart state.
type QuoteInput struct {
	Lines          []QuoteLineInput
	PromoCode      *string
	ShippingMethod enums.ShippingMethod
	ShippingAddress *types.Address
}

// QuoteLineInput is one requested line. ExpectedUnitPrice, when set, is the
// unit price the client last saw; a mismatch yields a price_changed warning
// rather than an error.
type QuoteLineInput struct {
	ProductID         uuid.UUID
	Quantity          int
	ExpectedUnitPrice *decimal.Decimal
}

type service struct {
	repo       CartRepository
	tx         txRunner
	products   productLoader
	customers  customerLoader
	promos     promoResolver
	moqRules   moqSource
	calculator *pricing.Calculator
	quoteTTL   time.Duration
}

// NewService builds a cart service over the quote pipeline dependencies.
func NewService(repo CartRepository, tx txRunner, products productLoader, customers customerLoader, promoSvc promoResolver, moqRules moqSource, calculator *pricing.Calculator, quoteTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer loader required")
	}
	if promoSvc == nil {
		return nil, fmt.Errorf("promo resolver required")
	}
	if moqRules == nil {
		return nil, fmt.Errorf("moq source required")
	}
	if calculator == nil {
		return nil, fmt.Errorf("pricing calculator required")
	}
	if quoteTTL <= 0 {
		quoteTTL = 24 * time.Hour
	}
	return &service{
		repo:       repo,
		tx:         tx,
		products:   products,
		customers:  customers,
		promos:     promoSvc,
		moqRules:   moqRules,
		calculator: calculator,
		quoteTTL:   quoteTTL,
	}, nil
}

// Quote runs the pipeline for the requested lines and upserts the
// customer's active cart. Unavailable products and quantity adjustments
// surface as per-line warnings; only hard input errors fail the quote.
func (s *service) Quote(ctx context.Context, customerID uuid.UUID, input QuoteInput) (*CartDTO, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart must contain at least one line")
	}
	method := input.ShippingMethod
	if method == "" {
		method = enums.ShippingMethodStandard
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid shipping method %q", method))
	}
	for _, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line product id is required")
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be greater than zero")
		}
	}

	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	var promo *promos.PromoCode
	if input.PromoCode != nil {
		promo, err = s.promos.Resolve(ctx, *input.PromoCode)
		if err != nil {
			return nil, err
		}
	}

	validator, err := s.moqRules.LoadValidator(ctx)
	if err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, 0, len(input.Lines))
	for _, line := range input.Lines {
		productIDs = append(productIDs, line.ProductID)
	}
	products, err := s.products.FindProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	productsByID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		productsByID[products[i].ID] = &products[i]
	}

	now := time.Now().UTC()
	items := make([]models.CartItem, 0, len(input.Lines))
	subtotal := decimal.Zero
	discountTotal := decimal.Zero

	for _, line := range input.Lines {
		item, quote := s.quoteLine(line, productsByID[line.ProductID], customer.Tier, promo, validator, now)
		items = append(items, item)
		if item.Status == enums.CartItemStatusOK && quote != nil {
			subtotal = subtotal.Add(quote.FinalPrice)
			discountTotal = discountTotal.Add(quote.DiscountAmount)
		}
	}

	tax := s.calculator.EstimateTax(subtotal)
	shippingAmount, err := s.calculator.Shipping(method, subtotal, customer.Tier)
	if err != nil {
		return nil, err
	}
	shippingLine := &types.ShippingLine{
		Method: method,
		Label:  shippingLabel(method),
		Amount: shippingAmount,
	}

	record := &models.CartRecord{
		CustomerID:      customerID,
		Status:          enums.CartStatusActive,
		ShippingAddress: input.ShippingAddress,
		ShippingMethod:  method,
		PromoCode:       input.PromoCode,
		Currency:        enums.CurrencyUSD,
		ValidUntil:      now.Add(s.quoteTTL),
		Subtotal:        subtotal,
		DiscountTotal:   discountTotal,
		EstimatedTax:    tax,
		ShippingLine:    shippingLine,
		Total:           subtotal.Add(tax).Add(shippingAmount),
	}

	var saved *models.CartRecord
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		existing, err := txRepo.FindActiveByCustomer(ctx, customerID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var targetID uuid.UUID
		if existing != nil {
			existing.ShippingAddress = record.ShippingAddress
			existing.ShippingMethod = record.ShippingMethod
			existing.PromoCode = record.PromoCode
			existing.ValidUntil = record.ValidUntil
			existing.Subtotal = record.Subtotal
			existing.DiscountTotal = record.DiscountTotal
			existing.EstimatedTax = record.EstimatedTax
			existing.ShippingLine = record.ShippingLine
			existing.Total = record.Total
			if _, err := txRepo.Update(ctx, existing); err != nil {
				return err
			}
			targetID = existing.ID
		} else {
			created, err := txRepo.Create(ctx, record)
			if err != nil {
				return err
			}
			targetID = created.ID
		}

		if err := txRepo.ReplaceItems(ctx, targetID, items); err != nil {
			return err
		}

		saved, err = txRepo.FindByIDAndCustomer(ctx, targetID, customerID)
		return err
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}

	return NewCartDTO(saved), nil
}

// quoteLine prices one requested line, clamping the quantity up to the
// effective MOQ and increment where needed.
func (s *service) quoteLine(line QuoteLineInput, product *models.Product, tier enums.CustomerTier, promo *promos.PromoCode, validator *moq.Validator, now time.Time) (models.CartItem, *pricing.Quote) {
	if product == nil || !product.IsActive {
		return models.CartItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			MOQ:       1,
			Status:    enums.CartItemStatusNotAvailable,
			Warnings: types.CartItemWarnings{{
				Type:    enums.CartItemWarningTypeNotAvailable,
				Message: "product is no longer available",
			}},
		}, nil
	}

	quantity := line.Quantity
	var warnings types.CartItemWarnings
	category := product.Category

	validation, err := validator.Validate(quantity, product.ID, tier, &category, now)
	if err != nil {
		// Quantities were validated positive above; treat as invalid line.
		return models.CartItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			MOQ:       1,
			Status:    enums.CartItemStatusInvalid,
		}, nil
	}
	if !validation.Valid && validation.QuantityNeeded > 0 {
		warnings = append(warnings, types.CartItemWarning{
			Type:    enums.CartItemWarningTypeBelowMOQ,
			Message: fmt.Sprintf("quantity raised from %d to the minimum of %d", quantity, validation.EffectiveMOQ),
		})
		quantity = validation.EffectiveMOQ
		validation, _ = validator.Validate(quantity, product.ID, tier, &category, now)
	}
	if !validation.Valid && validation.NextValidQuantity > 0 {
		warnings = append(warnings, types.CartItemWarning{
			Type:    enums.CartItemWarningTypeIncrementAdjusted,
			Message: fmt.Sprintf("quantity raised from %d to %d to match the order increment", quantity, validation.NextValidQuantity),
		})
		quantity = validation.NextValidQuantity
		validation, _ = validator.Validate(quantity, product.ID, tier, &category, now)
	}

	quote, err := s.calculator.PriceProduct(pricing.Product{ID: product.ID, BasePrice: product.BasePrice}, pricing.Context{
		Tier:     tier,
		Quantity: quantity,
		Promo:    promo,
		Now:      now,
	})
	if err != nil {
		return models.CartItem{
			ProductID: line.ProductID,
			Quantity:  quantity,
			MOQ:       validation.EffectiveMOQ,
			Status:    enums.CartItemStatusInvalid,
		}, nil
	}

	if quote.PromoMessage != "" {
		warnings = append(warnings, types.CartItemWarning{
			Type:    enums.CartItemWarningTypeInvalidPromo,
			Message: quote.PromoMessage,
		})
	}
	if line.ExpectedUnitPrice != nil && !line.ExpectedUnitPrice.Equal(quote.UnitPrice) {
		warnings = append(warnings, types.CartItemWarning{
			Type: enums.CartItemWarningTypePriceChanged,
			Message: fmt.Sprintf("unit price is now %s (was %s)",
				quote.UnitPrice.String(), line.ExpectedUnitPrice.String()),
		})
	}

	breakdown := make(types.DiscountBreakdown, 0, len(quote.Breakdown))
	for _, stage := range quote.Breakdown {
		breakdown = append(breakdown, types.AppliedDiscount{
			Stage:   stage.Stage,
			Label:   stageLabel(stage.Stage),
			Percent: stage.Percent,
			Amount:  stage.Amount,
		})
	}

	return models.CartItem{
		ProductID:         product.ID,
		Quantity:          quantity,
		MOQ:               validation.EffectiveMOQ,
		BaseUnitPrice:     product.BasePrice,
		ResolvedUnitPrice: quote.UnitPrice,
		DiscountBreakdown: breakdown,
		Warnings:          warnings,
		LineSubtotal:      quote.FinalPrice,
		Status:            enums.CartItemStatusOK,
	}, &quote
}

// GetActiveCart returns the customer's active cart, or not-found.
func (s *service) GetActiveCart(ctx context.Context, customerID uuid.UUID) (*CartDTO, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	record, err := s.repo.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "active cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return NewCartDTO(record), nil
}

// Abandon closes out the active cart without converting it.
func (s *service) Abandon(ctx context.Context, customerID uuid.UUID) error {
	record, err := s.repo.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "active cart not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	record.Status = enums.CartStatusAbandoned
	if _, err := s.repo.Update(ctx, record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "abandon cart")
	}
	return nil
}

func stageLabel(stage enums.DiscountStage) string {
	switch stage {
	case enums.DiscountStageTier:
		return "Tier discount"
	case enums.DiscountStageVolume:
		return "Volume discount"
	case enums.DiscountStagePromo:
		return "Promo code"
	default:
		return string(stage)
	}
}

func shippingLabel(method enums.ShippingMethod) string {
	switch method {
	case enums.ShippingMethodExpedited:
		return "Expedited shipping"
	case enums.ShippingMethodPriority:
		return "Priority shipping"
	default:
		return "Standard shipping"
	}
}
