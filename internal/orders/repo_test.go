package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
)

func mustCreateTestOrder(t *testing.T, repo Repository, customerID uuid.UUID, number int64) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNumber: number,
		CustomerID:  customerID,
		Status:      enums.OrderStatusPending,
		Currency:    enums.CurrencyUSD,
		Subtotal:    decimal.NewFromFloat(100),
		Total:       decimal.NewFromFloat(107.25),
		Items: []models.OrderLineItem{
			{
				SKU:               "STK-VNL-3X3",
				Name:              "3x3 Vinyl Sticker",
				Category:          enums.ProductCategoryStickers,
				Unit:              enums.ProductUnitPiece,
				Quantity:          100,
				BaseUnitPrice:     decimal.NewFromFloat(1),
				ResolvedUnitPrice: decimal.NewFromFloat(1),
				LineTotal:         decimal.NewFromFloat(100),
			},
		},
	}
	if err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestRepositoryOrderRoundTrip(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	defer tx.Rollback()

	repo := NewRepository(tx)
	customerID := uuid.New()
	created := mustCreateTestOrder(t, repo, customerID, 900001)

	found, err := repo.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if len(found.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(found.Items))
	}
	if found.Items[0].SKU != "STK-VNL-3X3" {
		t.Fatalf("unexpected sku %s", found.Items[0].SKU)
	}

	byNumber, err := repo.FindByNumber(context.Background(), 900001)
	if err != nil {
		t.Fatalf("find by number: %v", err)
	}
	if byNumber.ID != created.ID {
		t.Fatalf("id mismatch: %s != %s", byNumber.ID, created.ID)
	}
}

func TestRepositoryListByCustomerPaginates(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	defer tx.Rollback()

	repo := NewRepository(tx)
	customerID := uuid.New()
	for i := int64(0); i < 3; i++ {
		mustCreateTestOrder(t, repo, customerID, 910000+i)
	}

	page, next, err := repo.ListByCustomer(context.Background(), ListOrdersQuery{
		CustomerID: customerID,
		Limit:      2,
	})
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(page))
	}
	if next == nil {
		t.Fatal("expected a next cursor")
	}

	rest, _, err := repo.ListByCustomer(context.Background(), ListOrdersQuery{
		CustomerID: customerID,
		Limit:      2,
		Cursor:     next,
	})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(rest) != 1 {
		t.Fatalf("expected 1 order on second page, got %d", len(rest))
	}
}

func TestRepositoryNextOrderNumberIncrements(t *testing.T) {
	conn := openTestDB(t)

	var first, second int64
	err := conn.Transaction(func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		var err error
		if first, err = repo.NextOrderNumber(context.Background()); err != nil {
			return err
		}
		if second, err = repo.NextOrderNumber(context.Background()); err != nil {
			return err
		}
		return gorm.ErrInvalidTransaction
	})
	if err == nil {
		t.Fatal("expected rollback error")
	}
	if second != first+1 {
		t.Fatalf("expected consecutive numbers, got %d then %d", first, second)
	}
}
