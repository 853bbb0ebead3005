package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/outbox"
	"github.com/calebmoran/printworks-backend/pkg/outbox/payloads"
	"github.com/calebmoran/printworks-backend/pkg/pagination"
)

type fakeOrderRepo struct {
	orders  map[uuid.UUID]*models.Order
	updated *models.Order
	listed  []models.Order
	next    *pagination.Cursor
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (f *fakeOrderRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	copied := *order
	f.orders[order.ID] = &copied
	return nil
}

func (f *fakeOrderRepo) Update(ctx context.Context, order *models.Order) error {
	copied := *order
	f.orders[order.ID] = &copied
	f.updated = &copied
	return nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderRepo) FindByNumber(ctx context.Context, number int64) (*models.Order, error) {
	for _, order := range f.orders {
		if order.OrderNumber == number {
			copied := *order
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrderRepo) ListByCustomer(ctx context.Context, params ListOrdersQuery) ([]models.Order, *pagination.Cursor, error) {
	return f.listed, f.next, nil
}

func (f *fakeOrderRepo) NextOrderNumber(ctx context.Context) (int64, error) {
	return 1001, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func seedOrder(t *testing.T, repo *fakeOrderRepo, status enums.OrderStatus) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:          uuid.New(),
		OrderNumber: 1001,
		CustomerID:  uuid.New(),
		Status:      status,
		Currency:    enums.CurrencyUSD,
		Subtotal:    decimal.NewFromFloat(95),
		Total:       decimal.NewFromFloat(101.89),
	}
	repo.orders[order.ID] = order
	return order
}

type fakeGate struct {
	err   error
	calls []uuid.UUID
}

func (f *fakeGate) ReadyForProduction(ctx context.Context, orderID uuid.UUID) error {
	f.calls = append(f.calls, orderID)
	return f.err
}

func newTestService(t *testing.T, repo *fakeOrderRepo, emitter *fakeEmitter) *Service {
	t.Helper()
	svc, err := NewService(repo, fakeTxRunner{}, emitter, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestUpdateStatusAdvancesOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	emitter := &fakeEmitter{}
	svc := newTestService(t, repo, emitter)
	order := seedOrder(t, repo, enums.OrderStatusPending)

	dto, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusInProduction,
		Actor:   &Actor{UserID: uuid.New(), Role: enums.MemberRoleStaff},
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if dto.Status != "in_production" {
		t.Fatalf("expected in_production, got %s", dto.Status)
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(emitter.events))
	}
	event := emitter.events[0]
	if event.EventType != enums.EventOrderStatusChanged {
		t.Fatalf("unexpected event type %s", event.EventType)
	}
	if event.Actor == nil || event.Actor.Role != "staff" {
		t.Fatalf("expected staff actor on event, got %+v", event.Actor)
	}
	data, ok := event.Data.(payloads.OrderStatusChangedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", event.Data)
	}
	if data.From != enums.OrderStatusPending || data.To != enums.OrderStatusInProduction {
		t.Fatalf("unexpected transition %s -> %s", data.From, data.To)
	}
}

func TestUpdateStatusSetsTimestamps(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(t, repo, &fakeEmitter{})
	order := seedOrder(t, repo, enums.OrderStatusInProduction)

	dto, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusShipped,
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if dto.ShippedAt == nil {
		t.Fatal("expected shipped_at to be set")
	}

	dto, err = svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusDelivered,
	})
	if err != nil {
		t.Fatalf("UpdateStatus to delivered: %v", err)
	}
	if dto.DeliveredAt == nil {
		t.Fatal("expected delivered_at to be set")
	}
}

func TestUpdateStatusRejectsSkippedState(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(t, repo, &fakeEmitter{})
	order := seedOrder(t, repo, enums.OrderStatusPending)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusShipped,
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestUpdateStatusRejectsTerminalOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(t, repo, &fakeEmitter{})
	order := seedOrder(t, repo, enums.OrderStatusDelivered)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusInProduction,
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestUpdateStatusRejectsCancelledTarget(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(t, repo, &fakeEmitter{})
	order := seedOrder(t, repo, enums.OrderStatusPending)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusCancelled,
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCancelPendingOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	emitter := &fakeEmitter{}
	svc := newTestService(t, repo, emitter)
	order := seedOrder(t, repo, enums.OrderStatusPending)

	dto, err := svc.Cancel(context.Background(), CancelInput{
		OrderID: order.ID,
		Reason:  "customer request",
	})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if dto.Status != "cancelled" {
		t.Fatalf("expected cancelled, got %s", dto.Status)
	}
	if dto.CancelledAt == nil {
		t.Fatal("expected cancelled_at to be set")
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(emitter.events))
	}
	data, ok := emitter.events[0].Data.(payloads.OrderCancelledEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", emitter.events[0].Data)
	}
	if data.Reason != "customer request" {
		t.Fatalf("unexpected reason %q", data.Reason)
	}
}

func TestCancelAfterProductionStarts(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(t, repo, &fakeEmitter{})

	for _, status := range []enums.OrderStatus{
		enums.OrderStatusInProduction,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
	} {
		order := seedOrder(t, repo, status)
		_, err := svc.Cancel(context.Background(), CancelInput{OrderID: order.ID})
		coded := pkgerrors.As(err)
		if coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
			t.Fatalf("status %s: expected state conflict, got %v", status, err)
		}
	}
}

func TestCancelAlreadyCancelledIsIdempotent(t *testing.T) {
	repo := newFakeOrderRepo()
	emitter := &fakeEmitter{}
	svc := newTestService(t, repo, emitter)
	cancelledAt := time.Now().UTC().Add(-time.Hour)
	order := seedOrder(t, repo, enums.OrderStatusCancelled)
	order.CancelledAt = &cancelledAt

	dto, err := svc.Cancel(context.Background(), CancelInput{OrderID: order.ID})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if dto.Status != "cancelled" {
		t.Fatalf("expected cancelled, got %s", dto.Status)
	}
	if len(emitter.events) != 0 {
		t.Fatalf("expected no events, got %d", len(emitter.events))
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(t, repo, &fakeEmitter{})

	_, err := svc.GetByID(context.Background(), uuid.New())
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListEncodesNextCursor(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(t, repo, &fakeEmitter{})
	customerID := uuid.New()
	last := models.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		Status:     enums.OrderStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	repo.listed = []models.Order{last}
	repo.next = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}

	result, next, err := svc.List(context.Background(), customerID, nil, pagination.Params{Limit: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 order, got %d", len(result))
	}
	if next == "" {
		t.Fatal("expected a next cursor")
	}
	parsed, err := pagination.ParseCursor(next)
	if err != nil {
		t.Fatalf("ParseCursor: %v", err)
	}
	if parsed.ID != last.ID {
		t.Fatalf("cursor id mismatch: %s != %s", parsed.ID, last.ID)
	}
}

func TestListValidation(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(t, repo, &fakeEmitter{})

	_, _, err := svc.List(context.Background(), uuid.Nil, nil, pagination.Params{})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	bad := enums.OrderStatus("archived")
	_, _, err = svc.List(context.Background(), uuid.New(), &bad, pagination.Params{})
	coded = pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad status, got %v", err)
	}
}

func TestUpdateStatusBlockedByProductionGate(t *testing.T) {
	repo := newFakeOrderRepo()
	emitter := &fakeEmitter{}
	gate := &fakeGate{err: pkgerrors.New(pkgerrors.CodeStateConflict, "2 proofs awaiting approval")}
	svc, err := NewService(repo, fakeTxRunner{}, emitter, gate)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	order := seedOrder(t, repo, enums.OrderStatusPending)

	_, err = svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusInProduction,
	})
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(gate.calls) != 1 || gate.calls[0] != order.ID {
		t.Fatalf("gate not consulted, calls %v", gate.calls)
	}
	if repo.updated != nil {
		t.Fatal("order must not change when the gate rejects")
	}
	if len(emitter.events) != 0 {
		t.Fatal("no events expected when the gate rejects")
	}
}

func TestProductionGateSkippedForLaterSteps(t *testing.T) {
	repo := newFakeOrderRepo()
	gate := &fakeGate{err: pkgerrors.New(pkgerrors.CodeStateConflict, "should not be called")}
	svc, err := NewService(repo, fakeTxRunner{}, &fakeEmitter{}, gate)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	order := seedOrder(t, repo, enums.OrderStatusInProduction)

	if _, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusShipped,
	}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if len(gate.calls) != 0 {
		t.Fatal("gate must only guard the move into production")
	}
}
