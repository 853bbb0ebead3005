package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/outbox"
	"github.com/calebmoran/printworks-backend/pkg/outbox/payloads"
	"github.com/calebmoran/printworks-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Actor identifies who is driving an order transition.
type Actor struct {
	UserID     uuid.UUID
	CustomerID *uuid.UUID
	Role       enums.MemberRole
}

func (a *Actor) ref() *outbox.ActorRef {
	if a == nil || a.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{
		UserID:     a.UserID,
		CustomerID: a.CustomerID,
		Role:       a.Role.String(),
	}
}

// ProductionGate decides whether an order may enter production. The
// proofing workflow implements it: every line item that needs artwork
// approval must have an approved proof.
type ProductionGate interface {
	ReadyForProduction(ctx context.Context, orderID uuid.UUID) error
}

// Service exposes order lookup and lifecycle operations. Orders are
// created by checkout; from there they only move forward through
// production, or get cancelled before production starts.
type Service struct {
	repo   Repository
	client txRunner
	outbox outboxEmitter
	gate   ProductionGate
}

// NewService builds an orders service. The emitter and gate may be nil.
func NewService(repo Repository, client txRunner, emitter outboxEmitter, gate ProductionGate) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if client == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &Service{repo: repo, client: client, outbox: emitter, gate: gate}, nil
}

// nextStatus is the only forward step allowed from each state. Cancelled
// is reachable solely through Cancel.
var nextStatus = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusPending:      enums.OrderStatusInProduction,
	enums.OrderStatusInProduction: enums.OrderStatusShipped,
	enums.OrderStatusShipped:      enums.OrderStatusDelivered,
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return NewOrderDTO(order), nil
}

func (s *Service) GetByNumber(ctx context.Context, number int64) (*OrderDTO, error) {
	order, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return NewOrderDTO(order), nil
}

func (s *Service) List(ctx context.Context, customerID uuid.UUID, status *enums.OrderStatus, params pagination.Params) ([]OrderDTO, string, error) {
	if customerID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if status != nil && !status.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	orders, next, err := s.repo.ListByCustomer(ctx, ListOrdersQuery{
		CustomerID: customerID,
		Status:     status,
		Limit:      params.Limit,
		Cursor:     cursor,
	})
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	result := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		result = append(result, *NewOrderDTO(&orders[i]))
	}
	nextCursor := ""
	if next != nil {
		nextCursor = pagination.EncodeCursor(*next)
	}
	return result, nextCursor, nil
}

// UpdateStatusInput moves an order one step through its lifecycle.
type UpdateStatusInput struct {
	OrderID uuid.UUID
	Status  enums.OrderStatus
	Actor   *Actor
}

// UpdateStatus advances an order to the requested status. Only the next
// forward step from the current state is accepted; skipping states or
// moving backwards is a state conflict.
func (s *Service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if input.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "use cancel to cancel an order")
	}
	if input.Status == enums.OrderStatusInProduction && s.gate != nil {
		if err := s.gate.ReadyForProduction(ctx, input.OrderID); err != nil {
			if appErr := pkgerrors.As(err); appErr != nil {
				return nil, appErr
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check production readiness")
		}
	}

	var dto *OrderDTO
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return fmt.Errorf("load order: %w", err)
		}

		from := order.Status
		if from.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order is %s and cannot change status", from))
		}
		if nextStatus[from] != input.Status {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", from, input.Status))
		}

		now := time.Now().UTC()
		order.Status = input.Status
		switch input.Status {
		case enums.OrderStatusShipped:
			order.ShippedAt = &now
		case enums.OrderStatusDelivered:
			order.DeliveredAt = &now
		}
		if err := repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		if s.outbox != nil {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderStatusChanged,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         input.Actor.ref(),
				Version:       1,
				Data: payloads.OrderStatusChangedEvent{
					OrderID:    order.ID,
					CustomerID: order.CustomerID,
					From:       from,
					To:         order.Status,
				},
			}); err != nil {
				return fmt.Errorf("emit status event: %w", err)
			}
		}

		dto = NewOrderDTO(order)
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	return dto, nil
}

// CancelInput cancels a not-yet-produced order.
type CancelInput struct {
	OrderID uuid.UUID
	Reason  string
	Actor   *Actor
}

// Cancel cancels an order that has not entered production. Once work
// has started the order can only move forward.
func (s *Service) Cancel(ctx context.Context, input CancelInput) (*OrderDTO, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	var dto *OrderDTO
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return fmt.Errorf("load order: %w", err)
		}

		if order.Status == enums.OrderStatusCancelled {
			dto = NewOrderDTO(order)
			return nil
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order is %s and can no longer be cancelled", order.Status))
		}

		now := time.Now().UTC()
		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now
		if err := repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		if s.outbox != nil {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderCancelled,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         input.Actor.ref(),
				Version:       1,
				Data: payloads.OrderCancelledEvent{
					OrderID:     order.ID,
					CustomerID:  order.CustomerID,
					CancelledAt: now,
					Reason:      input.Reason,
				},
			}); err != nil {
				return fmt.Errorf("emit cancel event: %w", err)
			}
		}

		dto = NewOrderDTO(order)
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	return dto, nil
}
