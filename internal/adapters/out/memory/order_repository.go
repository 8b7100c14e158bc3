package memory

import (
	"context"
	"slices"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

var _ ports.OrderRepository = (*OrderRepository)(nil)

type OrderRepository struct {
	uow *UnitOfWork
}

func (r *OrderRepository) Add(_ context.Context, aggregate *order.Order) error {
	if !r.uow.active {
		return ErrNoActiveTransaction
	}
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if r.uow.store.folioTaken(aggregate.Folio()) {
		return errs.NewConflictError("order folio", aggregate.Folio(), 0)
	}
	if _, exists := r.uow.store.order(aggregate.ID()); exists {
		return errs.NewConflictError("order", aggregate.ID(), aggregate.Version())
	}

	return r.stage(aggregate, 0)
}

func (r *OrderRepository) Update(_ context.Context, aggregate *order.Order) error {
	if !r.uow.active {
		return ErrNoActiveTransaction
	}
	if err := aggregate.Validate(); err != nil {
		return err
	}

	current, exists := r.current(aggregate.ID())
	if !exists {
		return errs.NewObjectNotFoundError("orderID", aggregate.ID())
	}
	if current.Version != aggregate.Version() {
		return errs.NewConflictError("order", aggregate.Folio(), aggregate.Version())
	}

	expected := aggregate.Version()
	if staged, ok := r.uow.orders[aggregate.ID()]; ok {
		expected = staged.expected
	}
	aggregate.AdvanceVersion()
	return r.stage(aggregate, expected)
}

func (r *OrderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	snapshot, exists := r.current(id)
	if !exists {
		return nil, errs.NewObjectNotFoundError("orderID", id)
	}
	return order.RestoreOrder(snapshot)
}

func (r *OrderRepository) ListByFilter(_ context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	snapshots := r.uow.store.listOrders(filter)
	out := make([]*order.Order, 0, len(snapshots))
	for _, snapshot := range snapshots {
		o, err := order.RestoreOrder(snapshot)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *OrderRepository) History(_ context.Context, id kernel.UUID) ([]order.HistoryEntry, error) {
	if _, exists := r.current(id); !exists {
		return nil, errs.NewObjectNotFoundError("orderID", id)
	}
	history := r.uow.store.orderHistory(id)
	if staged, ok := r.uow.orders[id]; ok {
		history = append(history, staged.history...)
	}
	return history, nil
}

// current returns the staged snapshot of this unit of work, or the committed one.
func (r *OrderRepository) current(id kernel.UUID) (order.Snapshot, bool) {
	if staged, ok := r.uow.orders[id]; ok {
		return staged.snapshot, true
	}
	return r.uow.store.order(id)
}

func (r *OrderRepository) stage(aggregate *order.Order, expected int) error {
	var history []order.HistoryEntry
	if prev, ok := r.uow.orders[aggregate.ID()]; ok {
		history = prev.history
	}
	r.uow.orders[aggregate.ID()] = &stagedOrder{
		snapshot: aggregate.Snapshot(),
		expected: expected,
		history:  append(slices.Clone(history), aggregate.PendingHistory()...),
	}
	aggregate.ClearPendingHistory()
	return nil
}
