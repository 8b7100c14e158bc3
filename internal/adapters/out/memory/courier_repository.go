package memory

import (
	"context"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

var _ ports.CourierRepository = (*CourierRepository)(nil)

type CourierRepository struct {
	uow *UnitOfWork
}

func (r *CourierRepository) Add(_ context.Context, aggregate *courier.Courier) error {
	if !r.uow.active {
		return ErrNoActiveTransaction
	}
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if _, exists := r.current(aggregate.ID()); exists {
		return errs.NewConflictError("courier", aggregate.ID(), aggregate.Version())
	}
	return r.stage(aggregate, 0)
}

func (r *CourierRepository) Update(_ context.Context, aggregate *courier.Courier) error {
	if !r.uow.active {
		return ErrNoActiveTransaction
	}
	if err := aggregate.Validate(); err != nil {
		return err
	}

	current, exists := r.current(aggregate.ID())
	if !exists {
		return errs.NewObjectNotFoundError("courierID", aggregate.ID())
	}
	if current.Version != aggregate.Version() {
		return errs.NewConflictError("courier", aggregate.ID(), aggregate.Version())
	}

	expected := aggregate.Version()
	if staged, ok := r.uow.couriers[aggregate.ID()]; ok {
		expected = staged.expected
	}
	aggregate.AdvanceVersion()
	return r.stage(aggregate, expected)
}

func (r *CourierRepository) Get(_ context.Context, id kernel.UUID) (*courier.Courier, error) {
	snapshot, exists := r.current(id)
	if !exists {
		return nil, errs.NewObjectNotFoundError("courierID", id)
	}
	return courier.RestoreCourier(snapshot)
}

func (r *CourierRepository) GetAll(_ context.Context) ([]*courier.Courier, error) {
	snapshots := r.uow.store.listCouriers()
	out := make([]*courier.Courier, 0, len(snapshots))
	for _, snapshot := range snapshots {
		if staged, ok := r.uow.couriers[snapshot.ID]; ok {
			snapshot = staged.snapshot
		}
		c, err := courier.RestoreCourier(snapshot)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *CourierRepository) current(id kernel.UUID) (courier.Snapshot, bool) {
	if staged, ok := r.uow.couriers[id]; ok {
		return staged.snapshot, true
	}
	return r.uow.store.courier(id)
}

func (r *CourierRepository) stage(aggregate *courier.Courier, expected int) error {
	r.uow.couriers[aggregate.ID()] = &stagedCourier{
		snapshot: aggregate.Snapshot(),
		expected: expected,
	}
	return nil
}
