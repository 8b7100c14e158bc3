package memory

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// ErrNoActiveTransaction is returned by Commit and Rollback without Begin.
var ErrNoActiveTransaction = errors.New("no active transaction")

type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

type stagedOrder struct {
	snapshot order.Snapshot
	// expected is the committed version the write was based on; 0 for inserts.
	expected int
	history  []order.HistoryEntry
}

type stagedCourier struct {
	snapshot courier.Snapshot
	expected int
}

// UnitOfWork stages writes and applies them atomically on Commit. Versions
// are checked when a write is staged and again under the store lock at
// commit, so two units of work that read the same version cannot both commit.
// Reads outside a transaction see committed state.
type UnitOfWork struct {
	store    *Store
	active   bool
	orders   map[kernel.UUID]*stagedOrder
	couriers map[kernel.UUID]*stagedCourier
}

func (uow *UnitOfWork) Begin(_ context.Context) error {
	if uow.active {
		return nil
	}
	uow.active = true
	uow.orders = make(map[kernel.UUID]*stagedOrder)
	uow.couriers = make(map[kernel.UUID]*stagedCourier)
	return nil
}

func (uow *UnitOfWork) Commit(_ context.Context) error {
	if !uow.active {
		return ErrNoActiveTransaction
	}
	defer uow.reset()

	s := uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, staged := range uow.orders {
		if err := checkOrderVersion(s, id, staged); err != nil {
			return err
		}
	}
	for id, staged := range uow.couriers {
		current, exists := s.couriers[id]
		switch {
		case staged.expected == 0 && exists:
			return errs.NewConflictError("courier", id, current.Version)
		case staged.expected > 0 && (!exists || current.Version != staged.expected):
			return errs.NewConflictError("courier", id, staged.expected)
		}
	}

	for id, staged := range uow.orders {
		s.orders[id] = staged.snapshot
		s.folios[staged.snapshot.Folio] = id
		s.history[id] = append(s.history[id], staged.history...)
	}
	for id, staged := range uow.couriers {
		s.couriers[id] = staged.snapshot
	}
	return nil
}

func (uow *UnitOfWork) Rollback(_ context.Context) error {
	if !uow.active {
		return ErrNoActiveTransaction
	}
	uow.reset()
	return nil
}

func (uow *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &OrderRepository{uow: uow}
}

func (uow *UnitOfWork) CourierRepository() ports.CourierRepository {
	return &CourierRepository{uow: uow}
}

func (uow *UnitOfWork) reset() {
	uow.active = false
	uow.orders = nil
	uow.couriers = nil
}

func checkOrderVersion(s *Store, id kernel.UUID, staged *stagedOrder) error {
	current, exists := s.orders[id]
	if staged.expected == 0 {
		if exists {
			return errs.NewConflictError("order", id, current.Version)
		}
		if owner, taken := s.folios[staged.snapshot.Folio]; taken && !owner.IsEqual(id) {
			return errs.NewConflictError("order folio", staged.snapshot.Folio, 0)
		}
		return nil
	}
	if !exists || current.Version != staged.expected {
		return errs.NewConflictError("order", staged.snapshot.Folio, staged.expected)
	}
	return nil
}
