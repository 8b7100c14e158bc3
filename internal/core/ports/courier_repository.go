// Package ports defines the contracts between the dispatch core and its
// adapters: repositories, the unit of work, the location feed and the event
// publisher.
package ports

import (
	"context"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
)

// CourierRepository defines the persistence contract for courier aggregates.
type CourierRepository interface {
	// Add persists a newly registered courier.
	Add(ctx context.Context, aggregate *courier.Courier) error

	// Update persists the active order set guarded by optimistic concurrency,
	// like OrderRepository.Update.
	Update(ctx context.Context, aggregate *courier.Courier) error

	// Get retrieves a courier. Returns *errs.ObjectNotFoundError when missing.
	Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error)

	// GetAll returns every known courier ordered by id. Couriers are never deleted.
	GetAll(ctx context.Context) ([]*courier.Courier, error)
}
