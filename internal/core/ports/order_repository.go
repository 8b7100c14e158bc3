package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderFilter narrows ListByFilter. Zero fields do not filter.
type OrderFilter struct {
	// States matches any of the listed states.
	States []order.State
	Origin *order.Origin
	// Origins matches any of the listed origins.
	Origins []order.Origin
	// Search matches folio, customer reference or address, case-insensitively.
	Search string
	// Limit caps the result size; 0 means no limit.
	Limit int
}

// OrderRepository defines the persistence contract for order aggregates.
// Results are ordered by creation time, then id.
type OrderRepository interface {
	// Add persists a new order. A duplicate folio fails with a conflict error.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes guarded by optimistic concurrency: the stored
	// version must equal aggregate.Version(), otherwise an *errs.ConflictError
	// is returned. On success the aggregate version is advanced and its pending
	// history is appended to the audit trail.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order. Returns *errs.ObjectNotFoundError when missing.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// ListByFilter returns orders matching the filter.
	ListByFilter(ctx context.Context, filter OrderFilter) ([]*order.Order, error)

	// History returns the audit trail of an order in commit order.
	History(ctx context.Context, id kernel.UUID) ([]order.HistoryEntry, error)
}
