// Package queries contains read operations for retrieving system state.
// Queries never mutate aggregates; they read committed state through the
// repository contracts and the location feed and return read models.
package queries

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

// OrderReader is the read side of ports.OrderRepository.
type OrderReader interface {
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)
	ListByFilter(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error)
	History(ctx context.Context, id kernel.UUID) ([]order.HistoryEntry, error)
}

// CourierReader is the read side of ports.CourierRepository.
type CourierReader interface {
	Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error)
	GetAll(ctx context.Context) ([]*courier.Courier, error)
}

// LocationReader is the read side of ports.LocationFeed.
type LocationReader interface {
	Latest(courierID kernel.UUID) (courier.LocationSample, bool)
	RecentTrail(courierID kernel.UUID, window time.Duration, now time.Time) []courier.LocationSample
}
