package ports

import (
	"context"

	"dispatch/internal/core/domain/model/order"
)

// EventPublisher delivers committed state changes to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...order.StateChanged) error
}
