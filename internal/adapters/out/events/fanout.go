package events

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

// FanOut publishes to every target and joins their errors. A failing target
// does not prevent delivery to the others.
type FanOut []ports.EventPublisher

func (f FanOut) Publish(ctx context.Context, events ...order.StateChanged) error {
	var errs []error
	for _, target := range f {
		if target == nil {
			continue
		}
		if err := target.Publish(ctx, events...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
