package commands

import (
	"context"

	"dispatch/internal/core/domain/model/courier"
)

// CreateCourierCommandHandler persists a newly registered courier with an
// empty active order set.
type CreateCourierCommandHandler struct {
	uowFactory CourierUoWFactory
	clock      Clock
}

func NewCreateCourierCommandHandler(uowFactory CourierUoWFactory, clock Clock) CreateCourierCommandHandler {
	if clock == nil {
		clock = SystemClock
	}
	return CreateCourierCommandHandler{uowFactory: uowFactory, clock: clock}
}

func (h CreateCourierCommandHandler) Handle(ctx context.Context, cmd CreateCourierCommand) (*courier.Courier, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	c, err := courier.NewCourier(cmd.CourierID(), cmd.DisplayName(), cmd.Phone(), h.clock())
	if err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.CourierRepository().Add(ctx, c); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return c, nil
}
