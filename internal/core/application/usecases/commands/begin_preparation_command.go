package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrBeginPreparationCommandIsNotConstructed = errors.New(
	"BeginPreparationCommand must be created via NewBeginPreparationCommand constructor",
)

// BeginPreparationCommand starts the explicit preparation step of an approved order.
type BeginPreparationCommand struct {
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewBeginPreparationCommand(orderID kernel.UUID) (BeginPreparationCommand, error) {
	if err := orderID.Validate(); err != nil {
		return BeginPreparationCommand{}, err
	}
	return BeginPreparationCommand{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (c BeginPreparationCommand) Validate() error {
	return c.guard.Validate(ErrBeginPreparationCommandIsNotConstructed)
}

func (c BeginPreparationCommand) OrderID() kernel.UUID {
	return c.orderID
}
