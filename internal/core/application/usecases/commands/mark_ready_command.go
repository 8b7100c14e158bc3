package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrMarkReadyCommandIsNotConstructed = errors.New(
	"MarkReadyCommand must be created via NewMarkReadyCommand constructor",
)

// MarkReadyCommand marks a prepared order as ready for dispatch.
type MarkReadyCommand struct {
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewMarkReadyCommand(orderID kernel.UUID) (MarkReadyCommand, error) {
	if err := orderID.Validate(); err != nil {
		return MarkReadyCommand{}, err
	}
	return MarkReadyCommand{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (c MarkReadyCommand) Validate() error {
	return c.guard.Validate(ErrMarkReadyCommandIsNotConstructed)
}

func (c MarkReadyCommand) OrderID() kernel.UUID {
	return c.orderID
}
