package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrReassignCourierCommandIsNotConstructed = errors.New(
	"ReassignCourierCommand must be created via NewReassignCourierCommand constructor",
)

// ReassignCourierCommand moves an en_ruta order to a different courier.
type ReassignCourierCommand struct {
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewReassignCourierCommand(orderID kernel.UUID) (ReassignCourierCommand, error) {
	if err := orderID.Validate(); err != nil {
		return ReassignCourierCommand{}, err
	}
	return ReassignCourierCommand{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (c ReassignCourierCommand) Validate() error {
	return c.guard.Validate(ErrReassignCourierCommandIsNotConstructed)
}

func (c ReassignCourierCommand) OrderID() kernel.UUID {
	return c.orderID
}
