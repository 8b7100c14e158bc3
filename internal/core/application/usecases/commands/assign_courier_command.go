package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrAssignCourierCommandIsNotConstructed = errors.New(
	"AssignCourierCommand must be created via NewAssignCourierCommand constructor",
)

// AssignCourierCommand asks the planner for a courier and dispatches an
// aprobado or listo order.
type AssignCourierCommand struct {
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewAssignCourierCommand(orderID kernel.UUID) (AssignCourierCommand, error) {
	if err := orderID.Validate(); err != nil {
		return AssignCourierCommand{}, err
	}
	return AssignCourierCommand{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (c AssignCourierCommand) Validate() error {
	return c.guard.Validate(ErrAssignCourierCommandIsNotConstructed)
}

func (c AssignCourierCommand) OrderID() kernel.UUID {
	return c.orderID
}
