package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrConfirmDeliveryCommandIsNotConstructed = errors.New(
	"ConfirmDeliveryCommand must be created via NewConfirmDeliveryCommand constructor",
)

// ConfirmDeliveryCommand records that the courier delivered the order.
type ConfirmDeliveryCommand struct {
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewConfirmDeliveryCommand(orderID kernel.UUID) (ConfirmDeliveryCommand, error) {
	if err := orderID.Validate(); err != nil {
		return ConfirmDeliveryCommand{}, err
	}
	return ConfirmDeliveryCommand{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (c ConfirmDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrConfirmDeliveryCommandIsNotConstructed)
}

func (c ConfirmDeliveryCommand) OrderID() kernel.UUID {
	return c.orderID
}
