package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrRejectOrderCommandIsNotConstructed = errors.New(
	"RejectOrderCommand must be created via NewRejectOrderCommand constructor",
)

// RejectOrderCommand declines a pendiente order at intake.
// The reason is checked by the state machine, not here.
type RejectOrderCommand struct {
	orderID kernel.UUID
	reason  string
	guard   guard.ConstructorGuard
}

func NewRejectOrderCommand(orderID kernel.UUID, reason string) (RejectOrderCommand, error) {
	if err := orderID.Validate(); err != nil {
		return RejectOrderCommand{}, err
	}
	return RejectOrderCommand{
		orderID: orderID,
		reason:  strings.TrimSpace(reason),
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c RejectOrderCommand) Validate() error {
	return c.guard.Validate(ErrRejectOrderCommandIsNotConstructed)
}

func (c RejectOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c RejectOrderCommand) Reason() string {
	return c.reason
}
