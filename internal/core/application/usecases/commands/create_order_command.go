package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand is the intake of a new order from telemarketing,
// a branch, e-commerce or a courier. Pricing is not verified, only the
// presence and shape of the fields.
//
// Example:
//
//	item, _ := order.NewLineItem("SKU-AGUA-20L", 2, decimal.RequireFromString("35.50"))
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), order.Intake{
//	    Folio:    "TLM-000123",
//	    Origin:   order.OriginTelemarketing,
//	    Items:    []order.LineItem{item},
//	    Priority: order.PriorityNormal,
//	})
type CreateOrderCommand struct {
	orderID kernel.UUID
	intake  order.Intake
	guard   guard.ConstructorGuard
}

func NewCreateOrderCommand(orderID kernel.UUID, intake order.Intake) (CreateOrderCommand, error) {
	if err := orderID.Validate(); err != nil {
		return CreateOrderCommand{}, err
	}
	return CreateOrderCommand{
		orderID: orderID,
		intake:  intake,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c CreateOrderCommand) Intake() order.Intake {
	return c.intake
}
