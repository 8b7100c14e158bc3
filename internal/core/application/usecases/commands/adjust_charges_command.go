package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrAdjustChargesCommandIsNotConstructed = errors.New(
	"AdjustChargesCommand must be created via NewAdjustChargesCommand constructor",
)

// AdjustChargesCommand replaces taxes and shipping cost of an order that has
// not left aprobado yet.
type AdjustChargesCommand struct {
	orderID      kernel.UUID
	taxes        decimal.Decimal
	shippingCost decimal.Decimal
	guard        guard.ConstructorGuard
}

func NewAdjustChargesCommand(orderID kernel.UUID, taxes, shippingCost decimal.Decimal) (AdjustChargesCommand, error) {
	if err := orderID.Validate(); err != nil {
		return AdjustChargesCommand{}, err
	}
	return AdjustChargesCommand{
		orderID:      orderID,
		taxes:        taxes,
		shippingCost: shippingCost,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (c AdjustChargesCommand) Validate() error {
	return c.guard.Validate(ErrAdjustChargesCommandIsNotConstructed)
}

func (c AdjustChargesCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c AdjustChargesCommand) Taxes() decimal.Decimal {
	return c.taxes
}

func (c AdjustChargesCommand) ShippingCost() decimal.Decimal {
	return c.shippingCost
}
