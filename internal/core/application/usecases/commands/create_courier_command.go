package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrCreateCourierCommandIsNotConstructed = errors.New(
	"CreateCourierCommand must be created via NewCreateCourierCommand constructor",
)

// CreateCourierCommand registers a courier (rutero).
type CreateCourierCommand struct {
	courierID   kernel.UUID
	displayName string
	phone       string
	guard       guard.ConstructorGuard
}

func NewCreateCourierCommand(courierID kernel.UUID, displayName, phone string) (CreateCourierCommand, error) {
	if err := courierID.Validate(); err != nil {
		return CreateCourierCommand{}, err
	}
	if displayName == "" {
		return CreateCourierCommand{}, courier.ErrDisplayNameIsRequired
	}
	return CreateCourierCommand{
		courierID:   courierID,
		displayName: displayName,
		phone:       phone,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (c CreateCourierCommand) Validate() error {
	return c.guard.Validate(ErrCreateCourierCommandIsNotConstructed)
}

func (c CreateCourierCommand) CourierID() kernel.UUID {
	return c.courierID
}

func (c CreateCourierCommand) DisplayName() string {
	return c.displayName
}

func (c CreateCourierCommand) Phone() string {
	return c.phone
}
