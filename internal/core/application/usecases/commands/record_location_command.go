package commands

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrRecordLocationCommandIsNotConstructed = errors.New(
	"RecordLocationCommand must be created via NewRecordLocationCommand constructor",
)

// RecordLocationCommand is one position report from a courier device.
type RecordLocationCommand struct {
	sample courier.LocationSample
	guard  guard.ConstructorGuard
}

func NewRecordLocationCommand(
	courierID kernel.UUID,
	lat, lng float64,
	reportedAt time.Time,
	batteryPct *int,
) (RecordLocationCommand, error) {
	point, err := kernel.NewGeoPoint(lat, lng)
	if err != nil {
		return RecordLocationCommand{}, err
	}

	sample, err := courier.NewLocationSample(courierID, point, reportedAt, batteryPct)
	if err != nil {
		return RecordLocationCommand{}, err
	}

	return RecordLocationCommand{sample: sample, guard: guard.NewConstructorGuard()}, nil
}

func (c RecordLocationCommand) Validate() error {
	return c.guard.Validate(ErrRecordLocationCommandIsNotConstructed)
}

func (c RecordLocationCommand) Sample() courier.LocationSample {
	return c.sample
}
