package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	ErrGetCourierLocationQueryIsNotConstructed = errors.New(
		"GetCourierLocationQuery must be created via NewGetCourierLocationQuery constructor",
	)
	ErrGetCourierTrailQueryIsNotConstructed = errors.New(
		"GetCourierTrailQuery must be created via NewGetCourierTrailQuery constructor",
	)
)

type GetCourierLocationQuery struct {
	courierID kernel.UUID
	guard     guard.ConstructorGuard
}

func NewGetCourierLocationQuery(courierID kernel.UUID) (GetCourierLocationQuery, error) {
	if err := courierID.Validate(); err != nil {
		return GetCourierLocationQuery{}, err
	}
	return GetCourierLocationQuery{courierID: courierID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetCourierLocationQuery) Validate() error {
	return q.guard.Validate(ErrGetCourierLocationQueryIsNotConstructed)
}

func (q GetCourierLocationQuery) CourierID() kernel.UUID {
	return q.courierID
}

// GetCourierTrailQuery reads the samples reported within window before now.
type GetCourierTrailQuery struct {
	courierID kernel.UUID
	window    time.Duration
	guard     guard.ConstructorGuard
}

func NewGetCourierTrailQuery(courierID kernel.UUID, window time.Duration) (GetCourierTrailQuery, error) {
	if err := courierID.Validate(); err != nil {
		return GetCourierTrailQuery{}, err
	}
	if window <= 0 {
		return GetCourierTrailQuery{}, errs.NewValueIsInvalidError("window")
	}
	return GetCourierTrailQuery{courierID: courierID, window: window, guard: guard.NewConstructorGuard()}, nil
}

func (q GetCourierTrailQuery) Validate() error {
	return q.guard.Validate(ErrGetCourierTrailQueryIsNotConstructed)
}

func (q GetCourierTrailQuery) CourierID() kernel.UUID {
	return q.courierID
}

func (q GetCourierTrailQuery) Window() time.Duration {
	return q.window
}
