package queries

import (
	"errors"

	"dispatch/internal/pkg/guard"
)

var ErrGetAllCouriersQueryIsNotConstructed = errors.New(
	"GetAllCouriersQuery must be created via NewGetAllCouriersQuery constructor",
)

// GetAllCouriersQuery lists every courier with derived availability.
//
// Example:
//
//	query := NewGetAllCouriersQuery()
//	couriers, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to retrieve couriers: %w", err)
//	}
//	for _, c := range couriers {
//	    fmt.Printf("%s is %s with %d orders\n", c.DisplayName, c.Availability, len(c.ActiveOrders))
//	}
type GetAllCouriersQuery struct {
	guard guard.ConstructorGuard
}

func NewGetAllCouriersQuery() GetAllCouriersQuery {
	return GetAllCouriersQuery{guard: guard.NewConstructorGuard()}
}

func (q GetAllCouriersQuery) Validate() error {
	return q.guard.Validate(ErrGetAllCouriersQueryIsNotConstructed)
}
