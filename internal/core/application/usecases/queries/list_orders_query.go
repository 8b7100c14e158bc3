package queries

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

var ErrListOrdersQueryIsNotConstructed = errors.New(
	"ListOrdersQuery must be created via NewListOrdersQuery constructor",
)

// ListOrdersQuery selects orders for dashboards. States and origin use their
// wire names; an empty state list matches every state.
//
// Example:
//
//	query, err := NewListOrdersQuery([]string{"aprobado", "listo"}, "", "", 50)
type ListOrdersQuery struct {
	filter ports.OrderFilter
	guard  guard.ConstructorGuard
}

func NewListOrdersQuery(states []string, origin, search string, limit int) (ListOrdersQuery, error) {
	filter := ports.OrderFilter{Search: strings.TrimSpace(search), Limit: limit}

	var errList []error
	for _, raw := range states {
		s, err := order.ParseState(raw)
		if err != nil {
			errList = append(errList, err)
			continue
		}
		filter.States = append(filter.States, s)
	}
	if origin != "" {
		o, err := order.ParseOrigin(origin)
		if err != nil {
			errList = append(errList, err)
		} else {
			filter.Origin = &o
		}
	}
	switch {
	case limit == 0:
		filter.Limit = DefaultListLimit
	case limit < 0 || limit > MaxListLimit:
		errList = append(errList, errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxListLimit))
	}
	if err := errors.Join(errList...); err != nil {
		return ListOrdersQuery{}, err
	}

	return ListOrdersQuery{filter: filter, guard: guard.NewConstructorGuard()}, nil
}

func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

func (q ListOrdersQuery) Filter() ports.OrderFilter {
	return q.filter
}
