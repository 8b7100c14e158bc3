package queries

import (
	"context"
)

// ListOrdersQueryHandler returns orders ordered by creation time, then id.
type ListOrdersQueryHandler struct {
	orders OrderReader
}

func NewListOrdersQueryHandler(orders OrderReader) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{orders: orders}
}

func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]OrderView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	list, err := h.orders.ListByFilter(ctx, query.Filter())
	if err != nil {
		return nil, err
	}

	views := make([]OrderView, 0, len(list))
	for _, o := range list {
		views = append(views, NewOrderView(o))
	}
	return views, nil
}
