package queries

import (
	"context"
)

type GetOrderQueryHandler struct {
	orders OrderReader
}

func NewGetOrderQueryHandler(orders OrderReader) GetOrderQueryHandler {
	return GetOrderQueryHandler{orders: orders}
}

// Handle returns the order or an *errs.ObjectNotFoundError.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (OrderView, error) {
	if err := query.Validate(); err != nil {
		return OrderView{}, err
	}

	o, err := h.orders.Get(ctx, query.OrderID())
	if err != nil {
		return OrderView{}, err
	}
	return NewOrderView(o), nil
}

// GetOrderHistoryQueryHandler returns the audit trail in commit order.
type GetOrderHistoryQueryHandler struct {
	orders OrderReader
}

func NewGetOrderHistoryQueryHandler(orders OrderReader) GetOrderHistoryQueryHandler {
	return GetOrderHistoryQueryHandler{orders: orders}
}

func (h GetOrderHistoryQueryHandler) Handle(ctx context.Context, query GetOrderHistoryQuery) ([]HistoryView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	entries, err := h.orders.History(ctx, query.OrderID())
	if err != nil {
		return nil, err
	}

	views := make([]HistoryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, NewHistoryView(e))
	}
	return views, nil
}
