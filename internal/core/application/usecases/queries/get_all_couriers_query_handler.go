package queries

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/courier"
)

// GetAllCouriersQueryHandler pairs every stored courier with its newest
// location sample. Availability is derived at read time: offline without a
// sample fresher than the threshold, en_ruta while holding orders.
type GetAllCouriersQueryHandler struct {
	couriers  CourierReader
	locations LocationReader
	freshness time.Duration
	now       func() time.Time
}

func NewGetAllCouriersQueryHandler(
	couriers CourierReader,
	locations LocationReader,
	freshness time.Duration,
	now func() time.Time,
) GetAllCouriersQueryHandler {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return GetAllCouriersQueryHandler{
		couriers:  couriers,
		locations: locations,
		freshness: freshness,
		now:       now,
	}
}

// Handle returns couriers ordered by id.
func (h GetAllCouriersQueryHandler) Handle(ctx context.Context, query GetAllCouriersQuery) ([]CourierView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	all, err := h.couriers.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	now := h.now()
	views := make([]CourierView, 0, len(all))
	for _, c := range all {
		view := CourierView{
			ID:           c.ID(),
			DisplayName:  c.DisplayName(),
			Phone:        c.Phone(),
			ActiveOrders: c.ActiveOrders(),
		}

		var latest *courier.LocationSample
		if sample, ok := h.locations.Latest(c.ID()); ok {
			latest = &sample
			location := NewLocationView(sample)
			view.Latest = &location
		}
		view.Availability = string(courier.DeriveAvailability(latest, c.ActiveCount(), now, h.freshness))

		views = append(views, view)
	}
	return views, nil
}
