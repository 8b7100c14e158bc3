package queries

import (
	"context"
	"time"

	"dispatch/internal/pkg/errs"
)

// GetCourierLocationQueryHandler returns the newest sample of a courier.
// Both an unknown courier and a courier that never reported are not found.
type GetCourierLocationQueryHandler struct {
	couriers  CourierReader
	locations LocationReader
}

func NewGetCourierLocationQueryHandler(couriers CourierReader, locations LocationReader) GetCourierLocationQueryHandler {
	return GetCourierLocationQueryHandler{couriers: couriers, locations: locations}
}

func (h GetCourierLocationQueryHandler) Handle(ctx context.Context, query GetCourierLocationQuery) (LocationView, error) {
	if err := query.Validate(); err != nil {
		return LocationView{}, err
	}

	if _, err := h.couriers.Get(ctx, query.CourierID()); err != nil {
		return LocationView{}, err
	}

	sample, ok := h.locations.Latest(query.CourierID())
	if !ok {
		return LocationView{}, errs.NewObjectNotFoundError("location", query.CourierID())
	}
	return NewLocationView(sample), nil
}

// GetCourierTrailQueryHandler returns recent samples oldest first. The
// trail is bounded by the feed retention regardless of the window asked for.
type GetCourierTrailQueryHandler struct {
	couriers  CourierReader
	locations LocationReader
	now       func() time.Time
}

func NewGetCourierTrailQueryHandler(
	couriers CourierReader,
	locations LocationReader,
	now func() time.Time,
) GetCourierTrailQueryHandler {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return GetCourierTrailQueryHandler{couriers: couriers, locations: locations, now: now}
}

func (h GetCourierTrailQueryHandler) Handle(ctx context.Context, query GetCourierTrailQuery) ([]LocationView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	if _, err := h.couriers.Get(ctx, query.CourierID()); err != nil {
		return nil, err
	}

	trail := h.locations.RecentTrail(query.CourierID(), query.Window(), h.now())
	views := make([]LocationView, 0, len(trail))
	for _, s := range trail {
		views = append(views, NewLocationView(s))
	}
	return views, nil
}
