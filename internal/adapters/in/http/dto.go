package http

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type NewLineItem struct {
	ProductRef string `json:"product_ref"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
}

type NewOrder struct {
	Folio        string        `json:"folio"`
	Origin       string        `json:"origin"`
	CustomerRef  string        `json:"customer_ref"`
	Address      string        `json:"address"`
	Destination  *Point        `json:"destination"`
	Items        []NewLineItem `json:"items"`
	Taxes        string        `json:"taxes"`
	ShippingCost string        `json:"shipping_cost"`
	Priority     string        `json:"priority"`
}

// Intake converts the request into the domain intake, reporting every
// malformed field at once.
func (r NewOrder) Intake() (order.Intake, error) {
	var errList []error

	origin, err := order.ParseOrigin(r.Origin)
	if err != nil {
		errList = append(errList, err)
	}
	priority, err := order.ParsePriority(r.Priority)
	if err != nil {
		errList = append(errList, err)
	}
	taxes, err := parseMoney("taxes", r.Taxes)
	if err != nil {
		errList = append(errList, err)
	}
	shipping, err := parseMoney("shipping_cost", r.ShippingCost)
	if err != nil {
		errList = append(errList, err)
	}

	var destination *kernel.GeoPoint
	if r.Destination != nil {
		point, pointErr := kernel.NewGeoPoint(r.Destination.Lat, r.Destination.Lng)
		if pointErr != nil {
			errList = append(errList, pointErr)
		} else {
			destination = &point
		}
	}

	items := make([]order.LineItem, 0, len(r.Items))
	for _, raw := range r.Items {
		price, priceErr := parseMoney("unit_price", raw.UnitPrice)
		if priceErr != nil {
			errList = append(errList, priceErr)
			continue
		}
		item, itemErr := order.NewLineItem(raw.ProductRef, raw.Quantity, price)
		if itemErr != nil {
			errList = append(errList, itemErr)
			continue
		}
		items = append(items, item)
	}

	if err = errors.Join(errList...); err != nil {
		return order.Intake{}, err
	}

	return order.Intake{
		Folio:        r.Folio,
		Origin:       origin,
		CustomerRef:  r.CustomerRef,
		Address:      r.Address,
		Destination:  destination,
		Items:        items,
		Taxes:        taxes,
		ShippingCost: shipping,
		Priority:     priority,
	}, nil
}

type Reason struct {
	Reason string `json:"reason"`
}

type Charges struct {
	Taxes        string `json:"taxes"`
	ShippingCost string `json:"shipping_cost"`
}

type NewCourier struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
}

type LocationReport struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	ReportedAt time.Time `json:"reported_at"`
	BatteryPct *int      `json:"battery_pct"`
}

type ReportResult struct {
	Outcome string `json:"outcome"`
}

type NotAssigned struct {
	Assigned bool `json:"assigned"`
}

// StateChanged is the SSE payload of a committed transition.
type StateChanged struct {
	EventID    kernel.UUID  `json:"event_id"`
	OrderID    kernel.UUID  `json:"order_id"`
	Folio      string       `json:"folio"`
	From       string       `json:"from"`
	To         string       `json:"to"`
	Command    string       `json:"command"`
	Courier    *kernel.UUID `json:"courier,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	Version    int          `json:"version"`
	OccurredAt time.Time    `json:"occurred_at"`
}

func NewStateChanged(e order.StateChanged) StateChanged {
	return StateChanged{
		EventID:    e.EventID,
		OrderID:    e.OrderID,
		Folio:      e.Folio,
		From:       e.From.String(),
		To:         e.To.String(),
		Command:    e.Command.String(),
		Courier:    e.Courier,
		Reason:     e.Reason,
		Version:    e.Version,
		OccurredAt: e.OccurredAt,
	}
}

// parseMoney accepts decimal strings; an empty value is zero.
func parseMoney(field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errs.NewValueIsInvalidErrorWithCause(field, err)
	}
	return d, nil
}
