package queries

import (
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
)

type PointView struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type LineItemView struct {
	ProductRef string          `json:"product_ref"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Amount     decimal.Decimal `json:"amount"`
}

// OrderView is the read model of an order. Money is encoded as decimal strings.
type OrderView struct {
	ID                  kernel.UUID          `json:"id"`
	Folio               string               `json:"folio"`
	Origin              string               `json:"origin"`
	CustomerRef         string               `json:"customer_ref,omitempty"`
	Address             string               `json:"address,omitempty"`
	Destination         *PointView           `json:"destination,omitempty"`
	Items               []LineItemView       `json:"items"`
	Subtotal            decimal.Decimal      `json:"subtotal"`
	Taxes               decimal.Decimal      `json:"taxes"`
	ShippingCost        decimal.Decimal      `json:"shipping_cost"`
	Total               decimal.Decimal      `json:"total"`
	Priority            string               `json:"priority"`
	State               string               `json:"state"`
	AssignedCourier     *kernel.UUID         `json:"assigned_courier,omitempty"`
	EstimatedDeliveryAt *time.Time           `json:"estimated_delivery_at,omitempty"`
	RejectionReason     string               `json:"rejection_reason,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	StateEnteredAt      map[string]time.Time `json:"state_entered_at"`
	Version             int                  `json:"version"`
}

func NewOrderView(o *order.Order) OrderView {
	v := OrderView{
		ID:                  o.ID(),
		Folio:               o.Folio(),
		Origin:              o.Origin().String(),
		CustomerRef:         o.CustomerRef(),
		Address:             o.Address(),
		Subtotal:            o.Subtotal(),
		Taxes:               o.Taxes(),
		ShippingCost:        o.ShippingCost(),
		Total:               o.Total(),
		Priority:            o.Priority().String(),
		State:               o.State().String(),
		AssignedCourier:     o.Courier(),
		EstimatedDeliveryAt: o.EstimatedDeliveryAt(),
		RejectionReason:     o.RejectionReason(),
		CreatedAt:           o.CreatedAt(),
		StateEnteredAt:      make(map[string]time.Time),
		Version:             o.Version(),
	}
	if d := o.Destination(); d != nil {
		v.Destination = &PointView{Lat: d.Lat(), Lng: d.Lng()}
	}
	for _, item := range o.Items() {
		v.Items = append(v.Items, LineItemView{
			ProductRef: item.ProductRef(),
			Quantity:   item.Quantity(),
			UnitPrice:  item.UnitPrice(),
			Amount:     item.Amount(),
		})
	}
	for _, s := range order.AllStates() {
		if at, ok := o.EnteredAt(s); ok {
			v.StateEnteredAt[s.String()] = at
		}
	}
	return v
}

type HistoryView struct {
	ID      kernel.UUID  `json:"id"`
	From    string       `json:"from"`
	To      string       `json:"to"`
	Command string       `json:"command"`
	Courier *kernel.UUID `json:"courier,omitempty"`
	Reason  string       `json:"reason,omitempty"`
	At      time.Time    `json:"at"`
}

func NewHistoryView(e order.HistoryEntry) HistoryView {
	return HistoryView{
		ID:      e.ID,
		From:    e.From.String(),
		To:      e.To.String(),
		Command: e.Command.String(),
		Courier: e.Courier,
		Reason:  e.Reason,
		At:      e.At,
	}
}

type LocationView struct {
	CourierID  kernel.UUID `json:"courier_id"`
	Lat        float64     `json:"lat"`
	Lng        float64     `json:"lng"`
	ReportedAt time.Time   `json:"reported_at"`
	BatteryPct *int        `json:"battery_pct,omitempty"`
}

func NewLocationView(s courier.LocationSample) LocationView {
	return LocationView{
		CourierID:  s.CourierID,
		Lat:        s.Point.Lat(),
		Lng:        s.Point.Lng(),
		ReportedAt: s.ReportedAt,
		BatteryPct: s.BatteryPct,
	}
}

// CourierView combines the stored courier with its derived availability and
// its newest location sample, if any.
type CourierView struct {
	ID           kernel.UUID   `json:"id"`
	DisplayName  string        `json:"display_name"`
	Phone        string        `json:"phone,omitempty"`
	Availability string        `json:"availability"`
	ActiveOrders []kernel.UUID `json:"active_orders"`
	Latest       *LocationView `json:"latest_location,omitempty"`
}
