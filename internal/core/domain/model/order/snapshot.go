package order

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

// Snapshot is the full persisted state of an order. Adapters map it to and
// from their storage representation.
type Snapshot struct {
	ID                  kernel.UUID
	Folio               string
	Origin              Origin
	CustomerRef         string
	Address             string
	Destination         *kernel.GeoPoint
	Items               []LineItem
	Subtotal            decimal.Decimal
	Taxes               decimal.Decimal
	ShippingCost        decimal.Decimal
	Total               decimal.Decimal
	Priority            Priority
	State               State
	Courier             *kernel.UUID
	EstimatedDeliveryAt *time.Time
	RejectionReason     string
	CreatedAt           time.Time
	StateEnteredAt      map[State]time.Time
	Version             int
}

// Snapshot returns a deep copy of the order state. Pending history is not
// part of the snapshot.
func (o *Order) Snapshot() Snapshot {
	s := Snapshot{
		ID:              o.id,
		Folio:           o.folio,
		Origin:          o.origin,
		CustomerRef:     o.customerRef,
		Address:         o.address,
		Items:           o.Items(),
		Subtotal:        o.subtotal,
		Taxes:           o.taxes,
		ShippingCost:    o.shippingCost,
		Total:           o.total,
		Priority:        o.priority,
		State:           o.state,
		RejectionReason: o.rejectionReason,
		CreatedAt:       o.createdAt,
		StateEnteredAt:  cloneEnteredAt(o.stateEnteredAt),
		Version:         o.version,
	}
	if o.destination != nil {
		point := *o.destination
		s.Destination = &point
	}
	if o.courierID != nil {
		courierID := *o.courierID
		s.Courier = &courierID
	}
	if o.estimatedDeliveryAt != nil {
		eta := *o.estimatedDeliveryAt
		s.EstimatedDeliveryAt = &eta
	}
	return s
}

// RestoreOrder reconstructs an order from persistence. Totals are taken as
// stored, since they may be frozen.
func RestoreOrder(s Snapshot) (*Order, error) {
	o := &Order{
		customerRef:     s.CustomerRef,
		address:         s.Address,
		subtotal:        s.Subtotal,
		taxes:           s.Taxes,
		shippingCost:    s.ShippingCost,
		total:           s.Total,
		rejectionReason: s.RejectionReason,
		createdAt:       s.CreatedAt,
		stateEnteredAt:  cloneEnteredAt(s.StateEnteredAt),
		guard:           guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(s.ID),
		o.setFolio(s.Folio),
		s.Origin.Validate(),
		s.Priority.Validate(),
		s.State.Validate(),
		o.setDestination(s.Destination),
		o.setItems(s.Items),
		validateVersion(s.Version),
	); err != nil {
		return nil, err
	}

	if err := s.State.ValidateCanHaveCourier(s.Courier != nil); err != nil {
		return nil, err
	}
	if s.Courier != nil {
		if err := s.Courier.Validate(); err != nil {
			return nil, err
		}
		courierID := *s.Courier
		o.courierID = &courierID
	}
	if s.EstimatedDeliveryAt != nil {
		eta := *s.EstimatedDeliveryAt
		o.estimatedDeliveryAt = &eta
	}

	o.origin = s.Origin
	o.priority = s.Priority
	o.state = s.State
	o.version = s.Version
	return o, nil
}

func validateVersion(version int) error {
	if version < 1 {
		return errs.NewVersionIsInvalidError("version", fmt.Errorf("%d is less than 1", version))
	}
	return nil
}
