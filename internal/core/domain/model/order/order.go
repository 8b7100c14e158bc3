package order

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created
	// through NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
	// ErrItemsAreRequired is returned for an intake without line items.
	ErrItemsAreRequired = errs.NewValueIsRequiredError("items")
)

// commandAdjustCharges names charge recomputation in transition errors.
const commandAdjustCharges = "adjust_charges"

// Intake is the data an intake collaborator supplies when creating an order.
type Intake struct {
	Folio        string
	Origin       Origin
	CustomerRef  string
	Address      string
	Destination  *kernel.GeoPoint
	Items        []LineItem
	Taxes        decimal.Decimal
	ShippingCost decimal.Decimal
	Priority     Priority
}

// Order is the delivery order aggregate root. It owns the canonical lifecycle
// state and changes it only through Execute, which consults the Transition
// state machine and applies the aggregate-local effects of the outcome.
//
// Invariants:
//   - folio, origin, customer and line items are immutable once issued
//   - financial totals change only while AllowsChargeAdjustment holds
//   - courierID is set only by assign/reassign and never cleared
//   - version is the optimistic concurrency token read by the caller
type Order struct {
	id                  kernel.UUID
	folio               string
	origin              Origin
	customerRef         string
	address             string
	destination         *kernel.GeoPoint
	items               []LineItem
	subtotal            decimal.Decimal
	taxes               decimal.Decimal
	shippingCost        decimal.Decimal
	total               decimal.Decimal
	priority            Priority
	state               State
	courierID           *kernel.UUID
	estimatedDeliveryAt *time.Time
	rejectionReason     string
	createdAt           time.Time
	stateEnteredAt      map[State]time.Time
	version             int
	history             []HistoryEntry
	guard               guard.ConstructorGuard
}

// NewOrder creates an order in pendiente with version 1 and computed totals.
//
// Example:
//
//	item, _ := order.NewLineItem("SKU-1", 2, decimal.RequireFromString("35.50"))
//	o, err := order.NewOrder(kernel.NewUUID(), order.Intake{
//	    Folio:    "F-1001",
//	    Origin:   order.OriginBranch,
//	    Items:    []order.LineItem{item},
//	    Priority: order.PriorityNormal,
//	}, time.Now())
func NewOrder(id kernel.UUID, intake Intake, createdAt time.Time) (*Order, error) {
	o := &Order{
		state:          StatePending,
		createdAt:      createdAt,
		stateEnteredAt: map[State]time.Time{StatePending: createdAt},
		version:        1,
		guard:          guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setFolio(intake.Folio),
		intake.Origin.Validate(),
		intake.Priority.Validate(),
		o.setDestination(intake.Destination),
		o.setItems(intake.Items),
		o.setCharges(intake.Taxes, intake.ShippingCost),
	); err != nil {
		return nil, err
	}

	o.origin = intake.Origin
	o.priority = intake.Priority
	o.customerRef = strings.TrimSpace(intake.CustomerRef)
	o.address = strings.TrimSpace(intake.Address)
	o.recomputeTotals()

	return o, nil
}

func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID                 { return o.id }
func (o *Order) Folio() string                   { return o.folio }
func (o *Order) Origin() Origin                  { return o.origin }
func (o *Order) CustomerRef() string             { return o.customerRef }
func (o *Order) Address() string                 { return o.address }
func (o *Order) Destination() *kernel.GeoPoint   { return o.destination }
func (o *Order) Subtotal() decimal.Decimal       { return o.subtotal }
func (o *Order) Taxes() decimal.Decimal          { return o.taxes }
func (o *Order) ShippingCost() decimal.Decimal   { return o.shippingCost }
func (o *Order) Total() decimal.Decimal          { return o.total }
func (o *Order) Priority() Priority              { return o.priority }
func (o *Order) State() State                    { return o.state }
func (o *Order) Courier() *kernel.UUID           { return o.courierID }
func (o *Order) EstimatedDeliveryAt() *time.Time { return o.estimatedDeliveryAt }
func (o *Order) RejectionReason() string         { return o.rejectionReason }
func (o *Order) CreatedAt() time.Time            { return o.createdAt }
func (o *Order) Version() int                    { return o.version }

// Items returns a copy of the line items.
func (o *Order) Items() []LineItem {
	return append([]LineItem(nil), o.items...)
}

// EnteredAt returns when the order entered state s, if it ever did.
func (o *Order) EnteredAt(s State) (time.Time, bool) {
	at, ok := o.stateEnteredAt[s]
	return at, ok
}

// FinancialsFrozen reports whether totals can no longer change.
func (o *Order) FinancialsFrozen() bool {
	return !o.state.AllowsChargeAdjustment()
}

// Execute runs cmd through the state machine and applies the aggregate-local
// effects. The current courier is filled into the payload. Courier claims and
// releases are returned in the outcome for the caller to execute in the same
// transaction.
func (o *Order) Execute(cmd Command, payload Payload, at time.Time) (Outcome, error) {
	if err := o.Validate(); err != nil {
		return Outcome{}, err
	}

	payload.Courier = o.courierID
	out, err := Transition(o.state, cmd, payload)
	if err != nil {
		return Outcome{}, err
	}

	o.apply(out, at)
	return out, nil
}

// AdjustCharges replaces taxes and shipping and recomputes the totals.
// Allowed only in pendiente and aprobado.
func (o *Order) AdjustCharges(taxes, shippingCost decimal.Decimal) error {
	if !o.state.AllowsChargeAdjustment() {
		return errs.NewInvalidTransitionError(commandAdjustCharges, o.state.String())
	}
	if err := o.setCharges(taxes, shippingCost); err != nil {
		return err
	}
	o.recomputeTotals()
	return nil
}

// PendingHistory returns the audit records produced since the order was
// loaded and not yet persisted.
func (o *Order) PendingHistory() []HistoryEntry {
	return append([]HistoryEntry(nil), o.history...)
}

// ClearPendingHistory is called by repositories after the audit records
// were written.
func (o *Order) ClearPendingHistory() {
	o.history = nil
}

// AdvanceVersion is called by repositories after a successful optimistic write.
func (o *Order) AdvanceVersion() {
	o.version++
}

func (o *Order) apply(out Outcome, at time.Time) {
	o.state = out.To

	for _, e := range out.Effects {
		switch e.Kind {
		case EffectRecordTimestamp:
			o.stateEnteredAt[e.State] = at
		case EffectSetRejectionReason:
			o.rejectionReason = e.Reason
		case EffectSetCourier:
			courierID := e.Courier
			o.courierID = &courierID
		case EffectSetEstimatedDelivery:
			if !e.At.IsZero() {
				eta := e.At
				o.estimatedDeliveryAt = &eta
			}
		case EffectClaimCourier, EffectReleaseCourier, EffectNotifyCourier:
			// executed by the coordinator
		}
	}

	entry := HistoryEntry{
		ID:      kernel.NewUUID(),
		OrderID: o.id,
		From:    out.From,
		To:      out.To,
		Command: out.Command,
		At:      at,
	}
	if o.courierID != nil {
		courierID := *o.courierID
		entry.Courier = &courierID
	}
	if out.HasEffect(EffectSetRejectionReason) {
		entry.Reason = o.rejectionReason
	}
	o.history = append(o.history, entry)
}

func (o *Order) recomputeTotals() {
	subtotal := decimal.Zero
	for _, item := range o.items {
		subtotal = subtotal.Add(item.Amount())
	}
	o.subtotal = subtotal
	o.total = subtotal.Add(o.taxes).Add(o.shippingCost)
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setFolio(folio string) error {
	folio = strings.TrimSpace(folio)
	if folio == "" {
		return errs.NewValueIsRequiredError("folio")
	}
	o.folio = folio
	return nil
}

func (o *Order) setDestination(destination *kernel.GeoPoint) error {
	if destination == nil {
		return nil
	}
	if err := destination.Validate(); err != nil {
		return err
	}
	point := *destination
	o.destination = &point
	return nil
}

func (o *Order) setItems(items []LineItem) error {
	if len(items) == 0 {
		return ErrItemsAreRequired
	}
	for idx, item := range items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", idx, err)
		}
	}
	o.items = append([]LineItem(nil), items...)
	return nil
}

func (o *Order) setCharges(taxes, shippingCost decimal.Decimal) error {
	if err := errors.Join(checkAmount("taxes", taxes), checkAmount("shippingCost", shippingCost)); err != nil {
		return err
	}
	o.taxes = taxes
	o.shippingCost = shippingCost
	return nil
}

func cloneEnteredAt(m map[State]time.Time) map[State]time.Time {
	out := make(map[State]time.Time, len(m))
	maps.Copy(out, m)
	return out
}
