package order

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// State is the lifecycle position of an order.
//
// Transition graph:
//
//	pendiente ──approve──> aprobado ──begin_prep──> preparando ──mark_ready──> listo
//	    │                     │  └──────assign_courier─────┐                    │
//	  reject                cancel                         v                    │
//	    │                     │                          en_ruta <──assign_courier
//	    v                     v                         │   │  ^
//	cancelado <──────────── cancel (preparando, en_ruta)┘   │  └─reassign_courier
//	                                                         └─confirm_delivery──> entregado
//
// entregado and cancelado are terminal.
type State int

const (
	StateUnknown State = iota
	StatePending
	StateApproved
	StatePreparing
	StateReady
	StateEnRoute
	StateDelivered
	StateCancelled
)

func getStateStrings() map[State]string {
	return map[State]string{
		StateUnknown:   "unknown",
		StatePending:   "pendiente",
		StateApproved:  "aprobado",
		StatePreparing: "preparando",
		StateReady:     "listo",
		StateEnRoute:   "en_ruta",
		StateDelivered: "entregado",
		StateCancelled: "cancelado",
	}
}

// AllStates lists every valid state in lifecycle order.
func AllStates() []State {
	return []State{
		StatePending,
		StateApproved,
		StatePreparing,
		StateReady,
		StateEnRoute,
		StateDelivered,
		StateCancelled,
	}
}

// ParseState converts the persisted/wire name of a state back into a State.
func ParseState(s string) (State, error) {
	for _, state := range AllStates() {
		if state.String() == s {
			return state, nil
		}
	}
	return StateUnknown, errs.NewValueIsInvalidErrorWithCause("state", fmt.Errorf("%q is not a valid state", s))
}

// Validate checks that s is one of the lifecycle states.
func (s State) Validate() error {
	if s <= StateUnknown || s > StateCancelled {
		return errs.NewValueIsInvalidErrorWithCause("state", fmt.Errorf("%d is not a valid state", s))
	}
	return nil
}

func (s State) String() string {
	if str, ok := getStateStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether no further command is accepted.
func (s State) IsTerminal() bool {
	return s == StateDelivered || s == StateCancelled
}

// IsActive reports whether an order in this state occupies a courier slot.
func (s State) IsActive() bool {
	return s == StateEnRoute
}

// AllowsChargeAdjustment reports whether totals may still be recomputed.
// Financial fields are frozen once the order leaves pendiente/aprobado.
func (s State) AllowsChargeAdjustment() bool {
	return s == StatePending || s == StateApproved
}

// ValidateCanHaveCourier checks the consistency between state and courier
// assignment. en_ruta requires a courier; states before assignment forbid one.
// Terminal states accept both, since an order may be cancelled before or after
// it was dispatched.
func (s State) ValidateCanHaveCourier(courier bool) error {
	switch {
	case s == StateEnRoute && !courier:
		return errs.NewValueIsInvalidErrorWithCause(
			"state",
			fmt.Errorf("%s is not a valid state to have no courier", s),
		)
	case s == StateDelivered && !courier:
		return errs.NewValueIsInvalidErrorWithCause(
			"state",
			fmt.Errorf("%s is not a valid state to have no courier", s),
		)
	case courier && !s.IsTerminal() && s != StateEnRoute:
		return errs.NewValueIsInvalidErrorWithCause(
			"state",
			fmt.Errorf("%s is not a valid state to have a courier", s),
		)
	}
	return nil
}
