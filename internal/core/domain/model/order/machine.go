package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// Command is an instruction that may move an order to another state.
type Command int

const (
	CommandUnknown Command = iota
	CommandApprove
	CommandReject
	CommandCancel
	CommandBeginPrep
	CommandMarkReady
	CommandAssignCourier
	CommandReassignCourier
	CommandConfirmDelivery
)

var commandNames = map[Command]string{
	CommandUnknown:         "unknown",
	CommandApprove:         "approve",
	CommandReject:          "reject",
	CommandCancel:          "cancel",
	CommandBeginPrep:       "begin_prep",
	CommandMarkReady:       "mark_ready",
	CommandAssignCourier:   "assign_courier",
	CommandReassignCourier: "reassign_courier",
	CommandConfirmDelivery: "confirm_delivery",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCommand converts a persisted command name back into a Command.
func ParseCommand(s string) (Command, error) {
	for c, name := range commandNames {
		if c != CommandUnknown && name == s {
			return c, nil
		}
	}
	return CommandUnknown, errs.NewValueIsInvalidErrorWithCause("command", fmt.Errorf("%q is not a valid command", s))
}

// ErrPreparationRequired is the cause attached when an order whose origin
// requires the preparation path is dispatched straight from aprobado.
var ErrPreparationRequired = errors.New("order must pass preparando and listo before dispatch")

// EffectKind enumerates the side effects a transition declares.
type EffectKind int

const (
	// EffectRecordTimestamp stores the instant the target state was entered.
	EffectRecordTimestamp EffectKind = iota + 1
	// EffectSetRejectionReason stores the reason of a reject or cancel.
	EffectSetRejectionReason
	// EffectClaimCourier adds the order to the courier's active set.
	EffectClaimCourier
	// EffectReleaseCourier removes the order from the courier's active set.
	EffectReleaseCourier
	// EffectSetCourier stores the assigned courier reference on the order.
	EffectSetCourier
	// EffectSetEstimatedDelivery stores the promised delivery instant.
	EffectSetEstimatedDelivery
	// EffectNotifyCourier asks for an assignment notification to the courier.
	EffectNotifyCourier
)

func (k EffectKind) String() string {
	switch k {
	case EffectRecordTimestamp:
		return "record_timestamp"
	case EffectSetRejectionReason:
		return "set_rejection_reason"
	case EffectClaimCourier:
		return "claim_courier"
	case EffectReleaseCourier:
		return "release_courier"
	case EffectSetCourier:
		return "set_courier"
	case EffectSetEstimatedDelivery:
		return "set_estimated_delivery"
	case EffectNotifyCourier:
		return "notify_courier"
	default:
		return "unknown"
	}
}

// Effect is a declarative side effect. Only the fields relevant to Kind are set.
type Effect struct {
	Kind    EffectKind
	State   State
	Courier kernel.UUID
	Reason  string
	At      time.Time
}

// Payload carries the command arguments and the facts the machine needs
// besides the current state.
type Payload struct {
	// Reason is required by reject and cancel.
	Reason string
	// Courier is the currently assigned courier, if any.
	Courier *kernel.UUID
	// NewCourier is the courier chosen by the planner for assign/reassign.
	NewCourier *kernel.UUID
	// EstimatedDeliveryAt is the promise computed with the planner proposal.
	EstimatedDeliveryAt time.Time
	// RequiresPrep forbids assign_courier straight from aprobado.
	RequiresPrep bool
}

// Outcome is the result of a legal transition.
type Outcome struct {
	From    State
	To      State
	Command Command
	Effects []Effect
}

// CourierEffects returns the effects that touch courier aggregates, in the
// order they must be executed.
func (o Outcome) CourierEffects() []Effect {
	var out []Effect
	for _, e := range o.Effects {
		if e.Kind == EffectClaimCourier || e.Kind == EffectReleaseCourier {
			out = append(out, e)
		}
	}
	return out
}

// HasEffect reports whether the outcome declares an effect of the given kind.
func (o Outcome) HasEffect(kind EffectKind) bool {
	for _, e := range o.Effects {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// transitions is the lifecycle graph: current state -> command -> next state.
// Terminal states have no entry.
var transitions = map[State]map[Command]State{
	StatePending: {
		CommandApprove: StateApproved,
		CommandReject:  StateCancelled,
	},
	StateApproved: {
		CommandBeginPrep:     StatePreparing,
		CommandAssignCourier: StateEnRoute,
		CommandCancel:        StateCancelled,
	},
	StatePreparing: {
		CommandMarkReady: StateReady,
		CommandCancel:    StateCancelled,
	},
	StateReady: {
		CommandAssignCourier: StateEnRoute,
	},
	StateEnRoute: {
		CommandConfirmDelivery: StateDelivered,
		CommandReassignCourier: StateEnRoute,
		CommandCancel:          StateCancelled,
	},
}

// Permits checks that cmd is legal in state s without looking at the rest of
// the payload. requiresPrep forbids assign_courier straight from aprobado.
func (s State) Permits(cmd Command, requiresPrep bool) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if _, ok := transitions[s][cmd]; !ok {
		return errs.NewInvalidTransitionError(cmd.String(), s.String())
	}
	if s == StateApproved && cmd == CommandAssignCourier && requiresPrep {
		return errs.NewInvalidTransitionErrorWithCause(cmd.String(), s.String(), ErrPreparationRequired)
	}
	return nil
}

// Transition is the order lifecycle state machine. It is a pure function of
// the current state, the command and its payload, and never performs I/O.
// Illegal commands return an *errs.InvalidTransitionError naming the command
// and the current state; missing payload fields return validation errors.
func Transition(current State, cmd Command, p Payload) (Outcome, error) {
	if err := current.Permits(cmd, p.RequiresPrep); err != nil {
		return Outcome{}, err
	}
	next := transitions[current][cmd]

	switch cmd {
	case CommandReject, CommandCancel:
		return cancelOutcome(current, cmd, p)

	case CommandAssignCourier, CommandReassignCourier:
		if p.NewCourier == nil {
			return Outcome{}, errs.NewValueIsRequiredError("courier")
		}
		if p.Courier != nil && p.Courier.IsEqual(*p.NewCourier) {
			return Outcome{}, errs.NewValueIsInvalidErrorWithCause("courier",
				fmt.Errorf("%s is already assigned", p.NewCourier))
		}
		out := Outcome{From: current, To: next, Command: cmd}
		if current != next {
			out.Effects = append(out.Effects, Effect{Kind: EffectRecordTimestamp, State: next})
		}
		// Claim first, release last: the order is never without a courier.
		out.Effects = append(out.Effects,
			Effect{Kind: EffectClaimCourier, Courier: *p.NewCourier},
			Effect{Kind: EffectSetCourier, Courier: *p.NewCourier},
			Effect{Kind: EffectSetEstimatedDelivery, At: p.EstimatedDeliveryAt},
			Effect{Kind: EffectNotifyCourier, Courier: *p.NewCourier},
		)
		if p.Courier != nil {
			out.Effects = append(out.Effects, Effect{Kind: EffectReleaseCourier, Courier: *p.Courier})
		}
		return out, nil

	case CommandConfirmDelivery:
		out := outcome(current, next, cmd)
		if p.Courier != nil {
			out.Effects = append(out.Effects, Effect{Kind: EffectReleaseCourier, Courier: *p.Courier})
		}
		return out, nil

	default:
		return outcome(current, next, cmd), nil
	}
}

func outcome(from, to State, cmd Command) Outcome {
	return Outcome{
		From:    from,
		To:      to,
		Command: cmd,
		Effects: []Effect{{Kind: EffectRecordTimestamp, State: to}},
	}
}

func cancelOutcome(current State, cmd Command, p Payload) (Outcome, error) {
	reason := strings.TrimSpace(p.Reason)
	if reason == "" {
		return Outcome{}, errs.NewValueIsRequiredError("reason")
	}
	out := outcome(current, StateCancelled, cmd)
	out.Effects = append(out.Effects, Effect{Kind: EffectSetRejectionReason, Reason: reason})
	if p.Courier != nil {
		out.Effects = append(out.Effects, Effect{Kind: EffectReleaseCourier, Courier: *p.Courier})
	}
	return out, nil
}
