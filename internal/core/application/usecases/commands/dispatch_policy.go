package commands

import (
	"context"
	"errors"
	"slices"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
)

// ErrNoCourierAvailable is the outcome of assign_courier and reassign_courier
// when the planner finds no candidate. The order is left unchanged and the
// caller may retry later.
var ErrNoCourierAvailable = errors.New("no courier available")

// DispatchPolicy decides which orders may be assigned straight from aprobado.
// Orders from any other origin must pass preparando and listo first.
type DispatchPolicy struct {
	DirectDispatchOrigins []order.Origin
}

func DefaultDispatchPolicy() DispatchPolicy {
	return DispatchPolicy{DirectDispatchOrigins: []order.Origin{order.OriginBranch, order.OriginCourier}}
}

// RequiresPrep reports whether orders from origin must be prepared before dispatch.
func (p DispatchPolicy) RequiresPrep(origin order.Origin) bool {
	return !slices.Contains(p.DirectDispatchOrigins, origin)
}

// AwaitsCourier reports whether o is waiting for assign_courier under this policy.
func (p DispatchPolicy) AwaitsCourier(o *order.Order) bool {
	return o.State() == order.StateReady ||
		(o.State() == order.StateApproved && !p.RequiresPrep(o.Origin()))
}

// proposeCourier reads every courier inside the unit of work, pairs it with
// its latest sample and asks the planner. exclude is skipped.
func proposeCourier(
	ctx context.Context,
	uow UoW,
	planner services.AssignmentPlanner,
	feed ports.LocationFeed,
	o *order.Order,
	now time.Time,
	exclude *kernel.UUID,
) (services.Proposal, error) {
	couriers, err := uow.CourierRepository().GetAll(ctx)
	if err != nil {
		return services.Proposal{}, err
	}

	candidates := make([]services.Candidate, 0, len(couriers))
	for _, c := range couriers {
		candidate := services.Candidate{Courier: c}
		if latest, ok := feed.Latest(c.ID()); ok {
			candidate.Latest = &latest
		}
		candidates = append(candidates, candidate)
	}

	proposal, err := planner.Propose(o, candidates, now, exclude)
	if errors.Is(err, services.ErrNoCandidate) {
		return services.Proposal{}, ErrNoCourierAvailable
	}
	return proposal, err
}
