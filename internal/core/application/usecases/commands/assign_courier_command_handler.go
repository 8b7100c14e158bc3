package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
)

// AssignCourierCommandHandler dispatches an order to the courier proposed by
// the AssignmentPlanner.
//
// The state is checked before the planner is consulted, so an order in the
// wrong state reports an invalid transition rather than ErrNoCourierAvailable.
// The courier's capacity is checked again when its slot is claimed inside the
// transaction; if another assignment filled it meanwhile, the attempt is
// retried from a fresh read.
//
// Example:
//
//	cmd, _ := NewAssignCourierCommand(orderID)
//	o, err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, ErrNoCourierAvailable):
//	    // order stays aprobado/listo, retry later
//	case err != nil:
//	    return err
//	default:
//	    log.Printf("order %s en_ruta with %s", o.Folio(), o.Courier())
//	}
type AssignCourierCommandHandler struct {
	pipeline *TransitionPipeline
	planner  services.AssignmentPlanner
	feed     ports.LocationFeed
	policy   DispatchPolicy
}

func NewAssignCourierCommandHandler(
	pipeline *TransitionPipeline,
	planner services.AssignmentPlanner,
	feed ports.LocationFeed,
	policy DispatchPolicy,
) AssignCourierCommandHandler {
	return AssignCourierCommandHandler{
		pipeline: pipeline,
		planner:  planner,
		feed:     feed,
		policy:   policy,
	}
}

func (h AssignCourierCommandHandler) Handle(ctx context.Context, cmd AssignCourierCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	payload := func(ctx context.Context, uow UoW, o *order.Order, now time.Time) (order.Payload, error) {
		requiresPrep := h.policy.RequiresPrep(o.Origin())
		if err := o.State().Permits(order.CommandAssignCourier, requiresPrep); err != nil {
			return order.Payload{}, err
		}

		proposal, err := proposeCourier(ctx, uow, h.planner, h.feed, o, now, nil)
		if err != nil {
			return order.Payload{}, err
		}

		return order.Payload{
			NewCourier:          &proposal.CourierID,
			EstimatedDeliveryAt: proposal.EstimatedDeliveryAt,
			RequiresPrep:        requiresPrep,
		}, nil
	}

	return h.pipeline.Run(ctx, cmd.OrderID(), order.CommandAssignCourier.String(),
		transition(order.CommandAssignCourier, payload))
}
