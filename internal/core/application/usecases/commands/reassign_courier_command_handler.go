package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
)

// ReassignCourierCommandHandler runs the planner again excluding the current
// courier. The new courier is claimed before the previous one is released,
// both in the same transaction. Without a candidate the order keeps its
// courier and ErrNoCourierAvailable is returned.
type ReassignCourierCommandHandler struct {
	pipeline *TransitionPipeline
	planner  services.AssignmentPlanner
	feed     ports.LocationFeed
}

func NewReassignCourierCommandHandler(
	pipeline *TransitionPipeline,
	planner services.AssignmentPlanner,
	feed ports.LocationFeed,
) ReassignCourierCommandHandler {
	return ReassignCourierCommandHandler{pipeline: pipeline, planner: planner, feed: feed}
}

func (h ReassignCourierCommandHandler) Handle(ctx context.Context, cmd ReassignCourierCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	payload := func(ctx context.Context, uow UoW, o *order.Order, now time.Time) (order.Payload, error) {
		if err := o.State().Permits(order.CommandReassignCourier, false); err != nil {
			return order.Payload{}, err
		}

		proposal, err := proposeCourier(ctx, uow, h.planner, h.feed, o, now, o.Courier())
		if err != nil {
			return order.Payload{}, err
		}

		return order.Payload{
			NewCourier:          &proposal.CourierID,
			EstimatedDeliveryAt: proposal.EstimatedDeliveryAt,
		}, nil
	}

	return h.pipeline.Run(ctx, cmd.OrderID(), order.CommandReassignCourier.String(),
		transition(order.CommandReassignCourier, payload))
}
