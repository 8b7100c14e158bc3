package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/order"
)

// RejectOrderCommandHandler cancels a pendiente order with a mandatory reason.
// Approved orders are cancelled through CancelOrderCommand.
type RejectOrderCommandHandler struct {
	pipeline *TransitionPipeline
}

func NewRejectOrderCommandHandler(pipeline *TransitionPipeline) RejectOrderCommandHandler {
	return RejectOrderCommandHandler{pipeline: pipeline}
}

func (h RejectOrderCommandHandler) Handle(ctx context.Context, cmd RejectOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	payload := func(context.Context, UoW, *order.Order, time.Time) (order.Payload, error) {
		return order.Payload{Reason: cmd.Reason()}, nil
	}
	return h.pipeline.Run(ctx, cmd.OrderID(), order.CommandReject.String(), transition(order.CommandReject, payload))
}
