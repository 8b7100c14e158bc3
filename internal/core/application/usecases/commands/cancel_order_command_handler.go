package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/order"
)

// CancelOrderCommandHandler cancels an order with a mandatory reason. When a
// courier is assigned its slot is released in the same transaction as the state
// change; the courier reference is kept on the order.
type CancelOrderCommandHandler struct {
	pipeline *TransitionPipeline
}

func NewCancelOrderCommandHandler(pipeline *TransitionPipeline) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{pipeline: pipeline}
}

func (h CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	payload := func(context.Context, UoW, *order.Order, time.Time) (order.Payload, error) {
		return order.Payload{Reason: cmd.Reason()}, nil
	}
	return h.pipeline.Run(ctx, cmd.OrderID(), order.CommandCancel.String(), transition(order.CommandCancel, payload))
}
