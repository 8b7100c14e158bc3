package commands

import (
	"context"

	"dispatch/internal/core/domain/model/order"
)

// ApproveOrderCommandHandler approves an order. Fails with an invalid
// transition error unless the order is pendiente.
type ApproveOrderCommandHandler struct {
	pipeline *TransitionPipeline
}

func NewApproveOrderCommandHandler(pipeline *TransitionPipeline) ApproveOrderCommandHandler {
	return ApproveOrderCommandHandler{pipeline: pipeline}
}

func (h ApproveOrderCommandHandler) Handle(ctx context.Context, cmd ApproveOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return h.pipeline.Run(ctx, cmd.OrderID(), order.CommandApprove.String(), transition(order.CommandApprove, nil))
}
