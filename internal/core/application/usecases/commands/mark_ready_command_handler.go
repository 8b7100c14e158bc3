package commands

import (
	"context"

	"dispatch/internal/core/domain/model/order"
)

// MarkReadyCommandHandler moves preparando to listo; the order then waits for
// assign_courier.
type MarkReadyCommandHandler struct {
	pipeline *TransitionPipeline
}

func NewMarkReadyCommandHandler(pipeline *TransitionPipeline) MarkReadyCommandHandler {
	return MarkReadyCommandHandler{pipeline: pipeline}
}

func (h MarkReadyCommandHandler) Handle(ctx context.Context, cmd MarkReadyCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return h.pipeline.Run(ctx, cmd.OrderID(), order.CommandMarkReady.String(), transition(order.CommandMarkReady, nil))
}
