package commands

import (
	"context"

	"dispatch/internal/core/domain/model/order"
)

// BeginPreparationCommandHandler moves aprobado to preparando.
type BeginPreparationCommandHandler struct {
	pipeline *TransitionPipeline
}

func NewBeginPreparationCommandHandler(pipeline *TransitionPipeline) BeginPreparationCommandHandler {
	return BeginPreparationCommandHandler{pipeline: pipeline}
}

func (h BeginPreparationCommandHandler) Handle(ctx context.Context, cmd BeginPreparationCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return h.pipeline.Run(ctx, cmd.OrderID(), order.CommandBeginPrep.String(), transition(order.CommandBeginPrep, nil))
}
