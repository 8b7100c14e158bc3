package commands

import (
	"context"

	"dispatch/internal/core/domain/model/order"
)

// ConfirmDeliveryCommandHandler moves en_ruta to entregado and releases the
// courier slot in the same transaction. Financial fields stay frozen
// permanently.
type ConfirmDeliveryCommandHandler struct {
	pipeline *TransitionPipeline
}

func NewConfirmDeliveryCommandHandler(pipeline *TransitionPipeline) ConfirmDeliveryCommandHandler {
	return ConfirmDeliveryCommandHandler{pipeline: pipeline}
}

func (h ConfirmDeliveryCommandHandler) Handle(ctx context.Context, cmd ConfirmDeliveryCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return h.pipeline.Run(ctx, cmd.OrderID(), order.CommandConfirmDelivery.String(), transition(order.CommandConfirmDelivery, nil))
}
