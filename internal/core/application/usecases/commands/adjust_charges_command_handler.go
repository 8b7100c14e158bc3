package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/order"
)

const operationAdjustCharges = "adjust_charges"

// AdjustChargesCommandHandler recomputes the totals of an order under the same
// optimistic concurrency rules as lifecycle commands.
type AdjustChargesCommandHandler struct {
	pipeline *TransitionPipeline
}

func NewAdjustChargesCommandHandler(pipeline *TransitionPipeline) AdjustChargesCommandHandler {
	return AdjustChargesCommandHandler{pipeline: pipeline}
}

func (h AdjustChargesCommandHandler) Handle(ctx context.Context, cmd AdjustChargesCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return h.pipeline.Run(ctx, cmd.OrderID(), operationAdjustCharges,
		func(_ context.Context, _ UoW, o *order.Order, _ time.Time) (*order.Outcome, error) {
			return nil, o.AdjustCharges(cmd.Taxes(), cmd.ShippingCost())
		})
}
