package commands

import (
	"context"

	"dispatch/internal/core/domain/model/order"

	"go.uber.org/zap"
)

// CreateOrderCommandHandler persists a new pendiente order. A duplicate folio
// is reported by the repository as a conflict.
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	clock      Clock
	logger     *zap.Logger
}

func NewCreateOrderCommandHandler(uowFactory OrderUoWFactory, clock Clock, logger *zap.Logger) CreateOrderCommandHandler {
	if clock == nil {
		clock = SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
		logger:     logger.Named("create_order"),
	}
}

func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	o, err := order.NewOrder(cmd.OrderID(), cmd.Intake(), h.clock())
	if err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.logger.Info("order created",
		zap.String("order_id", o.ID().String()),
		zap.String("folio", o.Folio()),
		zap.Stringer("origin", o.Origin()),
		zap.Stringer("priority", o.Priority()),
	)
	return o, nil
}
