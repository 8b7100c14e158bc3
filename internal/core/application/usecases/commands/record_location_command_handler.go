package commands

import (
	"context"

	"dispatch/internal/core/ports"

	"go.uber.org/zap"
)

// RecordLocationCommandHandler checks that the courier exists and hands the
// sample to the location feed. Reports further in the future than
// courier.MaxClockSkew are rejected. It has no effect on order state; subsequent
// planner calls see the new position.
type RecordLocationCommandHandler struct {
	uowFactory CourierUoWFactory
	feed       ports.LocationFeed
	clock      Clock
	logger     *zap.Logger
}

func NewRecordLocationCommandHandler(
	uowFactory CourierUoWFactory,
	feed ports.LocationFeed,
	clock Clock,
	logger *zap.Logger,
) RecordLocationCommandHandler {
	if clock == nil {
		clock = SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return RecordLocationCommandHandler{
		uowFactory: uowFactory,
		feed:       feed,
		clock:      clock,
		logger:     logger.Named("record_location"),
	}
}

func (h RecordLocationCommandHandler) Handle(ctx context.Context, cmd RecordLocationCommand) (ports.ReportOutcome, error) {
	if err := cmd.Validate(); err != nil {
		return "", err
	}

	sample := cmd.Sample()
	now := h.clock()
	if err := sample.CheckReportedAt(now); err != nil {
		return "", err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return "", err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if _, err := uow.CourierRepository().Get(ctx, sample.CourierID); err != nil {
		return "", err
	}

	outcome := h.feed.Report(sample, now)
	h.logger.Debug("location reported",
		zap.String("courier_id", sample.CourierID.String()),
		zap.Time("reported_at", sample.ReportedAt),
		zap.String("outcome", string(outcome)),
	)
	return outcome, nil
}
