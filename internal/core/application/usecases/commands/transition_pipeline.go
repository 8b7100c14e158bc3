package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"go.uber.org/zap"
)

// PipelineConfig tunes the optimistic write loop.
type PipelineConfig struct {
	// MaxConflictRetries is how many times an attempt is repeated from a
	// fresh read after a version conflict.
	MaxConflictRetries int
	// CourierCapacity is K, re-checked when a courier slot is claimed.
	CourierCapacity int
}

// mutation changes the loaded order inside the unit of work. It returns the
// transition outcome when the lifecycle state machine was involved.
type mutation func(ctx context.Context, uow UoW, o *order.Order, now time.Time) (*order.Outcome, error)

// TransitionPipeline runs every mutating order operation the same way:
//
//	read order (with version) -> mutate/validate -> execute courier effects
//	-> optimistic save -> commit -> emit events
//
// A version conflict, or a courier found at capacity when its slot is
// claimed, restarts the attempt from a fresh read, up to MaxConflictRetries
// times. The courier writes share the order's transaction, so a release is
// never lost while the state change is kept.
type TransitionPipeline struct {
	uowFactory UoWFactory
	publisher  ports.EventPublisher
	clock      Clock
	cfg        PipelineConfig
	logger     *zap.Logger
}

func NewTransitionPipeline(
	uowFactory UoWFactory,
	publisher ports.EventPublisher,
	clock Clock,
	cfg PipelineConfig,
	logger *zap.Logger,
) *TransitionPipeline {
	if clock == nil {
		clock = SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransitionPipeline{
		uowFactory: uowFactory,
		publisher:  publisher,
		clock:      clock,
		cfg:        cfg,
		logger:     logger.Named("transition_pipeline"),
	}
}

// Run applies m to the order identified by orderID and returns the committed order.
func (p *TransitionPipeline) Run(ctx context.Context, orderID kernel.UUID, operation string, m mutation) (*order.Order, error) {
	log := p.logger.With(zap.String("order_id", orderID.String()), zap.String("operation", operation))

	for attempt := 0; ; attempt++ {
		o, events, err := p.attempt(ctx, orderID, m)
		if err == nil {
			p.emit(ctx, log, events)
			return o, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		if attempt >= p.cfg.MaxConflictRetries {
			log.Warn("conflict retries exhausted", zap.Int("attempts", attempt+1), zap.Error(err))
			return nil, err
		}
		log.Debug("conflict, retrying from fresh read", zap.Int("attempt", attempt+1), zap.Error(err))
		if err = ctx.Err(); err != nil {
			return nil, err
		}
	}
}

func (p *TransitionPipeline) attempt(ctx context.Context, orderID kernel.UUID, m mutation) (*order.Order, []order.StateChanged, error) {
	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.Get(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	outcome, err := m(ctx, uow, o, p.clock())
	if err != nil {
		return nil, nil, err
	}

	if outcome != nil {
		if err = p.executeCourierEffects(ctx, uow.CourierRepository(), orderID, *outcome); err != nil {
			return nil, nil, err
		}
	}

	history := o.PendingHistory()
	if err = orderRepo.Update(ctx, o); err != nil {
		return nil, nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, nil, err
	}

	events := make([]order.StateChanged, 0, len(history))
	for _, entry := range history {
		events = append(events, order.NewStateChanged(o, entry, o.Version()))
	}
	return o, events, nil
}

func (p *TransitionPipeline) executeCourierEffects(
	ctx context.Context,
	courierRepo ports.CourierRepository,
	orderID kernel.UUID,
	outcome order.Outcome,
) error {
	for _, effect := range outcome.CourierEffects() {
		c, err := courierRepo.Get(ctx, effect.Courier)
		if err != nil {
			return err
		}

		switch effect.Kind {
		case order.EffectClaimCourier:
			err = c.Claim(orderID, p.cfg.CourierCapacity)
		case order.EffectReleaseCourier:
			err = c.Release(orderID)
		}
		if err != nil {
			return fmt.Errorf("%s %s: %w", effect.Kind, effect.Courier, err)
		}

		if err = courierRepo.Update(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (p *TransitionPipeline) emit(ctx context.Context, log *zap.Logger, events []order.StateChanged) {
	for _, e := range events {
		log.Info("order transition committed",
			zap.String("folio", e.Folio),
			zap.Stringer("from", e.From),
			zap.Stringer("to", e.To),
			zap.Stringer("command", e.Command),
			zap.Int("version", e.Version),
		)
	}
	if p.publisher == nil || len(events) == 0 {
		return
	}
	if err := p.publisher.Publish(ctx, events...); err != nil {
		log.Error("failed to publish state change", zap.Error(err))
	}
}

func isRetryable(err error) bool {
	return errors.Is(err, errs.ErrConflict) || errors.Is(err, courier.ErrCourierAtCapacity)
}

// transition builds a mutation that runs a lifecycle command through the
// order's state machine. payload is evaluated against the loaded order.
func transition(
	cmd order.Command,
	payload func(ctx context.Context, uow UoW, o *order.Order, now time.Time) (order.Payload, error),
) mutation {
	return func(ctx context.Context, uow UoW, o *order.Order, now time.Time) (*order.Outcome, error) {
		var p order.Payload
		if payload != nil {
			var err error
			if p, err = payload(ctx, uow, o, now); err != nil {
				return nil, err
			}
		}
		out, err := o.Execute(cmd, p, now)
		if err != nil {
			return nil, err
		}
		return &out, nil
	}
}
