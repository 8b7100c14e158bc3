package jobs

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync/atomic"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// OrderLister finds orders by filter.
type OrderLister interface {
	ListByFilter(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error)
}

// Assigner runs assign_courier for one order.
type Assigner interface {
	Handle(ctx context.Context, cmd commands.AssignCourierCommand) (*order.Order, error)
}

// SweepConfig tunes the assignment sweep.
type SweepConfig struct {
	// Schedule is a cron expression with a seconds field.
	Schedule string
	// Concurrency bounds the assign_courier calls running at once.
	Concurrency int
	// BatchSize caps the orders examined per sweep.
	BatchSize int
}

func DefaultSweepConfig() SweepConfig {
	return SweepConfig{Schedule: "*/30 * * * * *", Concurrency: 4, BatchSize: 200}
}

// SweepResult counts what one sweep did.
type SweepResult struct {
	Examined int
	Assigned int
	Waiting  int
	Failed   int
}

// AssignmentSweepJob retries assign_courier for orders still waiting for a
// courier: aprobado orders of direct-dispatch origins and listo orders.
type AssignmentSweepJob struct {
	orders   OrderLister
	assigner Assigner
	policy   commands.DispatchPolicy
	cfg      SweepConfig
	cron     *cron.Cron
	logger   *zap.Logger
}

func NewAssignmentSweepJob(
	orders OrderLister,
	assigner Assigner,
	policy commands.DispatchPolicy,
	cfg SweepConfig,
	logger *zap.Logger,
) *AssignmentSweepJob {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("assignment_sweep_job")
	return &AssignmentSweepJob{
		orders:   orders,
		assigner: assigner,
		policy:   policy,
		cfg:      cfg,
		cron:     newCron(logger),
		logger:   logger,
	}
}

// Sweep examines the waiting orders once, most urgent first.
func (j *AssignmentSweepJob) Sweep(ctx context.Context) (SweepResult, error) {
	candidates, err := j.candidates(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	var assigned, waiting, failed atomic.Int32
	examined := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.cfg.Concurrency)
	for _, o := range candidates {
		if !j.policy.AwaitsCourier(o) {
			continue
		}
		examined++

		cmd, cmdErr := commands.NewAssignCourierCommand(o.ID())
		if cmdErr != nil {
			return SweepResult{}, cmdErr
		}
		log := j.logger.With(zap.String("order_id", o.ID().String()), zap.String("folio", o.Folio()))

		g.Go(func() error {
			_, assignErr := j.assigner.Handle(gctx, cmd)
			switch {
			case assignErr == nil:
				assigned.Add(1)
			case errors.Is(assignErr, commands.ErrNoCourierAvailable):
				waiting.Add(1)
				log.Debug("no courier available")
			case errors.Is(assignErr, errs.ErrInvalidTransition):
				// moved on since the listing
				log.Debug("order no longer awaits a courier", zap.Error(assignErr))
			default:
				failed.Add(1)
				log.Error("assignment failed", zap.Error(assignErr))
			}
			return nil
		})
	}
	_ = g.Wait()

	return SweepResult{
		Examined: examined,
		Assigned: int(assigned.Load()),
		Waiting:  int(waiting.Load()),
		Failed:   int(failed.Load()),
	}, nil
}

// candidates lists the listo orders and the aprobado orders of direct
// dispatch origins, most urgent first, capped to BatchSize.
func (j *AssignmentSweepJob) candidates(ctx context.Context) ([]*order.Order, error) {
	filters := []ports.OrderFilter{{
		States: []order.State{order.StateReady},
		Limit:  j.cfg.BatchSize,
	}}
	if len(j.policy.DirectDispatchOrigins) > 0 {
		filters = append(filters, ports.OrderFilter{
			States:  []order.State{order.StateApproved},
			Origins: j.policy.DirectDispatchOrigins,
			Limit:   j.cfg.BatchSize,
		})
	}

	var candidates []*order.Order
	for _, filter := range filters {
		found, err := j.orders.ListByFilter(ctx, filter)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, found...)
	}

	slices.SortFunc(candidates, func(a, b *order.Order) int {
		if c := cmp.Compare(b.Priority(), a.Priority()); c != 0 {
			return c
		}
		if c := a.CreatedAt().Compare(b.CreatedAt()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID().String(), b.ID().String())
	})
	if j.cfg.BatchSize > 0 && len(candidates) > j.cfg.BatchSize {
		candidates = candidates[:j.cfg.BatchSize]
	}
	return candidates, nil
}

// Start schedules Sweep. A sweep still running when the next one is due is
// skipped.
func (j *AssignmentSweepJob) Start() error {
	_, err := j.cron.AddFunc(j.cfg.Schedule, func() {
		result, err := j.Sweep(context.Background())
		if err != nil {
			j.logger.Error("assignment sweep failed", zap.Error(err))
			return
		}
		if result.Examined > 0 {
			j.logger.Info("assignment sweep finished",
				zap.Int("examined", result.Examined),
				zap.Int("assigned", result.Assigned),
				zap.Int("waiting", result.Waiting),
				zap.Int("failed", result.Failed))
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("assignment sweep job started", zap.String("schedule", j.cfg.Schedule))
	return nil
}

// Stop stops scheduling and waits for a running sweep to finish.
func (j *AssignmentSweepJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("assignment sweep job stopped")
}
