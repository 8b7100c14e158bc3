package cmd

import (
	"context"

	"dispatch/api"
	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/events"
	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/postgres/pgnotify"
	"dispatch/internal/core/application/tracking"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CompositionRoot wires the adapters to the application core. It owns the
// long-lived collaborators shared by every handler: the unit of work
// factory, the location feed, the event broadcaster and the pipeline.
type CompositionRoot struct {
	cfg         Config
	logger      *zap.Logger
	uowFactory  ports.UnitOfWorkFactory
	feed        *tracking.LocationFeed
	broadcaster *events.Broadcaster
	relay       *pgnotify.Relay
	planner     services.AssignmentPlanner
	policy      commands.DispatchPolicy
	pipeline    *commands.TransitionPipeline
	clock       commands.Clock
}

// NewCompositionRoot serves from gormDB, or from an in-memory store when
// gormDB is nil. Events are relayed between instances over EVENTS_CHANNEL
// when it is set and the store is Postgres.
func NewCompositionRoot(cfg Config, gormDB *gorm.DB, logger *zap.Logger) (*CompositionRoot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	policy, err := cfg.Tuning.DispatchPolicy()
	if err != nil {
		return nil, err
	}

	c := &CompositionRoot{
		cfg:         cfg,
		logger:      logger,
		feed:        tracking.NewLocationFeed(cfg.Tuning.FeedConfig()),
		broadcaster: events.NewBroadcaster(events.DefaultSubscriberBuffer, logger),
		planner:     services.NewAssignmentPlanner(cfg.Tuning.PlannerConfig()),
		policy:      policy,
		clock:       commands.SystemClock,
	}

	var publisher ports.EventPublisher = c.broadcaster
	if gormDB == nil {
		c.uowFactory = memory.NewUnitOfWorkFactory(memory.NewStore())
	} else {
		c.uowFactory = postgres.NewGormUnitOfWorkFactory(gormDB)
		if cfg.EventsChannel != "" {
			origin := kernel.NewUUID().String()
			publisher = events.FanOut{c.broadcaster, pgnotify.NewPublisher(gormDB, cfg.EventsChannel, origin)}
			c.relay = pgnotify.NewRelay(cfg.DSN(), cfg.EventsChannel, origin, c.broadcaster, logger)
		}
	}

	c.pipeline = commands.NewTransitionPipeline(
		FuncUoWFactory(func() commands.UoW { return c.uowFactory.Create() }),
		publisher,
		c.clock,
		cfg.Tuning.PipelineConfig(),
		logger,
	)
	return c, nil
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) courierUoWFactory() commands.CourierUoWFactory {
	return FuncCourierUoWFactory(func() commands.CourierUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateAssignCourierCommandHandler() commands.AssignCourierCommandHandler {
	return commands.NewAssignCourierCommandHandler(c.pipeline, c.planner, c.feed, c.policy)
}

func (c *CompositionRoot) CommandHandlers() httpin.CommandHandlers {
	return httpin.CommandHandlers{
		CreateOrder:      commands.NewCreateOrderCommandHandler(c.orderUoWFactory(), c.clock, c.logger),
		ApproveOrder:     commands.NewApproveOrderCommandHandler(c.pipeline),
		RejectOrder:      commands.NewRejectOrderCommandHandler(c.pipeline),
		CancelOrder:      commands.NewCancelOrderCommandHandler(c.pipeline),
		BeginPreparation: commands.NewBeginPreparationCommandHandler(c.pipeline),
		MarkReady:        commands.NewMarkReadyCommandHandler(c.pipeline),
		AssignCourier:    c.CreateAssignCourierCommandHandler(),
		ReassignCourier:  commands.NewReassignCourierCommandHandler(c.pipeline, c.planner, c.feed),
		ConfirmDelivery:  commands.NewConfirmDeliveryCommandHandler(c.pipeline),
		AdjustCharges:    commands.NewAdjustChargesCommandHandler(c.pipeline),
		CreateCourier:    commands.NewCreateCourierCommandHandler(c.courierUoWFactory(), c.clock),
		RecordLocation:   commands.NewRecordLocationCommandHandler(c.courierUoWFactory(), c.feed, c.clock, c.logger),
	}
}

// QueryHandlers read committed state through a unit of work that never
// begins a transaction.
func (c *CompositionRoot) QueryHandlers() httpin.QueryHandlers {
	reader := c.uowFactory.Create()
	return httpin.QueryHandlers{
		ListOrders:         queries.NewListOrdersQueryHandler(reader.OrderRepository()),
		GetOrder:           queries.NewGetOrderQueryHandler(reader.OrderRepository()),
		GetOrderHistory:    queries.NewGetOrderHistoryQueryHandler(reader.OrderRepository()),
		GetAllCouriers:     queries.NewGetAllCouriersQueryHandler(reader.CourierRepository(), c.feed, c.cfg.Tuning.FreshnessThreshold, c.clock),
		GetCourierLocation: queries.NewGetCourierLocationQueryHandler(reader.CourierRepository(), c.feed),
		GetCourierTrail:    queries.NewGetCourierTrailQueryHandler(reader.CourierRepository(), c.feed, c.clock),
	}
}

// Router builds the HTTP surface over the embedded OpenAPI document.
func (c *CompositionRoot) Router() (*echo.Echo, error) {
	doc, err := api.Load()
	if err != nil {
		return nil, err
	}
	server := httpin.NewServer(c.CommandHandlers(), c.QueryHandlers(), c.broadcaster, c.logger)
	return httpin.NewRouter(server, doc, c.logger)
}

func (c *CompositionRoot) JobManager() *jobs.JobManager {
	sweep := jobs.NewAssignmentSweepJob(
		c.uowFactory.Create().OrderRepository(),
		c.CreateAssignCourierCommandHandler(),
		c.policy,
		c.cfg.Tuning.SweepConfig(),
		c.logger,
	)
	prune := jobs.NewTrailPruneJob(c.feed, c.clock, c.cfg.Tuning.PruneSchedule, c.logger)
	return jobs.NewJobManager(sweep, prune, c.logger)
}

// RunRelay blocks relaying events from other instances until ctx is done.
// It returns immediately when no relay is configured.
func (c *CompositionRoot) RunRelay(ctx context.Context) error {
	if c.relay == nil {
		return nil
	}
	return c.relay.Run(ctx)
}

// Close ends every event stream subscription.
func (c *CompositionRoot) Close() {
	c.broadcaster.Close()
}

type FuncCourierUoWFactory func() commands.CourierUoW

func (f FuncCourierUoWFactory) Create() commands.CourierUoW {
	return f()
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
