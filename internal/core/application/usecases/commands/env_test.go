package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/core/application/tracking"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// Zócalo, Mexico City.
	centro = geo(19.4326, -99.1332)
)

func geo(lat, lng float64) kernel.GeoPoint {
	p, err := kernel.NewGeoPoint(lat, lng)
	if err != nil {
		panic(err)
	}
	return p
}

type uowFactoryFunc func() commands.UoW

func (f uowFactoryFunc) Create() commands.UoW { return f() }

type orderUoWFactoryFunc func() commands.OrderUoW

func (f orderUoWFactoryFunc) Create() commands.OrderUoW { return f() }

type courierUoWFactoryFunc func() commands.CourierUoW

func (f courierUoWFactoryFunc) Create() commands.CourierUoW { return f() }

type recordingPublisher struct {
	mu     sync.Mutex
	events []order.StateChanged
}

func (p *recordingPublisher) Publish(_ context.Context, events ...order.StateChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) Events() []order.StateChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]order.StateChanged(nil), p.events...)
}

// dispatchEnv wires the command handlers to the in-memory store with a fixed clock.
type dispatchEnv struct {
	t        *testing.T
	factory  *memory.UnitOfWorkFactory
	feed     *tracking.LocationFeed
	events   *recordingPublisher
	pipeline *commands.TransitionPipeline
	planner  services.AssignmentPlanner
	policy   commands.DispatchPolicy
	now      time.Time

	// wrap, when set, decorates every unit of work handed to the pipeline.
	wrap func(ports.UnitOfWork) ports.UnitOfWork
}

func newDispatchEnv(t *testing.T, logger *zap.Logger) *dispatchEnv {
	t.Helper()

	e := &dispatchEnv{
		t:       t,
		factory: memory.NewUnitOfWorkFactory(memory.NewStore()),
		feed:    tracking.NewLocationFeed(tracking.DefaultFeedConfig()),
		events:  &recordingPublisher{},
		planner: services.NewAssignmentPlanner(services.DefaultPlannerConfig()),
		policy:  commands.DefaultDispatchPolicy(),
		now:     t0,
	}
	e.pipeline = commands.NewTransitionPipeline(
		uowFactoryFunc(func() commands.UoW {
			uow := e.factory.Create()
			if e.wrap != nil {
				uow = e.wrap(uow)
			}
			return uow
		}),
		e.events,
		e.clock,
		commands.PipelineConfig{MaxConflictRetries: 3, CourierCapacity: 3},
		logger,
	)
	return e
}

func (e *dispatchEnv) clock() time.Time { return e.now }

func (e *dispatchEnv) orderUoWs() commands.OrderUoWFactory {
	return orderUoWFactoryFunc(func() commands.OrderUoW { return e.factory.Create() })
}

func (e *dispatchEnv) courierUoWs() commands.CourierUoWFactory {
	return courierUoWFactoryFunc(func() commands.CourierUoW { return e.factory.Create() })
}

func (e *dispatchEnv) createOrder(folio string, origin order.Origin, priority order.Priority, destination *kernel.GeoPoint) *order.Order {
	e.t.Helper()

	item, err := order.NewLineItem("SKU-AGUA-20L", 2, decimal.RequireFromString("35.50"))
	require.NoError(e.t, err)

	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), order.Intake{
		Folio:        folio,
		Origin:       origin,
		CustomerRef:  "CUST-" + folio,
		Address:      "Av. Juárez 10, Centro",
		Destination:  destination,
		Items:        []order.LineItem{item},
		Taxes:        decimal.RequireFromString("11.36"),
		ShippingCost: decimal.RequireFromString("25"),
		Priority:     priority,
	})
	require.NoError(e.t, err)

	o, err := commands.NewCreateOrderCommandHandler(e.orderUoWs(), e.clock, nil).Handle(e.t.Context(), cmd)
	require.NoError(e.t, err)
	return o
}

func (e *dispatchEnv) createCourier(name string) kernel.UUID {
	e.t.Helper()

	cmd, err := commands.NewCreateCourierCommand(kernel.NewUUID(), name, "55 1234 5678")
	require.NoError(e.t, err)
	c, err := commands.NewCreateCourierCommandHandler(e.courierUoWs(), e.clock).Handle(e.t.Context(), cmd)
	require.NoError(e.t, err)
	return c.ID()
}

// report feeds a location sample taken age before now.
func (e *dispatchEnv) report(courierID kernel.UUID, at kernel.GeoPoint, age time.Duration) {
	e.t.Helper()

	cmd, err := commands.NewRecordLocationCommand(courierID, at.Lat(), at.Lng(), e.now.Add(-age), nil)
	require.NoError(e.t, err)
	_, err = commands.NewRecordLocationCommandHandler(e.courierUoWs(), e.feed, e.clock, nil).Handle(e.t.Context(), cmd)
	require.NoError(e.t, err)
}

// fill claims n slots of a courier for orders outside the test.
func (e *dispatchEnv) fill(courierID kernel.UUID, n int) {
	e.t.Helper()

	ctx := e.t.Context()
	uow := e.factory.Create()
	require.NoError(e.t, uow.Begin(ctx))
	c, err := uow.CourierRepository().Get(ctx, courierID)
	require.NoError(e.t, err)
	for range n {
		require.NoError(e.t, c.Claim(kernel.NewUUID(), 3))
	}
	require.NoError(e.t, uow.CourierRepository().Update(ctx, c))
	require.NoError(e.t, uow.Commit(ctx))
}

func (e *dispatchEnv) order(id kernel.UUID) *order.Order {
	e.t.Helper()
	o, err := e.factory.Create().OrderRepository().Get(e.t.Context(), id)
	require.NoError(e.t, err)
	return o
}

func (e *dispatchEnv) courier(id kernel.UUID) *courier.Courier {
	e.t.Helper()
	c, err := e.factory.Create().CourierRepository().Get(e.t.Context(), id)
	require.NoError(e.t, err)
	return c
}

func (e *dispatchEnv) approve(id kernel.UUID) (*order.Order, error) {
	cmd, err := commands.NewApproveOrderCommand(id)
	require.NoError(e.t, err)
	return commands.NewApproveOrderCommandHandler(e.pipeline).Handle(e.t.Context(), cmd)
}

func (e *dispatchEnv) reject(id kernel.UUID, reason string) (*order.Order, error) {
	cmd, err := commands.NewRejectOrderCommand(id, reason)
	require.NoError(e.t, err)
	return commands.NewRejectOrderCommandHandler(e.pipeline).Handle(e.t.Context(), cmd)
}

func (e *dispatchEnv) cancel(id kernel.UUID, reason string) (*order.Order, error) {
	cmd, err := commands.NewCancelOrderCommand(id, reason)
	require.NoError(e.t, err)
	return commands.NewCancelOrderCommandHandler(e.pipeline).Handle(e.t.Context(), cmd)
}

func (e *dispatchEnv) beginPrep(id kernel.UUID) (*order.Order, error) {
	cmd, err := commands.NewBeginPreparationCommand(id)
	require.NoError(e.t, err)
	return commands.NewBeginPreparationCommandHandler(e.pipeline).Handle(e.t.Context(), cmd)
}

func (e *dispatchEnv) markReady(id kernel.UUID) (*order.Order, error) {
	cmd, err := commands.NewMarkReadyCommand(id)
	require.NoError(e.t, err)
	return commands.NewMarkReadyCommandHandler(e.pipeline).Handle(e.t.Context(), cmd)
}

func (e *dispatchEnv) assign(id kernel.UUID) (*order.Order, error) {
	cmd, err := commands.NewAssignCourierCommand(id)
	require.NoError(e.t, err)
	return commands.NewAssignCourierCommandHandler(e.pipeline, e.planner, e.feed, e.policy).Handle(e.t.Context(), cmd)
}

func (e *dispatchEnv) reassign(id kernel.UUID) (*order.Order, error) {
	cmd, err := commands.NewReassignCourierCommand(id)
	require.NoError(e.t, err)
	return commands.NewReassignCourierCommandHandler(e.pipeline, e.planner, e.feed).Handle(e.t.Context(), cmd)
}

func (e *dispatchEnv) confirm(id kernel.UUID) (*order.Order, error) {
	cmd, err := commands.NewConfirmDeliveryCommand(id)
	require.NoError(e.t, err)
	return commands.NewConfirmDeliveryCommandHandler(e.pipeline).Handle(e.t.Context(), cmd)
}

func (e *dispatchEnv) adjust(id kernel.UUID, taxes, shipping string) (*order.Order, error) {
	cmd, err := commands.NewAdjustChargesCommand(id, decimal.RequireFromString(taxes), decimal.RequireFromString(shipping))
	require.NoError(e.t, err)
	return commands.NewAdjustChargesCommandHandler(e.pipeline).Handle(e.t.Context(), cmd)
}
