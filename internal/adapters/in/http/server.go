package http

import (
	"net/http"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// DefaultTrailWindow is used when GET .../trail has no window parameter.
const DefaultTrailWindow = 10 * time.Minute

// CommandHandlers groups the state-changing use cases served over HTTP.
type CommandHandlers struct {
	CreateOrder      commands.CreateOrderCommandHandler
	ApproveOrder     commands.ApproveOrderCommandHandler
	RejectOrder      commands.RejectOrderCommandHandler
	CancelOrder      commands.CancelOrderCommandHandler
	BeginPreparation commands.BeginPreparationCommandHandler
	MarkReady        commands.MarkReadyCommandHandler
	AssignCourier    commands.AssignCourierCommandHandler
	ReassignCourier  commands.ReassignCourierCommandHandler
	ConfirmDelivery  commands.ConfirmDeliveryCommandHandler
	AdjustCharges    commands.AdjustChargesCommandHandler
	CreateCourier    commands.CreateCourierCommandHandler
	RecordLocation   commands.RecordLocationCommandHandler
}

// QueryHandlers groups the read use cases served over HTTP.
type QueryHandlers struct {
	ListOrders         queries.ListOrdersQueryHandler
	GetOrder           queries.GetOrderQueryHandler
	GetOrderHistory    queries.GetOrderHistoryQueryHandler
	GetAllCouriers     queries.GetAllCouriersQueryHandler
	GetCourierLocation queries.GetCourierLocationQueryHandler
	GetCourierTrail    queries.GetCourierTrailQueryHandler
}

// EventSource hands out subscriptions to committed state changes.
type EventSource interface {
	Subscribe() (<-chan order.StateChanged, func())
}

var _ ServerInterface = (*Server)(nil)

// Server implements ServerInterface on top of the command and query handlers.
type Server struct {
	commands  CommandHandlers
	queries   QueryHandlers
	events    EventSource
	heartbeat time.Duration
	logger    *zap.Logger
}

func NewServer(cmds CommandHandlers, qs QueryHandlers, events EventSource, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		commands:  cmds,
		queries:   qs,
		events:    events,
		heartbeat: 15 * time.Second,
		logger:    logger.Named("http"),
	}
}

// WithHeartbeat sets the interval of SSE keep-alive comments.
func (s *Server) WithHeartbeat(d time.Duration) *Server {
	if d > 0 {
		s.heartbeat = d
	}
	return s
}

func toKernel(id uuid.UUID) (kernel.UUID, error) {
	return kernel.UUIDFromBytes(id[:])
}

func badBody(ctx echo.Context) error {
	return ctx.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: "Invalid request body"})
}

// ListOrders handles GET /api/v1/orders.
func (s *Server) ListOrders(ctx echo.Context, params ListOrdersParams) error {
	var (
		states         []string
		origin, search string
		limit          int
	)
	if params.State != nil {
		states = *params.State
	}
	if params.Origin != nil {
		origin = *params.Origin
	}
	if params.Search != nil {
		search = *params.Search
	}
	if params.Limit != nil {
		limit = *params.Limit
	}

	query, err := queries.NewListOrdersQuery(states, origin, search, limit)
	if err != nil {
		return s.fail(ctx, err)
	}

	views, err := s.queries.ListOrders.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}
	if views == nil {
		views = []queries.OrderView{}
	}
	return ctx.JSON(http.StatusOK, views)
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var body NewOrder
	if err := ctx.Bind(&body); err != nil {
		return badBody(ctx)
	}

	intake, err := body.Intake()
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), intake)
	if err != nil {
		return s.fail(ctx, err)
	}

	o, err := s.commands.CreateOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, queries.NewOrderView(o))
}

// GetOrder handles GET /api/v1/orders/{orderId}.
func (s *Server) GetOrder(ctx echo.Context, orderID uuid.UUID) error {
	id, err := toKernel(orderID)
	if err != nil {
		return s.fail(ctx, err)
	}
	query, err := queries.NewGetOrderQuery(id)
	if err != nil {
		return s.fail(ctx, err)
	}

	view, err := s.queries.GetOrder.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, view)
}

// GetOrderHistory handles GET /api/v1/orders/{orderId}/history.
func (s *Server) GetOrderHistory(ctx echo.Context, orderID uuid.UUID) error {
	id, err := toKernel(orderID)
	if err != nil {
		return s.fail(ctx, err)
	}
	query, err := queries.NewGetOrderHistoryQuery(id)
	if err != nil {
		return s.fail(ctx, err)
	}

	views, err := s.queries.GetOrderHistory.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}
	if views == nil {
		views = []queries.HistoryView{}
	}
	return ctx.JSON(http.StatusOK, views)
}

// transition runs a lifecycle command built from the order id and answers
// with the committed order.
func (s *Server) transition(ctx echo.Context, orderID uuid.UUID, run func(kernel.UUID) (*order.Order, error)) error {
	id, err := toKernel(orderID)
	if err != nil {
		return s.fail(ctx, err)
	}
	o, err := run(id)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, queries.NewOrderView(o))
}

// ApproveOrder handles POST /api/v1/orders/{orderId}/approve.
func (s *Server) ApproveOrder(ctx echo.Context, orderID uuid.UUID) error {
	return s.transition(ctx, orderID, func(id kernel.UUID) (*order.Order, error) {
		cmd, err := commands.NewApproveOrderCommand(id)
		if err != nil {
			return nil, err
		}
		return s.commands.ApproveOrder.Handle(ctx.Request().Context(), cmd)
	})
}

// RejectOrder handles POST /api/v1/orders/{orderId}/reject.
func (s *Server) RejectOrder(ctx echo.Context, orderID uuid.UUID) error {
	var body Reason
	if err := ctx.Bind(&body); err != nil {
		return badBody(ctx)
	}
	return s.transition(ctx, orderID, func(id kernel.UUID) (*order.Order, error) {
		cmd, err := commands.NewRejectOrderCommand(id, body.Reason)
		if err != nil {
			return nil, err
		}
		return s.commands.RejectOrder.Handle(ctx.Request().Context(), cmd)
	})
}

// CancelOrder handles POST /api/v1/orders/{orderId}/cancel.
func (s *Server) CancelOrder(ctx echo.Context, orderID uuid.UUID) error {
	var body Reason
	if err := ctx.Bind(&body); err != nil {
		return badBody(ctx)
	}
	return s.transition(ctx, orderID, func(id kernel.UUID) (*order.Order, error) {
		cmd, err := commands.NewCancelOrderCommand(id, body.Reason)
		if err != nil {
			return nil, err
		}
		return s.commands.CancelOrder.Handle(ctx.Request().Context(), cmd)
	})
}

// BeginPreparation handles POST /api/v1/orders/{orderId}/begin-prep.
func (s *Server) BeginPreparation(ctx echo.Context, orderID uuid.UUID) error {
	return s.transition(ctx, orderID, func(id kernel.UUID) (*order.Order, error) {
		cmd, err := commands.NewBeginPreparationCommand(id)
		if err != nil {
			return nil, err
		}
		return s.commands.BeginPreparation.Handle(ctx.Request().Context(), cmd)
	})
}

// MarkReady handles POST /api/v1/orders/{orderId}/mark-ready.
func (s *Server) MarkReady(ctx echo.Context, orderID uuid.UUID) error {
	return s.transition(ctx, orderID, func(id kernel.UUID) (*order.Order, error) {
		cmd, err := commands.NewMarkReadyCommand(id)
		if err != nil {
			return nil, err
		}
		return s.commands.MarkReady.Handle(ctx.Request().Context(), cmd)
	})
}

// AssignCourier handles POST /api/v1/orders/{orderId}/assign. Without an
// available courier it answers 202 and the order stays where it was.
func (s *Server) AssignCourier(ctx echo.Context, orderID uuid.UUID) error {
	return s.transition(ctx, orderID, func(id kernel.UUID) (*order.Order, error) {
		cmd, err := commands.NewAssignCourierCommand(id)
		if err != nil {
			return nil, err
		}
		return s.commands.AssignCourier.Handle(ctx.Request().Context(), cmd)
	})
}

// ReassignCourier handles POST /api/v1/orders/{orderId}/reassign.
func (s *Server) ReassignCourier(ctx echo.Context, orderID uuid.UUID) error {
	return s.transition(ctx, orderID, func(id kernel.UUID) (*order.Order, error) {
		cmd, err := commands.NewReassignCourierCommand(id)
		if err != nil {
			return nil, err
		}
		return s.commands.ReassignCourier.Handle(ctx.Request().Context(), cmd)
	})
}

// ConfirmDelivery handles POST /api/v1/orders/{orderId}/confirm-delivery.
func (s *Server) ConfirmDelivery(ctx echo.Context, orderID uuid.UUID) error {
	return s.transition(ctx, orderID, func(id kernel.UUID) (*order.Order, error) {
		cmd, err := commands.NewConfirmDeliveryCommand(id)
		if err != nil {
			return nil, err
		}
		return s.commands.ConfirmDelivery.Handle(ctx.Request().Context(), cmd)
	})
}

// AdjustCharges handles PUT /api/v1/orders/{orderId}/charges.
func (s *Server) AdjustCharges(ctx echo.Context, orderID uuid.UUID) error {
	var body Charges
	if err := ctx.Bind(&body); err != nil {
		return badBody(ctx)
	}
	return s.transition(ctx, orderID, func(id kernel.UUID) (*order.Order, error) {
		taxes, err := parseMoney("taxes", body.Taxes)
		if err != nil {
			return nil, err
		}
		shipping, err := parseMoney("shipping_cost", body.ShippingCost)
		if err != nil {
			return nil, err
		}
		cmd, err := commands.NewAdjustChargesCommand(id, taxes, shipping)
		if err != nil {
			return nil, err
		}
		return s.commands.AdjustCharges.Handle(ctx.Request().Context(), cmd)
	})
}

// ListCouriers handles GET /api/v1/couriers.
func (s *Server) ListCouriers(ctx echo.Context) error {
	views, err := s.queries.GetAllCouriers.Handle(ctx.Request().Context(), queries.NewGetAllCouriersQuery())
	if err != nil {
		return s.fail(ctx, err)
	}
	if views == nil {
		views = []queries.CourierView{}
	}
	return ctx.JSON(http.StatusOK, views)
}

// CreateCourier handles POST /api/v1/couriers.
func (s *Server) CreateCourier(ctx echo.Context) error {
	var body NewCourier
	if err := ctx.Bind(&body); err != nil {
		return badBody(ctx)
	}

	cmd, err := commands.NewCreateCourierCommand(kernel.NewUUID(), body.DisplayName, body.Phone)
	if err != nil {
		return s.fail(ctx, err)
	}

	c, err := s.commands.CreateCourier.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, queries.CourierView{
		ID:           c.ID(),
		DisplayName:  c.DisplayName(),
		Phone:        c.Phone(),
		Availability: string(courier.Offline),
		ActiveOrders: []kernel.UUID{},
	})
}

// GetCourierLocation handles GET /api/v1/couriers/{courierId}/location.
func (s *Server) GetCourierLocation(ctx echo.Context, courierID uuid.UUID) error {
	id, err := toKernel(courierID)
	if err != nil {
		return s.fail(ctx, err)
	}
	query, err := queries.NewGetCourierLocationQuery(id)
	if err != nil {
		return s.fail(ctx, err)
	}

	view, err := s.queries.GetCourierLocation.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, view)
}

// ReportLocation handles POST /api/v1/couriers/{courierId}/location.
func (s *Server) ReportLocation(ctx echo.Context, courierID uuid.UUID) error {
	var body LocationReport
	if err := ctx.Bind(&body); err != nil {
		return badBody(ctx)
	}

	id, err := toKernel(courierID)
	if err != nil {
		return s.fail(ctx, err)
	}
	cmd, err := commands.NewRecordLocationCommand(id, body.Lat, body.Lng, body.ReportedAt, body.BatteryPct)
	if err != nil {
		return s.fail(ctx, err)
	}

	outcome, err := s.commands.RecordLocation.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusAccepted, ReportResult{Outcome: string(outcome)})
}

// GetCourierTrail handles GET /api/v1/couriers/{courierId}/trail.
func (s *Server) GetCourierTrail(ctx echo.Context, courierID uuid.UUID, params GetCourierTrailParams) error {
	id, err := toKernel(courierID)
	if err != nil {
		return s.fail(ctx, err)
	}

	window := DefaultTrailWindow
	if params.Window != nil {
		window, err = time.ParseDuration(*params.Window)
		if err != nil {
			return s.fail(ctx, errs.NewValueIsInvalidErrorWithCause("window", err))
		}
	}

	query, err := queries.NewGetCourierTrailQuery(id, window)
	if err != nil {
		return s.fail(ctx, err)
	}

	views, err := s.queries.GetCourierTrail.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}
	if views == nil {
		views = []queries.LocationView{}
	}
	return ctx.JSON(http.StatusOK, views)
}
