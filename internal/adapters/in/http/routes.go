package http

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface lists the operations of api/openapi.yml.
type ServerInterface interface {
	// (GET /api/v1/orders)
	ListOrders(ctx echo.Context, params ListOrdersParams) error
	// (POST /api/v1/orders)
	CreateOrder(ctx echo.Context) error
	// (GET /api/v1/orders/{orderId})
	GetOrder(ctx echo.Context, orderID uuid.UUID) error
	// (GET /api/v1/orders/{orderId}/history)
	GetOrderHistory(ctx echo.Context, orderID uuid.UUID) error
	// (POST /api/v1/orders/{orderId}/approve)
	ApproveOrder(ctx echo.Context, orderID uuid.UUID) error
	// (POST /api/v1/orders/{orderId}/reject)
	RejectOrder(ctx echo.Context, orderID uuid.UUID) error
	// (POST /api/v1/orders/{orderId}/cancel)
	CancelOrder(ctx echo.Context, orderID uuid.UUID) error
	// (POST /api/v1/orders/{orderId}/begin-prep)
	BeginPreparation(ctx echo.Context, orderID uuid.UUID) error
	// (POST /api/v1/orders/{orderId}/mark-ready)
	MarkReady(ctx echo.Context, orderID uuid.UUID) error
	// (POST /api/v1/orders/{orderId}/assign)
	AssignCourier(ctx echo.Context, orderID uuid.UUID) error
	// (POST /api/v1/orders/{orderId}/reassign)
	ReassignCourier(ctx echo.Context, orderID uuid.UUID) error
	// (POST /api/v1/orders/{orderId}/confirm-delivery)
	ConfirmDelivery(ctx echo.Context, orderID uuid.UUID) error
	// (PUT /api/v1/orders/{orderId}/charges)
	AdjustCharges(ctx echo.Context, orderID uuid.UUID) error
	// (GET /api/v1/couriers)
	ListCouriers(ctx echo.Context) error
	// (POST /api/v1/couriers)
	CreateCourier(ctx echo.Context) error
	// (GET /api/v1/couriers/{courierId}/location)
	GetCourierLocation(ctx echo.Context, courierID uuid.UUID) error
	// (POST /api/v1/couriers/{courierId}/location)
	ReportLocation(ctx echo.Context, courierID uuid.UUID) error
	// (GET /api/v1/couriers/{courierId}/trail)
	GetCourierTrail(ctx echo.Context, courierID uuid.UUID, params GetCourierTrailParams) error
	// (GET /api/v1/events)
	StreamEvents(ctx echo.Context) error
}

type ListOrdersParams struct {
	State  *[]string
	Origin *string
	Search *string
	Limit  *int
}

type GetCourierTrailParams struct {
	Window *string
}

// ServerInterfaceWrapper converts echo contexts to typed parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func bindUUID(ctx echo.Context, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, ctx.Param(name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return id, nil
}

func (w *ServerInterfaceWrapper) ListOrders(ctx echo.Context) error {
	var params ListOrdersParams

	if err := runtime.BindQueryParameter("form", true, false, "state", ctx.QueryParams(), &params.State); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter state: %s", err))
	}
	if err := runtime.BindQueryParameter("form", true, false, "origin", ctx.QueryParams(), &params.Origin); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter origin: %s", err))
	}
	if err := runtime.BindQueryParameter("form", true, false, "search", ctx.QueryParams(), &params.Search); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter search: %s", err))
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", ctx.QueryParams(), &params.Limit); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter limit: %s", err))
	}

	return w.Handler.ListOrders(ctx, params)
}

func (w *ServerInterfaceWrapper) CreateOrder(ctx echo.Context) error {
	return w.Handler.CreateOrder(ctx)
}

// withOrderID binds orderId and calls the matching handler method.
func (w *ServerInterfaceWrapper) withOrderID(call func(echo.Context, uuid.UUID) error) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		orderID, err := bindUUID(ctx, "orderId")
		if err != nil {
			return err
		}
		return call(ctx, orderID)
	}
}

func (w *ServerInterfaceWrapper) withCourierID(call func(echo.Context, uuid.UUID) error) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		courierID, err := bindUUID(ctx, "courierId")
		if err != nil {
			return err
		}
		return call(ctx, courierID)
	}
}

func (w *ServerInterfaceWrapper) ListCouriers(ctx echo.Context) error {
	return w.Handler.ListCouriers(ctx)
}

func (w *ServerInterfaceWrapper) CreateCourier(ctx echo.Context) error {
	return w.Handler.CreateCourier(ctx)
}

func (w *ServerInterfaceWrapper) GetCourierTrail(ctx echo.Context) error {
	courierID, err := bindUUID(ctx, "courierId")
	if err != nil {
		return err
	}

	var params GetCourierTrailParams
	if err = runtime.BindQueryParameter("form", true, false, "window", ctx.QueryParams(), &params.Window); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter window: %s", err))
	}

	return w.Handler.GetCourierTrail(ctx, courierID, params)
}

func (w *ServerInterfaceWrapper) StreamEvents(ctx echo.Context) error {
	return w.Handler.StreamEvents(ctx)
}

// EchoRouter is the subset of echo.Echo and echo.Group used for registration.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds every operation of si to router.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	w := &ServerInterfaceWrapper{Handler: si}

	router.GET("/api/v1/orders", w.ListOrders)
	router.POST("/api/v1/orders", w.CreateOrder)
	router.GET("/api/v1/orders/:orderId", w.withOrderID(si.GetOrder))
	router.GET("/api/v1/orders/:orderId/history", w.withOrderID(si.GetOrderHistory))
	router.POST("/api/v1/orders/:orderId/approve", w.withOrderID(si.ApproveOrder))
	router.POST("/api/v1/orders/:orderId/reject", w.withOrderID(si.RejectOrder))
	router.POST("/api/v1/orders/:orderId/cancel", w.withOrderID(si.CancelOrder))
	router.POST("/api/v1/orders/:orderId/begin-prep", w.withOrderID(si.BeginPreparation))
	router.POST("/api/v1/orders/:orderId/mark-ready", w.withOrderID(si.MarkReady))
	router.POST("/api/v1/orders/:orderId/assign", w.withOrderID(si.AssignCourier))
	router.POST("/api/v1/orders/:orderId/reassign", w.withOrderID(si.ReassignCourier))
	router.POST("/api/v1/orders/:orderId/confirm-delivery", w.withOrderID(si.ConfirmDelivery))
	router.PUT("/api/v1/orders/:orderId/charges", w.withOrderID(si.AdjustCharges))
	router.GET("/api/v1/couriers", w.ListCouriers)
	router.POST("/api/v1/couriers", w.CreateCourier)
	router.GET("/api/v1/couriers/:courierId/location", w.withCourierID(si.GetCourierLocation))
	router.POST("/api/v1/couriers/:courierId/location", w.withCourierID(si.ReportLocation))
	router.GET("/api/v1/couriers/:courierId/trail", w.GetCourierTrail)
	router.GET("/api/v1/events", w.StreamEvents)
}
