package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dispatch/api"
	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/events"
	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/core/application/tracking"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type uowFactoryFunc func() commands.UoW

func (f uowFactoryFunc) Create() commands.UoW { return f() }

type orderUoWFactoryFunc func() commands.OrderUoW

func (f orderUoWFactoryFunc) Create() commands.OrderUoW { return f() }

type courierUoWFactoryFunc func() commands.CourierUoW

func (f courierUoWFactoryFunc) Create() commands.CourierUoW { return f() }

// apiEnv serves the full API on the in-memory store with a fixed clock.
type apiEnv struct {
	t           *testing.T
	echo        *echo.Echo
	broadcaster *events.Broadcaster
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	factory := memory.NewUnitOfWorkFactory(memory.NewStore())
	feed := tracking.NewLocationFeed(tracking.DefaultFeedConfig())
	broadcaster := events.NewBroadcaster(16, nil)
	t.Cleanup(broadcaster.Close)

	clock := func() time.Time { return t0 }
	plannerCfg := services.DefaultPlannerConfig()
	planner := services.NewAssignmentPlanner(plannerCfg)
	policy := commands.DefaultDispatchPolicy()

	pipeline := commands.NewTransitionPipeline(
		uowFactoryFunc(func() commands.UoW { return factory.Create() }),
		broadcaster,
		clock,
		commands.PipelineConfig{MaxConflictRetries: 3, CourierCapacity: plannerCfg.Capacity},
		nil,
	)
	orderUoWs := orderUoWFactoryFunc(func() commands.OrderUoW { return factory.Create() })
	courierUoWs := courierUoWFactoryFunc(func() commands.CourierUoW { return factory.Create() })

	reader := factory.Create()
	cmds := httpin.CommandHandlers{
		CreateOrder:      commands.NewCreateOrderCommandHandler(orderUoWs, clock, nil),
		ApproveOrder:     commands.NewApproveOrderCommandHandler(pipeline),
		RejectOrder:      commands.NewRejectOrderCommandHandler(pipeline),
		CancelOrder:      commands.NewCancelOrderCommandHandler(pipeline),
		BeginPreparation: commands.NewBeginPreparationCommandHandler(pipeline),
		MarkReady:        commands.NewMarkReadyCommandHandler(pipeline),
		AssignCourier:    commands.NewAssignCourierCommandHandler(pipeline, planner, feed, policy),
		ReassignCourier:  commands.NewReassignCourierCommandHandler(pipeline, planner, feed),
		ConfirmDelivery:  commands.NewConfirmDeliveryCommandHandler(pipeline),
		AdjustCharges:    commands.NewAdjustChargesCommandHandler(pipeline),
		CreateCourier:    commands.NewCreateCourierCommandHandler(courierUoWs, clock),
		RecordLocation:   commands.NewRecordLocationCommandHandler(courierUoWs, feed, clock, nil),
	}
	qs := httpin.QueryHandlers{
		ListOrders:         queries.NewListOrdersQueryHandler(reader.OrderRepository()),
		GetOrder:           queries.NewGetOrderQueryHandler(reader.OrderRepository()),
		GetOrderHistory:    queries.NewGetOrderHistoryQueryHandler(reader.OrderRepository()),
		GetAllCouriers:     queries.NewGetAllCouriersQueryHandler(reader.CourierRepository(), feed, plannerCfg.FreshnessThreshold, clock),
		GetCourierLocation: queries.NewGetCourierLocationQueryHandler(reader.CourierRepository(), feed),
		GetCourierTrail:    queries.NewGetCourierTrailQueryHandler(reader.CourierRepository(), feed, clock),
	}

	doc, err := api.Load()
	require.NoError(t, err)
	server := httpin.NewServer(cmds, qs, broadcaster, nil).WithHeartbeat(50 * time.Millisecond)
	e, err := httpin.NewRouter(server, doc, nil)
	require.NoError(t, err)

	return &apiEnv{t: t, echo: e, broadcaster: broadcaster}
}

// do sends a JSON request and decodes a JSON response into out when given.
func (a *apiEnv) do(method, path, body string, out any) int {
	a.t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)

	if out != nil {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

type orderBody struct {
	ID              string            `json:"id"`
	Folio           string            `json:"folio"`
	State           string            `json:"state"`
	Total           string            `json:"total"`
	AssignedCourier string            `json:"assigned_courier"`
	StateEnteredAt  map[string]string `json:"state_entered_at"`
	Version         int               `json:"version"`
}

func (a *apiEnv) createOrder(folio, origin string) orderBody {
	a.t.Helper()
	var o orderBody
	code := a.do(http.MethodPost, "/api/v1/orders", `{
		"folio": "`+folio+`",
		"origin": "`+origin+`",
		"customer_ref": "cliente-1",
		"address": "Av. Juárez 10, Centro",
		"destination": {"lat": 19.4326, "lng": -99.1332},
		"items": [{"product_ref": "SKU-AGUA-20L", "quantity": 2, "unit_price": "35.50"}],
		"taxes": "11.36",
		"shipping_cost": "25",
		"priority": "normal"
	}`, &o)
	require.Equal(a.t, http.StatusCreated, code)
	return o
}

func (a *apiEnv) createCourier(name string) string {
	a.t.Helper()
	var c struct {
		ID string `json:"id"`
	}
	code := a.do(http.MethodPost, "/api/v1/couriers", `{"display_name": "`+name+`", "phone": "55 1234 5678"}`, &c)
	require.Equal(a.t, http.StatusCreated, code)
	return c.ID
}

func (a *apiEnv) report(courierID string, lat, lng string, at time.Time) string {
	a.t.Helper()
	var res httpin.ReportResult
	code := a.do(http.MethodPost, "/api/v1/couriers/"+courierID+"/location",
		`{"lat": `+lat+`, "lng": `+lng+`, "reported_at": "`+at.Format(time.RFC3339)+`", "battery_pct": 80}`, &res)
	require.Equal(a.t, http.StatusAccepted, code)
	return res.Outcome
}

func TestHealth(t *testing.T) {
	a := newAPIEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Healthy", rec.Body.String())
}

func TestCreateOrder(t *testing.T) {
	a := newAPIEnv(t)
	o := a.createOrder("TLM-1", "telemarketing")

	assert.Equal(t, "pendiente", o.State)
	assert.Equal(t, "107.36", o.Total)
	assert.Equal(t, 1, o.Version)
	assert.Contains(t, o.StateEnteredAt, "pendiente")
}

func TestCreateOrder_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"missing folio", `{"origin": "sucursal", "items": [{"product_ref": "A", "quantity": 1, "unit_price": "1"}]}`, http.StatusBadRequest},
		{"unknown origin", `{"folio": "X", "origin": "fax", "items": [{"product_ref": "A", "quantity": 1, "unit_price": "1"}]}`, http.StatusBadRequest},
		{"malformed json", `{"folio":`, http.StatusBadRequest},
		{"negative price", `{"folio": "X", "origin": "sucursal", "items": [{"product_ref": "A", "quantity": 1, "unit_price": "-1"}]}`, http.StatusUnprocessableEntity},
		{"price below cents", `{"folio": "X", "origin": "sucursal", "items": [{"product_ref": "A", "quantity": 1, "unit_price": "1.005"}]}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAPIEnv(t)
			var body httpin.Error
			code := a.do(http.MethodPost, "/api/v1/orders", tt.body, &body)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestCreateOrder_DuplicateFolio(t *testing.T) {
	a := newAPIEnv(t)
	a.createOrder("ECO-1", "ecommerce")

	var body httpin.Error
	code := a.do(http.MethodPost, "/api/v1/orders",
		`{"folio": "ECO-1", "origin": "ecommerce", "items": [{"product_ref": "A", "quantity": 1, "unit_price": "1"}]}`, &body)
	assert.Equal(t, http.StatusConflict, code)
}

func TestOrderLifecycle_AssignAndDeliver(t *testing.T) {
	a := newAPIEnv(t)
	courierID := a.createCourier("Ruta 1")
	assert.Equal(t, "latest", a.report(courierID, "19.4371", "-99.1400", t0.Add(-time.Minute)))

	o := a.createOrder("SUC-1", "sucursal")
	path := "/api/v1/orders/" + o.ID

	var approved orderBody
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, path+"/approve", "", &approved))
	assert.Equal(t, "aprobado", approved.State)

	var assigned orderBody
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, path+"/assign", "", &assigned))
	assert.Equal(t, "en_ruta", assigned.State)
	assert.Equal(t, courierID, assigned.AssignedCourier)

	var couriers []struct {
		ID           string   `json:"id"`
		Availability string   `json:"availability"`
		ActiveOrders []string `json:"active_orders"`
	}
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/couriers", "", &couriers))
	require.Len(t, couriers, 1)
	assert.Equal(t, "en_ruta", couriers[0].Availability)
	assert.Equal(t, []string{o.ID}, couriers[0].ActiveOrders)

	var delivered orderBody
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, path+"/confirm-delivery", "", &delivered))
	assert.Equal(t, "entregado", delivered.State)
	assert.Equal(t, 4, delivered.Version)

	var history []struct {
		From    string `json:"from"`
		To      string `json:"to"`
		Command string `json:"command"`
	}
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, path+"/history", "", &history))
	require.Len(t, history, 3)
	assert.Equal(t, "assign_courier", history[1].Command)
	assert.Equal(t, "entregado", history[2].To)
}

func TestAssign_NoCourierAvailable(t *testing.T) {
	a := newAPIEnv(t)
	o := a.createOrder("RUT-1", "rutero")
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/v1/orders/"+o.ID+"/approve", "", nil))

	var body httpin.NotAssigned
	code := a.do(http.MethodPost, "/api/v1/orders/"+o.ID+"/assign", "", &body)
	assert.Equal(t, http.StatusAccepted, code)
	assert.False(t, body.Assigned)

	var got orderBody
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/orders/"+o.ID, "", &got))
	assert.Equal(t, "aprobado", got.State)
}

func TestAssign_PreparationRequired(t *testing.T) {
	a := newAPIEnv(t)
	courierID := a.createCourier("Ruta 2")
	a.report(courierID, "19.4326", "-99.1332", t0)

	o := a.createOrder("ECO-2", "ecommerce")
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/v1/orders/"+o.ID+"/approve", "", nil))

	var body httpin.Error
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/api/v1/orders/"+o.ID+"/assign", "", &body))
	assert.Contains(t, body.Message, "assign_courier")
}

func TestTransitions_Errors(t *testing.T) {
	a := newAPIEnv(t)
	o := a.createOrder("TLM-2", "telemarketing")
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/v1/orders/"+o.ID+"/approve", "", nil))

	var body httpin.Error
	assert.Equal(t, http.StatusConflict,
		a.do(http.MethodPost, "/api/v1/orders/"+o.ID+"/reject", `{"reason": "duplicado"}`, &body))
	assert.Equal(t, "invalid transition: reject is not allowed in state aprobado", body.Message)

	assert.Equal(t, http.StatusUnprocessableEntity,
		a.do(http.MethodPost, "/api/v1/orders/"+o.ID+"/cancel", `{"reason": "   "}`, nil))
	assert.Equal(t, http.StatusBadRequest,
		a.do(http.MethodPost, "/api/v1/orders/"+o.ID+"/cancel", `{}`, nil))

	assert.Equal(t, http.StatusNotFound,
		a.do(http.MethodPost, "/api/v1/orders/9b2f7c1e-4a7d-4d0e-9a51-0c3f2b1d5e6a/approve", "", nil))
	assert.Equal(t, http.StatusBadRequest,
		a.do(http.MethodGet, "/api/v1/orders/not-a-uuid", "", nil))
}

func TestAdjustCharges(t *testing.T) {
	a := newAPIEnv(t)
	o := a.createOrder("TLM-3", "telemarketing")

	var adjusted orderBody
	require.Equal(t, http.StatusOK, a.do(http.MethodPut, "/api/v1/orders/"+o.ID+"/charges",
		`{"taxes": "10", "shipping_cost": "40"}`, &adjusted))
	assert.Equal(t, "121", adjusted.Total)

	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/v1/orders/"+o.ID+"/approve", "", nil))
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/v1/orders/"+o.ID+"/begin-prep", "", nil))
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPut, "/api/v1/orders/"+o.ID+"/charges",
		`{"taxes": "0", "shipping_cost": "0"}`, nil))
}

func TestListOrders(t *testing.T) {
	a := newAPIEnv(t)
	first := a.createOrder("TLM-10", "telemarketing")
	a.createOrder("ECO-11", "ecommerce")
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/v1/orders/"+first.ID+"/approve", "", nil))

	var all []orderBody
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/orders", "", &all))
	assert.Len(t, all, 2)

	var approved []orderBody
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/orders?state=aprobado&state=listo", "", &approved))
	require.Len(t, approved, 1)
	assert.Equal(t, "TLM-10", approved[0].Folio)

	var ecommerce []orderBody
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/orders?origin=ecommerce&limit=5", "", &ecommerce))
	require.Len(t, ecommerce, 1)
	assert.Equal(t, "ECO-11", ecommerce[0].Folio)

	var none []orderBody
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/orders?search=nada", "", &none))
	assert.Empty(t, none)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/v1/orders?state=perdido", "", nil))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/v1/orders?limit=0", "", nil))
}

func TestCourierLocationAndTrail(t *testing.T) {
	a := newAPIEnv(t)
	courierID := a.createCourier("Ruta 3")

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/v1/couriers/"+courierID+"/location", "", nil))

	assert.Equal(t, "latest", a.report(courierID, "19.43", "-99.13", t0.Add(-2*time.Minute)))
	assert.Equal(t, "backfilled", a.report(courierID, "19.42", "-99.12", t0.Add(-20*time.Minute)))
	assert.Equal(t, "duplicate", a.report(courierID, "19.43", "-99.13", t0.Add(-2*time.Minute)))

	var latest struct {
		Lat        float64 `json:"lat"`
		BatteryPct int     `json:"battery_pct"`
	}
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/couriers/"+courierID+"/location", "", &latest))
	assert.InDelta(t, 19.43, latest.Lat, 1e-9)
	assert.Equal(t, 80, latest.BatteryPct)

	var trail []json.RawMessage
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/couriers/"+courierID+"/trail", "", &trail))
	assert.Len(t, trail, 1)
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/v1/couriers/"+courierID+"/trail?window=30m", "", &trail))
	assert.Len(t, trail, 2)

	assert.Equal(t, http.StatusUnprocessableEntity,
		a.do(http.MethodGet, "/api/v1/couriers/"+courierID+"/trail?window=ayer", "", nil))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPost, "/api/v1/couriers/9b2f7c1e-4a7d-4d0e-9a51-0c3f2b1d5e6a/location",
		`{"lat": 1, "lng": 1, "reported_at": "`+t0.Format(time.RFC3339)+`"}`, nil))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/v1/couriers/"+courierID+"/location",
		`{"lat": 91, "lng": 1, "reported_at": "`+t0.Format(time.RFC3339)+`"}`, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, a.do(http.MethodPost, "/api/v1/couriers/"+courierID+"/location",
		`{"lat": 19.43, "lng": -99.13, "reported_at": "`+t0.Add(time.Hour).Format(time.RFC3339)+`"}`, nil))
}

func TestSwaggerDocument(t *testing.T) {
	a := newAPIEnv(t)
	var doc map[string]any
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/swagger/doc.json", "", &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])
}

func TestStreamEvents(t *testing.T) {
	a := newAPIEnv(t)
	o := a.createOrder("SUC-9", "sucursal")

	srv := httptest.NewServer(a.echo)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events", nil)
	require.NoError(t, err)
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/event-stream", res.Header.Get(echo.HeaderContentType))

	require.Eventually(t, func() bool { return a.broadcaster.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/v1/orders/"+o.ID+"/approve", "", nil))

	var event, data string
	scanner := bufio.NewScanner(res.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
		if data != "" {
			break
		}
	}
	require.NoError(t, scanner.Err())

	assert.Equal(t, "state_changed", event)
	var payload struct {
		OrderID string `json:"order_id"`
		From    string `json:"from"`
		To      string `json:"to"`
		Version int    `json:"version"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &payload))
	assert.Equal(t, o.ID, payload.OrderID)
	assert.Equal(t, "pendiente", payload.From)
	assert.Equal(t, "aprobado", payload.To)
	assert.Equal(t, 2, payload.Version)

	cancel()
	require.Eventually(t, func() bool { return a.broadcaster.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}
