package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/application/order"
	"github.com/jhoicas/stockflow-api/internal/application/usecase"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/memory"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/stockflow-api/internal/interfaces/http"
	"github.com/jhoicas/stockflow-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const testWarehouse = "w-1"

// buildTestApp arma la API completa sobre el adaptador en memoria con una bodega y
// los productos indicados con su stock inicial.
func buildTestApp(t *testing.T, initial map[string]int64) *fiber.App {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore(2 * time.Second)
	now := time.Now()
	require.NoError(t, store.Warehouses().Create(ctx, &entity.Warehouse{ID: testWarehouse, Name: "Central", CreatedAt: now, UpdatedAt: now}))

	runner := memory.NewTxRunner(store)
	ledger := inventory.NewLedger()
	stockUC := inventory.NewStockUseCase(runner, ledger, store.Stocks(), store.Movements(), store.Products(), store.Warehouses())
	for id, qty := range initial {
		require.NoError(t, store.Products().Create(ctx, &entity.Product{ID: id, Name: "Producto " + id, CreatedAt: now, UpdatedAt: now}))
		if qty > 0 {
			_, err := stockUC.AdjustStock(ctx, dto.AdjustStockRequest{ProductID: id, WarehouseID: testWarehouse, Quantity: qty, Type: entity.MovementTypeIncrease})
			require.NoError(t, err)
		}
	}

	log := logger.Nop()
	app := apphttp.NewApp("stockflow-test", log)
	apphttp.Router(app, apphttp.RouterDeps{
		OrderUC:     order.NewOrderUseCase(runner, ledger, store.Orders(), store.Products(), store.Warehouses()),
		PickingUC:   order.NewPickingListUseCase(store.Orders(), store.Products(), store.Warehouses(), pdf.NewMarotoPickingListGenerator()),
		StockUC:     stockUC,
		ProductUC:   usecase.NewProductUseCase(store.Products(), store.Stocks(), store.Warehouses()),
		WarehouseUC: usecase.NewWarehouseUseCase(store.Warehouses()),
		Log:         log,
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func stockOf(t *testing.T, app *fiber.App, productID string) int64 {
	t.Helper()
	resp, raw := doRequest(t, app, http.MethodGet, "/api/v1/stock?product_id="+productID+"&warehouse_id="+testWarehouse, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	return decode[dto.StockResponse](t, raw).Quantity
}

func createOrder(t *testing.T, app *fiber.App, items ...dto.OrderItemRequest) dto.OrderResponse {
	t.Helper()
	resp, raw := doRequest(t, app, http.MethodPost, "/api/v1/orders", dto.CreateOrderRequest{
		Customer: "ACME", WarehouseID: testWarehouse, Items: items,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	return decode[dto.OrderResponse](t, raw)
}

// ──────────────────────────────────────────────────────────────────────────────
// Pedidos
// ──────────────────────────────────────────────────────────────────────────────

func TestOrders_CrearDescuentaStock(t *testing.T) {
	app := buildTestApp(t, map[string]int64{"p1": 10})

	out := createOrder(t, app, dto.OrderItemRequest{ProductID: "p1", Count: 5})

	assert.Equal(t, entity.OrderStatusActive, out.Status)
	assert.Nil(t, out.CompletedAt)
	require.Len(t, out.Items, 1)
	assert.Equal(t, int64(5), stockOf(t, app, "p1"))
}

func TestOrders_StockInsuficienteNoAplicaCambios(t *testing.T) {
	app := buildTestApp(t, map[string]int64{"p1": 10, "p2": 2})

	resp, raw := doRequest(t, app, http.MethodPost, "/api/v1/orders", dto.CreateOrderRequest{
		Customer:    "ACME",
		WarehouseID: testWarehouse,
		Items:       []dto.OrderItemRequest{{ProductID: "p1", Count: 5}, {ProductID: "p2", Count: 3}},
	})

	require.Equal(t, http.StatusConflict, resp.StatusCode, string(raw))
	body := decode[dto.InsufficientStockResponse](t, raw)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)
	assert.Equal(t, "p2", body.ProductID)
	assert.Equal(t, testWarehouse, body.WarehouseID)
	assert.Equal(t, int64(3), body.Requested)
	assert.Equal(t, int64(2), body.Available)
	assert.Equal(t, int64(10), stockOf(t, app, "p1"))
	assert.Equal(t, int64(2), stockOf(t, app, "p2"))
}

func TestOrders_CrearValidaCampos(t *testing.T) {
	app := buildTestApp(t, map[string]int64{"p1": 10})

	resp, raw := doRequest(t, app, http.MethodPost, "/api/v1/orders", dto.CreateOrderRequest{
		WarehouseID: testWarehouse,
		Items:       []dto.OrderItemRequest{{ProductID: "p1", Count: 0}},
	})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, raw)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Equal(t, "required", body.Fields["customer"])
	assert.Equal(t, "required", body.Fields["items[0].count"])
}

func TestOrders_CuerpoInvalido(t *testing.T) {
	app := buildTestApp(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString("{no-json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOrders_BodegaInexistente(t *testing.T) {
	app := buildTestApp(t, map[string]int64{"p1": 10})

	resp, raw := doRequest(t, app, http.MethodPost, "/api/v1/orders", dto.CreateOrderRequest{
		Customer: "ACME", WarehouseID: "nope", Items: []dto.OrderItemRequest{{ProductID: "p1", Count: 1}},
	})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode, string(raw))
}

func TestOrders_UpdateReemplazaLineas(t *testing.T) {
	app := buildTestApp(t, map[string]int64{"p1": 10})
	created := createOrder(t, app, dto.OrderItemRequest{ProductID: "p1", Count: 5})

	resp, raw := doRequest(t, app, http.MethodPut, "/api/v1/orders/"+created.ID, dto.UpdateOrderRequest{
		Items: []dto.OrderItemRequest{{ProductID: "p1", Count: 2}},
	})

	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	out := decode[dto.OrderResponse](t, raw)
	require.Len(t, out.Items, 1)
	assert.Equal(t, int64(2), out.Items[0].Count)
	assert.Equal(t, int64(8), stockOf(t, app, "p1"))
}

func TestOrders_UpdateConListaVaciaEsInvalido(t *testing.T) {
	app := buildTestApp(t, map[string]int64{"p1": 10})
	created := createOrder(t, app, dto.OrderItemRequest{ProductID: "p1", Count: 5})

	resp, raw := doRequest(t, app, http.MethodPut, "/api/v1/orders/"+created.ID, map[string]interface{}{"items": []interface{}{}})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decode[dto.ErrorResponse](t, raw).Code)
	assert.Equal(t, int64(5), stockOf(t, app, "p1"))
}

func TestOrders_CancelarYReactivar(t *testing.T) {
	app := buildTestApp(t, map[string]int64{"p1": 10})
	created := createOrder(t, app, dto.OrderItemRequest{ProductID: "p1", Count: 4})
	path := "/api/v1/orders/" + created.ID + "/status"

	resp, raw := doRequest(t, app, http.MethodPatch, path, dto.ChangeOrderStatusRequest{Status: entity.OrderStatusCanceled})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, int64(10), stockOf(t, app, "p1"))

	// Repetir la cancelación no restituye dos veces.
	resp, _ = doRequest(t, app, http.MethodPatch, path, dto.ChangeOrderStatusRequest{Status: entity.OrderStatusCanceled})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(10), stockOf(t, app, "p1"))

	resp, raw = doRequest(t, app, http.MethodPatch, path, dto.ChangeOrderStatusRequest{Status: entity.OrderStatusActive})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, int64(6), stockOf(t, app, "p1"))
}

func TestOrders_CompletarFijaCompletedAt(t *testing.T) {
	app := buildTestApp(t, map[string]int64{"p1": 10})
	created := createOrder(t, app, dto.OrderItemRequest{ProductID: "p1", Count: 1})

	resp, raw := doRequest(t, app, http.MethodPatch, "/api/v1/orders/"+created.ID+"/status", dto.ChangeOrderStatusRequest{Status: entity.OrderStatusCompleted})

	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	out := decode[dto.OrderResponse](t, raw)
	assert.Equal(t, entity.OrderStatusCompleted, out.Status)
	assert.NotNil(t, out.CompletedAt)
	assert.Equal(t, int64(9), stockOf(t, app, "p1"))
}

func TestOrders_EstadoInvalido(t *testing.T) {
	app := buildTestApp(t, map[string]int64{"p1": 10})
	created := createOrder(t, app, dto.OrderItemRequest{ProductID: "p1", Count: 1})

	resp, raw := doRequest(t, app, http.MethodPatch, "/api/v1/orders/"+created.ID+"/status", dto.ChangeOrderStatusRequest{Status: "shipped"})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_ORDER_STATUS", decode[dto.ErrorResponse](t, raw).Code)
}

func TestOrders_GetInexistenteDevuelve404(t *testing.T) {
	app := buildTestApp(t, nil)

	resp, raw := doRequest(t, app, http.MethodGet, "/api/v1/orders/no-existe", nil)

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode[dto.ErrorResponse](t, raw).Code)
}

func TestOrders_EliminarRestituyeStock(t *testing.T) {
	app := buildTestApp(t, map[string]int64{"p1": 10})
	created := createOrder(t, app, dto.OrderItemRequest{ProductID: "p1", Count: 7})

	resp, _ := doRequest(t, app, http.MethodDelete, "/api/v1/orders/"+created.ID, nil)

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, int64(10), stockOf(t, app, "p1"))
	resp, _ = doRequest(t, app, http.MethodGet, "/api/v1/orders/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOrders_ListFiltraPorEstado(t *testing.T) {
	app := buildTestApp(t, map[string]int64{"p1": 10})
	first := createOrder(t, app, dto.OrderItemRequest{ProductID: "p1", Count: 1})
	createOrder(t, app, dto.OrderItemRequest{ProductID: "p1", Count: 1})
	resp, _ := doRequest(t, app, http.MethodPatch, "/api/v1/orders/"+first.ID+"/status", dto.ChangeOrderStatusRequest{Status: entity.OrderStatusCanceled})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := doRequest(t, app, http.MethodGet, "/api/v1/orders?status=canceled", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	out := decode[dto.OrderListResponse](t, raw)
	require.Len(t, out.Items, 1)
	assert.Equal(t, first.ID, out.Items[0].ID)
	assert.Equal(t, 1, out.Page.Total)
}

func TestOrders_PickingListDevuelvePDF(t *testing.T) {
	app := buildTestApp(t, map[string]int64{"p1": 10})
	created := createOrder(t, app, dto.OrderItemRequest{ProductID: "p1", Count: 2})

	resp, raw := doRequest(t, app, http.MethodGet, "/api/v1/orders/"+created.ID+"/picking-list", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "picking-"+created.ID+".pdf")
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Stock y movimientos
// ──────────────────────────────────────────────────────────────────────────────

func TestStock_TipoInvalidoSeRechazaPrimero(t *testing.T) {
	app := buildTestApp(t, map[string]int64{"p1": 10})

	// quantity también es inválida, pero manda el tipo.
	resp, raw := doRequest(t, app, http.MethodPost, "/api/v1/stock/adjustments", dto.AdjustStockRequest{
		ProductID: "p1", WarehouseID: testWarehouse, Quantity: 0, Type: "transfer",
	})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_ADJUSTMENT_TYPE", decode[dto.ErrorResponse](t, raw).Code)
	assert.Equal(t, int64(10), stockOf(t, app, "p1"))
}

func TestStock_AjusteIncreaseYDecrease(t *testing.T) {
	app := buildTestApp(t, map[string]int64{"p1": 10})

	resp, raw := doRequest(t, app, http.MethodPost, "/api/v1/stock/adjustments", dto.AdjustStockRequest{
		ProductID: "p1", WarehouseID: testWarehouse, Quantity: 5, Type: entity.MovementTypeIncrease,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	assert.Equal(t, int64(15), decode[dto.StockResponse](t, raw).Quantity)

	resp, raw = doRequest(t, app, http.MethodPost, "/api/v1/stock/adjustments", dto.AdjustStockRequest{
		ProductID: "p1", WarehouseID: testWarehouse, Quantity: 20, Type: entity.MovementTypeDecrease,
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", decode[dto.InsufficientStockResponse](t, raw).Code)
	assert.Equal(t, int64(15), stockOf(t, app, "p1"))
}

func TestStock_SinHistorialDevuelveCero(t *testing.T) {
	app := buildTestApp(t, map[string]int64{"p1": 0})

	assert.Equal(t, int64(0), stockOf(t, app, "p1"))
}

func TestStock_ParametrosRequeridos(t *testing.T) {
	app := buildTestApp(t, nil)

	resp, raw := doRequest(t, app, http.MethodGet, "/api/v1/stock?product_id=p1", nil)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "required", decode[dto.ErrorResponse](t, raw).Fields["warehouse_id"])
}

func TestMovements_PaginacionYRangoDeFechas(t *testing.T) {
	app := buildTestApp(t, map[string]int64{"p1": 10})
	for i := 0; i < 11; i++ {
		resp, raw := doRequest(t, app, http.MethodPost, "/api/v1/stock/adjustments", dto.AdjustStockRequest{
			ProductID: "p1", WarehouseID: testWarehouse, Quantity: 1, Type: entity.MovementTypeIncrease,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	}

	// 12 movimientos (1 inicial + 11); la página por defecto es de 10.
	resp, raw := doRequest(t, app, http.MethodGet, "/api/v1/movements?product_id=p1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	out := decode[dto.MovementListResponse](t, raw)
	assert.Len(t, out.Items, 10)
	assert.Equal(t, 12, out.Page.Total)
	require.NotNil(t, out.Items[0].PreviousStock)
	assert.Equal(t, int64(20), *out.Items[0].PreviousStock)

	resp, raw = doRequest(t, app, http.MethodGet, "/api/v1/movements?product_id=p1&page=2&per_page=10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[dto.MovementListResponse](t, raw).Items, 2)

	// end_date sin hora incluye todo el día.
	today := time.Now().UTC().Format("2006-01-02")
	resp, raw = doRequest(t, app, http.MethodGet, "/api/v1/movements?product_id=p1&per_page=50&start_date="+today+"&end_date="+today, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, 12, decode[dto.MovementListResponse](t, raw).Page.Total)

	// Un extremo suelto se ignora.
	resp, raw = doRequest(t, app, http.MethodGet, "/api/v1/movements?product_id=p1&start_date=2999-01-01", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 12, decode[dto.MovementListResponse](t, raw).Page.Total)
}

func TestMovements_FechaInvalida(t *testing.T) {
	app := buildTestApp(t, nil)

	resp, raw := doRequest(t, app, http.MethodGet, "/api/v1/movements?start_date=ayer&end_date=hoy", nil)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decode[dto.ErrorResponse](t, raw).Code)
}

func TestMovements_RangoInvertido(t *testing.T) {
	app := buildTestApp(t, nil)

	resp, _ := doRequest(t, app, http.MethodGet, "/api/v1/movements?start_date=2024-02-01&end_date=2024-01-01", nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo
// ──────────────────────────────────────────────────────────────────────────────

func TestProducts_CrearYConsultarConStock(t *testing.T) {
	app := buildTestApp(t, nil)

	resp, raw := doRequest(t, app, http.MethodPost, "/api/v1/products", map[string]interface{}{"name": "Tornillo", "price": "1500.50"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	created := decode[dto.ProductResponse](t, raw)
	assert.Equal(t, "1500.5", created.Price.String())

	resp, raw = doRequest(t, app, http.MethodPost, "/api/v1/stock/adjustments", dto.AdjustStockRequest{
		ProductID: created.ID, WarehouseID: testWarehouse, Quantity: 3, Type: entity.MovementTypeIncrease,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = doRequest(t, app, http.MethodGet, "/api/v1/products/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	got := decode[dto.ProductResponse](t, raw)
	require.Len(t, got.Stocks, 1)
	assert.Equal(t, testWarehouse, got.Stocks[0].WarehouseID)
	assert.Equal(t, int64(3), got.Stocks[0].Quantity)
}

func TestProducts_PrecioNegativo(t *testing.T) {
	app := buildTestApp(t, nil)

	resp, raw := doRequest(t, app, http.MethodPost, "/api/v1/products", map[string]interface{}{"name": "X", "price": -1})

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "min", decode[dto.ErrorResponse](t, raw).Fields["price"])
}

func TestWarehouses_CrearYListar(t *testing.T) {
	app := buildTestApp(t, nil)

	resp, raw := doRequest(t, app, http.MethodPost, "/api/v1/warehouses", dto.CreateWarehouseRequest{Name: "Norte", Address: "Calle 1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = doRequest(t, app, http.MethodGet, "/api/v1/warehouses", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, decode[dto.WarehouseListResponse](t, raw).Page.Total)
}

// ──────────────────────────────────────────────────────────────────────────────
// Infraestructura HTTP
// ──────────────────────────────────────────────────────────────────────────────

func TestRutaInexistenteDevuelveJSON(t *testing.T) {
	app := buildTestApp(t, nil)

	resp, raw := doRequest(t, app, http.MethodGet, "/api/v1/nada", nil)

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode[dto.ErrorResponse](t, raw).Code)
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	app := fiber.New()
	app.Get("/health", apphttp.Health("stockflow", map[string]apphttp.Pinger{"db": ok}))
	app.Get("/degraded", apphttp.Health("stockflow", map[string]apphttp.Pinger{"db": ok, "redis": down}))

	resp, raw := doRequest(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"ok":true`)

	resp, raw = doRequest(t, app, http.MethodGet, "/degraded", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(raw), `"redis":"error"`)
	assert.NotContains(t, string(raw), "connection refused")
}
