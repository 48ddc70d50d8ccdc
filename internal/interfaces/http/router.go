package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/application/order"
	"github.com/jhoicas/stockflow-api/internal/application/usecase"
	"github.com/jhoicas/stockflow-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	OrderUC     *order.OrderUseCase
	PickingUC   *order.PickingListUseCase
	StockUC     *inventory.StockUseCase
	ProductUC   *usecase.ProductUseCase
	WarehouseUC *usecase.WarehouseUseCase
	Log         *logger.Logger
}

// NewApp construye la aplicación fiber con recover, request id, log de peticiones y el
// manejador de errores de dominio.
func NewApp(name string, log *logger.Logger) *fiber.App {
	if log == nil {
		log = logger.Nop()
	}
	app := fiber.New(fiber.Config{
		AppName:      name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(RequestLogger(log.Component("http")))
	return app
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api/v1")

	// Orders
	orders := api.Group("/orders")
	orderHandler := NewOrderHandler(deps.OrderUC, deps.PickingUC, deps.Log)
	orders.Post("/", orderHandler.Create)
	orders.Get("/", orderHandler.List)
	orders.Get("/:id", orderHandler.GetByID)
	orders.Put("/:id", orderHandler.Update)
	orders.Patch("/:id/status", orderHandler.ChangeStatus)
	orders.Delete("/:id", orderHandler.Delete)
	orders.Get("/:id/picking-list", orderHandler.PickingList)

	// Stock y movimientos
	inventoryHandler := NewInventoryHandler(deps.StockUC, deps.Log)
	api.Post("/stock/adjustments", inventoryHandler.AdjustStock)
	api.Get("/stock", inventoryHandler.GetStock)
	api.Get("/movements", inventoryHandler.ListMovements)

	// Products
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.Log)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)

	// Warehouses
	warehouses := api.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC, deps.Log)
	warehouses.Post("/", warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
}
