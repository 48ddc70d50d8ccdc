package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/pkg/logger"
)

// InventoryHandler maneja ajustes manuales, consulta de stock e historial de movimientos.
type InventoryHandler struct {
	uc *inventory.StockUseCase
	errorMapper
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.StockUseCase, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{uc: uc, errorMapper: newErrorMapper(log)}
}

// AdjustStock godoc
// @Summary      Ajuste manual de stock
// @Description  increase suma, decrease resta. Cada ajuste queda registrado como movimiento.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "product_id, warehouse_id, quantity, type"
// @Success      201   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/v1/stock/adjustments [post]
func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if !parseBody(c, &in) {
		return nil
	}
	// El tipo se rechaza antes que cualquier otro campo.
	if !entity.IsValidMovementType(in.Type) {
		return h.fail(c, domain.ErrInvalidAdjustmentType)
	}
	if !validateStruct(c, &in) {
		return nil
	}
	out, err := h.uc.AdjustStock(c.UserContext(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetStock godoc
// @Summary      Stock de un producto en una bodega
// @Description  Devuelve 0 si nunca hubo stock para la combinación.
// @Tags         stock
// @Produce      json
// @Param        product_id    query  string  true  "ID del producto"
// @Param        warehouse_id  query  string  true  "ID de la bodega"
// @Success      200           {object}  dto.StockResponse
// @Failure      400           {object}  dto.ErrorResponse
// @Router       /api/v1/stock [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	productID := strings.TrimSpace(c.Query("product_id"))
	warehouseID := strings.TrimSpace(c.Query("warehouse_id"))
	if productID == "" || warehouseID == "" {
		fields := map[string]string{}
		if productID == "" {
			fields["product_id"] = "required"
		}
		if warehouseID == "" {
			fields["warehouse_id"] = "required"
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Fields: fields})
	}
	out, err := h.uc.GetStock(c.UserContext(), productID, warehouseID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// ListMovements godoc
// @Summary      Historial de movimientos
// @Description  Más reciente primero. El rango de fechas solo se aplica si llegan start_date y end_date; end_date sin hora incluye todo el día.
// @Tags         stock
// @Produce      json
// @Param        product_id    query  string  false  "ID del producto"
// @Param        warehouse_id  query  string  false  "ID de la bodega"
// @Param        start_date    query  string  false  "RFC3339 o YYYY-MM-DD"
// @Param        end_date      query  string  false  "RFC3339 o YYYY-MM-DD"
// @Param        page          query  int     false  "Página (desde 1)"
// @Param        per_page      query  int     false  "Tamaño de página"  default(10)
// @Param        limit         query  int     false  "Límite"
// @Param        offset        query  int     false  "Offset"
// @Success      200           {object}  dto.MovementListResponse
// @Failure      400           {object}  dto.ErrorResponse
// @Router       /api/v1/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	start, err := parseDateParam(c.Query("start_date"), false)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "start_date inválida", Fields: map[string]string{"start_date": "datetime"},
		})
	}
	end, err := parseDateParam(c.Query("end_date"), true)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "end_date inválida", Fields: map[string]string{"end_date": "datetime"},
		})
	}
	limit, offset := pageParams(c, inventory.DefaultMovementLimit, inventory.MaxMovementLimit)
	out, err := h.uc.ListMovements(c.UserContext(), dto.MovementQuery{
		ProductID:   strings.TrimSpace(c.Query("product_id")),
		WarehouseID: strings.TrimSpace(c.Query("warehouse_id")),
		StartDate:   start,
		EndDate:     end,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}
