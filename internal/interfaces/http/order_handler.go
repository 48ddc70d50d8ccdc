package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/application/order"
	"github.com/jhoicas/stockflow-api/pkg/logger"
)

// OrderHandler maneja las peticiones HTTP de pedidos.
type OrderHandler struct {
	uc      *order.OrderUseCase
	picking *order.PickingListUseCase
	errorMapper
}

// NewOrderHandler construye el handler.
func NewOrderHandler(uc *order.OrderUseCase, picking *order.PickingListUseCase, log *logger.Logger) *OrderHandler {
	return &OrderHandler{uc: uc, picking: picking, errorMapper: newErrorMapper(log)}
}

// Create godoc
// @Summary      Crear pedido
// @Description  Descuenta el stock de cada línea en la bodega del pedido. Si alguna línea no alcanza, no se aplica ningún cambio.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "Cliente, bodega y líneas"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/v1/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if !bindAndValidate(c, &in) {
		return nil
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Actualizar pedido
// @Description  Si llegan items, se reemplazan las líneas. En un pedido activo el stock anterior se restituye y el nuevo se descuenta en la misma transacción.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del pedido"
// @Param        body  body  dto.UpdateOrderRequest  true  "Cliente y/o líneas"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/v1/orders/{id} [put]
func (h *OrderHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateOrderRequest
	if !parseBody(c, &in) {
		return nil
	}
	// Una lista vacía explícita es inválida; omitempty no la detecta.
	if in.Items != nil && len(in.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "VALIDATION",
			Message: "datos inválidos",
			Fields:  map[string]string{"items": "min"},
		})
	}
	if !validateStruct(c, &in) {
		return nil
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// ChangeStatus godoc
// @Summary      Cambiar estado del pedido
// @Description  active | completed | canceled. Cancelar restituye el stock; reactivar lo descuenta de nuevo. Repetir el estado actual no tiene efecto.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "ID del pedido"
// @Param        body  body  dto.ChangeOrderStatusRequest  true  "Nuevo estado"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/v1/orders/{id}/status [patch]
func (h *OrderHandler) ChangeStatus(c *fiber.Ctx) error {
	var in dto.ChangeOrderStatusRequest
	if !parseBody(c, &in) {
		return nil
	}
	out, err := h.uc.ChangeStatus(c.UserContext(), c.Params("id"), in.Status)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar pedido
// @Description  Restituye el stock si el pedido lo retiene y elimina pedido y líneas.
// @Tags         orders
// @Param        id   path  string  true  "ID del pedido"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/v1/orders/{id} [delete]
func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetByID godoc
// @Summary      Obtener pedido por ID
// @Tags         orders
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/v1/orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar pedidos
// @Tags         orders
// @Produce      json
// @Param        status    query  string  false  "active | completed | canceled"
// @Param        limit     query  int     false  "Límite"  default(20)
// @Param        offset    query  int     false  "Offset"  default(0)
// @Param        page      query  int     false  "Página (desde 1)"
// @Param        per_page  query  int     false  "Tamaño de página"
// @Success      200       {object}  dto.OrderListResponse
// @Failure      400       {object}  dto.ErrorResponse
// @Router       /api/v1/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c, dto.DefaultLimit, dto.MaxLimit)
	out, err := h.uc.List(c.UserContext(), c.Query("status"), limit, offset)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// PickingList godoc
// @Summary      Lista de picking en PDF
// @Tags         orders
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/v1/orders/{id}/picking-list [get]
func (h *OrderHandler) PickingList(c *fiber.Ctx) error {
	pdf, filename, err := h.picking.Download(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	c.Attachment(filename)
	return c.Send(pdf)
}
