package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/pkg/logger"
)

// errorMapper traduce errores de dominio a respuestas HTTP. Solo registra los 5xx.
type errorMapper struct {
	log *logger.Logger
}

func newErrorMapper(log *logger.Logger) errorMapper {
	if log == nil {
		log = logger.Nop()
	}
	return errorMapper{log: log}
}

func (m errorMapper) fail(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return c.Status(fiber.StatusConflict).JSON(dto.InsufficientStockResponse{
			Code:        "INSUFFICIENT_STOCK",
			Message:     insufficient.Error(),
			ProductID:   insufficient.ProductID,
			WarehouseID: insufficient.WarehouseID,
			Requested:   insufficient.Requested,
			Available:   insufficient.Available,
		})
	}

	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidAdjustmentType):
		status, code = fiber.StatusBadRequest, "INVALID_ADJUSTMENT_TYPE"
	case errors.Is(err, domain.ErrInvalidOrderStatus):
		status, code = fiber.StatusBadRequest, "INVALID_ORDER_STATUS"
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrDuplicate):
		status, code = fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrConflict):
		status, code = fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrTransactionAborted):
		status, code = fiber.StatusServiceUnavailable, "TX_ABORTED"
		c.Set(fiber.HeaderRetryAfter, "1")
	}

	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		m.log.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("error no controlado")
		msg = "error interno"
	} else if status == fiber.StatusServiceUnavailable {
		m.log.Warn().Err(err).Str("path", c.Path()).Msg("transacción abortada")
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// ErrorHandler es el manejador de errores de fiber: errores de fiber (404 de ruta, 405, body
// demasiado grande) conservan su código; el resto pasa por el mapeo de dominio.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	m := newErrorMapper(log)
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: codeForStatus(fe.Code), Message: fe.Message})
		}
		return m.fail(c, err)
	}
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusRequestEntityTooLarge:
		return "BODY_TOO_LARGE"
	default:
		return "INTERNAL"
	}
}
