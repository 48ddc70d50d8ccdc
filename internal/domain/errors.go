package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrDuplicate             = errors.New("recurso duplicado")
	ErrConflict              = errors.New("conflicto con el estado actual")
	ErrInsufficientStock     = errors.New("stock insuficiente")
	ErrInvalidAdjustmentType = errors.New("tipo de ajuste inválido (increase|decrease)")
	ErrInvalidOrderStatus    = errors.New("estado de pedido inválido (active|completed|canceled)")
	ErrTransactionAborted    = errors.New("transacción abortada, reintente la operación")
)

// InsufficientStockError indica que un descuento dejaría el stock en negativo.
// errors.Is(err, ErrInsufficientStock) es verdadero para este tipo.
type InsufficientStockError struct {
	ProductID   string
	WarehouseID string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para el producto %s en la bodega %s: solicitado %d, disponible %d",
		e.ProductID, e.WarehouseID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// TransactionAbortError envuelve la causa de infraestructura (timeout de lock, deadlock,
// fallo de serialización) por la que la unidad atómica no pudo confirmarse.
type TransactionAbortError struct {
	Cause error
}

// NewTransactionAbortError construye el error a partir de la causa original.
func NewTransactionAbortError(cause error) error {
	return &TransactionAbortError{Cause: cause}
}

func (e *TransactionAbortError) Error() string {
	if e.Cause == nil {
		return ErrTransactionAborted.Error()
	}
	return ErrTransactionAborted.Error() + ": " + e.Cause.Error()
}

func (e *TransactionAbortError) Is(target error) bool { return target == ErrTransactionAborted }

func (e *TransactionAbortError) Unwrap() error { return e.Cause }
