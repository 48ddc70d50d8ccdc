package repository

import (
	"context"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar stock por bodega+producto.
// Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	// Get devuelve el stock actual; si no existe la fila devuelve cantidad 0 (no es error).
	Get(ctx context.Context, productID, warehouseID string) (*entity.Stock, error)
	// GetForUpdate crea la fila si no existe (cantidad 0) y la bloquea hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.Stock, error)
	Upsert(ctx context.Context, stock *entity.Stock) error
	ListByProduct(ctx context.Context, productID string) ([]*entity.Stock, error)
}
