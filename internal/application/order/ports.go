package order

import (
	"context"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción que incluye repos de stock y pedidos.
type TxRunner interface {
	RunOrder(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
		orderRepo repository.OrderRepository,
	) error) error
}

// StockLedger operaciones del ledger que usa el motor de pedidos.
// Se ejecutan con los repositorios del caller (misma transacción); si retornan error
// (ej: *domain.InsufficientStockError) el caller debe hacer rollback.
type StockLedger interface {
	Deduct(ctx context.Context, movRepo repository.MovementRepository, stockRepo repository.StockRepository,
		productID, warehouseID string, qty int64, reference string) error
	Restore(ctx context.Context, movRepo repository.MovementRepository, stockRepo repository.StockRepository,
		productID, warehouseID string, qty int64, reference string) error
}

// PickingLine línea de la hoja de picking con el nombre del producto resuelto.
type PickingLine struct {
	entity.OrderItem
	ProductName string
}

// PickingListGenerator genera el PDF de picking de un pedido.
type PickingListGenerator interface {
	GeneratePickingList(ctx context.Context, order *entity.Order, warehouse *entity.Warehouse, lines []PickingLine) ([]byte, error)
}
