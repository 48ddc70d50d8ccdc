package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// Ledger es el único punto de mutación del stock. Cada cambio bloquea la fila
// (producto, bodega), valida y registra exactamente un Movement antes de escribir la cantidad.
// Todos los métodos reciben repositorios atados a la transacción del llamador.
type Ledger struct {
	now func() time.Time
}

// NewLedger construye el ledger con el reloj del sistema.
func NewLedger() *Ledger {
	return &Ledger{now: time.Now}
}

// Deduct descuenta qty del stock. Si el disponible es menor devuelve *domain.InsufficientStockError
// sin tocar nada.
func (l *Ledger) Deduct(ctx context.Context, movRepo repository.MovementRepository, stockRepo repository.StockRepository,
	productID, warehouseID string, qty int64, reference string) error {
	if err := checkKey(productID, warehouseID, qty); err != nil {
		return err
	}
	stock, err := stockRepo.GetForUpdate(ctx, productID, warehouseID)
	if err != nil {
		return err
	}
	if stock.Quantity < qty {
		return &domain.InsufficientStockError{
			ProductID:   productID,
			WarehouseID: warehouseID,
			Requested:   qty,
			Available:   stock.Quantity,
		}
	}
	return l.apply(ctx, movRepo, stockRepo, stock, -qty, entity.MovementTypeDecrease, reference)
}

// Restore devuelve qty al stock (cancelación, edición de pedido o entrada manual).
// Siempre registra un movimiento increase.
func (l *Ledger) Restore(ctx context.Context, movRepo repository.MovementRepository, stockRepo repository.StockRepository,
	productID, warehouseID string, qty int64, reference string) error {
	if err := checkKey(productID, warehouseID, qty); err != nil {
		return err
	}
	stock, err := stockRepo.GetForUpdate(ctx, productID, warehouseID)
	if err != nil {
		return err
	}
	return l.apply(ctx, movRepo, stockRepo, stock, qty, entity.MovementTypeIncrease, reference)
}

// Adjust aplica un ajuste manual: decrease = Deduct, increase = Restore.
func (l *Ledger) Adjust(ctx context.Context, movRepo repository.MovementRepository, stockRepo repository.StockRepository,
	productID, warehouseID string, qty int64, movementType, reference string) error {
	switch movementType {
	case entity.MovementTypeDecrease:
		return l.Deduct(ctx, movRepo, stockRepo, productID, warehouseID, qty, reference)
	case entity.MovementTypeIncrease:
		return l.Restore(ctx, movRepo, stockRepo, productID, warehouseID, qty, reference)
	default:
		return domain.ErrInvalidAdjustmentType
	}
}

// Quantity devuelve la cantidad actual; 0 si la fila aún no existe.
func (l *Ledger) Quantity(ctx context.Context, stockRepo repository.StockRepository, productID, warehouseID string) (int64, error) {
	stock, err := stockRepo.Get(ctx, productID, warehouseID)
	if err != nil {
		return 0, err
	}
	if stock == nil {
		return 0, nil
	}
	return stock.Quantity, nil
}

func (l *Ledger) apply(ctx context.Context, movRepo repository.MovementRepository, stockRepo repository.StockRepository,
	stock *entity.Stock, delta int64, movementType, reference string) error {
	now := l.now()
	previous := stock.Quantity
	mov := &entity.Movement{
		ID:            uuid.New().String(),
		ProductID:     stock.ProductID,
		WarehouseID:   stock.WarehouseID,
		Quantity:      delta,
		Type:          movementType,
		PreviousStock: &previous,
		Reference:     reference,
		CreatedAt:     now,
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return fmt.Errorf("registrar movimiento: %w", err)
	}
	stock.Quantity = previous + delta
	stock.UpdatedAt = now
	if err := stockRepo.Upsert(ctx, stock); err != nil {
		return fmt.Errorf("actualizar stock: %w", err)
	}
	return nil
}

func checkKey(productID, warehouseID string, qty int64) error {
	if productID == "" || warehouseID == "" || qty <= 0 {
		return domain.ErrInvalidInput
	}
	return nil
}
