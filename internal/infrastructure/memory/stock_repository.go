package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// StockRepository implementa repository.StockRepository sobre el Store.
// Con tx != nil opera dentro de esa transacción.
type StockRepository struct {
	s  *Store
	tx *tx
}

var _ repository.StockRepository = (*StockRepository)(nil)

func (r *StockRepository) with(ctx context.Context, fn func(t *tx) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	return r.s.atomic(ctx, fn)
}

// Get devuelve el stock sin bloquear; cantidad 0 si la fila no existe.
func (r *StockRepository) Get(ctx context.Context, productID, warehouseID string) (*entity.Stock, error) {
	var out *entity.Stock
	err := r.with(ctx, func(t *tx) error {
		st, ok := t.stock(stockKey{productID, warehouseID})
		if !ok {
			st = entity.Stock{ProductID: productID, WarehouseID: warehouseID}
		}
		out = &st
		return nil
	})
	return out, err
}

// GetForUpdate bloquea la fila (creándola en 0 si no existe) hasta el fin de la transacción.
func (r *StockRepository) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.Stock, error) {
	var out *entity.Stock
	err := r.with(ctx, func(t *tx) error {
		k := stockKey{productID, warehouseID}
		if err := t.lock(ctx, k.lockKey()); err != nil {
			return err
		}
		st, ok := t.stock(k)
		if !ok {
			st = entity.Stock{ProductID: productID, WarehouseID: warehouseID}
			t.stocks[k] = st
		}
		out = &st
		return nil
	})
	return out, err
}

// Upsert escribe la cantidad. Rechaza cantidades negativas igual que el CHECK de la tabla.
func (r *StockRepository) Upsert(ctx context.Context, stock *entity.Stock) error {
	if stock.Quantity < 0 {
		return fmt.Errorf("%w: cantidad negativa para %s/%s", domain.ErrConflict, stock.ProductID, stock.WarehouseID)
	}
	return r.with(ctx, func(t *tx) error {
		k := stockKey{stock.ProductID, stock.WarehouseID}
		if err := t.lock(ctx, k.lockKey()); err != nil {
			return err
		}
		t.stocks[k] = *stock
		return nil
	})
}

// ListByProduct devuelve el stock del producto en cada bodega, ordenado por bodega.
func (r *StockRepository) ListByProduct(ctx context.Context, productID string) ([]*entity.Stock, error) {
	var out []*entity.Stock
	err := r.with(ctx, func(t *tx) error {
		merged := make(map[string]entity.Stock)
		t.s.mu.RLock()
		for k, st := range t.s.stocks {
			if k.productID == productID {
				merged[k.warehouseID] = st
			}
		}
		t.s.mu.RUnlock()
		for k, st := range t.stocks {
			if k.productID == productID {
				merged[k.warehouseID] = st
			}
		}
		for _, st := range merged {
			st := st
			out = append(out, &st)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].WarehouseID < out[j].WarehouseID })
		return nil
	})
	return out, err
}
