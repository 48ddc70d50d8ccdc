package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// OrderRepository implementa repository.OrderRepository.
type OrderRepository struct {
	s  *Store
	tx *tx
}

var _ repository.OrderRepository = (*OrderRepository)(nil)

func (r *OrderRepository) with(ctx context.Context, fn func(t *tx) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	return r.s.atomic(ctx, fn)
}

// Create inserta el pedido y sus líneas. La bodega y los productos deben existir.
func (r *OrderRepository) Create(ctx context.Context, o *entity.Order) error {
	return r.with(ctx, func(t *tx) error {
		if err := t.lock(ctx, orderLockKey(o.ID)); err != nil {
			return err
		}
		if _, exists := t.order(o.ID); exists {
			return domain.ErrDuplicate
		}
		if err := t.s.checkRefs(o.WarehouseID, o.Items); err != nil {
			return err
		}
		t.orders[o.ID] = stripItems(o)
		t.items[o.ID] = copyItems(o.ID, o.Items)
		return nil
	})
}

// GetByID devuelve (nil, nil) si no existe.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	var out *entity.Order
	err := r.with(ctx, func(t *tx) error {
		if o, ok := t.order(id); ok {
			out = o
		}
		return nil
	})
	return out, err
}

// GetForUpdate bloquea el pedido hasta el fin de la transacción.
func (r *OrderRepository) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	var out *entity.Order
	err := r.with(ctx, func(t *tx) error {
		if err := t.lock(ctx, orderLockKey(id)); err != nil {
			return err
		}
		if o, ok := t.order(id); ok {
			out = o
		}
		return nil
	})
	return out, err
}

// Update guarda los campos del pedido (no las líneas).
func (r *OrderRepository) Update(ctx context.Context, o *entity.Order) error {
	return r.with(ctx, func(t *tx) error {
		if err := t.lock(ctx, orderLockKey(o.ID)); err != nil {
			return err
		}
		if _, ok := t.order(o.ID); !ok {
			return domain.ErrNotFound
		}
		t.orders[o.ID] = stripItems(o)
		return nil
	})
}

// Delete elimina el pedido y sus líneas.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	return r.with(ctx, func(t *tx) error {
		if err := t.lock(ctx, orderLockKey(id)); err != nil {
			return err
		}
		if _, ok := t.order(id); !ok {
			return domain.ErrNotFound
		}
		delete(t.orders, id)
		delete(t.items, id)
		t.deleted[id] = struct{}{}
		return nil
	})
}

// ReplaceItems reemplaza todas las líneas del pedido.
func (r *OrderRepository) ReplaceItems(ctx context.Context, orderID string, items []entity.OrderItem) error {
	return r.with(ctx, func(t *tx) error {
		if err := t.lock(ctx, orderLockKey(orderID)); err != nil {
			return err
		}
		o, ok := t.order(orderID)
		if !ok {
			return domain.ErrNotFound
		}
		if err := t.s.checkRefs(o.WarehouseID, items); err != nil {
			return err
		}
		t.items[orderID] = copyItems(orderID, items)
		return nil
	})
}

// List ordena por created_at DESC, id DESC.
func (r *OrderRepository) List(ctx context.Context, f repository.OrderFilter) ([]*entity.Order, int, error) {
	var (
		out   []*entity.Order
		total int
	)
	err := r.with(ctx, func(t *tx) error {
		ids := make(map[string]struct{})
		t.s.mu.RLock()
		for id := range t.s.orders {
			ids[id] = struct{}{}
		}
		t.s.mu.RUnlock()
		for id := range t.orders {
			ids[id] = struct{}{}
		}

		var all []*entity.Order
		for id := range ids {
			o, ok := t.order(id)
			if !ok {
				continue
			}
			if f.Status != "" && o.Status != f.Status {
				continue
			}
			all = append(all, o)
		}
		sort.Slice(all, func(i, j int) bool {
			if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].CreatedAt.After(all[j].CreatedAt)
			}
			return all[i].ID > all[j].ID
		})
		total = len(all)
		out = page(all, f.Limit, f.Offset)
		return nil
	})
	return out, total, err
}

// checkRefs emula las claves foráneas de orders y order_items.
func (s *Store) checkRefs(warehouseID string, items []entity.OrderItem) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.warehouses[warehouseID]; !ok {
		return domain.ErrNotFound
	}
	for _, it := range items {
		if _, ok := s.products[it.ProductID]; !ok {
			return domain.ErrNotFound
		}
	}
	return nil
}

func stripItems(o *entity.Order) entity.Order {
	cp := *o
	cp.Items = nil
	if o.CompletedAt != nil {
		at := *o.CompletedAt
		cp.CompletedAt = &at
	}
	return cp
}

func copyItems(orderID string, items []entity.OrderItem) []entity.OrderItem {
	out := make([]entity.OrderItem, len(items))
	for i, it := range items {
		it.OrderID = orderID
		out[i] = it
	}
	return out
}
