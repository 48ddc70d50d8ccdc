package memory

import (
	"context"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
)

// tx acumula escrituras y locks hasta el commit. No es seguro para uso concurrente;
// cada transacción pertenece a una sola goroutine.
type tx struct {
	s         *Store
	held      []string
	heldSet   map[string]struct{}
	stocks    map[stockKey]entity.Stock
	movements []entity.Movement
	orders    map[string]entity.Order
	items     map[string][]entity.OrderItem
	deleted   map[string]struct{}
}

func (s *Store) begin() *tx {
	return &tx{
		s:       s,
		heldSet: make(map[string]struct{}),
		stocks:  make(map[stockKey]entity.Stock),
		orders:  make(map[string]entity.Order),
		items:   make(map[string][]entity.OrderItem),
		deleted: make(map[string]struct{}),
	}
}

// lock toma el lock de la clave una sola vez por transacción.
func (t *tx) lock(ctx context.Context, key string) error {
	if _, ok := t.heldSet[key]; ok {
		return nil
	}
	if err := t.s.locks.acquire(ctx, key, t.s.lockTimeout); err != nil {
		return err
	}
	t.heldSet[key] = struct{}{}
	t.held = append(t.held, key)
	return nil
}

func (t *tx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.s.locks.release(t.held[i])
	}
	t.held = nil
	t.heldSet = map[string]struct{}{}
}

func (t *tx) commit() {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, st := range t.stocks {
		s.stocks[k] = st
	}
	for _, m := range t.movements {
		s.seq++
		s.movements = append(s.movements, storedMovement{Movement: m, seq: s.seq})
	}
	for id := range t.deleted {
		delete(s.orders, id)
		delete(s.items, id)
	}
	for id, o := range t.orders {
		s.orders[id] = o
	}
	for id, its := range t.items {
		s.items[id] = its
	}
}

// stock devuelve la fila vista por la transacción.
func (t *tx) stock(k stockKey) (entity.Stock, bool) {
	if st, ok := t.stocks[k]; ok {
		return st, true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	st, ok := t.s.stocks[k]
	return st, ok
}

// order devuelve el pedido (con líneas) visto por la transacción.
func (t *tx) order(id string) (*entity.Order, bool) {
	o, ok := t.orders[id]
	if !ok {
		if _, gone := t.deleted[id]; gone {
			return nil, false
		}
		t.s.mu.RLock()
		o, ok = t.s.orders[id]
		t.s.mu.RUnlock()
		if !ok {
			return nil, false
		}
	}
	its, ok := t.items[id]
	if !ok {
		t.s.mu.RLock()
		its = t.s.items[id]
		t.s.mu.RUnlock()
	}
	out := o
	out.Items = append([]entity.OrderItem(nil), its...)
	return &out, true
}
