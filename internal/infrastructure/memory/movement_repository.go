package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// MovementRepository implementa repository.MovementRepository (solo inserción).
type MovementRepository struct {
	s  *Store
	tx *tx
}

var _ repository.MovementRepository = (*MovementRepository)(nil)

func (r *MovementRepository) with(ctx context.Context, fn func(t *tx) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	return r.s.atomic(ctx, fn)
}

// Create agrega el movimiento a la transacción; es visible al confirmar.
func (r *MovementRepository) Create(ctx context.Context, m *entity.Movement) error {
	return r.with(ctx, func(t *tx) error {
		cp := *m
		if m.PreviousStock != nil {
			prev := *m.PreviousStock
			cp.PreviousStock = &prev
		}
		t.movements = append(t.movements, cp)
		return nil
	})
}

// List filtra, ordena (más reciente primero) y pagina el historial.
func (r *MovementRepository) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, int, error) {
	var (
		out   []*entity.Movement
		total int
	)
	err := r.with(ctx, func(t *tx) error {
		t.s.mu.RLock()
		all := make([]storedMovement, 0, len(t.s.movements)+len(t.movements))
		all = append(all, t.s.movements...)
		next := t.s.seq
		t.s.mu.RUnlock()
		for _, m := range t.movements {
			next++
			all = append(all, storedMovement{Movement: m, seq: next})
		}

		matched := all[:0:0]
		for _, m := range all {
			if matchMovement(m.Movement, f) {
				matched = append(matched, m)
			}
		}
		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].CreatedAt.After(matched[j].CreatedAt)
			}
			return matched[i].seq > matched[j].seq
		})

		total = len(matched)
		for _, m := range page(matched, f.Limit, f.Offset) {
			mv := m.Movement
			out = append(out, &mv)
		}
		return nil
	})
	return out, total, err
}

func matchMovement(m entity.Movement, f repository.MovementFilter) bool {
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	if f.WarehouseID != "" && m.WarehouseID != f.WarehouseID {
		return false
	}
	if f.From != nil && m.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && m.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

// page recorta s según limit/offset; limit <= 0 devuelve todo desde offset.
func page[T any](s []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(s) {
		return nil
	}
	s = s[offset:]
	if limit > 0 && limit < len(s) {
		s = s[:limit]
	}
	return s
}
