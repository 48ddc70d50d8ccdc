package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// ProductRepository implementa repository.ProductRepository. Escribe directo en el Store.
type ProductRepository struct {
	s *Store
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

func (r *ProductRepository) Create(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[p.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.products[p.ID] = *p
	return nil
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *ProductRepository) Update(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.products[p.ID] = *p
	return nil
}

// Delete falla con domain.ErrConflict si el producto tiene stock o líneas de pedido.
func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return domain.ErrNotFound
	}
	for k := range r.s.stocks {
		if k.productID == id {
			return domain.ErrConflict
		}
	}
	for _, its := range r.s.items {
		for _, it := range its {
			if it.ProductID == id {
				return domain.ErrConflict
			}
		}
	}
	delete(r.s.products, id)
	return nil
}

// List ordena por nombre.
func (r *ProductRepository) List(_ context.Context, limit, offset int) ([]*entity.Product, int, error) {
	r.s.mu.RLock()
	all := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		p := p
		all = append(all, &p)
	}
	r.s.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})
	return page(all, limit, offset), len(all), nil
}

func (r *ProductRepository) Exists(_ context.Context, id string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.products[id]
	return ok, nil
}

// WarehouseRepository implementa repository.WarehouseRepository.
type WarehouseRepository struct {
	s *Store
}

var _ repository.WarehouseRepository = (*WarehouseRepository)(nil)

func (r *WarehouseRepository) Create(_ context.Context, w *entity.Warehouse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.warehouses[w.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.warehouses[w.ID] = *w
	return nil
}

func (r *WarehouseRepository) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.warehouses[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *WarehouseRepository) List(_ context.Context, limit, offset int) ([]*entity.Warehouse, int, error) {
	r.s.mu.RLock()
	all := make([]*entity.Warehouse, 0, len(r.s.warehouses))
	for _, w := range r.s.warehouses {
		w := w
		all = append(all, &w)
	}
	r.s.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})
	return page(all, limit, offset), len(all), nil
}

func (r *WarehouseRepository) Exists(_ context.Context, id string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.warehouses[id]
	return ok, nil
}
