package cache

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
	"github.com/jhoicas/stockflow-api/pkg/logger"
)

// readThrough cache-aside genérico: lee del Store, y en miss consulta load una sola vez
// por clave aunque lleguen varias peticiones a la vez. Solo se cachean resultados no nil.
// Un Store caído degrada a leer directo del repositorio.
func readThrough[T any](ctx context.Context, store Store, group *singleflight.Group, log *logger.Logger,
	key string, ttl time.Duration, load func(context.Context) (*T, error)) (*T, error) {
	if b, ok, err := store.Get(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get falló")
	} else if ok {
		var v T
		if err := json.Unmarshal(b, &v); err == nil {
			return &v, nil
		}
	}

	v, err, _ := group.Do(key, func() (any, error) {
		fresh, err := load(ctx)
		if err != nil || fresh == nil {
			return fresh, err
		}
		if b, mErr := json.Marshal(fresh); mErr == nil {
			if sErr := store.Set(ctx, key, b, ttl); sErr != nil {
				log.Warn().Err(sErr).Str("key", key).Msg("cache set falló")
			}
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

// ProductRepository decora un repository.ProductRepository con cache en GetByID/Exists.
type ProductRepository struct {
	repository.ProductRepository
	store Store
	ttl   time.Duration
	group singleflight.Group
	log   *logger.Logger
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository construye el decorador.
func NewProductRepository(inner repository.ProductRepository, store Store, ttl time.Duration, log *logger.Logger) *ProductRepository {
	return &ProductRepository{ProductRepository: inner, store: store, ttl: ttl, log: log}
}

func productKey(id string) string { return "product:" + id }

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return readThrough(ctx, r.store, &r.group, r.log, productKey(id), r.ttl, func(ctx context.Context) (*entity.Product, error) {
		return r.ProductRepository.GetByID(ctx, id)
	})
}

func (r *ProductRepository) Exists(ctx context.Context, id string) (bool, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return p != nil, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *entity.Product) error {
	if err := r.ProductRepository.Update(ctx, p); err != nil {
		return err
	}
	r.invalidate(ctx, p.ID)
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	if err := r.ProductRepository.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *ProductRepository) invalidate(ctx context.Context, id string) {
	if err := r.store.Delete(ctx, productKey(id)); err != nil {
		r.log.Warn().Err(err).Str("product_id", id).Msg("cache delete falló")
	}
}

// WarehouseRepository decora un repository.WarehouseRepository con cache en GetByID/Exists.
type WarehouseRepository struct {
	repository.WarehouseRepository
	store Store
	ttl   time.Duration
	group singleflight.Group
	log   *logger.Logger
}

var _ repository.WarehouseRepository = (*WarehouseRepository)(nil)

// NewWarehouseRepository construye el decorador.
func NewWarehouseRepository(inner repository.WarehouseRepository, store Store, ttl time.Duration, log *logger.Logger) *WarehouseRepository {
	return &WarehouseRepository{WarehouseRepository: inner, store: store, ttl: ttl, log: log}
}

func (r *WarehouseRepository) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	return readThrough(ctx, r.store, &r.group, r.log, "warehouse:"+id, r.ttl, func(ctx context.Context) (*entity.Warehouse, error) {
		return r.WarehouseRepository.GetByID(ctx, id)
	})
}

func (r *WarehouseRepository) Exists(ctx context.Context, id string) (bool, error) {
	w, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return w != nil, nil
}
