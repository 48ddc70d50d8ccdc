package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/memory"
	"github.com/jhoicas/stockflow-api/pkg/logger"
)

// countingProducts cuenta las lecturas que llegan al repositorio real.
type countingProducts struct {
	*memory.ProductRepository
	gets  atomic.Int32
	delay time.Duration
}

func (c *countingProducts) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	c.gets.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.ProductRepository.GetByID(ctx, id)
}

// failingStore simula un Redis caído.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("redis down")
}
func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("redis down")
}
func (failingStore) Delete(context.Context, ...string) error { return errors.New("redis down") }

func newProducts(t *testing.T) (*countingProducts, *memory.Store) {
	t.Helper()
	s := memory.NewStore(time.Second)
	now := time.Now()
	require.NoError(t, s.Products().Create(context.Background(), &entity.Product{
		ID: "p1", Name: "Cable", Price: decimal.RequireFromString("9.90"), CreatedAt: now, UpdatedAt: now,
	}))
	return &countingProducts{ProductRepository: s.Products()}, s
}

func TestProductCache_SegundaLecturaNoVaAlRepositorio(t *testing.T) {
	inner, _ := newProducts(t)
	repo := NewProductRepository(inner, NewMemoryStore(), time.Minute, logger.Nop())
	ctx := context.Background()

	p, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("9.90")))

	ok, err := repo.Exists(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(1), inner.gets.Load())
}

func TestProductCache_NoCacheaAusentes(t *testing.T) {
	inner, s := newProducts(t)
	repo := NewProductRepository(inner, NewMemoryStore(), time.Minute, logger.Nop())
	ctx := context.Background()

	ok, err := repo.Exists(ctx, "p2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: "p2", Name: "Nuevo"}))
	ok, err = repo.Exists(ctx, "p2")
	require.NoError(t, err)
	assert.True(t, ok, "un producto recién creado debe verse")
}

func TestProductCache_UpdateInvalida(t *testing.T) {
	inner, _ := newProducts(t)
	repo := NewProductRepository(inner, NewMemoryStore(), time.Minute, logger.Nop())
	ctx := context.Background()

	p, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	p.Name = "Cable UTP"
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Cable UTP", got.Name)

	require.NoError(t, repo.Delete(ctx, "p1"))
	ok, err := repo.Exists(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProductCache_SingleflightColapsaMisses(t *testing.T) {
	inner, _ := newProducts(t)
	inner.delay = 50 * time.Millisecond
	repo := NewProductRepository(inner, NewMemoryStore(), time.Minute, logger.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.GetByID(context.Background(), "p1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Less(t, inner.gets.Load(), int32(10))
}

func TestProductCache_StoreCaidoDegrada(t *testing.T) {
	inner, _ := newProducts(t)
	repo := NewProductRepository(inner, failingStore{}, time.Minute, logger.Nop())

	p, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Cable", p.Name)
}

func TestMemoryStore_Expira(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Second))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	now = now.Add(2 * time.Second)
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWarehouseCache_Exists(t *testing.T) {
	s := memory.NewStore(time.Second)
	ctx := context.Background()
	require.NoError(t, s.Warehouses().Create(ctx, &entity.Warehouse{ID: "w1", Name: "Central"}))
	repo := NewWarehouseRepository(s.Warehouses(), NewMemoryStore(), time.Minute, logger.Nop())

	ok, err := repo.Exists(ctx, "w1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, "w2")
	require.NoError(t, err)
	assert.False(t, ok)
}
