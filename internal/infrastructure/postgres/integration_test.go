//go:build integration

package postgres_test

// Pruebas contra un PostgreSQL real levantado con testcontainers.
// Ejecutar con: go test -tags integration ./internal/infrastructure/postgres/... -v

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/application/order"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stockflow-api/pkg/config"
)

// ── Setup ────────────────────────────────────────────────────────────────────

type pgEnv struct {
	pool   *pgxpool.Pool
	runner *postgres.TxRunner
	stock  *inventory.StockUseCase
	orders *order.OrderUseCase
}

func setupPostgres(t *testing.T) *pgEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("stockflow_test"),
		tcPostgres.WithUsername("stockflow"),
		tcPostgres.WithPassword("stockflow"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: pgURL, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	applied, err := postgres.Migrate(ctx, pool)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init", "002_movements_previous_stock"}, applied)

	again, err := postgres.Migrate(ctx, pool)
	require.NoError(t, err)
	assert.Empty(t, again, "las migraciones son idempotentes")

	runner := postgres.NewTxRunner(pool, 500*time.Millisecond)
	ledger := inventory.NewLedger()
	products := postgres.NewProductRepository(pool)
	warehouses := postgres.NewWarehouseRepository(pool)

	env := &pgEnv{
		pool:   pool,
		runner: runner,
		stock: inventory.NewStockUseCase(runner, ledger, postgres.NewStockRepository(pool),
			postgres.NewMovementRepository(pool), products, warehouses),
		orders: order.NewOrderUseCase(runner, ledger, postgres.NewOrderRepository(pool), products, warehouses),
	}

	now := time.Now().UTC()
	require.NoError(t, warehouses.Create(ctx, &entity.Warehouse{ID: "w1", Name: "Central", CreatedAt: now, UpdatedAt: now}))
	for _, id := range []string{"p1", "p2"} {
		require.NoError(t, products.Create(ctx, &entity.Product{ID: id, Name: "Producto " + id, Price: decimal.RequireFromString("12.50"), CreatedAt: now, UpdatedAt: now}))
	}
	return env
}

func (e *pgEnv) adjust(t *testing.T, productID string, qty int64, typ string) error {
	t.Helper()
	_, err := e.stock.AdjustStock(context.Background(), dto.AdjustStockRequest{
		ProductID: productID, WarehouseID: "w1", Quantity: qty, Type: typ,
	})
	return err
}

func (e *pgEnv) qty(t *testing.T, productID string) int64 {
	t.Helper()
	res, err := e.stock.GetStock(context.Background(), productID, "w1")
	require.NoError(t, err)
	return res.Quantity
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestPostgres_LedgerYPedidos(t *testing.T) {
	env := setupPostgres(t)
	ctx := context.Background()

	t.Run("descuentos concurrentes", func(t *testing.T) {
		require.NoError(t, env.adjust(t, "p1", 7, entity.MovementTypeIncrease))

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = env.adjust(t, "p1", 5, entity.MovementTypeDecrease)
			}(i)
		}
		wg.Wait()

		var insufficient int
		for _, err := range errs {
			if err != nil {
				require.ErrorIs(t, err, domain.ErrInsufficientStock)
				insufficient++
			}
		}
		assert.Equal(t, 1, insufficient)
		assert.Equal(t, int64(2), env.qty(t, "p1"))
	})

	t.Run("pedido atómico", func(t *testing.T) {
		require.NoError(t, env.adjust(t, "p1", 8, entity.MovementTypeIncrease)) // p1 = 10
		require.NoError(t, env.adjust(t, "p2", 2, entity.MovementTypeIncrease))

		_, err := env.orders.Create(ctx, dto.CreateOrderRequest{
			Customer: "Ana", WarehouseID: "w1",
			Items: []dto.OrderItemRequest{{ProductID: "p1", Count: 5}, {ProductID: "p2", Count: 3}},
		})
		var insufficient *domain.InsufficientStockError
		require.True(t, errors.As(err, &insufficient))
		assert.Equal(t, "p2", insufficient.ProductID)
		assert.Equal(t, int64(10), env.qty(t, "p1"))
	})

	t.Run("cancelar y reactivar", func(t *testing.T) {
		res, err := env.orders.Create(ctx, dto.CreateOrderRequest{
			Customer: "Ana", WarehouseID: "w1", Items: []dto.OrderItemRequest{{ProductID: "p1", Count: 4}},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(6), env.qty(t, "p1"))

		_, err = env.orders.ChangeStatus(ctx, res.ID, entity.OrderStatusCanceled)
		require.NoError(t, err)
		_, err = env.orders.ChangeStatus(ctx, res.ID, entity.OrderStatusCanceled)
		require.NoError(t, err)
		assert.Equal(t, int64(10), env.qty(t, "p1"))

		_, err = env.orders.ChangeStatus(ctx, res.ID, entity.OrderStatusActive)
		require.NoError(t, err)
		assert.Equal(t, int64(6), env.qty(t, "p1"))

		updated, err := env.orders.Update(ctx, res.ID, dto.UpdateOrderRequest{Items: []dto.OrderItemRequest{{ProductID: "p1", Count: 1}}})
		require.NoError(t, err)
		require.Len(t, updated.Items, 1)
		assert.Equal(t, int64(9), env.qty(t, "p1"))

		list, err := env.orders.List(ctx, entity.OrderStatusActive, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, list.Page.Total)
	})

	t.Run("historial con stock previo", func(t *testing.T) {
		res, err := env.stock.ListMovements(ctx, dto.MovementQuery{ProductID: "p1", Limit: 100})
		require.NoError(t, err)
		require.NotEmpty(t, res.Items)
		for _, m := range res.Items {
			require.NotNil(t, m.PreviousStock)
			assert.GreaterOrEqual(t, *m.PreviousStock+m.Quantity, int64(0))
		}
	})

	t.Run("producto referenciado no se elimina", func(t *testing.T) {
		err := postgres.NewProductRepository(env.pool).Delete(ctx, "p1")
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

// Una fila bloqueada más allá de lock_timeout aborta la segunda transacción.
func TestPostgres_LockTimeoutAborta(t *testing.T) {
	env := setupPostgres(t)
	ctx := context.Background()

	locked := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = env.runner.Run(ctx, func(_ repository.MovementRepository, stockRepo repository.StockRepository) error {
			_, err := stockRepo.GetForUpdate(ctx, "p2", "w1")
			close(locked)
			<-release
			return err
		})
	}()
	<-locked

	err := env.runner.Run(ctx, func(_ repository.MovementRepository, stockRepo repository.StockRepository) error {
		_, err := stockRepo.GetForUpdate(ctx, "p2", "w1")
		return err
	})
	close(release)
	assert.ErrorIs(t, err, domain.ErrTransactionAborted)
}
