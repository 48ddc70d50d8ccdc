// @title        StockFlow API
// @version      1.0
// @description  Inventario por bodega con historial de movimientos y pedidos que descuentan stock de forma atómica.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"golang.org/x/sync/errgroup"

	_ "github.com/jhoicas/stockflow-api/docs"
	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/application/order"
	"github.com/jhoicas/stockflow-api/internal/application/usecase"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/cache"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/stockflow-api/internal/infrastructure/pdf"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stockflow-api/internal/interfaces/http"
	"github.com/jhoicas/stockflow-api/pkg/config"
	"github.com/jhoicas/stockflow-api/pkg/logger"
)

// txRunner lo implementan los adaptadores postgres y memory.
type txRunner interface {
	inventory.TxRunner
	order.TxRunner
}

// backend repositorios y runner del driver elegido.
type backend struct {
	runner     txRunner
	stocks     repository.StockRepository
	movements  repository.MovementRepository
	orders     repository.OrderRepository
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
	checks     map[string]httpRouter.Pinger
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.StoreDriver).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer be.close()

	if cfg.Cache.Enabled() {
		rdb, err := cache.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		store := cache.NewRedisStore(rdb, cfg.App.Name+":")
		cacheLog := log.Component("cache")
		be.products = cache.NewProductRepository(be.products, store, cfg.Cache.TTL, cacheLog)
		be.warehouses = cache.NewWarehouseRepository(be.warehouses, store, cfg.Cache.TTL, cacheLog)
		be.checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Dur("ttl", cfg.Cache.TTL).Msg("cache de catálogo habilitada")
	}

	ledger := inventory.NewLedger()
	stockUC := inventory.NewStockUseCase(be.runner, ledger, be.stocks, be.movements, be.products, be.warehouses)
	orderUC := order.NewOrderUseCase(be.runner, ledger, be.orders, be.products, be.warehouses)
	pickingUC := order.NewPickingListUseCase(be.orders, be.products, be.warehouses, infrapdf.NewMarotoPickingListGenerator())
	productUC := usecase.NewProductUseCase(be.products, be.stocks, be.warehouses)
	warehouseUC := usecase.NewWarehouseUseCase(be.warehouses)

	app := httpRouter.NewApp(cfg.App.Name, log)

	// Swagger UI en local: http://localhost:<port>/docs
	// El middleware entra en pánico si el archivo no existe.
	if _, err := os.Stat(cfg.Swagger.FilePath); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.Swagger.FilePath,
			Path:     "docs",
			Title:    "StockFlow API",
		}))
	} else {
		log.Warn().Str("file", cfg.Swagger.FilePath).Msg("swagger deshabilitado: archivo no encontrado")
	}

	app.Get("/health", httpRouter.Health(cfg.App.Name, be.checks))

	httpRouter.Router(app, httpRouter.RouterDeps{
		OrderUC:     orderUC,
		PickingUC:   pickingUC,
		StockUC:     stockUC,
		ProductUC:   productUC,
		WarehouseUC: warehouseUC,
		Log:         log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr()).Msg("servidor HTTP escuchando")
		return app.Listen(cfg.HTTP.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("servidor HTTP finalizado")
	}

	log.Info().Msg("aplicación detenida")
}

// openBackend abre el almacenamiento según STORE_DRIVER.
func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	if cfg.App.StoreDriver == config.StoreDriverMemory {
		log.Warn().Msg("STORE_DRIVER=memory: los datos se pierden al reiniciar")
		store := memory.NewStore(cfg.DB.LockTimeout)
		return &backend{
			runner:     memory.NewTxRunner(store),
			stocks:     store.Stocks(),
			movements:  store.Movements(),
			orders:     store.Orders(),
			products:   store.Products(),
			warehouses: store.Warehouses(),
			checks:     map[string]httpRouter.Pinger{},
			close:      func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Strs("applied", applied).Msg("migraciones aplicadas")
	}
	return &backend{
		runner:     postgres.NewTxRunner(pool, cfg.DB.LockTimeout),
		stocks:     postgres.NewStockRepository(pool),
		movements:  postgres.NewMovementRepository(pool),
		orders:     postgres.NewOrderRepository(pool),
		products:   postgres.NewProductRepository(pool),
		warehouses: postgres.NewWarehouseRepository(pool),
		checks:     map[string]httpRouter.Pinger{"db": pool.Ping},
		close:      pool.Close,
	}, nil
}
