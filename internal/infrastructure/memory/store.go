// Package memory implementa los puertos de persistencia en memoria con semántica
// transaccional: locks por fila retenidos hasta el commit y escrituras diferidas.
// Lo usan las pruebas y STORE_DRIVER=memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
)

// DefaultLockTimeout espera máxima por un lock de fila si no se configura otra.
const DefaultLockTimeout = 5 * time.Second

type stockKey struct {
	productID   string
	warehouseID string
}

func (k stockKey) lockKey() string { return "stock:" + k.productID + ":" + k.warehouseID }

func orderLockKey(id string) string { return "order:" + id }

type storedMovement struct {
	entity.Movement
	seq int64
}

// Store estado confirmado. Solo se modifica en commit (o directo para productos y bodegas).
type Store struct {
	mu          sync.RWMutex
	locks       *lockTable
	lockTimeout time.Duration

	products   map[string]entity.Product
	warehouses map[string]entity.Warehouse
	stocks     map[stockKey]entity.Stock
	movements  []storedMovement
	orders     map[string]entity.Order
	items      map[string][]entity.OrderItem
	seq        int64
}

// NewStore crea un store vacío. lockTimeout <= 0 usa DefaultLockTimeout.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Store{
		locks:       newLockTable(),
		lockTimeout: lockTimeout,
		products:    make(map[string]entity.Product),
		warehouses:  make(map[string]entity.Warehouse),
		stocks:      make(map[stockKey]entity.Stock),
		orders:      make(map[string]entity.Order),
		items:       make(map[string][]entity.OrderItem),
	}
}

// atomic ejecuta fn en una transacción nueva: commit si fn no falla, y los locks
// se liberan siempre al final.
func (s *Store) atomic(ctx context.Context, fn func(t *tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := s.begin()
	defer t.release()
	if err := fn(t); err != nil {
		return err
	}
	t.commit()
	return nil
}

// Stocks repositorio de stock fuera de transacción (cada llamada se confirma sola).
func (s *Store) Stocks() *StockRepository { return &StockRepository{s: s} }

// Movements repositorio de movimientos fuera de transacción.
func (s *Store) Movements() *MovementRepository { return &MovementRepository{s: s} }

// Orders repositorio de pedidos fuera de transacción.
func (s *Store) Orders() *OrderRepository { return &OrderRepository{s: s} }

// Products repositorio de productos.
func (s *Store) Products() *ProductRepository { return &ProductRepository{s: s} }

// Warehouses repositorio de bodegas.
func (s *Store) Warehouses() *WarehouseRepository { return &WarehouseRepository{s: s} }
