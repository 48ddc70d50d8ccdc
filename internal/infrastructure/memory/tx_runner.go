package memory

import (
	"context"

	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// TxRunner implementa inventory.TxRunner y order.TxRunner sobre el Store.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn con repos de movimientos y stock atados a una transacción.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
) error) error {
	return r.s.atomic(ctx, func(t *tx) error {
		return fn(&MovementRepository{s: r.s, tx: t}, &StockRepository{s: r.s, tx: t})
	})
}

// RunOrder ejecuta fn con repos de movimientos, stock y pedidos atados a una transacción.
func (r *TxRunner) RunOrder(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
	orderRepo repository.OrderRepository,
) error) error {
	return r.s.atomic(ctx, func(t *tx) error {
		return fn(&MovementRepository{s: r.s, tx: t}, &StockRepository{s: r.s, tx: t}, &OrderRepository{s: r.s, tx: t})
	})
}
