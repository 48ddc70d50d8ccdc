package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/stockflow-api/internal/domain"
)

// lockTable guarda un lock exclusivo por clave (fila de stock o pedido).
// Cada lock es un canal de capacidad 1: enviar = tomar, recibir = soltar.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]chan struct{})}
}

func (lt *lockTable) slot(key string) chan struct{} {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	ch, ok := lt.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		lt.locks[key] = ch
	}
	return ch
}

// acquire espera el lock hasta timeout o hasta que ctx se cancele.
// Ambos casos se reportan como transacción abortada.
func (lt *lockTable) acquire(ctx context.Context, key string, timeout time.Duration) error {
	ch := lt.slot(key)
	select {
	case ch <- struct{}{}:
		return nil
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return domain.NewTransactionAbortError(ctx.Err())
	case <-timer.C:
		return domain.NewTransactionAbortError(fmt.Errorf("lock timeout en %s tras %s", key, timeout))
	}
}

func (lt *lockTable) release(key string) {
	<-lt.slot(key)
}
