package repository

import (
	"context"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
)

// OrderFilter filtros para el listado de pedidos.
type OrderFilter struct {
	Status string
	Limit  int
	Offset int
}

// OrderRepository define el puerto de persistencia para pedidos y sus líneas.
// GetByID y GetForUpdate devuelven (nil, nil) si el pedido no existe.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	// GetForUpdate bloquea la fila del pedido hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Order, error)
	Update(ctx context.Context, order *entity.Order) error
	Delete(ctx context.Context, id string) error
	// ReplaceItems elimina las líneas actuales del pedido e inserta las nuevas.
	ReplaceItems(ctx context.Context, orderID string, items []entity.OrderItem) error
	List(ctx context.Context, filter OrderFilter) ([]*entity.Order, int, error)
}
