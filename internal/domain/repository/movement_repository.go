package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
)

// MovementFilter filtros del historial de movimientos. Los campos vacíos/nil no filtran.
// From y To son inclusivos.
type MovementFilter struct {
	ProductID   string
	WarehouseID string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// MovementRepository define el puerto de persistencia del historial de movimientos (solo inserción).
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	// List devuelve la página pedida (más recientes primero) y el total que cumple el filtro.
	List(ctx context.Context, filter MovementFilter) ([]*entity.Movement, int, error)
}
