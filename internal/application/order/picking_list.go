package order

import (
	"context"
	"fmt"

	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// PickingListUseCase genera la hoja de picking (PDF) de un pedido.
type PickingListUseCase struct {
	orderRepo     repository.OrderRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	generator     PickingListGenerator
}

// NewPickingListUseCase construye el caso de uso inyectando todas sus dependencias.
func NewPickingListUseCase(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	generator PickingListGenerator,
) *PickingListUseCase {
	return &PickingListUseCase{
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		generator:     generator,
	}
}

// Download devuelve los bytes del PDF y el nombre de archivo sugerido.
// Los pedidos cancelados no tienen hoja de picking (domain.ErrConflict).
func (uc *PickingListUseCase) Download(ctx context.Context, orderID string) ([]byte, string, error) {
	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, "", fmt.Errorf("picking: obtener pedido: %w", err)
	}
	if order == nil {
		return nil, "", domain.ErrNotFound
	}
	if order.Status == entity.OrderStatusCanceled {
		return nil, "", fmt.Errorf("%w: el pedido está cancelado", domain.ErrConflict)
	}

	warehouse, err := uc.warehouseRepo.GetByID(ctx, order.WarehouseID)
	if err != nil {
		return nil, "", fmt.Errorf("picking: obtener bodega: %w", err)
	}
	if warehouse == nil {
		return nil, "", domain.ErrNotFound
	}

	lines := make([]PickingLine, 0, len(order.Items))
	for _, it := range sortedItems(order.Items) {
		name := "Producto " + it.ProductID
		if p, pErr := uc.productRepo.GetByID(ctx, it.ProductID); pErr == nil && p != nil {
			name = p.Name
		}
		lines = append(lines, PickingLine{OrderItem: it, ProductName: name})
	}

	pdfBytes, err := uc.generator.GeneratePickingList(ctx, order, warehouse, lines)
	if err != nil {
		return nil, "", fmt.Errorf("picking: generación fallida: %w", err)
	}
	return pdfBytes, fmt.Sprintf("picking-%s.pdf", order.ID), nil
}
