package order

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// OrderUseCase motor de pedidos: crea, edita, cambia de estado y elimina pedidos
// manteniendo el stock consistente. Cada operación es una sola transacción.
type OrderUseCase struct {
	txRunner      TxRunner
	ledger        StockLedger
	orderRepo     repository.OrderRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	now           func() time.Time
}

// NewOrderUseCase construye el caso de uso.
func NewOrderUseCase(
	txRunner TxRunner,
	ledger StockLedger,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
) *OrderUseCase {
	return &OrderUseCase{
		txRunner:      txRunner,
		ledger:        ledger,
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		now:           time.Now,
	}
}

// Create valida el pedido y, en una transacción, lo inserta como activo y descuenta cada línea.
// Si alguna línea no tiene stock suficiente no queda nada escrito.
func (uc *OrderUseCase) Create(ctx context.Context, in dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	customer := strings.TrimSpace(in.Customer)
	if customer == "" || in.WarehouseID == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.ensureWarehouse(ctx, in.WarehouseID); err != nil {
		return nil, err
	}
	if err := uc.ensureItems(ctx, in.Items); err != nil {
		return nil, err
	}

	now := uc.now()
	order := &entity.Order{
		ID:          uuid.New().String(),
		Customer:    customer,
		WarehouseID: in.WarehouseID,
		Status:      entity.OrderStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	order.Items = buildItems(order.ID, in.Items)

	err := uc.txRunner.RunOrder(ctx, func(movRepo repository.MovementRepository, stockRepo repository.StockRepository, orderRepo repository.OrderRepository) error {
		if err := orderRepo.Create(ctx, order); err != nil {
			return fmt.Errorf("crear pedido: %w", err)
		}
		return uc.deductAll(ctx, movRepo, stockRepo, order)
	})
	if err != nil {
		return nil, err
	}
	return ToOrderResponse(order), nil
}

// Update cambia el cliente y/o reemplaza las líneas. Si el pedido retiene stock se restituyen
// las líneas viejas y se descuentan las nuevas; si está cancelado solo se reemplazan.
func (uc *OrderUseCase) Update(ctx context.Context, id string, in dto.UpdateOrderRequest) (*dto.OrderResponse, error) {
	var customer string
	if in.Customer != nil {
		customer = strings.TrimSpace(*in.Customer)
		if customer == "" {
			return nil, domain.ErrInvalidInput
		}
	}
	if in.Items != nil {
		if len(in.Items) == 0 {
			return nil, domain.ErrInvalidInput
		}
		if err := uc.ensureItems(ctx, in.Items); err != nil {
			return nil, err
		}
	}

	var updated *entity.Order
	err := uc.txRunner.RunOrder(ctx, func(movRepo repository.MovementRepository, stockRepo repository.StockRepository, orderRepo repository.OrderRepository) error {
		order, err := orderRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if in.Customer != nil {
			order.Customer = customer
		}
		if in.Items != nil {
			holds := entity.HoldsStock(order.Status)
			if holds {
				if err := uc.restoreAll(ctx, movRepo, stockRepo, order); err != nil {
					return err
				}
			}
			order.Items = buildItems(order.ID, in.Items)
			if err := orderRepo.ReplaceItems(ctx, order.ID, order.Items); err != nil {
				return fmt.Errorf("reemplazar líneas: %w", err)
			}
			if holds {
				if err := uc.deductAll(ctx, movRepo, stockRepo, order); err != nil {
					return err
				}
			}
		}
		order.UpdatedAt = uc.now()
		if err := orderRepo.Update(ctx, order); err != nil {
			return fmt.Errorf("actualizar pedido: %w", err)
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToOrderResponse(updated), nil
}

// ChangeStatus aplica la transición de estado. Pasar a cancelado restituye el stock;
// salir de cancelado lo vuelve a descontar. Repetir el estado actual no tiene efecto.
func (uc *OrderUseCase) ChangeStatus(ctx context.Context, id, status string) (*dto.OrderResponse, error) {
	if !entity.IsValidOrderStatus(status) {
		return nil, domain.ErrInvalidOrderStatus
	}

	var updated *entity.Order
	err := uc.txRunner.RunOrder(ctx, func(movRepo repository.MovementRepository, stockRepo repository.StockRepository, orderRepo repository.OrderRepository) error {
		order, err := orderRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		updated = order
		if order.Status == status {
			return nil
		}

		wasHolding, willHold := entity.HoldsStock(order.Status), entity.HoldsStock(status)
		switch {
		case wasHolding && !willHold:
			if err := uc.restoreAll(ctx, movRepo, stockRepo, order); err != nil {
				return err
			}
		case !wasHolding && willHold:
			if err := uc.deductAll(ctx, movRepo, stockRepo, order); err != nil {
				return err
			}
		}

		now := uc.now()
		order.Status = status
		order.UpdatedAt = now
		if status == entity.OrderStatusCompleted {
			order.CompletedAt = &now
		} else {
			order.CompletedAt = nil
		}
		if err := orderRepo.Update(ctx, order); err != nil {
			return fmt.Errorf("actualizar estado: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToOrderResponse(updated), nil
}

// Delete elimina el pedido y sus líneas; si retenía stock lo restituye antes.
func (uc *OrderUseCase) Delete(ctx context.Context, id string) error {
	return uc.txRunner.RunOrder(ctx, func(movRepo repository.MovementRepository, stockRepo repository.StockRepository, orderRepo repository.OrderRepository) error {
		order, err := orderRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if entity.HoldsStock(order.Status) {
			if err := uc.restoreAll(ctx, movRepo, stockRepo, order); err != nil {
				return err
			}
		}
		return orderRepo.Delete(ctx, id)
	})
}

// GetByID obtiene un pedido con sus líneas.
func (uc *OrderUseCase) GetByID(ctx context.Context, id string) (*dto.OrderResponse, error) {
	order, err := uc.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return ToOrderResponse(order), nil
}

// List lista pedidos (más recientes primero), opcionalmente filtrados por estado.
func (uc *OrderUseCase) List(ctx context.Context, status string, limit, offset int) (*dto.OrderListResponse, error) {
	if status != "" && !entity.IsValidOrderStatus(status) {
		return nil, domain.ErrInvalidOrderStatus
	}
	list, total, err := uc.orderRepo.List(ctx, repository.OrderFilter{Status: status, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	items := make([]dto.OrderResponse, 0, len(list))
	for _, o := range list {
		items = append(items, *ToOrderResponse(o))
	}
	return &dto.OrderListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: total},
	}, nil
}

// deductAll descuenta las líneas en orden de product_id para que pedidos concurrentes
// tomen los locks de stock siempre en el mismo orden.
func (uc *OrderUseCase) deductAll(ctx context.Context, movRepo repository.MovementRepository, stockRepo repository.StockRepository, order *entity.Order) error {
	for _, it := range sortedItems(order.Items) {
		if err := uc.ledger.Deduct(ctx, movRepo, stockRepo, it.ProductID, order.WarehouseID, it.Count, order.ID); err != nil {
			return err
		}
	}
	return nil
}

func (uc *OrderUseCase) restoreAll(ctx context.Context, movRepo repository.MovementRepository, stockRepo repository.StockRepository, order *entity.Order) error {
	for _, it := range sortedItems(order.Items) {
		if err := uc.ledger.Restore(ctx, movRepo, stockRepo, it.ProductID, order.WarehouseID, it.Count, order.ID); err != nil {
			return err
		}
	}
	return nil
}

func (uc *OrderUseCase) ensureWarehouse(ctx context.Context, warehouseID string) error {
	ok, err := uc.warehouseRepo.Exists(ctx, warehouseID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: bodega %s", domain.ErrNotFound, warehouseID)
	}
	return nil
}

func (uc *OrderUseCase) ensureItems(ctx context.Context, items []dto.OrderItemRequest) error {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.ProductID == "" || it.Count <= 0 {
			return domain.ErrInvalidInput
		}
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ok, err := uc.productRepo.Exists(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, it.ProductID)
		}
	}
	return nil
}

func buildItems(orderID string, in []dto.OrderItemRequest) []entity.OrderItem {
	items := make([]entity.OrderItem, 0, len(in))
	for _, it := range in {
		items = append(items, entity.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: it.ProductID,
			Count:     it.Count,
		})
	}
	return items
}

func sortedItems(items []entity.OrderItem) []entity.OrderItem {
	out := make([]entity.OrderItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// ToOrderResponse convierte la entidad a DTO.
func ToOrderResponse(o *entity.Order) *dto.OrderResponse {
	if o == nil {
		return nil
	}
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, dto.OrderItemResponse{ID: it.ID, ProductID: it.ProductID, Count: it.Count})
	}
	return &dto.OrderResponse{
		ID:          o.ID,
		Customer:    o.Customer,
		WarehouseID: o.WarehouseID,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		CompletedAt: o.CompletedAt,
		Items:       items,
	}
}
