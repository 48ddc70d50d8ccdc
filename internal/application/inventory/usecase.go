package inventory

import (
	"context"

	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// Límites del historial de movimientos.
const (
	DefaultMovementLimit = 10
	MaxMovementLimit     = 100
)

// StockUseCase ajustes manuales de stock y consultas de stock/historial.
type StockUseCase struct {
	txRunner      TxRunner
	ledger        *Ledger
	stockRepo     repository.StockRepository
	movementRepo  repository.MovementRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(
	txRunner TxRunner,
	ledger *Ledger,
	stockRepo repository.StockRepository,
	movementRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
) *StockUseCase {
	return &StockUseCase{
		txRunner:      txRunner,
		ledger:        ledger,
		stockRepo:     stockRepo,
		movementRepo:  movementRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
	}
}

// AdjustStock aplica un ajuste manual en su propia transacción y devuelve la cantidad resultante.
// El tipo se valida antes que cualquier otra cosa.
func (uc *StockUseCase) AdjustStock(ctx context.Context, in dto.AdjustStockRequest) (*dto.StockResponse, error) {
	if !entity.IsValidMovementType(in.Type) {
		return nil, domain.ErrInvalidAdjustmentType
	}
	if in.ProductID == "" || in.WarehouseID == "" || in.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.ensureKey(ctx, in.ProductID, in.WarehouseID); err != nil {
		return nil, err
	}

	var quantity int64
	err := uc.txRunner.Run(ctx, func(movRepo repository.MovementRepository, stockRepo repository.StockRepository) error {
		if err := uc.ledger.Adjust(ctx, movRepo, stockRepo, in.ProductID, in.WarehouseID, in.Quantity, in.Type, ""); err != nil {
			return err
		}
		q, err := uc.ledger.Quantity(ctx, stockRepo, in.ProductID, in.WarehouseID)
		if err != nil {
			return err
		}
		quantity = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.StockResponse{ProductID: in.ProductID, WarehouseID: in.WarehouseID, Quantity: quantity}, nil
}

// GetStock devuelve la cantidad disponible; 0 si nunca hubo movimientos para el par.
func (uc *StockUseCase) GetStock(ctx context.Context, productID, warehouseID string) (*dto.StockResponse, error) {
	if productID == "" || warehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	q, err := uc.ledger.Quantity(ctx, uc.stockRepo, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	return &dto.StockResponse{ProductID: productID, WarehouseID: warehouseID, Quantity: q}, nil
}

// ListMovements lista el historial, más reciente primero. El rango de fechas solo se aplica
// cuando llegan ambos extremos; un extremo suelto se ignora.
func (uc *StockUseCase) ListMovements(ctx context.Context, q dto.MovementQuery) (*dto.MovementListResponse, error) {
	limit, offset := q.Limit, q.Offset
	if limit <= 0 {
		limit = DefaultMovementLimit
	}
	if limit > MaxMovementLimit {
		limit = MaxMovementLimit
	}
	if offset < 0 {
		offset = 0
	}
	filter := repository.MovementFilter{
		ProductID:   q.ProductID,
		WarehouseID: q.WarehouseID,
		Limit:       limit,
		Offset:      offset,
	}
	if q.StartDate != nil && q.EndDate != nil {
		if q.EndDate.Before(*q.StartDate) {
			return nil, domain.ErrInvalidInput
		}
		filter.From = q.StartDate
		filter.To = q.EndDate
	}

	list, total, err := uc.movementRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, ToMovementResponse(m))
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: total},
	}, nil
}

func (uc *StockUseCase) ensureKey(ctx context.Context, productID, warehouseID string) error {
	ok, err := uc.productRepo.Exists(ctx, productID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	ok, err = uc.warehouseRepo.Exists(ctx, warehouseID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// ToMovementResponse convierte la entidad a DTO.
func ToMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		WarehouseID:   m.WarehouseID,
		Quantity:      m.Quantity,
		Type:          m.Type,
		PreviousStock: m.PreviousStock,
		Reference:     m.Reference,
		CreatedAt:     m.CreatedAt,
	}
}
