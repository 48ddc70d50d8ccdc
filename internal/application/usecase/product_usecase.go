package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// ProductUseCase casos de uso CRUD para productos. El stock se maneja vía el ledger.
type ProductUseCase struct {
	repo          repository.ProductRepository
	stockRepo     repository.StockRepository
	warehouseRepo repository.WarehouseRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, stockRepo repository.StockRepository, warehouseRepo repository.WarehouseRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo, stockRepo: stockRepo, warehouseRepo: warehouseRepo}
}

// Create crea un nuevo producto sin stock.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Price.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	product := &entity.Product{
		ID:        uuid.New().String(),
		Name:      name,
		Price:     in.Price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product, nil), nil
}

// GetByID obtiene un producto con su stock por bodega.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	stocks, err := uc.stocksOf(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product, stocks), nil
}

// Update actualiza nombre y/o precio.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		product.Name = name
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		product.Price = *in.Price
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product, nil), nil
}

// List lista productos con su stock por bodega.
func (uc *ProductUseCase) List(ctx context.Context, limit, offset int) (*dto.ProductListResponse, error) {
	list, total, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		stocks, err := uc.stocksOf(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, *toProductResponse(p, stocks))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: total},
	}, nil
}

// Delete elimina un producto. Falla con domain.ErrConflict si tiene stock o pedidos asociados.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}

func (uc *ProductUseCase) stocksOf(ctx context.Context, productID string) ([]dto.ProductStockResponse, error) {
	stocks, err := uc.stockRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductStockResponse, 0, len(stocks))
	for _, s := range stocks {
		name := ""
		if w, wErr := uc.warehouseRepo.GetByID(ctx, s.WarehouseID); wErr == nil && w != nil {
			name = w.Name
		}
		out = append(out, dto.ProductStockResponse{
			WarehouseID:   s.WarehouseID,
			WarehouseName: name,
			Quantity:      s.Quantity,
		})
	}
	return out, nil
}

func toProductResponse(p *entity.Product, stocks []dto.ProductStockResponse) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Stocks:    stocks,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
