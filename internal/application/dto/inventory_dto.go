package dto

import "time"

// AdjustStockRequest body para POST /api/v1/stock/adjustments.
type AdjustStockRequest struct {
	ProductID   string `json:"product_id" validate:"required"`
	WarehouseID string `json:"warehouse_id" validate:"required"`
	Quantity    int64  `json:"quantity" validate:"required,gt=0"`
	Type        string `json:"type"` // increase | decrease; se valida antes que el resto
}

// StockResponse cantidad disponible de un producto en una bodega.
type StockResponse struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    int64  `json:"quantity"`
}

// MovementQuery filtros de GET /api/v1/movements.
// El rango de fechas solo se aplica si llegan ambos extremos.
type MovementQuery struct {
	ProductID   string
	WarehouseID string
	StartDate   *time.Time
	EndDate     *time.Time
	Limit       int
	Offset      int
}

// MovementResponse salida de un movimiento de stock.
type MovementResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	WarehouseID   string    `json:"warehouse_id"`
	Quantity      int64     `json:"quantity"`
	Type          string    `json:"type"`
	PreviousStock *int64    `json:"previous_stock"`
	Reference     string    `json:"reference,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
