package dto

import "time"

// OrderItemRequest línea de pedido en las peticiones de creación/actualización.
type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Count     int64  `json:"count" validate:"required,gt=0"`
}

// CreateOrderRequest body para POST /api/v1/orders.
type CreateOrderRequest struct {
	Customer    string             `json:"customer" validate:"required,min=1,max=255"`
	WarehouseID string             `json:"warehouse_id" validate:"required"`
	Items       []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateOrderRequest body para PUT /api/v1/orders/:id.
// Items nil = no se tocan las líneas; una lista vacía es inválida.
type UpdateOrderRequest struct {
	Customer *string            `json:"customer,omitempty" validate:"omitempty,min=1,max=255"`
	Items    []OrderItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

// ChangeOrderStatusRequest body para PATCH /api/v1/orders/:id/status.
type ChangeOrderStatusRequest struct {
	Status string `json:"status"` // active | completed | canceled
}

// OrderItemResponse línea de pedido en la salida.
type OrderItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Count     int64  `json:"count"`
}

// OrderResponse salida de un pedido.
type OrderResponse struct {
	ID          string              `json:"id"`
	Customer    string              `json:"customer"`
	WarehouseID string              `json:"warehouse_id"`
	Status      string              `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	CompletedAt *time.Time          `json:"completed_at"`
	Items       []OrderItemResponse `json:"items"`
}

// OrderListResponse lista paginada de pedidos.
type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}
