package entity

import "time"

// Estados de un pedido.
const (
	OrderStatusActive    = "active"
	OrderStatusCompleted = "completed"
	OrderStatusCanceled  = "canceled"
)

// IsValidOrderStatus indica si s es un estado de pedido reconocido.
func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusActive, OrderStatusCompleted, OrderStatusCanceled:
		return true
	}
	return false
}

// HoldsStock indica si un pedido en el estado s tiene su stock descontado.
// Activos y completados lo retienen; cancelados no.
func HoldsStock(s string) bool {
	return s == OrderStatusActive || s == OrderStatusCompleted
}

// Order representa un pedido de un cliente sobre una única bodega.
type Order struct {
	ID          string
	Customer    string
	WarehouseID string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	Items       []OrderItem
}

// OrderItem es una línea del pedido. Pertenece exclusivamente a su Order.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Count     int64
}
