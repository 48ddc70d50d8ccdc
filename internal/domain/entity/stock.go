package entity

import "time"

// Stock representa el stock actual de un producto en una bodega.
// La pareja (ProductID, WarehouseID) es única; Quantity nunca es negativa.
type Stock struct {
	ProductID   string
	WarehouseID string
	Quantity    int64
	UpdatedAt   time.Time
}
