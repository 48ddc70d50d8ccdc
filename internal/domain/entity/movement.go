package entity

import "time"

// Tipos de movimiento de stock.
const (
	MovementTypeIncrease = "increase" // entrada / restitución
	MovementTypeDecrease = "decrease" // salida / descuento
)

// IsValidMovementType indica si t es un tipo de movimiento reconocido.
func IsValidMovementType(t string) bool {
	return t == MovementTypeIncrease || t == MovementTypeDecrease
}

// Movement es el registro inmutable de un cambio de stock (historial de auditoría).
type Movement struct {
	ID            string
	ProductID     string
	WarehouseID   string
	Quantity      int64  // delta con signo: negativo en decrease, positivo en increase
	Type          string // increase, decrease
	PreviousStock *int64 // stock antes del cambio; nil en registros antiguos
	Reference     string // ID del pedido que originó el movimiento; vacío en ajustes manuales
	CreatedAt     time.Time
}
