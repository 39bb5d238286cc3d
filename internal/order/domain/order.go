package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	// Created: pedido aceptado, inventario aún sin reservar.
	StatusCreated OrderStatus = "created"
	// Confirmed: el servicio de producto reservó el inventario.
	StatusConfirmed OrderStatus = "confirmed"
	// Rejected: no había inventario; el pedido no puede avanzar.
	StatusRejected OrderStatus = "rejected"
	// Estados terminales.
	StatusPaid      OrderStatus = "paid"
	StatusCancelled OrderStatus = "cancelled"
)

type OrderItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
}

// Order es el agregado del contexto order. Los ids de otros servicios
// (CustomerID, ProductID) son claves opacas: este servicio nunca lee los
// stores de auth o product.
type Order struct {
	ID         uuid.UUID   `json:"id"`
	CustomerID uuid.UUID   `json:"customer_id"`
	Items      []OrderItem `json:"items"`
	Total      float64     `json:"total"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Terminal indica si el pedido ya no admite transiciones.
func (o *Order) Terminal() bool {
	return o.Status == StatusPaid || o.Status == StatusCancelled
}

// ComputeTotal recalcula el importe a partir de las líneas.
func (o *Order) ComputeTotal() {
	var total float64
	for _, it := range o.Items {
		total += float64(it.Quantity) * it.UnitPrice
	}
	o.Total = total
}
