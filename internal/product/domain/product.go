package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Product es el agregado del contexto product; el stock vive aquí y solo
// se muta a través de reservas.
type Product struct {
	ID        uuid.UUID `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReservationItem es una línea de reserva de stock.
type ReservationItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// Reservation registra la reserva de inventario de un pedido. OrderID es la
// clave de idempotencia: una reentrega de order.created encuentra la
// reserva existente y no vuelve a descontar stock.
type Reservation struct {
	ID        uuid.UUID         `json:"id"`
	OrderID   uuid.UUID         `json:"order_id"`
	Items     []ReservationItem `json:"items"`
	CreatedAt time.Time         `json:"created_at"`
}

// CacheKeyByID forma una key consistente para cache usando ID.
func CacheKeyByID(id uuid.UUID) string {
	return fmt.Sprintf("product:id:%s", id.String())
}
