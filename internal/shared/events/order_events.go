package events

import (
	"time"

	"github.com/google/uuid"
)

// Contratos de integración del contexto order. Son estructuras planas para
// intercambio entre contextos, NO entidades del dominio.

type OrderItem struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unitPrice"`
}

type OrderCreatedPayload struct {
	OrderID    uuid.UUID   `json:"orderId"`
	CustomerID uuid.UUID   `json:"customerId"`
	Items      []OrderItem `json:"items"`
	Total      float64     `json:"total"`
	CreatedAt  time.Time   `json:"createdAt"`
}

type OrderCancelledPayload struct {
	OrderID uuid.UUID `json:"orderId"`
	Reason  string    `json:"reason,omitempty"`
}

type PaymentConfirmedPayload struct {
	OrderID    uuid.UUID `json:"orderId"`
	PaymentID  uuid.UUID `json:"paymentId"`
	CustomerID uuid.UUID `json:"customerId"`
	Amount     float64   `json:"amount"`
	PaidAt     time.Time `json:"paidAt"`
}
