package domain

import (
	"time"

	"github.com/google/uuid"
)

type InvoiceStatus string

const (
	StatusPending   InvoiceStatus = "pending"
	StatusPaid      InvoiceStatus = "paid"
	StatusCancelled InvoiceStatus = "cancelled"
	// StatusFailed marca una factura cuya numeración falló de forma
	// transitoria; el sweeper la reintenta hasta agotar el presupuesto.
	StatusFailed InvoiceStatus = "failed"
)

type Invoice struct {
	ID         uuid.UUID     `json:"id"`
	Number     string        `json:"number"`
	OrderID    uuid.UUID     `json:"orderId"`
	CustomerID uuid.UUID     `json:"customerId"`
	Amount     float64       `json:"amount"`
	Status     InvoiceStatus `json:"status"`
	RetryCount int           `json:"retryCount"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

func NewInvoice(orderID, customerID uuid.UUID, amount float64) *Invoice {
	now := time.Now().UTC()
	return &Invoice{
		ID:         uuid.New(),
		OrderID:    orderID,
		CustomerID: customerID,
		Amount:     amount,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Terminal indica si la factura ya no admite transiciones.
func (i *Invoice) Terminal() bool {
	return i.Status == StatusPaid || i.Status == StatusCancelled
}
