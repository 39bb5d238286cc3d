package events

import (
	"time"

	"github.com/google/uuid"
)

// Contratos de integración del contexto invoice.

type InvoiceCreatedPayload struct {
	InvoiceID     uuid.UUID `json:"invoiceId"`
	InvoiceNumber string    `json:"invoiceNumber"`
	OrderID       uuid.UUID `json:"orderId"`
	CustomerID    uuid.UUID `json:"customerId"`
	Amount        float64   `json:"amount"`
	IssuedAt      time.Time `json:"issuedAt"`
}

type InvoiceCancelledPayload struct {
	InvoiceID uuid.UUID `json:"invoiceId"`
	OrderID   uuid.UUID `json:"orderId"`
	Reason    string    `json:"reason,omitempty"`
}
