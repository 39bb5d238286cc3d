package events

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Envelope es la representación canónica en el cable de un evento de
// dominio. Se construye en el punto de mutación de estado y es inmutable
// desde entonces. Los campos van en camelCase en el JSON.
type Envelope struct {
	EventID       uuid.UUID       `json:"eventId"`
	EventType     string          `json:"eventType"`
	OccurredAt    time.Time       `json:"occurredAt"`
	CorrelationID string          `json:"correlationId,omitempty"`
	Source        string          `json:"source"` // servicio emisor
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope serializa el payload y construye el envelope. correlationID
// suele ser el id de agregado (OrderID, etc.) para mantener orden por clave.
func NewEnvelope(eventType, source, correlationID string, payload interface{}) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.New(),
		EventType:     eventType,
		OccurredAt:    time.Now().UTC(),
		CorrelationID: correlationID,
		Source:        source,
		Payload:       data,
	}, nil
}

// ---------------- Tipos de evento y routing keys ----------------

// Tipos de evento de todos los contextos. La tabla routingKeys de abajo es
// la única fuente de verdad tipo→routing key: nada de reflexión sobre
// nombres de tipos en runtime.
const (
	OrderCreated      = "OrderCreated"
	OrderCancelled    = "OrderCancelled"
	PaymentConfirmed  = "PaymentConfirmed"
	InventoryReserved = "InventoryReserved"
	InventoryRejected = "InventoryRejected"
	ProductCreated    = "ProductCreated"
	InvoiceCreated    = "InvoiceCreated"
	InvoiceCancelled  = "InvoiceCancelled"
	UserRegistered    = "UserRegistered"
	PasswordReset     = "PasswordResetEvent"
)

var routingKeys = map[string]string{
	OrderCreated:      "order.created",
	OrderCancelled:    "order.cancelled",
	PaymentConfirmed:  "payment.confirmed",
	InventoryReserved: "inventory.reserved",
	InventoryRejected: "inventory.rejected",
	ProductCreated:    "product.created",
	InvoiceCreated:    "invoice.created",
	InvoiceCancelled:  "invoice.cancelled",
	UserRegistered:    "auth.userregistered",
	PasswordReset:     "auth.passwordreset",
}

// RoutingKey devuelve la routing key del tipo de evento. Si el tipo no está
// en la tabla se deriva por convención: <service>.<tipo en minúsculas sin
// el sufijo "Event">.
func RoutingKey(service, eventType string) string {
	if rk, ok := routingKeys[eventType]; ok {
		return rk
	}
	return service + "." + strings.ToLower(strings.TrimSuffix(eventType, "Event"))
}

// ExchangeFor devuelve el nombre del "exchange" (topic) de un servicio.
func ExchangeFor(service string) string {
	return service + "-service-events"
}
