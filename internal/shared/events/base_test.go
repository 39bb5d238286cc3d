package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewEnvelope(t *testing.T) {
	orderID := uuid.New()
	env, err := NewEnvelope(OrderCreated, "order", orderID.String(), OrderCreatedPayload{
		OrderID:    orderID,
		CustomerID: uuid.New(),
		Total:      10,
		CreatedAt:  time.Now().UTC(),
	})
	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, env.EventID)
	assert.Equal(t, OrderCreated, env.EventType)
	assert.Equal(t, "order", env.Source)
	assert.Equal(t, orderID.String(), env.CorrelationID)
	assert.False(t, env.OccurredAt.IsZero())
}

func TestEnvelope_WireFormatIsCamelCase(t *testing.T) {
	env, err := NewEnvelope(InvoiceCreated, "invoice", uuid.NewString(), InvoiceCreatedPayload{
		InvoiceID:     uuid.New(),
		InvoiceNumber: "INV-2026-000001",
		OrderID:       uuid.New(),
		CustomerID:    uuid.New(),
		Amount:        99.9,
		IssuedAt:      time.Now().UTC(),
	})
	assert.NoError(t, err)

	raw, err := json.Marshal(env)
	assert.NoError(t, err)

	var wire map[string]json.RawMessage
	assert.NoError(t, json.Unmarshal(raw, &wire))
	for _, field := range []string{"eventId", "eventType", "occurredAt", "correlationId", "source", "payload"} {
		assert.Contains(t, wire, field)
	}

	// Round-trip sin pérdida.
	var decoded Envelope
	assert.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, env.EventID, decoded.EventID)
	assert.Equal(t, env.EventType, decoded.EventType)
	assert.JSONEq(t, string(env.Payload), string(decoded.Payload))
}

func TestRoutingKey(t *testing.T) {
	cases := []struct {
		service   string
		eventType string
		want      string
	}{
		{"order", OrderCreated, "order.created"},
		{"order", PaymentConfirmed, "payment.confirmed"},
		{"product", InventoryReserved, "inventory.reserved"},
		{"auth", PasswordReset, "auth.passwordreset"},
		// Tipos fuera de la tabla caen en la convención.
		{"order", "StockDepletedEvent", "order.stockdepleted"},
		{"billing", "RefundIssued", "billing.refundissued"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RoutingKey(tc.service, tc.eventType), tc.eventType)
	}
}

func TestExchangeFor(t *testing.T) {
	assert.Equal(t, "order-service-events", ExchangeFor("order"))
	assert.Equal(t, "auth-service-events", ExchangeFor("auth"))
}
