package contracts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	invoiceApp "github.com/davicafu/eventshop/internal/invoice/application"
	invoiceDomain "github.com/davicafu/eventshop/internal/invoice/domain"
	invoiceConsumer "github.com/davicafu/eventshop/internal/invoice/infra/inbound/events"
	sharedEvents "github.com/davicafu/eventshop/internal/shared/events"
	"github.com/davicafu/eventshop/tests/mocks"
)

func buildEnvelope(t *testing.T, eventType, source string, payload interface{}) sharedEvents.Envelope {
	t.Helper()
	env, err := sharedEvents.NewEnvelope(eventType, source, uuid.NewString(), payload)
	assert.NoError(t, err)
	return env
}

// La reentrega de payment.confirmed sobre la misma cola debe producir una
// única factura: el broker garantiza al-menos-una-vez, el handler el resto.
func TestInvoiceConsumer_DuplicatePaymentConfirmed(t *testing.T) {
	repo := mocks.NewInMemoryInvoiceRepo()
	pub := mocks.NewRecordingPublisher()
	svc := invoiceApp.NewInvoiceService(repo, pub, zap.NewNop())
	consumer := invoiceConsumer.NewInvoiceConsumer(svc, zap.NewNop())

	bindings := consumer.Bindings()
	assert.Len(t, bindings, 1)
	assert.Equal(t, "payment.confirmed", bindings[0].Pattern)
	handler := bindings[0].Handler

	payload := sharedEvents.PaymentConfirmedPayload{
		OrderID:    uuid.New(),
		PaymentID:  uuid.New(),
		CustomerID: uuid.New(),
		Amount:     99.9,
		PaidAt:     time.Now().UTC(),
	}
	env := buildEnvelope(t, sharedEvents.PaymentConfirmed, "order", payload)

	assert.NoError(t, handler(context.Background(), env))
	assert.NoError(t, handler(context.Background(), env)) // reentrega

	assert.Len(t, repo.Invoices, 1)
	assert.Len(t, pub.ByType(sharedEvents.InvoiceCreated), 1)

	inv, err := repo.GetByOrderID(context.Background(), payload.OrderID)
	assert.NoError(t, err)
	assert.Equal(t, invoiceDomain.StatusPaid, inv.Status)
}

// Un payload malformado no debe dejar el mensaje en bucle de requeue: el
// handler devuelve nil y el suscriptor hace ack tras registrarlo.
func TestInvoiceConsumer_MalformedPayloadIsAcked(t *testing.T) {
	repo := mocks.NewInMemoryInvoiceRepo()
	svc := invoiceApp.NewInvoiceService(repo, mocks.NewRecordingPublisher(), zap.NewNop())
	consumer := invoiceConsumer.NewInvoiceConsumer(svc, zap.NewNop())
	handler := consumer.Bindings()[0].Handler

	env := sharedEvents.Envelope{
		EventID:    uuid.New(),
		EventType:  sharedEvents.PaymentConfirmed,
		OccurredAt: time.Now().UTC(),
		Source:     "order",
		Payload:    []byte(`{"orderId": "not-a-uuid"`),
	}

	assert.NoError(t, handler(context.Background(), env))
	assert.Empty(t, repo.Invoices)
}
