package broker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
	"github.com/davicafu/eventshop/internal/shared/events"
)

// fakeReader solo registra los commits: process() se invoca directamente.
type fakeReader struct {
	mu        sync.Mutex
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	offs := make([]int64, len(r.committed))
	for i, m := range r.committed {
		offs[i] = m.Offset
	}
	return offs
}

// scriptedReader entrega una secuencia fija de mensajes y luego bloquea,
// para ejercitar el bucle de Start completo.
type scriptedReader struct {
	fakeReader
	feed chan kafka.Message
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.feed:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func newScriptedSubscriber(bindings []Binding, msgs ...kafka.Message) (*Subscriber, *scriptedReader) {
	reader := &scriptedReader{feed: make(chan kafka.Message, len(msgs))}
	for _, m := range msgs {
		reader.feed <- m
	}
	s := &Subscriber{
		reader:          reader,
		writer:          &fakeWriter{},
		queue:           "invoice-service",
		exchange:        "order-service-events",
		bindings:        bindings,
		prefetch:        16,
		maxRedeliveries: 3,
		log:             zap.NewNop(),
	}
	return s, reader
}

func newTestSubscriber(bindings []Binding) (*Subscriber, *fakeReader, *fakeWriter) {
	reader := &fakeReader{}
	writer := &fakeWriter{}
	s := &Subscriber{
		reader:          reader,
		writer:          writer,
		queue:           "invoice-service",
		exchange:        "order-service-events",
		bindings:        bindings,
		prefetch:        16,
		maxRedeliveries: 3,
		log:             zap.NewNop(),
	}
	return s, reader, writer
}

func deliveryMessage(t *testing.T, eventType, routingKey string, retries string) kafka.Message {
	t.Helper()
	env, err := events.NewEnvelope(eventType, "order", "corr-1", map[string]string{"k": "v"})
	assert.NoError(t, err)
	raw, err := json.Marshal(env)
	assert.NoError(t, err)

	headers := []kafka.Header{
		{Key: "routing-key", Value: []byte(routingKey)},
		{Key: "event-type", Value: []byte(eventType)},
	}
	if retries != "" {
		headers = append(headers, kafka.Header{Key: retryCountHeader, Value: []byte(retries)})
	}
	return kafka.Message{Topic: "order-service-events", Value: raw, Headers: headers}
}

func TestProcess_SuccessAcks(t *testing.T) {
	var handled []string
	s, reader, writer := newTestSubscriber([]Binding{
		{Pattern: "payment.*", Handler: func(ctx context.Context, env events.Envelope) error {
			handled = append(handled, env.EventType)
			return nil
		}},
	})

	s.process(context.Background(), deliveryMessage(t, events.PaymentConfirmed, "payment.confirmed", ""))

	assert.Equal(t, []string{"PaymentConfirmed"}, handled)
	assert.Len(t, reader.committed, 1, "éxito del handler = ack")
	assert.Empty(t, writer.messages, "sin requeue ni dead-letter")
}

func TestProcess_UnboundRoutingKeyIsSkipped(t *testing.T) {
	called := false
	s, reader, _ := newTestSubscriber([]Binding{
		{Pattern: "payment.*", Handler: func(ctx context.Context, env events.Envelope) error {
			called = true
			return nil
		}},
	})

	s.process(context.Background(), deliveryMessage(t, events.OrderCancelled, "order.cancelled", ""))

	assert.False(t, called, "la cola nunca recibe tipos a los que no está suscrita")
	assert.Len(t, reader.committed, 1)
}

// Escenario 5: payload malformado → nack sin requeue, handler no invocado.
func TestProcess_MalformedPayloadIsDeadLettered(t *testing.T) {
	called := false
	s, reader, writer := newTestSubscriber([]Binding{
		{Pattern: "#", Handler: func(ctx context.Context, env events.Envelope) error {
			called = true
			return nil
		}},
	})

	msg := kafka.Message{
		Topic:   "order-service-events",
		Value:   []byte("{not json"),
		Headers: []kafka.Header{{Key: "routing-key", Value: []byte("order.created")}},
	}
	s.process(context.Background(), msg)

	assert.False(t, called)
	assert.Len(t, reader.committed, 1, "el mensaje venenoso se confirma para no reentregarlo")
	assert.Len(t, writer.messages, 1)
	assert.Equal(t, "order-service-events.dlq", writer.messages[0].Topic)
}

func TestProcess_TransientFailureRequeuesWithCounter(t *testing.T) {
	s, reader, writer := newTestSubscriber([]Binding{
		{Pattern: "payment.confirmed", Handler: func(ctx context.Context, env events.Envelope) error {
			return errors.New("db timeout")
		}},
	})

	s.process(context.Background(), deliveryMessage(t, events.PaymentConfirmed, "payment.confirmed", "1"))

	assert.Len(t, reader.committed, 1)
	assert.Len(t, writer.messages, 1)
	requeued := writer.messages[0]
	assert.Equal(t, "order-service-events", requeued.Topic, "requeue = republicación en el mismo exchange")

	var counter string
	for _, h := range requeued.Headers {
		if h.Key == retryCountHeader {
			counter = string(h.Value)
		}
	}
	assert.Equal(t, "2", counter)
}

func TestProcess_RedeliveryBudgetExhaustedGoesToDLQ(t *testing.T) {
	s, reader, writer := newTestSubscriber([]Binding{
		{Pattern: "payment.confirmed", Handler: func(ctx context.Context, env events.Envelope) error {
			return errors.New("db timeout")
		}},
	})

	s.process(context.Background(), deliveryMessage(t, events.PaymentConfirmed, "payment.confirmed", "3"))

	assert.Len(t, reader.committed, 1)
	assert.Len(t, writer.messages, 1)
	assert.Equal(t, "order-service-events.dlq", writer.messages[0].Topic)
}

// Un referente inexistente es un warning, no un crash: se confirma sin
// reintentos porque reentregar no arregla un referente que no existe.
func TestProcess_NotFoundIsAckedNotRequeued(t *testing.T) {
	s, reader, writer := newTestSubscriber([]Binding{
		{Pattern: "payment.confirmed", Handler: func(ctx context.Context, env events.Envelope) error {
			return sharedDomain.NewFailure(sharedDomain.NotFound, "order missing")
		}},
	})

	s.process(context.Background(), deliveryMessage(t, events.PaymentConfirmed, "payment.confirmed", ""))

	assert.Len(t, reader.committed, 1)
	assert.Empty(t, writer.messages)
}

// Un grupo Kafka guarda UN offset acumulado por partición: confirmar el
// offset 2 con el 1 aún en vuelo daría el 1 por procesado. Dentro de una
// partición las entregas deben procesarse y confirmarse en orden, aunque el
// primer handler sea el lento.
func TestStart_SamePartitionCommitsInOffsetOrder(t *testing.T) {
	slow := deliveryMessage(t, events.PaymentConfirmed, "payment.confirmed", "")
	slow.Partition, slow.Offset = 0, 1
	fast := deliveryMessage(t, events.OrderCreated, "order.created", "")
	fast.Partition, fast.Offset = 0, 2

	s, reader := newScriptedSubscriber([]Binding{
		{Pattern: "payment.confirmed", Handler: func(ctx context.Context, env events.Envelope) error {
			time.Sleep(50 * time.Millisecond)
			return nil
		}},
		{Pattern: "order.created", Handler: func(ctx context.Context, env events.Envelope) error {
			return nil
		}},
	}, slow, fast)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	assert.Eventually(t, func() bool {
		return len(reader.committedOffsets()) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{1, 2}, reader.committedOffsets())
}

// Particiones distintas sí avanzan en paralelo: el handler de la partición 0
// espera a que termine el de la partición 1, y ambos deben completar.
func TestStart_DifferentPartitionsRunConcurrently(t *testing.T) {
	p1Done := make(chan struct{})

	blocked := deliveryMessage(t, events.PaymentConfirmed, "payment.confirmed", "")
	blocked.Partition, blocked.Offset = 0, 1
	unblocker := deliveryMessage(t, events.OrderCreated, "order.created", "")
	unblocker.Partition, unblocker.Offset = 1, 1

	s, reader := newScriptedSubscriber([]Binding{
		{Pattern: "payment.confirmed", Handler: func(ctx context.Context, env events.Envelope) error {
			<-p1Done
			return nil
		}},
		{Pattern: "order.created", Handler: func(ctx context.Context, env events.Envelope) error {
			close(p1Done)
			return nil
		}},
	}, blocked, unblocker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	assert.Eventually(t, func() bool {
		return len(reader.committedOffsets()) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMatchRoutingKey(t *testing.T) {
	cases := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"order.created", "order.created", true},
		{"order.created", "order.cancelled", false},
		{"order.*", "order.created", true},
		{"order.*", "order.created.v2", false},
		{"*.created", "invoice.created", true},
		{"#", "anything.at.all", true},
		{"order.#", "order.created.v2", true},
		{"order.#", "invoice.created", false},
		{"order.*", "", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MatchRoutingKey(tc.pattern, tc.key), "pattern=%s key=%s", tc.pattern, tc.key)
	}
}
