package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
	"github.com/davicafu/eventshop/internal/shared/events"
	"github.com/google/uuid"
)

// messageWriter abstrae kafka.Writer para poder testear el publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher publica envelopes en el exchange del servicio con confirm
// síncrono del broker (RequireAll) acotado por un timeout. Un fallo de
// publicación NUNCA se propaga al llamante: la transacción local ya está
// confirmada, así que se contabiliza, se registra el payload completo y se
// deja el evento en el registro de recuperación (outbox) si hay uno.
type Publisher struct {
	writer   messageWriter
	conn     *Connection
	service  string
	exchange string
	outbox   sharedDomain.OutboxRepository // opcional: registro de recuperación
	timeout  time.Duration
	log      *zap.Logger
}

func NewPublisher(brokers []string, service string, conn *Connection, outbox sharedDomain.OutboxRepository, confirmTimeout time.Duration, log *zap.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll, // publisher confirm
		Async:                  false,
		WriteTimeout:           confirmTimeout,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{
		writer:   w,
		conn:     conn,
		service:  service,
		exchange: events.ExchangeFor(service),
		outbox:   outbox,
		timeout:  confirmTimeout,
		log:      log,
	}
}

// Publish publica un evento en el exchange del servicio, derivando la
// routing key de la tabla de tipos. Solo devuelve error si el envelope no
// es serializable (bug del llamante, nunca un fallo de transporte).
func (p *Publisher) Publish(ctx context.Context, env events.Envelope) error {
	return p.PublishTo(ctx, env, p.exchange, events.RoutingKey(p.service, env.EventType))
}

// PublishTo publica con exchange y routing key explícitos.
func (p *Publisher) PublishTo(ctx context.Context, env events.Envelope, exchange, routingKey string) error {
	msg, raw, err := p.toMessage(env, exchange, routingKey)
	if err != nil {
		return err
	}

	// El confirm-wait no hereda la cancelación del request HTTP: una
	// publicación que empieza termina o expira por su cuenta, para no dejar
	// el canal en un estado inconsistente.
	pubCtx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(pubCtx, msg); err != nil {
		p.handleFailure(env, exchange, routingKey, raw, err)
		return nil
	}

	p.conn.recordPublish()
	eventsPublished.WithLabelValues(exchange, routingKey).Inc()
	p.log.Debug("Event published",
		zap.String("exchange", exchange),
		zap.String("routing_key", routingKey),
		zap.String("event_id", env.EventID.String()),
	)
	return nil
}

// PublishBatch publica N eventos en una sola escritura. Si el lote falla,
// reintenta los eventos uno a uno: un fallo parcial degrada con elegancia
// en vez de perder el lote entero.
func (p *Publisher) PublishBatch(ctx context.Context, envs []events.Envelope) error {
	if len(envs) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(envs))
	for _, env := range envs {
		rk := events.RoutingKey(p.service, env.EventType)
		msg, _, err := p.toMessage(env, p.exchange, rk)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	pubCtx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(pubCtx, msgs...); err != nil {
		p.log.Warn("⚠️ Batch publish failed, retrying events individually",
			zap.Int("batch_size", len(envs)), zap.Error(err))
		for _, env := range envs {
			if perr := p.Publish(ctx, env); perr != nil {
				return perr
			}
		}
		return nil
	}

	for _, env := range envs {
		p.conn.recordPublish()
		eventsPublished.WithLabelValues(p.exchange, events.RoutingKey(p.service, env.EventType)).Inc()
	}
	return nil
}

func (p *Publisher) toMessage(env events.Envelope, exchange, routingKey string) (kafka.Message, []byte, error) {
	raw, err := json.Marshal(env)
	if err != nil {
		return kafka.Message{}, nil, err
	}

	key := env.CorrelationID
	if key == "" {
		key = env.EventID.String()
	}

	return kafka.Message{
		Topic: exchange,
		Key:   []byte(key),
		Value: raw,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "routing-key", Value: []byte(routingKey)},
			{Key: "event-type", Value: []byte(env.EventType)},
			{Key: "occurred-at", Value: []byte(env.OccurredAt.Format(time.RFC3339Nano))},
			{Key: "source-service", Value: []byte(env.Source)},
			{Key: "message-id", Value: []byte(env.EventID.String())},
			{Key: "content-type", Value: []byte("application/json")},
		},
	}, raw, nil
}

// Republish reintenta un envelope ya serializado desde el registro de
// recuperación. Aquí el error SÍ se devuelve: el relayer decide si marca el
// evento como procesado, así que no hay política de tragarse fallos ni se
// vuelve a apuntar al outbox.
func (p *Publisher) Republish(ctx context.Context, exchange, routingKey string, envelope json.RawMessage) error {
	var env events.Envelope
	if err := json.Unmarshal(envelope, &env); err != nil {
		return err
	}

	key := env.CorrelationID
	if key == "" {
		key = env.EventID.String()
	}

	pubCtx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	msg := kafka.Message{
		Topic: exchange,
		Key:   []byte(key),
		Value: envelope,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "routing-key", Value: []byte(routingKey)},
			{Key: "event-type", Value: []byte(env.EventType)},
			{Key: "occurred-at", Value: []byte(env.OccurredAt.Format(time.RFC3339Nano))},
			{Key: "source-service", Value: []byte(env.Source)},
			{Key: "message-id", Value: []byte(env.EventID.String())},
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	if err := p.writer.WriteMessages(pubCtx, msg); err != nil {
		p.conn.recordPublishFailure(err)
		publishFailures.WithLabelValues(exchange).Inc()
		return err
	}
	p.conn.recordPublish()
	eventsPublished.WithLabelValues(exchange, routingKey).Inc()
	return nil
}

// handleFailure aplica la política disponibilidad-sobre-entrega: contadores,
// log del payload serializado completo (el evento nunca se pierde en
// silencio) y registro de recuperación para que el relayer lo republique.
func (p *Publisher) handleFailure(env events.Envelope, exchange, routingKey string, raw []byte, cause error) {
	p.conn.recordPublishFailure(cause)
	publishFailures.WithLabelValues(exchange).Inc()

	p.log.Error("💥 Event publish failed, payload recorded",
		zap.String("exchange", exchange),
		zap.String("routing_key", routingKey),
		zap.String("event_id", env.EventID.String()),
		zap.ByteString("envelope", raw),
		zap.Error(cause),
	)

	if p.outbox == nil {
		return
	}
	evt := sharedDomain.OutboxEvent{
		ID:         uuid.New(),
		Exchange:   exchange,
		RoutingKey: routingKey,
		Envelope:   raw,
		CreatedAt:  time.Now().UTC(),
	}
	// Mismo criterio que el confirm-wait: el apunte de recuperación no puede
	// depender de un ctx de request ya cancelado.
	obCtx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.outbox.AppendOutbox(obCtx, evt); err != nil {
		// Último recurso: el envelope ya quedó en el log de arriba.
		p.log.Error("💥 Could not append event to recovery outbox", zap.Error(err))
	}
}
