package broker

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
	"github.com/davicafu/eventshop/internal/shared/events"
)

// HandlerFunc procesa un envelope ya decodificado. Debe ser idempotente:
// la entrega es at-least-once y el mismo evento puede llegar varias veces.
type HandlerFunc func(ctx context.Context, env events.Envelope) error

// Binding ata un patrón de routing key (estilo topic: '*' un segmento,
// '#' el resto) a exactamente un handler.
type Binding struct {
	Pattern string
	Handler HandlerFunc
}

// Delivery es el registro de auditoría de una entrega procesada.
type Delivery struct {
	Queue      string
	RoutingKey string
	EventID    string
	EventType  string
	Outcome    string
	Redelivery int
	HandledAt  time.Time
}

// Auditor registra entregas procesadas (p.ej. en ClickHouse). Best-effort:
// un fallo del auditor nunca afecta al ack del mensaje.
type Auditor interface {
	RecordDelivery(ctx context.Context, d Delivery)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Resultados posibles de una entrega.
const (
	outcomeAck        = "ack"
	outcomeRequeue    = "requeue"
	outcomeDeadLetter = "dead_letter"
	outcomePoison     = "poison"
	outcomeSkipped    = "skipped"
)

const retryCountHeader = "x-retry-count"

// Subscriber consume un exchange con un grupo durable ("cola"), despacha
// cada entrega al handler de su binding y decide ack / requeue / dead-letter.
// El requeue se materializa republicando el mensaje con el contador de
// redelivery incrementado; pasado MaxRedeliveries el mensaje va al topic
// <exchange>.dlq.
type Subscriber struct {
	reader          messageReader
	writer          messageWriter
	queue           string
	exchange        string
	bindings        []Binding
	prefetch        int
	maxRedeliveries int
	audit           Auditor
	log             *zap.Logger
}

type SubscriberConfig struct {
	Brokers         []string
	Exchange        string
	Queue           string // consumer group durable
	Bindings        []Binding
	Prefetch        int
	MaxRedeliveries int
	Audit           Auditor
}

func NewSubscriber(cfg SubscriberConfig, log *zap.Logger) *Subscriber {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Exchange,
		GroupID:  cfg.Queue,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		MaxWait:  time.Second,
	})
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 16
	}
	if cfg.MaxRedeliveries <= 0 {
		cfg.MaxRedeliveries = 5
	}
	return &Subscriber{
		reader:          reader,
		writer:          writer,
		queue:           cfg.Queue,
		exchange:        cfg.Exchange,
		bindings:        cfg.Bindings,
		prefetch:        cfg.Prefetch,
		maxRedeliveries: cfg.MaxRedeliveries,
		audit:           cfg.Audit,
		log:             log,
	}
}

// Start inicia el bucle de consumo en una goroutine. Las entregas de una
// misma partición se procesan EN SERIE: Kafka guarda un único offset
// acumulado por partición, así que confirmar un mensaje posterior daría por
// confirmados todos los anteriores aún en vuelo y un crash los perdería sin
// reentrega. La concurrencia se obtiene entre particiones, acotada en total
// por el prefetch: handlers lentos generan backpressure en vez de acumular
// goroutines.
func (s *Subscriber) Start(ctx context.Context) {
	s.log.Info("🎧 Subscriber started",
		zap.String("exchange", s.exchange),
		zap.String("queue", s.queue),
		zap.Int("prefetch", s.prefetch),
	)

	sem := make(chan struct{}, s.prefetch)

	go func() {
		// Un carril por partición; solo el bucle de fetch toca el mapa.
		lanes := make(map[int]chan kafka.Message)
		for {
			msg, err := s.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					s.log.Info("🛑 Subscriber stopped", zap.String("queue", s.queue))
					return
				}
				s.log.Error("Error fetching message", zap.Error(err))
				continue
			}

			lane, ok := lanes[msg.Partition]
			if !ok {
				// Capacidad = prefetch: con el semáforo acotando las entregas
				// admitidas, el envío al carril nunca bloquea el fetch.
				lane = make(chan kafka.Message, s.prefetch)
				lanes[msg.Partition] = lane
				go s.partitionLoop(ctx, lane, sem)
			}

			sem <- struct{}{}
			lane <- msg
		}
	}()
}

// partitionLoop drena el carril de una partición de uno en uno, lo que
// garantiza que los commits de esa partición salen en orden de offset.
func (s *Subscriber) partitionLoop(ctx context.Context, lane <-chan kafka.Message, sem <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-lane:
			s.process(ctx, m)
			<-sem
		}
	}
}

// process ejecuta la máquina de estados de una entrega:
// Received → Processing → {Acked | NackedRequeue | NackedDeadLetter}.
func (s *Subscriber) process(ctx context.Context, msg kafka.Message) {
	rk := header(msg, "routing-key")
	redeliveries := headerInt(msg, retryCountHeader)

	binding, ok := s.match(rk)
	if !ok {
		// Tipo de evento al que esta cola no está suscrita.
		s.finish(ctx, msg, rk, events.Envelope{}, outcomeSkipped, redeliveries)
		return
	}

	var env events.Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil || env.EventType == "" {
		// Mensaje venenoso: nunca se invoca el handler, nack sin requeue.
		s.log.Error("💥 Malformed envelope, dead-lettering",
			zap.String("routing_key", rk),
			zap.ByteString("value", msg.Value),
			zap.Error(err),
		)
		s.deadLetter(ctx, msg, "malformed envelope")
		s.finish(ctx, msg, rk, env, outcomePoison, redeliveries)
		return
	}

	err := binding.Handler(ctx, env)
	switch {
	case err == nil:
		s.finish(ctx, msg, rk, env, outcomeAck, redeliveries)

	case sharedDomain.Terminal(err):
		// Fallo definitivo (not found, conflicto...): reintentar no lo va a
		// arreglar, así que se confirma y se deja constancia.
		s.log.Warn("Event handled with terminal failure, acking",
			zap.String("event_id", env.EventID.String()),
			zap.String("event_type", env.EventType),
			zap.String("kind", string(sharedDomain.KindOf(err))),
			zap.Error(err),
		)
		s.finish(ctx, msg, rk, env, outcomeAck, redeliveries)

	case redeliveries >= s.maxRedeliveries:
		s.log.Error("💥 Redelivery budget exhausted, dead-lettering",
			zap.String("event_id", env.EventID.String()),
			zap.Int("redeliveries", redeliveries),
			zap.Error(err),
		)
		s.deadLetter(ctx, msg, err.Error())
		s.finish(ctx, msg, rk, env, outcomeDeadLetter, redeliveries)

	default:
		// Nack con requeue: republicar con el contador incrementado.
		s.log.Warn("⚠️ Handler failed, requeueing",
			zap.String("event_id", env.EventID.String()),
			zap.Int("redelivery", redeliveries+1),
			zap.Error(err),
		)
		if rqErr := s.requeue(ctx, msg, redeliveries+1); rqErr != nil {
			// Sin requeue no se confirma: el broker volverá a entregar.
			s.log.Error("💥 Requeue failed, leaving message uncommitted", zap.Error(rqErr))
			deliveriesProcessed.WithLabelValues(s.queue, outcomeRequeue).Inc()
			return
		}
		s.finish(ctx, msg, rk, env, outcomeRequeue, redeliveries)
	}
}

// finish confirma la entrega y deja métricas y auditoría.
func (s *Subscriber) finish(ctx context.Context, msg kafka.Message, rk string, env events.Envelope, outcome string, redeliveries int) {
	if err := s.reader.CommitMessages(ctx, msg); err != nil {
		s.log.Error("Error committing message", zap.Error(err))
	}
	deliveriesProcessed.WithLabelValues(s.queue, outcome).Inc()

	if s.audit != nil {
		s.audit.RecordDelivery(ctx, Delivery{
			Queue:      s.queue,
			RoutingKey: rk,
			EventID:    env.EventID.String(),
			EventType:  env.EventType,
			Outcome:    outcome,
			Redelivery: redeliveries,
			HandledAt:  time.Now().UTC(),
		})
	}
}

func (s *Subscriber) requeue(ctx context.Context, msg kafka.Message, attempt int) error {
	out := kafka.Message{
		Topic:   s.exchange,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: replaceHeader(msg.Headers, retryCountHeader, strconv.Itoa(attempt)),
	}
	return s.writer.WriteMessages(ctx, out)
}

func (s *Subscriber) deadLetter(ctx context.Context, msg kafka.Message, reason string) {
	out := kafka.Message{
		Topic:   s.exchange + ".dlq",
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: append(msg.Headers, kafka.Header{Key: "x-dead-letter-reason", Value: []byte(reason)}),
	}
	if err := s.writer.WriteMessages(ctx, out); err != nil {
		s.log.Error("💥 Dead-letter publish failed", zap.Error(err))
	}
}

func (s *Subscriber) match(routingKey string) (Binding, bool) {
	for _, b := range s.bindings {
		if MatchRoutingKey(b.Pattern, routingKey) {
			return b, true
		}
	}
	return Binding{}, false
}

// ---------------- Helpers ----------------

// MatchRoutingKey implementa el matching de patrones de topic: '*' casa
// exactamente un segmento y '#' casa cero o más segmentos finales.
func MatchRoutingKey(pattern, key string) bool {
	if key == "" {
		return false
	}
	pp := strings.Split(pattern, ".")
	kp := strings.Split(key, ".")

	for i, seg := range pp {
		if seg == "#" {
			return true
		}
		if i >= len(kp) {
			return false
		}
		if seg != "*" && seg != kp[i] {
			return false
		}
	}
	return len(pp) == len(kp)
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func headerInt(msg kafka.Message, key string) int {
	v := header(msg, key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func replaceHeader(headers []kafka.Header, key, value string) []kafka.Header {
	out := make([]kafka.Header, 0, len(headers)+1)
	for _, h := range headers {
		if h.Key != key {
			out = append(out, h)
		}
	}
	return append(out, kafka.Header{Key: key, Value: []byte(value)})
}
