package relayer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
)

// Republisher es lo que el worker necesita del publisher: una publicación
// que devuelve el error de transporte para decidir si marcar el evento.
type Republisher interface {
	Republish(ctx context.Context, exchange, routingKey string, envelope json.RawMessage) error
}

// Worker drena el registro de recuperación: eventos que el publisher no
// pudo entregar al broker en su momento. Es la segunda pata del
// compromiso disponibilidad-sobre-entrega del publisher.
type Worker struct {
	repo      sharedDomain.OutboxRepository
	publisher Republisher
	interval  time.Duration
	batchSize int
	log       *zap.Logger
}

func NewOutboxWorker(
	repo sharedDomain.OutboxRepository,
	publisher Republisher,
	interval time.Duration,
	batchSize int,
	log *zap.Logger,
) *Worker {
	return &Worker{
		repo:      repo,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		log:       log,
	}
}

// Start inicia el bucle de polling del worker.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("🚀 Outbox relayer iniciado", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("🛑 Outbox relayer detenido.")
			return
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

func (w *Worker) ProcessBatch(ctx context.Context) {
	pending, err := w.repo.FetchPendingOutbox(ctx, w.batchSize)
	if err != nil {
		w.log.Warn("⚠️ Error al obtener eventos pendientes", zap.Error(err))
		return
	}
	if len(pending) > 0 {
		w.log.Info(fmt.Sprintf("📬 %d eventos pendientes de republicar", len(pending)))
	}

	for _, evt := range pending {
		w.republishAndMark(ctx, evt)
	}
}

func (w *Worker) republishAndMark(ctx context.Context, evt sharedDomain.OutboxEvent) {
	if err := w.publisher.Republish(ctx, evt.Exchange, evt.RoutingKey, evt.Envelope); err != nil {
		// No se marca como procesado: el siguiente ciclo lo reintenta.
		w.log.Warn("⚠️ No se pudo republicar evento",
			zap.String("event_id", evt.ID.String()),
			zap.String("exchange", evt.Exchange),
			zap.Error(err),
		)
		return
	}

	if err := w.repo.MarkOutboxProcessed(ctx, evt.ID); err != nil {
		w.log.Warn("⚠️ No se pudo marcar evento como procesado",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
	} else {
		w.log.Info("✅ Evento recuperado y republicado", zap.String("event_id", evt.ID.String()))
	}
}
