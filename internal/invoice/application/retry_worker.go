package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/eventshop/internal/invoice/domain"
)

// RetryWorker barre periódicamente las facturas en failed y reintenta su
// emisión por el mismo camino que la creación por evento. Las facturas que
// agotan el presupuesto de reintentos dejan de barrerse y quedan para
// intervención manual.
type RetryWorker struct {
	repo       domain.InvoiceRepository
	service    *InvoiceService
	interval   time.Duration
	maxRetries int
	batchSize  int
	log        *zap.Logger
}

func NewRetryWorker(repo domain.InvoiceRepository, service *InvoiceService, interval time.Duration, maxRetries, batchSize int, log *zap.Logger) *RetryWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &RetryWorker{
		repo:       repo,
		service:    service,
		interval:   interval,
		maxRetries: maxRetries,
		batchSize:  batchSize,
		log:        log,
	}
}

func (w *RetryWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("🚀 Sweeper de facturas fallidas iniciado",
		zap.Duration("interval", w.interval),
		zap.Int("max_retries", w.maxRetries),
	)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("🛑 Sweeper de facturas detenido")
			return
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil {
				w.log.Error("💥 Barrido de facturas fallidas con error", zap.Error(err))
			}
		}
	}
}

// Sweep procesa un lote de facturas en failed. Un fallo en una factura no
// detiene el resto del lote.
func (w *RetryWorker) Sweep(ctx context.Context) error {
	failed, err := w.repo.ListFailed(ctx, w.maxRetries, w.batchSize)
	if err != nil {
		return err
	}
	if len(failed) == 0 {
		return nil
	}

	w.log.Info("🔁 Reintentando facturas fallidas", zap.Int("count", len(failed)))
	for _, inv := range failed {
		if err := w.service.Retry(ctx, inv); err != nil {
			w.log.Error("💥 Reintento de factura fallido",
				zap.String("invoice_id", inv.ID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}
