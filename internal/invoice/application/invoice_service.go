package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/eventshop/internal/invoice/domain"
	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
	"github.com/davicafu/eventshop/internal/shared/events"
)

const serviceName = "invoice"

// InvoiceService define los casos de uso del contexto invoice. La creación
// es idempotente por OrderID: una reentrega de payment.confirmed nunca
// produce una segunda factura ni un segundo número de serie.
type InvoiceService struct {
	repo   domain.InvoiceRepository
	events domain.EventPublisher
	log    *zap.Logger
}

func NewInvoiceService(repo domain.InvoiceRepository, events domain.EventPublisher, log *zap.Logger) *InvoiceService {
	return &InvoiceService{repo: repo, events: events, log: log}
}

// CreateForOrder emite la factura de un pedido pagado. Flujo:
//  1. buscar por OrderID; si ya existe una factura pagada, devolverla (no-op);
//     si existe en failed, reintentar la numeración sobre ella.
//  2. persistir en pending, luego issue(): número de serie + paid + evento.
//  3. si la numeración falla, la factura queda en failed y el sweeper la
//     recogerá; el consumidor hace ack porque la factura ya está registrada.
func (s *InvoiceService) CreateForOrder(ctx context.Context, orderID, customerID uuid.UUID, amount float64) (*domain.Invoice, error) {
	if orderID == uuid.Nil || customerID == uuid.Nil {
		return nil, sharedDomain.NewFailure(sharedDomain.ValidationFailed, "order id and customer id are required")
	}
	if amount < 0 {
		return nil, sharedDomain.NewFailure(sharedDomain.ValidationFailed, "amount cannot be negative")
	}

	// Buscar antes de crear.
	existing, err := s.repo.GetByOrderID(ctx, orderID)
	if err == nil {
		switch existing.Status {
		case domain.StatusPaid, domain.StatusCancelled, domain.StatusPending:
			s.log.Info("📄 Factura ya registrada para el pedido, no-op",
				zap.String("invoice_id", existing.ID.String()),
				zap.String("order_id", orderID.String()),
				zap.String("status", string(existing.Status)),
			)
			return existing, nil
		case domain.StatusFailed:
			// La reentrega del evento sirve como reintento inmediato.
			return existing, s.issue(ctx, existing)
		}
	} else if !sharedDomain.IsKind(err, sharedDomain.NotFound) {
		return nil, err
	}

	inv := domain.NewInvoice(orderID, customerID, amount)
	if err := s.repo.Add(ctx, inv); err != nil {
		return nil, err
	}

	return inv, s.issue(ctx, inv)
}

// issue asigna número de serie y marca la factura como pagada. Es el único
// camino de emisión: lo comparten la creación por evento y el sweeper de
// reintentos, así el comportamiento es idéntico en ambos.
func (s *InvoiceService) issue(ctx context.Context, inv *domain.Invoice) error {
	number, err := s.repo.NextInvoiceNumber(ctx)
	if err != nil {
		inv.Status = domain.StatusFailed
		inv.RetryCount++
		inv.UpdatedAt = time.Now().UTC()
		if uerr := s.repo.Update(ctx, inv); uerr != nil {
			return uerr
		}
		s.log.Warn("⚠️ Numeración de factura fallida, quedará para reintento",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("order_id", inv.OrderID.String()),
			zap.Int("retry_count", inv.RetryCount),
			zap.Error(err),
		)
		return nil
	}

	inv.Number = number
	inv.Status = domain.StatusPaid
	inv.RetryCount = 0
	inv.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, inv); err != nil {
		return err
	}

	s.publish(ctx, events.InvoiceCreated, inv.OrderID, events.InvoiceCreatedPayload{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.Number,
		OrderID:       inv.OrderID,
		CustomerID:    inv.CustomerID,
		Amount:        inv.Amount,
		IssuedAt:      inv.UpdatedAt,
	})

	s.log.Info("✅ Factura emitida",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("number", inv.Number),
		zap.String("order_id", inv.OrderID.String()),
	)
	return nil
}

// Retry reintenta la emisión de una factura en failed. Lo usa el sweeper.
func (s *InvoiceService) Retry(ctx context.Context, inv *domain.Invoice) error {
	if inv.Status != domain.StatusFailed {
		return nil
	}
	return s.issue(ctx, inv)
}

func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *InvoiceService) GetByOrder(ctx context.Context, orderID uuid.UUID) (*domain.Invoice, error) {
	return s.repo.GetByOrderID(ctx, orderID)
}

func (s *InvoiceService) ListInvoices(ctx context.Context, limit, offset int) ([]*domain.Invoice, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, limit, offset)
}

// Cancel anula una factura. Una factura pagada no se puede cancelar y una
// ya cancelada es un conflicto explícito, no un no-op silencioso.
func (s *InvoiceService) Cancel(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch inv.Status {
	case domain.StatusPaid:
		return nil, sharedDomain.NewFailure(sharedDomain.AlreadyPaid, "invoice is already paid")
	case domain.StatusCancelled:
		return nil, sharedDomain.NewFailure(sharedDomain.AlreadyCancelled, "invoice is already cancelled")
	}

	inv.Status = domain.StatusCancelled
	inv.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}

	s.publish(ctx, events.InvoiceCancelled, inv.OrderID, events.InvoiceCancelledPayload{
		InvoiceID: inv.ID,
		OrderID:   inv.OrderID,
	})
	return inv, nil
}

func (s *InvoiceService) publish(ctx context.Context, eventType string, correlationID uuid.UUID, payload interface{}) {
	env, err := events.NewEnvelope(eventType, serviceName, correlationID.String(), payload)
	if err != nil {
		s.log.Error("💥 No se pudo construir el envelope", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	_ = s.events.Publish(ctx, env)
}
