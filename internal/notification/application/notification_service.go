package application

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/eventshop/internal/notification/domain"
	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
)

// NotificationService registra y "envía" avisos a partir de eventos
// consumidos. El envío real (SMTP, push) queda fuera: aquí el envío es un
// log estructurado, y el registro en el repositorio es lo que garantiza la
// deduplicación por EventID.
type NotificationService struct {
	repo domain.NotificationRepository
	log  *zap.Logger
}

func NewNotificationService(repo domain.NotificationRepository, log *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, log: log}
}

// RecordFromEvent es idempotente por EventID: la reentrega de un evento ya
// notificado devuelve el aviso existente sin enviar nada.
func (s *NotificationService) RecordFromEvent(ctx context.Context, eventID uuid.UUID, eventType, recipient, subject, body string) (*domain.Notification, error) {
	if eventID == uuid.Nil {
		return nil, sharedDomain.NewFailure(sharedDomain.ValidationFailed, "event id is required")
	}

	existing, err := s.repo.GetByEventID(ctx, eventID)
	if err == nil {
		s.log.Info("📧 Evento ya notificado, no-op",
			zap.String("event_id", eventID.String()),
			zap.String("event_type", eventType),
		)
		return existing, nil
	}
	if !sharedDomain.IsKind(err, sharedDomain.NotFound) {
		return nil, err
	}

	n := domain.NewNotification(eventID, eventType, recipient, subject, body)
	if err := s.repo.Add(ctx, n); err != nil {
		return nil, err
	}

	// El "envío": un log con el contenido completo del aviso.
	s.log.Info("📧 Notificación enviada",
		zap.String("notification_id", n.ID.String()),
		zap.String("event_type", n.EventType),
		zap.String("recipient", n.Recipient),
		zap.String("subject", n.Subject),
		zap.String("body", n.Body),
	)
	return n, nil
}

func (s *NotificationService) ListNotifications(ctx context.Context, limit, offset int) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, limit, offset)
}
