package domain

import (
	"context"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
)

// ---------- Errores de dominio ----------
var (
	ErrNotificationNotFound = sharedDomain.NewFailure(sharedDomain.NotFound, "notification not found")
)

// ---------- Interfaces (Ports) ----------

// NotificationRepository define las operaciones persistentes para
// Notification.
type NotificationRepository interface {
	Add(ctx context.Context, n *Notification) error

	// GetByEventID es la consulta de deduplicación. Debe devolver
	// ErrNotificationNotFound si el evento no se ha procesado aún.
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*Notification, error)

	List(ctx context.Context, limit, offset int) ([]*Notification, error)
}
