package domain

import (
	"context"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
	"github.com/davicafu/eventshop/internal/shared/events"
)

// ---------- Errores de dominio ----------
var (
	ErrOrderNotFound = sharedDomain.NewFailure(sharedDomain.NotFound, "order not found")
)

// ---------- Interfaces (Ports) ----------

// OrderRepository define las operaciones persistentes para Order.
type OrderRepository interface {
	Add(ctx context.Context, o *Order) error

	// Debe devolver ErrOrderNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// Debe devolver ErrOrderNotFound si el pedido no existe.
	Update(ctx context.Context, o *Order) error

	List(ctx context.Context, limit, offset int) ([]*Order, error)
}

// EventPublisher es el bus hacia fuera. El contrato del broker aplica:
// un fallo de transporte nunca se devuelve al llamante.
type EventPublisher interface {
	Publish(ctx context.Context, env events.Envelope) error
}
