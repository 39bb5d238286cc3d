package domain

import (
	"context"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
	"github.com/davicafu/eventshop/internal/shared/events"
)

// ---------- Errores de dominio ----------
var (
	ErrInvoiceNotFound = sharedDomain.NewFailure(sharedDomain.NotFound, "invoice not found")
)

// ---------- Interfaces (Ports) ----------

// InvoiceRepository define las operaciones persistentes para Invoice.
type InvoiceRepository interface {
	Add(ctx context.Context, inv *Invoice) error

	// Debe devolver ErrInvoiceNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// GetByOrderID es la consulta de idempotencia: la clave natural de
	// una factura es el pedido que la origina. Debe devolver
	// ErrInvoiceNotFound si no hay factura para ese pedido.
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*Invoice, error)

	Update(ctx context.Context, inv *Invoice) error

	List(ctx context.Context, limit, offset int) ([]*Invoice, error)

	// ListFailed devuelve facturas en estado failed con menos de
	// maxRetries intentos acumulados, para el sweeper.
	ListFailed(ctx context.Context, maxRetries, limit int) ([]*Invoice, error)

	// NextInvoiceNumber asigna el siguiente número de la serie fiscal.
	// Puede fallar de forma transitoria; el llamante decide reintentar.
	NextInvoiceNumber(ctx context.Context) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, env events.Envelope) error
}
