package domain

import (
	"context"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
	"github.com/davicafu/eventshop/internal/shared/events"
)

// ---------- Errores de dominio ----------
var (
	ErrProductNotFound     = sharedDomain.NewFailure(sharedDomain.NotFound, "product not found")
	ErrDuplicateSKU        = sharedDomain.NewFailure(sharedDomain.Conflict, "sku already exists")
	ErrInsufficientStock   = sharedDomain.NewFailure(sharedDomain.OutOfStock, "insufficient stock")
	ErrReservationNotFound = sharedDomain.NewFailure(sharedDomain.NotFound, "reservation not found")
)

// ---------- Interfaces (Ports) ----------

// ProductRepository define las operaciones persistentes para Product.
type ProductRepository interface {
	// Debe devolver ErrDuplicateSKU si ya existe un producto con el mismo SKU.
	Add(ctx context.Context, p *Product) error

	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	Update(ctx context.Context, p *Product) error
	List(ctx context.Context, limit, offset int) ([]*Product, error)

	// Reserve descuenta el stock de todas las líneas y registra la reserva
	// en una única transacción, sin aplicar ningún descuento si falla. Debe
	// devolver ErrProductNotFound si alguna línea refiere a un producto que
	// no existe y ErrInsufficientStock si alguna no tiene stock.
	Reserve(ctx context.Context, res *Reservation) error

	// Debe devolver ErrReservationNotFound si el pedido no tiene reserva.
	GetReservationByOrderID(ctx context.Context, orderID uuid.UUID) (*Reservation, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, env events.Envelope) error
}
