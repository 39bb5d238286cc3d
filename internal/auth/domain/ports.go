package domain

import (
	"context"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
	"github.com/davicafu/eventshop/internal/shared/events"
)

// ---------- Errores de dominio ----------
var (
	ErrUserNotFound   = sharedDomain.NewFailure(sharedDomain.NotFound, "user not found")
	ErrDuplicateEmail = sharedDomain.NewFailure(sharedDomain.Conflict, "email already registered")
)

// ---------- Interfaces (Ports) ----------

// UserRepository define las operaciones persistentes para User.
type UserRepository interface {
	// Debe devolver ErrDuplicateEmail si el email ya existe.
	Add(ctx context.Context, u *User) error

	// Debe devolver ErrUserNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// Debe devolver ErrUserNotFound si no existe.
	GetByEmail(ctx context.Context, email string) (*User, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, env events.Envelope) error
}
