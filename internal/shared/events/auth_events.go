package events

import (
	"time"

	"github.com/google/uuid"
)

// Contratos de integración del contexto auth.

type UserRegisteredPayload struct {
	UserID       uuid.UUID `json:"userId"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	RegisteredAt time.Time `json:"registeredAt"`
}

type PasswordResetPayload struct {
	UserID      uuid.UUID `json:"userId"`
	Email       string    `json:"email"`
	RequestID   uuid.UUID `json:"requestId"`
	RequestedAt time.Time `json:"requestedAt"`
}
