package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent es el registro de recuperación de un evento que no pudo
// publicarse en el broker: el publisher lo deja aquí y el relayer lo
// reintenta en segundo plano. El Envelope se guarda ya serializado para
// que la republicación no dependa del tipo Go original.
type OutboxEvent struct {
	ID         uuid.UUID       `json:"id"`
	Exchange   string          `json:"exchange"`
	RoutingKey string          `json:"routing_key"`
	Envelope   json.RawMessage `json:"envelope"`
	CreatedAt  time.Time       `json:"created_at"`
	Processed  bool            `json:"processed"`
}

// OutboxRepository define el contrato mínimo que necesitan el publisher
// (para registrar) y el relayer (para drenar).
type OutboxRepository interface {
	AppendOutbox(ctx context.Context, evt OutboxEvent) error
	FetchPendingOutbox(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error
}
