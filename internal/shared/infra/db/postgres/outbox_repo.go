package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL

	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
)

// OutboxRepoPostgres implementa el registro de recuperación sobre PostgreSQL.
type OutboxRepoPostgres struct {
	db *sql.DB
}

func NewOutboxRepoPostgres(db *sql.DB) *OutboxRepoPostgres {
	return &OutboxRepoPostgres{db: db}
}

func (r *OutboxRepoPostgres) AppendOutbox(ctx context.Context, evt sharedDomain.OutboxEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO outbox (id, exchange, routing_key, envelope, created_at, processed)
		 VALUES ($1,$2,$3,$4,$5,false)`,
		evt.ID, evt.Exchange, evt.RoutingKey, string(evt.Envelope), evt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append outbox event: %w", err)
	}
	return nil
}

func (r *OutboxRepoPostgres) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	// Sin lock entre fetch y mark: si dos relayers leen el mismo pendiente lo
	// republican dos veces, y los consumidores deduplican por event_id.
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, exchange, routing_key, envelope, created_at
		 FROM outbox WHERE processed = false
		 ORDER BY created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sharedDomain.OutboxEvent
	for rows.Next() {
		var evt sharedDomain.OutboxEvent
		var envelope string
		if err := rows.Scan(&evt.ID, &evt.Exchange, &evt.RoutingKey, &envelope, &evt.CreatedAt); err != nil {
			return nil, err
		}
		evt.Envelope = []byte(envelope)
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (r *OutboxRepoPostgres) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE outbox SET processed = true WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("outbox event %s not found", id)
	}
	return nil
}

var _ sharedDomain.OutboxRepository = (*OutboxRepoPostgres)(nil)
