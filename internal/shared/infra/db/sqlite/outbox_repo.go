package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
)

// OutboxRepoSQLite implementa el registro de recuperación sobre SQLite.
type OutboxRepoSQLite struct {
	db *sql.DB
}

func NewOutboxRepoSQLite(db *sql.DB) *OutboxRepoSQLite {
	return &OutboxRepoSQLite{db: db}
}

// InitSchema crea la tabla outbox si no existe.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS outbox (
			id TEXT PRIMARY KEY,
			exchange TEXT NOT NULL,
			routing_key TEXT NOT NULL,
			envelope TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			processed INTEGER NOT NULL DEFAULT 0
		)`)
	return err
}

func (r *OutboxRepoSQLite) AppendOutbox(ctx context.Context, evt sharedDomain.OutboxEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO outbox (id, exchange, routing_key, envelope, created_at, processed)
		 VALUES (?,?,?,?,?,0)`,
		evt.ID.String(), evt.Exchange, evt.RoutingKey, string(evt.Envelope), evt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append outbox event: %w", err)
	}
	return nil
}

func (r *OutboxRepoSQLite) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, exchange, routing_key, envelope, created_at
		 FROM outbox WHERE processed = 0 ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sharedDomain.OutboxEvent
	for rows.Next() {
		var evt sharedDomain.OutboxEvent
		var id, envelope string
		if err := rows.Scan(&id, &evt.Exchange, &evt.RoutingKey, &envelope, &evt.CreatedAt); err != nil {
			return nil, err
		}
		evt.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, err
		}
		evt.Envelope = []byte(envelope)
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (r *OutboxRepoSQLite) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE outbox SET processed = 1 WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("outbox event %s not found", id)
	}
	return nil
}

var _ sharedDomain.OutboxRepository = (*OutboxRepoSQLite)(nil)
