package sqlite

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/davicafu/eventshop/internal/notification/domain"
)

type NotificationRepoSQLite struct {
	db *sql.DB
}

func NewNotificationRepoSQLite(db *sql.DB) *NotificationRepoSQLite {
	return &NotificationRepoSQLite{db: db}
}

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			event_id TEXT NOT NULL UNIQUE,
			event_type TEXT NOT NULL,
			channel TEXT NOT NULL,
			recipient TEXT NOT NULL,
			subject TEXT NOT NULL,
			body TEXT NOT NULL,
			sent_at TIMESTAMP NOT NULL
		)`)
	return err
}

func (r *NotificationRepoSQLite) Add(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, event_id, event_type, channel, recipient, subject, body, sent_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		n.ID.String(), n.EventID.String(), n.EventType, string(n.Channel),
		n.Recipient, n.Subject, n.Body, n.SentAt,
	)
	return err
}

func (r *NotificationRepoSQLite) GetByEventID(ctx context.Context, eventID uuid.UUID) (*domain.Notification, error) {
	var n domain.Notification
	var id, evID, channel string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, event_id, event_type, channel, recipient, subject, body, sent_at
		 FROM notifications WHERE event_id = ?`, eventID.String(),
	).Scan(&id, &evID, &n.EventType, &channel, &n.Recipient, &n.Subject, &n.Body, &n.SentAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, err
	}
	if n.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if n.EventID, err = uuid.Parse(evID); err != nil {
		return nil, err
	}
	n.Channel = domain.Channel(channel)
	return &n, nil
}

func (r *NotificationRepoSQLite) List(ctx context.Context, limit, offset int) ([]*domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_id, event_type, channel, recipient, subject, body, sent_at
		 FROM notifications ORDER BY sent_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		var id, evID, channel string
		if err := rows.Scan(&id, &evID, &n.EventType, &channel, &n.Recipient, &n.Subject, &n.Body, &n.SentAt); err != nil {
			return nil, err
		}
		if n.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if n.EventID, err = uuid.Parse(evID); err != nil {
			return nil, err
		}
		n.Channel = domain.Channel(channel)
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

var _ domain.NotificationRepository = (*NotificationRepoSQLite)(nil)
