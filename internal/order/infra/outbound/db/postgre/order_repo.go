package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL

	"github.com/davicafu/eventshop/internal/order/domain"
)

// OrderRepoPostgres implementa OrderRepository para PostgreSQL.
type OrderRepoPostgres struct {
	db *sql.DB
}

func NewOrderRepoPostgres(db *sql.DB) *OrderRepoPostgres {
	return &OrderRepoPostgres{db: db}
}

func (r *OrderRepoPostgres) Add(ctx context.Context, o *domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO orders (id, customer_id, items, total, status, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		o.ID, o.CustomerID, items, o.Total, o.Status, o.CreatedAt, o.UpdatedAt,
	)
	return err
}

func (r *OrderRepoPostgres) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var o domain.Order
	var items []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT id, customer_id, items, total, status, created_at, updated_at
		 FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.CustomerID, &items, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepoPostgres) Update(ctx context.Context, o *domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET customer_id=$1, items=$2, total=$3, status=$4, updated_at=$5 WHERE id=$6`,
		o.CustomerID, items, o.Total, o.Status, o.UpdatedAt, o.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepoPostgres) List(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, customer_id, items, total, status, created_at, updated_at
		 FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var o domain.Order
		var items []byte
		if err := rows.Scan(&o.ID, &o.CustomerID, &items, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, err
		}
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}

var _ domain.OrderRepository = (*OrderRepoPostgres)(nil)
