package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/davicafu/eventshop/internal/order/domain"
)

type OrderRepoSQLite struct {
	db *sql.DB
}

func NewOrderRepoSQLite(db *sql.DB) *OrderRepoSQLite {
	return &OrderRepoSQLite{db: db}
}

// InitSchema crea la tabla de pedidos si no existe. Las líneas se guardan
// como JSON: este servicio nunca las consulta por separado.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			items TEXT NOT NULL,
			total REAL NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`)
	return err
}

func (r *OrderRepoSQLite) Add(ctx context.Context, o *domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO orders (id, customer_id, items, total, status, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?)`,
		o.ID.String(), o.CustomerID.String(), string(items), o.Total, string(o.Status), o.CreatedAt, o.UpdatedAt,
	)
	return err
}

func (r *OrderRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, customer_id, items, total, status, created_at, updated_at
		 FROM orders WHERE id = ?`, id.String())
	return scanOrder(row)
}

func (r *OrderRepoSQLite) Update(ctx context.Context, o *domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET customer_id=?, items=?, total=?, status=?, updated_at=? WHERE id=?`,
		o.CustomerID.String(), string(items), o.Total, string(o.Status), o.UpdatedAt, o.ID.String(),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepoSQLite) List(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, customer_id, items, total, status, created_at, updated_at
		 FROM orders ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ---------------- Helpers ----------------

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var id, customerID, items, status string
	if err := row.Scan(&id, &customerID, &items, &o.Total, &status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	var err error
	if o.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if o.CustomerID, err = uuid.Parse(customerID); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

var _ domain.OrderRepository = (*OrderRepoSQLite)(nil)
