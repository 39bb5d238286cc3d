package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/davicafu/eventshop/internal/product/domain"
)

type ProductRepoSQLite struct {
	db *sql.DB
}

func NewProductRepoSQLite(db *sql.DB) *ProductRepoSQLite {
	return &ProductRepoSQLite{db: db}
}

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			sku TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			price REAL NOT NULL,
			stock INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS reservations (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL UNIQUE,
			items TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`)
	return err
}

func (r *ProductRepoSQLite) Add(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, sku, name, price, stock, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?)`,
		p.ID.String(), p.SKU, p.Name, p.Price, p.Stock, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return domain.ErrDuplicateSKU
	}
	return err
}

func (r *ProductRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return r.getBy(ctx, `WHERE id = ?`, id.String())
}

func (r *ProductRepoSQLite) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return r.getBy(ctx, `WHERE sku = ?`, sku)
}

func (r *ProductRepoSQLite) getBy(ctx context.Context, where string, arg interface{}) (*domain.Product, error) {
	var p domain.Product
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, sku, name, price, stock, created_at, updated_at FROM products `+where, arg,
	).Scan(&id, &p.SKU, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	if p.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepoSQLite) Update(ctx context.Context, p *domain.Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET sku=?, name=?, price=?, stock=?, updated_at=? WHERE id=?`,
		p.SKU, p.Name, p.Price, p.Stock, p.UpdatedAt, p.ID.String(),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepoSQLite) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sku, name, price, stock, created_at, updated_at
		 FROM products ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		var p domain.Product
		var id string
		if err := rows.Scan(&id, &p.SKU, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if p.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

// Reserve descuenta stock y registra la reserva en una transacción: o todo
// o nada, sin descuentos parciales.
func (r *ProductRepoSQLite) Reserve(ctx context.Context, res *domain.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Se ignora si el Commit() es exitoso

	for _, it := range res.Items {
		result, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?`,
			it.Quantity, it.ProductID.String(), it.Quantity,
		)
		if err != nil {
			return err
		}
		if n, _ := result.RowsAffected(); n == 0 {
			// Cero filas puede ser producto inexistente o stock insuficiente.
			var one int
			err := tx.QueryRowContext(ctx,
				`SELECT 1 FROM products WHERE id = ?`, it.ProductID.String(),
			).Scan(&one)
			if err == sql.ErrNoRows {
				return domain.ErrProductNotFound
			}
			if err != nil {
				return err
			}
			return domain.ErrInsufficientStock
		}
	}

	items, err := json.Marshal(res.Items)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (id, order_id, items, created_at) VALUES (?,?,?,?)`,
		res.ID.String(), res.OrderID.String(), string(items), res.CreatedAt,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *ProductRepoSQLite) GetReservationByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Reservation, error) {
	var res domain.Reservation
	var id, oid, items string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, order_id, items, created_at FROM reservations WHERE order_id = ?`, orderID.String(),
	).Scan(&id, &oid, &items, &res.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrReservationNotFound
		}
		return nil, err
	}
	if res.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if res.OrderID, err = uuid.Parse(oid); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &res.Items); err != nil {
		return nil, err
	}
	return &res, nil
}

var _ domain.ProductRepository = (*ProductRepoSQLite)(nil)
