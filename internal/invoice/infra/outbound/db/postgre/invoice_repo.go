package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL

	"github.com/davicafu/eventshop/internal/invoice/domain"
)

// InvoiceRepoPostgres implementa InvoiceRepository para PostgreSQL.
type InvoiceRepoPostgres struct {
	db *sql.DB
}

func NewInvoiceRepoPostgres(db *sql.DB) *InvoiceRepoPostgres {
	return &InvoiceRepoPostgres{db: db}
}

func (r *InvoiceRepoPostgres) Add(ctx context.Context, inv *domain.Invoice) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invoices (id, number, order_id, customer_id, amount, status, retry_count, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		inv.ID, inv.Number, inv.OrderID, inv.CustomerID,
		inv.Amount, inv.Status, inv.RetryCount, inv.CreatedAt, inv.UpdatedAt,
	)
	return err
}

func (r *InvoiceRepoPostgres) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return r.getBy(ctx, `WHERE id = $1`, id)
}

func (r *InvoiceRepoPostgres) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Invoice, error) {
	return r.getBy(ctx, `WHERE order_id = $1`, orderID)
}

func (r *InvoiceRepoPostgres) getBy(ctx context.Context, where string, arg interface{}) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := r.db.QueryRowContext(ctx,
		`SELECT id, number, order_id, customer_id, amount, status, retry_count, created_at, updated_at
		 FROM invoices `+where, arg,
	).Scan(&inv.ID, &inv.Number, &inv.OrderID, &inv.CustomerID,
		&inv.Amount, &inv.Status, &inv.RetryCount, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *InvoiceRepoPostgres) Update(ctx context.Context, inv *domain.Invoice) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET number=$1, amount=$2, status=$3, retry_count=$4, updated_at=$5 WHERE id=$6`,
		inv.Number, inv.Amount, inv.Status, inv.RetryCount, inv.UpdatedAt, inv.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

func (r *InvoiceRepoPostgres) List(ctx context.Context, limit, offset int) ([]*domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, number, order_id, customer_id, amount, status, retry_count, created_at, updated_at
		 FROM invoices ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *InvoiceRepoPostgres) ListFailed(ctx context.Context, maxRetries, limit int) ([]*domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, number, order_id, customer_id, amount, status, retry_count, created_at, updated_at
		 FROM invoices WHERE status = $1 AND retry_count < $2
		 ORDER BY updated_at ASC LIMIT $3`,
		domain.StatusFailed, maxRetries, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

// NextInvoiceNumber se apoya en una secuencia nativa de PostgreSQL.
func (r *InvoiceRepoPostgres) NextInvoiceNumber(ctx context.Context) (string, error) {
	var last int64
	if err := r.db.QueryRowContext(ctx, `SELECT nextval('invoice_number_seq')`).Scan(&last); err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%d-%06d", time.Now().UTC().Year(), last), nil
}

func (r *InvoiceRepoPostgres) collect(rows *sql.Rows) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	for rows.Next() {
		var inv domain.Invoice
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.OrderID, &inv.CustomerID,
			&inv.Amount, &inv.Status, &inv.RetryCount, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, &inv)
	}
	return invoices, rows.Err()
}

var _ domain.InvoiceRepository = (*InvoiceRepoPostgres)(nil)
