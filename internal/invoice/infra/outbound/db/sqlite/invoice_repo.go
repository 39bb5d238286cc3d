package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/davicafu/eventshop/internal/invoice/domain"
)

type InvoiceRepoSQLite struct {
	db *sql.DB
}

func NewInvoiceRepoSQLite(db *sql.DB) *InvoiceRepoSQLite {
	return &InvoiceRepoSQLite{db: db}
}

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS invoices (
			id TEXT PRIMARY KEY,
			number TEXT,
			order_id TEXT NOT NULL UNIQUE,
			customer_id TEXT NOT NULL,
			amount REAL NOT NULL,
			status TEXT NOT NULL,
			retry_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS invoice_sequence (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			last INTEGER NOT NULL
		);
		INSERT OR IGNORE INTO invoice_sequence (id, last) VALUES (1, 0)`)
	return err
}

func (r *InvoiceRepoSQLite) Add(ctx context.Context, inv *domain.Invoice) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invoices (id, number, order_id, customer_id, amount, status, retry_count, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		inv.ID.String(), inv.Number, inv.OrderID.String(), inv.CustomerID.String(),
		inv.Amount, string(inv.Status), inv.RetryCount, inv.CreatedAt, inv.UpdatedAt,
	)
	return err
}

func (r *InvoiceRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return r.getBy(ctx, `WHERE id = ?`, id.String())
}

func (r *InvoiceRepoSQLite) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Invoice, error) {
	return r.getBy(ctx, `WHERE order_id = ?`, orderID.String())
}

func (r *InvoiceRepoSQLite) getBy(ctx context.Context, where string, arg interface{}) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, number, order_id, customer_id, amount, status, retry_count, created_at, updated_at
		 FROM invoices `+where, arg)
	inv, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrInvoiceNotFound
	}
	return inv, err
}

func (r *InvoiceRepoSQLite) Update(ctx context.Context, inv *domain.Invoice) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET number=?, amount=?, status=?, retry_count=?, updated_at=? WHERE id=?`,
		inv.Number, inv.Amount, string(inv.Status), inv.RetryCount, inv.UpdatedAt, inv.ID.String(),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

func (r *InvoiceRepoSQLite) List(ctx context.Context, limit, offset int) ([]*domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, number, order_id, customer_id, amount, status, retry_count, created_at, updated_at
		 FROM invoices ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvoices(rows)
}

func (r *InvoiceRepoSQLite) ListFailed(ctx context.Context, maxRetries, limit int) ([]*domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, number, order_id, customer_id, amount, status, retry_count, created_at, updated_at
		 FROM invoices WHERE status = ? AND retry_count < ?
		 ORDER BY updated_at ASC LIMIT ?`,
		string(domain.StatusFailed), maxRetries, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvoices(rows)
}

// NextInvoiceNumber avanza el contador de la serie de forma atómica y
// devuelve el número con formato INV-<año>-<secuencia>.
func (r *InvoiceRepoSQLite) NextInvoiceNumber(ctx context.Context) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE invoice_sequence SET last = last + 1 WHERE id = 1`); err != nil {
		return "", err
	}
	var last int64
	if err := tx.QueryRowContext(ctx, `SELECT last FROM invoice_sequence WHERE id = 1`).Scan(&last); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	return fmt.Sprintf("INV-%d-%06d", time.Now().UTC().Year(), last), nil
}

// ---------------- Helpers de escaneo ----------------

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var inv domain.Invoice
	var id, orderID, customerID, status string
	if err := row.Scan(&id, &inv.Number, &orderID, &customerID,
		&inv.Amount, &status, &inv.RetryCount, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if inv.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if inv.OrderID, err = uuid.Parse(orderID); err != nil {
		return nil, err
	}
	if inv.CustomerID, err = uuid.Parse(customerID); err != nil {
		return nil, err
	}
	inv.Status = domain.InvoiceStatus(status)
	return &inv, nil
}

func collectInvoices(rows *sql.Rows) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

var _ domain.InvoiceRepository = (*InvoiceRepoSQLite)(nil)
