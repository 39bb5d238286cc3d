package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	invoiceDomain "github.com/davicafu/eventshop/internal/invoice/domain"
)

// InMemoryInvoiceRepo simula InvoiceRepository. FailNumbering fuerza fallos
// transitorios de NextInvoiceNumber para ejercitar el camino failed/retry.
type InMemoryInvoiceRepo struct {
	Invoices      map[uuid.UUID]*invoiceDomain.Invoice
	FailNumbering int // cuántas llamadas a NextInvoiceNumber fallan
	NumberCalls   int
	seq           int
	mu            sync.Mutex
}

var _ invoiceDomain.InvoiceRepository = (*InMemoryInvoiceRepo)(nil)

func NewInMemoryInvoiceRepo() *InMemoryInvoiceRepo {
	return &InMemoryInvoiceRepo{Invoices: make(map[uuid.UUID]*invoiceDomain.Invoice)}
}

func (r *InMemoryInvoiceRepo) Add(ctx context.Context, inv *invoiceDomain.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *inv
	r.Invoices[inv.ID] = &cp
	return nil
}

func (r *InMemoryInvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*invoiceDomain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.Invoices[id]
	if !ok {
		return nil, invoiceDomain.ErrInvoiceNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r *InMemoryInvoiceRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*invoiceDomain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.Invoices {
		if inv.OrderID == orderID {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, invoiceDomain.ErrInvoiceNotFound
}

func (r *InMemoryInvoiceRepo) Update(ctx context.Context, inv *invoiceDomain.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Invoices[inv.ID]; !ok {
		return invoiceDomain.ErrInvoiceNotFound
	}
	cp := *inv
	r.Invoices[inv.ID] = &cp
	return nil
}

func (r *InMemoryInvoiceRepo) List(ctx context.Context, limit, offset int) ([]*invoiceDomain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*invoiceDomain.Invoice
	for _, inv := range r.Invoices {
		cp := *inv
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if offset >= len(list) {
		return nil, nil
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end], nil
}

func (r *InMemoryInvoiceRepo) ListFailed(ctx context.Context, maxRetries, limit int) ([]*invoiceDomain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*invoiceDomain.Invoice
	for _, inv := range r.Invoices {
		if inv.Status == invoiceDomain.StatusFailed && inv.RetryCount < maxRetries {
			cp := *inv
			list = append(list, &cp)
		}
		if len(list) == limit {
			break
		}
	}
	return list, nil
}

func (r *InMemoryInvoiceRepo) NextInvoiceNumber(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.NumberCalls++
	if r.FailNumbering > 0 {
		r.FailNumbering--
		return "", errors.New("numbering service unavailable")
	}
	r.seq++
	return fmt.Sprintf("INV-TEST-%06d", r.seq), nil
}
