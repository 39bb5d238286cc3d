package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	productDomain "github.com/davicafu/eventshop/internal/product/domain"
)

// InMemoryProductRepo simula ProductRepository, incluida la semántica
// todo-o-nada de Reserve.
type InMemoryProductRepo struct {
	Products     map[uuid.UUID]*productDomain.Product
	Reservations map[uuid.UUID]*productDomain.Reservation // por OrderID
	mu           sync.Mutex
}

var _ productDomain.ProductRepository = (*InMemoryProductRepo)(nil)

func NewInMemoryProductRepo() *InMemoryProductRepo {
	return &InMemoryProductRepo{
		Products:     make(map[uuid.UUID]*productDomain.Product),
		Reservations: make(map[uuid.UUID]*productDomain.Reservation),
	}
}

func (r *InMemoryProductRepo) Add(ctx context.Context, p *productDomain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.Products {
		if existing.SKU == p.SKU {
			return productDomain.ErrDuplicateSKU
		}
	}
	cp := *p
	r.Products[p.ID] = &cp
	return nil
}

func (r *InMemoryProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*productDomain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Products[id]
	if !ok {
		return nil, productDomain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *InMemoryProductRepo) GetBySKU(ctx context.Context, sku string) (*productDomain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.Products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, productDomain.ErrProductNotFound
}

func (r *InMemoryProductRepo) Update(ctx context.Context, p *productDomain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Products[p.ID]; !ok {
		return productDomain.ErrProductNotFound
	}
	cp := *p
	r.Products[p.ID] = &cp
	return nil
}

func (r *InMemoryProductRepo) List(ctx context.Context, limit, offset int) ([]*productDomain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*productDomain.Product
	for _, p := range r.Products {
		cp := *p
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

// Reserve valida todo el lote antes de descontar: o se aplica completo o
// no se aplica nada, igual que la transacción real.
func (r *InMemoryProductRepo) Reserve(ctx context.Context, res *productDomain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, it := range res.Items {
		p, ok := r.Products[it.ProductID]
		if !ok {
			return productDomain.ErrProductNotFound
		}
		if p.Stock < it.Quantity {
			return productDomain.ErrInsufficientStock
		}
	}
	for _, it := range res.Items {
		r.Products[it.ProductID].Stock -= it.Quantity
	}
	cp := *res
	r.Reservations[res.OrderID] = &cp
	return nil
}

func (r *InMemoryProductRepo) GetReservationByOrderID(ctx context.Context, orderID uuid.UUID) (*productDomain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.Reservations[orderID]
	if !ok {
		return nil, productDomain.ErrReservationNotFound
	}
	cp := *res
	return &cp, nil
}
