package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	orderDomain "github.com/davicafu/eventshop/internal/order/domain"
)

// InMemoryOrderRepo simula OrderRepository.
type InMemoryOrderRepo struct {
	Orders map[uuid.UUID]*orderDomain.Order
	mu     sync.Mutex
}

var _ orderDomain.OrderRepository = (*InMemoryOrderRepo)(nil)

func NewInMemoryOrderRepo() *InMemoryOrderRepo {
	return &InMemoryOrderRepo{Orders: make(map[uuid.UUID]*orderDomain.Order)}
}

func (r *InMemoryOrderRepo) Add(ctx context.Context, o *orderDomain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.Orders[o.ID] = &cp
	return nil
}

func (r *InMemoryOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.Orders[id]
	if !ok {
		return nil, orderDomain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *InMemoryOrderRepo) Update(ctx context.Context, o *orderDomain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Orders[o.ID]; !ok {
		return orderDomain.ErrOrderNotFound
	}
	cp := *o
	r.Orders[o.ID] = &cp
	return nil
}

func (r *InMemoryOrderRepo) List(ctx context.Context, limit, offset int) ([]*orderDomain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*orderDomain.Order
	for _, o := range r.Orders {
		cp := *o
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
