package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	authDomain "github.com/davicafu/eventshop/internal/auth/domain"
)

// InMemoryUserRepo simula UserRepository.
type InMemoryUserRepo struct {
	Users map[uuid.UUID]*authDomain.User
	mu    sync.Mutex
}

var _ authDomain.UserRepository = (*InMemoryUserRepo)(nil)

func NewInMemoryUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{Users: make(map[uuid.UUID]*authDomain.User)}
}

func (r *InMemoryUserRepo) Add(ctx context.Context, u *authDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.Users {
		if existing.Email == u.Email {
			return authDomain.ErrDuplicateEmail
		}
	}
	cp := *u
	r.Users[u.ID] = &cp
	return nil
}

func (r *InMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*authDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.Users[id]
	if !ok {
		return nil, authDomain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *InMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*authDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.Users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, authDomain.ErrUserNotFound
}
