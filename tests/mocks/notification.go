package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	notificationDomain "github.com/davicafu/eventshop/internal/notification/domain"
)

// InMemoryNotificationRepo simula NotificationRepository.
type InMemoryNotificationRepo struct {
	Notifications map[uuid.UUID]*notificationDomain.Notification // por EventID
	mu            sync.Mutex
}

var _ notificationDomain.NotificationRepository = (*InMemoryNotificationRepo)(nil)

func NewInMemoryNotificationRepo() *InMemoryNotificationRepo {
	return &InMemoryNotificationRepo{
		Notifications: make(map[uuid.UUID]*notificationDomain.Notification),
	}
}

func (r *InMemoryNotificationRepo) Add(ctx context.Context, n *notificationDomain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.Notifications[n.EventID] = &cp
	return nil
}

func (r *InMemoryNotificationRepo) GetByEventID(ctx context.Context, eventID uuid.UUID) (*notificationDomain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.Notifications[eventID]
	if !ok {
		return nil, notificationDomain.ErrNotificationNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *InMemoryNotificationRepo) List(ctx context.Context, limit, offset int) ([]*notificationDomain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*notificationDomain.Notification
	for _, n := range r.Notifications {
		cp := *n
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SentAt.After(list[j].SentAt) })
	if offset >= len(list) {
		return nil, nil
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end], nil
}
