package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// InMemoryCache es el fallback cuando Redis no está disponible.
type InMemoryCache struct {
	mu      sync.RWMutex
	items   map[string]memItem
	ttl     time.Duration
	stop    chan struct{}
	once    sync.Once
}

type memItem struct {
	data      []byte
	expiresAt time.Time
}

func NewInMemoryCache(ttl, cleanupEvery time.Duration) *InMemoryCache {
	c := &InMemoryCache{
		items: make(map[string]memItem),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}
	go c.janitor(cleanupEvery)
	return c
}

func (c *InMemoryCache) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, it := range c.items {
				if now.After(it.expiresAt) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		}
	}
}

func (c *InMemoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(it.expiresAt) {
		return false, nil
	}
	if err := json.Unmarshal(it.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *InMemoryCache) Set(ctx context.Context, key string, val interface{}, ttlSecs int) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	ttl := c.ttl
	if ttlSecs > 0 {
		ttl = time.Duration(ttlSecs) * time.Second
	}
	c.mu.Lock()
	c.items[key] = memItem{data: data, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *InMemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

// Close detiene el janitor.
func (c *InMemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

var _ Cache = (*InMemoryCache)(nil)
