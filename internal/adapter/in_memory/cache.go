package in_memory

import (
	"context"
	"sync"

	"matchbook/internal/domain"
	"matchbook/internal/port"
)

var _ port.Cache = (*Cache)(nil)

type Cache struct {
	mu    sync.Mutex
	store map[string]*domain.BookSnapshot
}

func NewCache() *Cache {
	return &Cache{store: make(map[string]*domain.BookSnapshot)}
}

func (c *Cache) SetBook(ctx context.Context, instrument string, snap *domain.BookSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[instrument] = snap.DeepCopy()
	return nil
}

func (c *Cache) GetBook(ctx context.Context, instrument string) (*domain.BookSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.store[instrument]
	if !ok {
		return nil, nil
	}
	return snap.DeepCopy(), nil
}
