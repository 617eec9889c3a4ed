package in_memory

import (
	"context"
	"sync"

	"matchbook/internal/domain"
	"matchbook/internal/port"
)

var _ port.Journal = (*Journal)(nil)

// Journal is the in-process stand-in for the Postgres journal, used in
// tests and when no database is configured.
type Journal struct {
	mu     sync.Mutex
	orders map[string]*domain.OrderInsert
	trades map[string][]*domain.Trade
}

func NewJournal() *Journal {
	return &Journal{
		orders: make(map[string]*domain.OrderInsert),
		trades: make(map[string][]*domain.Trade),
	}
}

func (j *Journal) SaveOrder(ctx context.Context, o *domain.OrderInsert) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	cp := *o
	j.orders[o.ID] = &cp
	return nil
}

func (j *Journal) SaveTrade(ctx context.Context, t *domain.Trade) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	cp := *t
	j.trades[t.ID] = append(j.trades[t.ID], &cp)
	return nil
}

func (j *Journal) TradesForOrder(ctx context.Context, orderID string) ([]*domain.Trade, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]*domain.Trade(nil), j.trades[orderID]...), nil
}
