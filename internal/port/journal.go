package port

import (
	"context"

	"matchbook/internal/domain"
)

// Journal records accepted orders and executed trades for query and audit.
// Writes are best-effort from the module boundary; the matching core never
// depends on them.
type Journal interface {
	SaveOrder(ctx context.Context, o *domain.OrderInsert) error
	SaveTrade(ctx context.Context, t *domain.Trade) error
	TradesForOrder(ctx context.Context, orderID string) ([]*domain.Trade, error)
}
