package pg

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5/pgxpool"

	"matchbook/internal/domain"
	"matchbook/internal/port"
)

var _ port.Journal = (*Journal)(nil)

// Journal persists accepted orders and executed trades to Postgres.
type Journal struct {
	pool *pgxpool.Pool
}

// call Close when finished with the journal.
func NewJournal(ctx context.Context, dsn string) (*Journal, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	return &Journal{pool: pool}, nil
}

func (j *Journal) Close(ctx context.Context) {
	if j.pool != nil {
		j.pool.Close()
	}
}

// bigint converts a micro-unit quantity to the signed column type,
// rejecting values a Postgres bigint cannot hold instead of wrapping
// negative.
func bigint(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("pg: value %d overflows bigint", v)
	}
	return int64(v), nil
}

func (j *Journal) SaveOrder(ctx context.Context, o *domain.OrderInsert) error {
	if o == nil {
		return errors.New("nil order")
	}
	price, err := bigint(uint64(o.Price))
	if err != nil {
		return err
	}
	volume, err := bigint(uint64(o.Volume))
	if err != nil {
		return err
	}
	_, err = j.pool.Exec(ctx, `
INSERT INTO orders(id, client_order_id, account, instrument, side, type, price, volume, created_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  client_order_id = EXCLUDED.client_order_id,
  account = EXCLUDED.account,
  instrument = EXCLUDED.instrument,
  side = EXCLUDED.side,
  type = EXCLUDED.type,
  price = EXCLUDED.price,
  volume = EXCLUDED.volume,
  created_at = EXCLUDED.created_at
`, o.ID, o.ClientOrderID, o.Account, o.Instrument, string(o.Side), o.Type,
		price, volume, o.Timestamp)
	return err
}

func (j *Journal) SaveTrade(ctx context.Context, t *domain.Trade) error {
	if t == nil {
		return errors.New("nil trade")
	}
	price, err := bigint(uint64(t.Price))
	if err != nil {
		return err
	}
	volume, err := bigint(uint64(t.Volume))
	if err != nil {
		return err
	}
	_, err = j.pool.Exec(ctx, `
INSERT INTO trades(id, order_id, client_order_id, account, instrument, price, volume, executed_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO NOTHING
`, t.TradeID, t.ID, t.ClientOrderID, t.Account, t.Instrument,
		price, volume, t.Timestamp)
	return err
}

// TradesForOrder returns the fills recorded for one order id in execution
// order.
func (j *Journal) TradesForOrder(ctx context.Context, orderID string) ([]*domain.Trade, error) {
	rows, err := j.pool.Query(ctx, `
SELECT id, order_id, client_order_id, account, instrument, price, volume, executed_at
FROM trades
WHERE order_id = $1
ORDER BY executed_at ASC
`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Trade
	for rows.Next() {
		var t domain.Trade
		var price, volume int64
		if err := rows.Scan(&t.TradeID, &t.ID, &t.ClientOrderID, &t.Account, &t.Instrument, &price, &volume, &t.Timestamp); err != nil {
			return nil, err
		}
		t.Price = domain.Price(price)
		t.Volume = domain.Volume(volume)
		res = append(res, &t)
	}
	return res, rows.Err()
}
