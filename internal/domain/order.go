package domain

import (
	"errors"
	"time"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderInsert is a validated request to place a new resting order.
// ID is generated server-side; ClientOrderID correlates replies back to
// the submitter. Duration is carried but not enforced by the core.
type OrderInsert struct {
	Account       string
	Instrument    string
	Price         Price
	Volume        Volume
	Type          string
	Side          Side
	Timestamp     time.Time
	Duration      time.Duration
	ID            string
	ClientOrderID string
}

func (o *OrderInsert) Validate() error {
	if o.Account == "" {
		return errors.New("account must not be empty")
	}
	if o.Instrument == "" {
		return errors.New("instrument must not be empty")
	}
	if o.Price == 0 {
		return errors.New("price must be positive")
	}
	if o.Volume == 0 {
		return errors.New("volume must be positive")
	}
	if o.Side != Buy && o.Side != Sell {
		return errors.New("side must be BUY or SELL")
	}
	if o.Timestamp.IsZero() {
		return errors.New("timestamp must be set")
	}
	if o.ID == "" {
		return errors.New("order id must not be empty")
	}
	if o.ClientOrderID == "" {
		return errors.New("client order id must not be empty")
	}
	return nil
}

// OrderAmend identifies a resting order by (price, side, id) and proposes a
// replacement price and volume. NewVolume zero is a cancel sentinel; the
// replacement values are not inspected in that case.
type OrderAmend struct {
	OrderInsert
	NewPrice  Price
	NewVolume Volume
}

func (a *OrderAmend) Validate() error {
	if err := a.OrderInsert.Validate(); err != nil {
		return err
	}
	if a.NewVolume == 0 {
		return nil
	}
	if a.NewPrice == 0 {
		return errors.New("new price must be positive")
	}
	return nil
}

// OrderCancel identifies a resting order by (price, side, id).
type OrderCancel struct {
	Instrument    string
	Price         Price
	Side          Side
	ID            string
	ClientOrderID string
}

func (c *OrderCancel) Validate() error {
	if c.Instrument == "" {
		return errors.New("instrument must not be empty")
	}
	if c.Price == 0 {
		return errors.New("price must be positive")
	}
	if c.Side != Buy && c.Side != Sell {
		return errors.New("side must be BUY or SELL")
	}
	if c.ID == "" {
		return errors.New("order id must not be empty")
	}
	if c.ClientOrderID == "" {
		return errors.New("client order id must not be empty")
	}
	return nil
}
