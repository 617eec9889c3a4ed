package domain

import "time"

// BookOrder is a read-only copy of a resting order taken during traversal.
type BookOrder struct {
	ID            string
	ClientOrderID string
	Account       string
	Price         Price
	Volume        Volume
}

// BookLevel aggregates one price level of a snapshot.
type BookLevel struct {
	Price  Price
	Volume Volume
	Orders []BookOrder
}

// BookSnapshot is a point-in-time copy of both sides of one instrument's
// book, best price first on each side.
type BookSnapshot struct {
	Instrument string
	Bids       []BookLevel
	Asks       []BookLevel
	Timestamp  time.Time
}

func (s *BookSnapshot) DeepCopy() *BookSnapshot {
	cp := *s
	cp.Bids = make([]BookLevel, len(s.Bids))
	copy(cp.Bids, s.Bids)
	cp.Asks = make([]BookLevel, len(s.Asks))
	copy(cp.Asks, s.Asks)
	for i := range cp.Bids {
		cp.Bids[i].Orders = append([]BookOrder(nil), s.Bids[i].Orders...)
	}
	for i := range cp.Asks {
		cp.Asks[i].Orders = append([]BookOrder(nil), s.Asks[i].Orders...)
	}
	return &cp
}
