package book

import "matchbook/internal/domain"

// Order is a resting order record owned by its Level. Seq is the engine's
// monotonic arrival sequence; list order and Seq order always agree because
// orders are only ever appended.
type Order struct {
	Seq           uint64
	ID            string
	ClientOrderID string
	Account       string
	Price         domain.Price
	Volume        domain.Volume
	next          *Order
	prev          *Order
}

// Level is the FIFO queue of resting orders sharing one price. The sum of
// the queued volumes always equals totalVolume.
type Level struct {
	price       domain.Price
	head        *Order
	tail        *Order
	totalVolume domain.Volume
	count       int
}

func newLevel(price domain.Price) *Level {
	return &Level{price: price}
}

func (l *Level) Price() domain.Price        { return l.price }
func (l *Level) TotalVolume() domain.Volume { return l.totalVolume }
func (l *Level) Len() int                   { return l.count }
func (l *Level) Empty() bool                { return l.head == nil }

// Insert appends o as the latest arrival. Never fails.
func (l *Level) Insert(o *Order) *Order {
	if l.head == nil {
		l.head = o
		l.tail = o
	} else {
		l.tail.next = o
		o.prev = l.tail
		l.tail = o
	}
	l.totalVolume += o.Volume
	l.count++
	return o
}

// CancelOrder removes the order with the given id. Reports whether it was
// present.
func (l *Level) CancelOrder(id string) bool {
	o := l.find(id)
	if o == nil {
		return false
	}
	l.unlink(o)
	return true
}

// ChangeOrderVolume overwrites the order's volume in place, preserving its
// queue position. Used for same-price amendments only.
func (l *Level) ChangeOrderVolume(id string, v domain.Volume) bool {
	o := l.find(id)
	if o == nil {
		return false
	}
	l.totalVolume = l.totalVolume - o.Volume + v
	o.Volume = v
	return true
}

// MoveOrder unlinks the order with the given id and hands ownership of the
// record to moveOut, which re-inserts it elsewhere. The order loses its
// queue position here.
func (l *Level) MoveOrder(id string, moveOut func(*Order)) bool {
	o := l.find(id)
	if o == nil {
		return false
	}
	l.unlink(o)
	moveOut(o)
	return true
}

// Top returns the earliest-arrived order, or nil if the level is empty.
func (l *Level) Top() *Order {
	return l.head
}

// TradeTop reduces the top order's volume by min(want, top volume), invokes
// fill with the order and the traded amount, and unlinks the order if it is
// now fully consumed. Returns the traded amount; zero when the level is
// empty. Callers re-query the level before issuing further trades.
func (l *Level) TradeTop(want domain.Volume, fill func(o *Order, traded domain.Volume)) domain.Volume {
	o := l.head
	if o == nil || want == 0 {
		return 0
	}
	traded := want
	if o.Volume < traded {
		traded = o.Volume
	}
	o.Volume -= traded
	l.totalVolume -= traded
	fill(o, traded)
	if o.Volume == 0 {
		l.unlink(o)
	}
	return traded
}

// Each visits resting orders in arrival order until fn returns false.
func (l *Level) Each(fn func(*Order) bool) {
	for o := l.head; o != nil; o = o.next {
		if !fn(o) {
			return
		}
	}
}

func (l *Level) find(id string) *Order {
	for o := l.head; o != nil; o = o.next {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (l *Level) unlink(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		l.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		l.tail = o.prev
	}
	o.next = nil
	o.prev = nil
	l.totalVolume -= o.Volume
	l.count--
}
