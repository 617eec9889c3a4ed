package book

import "matchbook/internal/domain"

// Ordering selects which end of the price scale is the best price. Bid and
// ask books are the same structure with opposite comparators.
type Ordering int

const (
	// BidOrdering puts the highest price first.
	BidOrdering Ordering = iota
	// AskOrdering puts the lowest price first.
	AskOrdering
)

// Book holds one side of an instrument's order book: an ordered map of
// price levels. No two levels share a price and empty levels are removed
// as soon as they drain.
type Book struct {
	ordering Ordering
	levels   *levelTree
}

func New(ordering Ordering) *Book {
	return &Book{ordering: ordering, levels: newLevelTree()}
}

// Insert places a new resting order at its price level, creating the level
// if absent. Returns the inserted record.
func (b *Book) Insert(o *domain.OrderInsert, seq uint64) *Order {
	lvl := b.levels.Upsert(o.Price)
	return lvl.Insert(&Order{
		Seq:           seq,
		ID:            o.ID,
		ClientOrderID: o.ClientOrderID,
		Account:       o.Account,
		Price:         o.Price,
		Volume:        o.Volume,
	})
}

// Amend locates the order at (a.Price, a.ID) and applies the replacement
// price and volume. NewVolume zero cancels. A price change re-inserts the
// record at the destination level as the latest arrival; an unchanged price
// keeps the original queue position. Reports whether the order was found.
func (b *Book) Amend(a *domain.OrderAmend, nextSeq func() uint64) bool {
	lvl := b.levels.Find(a.Price)
	if lvl == nil {
		return false
	}

	if a.NewVolume == 0 {
		ok := lvl.CancelOrder(a.ID)
		if lvl.Empty() {
			b.levels.Delete(a.Price)
		}
		return ok
	}

	if a.NewPrice == a.Price {
		return lvl.ChangeOrderVolume(a.ID, a.NewVolume)
	}

	ok := lvl.MoveOrder(a.ID, func(o *Order) {
		o.Price = a.NewPrice
		o.Volume = a.NewVolume
		o.Seq = nextSeq()
		b.levels.Upsert(a.NewPrice).Insert(o)
	})
	if lvl.Empty() {
		b.levels.Delete(a.Price)
	}
	return ok
}

// Cancel removes the order at (c.Price, c.ID). Reports whether it was
// found.
func (b *Book) Cancel(c *domain.OrderCancel) bool {
	lvl := b.levels.Find(c.Price)
	if lvl == nil {
		return false
	}
	ok := lvl.CancelOrder(c.ID)
	if lvl.Empty() {
		b.levels.Delete(c.Price)
	}
	return ok
}

// Best returns the level at the best price, or nil if the side is empty.
func (b *Book) Best() *Level {
	if b.ordering == BidOrdering {
		return b.levels.Max()
	}
	return b.levels.Min()
}

func (b *Book) LevelAt(price domain.Price) *Level {
	return b.levels.Find(price)
}

func (b *Book) RemoveLevelAt(price domain.Price) bool {
	return b.levels.Delete(price)
}

// Walk traverses levels best price first until fn returns false. The
// traversal order is the match-priority order.
func (b *Book) Walk(fn func(*Level) bool) {
	if b.ordering == BidOrdering {
		b.levels.Descend(fn)
		return
	}
	b.levels.Ascend(fn)
}

func (b *Book) Empty() bool { return b.levels.Size() == 0 }
func (b *Book) Len() int    { return b.levels.Size() }
