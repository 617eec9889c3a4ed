package core

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"matchbook/internal/book"
	"matchbook/internal/domain"
)

// MatchingEngine owns the bid and ask books for a single instrument and
// applies price-time priority matching after every mutation. One engine
// exists per instrument for the process lifetime; all mutating operations
// serialize on mu, including the execution loop, so operations on one
// instrument are totally ordered.
type MatchingEngine struct {
	instrument string
	sink       ReplySink
	log        *log.Logger

	mu   sync.Mutex
	bids *book.Book
	asks *book.Book
	seq  uint64

	now     func() time.Time
	tradeID func() string
}

func NewMatchingEngine(instrument string, sink ReplySink, logger *log.Logger) *MatchingEngine {
	return &MatchingEngine{
		instrument: instrument,
		sink:       sink,
		log:        logger,
		bids:       book.New(book.BidOrdering),
		asks:       book.New(book.AskOrdering),
		now:        time.Now,
		tradeID:    uuid.NewString,
	}
}

func (e *MatchingEngine) Instrument() string { return e.instrument }

// OrderInsert places o into the side-appropriate book, acknowledges it, and
// resolves any resulting cross.
func (e *MatchingEngine) OrderInsert(dest string, o *domain.OrderInsert) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.seq++
	e.bookFor(o.Side).Insert(o, e.seq)
	e.sink.SendReply(dest, domain.OrderReply{ID: o.ID, ClientOrderID: o.ClientOrderID})
	e.execute(dest, o.Side)
}

// OrderAmend applies a to the side-appropriate book. A successful amendment
// can create or remove a cross, so the execution loop runs afterwards.
func (e *MatchingEngine) OrderAmend(dest string, a *domain.OrderAmend) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.bookFor(a.Side).Amend(a, e.nextSeq) {
		e.sink.SendError(dest, domain.ErrorReply{
			ClientOrderID: a.ClientOrderID,
			Message:       "amend failed: no resting order at price " + a.Price.Decimal().String() + " with id " + a.ID,
		})
		return
	}
	e.sink.SendReply(dest, domain.OrderReply{ID: a.ID, ClientOrderID: a.ClientOrderID})
	e.execute(dest, a.Side)
}

// OrderCancel removes the referenced order. Cancellation can never create a
// cross, so no matching runs.
func (e *MatchingEngine) OrderCancel(dest string, c *domain.OrderCancel) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.bookFor(c.Side).Cancel(c) {
		e.sink.SendError(dest, domain.ErrorReply{
			ClientOrderID: c.ClientOrderID,
			Message:       "cancel failed: no resting order at price " + c.Price.Decimal().String() + " with id " + c.ID,
		})
		return
	}
	e.sink.SendReply(dest, domain.OrderReply{ID: c.ID, ClientOrderID: c.ClientOrderID})
}

// Snapshot copies both books under the engine lock, best price first.
func (e *MatchingEngine) Snapshot() *domain.BookSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := &domain.BookSnapshot{
		Instrument: e.instrument,
		Timestamp:  e.now(),
	}
	snap.Bids = copyLevels(e.bids)
	snap.Asks = copyLevels(e.asks)
	return snap
}

func (e *MatchingEngine) nextSeq() uint64 {
	e.seq++
	return e.seq
}

func (e *MatchingEngine) bookFor(side domain.Side) *book.Book {
	if side == domain.Buy {
		return e.bids
	}
	return e.asks
}

// execute resolves crossings until the best bid no longer reaches the best
// ask. ownSide is the side the triggering order sits on; the opposite
// (resting) level trades first and decides the consumed amount, which is
// then mirrored on the own level so both sides reduce by exactly the
// matched quantity.
func (e *MatchingEngine) execute(dest string, ownSide domain.Side) {
	ownBook := e.bookFor(ownSide)
	otherBook := e.bookFor(ownSide.Opposite())

	for {
		own := ownBook.Best()
		other := otherBook.Best()
		if own == nil || other == nil {
			return
		}
		if !crosses(ownSide, own.Price(), other.Price()) {
			return
		}

		want := own.Top().Volume
		if v := other.Top().Volume; v < want {
			want = v
		}
		// Both counterparties execute at the resting side's price.
		execPrice := other.Price()

		consumed := other.TradeTop(want, func(o *book.Order, traded domain.Volume) {
			e.sink.SendTrade(dest, e.tradeFor(o, execPrice, traded))
		})
		if consumed == 0 {
			e.log.Printf("matching %s: best level at %s reported volume but traded nothing, aborting execution loop",
				e.instrument, other.Price().Decimal())
			return
		}
		own.TradeTop(consumed, func(o *book.Order, traded domain.Volume) {
			e.sink.SendTrade(dest, e.tradeFor(o, execPrice, traded))
		})

		if other.Empty() {
			otherBook.RemoveLevelAt(other.Price())
		}
		if own.Empty() {
			ownBook.RemoveLevelAt(own.Price())
		}
	}
}

func (e *MatchingEngine) tradeFor(o *book.Order, price domain.Price, traded domain.Volume) domain.Trade {
	return domain.Trade{
		TradeID:       e.tradeID(),
		Account:       o.Account,
		Instrument:    e.instrument,
		Price:         price,
		Volume:        traded,
		ID:            o.ID,
		ClientOrderID: o.ClientOrderID,
		Timestamp:     e.now(),
	}
}

// crosses reports whether a buy at buySide's best price matches the
// opposing best: a buy crosses a sell when buyPrice >= sellPrice.
func crosses(ownSide domain.Side, ownPrice, otherPrice domain.Price) bool {
	if ownSide == domain.Buy {
		return ownPrice >= otherPrice
	}
	return otherPrice >= ownPrice
}

func copyLevels(b *book.Book) []domain.BookLevel {
	var out []domain.BookLevel
	b.Walk(func(lvl *book.Level) bool {
		bl := domain.BookLevel{
			Price:  lvl.Price(),
			Volume: lvl.TotalVolume(),
			Orders: make([]domain.BookOrder, 0, lvl.Len()),
		}
		lvl.Each(func(o *book.Order) bool {
			bl.Orders = append(bl.Orders, domain.BookOrder{
				ID:            o.ID,
				ClientOrderID: o.ClientOrderID,
				Account:       o.Account,
				Price:         o.Price,
				Volume:        o.Volume,
			})
			return true
		})
		out = append(out, bl)
		return true
	})
	return out
}
