package core

import (
	"fmt"
	"io"
	"log"
	"math/rand"
	"testing"
	"time"

	"matchbook/internal/domain"
)

type captureSink struct {
	acks   []domain.OrderReply
	trades []domain.Trade
	errs   []domain.ErrorReply
	books  []*domain.BookSnapshot
}

func (s *captureSink) SendReply(dest string, r domain.OrderReply)  { s.acks = append(s.acks, r) }
func (s *captureSink) SendTrade(dest string, t domain.Trade)       { s.trades = append(s.trades, t) }
func (s *captureSink) SendError(dest string, e domain.ErrorReply)  { s.errs = append(s.errs, e) }
func (s *captureSink) SendBook(dest string, b *domain.BookSnapshot) {
	s.books = append(s.books, b)
}

func newTestEngine() (*MatchingEngine, *captureSink) {
	sink := &captureSink{}
	e := NewMatchingEngine("BTCUSD", sink, log.New(io.Discard, "", 0))
	e.now = func() time.Time { return time.Unix(0, 0) }
	var n int
	e.tradeID = func() string {
		n++
		return fmt.Sprintf("t-%d", n)
	}
	return e, sink
}

func insert(e *MatchingEngine, id string, side domain.Side, price domain.Price, volume domain.Volume) {
	e.OrderInsert("sess", &domain.OrderInsert{
		Account:       "acc-" + id,
		Instrument:    "BTCUSD",
		Price:         price,
		Volume:        volume,
		Type:          "LIMIT",
		Side:          side,
		Timestamp:     time.Unix(0, 0),
		ID:            id,
		ClientOrderID: "c-" + id,
	})
}

// checkNoCross asserts the post-mutation invariant: best bid strictly below
// best ask, or one side empty.
func checkNoCross(t *testing.T, e *MatchingEngine) {
	t.Helper()
	snap := e.Snapshot()
	if len(snap.Bids) == 0 || len(snap.Asks) == 0 {
		return
	}
	if snap.Bids[0].Price >= snap.Asks[0].Price {
		t.Fatalf("book is crossed: best bid %d >= best ask %d", snap.Bids[0].Price, snap.Asks[0].Price)
	}
}

func TestInsertNoCross(t *testing.T) {
	e, sink := newTestEngine()
	insert(e, "b1", domain.Buy, 50, 100)
	insert(e, "a1", domain.Sell, 51, 100)

	if len(sink.acks) != 2 {
		t.Fatalf("expected 2 acks, got %d", len(sink.acks))
	}
	if len(sink.trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(sink.trades))
	}
	snap := e.Snapshot()
	if len(snap.Bids) != 1 || len(snap.Asks) != 1 {
		t.Fatalf("expected one level per side, got %d bids / %d asks", len(snap.Bids), len(snap.Asks))
	}
	checkNoCross(t, e)
}

func TestFullCrossAgainstRestingAsk(t *testing.T) {
	e, sink := newTestEngine()
	insert(e, "a1", domain.Sell, 50, 100)
	insert(e, "b1", domain.Buy, 50, 100)

	if len(sink.acks) != 2 {
		t.Fatalf("expected 2 acks, got %d", len(sink.acks))
	}
	if len(sink.trades) != 2 {
		t.Fatalf("expected exactly 2 trade records, got %d", len(sink.trades))
	}
	for _, tr := range sink.trades {
		if tr.Volume != 100 || tr.Price != 50 {
			t.Errorf("unexpected trade %+v", tr)
		}
	}
	snap := e.Snapshot()
	if len(snap.Bids) != 0 || len(snap.Asks) != 0 {
		t.Errorf("expected both books empty, got %d bids / %d asks", len(snap.Bids), len(snap.Asks))
	}
}

func TestPartialCross(t *testing.T) {
	e, sink := newTestEngine()
	insert(e, "b1", domain.Buy, 50, 10)
	insert(e, "a1", domain.Sell, 50, 100)

	if len(sink.trades) != 2 {
		t.Fatalf("expected 2 trade records, got %d", len(sink.trades))
	}
	for _, tr := range sink.trades {
		if tr.Volume != 10 {
			t.Errorf("expected traded volume 10, got %d", tr.Volume)
		}
	}
	snap := e.Snapshot()
	if len(snap.Bids) != 0 {
		t.Error("bid must be fully filled and removed")
	}
	if len(snap.Asks) != 1 || snap.Asks[0].Volume != 90 {
		t.Fatalf("expected resting ask volume 90, got %+v", snap.Asks)
	}
}

func TestMultiLevelSweep(t *testing.T) {
	e, sink := newTestEngine()
	insert(e, "a1", domain.Sell, 51, 100)
	insert(e, "a2", domain.Sell, 52, 100)
	insert(e, "b1", domain.Buy, 52, 150)

	// Two matches: 100 against ask@51, 50 against ask@52; two records each.
	if len(sink.trades) != 4 {
		t.Fatalf("expected 4 trade records, got %d", len(sink.trades))
	}
	if sink.trades[0].Volume != 100 || sink.trades[0].Price != 51 {
		t.Errorf("first match should be 100@51, got %+v", sink.trades[0])
	}
	if sink.trades[2].Volume != 50 || sink.trades[2].Price != 52 {
		t.Errorf("second match should be 50@52, got %+v", sink.trades[2])
	}

	snap := e.Snapshot()
	if len(snap.Bids) != 0 {
		t.Error("incoming bid must be fully filled")
	}
	if len(snap.Asks) != 1 || snap.Asks[0].Price != 52 || snap.Asks[0].Volume != 50 {
		t.Fatalf("expected one ask level 50@52 left, got %+v", snap.Asks)
	}
	checkNoCross(t, e)
}

func TestAmendPriceTriggersCross(t *testing.T) {
	e, sink := newTestEngine()
	insert(e, "b1", domain.Buy, 50, 100)
	insert(e, "a1", domain.Sell, 51, 100)
	sink.acks = nil

	e.OrderAmend("sess", &domain.OrderAmend{
		OrderInsert: domain.OrderInsert{
			Account:       "acc-a1",
			Instrument:    "BTCUSD",
			Price:         51,
			Volume:        100,
			Type:          "LIMIT",
			Side:          domain.Sell,
			Timestamp:     time.Unix(0, 0),
			ID:            "a1",
			ClientOrderID: "c-a1",
		},
		NewPrice:  50,
		NewVolume: 100,
	})

	if len(sink.acks) != 1 {
		t.Fatalf("expected 1 ack for the amend, got %d", len(sink.acks))
	}
	if len(sink.trades) != 2 {
		t.Fatalf("expected 2 trade records, got %d", len(sink.trades))
	}
	for _, tr := range sink.trades {
		if tr.Volume != 100 {
			t.Errorf("expected traded volume 100, got %d", tr.Volume)
		}
	}
	snap := e.Snapshot()
	if len(snap.Bids) != 0 || len(snap.Asks) != 0 {
		t.Errorf("expected both books empty, got %+v", snap)
	}
}

func TestAmendVolumeZeroCancels(t *testing.T) {
	e, sink := newTestEngine()
	insert(e, "b1", domain.Buy, 50, 100)
	sink.acks = nil

	e.OrderAmend("sess", &domain.OrderAmend{
		OrderInsert: domain.OrderInsert{
			Account:       "acc-b1",
			Instrument:    "BTCUSD",
			Price:         50,
			Volume:        100,
			Type:          "LIMIT",
			Side:          domain.Buy,
			Timestamp:     time.Unix(0, 0),
			ID:            "b1",
			ClientOrderID: "c-b1",
		},
		NewPrice:  50,
		NewVolume: 0,
	})

	if len(sink.errs) != 0 {
		t.Fatalf("cancel-by-amend must acknowledge, not error: %+v", sink.errs)
	}
	if len(sink.acks) != 1 {
		t.Fatalf("expected 1 ack, got %d", len(sink.acks))
	}
	snap := e.Snapshot()
	if len(snap.Bids) != 0 {
		t.Error("expected order and its level removed")
	}
}

func TestTimePriorityFIFO(t *testing.T) {
	e, sink := newTestEngine()
	insert(e, "first", domain.Buy, 50, 10)
	insert(e, "second", domain.Buy, 50, 10)
	insert(e, "a1", domain.Sell, 50, 10)

	if len(sink.trades) != 2 {
		t.Fatalf("expected one match (2 records), got %d", len(sink.trades))
	}
	// The resting side record names the matched bid.
	if sink.trades[0].ID != "first" {
		t.Errorf("expected earliest-arrived bid matched first, got %s", sink.trades[0].ID)
	}
	snap := e.Snapshot()
	if len(snap.Bids) != 1 || snap.Bids[0].Orders[0].ID != "second" {
		t.Errorf("expected only the later bid left, got %+v", snap.Bids)
	}
}

func TestAmendedOrderLosesPriorityAtNewPrice(t *testing.T) {
	e, sink := newTestEngine()
	insert(e, "b1", domain.Buy, 49, 10)
	insert(e, "b2", domain.Buy, 50, 10)

	// Move b2 to 49: it must queue behind b1.
	e.OrderAmend("sess", &domain.OrderAmend{
		OrderInsert: domain.OrderInsert{
			Account:       "acc-b2",
			Instrument:    "BTCUSD",
			Price:         50,
			Volume:        10,
			Type:          "LIMIT",
			Side:          domain.Buy,
			Timestamp:     time.Unix(0, 0),
			ID:            "b2",
			ClientOrderID: "c-b2",
		},
		NewPrice:  49,
		NewVolume: 10,
	})

	insert(e, "a1", domain.Sell, 49, 10)
	if len(sink.trades) != 2 {
		t.Fatalf("expected one match, got %d records", len(sink.trades))
	}
	if sink.trades[0].ID != "b1" {
		t.Errorf("amended order must lose time priority; matched %s first", sink.trades[0].ID)
	}
}

func TestVolumeConservation(t *testing.T) {
	e, sink := newTestEngine()
	insert(e, "a1", domain.Sell, 50, 37)
	insert(e, "a2", domain.Sell, 51, 13)
	insert(e, "b1", domain.Buy, 51, 45)

	if len(sink.trades)%2 != 0 {
		t.Fatalf("trade records must come in pairs, got %d", len(sink.trades))
	}
	var aggressor, resting domain.Volume
	for _, tr := range sink.trades {
		if tr.ID == "b1" {
			aggressor += tr.Volume
		} else {
			resting += tr.Volume
		}
	}
	if aggressor != resting {
		t.Fatalf("volume not conserved: aggressor %d vs resting %d", aggressor, resting)
	}
	if aggressor != 45 {
		t.Fatalf("expected 45 filled, got %d", aggressor)
	}
	for i := 0; i < len(sink.trades); i += 2 {
		if sink.trades[i].Volume != sink.trades[i+1].Volume {
			t.Errorf("pair %d volumes differ: %d vs %d", i/2, sink.trades[i].Volume, sink.trades[i+1].Volume)
		}
		if sink.trades[i].Price != sink.trades[i+1].Price {
			t.Errorf("pair %d prices differ: %d vs %d", i/2, sink.trades[i].Price, sink.trades[i+1].Price)
		}
	}
	checkNoCross(t, e)
}

func TestCancelDoesNotMatch(t *testing.T) {
	e, sink := newTestEngine()
	insert(e, "b1", domain.Buy, 50, 10)
	sink.acks = nil

	e.OrderCancel("sess", &domain.OrderCancel{
		Instrument:    "BTCUSD",
		Price:         50,
		Side:          domain.Buy,
		ID:            "b1",
		ClientOrderID: "c-b1",
	})
	if len(sink.acks) != 1 || len(sink.trades) != 0 {
		t.Fatalf("expected a single ack and no trades, got %d acks / %d trades", len(sink.acks), len(sink.trades))
	}
}

func TestCancelUnknownOrderErrors(t *testing.T) {
	e, sink := newTestEngine()
	e.OrderCancel("sess", &domain.OrderCancel{
		Instrument:    "BTCUSD",
		Price:         50,
		Side:          domain.Buy,
		ID:            "ghost",
		ClientOrderID: "c-ghost",
	})
	if len(sink.errs) != 1 {
		t.Fatalf("expected an error reply, got %+v", sink.errs)
	}
	if sink.errs[0].ClientOrderID != "c-ghost" {
		t.Errorf("error must correlate to the submitter, got %q", sink.errs[0].ClientOrderID)
	}
}

func TestAmendUnknownOrderErrors(t *testing.T) {
	e, sink := newTestEngine()
	e.OrderAmend("sess", &domain.OrderAmend{
		OrderInsert: domain.OrderInsert{
			Account:       "acc",
			Instrument:    "BTCUSD",
			Price:         50,
			Volume:        10,
			Type:          "LIMIT",
			Side:          domain.Buy,
			Timestamp:     time.Unix(0, 0),
			ID:            "ghost",
			ClientOrderID: "c-ghost",
		},
		NewPrice:  51,
		NewVolume: 10,
	})
	if len(sink.errs) != 1 || len(sink.acks) != 0 {
		t.Fatalf("expected only an error reply, got %d errs / %d acks", len(sink.errs), len(sink.acks))
	}
}

func TestSnapshotPriceOrdering(t *testing.T) {
	e, _ := newTestEngine()
	for i, p := range []domain.Price{48, 50, 49} {
		insert(e, fmt.Sprintf("b%d", i), domain.Buy, p, 1)
	}
	for i, p := range []domain.Price{53, 51, 52} {
		insert(e, fmt.Sprintf("a%d", i), domain.Sell, p, 1)
	}
	snap := e.Snapshot()
	for i := 1; i < len(snap.Bids); i++ {
		if snap.Bids[i-1].Price <= snap.Bids[i].Price {
			t.Fatalf("bid side not strictly decreasing: %+v", snap.Bids)
		}
	}
	for i := 1; i < len(snap.Asks); i++ {
		if snap.Asks[i-1].Price >= snap.Asks[i].Price {
			t.Fatalf("ask side not strictly increasing: %+v", snap.Asks)
		}
	}
}

func TestRandomOrderFlow(t *testing.T) {
	e, sink := newTestEngine()
	rng := rand.New(rand.NewSource(1))
	var resting []*domain.OrderInsert
	next := 0

	for step := 0; step < 4000; step++ {
		switch op := rng.Intn(10); {
		case op < 6 || len(resting) == 0:
			next++
			id := fmt.Sprintf("o-%d", next)
			side := domain.Buy
			if rng.Intn(2) == 0 {
				side = domain.Sell
			}
			price := domain.Price(rng.Intn(20) + 90)
			volume := domain.Volume(rng.Intn(50) + 1)
			o := &domain.OrderInsert{
				Account:       "acc-" + id,
				Instrument:    "BTCUSD",
				Price:         price,
				Volume:        volume,
				Type:          "LIMIT",
				Side:          side,
				Timestamp:     time.Unix(0, 0),
				ID:            id,
				ClientOrderID: "c-" + id,
			}
			e.OrderInsert("sess", o)
			resting = append(resting, o)
		case op < 8:
			i := rng.Intn(len(resting))
			o := resting[i]
			e.OrderCancel("sess", &domain.OrderCancel{
				Instrument:    o.Instrument,
				Price:         o.Price,
				Side:          o.Side,
				ID:            o.ID,
				ClientOrderID: o.ClientOrderID,
			})
			resting = append(resting[:i], resting[i+1:]...)
		default:
			i := rng.Intn(len(resting))
			o := resting[i]
			newPrice := domain.Price(rng.Intn(20) + 90)
			e.OrderAmend("sess", &domain.OrderAmend{
				OrderInsert: *o,
				NewPrice:    newPrice,
				NewVolume:   domain.Volume(rng.Intn(50) + 1),
			})
			o.Price = newPrice
		}

		checkNoCross(t, e)
		snap := e.Snapshot()
		for i := 1; i < len(snap.Bids); i++ {
			if snap.Bids[i-1].Price <= snap.Bids[i].Price {
				t.Fatalf("step %d: bids out of order: %d then %d", step, snap.Bids[i-1].Price, snap.Bids[i].Price)
			}
		}
		for i := 1; i < len(snap.Asks); i++ {
			if snap.Asks[i-1].Price >= snap.Asks[i].Price {
				t.Fatalf("step %d: asks out of order: %d then %d", step, snap.Asks[i-1].Price, snap.Asks[i].Price)
			}
		}
	}

	if len(sink.trades)%2 != 0 {
		t.Fatalf("trades must come in pairs, got %d", len(sink.trades))
	}
	for i := 0; i < len(sink.trades); i += 2 {
		a, b := sink.trades[i], sink.trades[i+1]
		if a.Volume != b.Volume || a.Price != b.Price {
			t.Fatalf("trade pair %d mismatched: %+v vs %+v", i/2, a, b)
		}
	}
}
