package feed

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"matchbook/internal/domain"
	"matchbook/internal/port"
)

// EventSink is the side-channel half of the reply fan-out: every trade is
// journaled, published to the event stream, and broadcast to live feed
// subscribers, regardless of which transport destination the match replied
// to. Acknowledgements and errors stay on the request path only.
//
// The engine invokes the sink with its lock held, so SendTrade only
// broadcasts and enqueues; the journal and publisher writes run on a
// dedicated goroutine. When the backlog is full the persistence copy of a
// trade is dropped and logged rather than stalling matching.
type EventSink struct {
	log       *log.Logger
	trades    *Hub[domain.Trade]
	books     *Hub[*domain.BookSnapshot]
	journal   port.Journal
	publisher port.Publisher
	timeout   time.Duration

	backlog chan domain.Trade
	drained chan struct{}
}

const backlogSize = 1024

func NewEventSink(logger *log.Logger, journal port.Journal, publisher port.Publisher) *EventSink {
	s := &EventSink{
		log:       logger,
		trades:    NewHub[domain.Trade](),
		books:     NewHub[*domain.BookSnapshot](),
		journal:   journal,
		publisher: publisher,
		timeout:   2 * time.Second,
		backlog:   make(chan domain.Trade, backlogSize),
		drained:   make(chan struct{}),
	}
	go s.drain()
	return s
}

// Close flushes the backlog and stops the persistence goroutine. SendTrade
// must not be called after Close.
func (s *EventSink) Close() {
	close(s.backlog)
	<-s.drained
}

func (s *EventSink) Trades() *Hub[domain.Trade]        { return s.trades }
func (s *EventSink) Books() *Hub[*domain.BookSnapshot] { return s.books }

func (s *EventSink) SendReply(dest string, r domain.OrderReply) {}

func (s *EventSink) SendError(dest string, e domain.ErrorReply) {}

func (s *EventSink) SendTrade(dest string, t domain.Trade) {
	s.trades.Broadcast(t)

	select {
	case s.backlog <- t:
	default:
		s.log.Printf("trade backlog full, dropping persistence of %s", t.TradeID)
	}
}

func (s *EventSink) SendBook(dest string, b *domain.BookSnapshot) {
	s.books.Broadcast(b)
}

func (s *EventSink) drain() {
	defer close(s.drained)
	for t := range s.backlog {
		s.persist(t)
	}
}

func (s *EventSink) persist(t domain.Trade) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if s.journal != nil {
		if err := s.journal.SaveTrade(ctx, &t); err != nil {
			s.log.Printf("journal trade %s: %v", t.TradeID, err)
		}
	}
	if s.publisher != nil {
		b, err := json.Marshal(t)
		if err != nil {
			s.log.Printf("encode trade %s: %v", t.TradeID, err)
			return
		}
		if err := s.publisher.Publish(ctx, []byte(t.Instrument), b); err != nil {
			s.log.Printf("publish trade %s: %v", t.TradeID, err)
		}
	}
}
