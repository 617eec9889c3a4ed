package dto

import (
	"time"

	"matchbook/internal/domain"
)

// Outbound wire shapes. Prices and volumes stay in fixed-point micro-units;
// the *Display fields carry the human-readable decimal rendering.

type Ack struct {
	ID            string `json:"id"`
	ClientOrderID string `json:"clientId"`
}

type Trade struct {
	TradeID       string    `json:"tradeId"`
	Account       string    `json:"account"`
	Instrument    string    `json:"instrument"`
	TradedPrice   uint64    `json:"tradedPrice"`
	TradedVolume  uint64    `json:"tradedVolume"`
	PriceDisplay  string    `json:"priceDisplay"`
	VolumeDisplay string    `json:"volumeDisplay"`
	ID            string    `json:"id"`
	ClientOrderID string    `json:"clientId"`
	Timestamp     time.Time `json:"timestamp"`
}

type Error struct {
	ClientOrderID string `json:"clientId"`
	Message       string `json:"message"`
}

type BookOrder struct {
	ID            string `json:"id"`
	ClientOrderID string `json:"clientId"`
	Account       string `json:"account"`
	Price         uint64 `json:"price"`
	Volume        uint64 `json:"volume"`
}

type BookLevel struct {
	Price         uint64      `json:"price"`
	Volume        uint64      `json:"volume"`
	PriceDisplay  string      `json:"priceDisplay"`
	VolumeDisplay string      `json:"volumeDisplay"`
	Orders        []BookOrder `json:"orders"`
}

type Book struct {
	Instrument string      `json:"instrument"`
	Bids       []BookLevel `json:"bids"`
	Asks       []BookLevel `json:"asks"`
	Timestamp  time.Time   `json:"timestamp"`
}

// RequestResponse collects everything a single request produced: exactly
// one acknowledgement per accepted mutation, two trades per match event,
// and any error replies.
type RequestResponse struct {
	Acks   []Ack   `json:"acks,omitempty"`
	Trades []Trade `json:"trades,omitempty"`
	Errors []Error `json:"errors,omitempty"`
	Book   *Book   `json:"book,omitempty"`
}

func FromReply(r domain.OrderReply) Ack {
	return Ack{ID: r.ID, ClientOrderID: r.ClientOrderID}
}

func FromTrade(t domain.Trade) Trade {
	return Trade{
		TradeID:       t.TradeID,
		Account:       t.Account,
		Instrument:    t.Instrument,
		TradedPrice:   uint64(t.Price),
		TradedVolume:  uint64(t.Volume),
		PriceDisplay:  t.Price.Decimal().String(),
		VolumeDisplay: t.Volume.Decimal().String(),
		ID:            t.ID,
		ClientOrderID: t.ClientOrderID,
		Timestamp:     t.Timestamp,
	}
}

func FromError(e domain.ErrorReply) Error {
	return Error{ClientOrderID: e.ClientOrderID, Message: e.Message}
}

func FromBook(s *domain.BookSnapshot) *Book {
	return &Book{
		Instrument: s.Instrument,
		Bids:       fromLevels(s.Bids),
		Asks:       fromLevels(s.Asks),
		Timestamp:  s.Timestamp,
	}
}

func fromLevels(levels []domain.BookLevel) []BookLevel {
	out := make([]BookLevel, len(levels))
	for i, lvl := range levels {
		bl := BookLevel{
			Price:         uint64(lvl.Price),
			Volume:        uint64(lvl.Volume),
			PriceDisplay:  lvl.Price.Decimal().String(),
			VolumeDisplay: lvl.Volume.Decimal().String(),
			Orders:        make([]BookOrder, len(lvl.Orders)),
		}
		for k, o := range lvl.Orders {
			bl.Orders[k] = BookOrder{
				ID:            o.ID,
				ClientOrderID: o.ClientOrderID,
				Account:       o.Account,
				Price:         uint64(o.Price),
				Volume:        uint64(o.Volume),
			}
		}
		out[i] = bl
	}
	return out
}
