package domain

import "time"

// OrderReply acknowledges an accepted insert, amend or cancel.
type OrderReply struct {
	ID            string
	ClientOrderID string
}

// Trade reports one counterparty's fill. Every match produces exactly two
// Trade records, one per side, with identical price and volume.
type Trade struct {
	TradeID       string
	Account       string
	Instrument    string
	Price         Price
	Volume        Volume
	ID            string
	ClientOrderID string
	Timestamp     time.Time
}

// ErrorReply reports a rejected request back to the submitter. It never
// accompanies a book mutation.
type ErrorReply struct {
	ClientOrderID string
	Message       string
}
