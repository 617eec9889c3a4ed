package domain

import "github.com/shopspring/decimal"

// Prices and volumes are fixed-point unsigned integers in micro-units.
// One human-readable unit equals UnitScale micro-units. Integer arithmetic
// keeps price equality and matching predicates exact.
const UnitScale = 1_000_000

// Price is a limit price in micro-units.
type Price uint64

// Volume is an order quantity in micro-units.
type Volume uint64

// Decimal converts a micro-unit price to its human-readable decimal value.
func (p Price) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -6)
}

func (v Volume) Decimal() decimal.Decimal {
	return decimal.New(int64(v), -6)
}
