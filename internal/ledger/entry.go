package ledger

import (
	"github.com/shopspring/decimal"
)

// EntryType classifies a stock movement.
type EntryType string

const (
	Incoming   EntryType = "incoming"
	Outgoing   EntryType = "outgoing"
	Adjustment EntryType = "adjustment"
)

// Valid reports whether t is one of the recognized entry types.
func (t EntryType) Valid() bool {
	switch t {
	case Incoming, Outgoing, Adjustment:
		return true
	}
	return false
}

// Direction tells whether an adjustment raises or lowers the balance.
// It is ignored for incoming and outgoing entries.
type Direction string

const (
	DirectionAdd      Direction = "add"
	DirectionSubtract Direction = "subtract"
)

// Entry is one stock movement as seen by the accumulator.
// Quantity is always an unsigned magnitude; the sign comes from EntryType and Direction.
type Entry struct {
	EntryType      EntryType
	Direction      Direction
	Quantity       decimal.Decimal
	TotalValue     decimal.NullDecimal
	RunningBalance decimal.Decimal
}

// signedDelta returns the change in on-hand quantity caused by e.
// i is the position of e in its partition and only feeds error reporting.
func signedDelta(i int, e Entry) (decimal.Decimal, error) {
	if !e.EntryType.Valid() {
		return decimal.Zero, &UnknownEntryTypeError{Index: i, EntryType: e.EntryType}
	}
	if e.Quantity.IsNegative() {
		return decimal.Zero, &InvalidTransactionError{Index: i, Reason: "quantity must not be negative"}
	}

	switch e.EntryType {
	case Incoming:
		return e.Quantity, nil
	case Outgoing:
		return e.Quantity.Neg(), nil
	}

	switch e.Direction {
	case DirectionAdd:
		return e.Quantity, nil
	case DirectionSubtract:
		return e.Quantity.Neg(), nil
	default:
		return decimal.Zero, &InvalidTransactionError{
			Index:  i,
			Reason: "adjustment direction must be \"add\" or \"subtract\", got \"" + string(e.Direction) + "\"",
		}
	}
}

// value returns the valuation of e, treating a null total as zero.
func (e Entry) value() decimal.Decimal {
	if !e.TotalValue.Valid {
		return decimal.Zero
	}
	return e.TotalValue.Decimal
}
