package ledger

import (
	"github.com/shopspring/decimal"
)

// Opening is the carried-in position of a partition.
type Opening struct {
	Quantity decimal.Decimal `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
}

// Summary aggregates one (product, financial year) partition for reporting.
// Adjustment totals are net: additions minus subtractions.
type Summary struct {
	OpeningStock         decimal.Decimal `json:"opening_stock"`
	OpeningValue         decimal.Decimal `json:"opening_value"`
	TotalIncoming        decimal.Decimal `json:"total_incoming"`
	TotalIncomingValue   decimal.Decimal `json:"total_incoming_value"`
	TotalOutgoing        decimal.Decimal `json:"total_outgoing"`
	TotalOutgoingValue   decimal.Decimal `json:"total_outgoing_value"`
	TotalAdjustment      decimal.Decimal `json:"total_adjustment"`
	TotalAdjustmentValue decimal.Decimal `json:"total_adjustment_value"`
	ClosingStock         decimal.Decimal `json:"closing_stock"`
	ClosingValue         decimal.Decimal `json:"closing_value"`
}

// SummarizePartition totals quantities and values per entry type in a single pass.
// It rejects the same malformed entries ComputeRunningBalances does.
func SummarizePartition(opening Opening, entries []Entry) (*Summary, error) {
	s := &Summary{
		OpeningStock:         opening.Quantity,
		OpeningValue:         opening.Value,
		TotalIncoming:        decimal.Zero,
		TotalIncomingValue:   decimal.Zero,
		TotalOutgoing:        decimal.Zero,
		TotalOutgoingValue:   decimal.Zero,
		TotalAdjustment:      decimal.Zero,
		TotalAdjustmentValue: decimal.Zero,
	}

	for i, e := range entries {
		delta, err := signedDelta(i, e)
		if err != nil {
			return nil, err
		}
		switch e.EntryType {
		case Incoming:
			s.TotalIncoming = s.TotalIncoming.Add(e.Quantity)
			s.TotalIncomingValue = s.TotalIncomingValue.Add(e.value())
		case Outgoing:
			s.TotalOutgoing = s.TotalOutgoing.Add(e.Quantity)
			s.TotalOutgoingValue = s.TotalOutgoingValue.Add(e.value())
		case Adjustment:
			s.TotalAdjustment = s.TotalAdjustment.Add(delta)
			if e.Direction == DirectionSubtract {
				s.TotalAdjustmentValue = s.TotalAdjustmentValue.Sub(e.value())
			} else {
				s.TotalAdjustmentValue = s.TotalAdjustmentValue.Add(e.value())
			}
		}
	}

	s.ClosingStock = s.OpeningStock.
		Add(s.TotalIncoming).
		Sub(s.TotalOutgoing).
		Add(s.TotalAdjustment)
	s.ClosingValue = s.OpeningValue.
		Add(s.TotalIncomingValue).
		Sub(s.TotalOutgoingValue).
		Add(s.TotalAdjustmentValue)

	return s, nil
}
