package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizePartition(t *testing.T) {
	opening := Opening{Quantity: qty(100), Value: qty(1000)}
	entries := []Entry{
		{EntryType: Incoming, Quantity: qty(50), TotalValue: worth(600)},
		{EntryType: Outgoing, Quantity: qty(30), TotalValue: worth(330)},
		{EntryType: Outgoing, Quantity: qty(5)}, // no valuation
		{EntryType: Adjustment, Direction: DirectionSubtract, Quantity: qty(10), TotalValue: worth(100)},
		{EntryType: Adjustment, Direction: DirectionAdd, Quantity: qty(4), TotalValue: worth(40)},
	}

	s, err := SummarizePartition(opening, entries)
	require.NoError(t, err)

	assert.Equal(t, "100", s.OpeningStock.String())
	assert.Equal(t, "1000", s.OpeningValue.String())
	assert.Equal(t, "50", s.TotalIncoming.String())
	assert.Equal(t, "600", s.TotalIncomingValue.String())
	assert.Equal(t, "35", s.TotalOutgoing.String())
	assert.Equal(t, "330", s.TotalOutgoingValue.String())
	assert.Equal(t, "-6", s.TotalAdjustment.String())
	assert.Equal(t, "-60", s.TotalAdjustmentValue.String())
	assert.Equal(t, "109", s.ClosingStock.String())
	assert.Equal(t, "1210", s.ClosingValue.String())
}

func TestSummarizePartition_ClosingMatchesRunningBalance(t *testing.T) {
	opening := Opening{Quantity: qty(12), Value: decimal.Zero}
	entries := []Entry{
		{EntryType: Outgoing, Quantity: qty(2)},
		{EntryType: Incoming, Quantity: qty(9)},
		{EntryType: Adjustment, Direction: DirectionAdd, Quantity: qty(1)},
	}

	s, err := SummarizePartition(opening, entries)
	require.NoError(t, err)
	res, err := ComputeRunningBalances(opening.Quantity, entries)
	require.NoError(t, err)

	assert.True(t, s.ClosingStock.Equal(res.ClosingStock))
}

func TestSummarizePartition_Empty(t *testing.T) {
	s, err := SummarizePartition(Opening{Quantity: qty(3), Value: qty(30)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "3", s.ClosingStock.String())
	assert.Equal(t, "30", s.ClosingValue.String())
	assert.True(t, s.TotalIncoming.IsZero())
}

func TestSummarizePartition_RejectsUnknownEntryType(t *testing.T) {
	_, err := SummarizePartition(Opening{}, []Entry{{EntryType: "transfer", Quantity: qty(1)}})

	var target *UnknownEntryTypeError
	assert.ErrorAs(t, err, &target)
}
