package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func worth(v int64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromInt(v), Valid: true}
}

func balances(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.RunningBalance.String()
	}
	return out
}

func TestComputeRunningBalances(t *testing.T) {
	tests := []struct {
		name        string
		opening     int64
		entries     []Entry
		wantBalance []string
		wantClosing string
	}{
		{
			name:    "incoming outgoing and subtracting adjustment",
			opening: 100,
			entries: []Entry{
				{EntryType: Incoming, Quantity: qty(50)},
				{EntryType: Outgoing, Quantity: qty(30)},
				{EntryType: Adjustment, Direction: DirectionSubtract, Quantity: qty(10)},
			},
			wantBalance: []string{"150", "120", "110"},
			wantClosing: "110",
		},
		{
			name:        "empty partition keeps opening",
			opening:     42,
			entries:     []Entry{},
			wantBalance: []string{},
			wantClosing: "42",
		},
		{
			name:    "negative opening carried from oversold year",
			opening: -5,
			entries: []Entry{
				{EntryType: Incoming, Quantity: qty(8)},
				{EntryType: Adjustment, Direction: DirectionAdd, Quantity: qty(2)},
			},
			wantBalance: []string{"3", "5"},
			wantClosing: "5",
		},
		{
			name:    "zero quantity leaves balance untouched",
			opening: 10,
			entries: []Entry{
				{EntryType: Outgoing, Quantity: qty(0)},
			},
			wantBalance: []string{"10"},
			wantClosing: "10",
		},
		{
			name:    "fractional quantities",
			opening: 0,
			entries: []Entry{
				{EntryType: Incoming, Quantity: decimal.RequireFromString("2.5")},
				{EntryType: Outgoing, Quantity: decimal.RequireFromString("0.75")},
			},
			wantBalance: []string{"2.5", "1.75"},
			wantClosing: "1.75",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ComputeRunningBalances(qty(tt.opening), tt.entries)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBalance, balances(res.Entries))
			assert.Equal(t, tt.wantClosing, res.ClosingStock.String())
		})
	}
}

func TestComputeRunningBalances_LastBalanceEqualsOpeningPlusDeltas(t *testing.T) {
	entries := []Entry{
		{EntryType: Incoming, Quantity: qty(7)},
		{EntryType: Outgoing, Quantity: qty(3)},
		{EntryType: Adjustment, Direction: DirectionAdd, Quantity: qty(11)},
		{EntryType: Outgoing, Quantity: qty(20)},
		{EntryType: Adjustment, Direction: DirectionSubtract, Quantity: qty(1)},
	}
	opening := qty(9)

	res, err := ComputeRunningBalances(opening, entries)
	require.NoError(t, err)

	sum := opening
	for i, e := range entries {
		d, err := signedDelta(i, e)
		require.NoError(t, err)
		sum = sum.Add(d)
	}
	last := res.Entries[len(res.Entries)-1].RunningBalance
	assert.True(t, sum.Equal(last), "want %s, got %s", sum, last)
	assert.True(t, sum.Equal(res.ClosingStock))
}

func TestComputeRunningBalances_SwappingTiedEntriesOnlyAffectsThem(t *testing.T) {
	a := Entry{EntryType: Incoming, Quantity: qty(5)}
	b := Entry{EntryType: Outgoing, Quantity: qty(2)}
	head := Entry{EntryType: Incoming, Quantity: qty(10)}
	tail := Entry{EntryType: Outgoing, Quantity: qty(4)}

	first, err := ComputeRunningBalances(qty(0), []Entry{head, a, b, tail})
	require.NoError(t, err)
	second, err := ComputeRunningBalances(qty(0), []Entry{head, b, a, tail})
	require.NoError(t, err)

	assert.Equal(t, []string{"10", "15", "13", "9"}, balances(first.Entries))
	assert.Equal(t, []string{"10", "8", "13", "9"}, balances(second.Entries))
	assert.True(t, first.ClosingStock.Equal(second.ClosingStock))
}

func TestComputeRunningBalances_IsPure(t *testing.T) {
	entries := []Entry{
		{EntryType: Incoming, Quantity: qty(3), RunningBalance: qty(999)},
		{EntryType: Outgoing, Quantity: qty(1)},
	}

	first, err := ComputeRunningBalances(qty(1), entries)
	require.NoError(t, err)
	second, err := ComputeRunningBalances(qty(1), entries)
	require.NoError(t, err)

	assert.Equal(t, balances(first.Entries), balances(second.Entries))
	assert.True(t, first.ClosingStock.Equal(second.ClosingStock))
	assert.Equal(t, "999", entries[0].RunningBalance.String(), "input must not be mutated")
}

func TestComputeRunningBalances_Errors(t *testing.T) {
	t.Run("unknown entry type", func(t *testing.T) {
		res, err := ComputeRunningBalances(qty(0), []Entry{
			{EntryType: Incoming, Quantity: qty(1)},
			{EntryType: "unknown", Quantity: qty(1)},
		})
		assert.Nil(t, res)

		var target *UnknownEntryTypeError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, 1, target.Index)
		assert.Equal(t, EntryType("unknown"), target.EntryType)
	})

	t.Run("negative quantity", func(t *testing.T) {
		res, err := ComputeRunningBalances(qty(0), []Entry{
			{EntryType: Outgoing, Quantity: qty(-3)},
		})
		assert.Nil(t, res)

		var target *InvalidTransactionError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, 0, target.Index)
	})

	t.Run("adjustment without direction", func(t *testing.T) {
		res, err := ComputeRunningBalances(qty(0), []Entry{
			{EntryType: Adjustment, Quantity: qty(3)},
		})
		assert.Nil(t, res)

		var target *InvalidTransactionError
		require.ErrorAs(t, err, &target)
		assert.Contains(t, target.Error(), "direction")
	})
}
