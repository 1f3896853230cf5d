// Package ledger holds the pure stock ledger arithmetic: running balances,
// partition summaries and financial year bucketing. Nothing here touches storage.
package ledger

import (
	"github.com/shopspring/decimal"
)

// Result is the output of ComputeRunningBalances.
type Result struct {
	Entries      []Entry
	ClosingStock decimal.Decimal
}

// ComputeRunningBalances replays entries, already ordered by date and insertion
// sequence, on top of openingStock and stamps each copy with its running balance.
//
// The input slice is not modified. On error no partial result is returned.
func ComputeRunningBalances(openingStock decimal.Decimal, entries []Entry) (*Result, error) {
	out := make([]Entry, len(entries))
	balance := openingStock

	for i, e := range entries {
		delta, err := signedDelta(i, e)
		if err != nil {
			return nil, err
		}
		balance = balance.Add(delta)
		e.RunningBalance = balance
		out[i] = e
	}

	return &Result{Entries: out, ClosingStock: balance}, nil
}
