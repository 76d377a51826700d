package analytics

import (
	"github.com/onnwee/livesight/internal/record"
)

// mergeTwo merges two time-sorted ledger projections into one, preserving
// the relative order of equal timestamps (left before right).
func mergeTwo(a, b []record.LedgerEntry) []record.LedgerEntry {
	out := make([]record.LedgerEntry, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Time <= b[j].Time {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// MergeRevenue merges the three independently time-sorted revenue tables
// into one globally time-sorted ledger projection: gifts with super messages
// first, then guard purchases into the result. The merge is a consistency
// cross-check against the directly appended ledger file, not the source of
// truth.
func MergeRevenue(gifts []record.Gift, supers []record.SuperMessage, guards []record.GuardPurchase) []record.LedgerEntry {
	ga := make([]record.LedgerEntry, len(gifts))
	for i, g := range gifts {
		ga[i] = record.Ledger(g)
	}
	sa := make([]record.LedgerEntry, len(supers))
	for i, s := range supers {
		sa[i] = record.Ledger(s)
	}
	gu := make([]record.LedgerEntry, len(guards))
	for i, g := range guards {
		gu[i] = record.Ledger(g)
	}
	return mergeTwo(mergeTwo(ga, sa), gu)
}

// TotalPrice sums the prices of a ledger projection.
func TotalPrice(entries []record.LedgerEntry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Price
	}
	return total
}
