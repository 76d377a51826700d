package analytics

import (
	"github.com/onnwee/livesight/internal/record"
)

// Quota bucket boundaries (RMB) over per-payer session totals and their
// chart labels. A payer belongs to the first bucket whose boundary its total
// does not exceed.
var (
	QuotaBounds = []float64{50, 500, 1000, 5000, 20000}
	QuotaLabels = []string{"0-50", "50-500", "500-1000", "1000-5000", "5000-20000", "20000+"}
)

// QuotaBuckets sums each payer's revenue across the session and counts
// payers per quota bucket.
func QuotaBuckets(entries []record.LedgerEntry) []int64 {
	perPayer := make(map[int64]float64)
	for _, e := range entries {
		perPayer[e.UserID] += e.Price
	}

	counts := make([]int64, len(QuotaBounds)+1)
	for _, total := range perPayer {
		placed := false
		for i, bound := range QuotaBounds {
			if total <= bound {
				counts[i]++
				placed = true
				break
			}
		}
		if !placed {
			counts[len(QuotaBounds)]++
		}
	}
	return counts
}

// TypeLabels are the revenue-kind chart labels, in the order returned by
// TypeTotals.
var TypeLabels = []string{"Gift", "Super Message", "Guard"}

// TypeTotals sums revenue per event kind.
func TypeTotals(gifts []record.Gift, supers []record.SuperMessage, guards []record.GuardPurchase) []float64 {
	totals := make([]float64, 3)
	for _, g := range gifts {
		totals[0] += g.Price
	}
	for _, s := range supers {
		totals[1] += s.Price
	}
	for _, g := range guards {
		totals[2] += g.Price
	}
	return totals
}
