// Package analytics implements the post-session batch computations: windowed
// frequency statistics, marked-message down-selection, audience-curve
// resampling, the chronological revenue merge, and revenue breakdowns.
package analytics

import (
	"gonum.org/v1/gonum/interp"
)

// Window is one run-length frequency bucket: Count records beginning at
// Start, all within the window length of Start.
type Window struct {
	Start int64
	Count int64
}

// WindowFrequency buckets a chronologically sorted sequence of timestamps
// into run-length windows of the given length in seconds. The first record
// seeds the first window; a record past the window boundary closes the
// current window and seeds the next at its own timestamp, so boundaries
// drift with the data rather than following a fixed grid. The final open
// window is always emitted.
func WindowFrequency(times []int64, windowSec int64) []Window {
	if len(times) == 0 {
		return nil
	}
	var out []Window
	start := times[0]
	count := int64(1)
	for _, t := range times[1:] {
		if t <= start+windowSec {
			count++
			continue
		}
		out = append(out, Window{Start: start, Count: count})
		start = t
		count = 1
	}
	return append(out, Window{Start: start, Count: count})
}

// PriceWindow is one run-length revenue bucket: the summed price of the
// revenue events beginning at Start.
type PriceWindow struct {
	Start int64
	Total float64
}

// WindowSum buckets chronologically sorted (time, price) pairs with the same
// run-length rule as WindowFrequency, summing prices instead of counting.
func WindowSum(times []int64, prices []float64, windowSec int64) []PriceWindow {
	if len(times) == 0 {
		return nil
	}
	var out []PriceWindow
	start := times[0]
	total := prices[0]
	for i, t := range times[1:] {
		if t <= start+windowSec {
			total += prices[i+1]
			continue
		}
		out = append(out, PriceWindow{Start: start, Total: total})
		start = t
		total = prices[i+1]
	}
	return append(out, PriceWindow{Start: start, Total: total})
}

// SmoothThreshold is the minimum number of windows required before a
// smoothed curve is produced.
const SmoothThreshold = 30

// SmoothPoints is the fixed size of the smoothed curve.
const SmoothPoints = 500

// Smooth resamples (xs, ys) onto SmoothPoints evenly spaced abscissae over
// [xs[0], xs[len-1]] using a monotone cubic spline, so the smoothed curve
// never overshoots the data. xs must be strictly increasing.
func Smooth(xs, ys []float64) ([]float64, []float64, error) {
	var spline interp.FritschButland
	if err := spline.Fit(xs, ys); err != nil {
		return nil, nil, err
	}
	lo, hi := xs[0], xs[len(xs)-1]
	outX := make([]float64, SmoothPoints)
	outY := make([]float64, SmoothPoints)
	step := (hi - lo) / float64(SmoothPoints-1)
	for i := range outX {
		x := lo + float64(i)*step
		outX[i] = x
		outY[i] = spline.Predict(x)
	}
	return outX, outY, nil
}
