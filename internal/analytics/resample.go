package analytics

import (
	"github.com/onnwee/livesight/internal/record"
)

// ResampleNearest subsamples a chronologically sorted series onto fixed
// boundaries every windowSec seconds after the first sample. The first
// sample is always kept verbatim. When the series crosses a boundary, the
// emitted point carries the boundary as its time and the value of whichever
// neighboring sample (the one just before the crossing or the one at/after
// it) lies closer in time to the boundary; ties take the later sample.
//
// The boundary advances by exactly one window per emitted point even when
// the data is sparse: after a large gap the next comparisons stay anchored
// to the previous boundary plus one window, not to the gap's far side.
func ResampleNearest(samples []record.Sample, windowSec int64) []record.Sample {
	if len(samples) == 0 {
		return nil
	}
	out := []record.Sample{samples[0]}
	flag := samples[0].Time
	for i := 1; i < len(samples); i++ {
		boundary := flag + windowSec
		if samples[i].Time < boundary {
			continue
		}
		left := boundary - samples[i-1].Time
		if left < 0 {
			left = -left
		}
		right := samples[i].Time - boundary
		if right < 0 {
			right = -right
		}
		value := samples[i].Value
		if left < right {
			value = samples[i-1].Value
		}
		out = append(out, record.Sample{Time: boundary, Value: value})
		flag = boundary
	}
	return out
}
