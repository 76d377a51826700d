package analytics

import (
	"testing"

	"github.com/onnwee/livesight/internal/record"
)

func TestResampleNearest(t *testing.T) {
	tests := []struct {
		name      string
		samples   []record.Sample
		windowSec int64
		want      []record.Sample
	}{
		{
			name:      "empty input",
			samples:   nil,
			windowSec: 60,
			want:      nil,
		},
		{
			name:      "first sample kept verbatim",
			samples:   []record.Sample{{Time: 17, Value: 5}},
			windowSec: 60,
			want:      []record.Sample{{Time: 17, Value: 5}},
		},
		{
			name: "emitted point carries the boundary time",
			samples: []record.Sample{
				{Time: 0, Value: 1},
				{Time: 30, Value: 2},
				{Time: 65, Value: 3},
			},
			windowSec: 60,
			// At boundary 60 the left neighbor (30) is 30 away, the right
			// (65) is 5 away, so the right value wins.
			want: []record.Sample{{Time: 0, Value: 1}, {Time: 60, Value: 3}},
		},
		{
			name: "left neighbor closer to the boundary",
			samples: []record.Sample{
				{Time: 0, Value: 1},
				{Time: 55, Value: 2},
				{Time: 80, Value: 3},
			},
			windowSec: 60,
			want:      []record.Sample{{Time: 0, Value: 1}, {Time: 60, Value: 2}},
		},
		{
			name: "equidistant neighbors take the later sample",
			samples: []record.Sample{
				{Time: 0, Value: 1},
				{Time: 50, Value: 2},
				{Time: 70, Value: 3},
			},
			windowSec: 60,
			want:      []record.Sample{{Time: 0, Value: 1}, {Time: 60, Value: 3}},
		},
		{
			name: "sparse gap advances one window per emit",
			samples: []record.Sample{
				{Time: 0, Value: 1},
				{Time: 500, Value: 2},
				{Time: 510, Value: 3},
			},
			windowSec: 60,
			// After emitting at boundary 60, the next boundary is 120, not
			// 560: a sample far past it still crosses and emits there. At
			// boundary 60 the sample at 0 is nearer than the one at 500; at
			// boundary 120 the sample at 500 is nearer than the one at 510.
			want: []record.Sample{
				{Time: 0, Value: 1},
				{Time: 60, Value: 1},
				{Time: 120, Value: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResampleNearest(tt.samples, tt.windowSec)
			if len(got) != len(tt.want) {
				t.Fatalf("ResampleNearest() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("point %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestResampleNearest_PointBound(t *testing.T) {
	samples := make([]record.Sample, 200)
	for i := range samples {
		samples[i] = record.Sample{Time: int64(i * 7), Value: int64(i)}
	}
	got := ResampleNearest(samples, 60)
	if len(got) > len(samples) {
		t.Errorf("resampling produced %d points from %d samples", len(got), len(samples))
	}
	if got[0] != samples[0] {
		t.Errorf("first point = %+v, want %+v", got[0], samples[0])
	}
}
