// Package render implements the plotting, word-cloud and text-segmentation
// collaborators used by the analytics pipeline to produce image artifacts.
package render

import (
	"fmt"
	"os"

	chart "github.com/wcharczuk/go-chart/v2"
)

// Charts renders line and pie chart PNG artifacts.
type Charts struct{}

// NewCharts creates a chart renderer.
func NewCharts() *Charts { return &Charts{} }

// Line renders ys against evenly indexed x positions labeled by xLabels and
// writes a PNG to path. len(xLabels) must equal len(ys) and be at least 2.
func (c *Charts) Line(path, title string, xLabels []string, ys []float64) error {
	if len(xLabels) != len(ys) {
		return fmt.Errorf("line chart %s: %d labels for %d values", path, len(xLabels), len(ys))
	}
	if len(ys) < 2 {
		return fmt.Errorf("line chart %s: need at least 2 points", path)
	}

	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	graph := chart.Chart{
		Title:  title,
		Width:  1080,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				f, ok := v.(float64)
				if !ok {
					return ""
				}
				i := int(f)
				if i < 0 || i >= len(xLabels) || float64(i) != f {
					return ""
				}
				return xLabels[i]
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{XValues: xs, YValues: ys},
		},
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("line chart %s: %w", path, err)
	}
	if err := graph.Render(chart.PNG, f); err != nil {
		f.Close()
		return fmt.Errorf("line chart %s: %w", path, err)
	}
	return f.Close()
}

// Pie renders a pie chart of values with labels and writes a PNG to path.
// Callers pass non-empty slices only; zero-valued slices should be filtered
// before rendering.
func (c *Charts) Pie(path, title string, labels []string, values []float64) error {
	if len(labels) != len(values) {
		return fmt.Errorf("pie chart %s: %d labels for %d values", path, len(labels), len(values))
	}
	if len(values) == 0 {
		return fmt.Errorf("pie chart %s: no values", path)
	}

	chartValues := make([]chart.Value, len(values))
	for i, v := range values {
		chartValues[i] = chart.Value{Value: v, Label: labels[i]}
	}
	pie := chart.PieChart{
		Title:  title,
		Width:  1024,
		Height: 1024,
		Values: chartValues,
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pie chart %s: %w", path, err)
	}
	if err := pie.Render(chart.PNG, f); err != nil {
		f.Close()
		return fmt.Errorf("pie chart %s: %w", path, err)
	}
	return f.Close()
}
