package charts

import (
	"fmt"
	"math"
	"strings"

	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/stats"
)

// FPSHistogram plots the distribution of per-frame FPS with markers at the
// 1% low, the average and the median.
func FPSHistogram(t *domain.Table, bins int) (*Figure, error) {
	if !t.Has(stats.ColFrameTime) {
		return nil, chartError("Missing FrameTime column")
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	var fps Series
	for _, ft := range t.Floats(stats.ColFrameTime) {
		v := 1000.0 / ft
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			fps = append(fps, v)
		}
	}
	if len(fps) == 0 {
		return nil, chartError("No FrameTime data available")
	}

	fig := &Figure{Layout: baseLayout("FPS Distribution", "FPS", "Frame Count")}
	fig.Data = append(fig.Data, Trace{
		Type: "histogram", Name: "FPS Distribution",
		X: fps, NBinsX: bins,
		Marker:  &Marker{Color: accent[0]},
		Opacity: opacity(0.8),
	})

	var sum float64
	for _, v := range fps {
		sum += v
	}
	markers := []struct {
		label string
		value float64
		color string
	}{
		{"1% Low", stats.Percentile(fps, 1), accent[1]},
		{"Average", sum / float64(len(fps)), accent[2]},
		{"Median", stats.Percentile(fps, 50), accent[3]},
	}
	for _, m := range markers {
		fig.addVLine(m.value, m.color, fmt.Sprintf("%s: %.0f", m.label, m.value))
	}
	return fig, nil
}

// DefaultComparisonMetrics are the bars drawn for each capture.
var DefaultComparisonMetrics = []string{"avg_fps", "p1_fps", "avg_frametime_ms", "p99_frametime_ms"}

var comparisonMetrics = map[string]func(stats.FPSStats) float64{
	"avg_fps":          func(s stats.FPSStats) float64 { return s.FPS.Average },
	"median_fps":       func(s stats.FPSStats) float64 { return s.FPS.Median },
	"p1_fps":           func(s stats.FPSStats) float64 { return s.FPS.P1 },
	"p0_1_fps":         func(s stats.FPSStats) float64 { return s.FPS.P01 },
	"avg_frametime_ms": func(s stats.FPSStats) float64 { return s.FrameTimeMs.Average },
	"p95_frametime_ms": func(s stats.FPSStats) float64 { return s.FrameTimeMs.P95 },
	"p99_frametime_ms": func(s stats.FPSStats) float64 { return s.FrameTimeMs.P99 },
	"max_frametime_ms": func(s stats.FPSStats) float64 { return s.FrameTimeMs.Max },
	"duration_seconds": func(s stats.FPSStats) float64 { return s.DurationSeconds },
	"frame_count":      func(s stats.FPSStats) float64 { return float64(s.FrameCount) },
}

// ComparisonBars draws grouped bars, one group per metric and one bar per
// capture. Unknown metric names are skipped.
func ComparisonBars(report *stats.CompareReport, metrics []string) *Figure {
	if len(metrics) == 0 {
		metrics = DefaultComparisonMetrics
	}

	fig := &Figure{Layout: baseLayout("Performance Comparison", "", "")}
	fig.Layout.BarMode = "group"

	for i, f := range report.Files {
		var names []string
		var values Series
		for _, m := range metrics {
			get, ok := comparisonMetrics[m]
			if !ok {
				continue
			}
			names = append(names, metricTitle(m))
			values = append(values, get(f.FPSStats))
		}
		fig.Data = append(fig.Data, Trace{
			Type: "bar", Name: f.Label,
			X: names, Y: values,
			Marker: &Marker{Color: accent[i%len(accent)]},
		})
	}
	return fig
}

// metricTitle turns "avg_fps" into "Avg Fps".
func metricTitle(m string) string {
	words := strings.Fields(strings.ReplaceAll(m, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
