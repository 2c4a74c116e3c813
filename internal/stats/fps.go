package stats

import (
	"math"

	"github.com/emiliopalmerini/framescope/internal/domain"
)

// Window keeps the rows whose CPUStartTime falls in w. Tables without
// CPUStartTime, and zero windows, pass through unchanged.
func Window(t *domain.Table, w domain.TimeWindow) *domain.Table {
	if w.IsZero() || !t.Has(ColCPUStartTime) {
		return t
	}
	ts := t.Floats(ColCPUStartTime)
	keep := make([]bool, t.Len())
	for i := range keep {
		keep[i] = i < len(ts) && w.Contains(ts[i])
	}
	return t.Filter(keep)
}

type FPSSummary struct {
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	P5      float64 `json:"p5"`
	P1      float64 `json:"p1"`
	P01     float64 `json:"p0_1"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

type FrameTimeSummary struct {
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	P95     float64 `json:"p95"`
	P99     float64 `json:"p99"`
	P999    float64 `json:"p99_9"`
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
}

// FPSStats summarizes frame rate and frame time over a capture.
// P1 is the "1% low" FPS; P99 is the "99th percentile" frame time.
type FPSStats struct {
	FrameCount      int              `json:"frame_count"`
	DurationSeconds float64          `json:"duration_seconds"`
	FPS             FPSSummary       `json:"fps"`
	FrameTimeMs     FrameTimeSummary `json:"frametime_ms"`
}

// FPS computes frame rate statistics for the rows inside w.
func FPS(t *domain.Table, w domain.TimeWindow) (*FPSStats, error) {
	t = Window(t, w)
	if !t.Has(ColFrameTime) || t.Len() == 0 {
		return nil, unavailable("No FrameTime data available")
	}
	ft := dropNA(t.Floats(ColFrameTime))
	if len(ft) == 0 {
		return nil, unavailable("All FrameTime values are NA")
	}

	fps := sorted(toFPS(ft))
	fts := sorted(ft)

	return &FPSStats{
		FrameCount:      len(ft),
		DurationSeconds: round(duration(t), 2),
		FPS: FPSSummary{
			Average: round(mean(fps), 1),
			Median:  round(median(fps), 1),
			P5:      round(percentileSorted(fps, 5), 1),
			P1:      round(percentileSorted(fps, 1), 1),
			P01:     round(percentileSorted(fps, 0.1), 1),
			Min:     round(fps[0], 1),
			Max:     round(fps[len(fps)-1], 1),
		},
		FrameTimeMs: FrameTimeSummary{
			Average: round(mean(fts), 2),
			Median:  round(median(fts), 2),
			P95:     round(percentileSorted(fts, 95), 2),
			P99:     round(percentileSorted(fts, 99), 2),
			P999:    round(percentileSorted(fts, 99.9), 2),
			Max:     round(fts[len(fts)-1], 2),
			Min:     round(fts[0], 2),
		},
	}, nil
}

// duration is the span between the first and last CPUStartTime, or 0.
func duration(t *domain.Table) float64 {
	ts := t.Floats(ColCPUStartTime)
	if len(ts) < 2 {
		return 0
	}
	d := ts[len(ts)-1] - ts[0]
	if math.IsNaN(d) {
		return 0
	}
	return d
}
