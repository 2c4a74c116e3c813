package stats

import (
	"math"
	"sort"

	"github.com/emiliopalmerini/framescope/internal/domain"
)

const (
	DefaultStutterThreshold = 2.0
	StutterWindow           = 60
	minStutterFrames        = 10
	worstStutterCount       = 10
)

// Stutter is a single frame that took much longer than its neighbours.
type Stutter struct {
	FrameIndex int      `json:"frame_index"`
	FrameTime  float64  `json:"frametime_ms"`
	Expected   float64  `json:"expected_ms"`
	Severity   float64  `json:"severity_multiplier"`
	TimeSec    *float64 `json:"time_sec,omitempty"`
}

type StutterReport struct {
	TotalFrames         int       `json:"total_frames"`
	StutterCount        int       `json:"stutter_count"`
	StutterPercentage   float64   `json:"stutter_percentage"`
	ThresholdMultiplier float64   `json:"threshold_multiplier"`
	AvgFrameTimeMs      float64   `json:"avg_frametime_ms"`
	WorstStutters       []Stutter `json:"worst_stutters"`
}

// Stutters flags frames whose duration exceeds threshold times the trailing
// 60-frame mean.
func Stutters(t *domain.Table, threshold float64, w domain.TimeWindow) (*StutterReport, error) {
	if threshold <= 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return nil, invalid("threshold_multiplier must be positive")
	}
	t = Window(t, w)
	if !t.Has(ColFrameTime) {
		return nil, unavailable("No FrameTime data available")
	}
	ft := dropNA(t.Floats(ColFrameTime))
	if len(ft) < minStutterFrames {
		return nil, insufficient("Not enough frames for stutter analysis")
	}

	baseline := RollingMean(ft, StutterWindow)
	var flagged []int
	for i, v := range ft {
		if v > baseline[i]*threshold {
			flagged = append(flagged, i)
		}
	}

	sort.SliceStable(flagged, func(a, b int) bool {
		return ft[flagged[a]] > ft[flagged[b]]
	})

	var timestamps []float64
	if t.Has(ColCPUStartTime) {
		timestamps = dropNA(t.Floats(ColCPUStartTime))
	}

	worst := make([]Stutter, 0, min(len(flagged), worstStutterCount))
	for _, i := range flagged[:min(len(flagged), worstStutterCount)] {
		s := Stutter{
			FrameIndex: i,
			FrameTime:  round(ft[i], 2),
			Expected:   round(baseline[i], 2),
			Severity:   round(ft[i]/baseline[i], 2),
		}
		if i < len(timestamps) {
			ts := round(timestamps[i], 2)
			s.TimeSec = &ts
		}
		worst = append(worst, s)
	}

	return &StutterReport{
		TotalFrames:         len(ft),
		StutterCount:        len(flagged),
		StutterPercentage:   round(float64(len(flagged))/float64(len(ft))*100, 2),
		ThresholdMultiplier: threshold,
		AvgFrameTimeMs:      round(mean(ft), 2),
		WorstStutters:       worst,
	}, nil
}
