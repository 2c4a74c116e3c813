package stats

import (
	"math"

	"github.com/emiliopalmerini/framescope/internal/domain"
)

const (
	DefaultSegmentSeconds = 10.0
	maxSegments           = 100_000
)

type Segment struct {
	StartSec       float64 `json:"start_sec"`
	EndSec         float64 `json:"end_sec"`
	FrameCount     int     `json:"frame_count"`
	AvgFPS         float64 `json:"avg_fps"`
	MinFPS         float64 `json:"min_fps"`
	AvgFrameTimeMs float64 `json:"avg_frametime_ms"`
	MaxFrameTimeMs float64 `json:"max_frametime_ms"`
}

type SegmentReport struct {
	SegmentSeconds float64   `json:"segment_seconds"`
	SegmentCount   int       `json:"segment_count"`
	Segments       []Segment `json:"segments"`
}

// Segments splits the capture into consecutive [start, start+seconds) buckets
// from the first to the last CPUStartTime. Buckets without frame times are omitted.
func Segments(t *domain.Table, seconds float64) (*SegmentReport, error) {
	if !t.Has(ColCPUStartTime) || !t.Has(ColFrameTime) {
		return nil, unavailable("Missing CPUStartTime or FrameTime columns")
	}
	if seconds <= 0 || math.IsNaN(seconds) {
		return nil, invalid("segment_seconds must be positive")
	}

	r := &SegmentReport{SegmentSeconds: seconds, Segments: []Segment{}}
	ts := t.Floats(ColCPUStartTime)
	ft := t.Floats(ColFrameTime)
	if len(ts) == 0 {
		return r, nil
	}
	start, end := ts[0], ts[len(ts)-1]
	if math.IsNaN(start) || math.IsNaN(end) {
		return nil, unavailable("CPUStartTime has missing first or last value")
	}
	if (end-start)/seconds > maxSegments {
		return nil, invalid("segment_seconds too small: more than %d segments", maxSegments)
	}

	// CPUStartTime is non-decreasing, so one cursor walks the rows once.
	var frames []float64
	row := 0
	for cur := start; cur < end; cur += seconds {
		segEnd := cur + seconds
		frames = frames[:0]
		for ; row < len(ts); row++ {
			v := ts[row]
			if math.IsNaN(v) {
				continue
			}
			if v >= segEnd {
				break
			}
			if v >= cur && row < len(ft) && !math.IsNaN(ft[row]) {
				frames = append(frames, ft[row])
			}
		}
		if len(frames) == 0 {
			continue
		}
		_, hi := minMax(frames)
		r.Segments = append(r.Segments, Segment{
			StartSec:       round(cur, 1),
			EndSec:         round(segEnd, 1),
			FrameCount:     len(frames),
			AvgFPS:         round(mean(toFPS(frames)), 1),
			MinFPS:         round(1000/hi, 1),
			AvgFrameTimeMs: round(mean(frames), 2),
			MaxFrameTimeMs: round(hi, 2),
		})
	}
	r.SegmentCount = len(r.Segments)
	return r, nil
}
