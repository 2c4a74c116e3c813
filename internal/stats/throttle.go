package stats

import (
	"encoding/json"

	"github.com/emiliopalmerini/framescope/internal/domain"
)

// ThrottleFlags maps GPU limit-reason columns to display labels, in report order.
var ThrottleFlags = []struct {
	Column string
	Label  string
}{
	{"GPUPowerLimited", "Power Limited"},
	{"GPUTemperatureLimited", "Temperature Limited"},
	{"GPUCurrentLimited", "Current Limited"},
	{"GPUVoltageLimited", "Voltage Limited"},
	{"GPUUtilizationLimited", "Utilization Limited"},
	{"GPUMemoryPowerLimited", "Memory Power Limited"},
	{"GPUMemoryTemperatureLimited", "Memory Temperature Limited"},
	{"GPUMemoryCurrentLimited", "Memory Current Limited"},
	{"GPUMemoryVoltageLimited", "Memory Voltage Limited"},
	{"GPUMemoryUtilizationLimited", "Memory Utilization Limited"},
}

type ThrottleStat struct {
	Label           string  `json:"-"`
	ThrottledFrames int     `json:"throttled_frames"`
	TotalFrames     int     `json:"total_frames"`
	Percentage      float64 `json:"percentage"`
}

// ThrottleReport lists one entry per limit flag that has data.
// It encodes as a flat object keyed by label plus "any_throttling_detected".
type ThrottleReport struct {
	Flags                 []ThrottleStat
	AnyThrottlingDetected bool
}

func (r *ThrottleReport) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Flags)+1)
	for _, f := range r.Flags {
		out[f.Label] = f
	}
	out["any_throttling_detected"] = r.AnyThrottlingDetected
	return json.Marshal(out)
}

// Throttling counts frames where each GPU limit flag equals 1.
func Throttling(t *domain.Table) *ThrottleReport {
	r := &ThrottleReport{Flags: []ThrottleStat{}}
	for _, f := range ThrottleFlags {
		vals, _ := columnValues(t, f.Column)
		if vals == nil {
			continue
		}
		var throttled int
		for _, v := range vals {
			if v == 1 {
				throttled++
			}
		}
		r.Flags = append(r.Flags, ThrottleStat{
			Label:           f.Label,
			ThrottledFrames: throttled,
			TotalFrames:     len(vals),
			Percentage:      round(float64(throttled)/float64(len(vals))*100, 1),
		})
		if throttled > 0 {
			r.AnyThrottlingDetected = true
		}
	}
	return r
}
