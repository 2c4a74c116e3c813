package stats

import "github.com/emiliopalmerini/framescope/internal/domain"

type LatencySummary struct {
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	P95     float64 `json:"p95"`
	P99     float64 `json:"p99"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

type LatencyReport struct {
	DisplayLatency      Metric[LatencySummary] `json:"display_latency_ms"`
	InstrumentedLatency Metric[LatencySummary] `json:"instrumented_latency_ms"`
	InputToPhoton       Metric[LatencySummary] `json:"input_to_photon_ms"`
	ClickToPhoton       Metric[LatencySummary] `json:"click_to_photon_ms"`
}

// Latency summarizes the display and input latency columns. Absent columns
// yield sentinels; the call itself never fails.
func Latency(t *domain.Table) *LatencyReport {
	return &LatencyReport{
		DisplayLatency:      latencySummary(t, "DisplayLatency"),
		InstrumentedLatency: latencySummary(t, "InstrumentedLatency"),
		InputToPhoton:       latencySummary(t, "AllInputToPhotonLatency"),
		ClickToPhoton:       latencySummary(t, "ClickToPhotonLatency"),
	}
}

func latencySummary(t *domain.Table, col string) Metric[LatencySummary] {
	vals, s := columnValues(t, col)
	if vals == nil {
		return sentinel[LatencySummary](s)
	}
	sv := sorted(vals)
	return available(LatencySummary{
		Average: round(mean(sv), 2),
		Median:  round(median(sv), 2),
		P95:     round(percentileSorted(sv, 95), 2),
		P99:     round(percentileSorted(sv, 99), 2),
		Min:     round(sv[0], 2),
		Max:     round(sv[len(sv)-1], 2),
	})
}
