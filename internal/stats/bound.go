package stats

import (
	"fmt"
	"math"

	"github.com/emiliopalmerini/framescope/internal/domain"
)

const (
	CPUBound = "CPU-bound"
	GPUBound = "GPU-bound"
)

type BoundReport struct {
	OverallBottleneck  string   `json:"overall_bottleneck"`
	CPUBoundFrames     int      `json:"cpu_bound_frames"`
	GPUBoundFrames     int      `json:"gpu_bound_frames"`
	CPUBoundPercentage float64  `json:"cpu_bound_percentage"`
	GPUBoundPercentage float64  `json:"gpu_bound_percentage"`
	AvgCPUBusyMs       float64  `json:"avg_cpu_busy_ms"`
	AvgGPUBusyMs       float64  `json:"avg_gpu_busy_ms"`
	AvgCPUWaitMs       *float64 `json:"avg_cpu_wait_ms,omitempty"`
	AvgGPUWaitMs       *float64 `json:"avg_gpu_wait_ms,omitempty"`
}

// Bound classifies each frame as CPU-bound (CPUBusy >= GPUBusy) or GPU-bound.
// The busy series are paired positionally after dropping missing values and
// truncated to the shorter one.
func Bound(t *domain.Table) (*BoundReport, error) {
	if !t.Has(ColCPUBusy) || !t.Has(ColGPUBusy) {
		return nil, missingColumns(t, ColCPUBusy, ColGPUBusy)
	}
	cpu := dropNA(t.Floats(ColCPUBusy))
	gpu := dropNA(t.Floats(ColGPUBusy))
	cpu, gpu = truncate(cpu, gpu)
	if len(cpu) == 0 {
		return nil, unavailable("No CPUBusy/GPUBusy data available")
	}

	var cpuCount int
	for i := range cpu {
		if cpu[i] >= gpu[i] {
			cpuCount++
		}
	}
	n := len(cpu)
	gpuCount := n - cpuCount
	cpuPct := round(float64(cpuCount)/float64(n)*100, 1)

	overall := GPUBound
	if cpuCount > gpuCount {
		overall = CPUBound
	}

	r := &BoundReport{
		OverallBottleneck:  overall,
		CPUBoundFrames:     cpuCount,
		GPUBoundFrames:     gpuCount,
		CPUBoundPercentage: cpuPct,
		GPUBoundPercentage: round(100-cpuPct, 1),
		AvgCPUBusyMs:       round(mean(cpu), 2),
		AvgGPUBusyMs:       round(mean(gpu), 2),
	}
	r.AvgCPUWaitMs = meanOf(t, ColCPUWait, 2)
	r.AvgGPUWaitMs = meanOf(t, ColGPUWait, 2)
	return r, nil
}

// meanOf returns the rounded mean of a column, or nil when it has no data.
func meanOf(t *domain.Table, col string, places int) *float64 {
	vals, _ := columnValues(t, col)
	if len(vals) == 0 {
		return nil
	}
	m := round(mean(vals), places)
	return &m
}

type BusySummary struct {
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	P5      float64 `json:"p5"`
	P95     float64 `json:"p95"`
	P99     float64 `json:"p99"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	StdDev  float64 `json:"std_dev"`
}

type WaitSummary struct {
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	P95     float64 `json:"p95"`
	Max     float64 `json:"max"`
}

type BottleneckSummary struct {
	Overall             string  `json:"overall"`
	CPUBoundPercentage  float64 `json:"cpu_bound_percentage"`
	GPUBoundPercentage  float64 `json:"gpu_bound_percentage"`
	AvgCPUMinusGPUMs    float64 `json:"avg_cpu_minus_gpu_ms"`
	Interpretation      string  `json:"interpretation"`
	TotalFramesAnalyzed int     `json:"total_frames_analyzed"`
}

type FrameOverhead struct {
	Average     float64 `json:"average"`
	Description string  `json:"description"`
}

const frameOverheadDescription = "Average time per frame not spent in CPU/GPU work (driver overhead, vsync wait, etc.)"

type BusyReport struct {
	CPUBusy    Metric[BusySummary] `json:"cpu_busy_ms"`
	GPUBusy    Metric[BusySummary] `json:"gpu_busy_ms"`
	CPUWait    *WaitSummary        `json:"cpu_wait_ms,omitempty"`
	GPUWait    *WaitSummary        `json:"gpu_wait_ms,omitempty"`
	Bottleneck *BottleneckSummary  `json:"bottleneck_summary,omitempty"`
	Overhead   *FrameOverhead      `json:"frame_overhead_ms,omitempty"`
}

// Busy reports detailed CPU/GPU busy and wait timings inside w, plus a
// bottleneck summary and the per-frame time spent outside CPU/GPU work.
func Busy(t *domain.Table, w domain.TimeWindow) (*BusyReport, error) {
	t = Window(t, w)
	if !t.Has(ColCPUBusy) && !t.Has(ColGPUBusy) {
		return nil, missingColumns(t, ColCPUBusy, ColGPUBusy)
	}

	r := &BusyReport{
		CPUBusy: busySummary(t, ColCPUBusy),
		GPUBusy: busySummary(t, ColGPUBusy),
		CPUWait: waitSummary(t, ColCPUWait),
		GPUWait: waitSummary(t, ColGPUWait),
	}

	if !t.Has(ColCPUBusy) || !t.Has(ColGPUBusy) {
		return r, nil
	}
	cpu := dropNA(t.Floats(ColCPUBusy))
	gpu := dropNA(t.Floats(ColGPUBusy))
	cpu, gpu = truncate(cpu, gpu)
	if len(cpu) > 0 {
		r.Bottleneck = bottleneck(cpu, gpu)
	}

	if t.Has(ColFrameTime) {
		ft := dropNA(t.Floats(ColFrameTime))
		n := min(len(ft), len(cpu))
		if n > 0 {
			overhead := make([]float64, n)
			for i := range n {
				overhead[i] = ft[i] - math.Max(cpu[i], gpu[i])
			}
			r.Overhead = &FrameOverhead{
				Average:     round(mean(overhead), 3),
				Description: frameOverheadDescription,
			}
		}
	}
	return r, nil
}

func busySummary(t *domain.Table, col string) Metric[BusySummary] {
	vals, s := columnValues(t, col)
	if vals == nil {
		return sentinel[BusySummary](s)
	}
	sv := sorted(vals)
	return available(BusySummary{
		Average: round(mean(sv), 3),
		Median:  round(median(sv), 3),
		P5:      round(percentileSorted(sv, 5), 3),
		P95:     round(percentileSorted(sv, 95), 3),
		P99:     round(percentileSorted(sv, 99), 3),
		Min:     round(sv[0], 3),
		Max:     round(sv[len(sv)-1], 3),
		StdDev:  round(stdDev(sv), 3),
	})
}

func waitSummary(t *domain.Table, col string) *WaitSummary {
	vals, _ := columnValues(t, col)
	if vals == nil {
		return nil
	}
	sv := sorted(vals)
	return &WaitSummary{
		Average: round(mean(sv), 3),
		Median:  round(median(sv), 3),
		P95:     round(percentileSorted(sv, 95), 3),
		Max:     round(sv[len(sv)-1], 3),
	}
}

func bottleneck(cpu, gpu []float64) *BottleneckSummary {
	n := len(cpu)
	var cpuCount int
	diff := make([]float64, n)
	for i := range n {
		if cpu[i] >= gpu[i] {
			cpuCount++
		}
		diff[i] = cpu[i] - gpu[i]
	}
	cpuPct := round(float64(cpuCount)/float64(n)*100, 1)
	avgDiff := round(mean(diff), 3)

	overall := GPUBound
	if cpuPct > 50 {
		overall = CPUBound
	}
	direction := "faster"
	if avgDiff > 0 {
		direction = "slower"
	}

	return &BottleneckSummary{
		Overall:             overall,
		CPUBoundPercentage:  cpuPct,
		GPUBoundPercentage:  round(100-cpuPct, 1),
		AvgCPUMinusGPUMs:    avgDiff,
		Interpretation:      fmt.Sprintf("CPU is on average %.2fms %s than GPU per frame", math.Abs(avgDiff), direction),
		TotalFramesAnalyzed: n,
	}
}
