package charts

import (
	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/stats"
)

const (
	colGPUUtilization = "GPUUtilization"
	colCPUUtilization = "CPUUtilization"
	col3DUtilization  = "3D/ComputeUtilization"
	colGPUPower       = "GPUPower"
	colGPUTemperature = "GPUTemperature"
)

// TimelineOptions configures FrameTimeTimeline.
type TimelineOptions struct {
	Downsample        int
	ShowRollingAvg    bool
	HighlightStutters bool
}

func DefaultTimelineOptions() TimelineOptions {
	return TimelineOptions{Downsample: DefaultDownsample, ShowRollingAvg: true, HighlightStutters: true}
}

// FrameTimeTimeline plots frame time against capture time, with an optional
// 30-frame rolling average and markers on frames slower than twice the
// trailing 60-frame mean.
func FrameTimeTimeline(t *domain.Table, opts TimelineOptions) (*Figure, error) {
	if !t.Has(stats.ColCPUStartTime) || !t.Has(stats.ColFrameTime) {
		return nil, chartError("Missing CPUStartTime or FrameTime columns")
	}

	idx := downsample(t.Len(), opts.Downsample)
	x := pick(t.Floats(stats.ColCPUStartTime), idx)
	ft := pick(t.Floats(stats.ColFrameTime), idx)

	fig := &Figure{Layout: baseLayout("Frame Time Over Time", "Time (seconds)", "Frame Time (ms)")}
	fig.Data = append(fig.Data, Trace{
		Type: "scattergl", Mode: "lines", Name: "Frame Time",
		X: x, Y: ft,
		Line:          &Line{Color: accent[0], Width: 1},
		HoverTemplate: "Time: %{x:.1f}s<br>Frame Time: %{y:.2f}ms<extra></extra>",
	})

	if opts.ShowRollingAvg {
		fig.Data = append(fig.Data, Trace{
			Type: "scattergl", Mode: "lines", Name: "Rolling Avg (30)",
			X: x, Y: Series(stats.RollingMean(ft, rollingWindow)),
			Line: &Line{Color: accent[3], Width: 2, Dash: "dot"},
		})
	}

	if opts.HighlightStutters {
		baseline := stats.RollingMean(ft, stats.StutterWindow)
		var sx, sy Series
		for i, v := range ft {
			if v > baseline[i]*stats.DefaultStutterThreshold {
				sx = append(sx, x[i])
				sy = append(sy, v)
			}
		}
		if len(sx) > 0 {
			fig.Data = append(fig.Data, Trace{
				Type: "scattergl", Mode: "markers", Name: "Stutters (>2x avg)",
				X: sx, Y: sy,
				Marker: &Marker{Color: accent[1], Size: 6, Symbol: "circle"},
			})
		}
	}
	return fig, nil
}

type lineSpec struct {
	col       string
	name      string
	line      Line
	fillColor string
	yaxis     string
	opacity   float64
	hover     string
}

// timeTraces adds one trace per lineSpec whose column has data and reports how
// many were added.
func timeTraces(fig *Figure, t *domain.Table, idx []int, specs []lineSpec) int {
	x := pick(t.Floats(stats.ColCPUStartTime), idx)
	var n int
	for _, s := range specs {
		if !hasData(t, s.col) {
			continue
		}
		line := s.line
		tr := Trace{
			Type: "scattergl", Mode: "lines", Name: s.name,
			X: x, Y: pick(t.Floats(s.col), idx),
			Line: &line, YAxis: s.yaxis, HoverTemplate: s.hover,
		}
		if s.fillColor != "" {
			tr.Fill, tr.FillColor = "tozeroy", s.fillColor
		}
		if s.opacity > 0 {
			tr.Opacity = opacity(s.opacity)
		}
		fig.Data = append(fig.Data, tr)
		n++
	}
	return n
}

// UtilizationTimeline plots GPU, CPU and 3D/compute utilization over time.
func UtilizationTimeline(t *domain.Table, downsampleTo int) (*Figure, error) {
	if !t.Has(stats.ColCPUStartTime) {
		return nil, chartError("Missing CPUStartTime column")
	}
	fig := &Figure{Layout: baseLayout("GPU & CPU Utilization Over Time", "Time (seconds)", "Utilization (%)")}
	fig.Layout.YAxis.Range = []float64{0, 105}

	n := timeTraces(fig, t, downsample(t.Len(), downsampleTo), []lineSpec{
		{col: colGPUUtilization, name: "GPU Utilization", line: Line{Color: accent[0], Width: 1}, fillColor: "rgba(59,130,246,0.15)"},
		{col: colCPUUtilization, name: "CPU Utilization", line: Line{Color: accent[2], Width: 1}, fillColor: "rgba(34,197,94,0.15)"},
		{col: col3DUtilization, name: "3D/Compute Utilization", line: Line{Color: accent[4], Width: 1, Dash: "dot"}},
	})
	if n == 0 {
		return nil, chartError("No utilization data available")
	}
	return fig, nil
}

// PowerThermal plots GPU power on the left axis and GPU temperature on the right.
func PowerThermal(t *domain.Table, downsampleTo int) (*Figure, error) {
	if !t.Has(stats.ColCPUStartTime) {
		return nil, chartError("Missing CPUStartTime column")
	}
	fig := &Figure{Layout: baseLayout("GPU Power & Temperature", "Time (seconds)", "Power (W)")}
	fig.Layout.YAxis2 = &Axis{
		Title:      &Title{Text: "Temperature (°C)"},
		Overlaying: "y",
		Side:       "right",
		GridColor:  darkGrid,
	}

	n := timeTraces(fig, t, downsample(t.Len(), downsampleTo), []lineSpec{
		{col: colGPUPower, name: "GPU Power (W)", line: Line{Color: accent[3], Width: 1}, yaxis: "y"},
		{col: colGPUTemperature, name: "GPU Temp (°C)", line: Line{Color: accent[1], Width: 1}, yaxis: "y2"},
	})
	if n == 0 {
		return nil, chartError("No GPU power or temperature data available")
	}
	return fig, nil
}

// BusyTimeline plots per-frame CPU and GPU busy time, with optional frame time
// and wait overlays.
func BusyTimeline(t *domain.Table, downsampleTo int, showFrameTime bool) (*Figure, error) {
	if !t.Has(stats.ColCPUStartTime) {
		return nil, chartError("Missing CPUStartTime column")
	}
	if !hasData(t, stats.ColCPUBusy) && !hasData(t, stats.ColGPUBusy) {
		return nil, chartError("No CPUBusy or GPUBusy data available")
	}

	specs := []lineSpec{
		{col: stats.ColCPUBusy, name: "CPU Busy", line: Line{Color: accent[2], Width: 1.2}, fillColor: "rgba(34,197,94,0.1)",
			hover: "Time: %{x:.1f}s<br>CPU Busy: %{y:.2f}ms<extra></extra>"},
		{col: stats.ColGPUBusy, name: "GPU Busy", line: Line{Color: accent[0], Width: 1.2}, fillColor: "rgba(59,130,246,0.1)",
			hover: "Time: %{x:.1f}s<br>GPU Busy: %{y:.2f}ms<extra></extra>"},
	}
	if showFrameTime && t.Has(stats.ColFrameTime) {
		specs = append(specs, lineSpec{col: stats.ColFrameTime, name: "Frame Time", line: Line{Color: accent[3], Width: 1, Dash: "dot"}, opacity: 0.6,
			hover: "Time: %{x:.1f}s<br>Frame Time: %{y:.2f}ms<extra></extra>"})
	}
	specs = append(specs,
		lineSpec{col: stats.ColCPUWait, name: "CPU Wait", line: Line{Color: accent[2], Width: 1, Dash: "dash"}, opacity: 0.5},
		lineSpec{col: stats.ColGPUWait, name: "GPU Wait", line: Line{Color: accent[0], Width: 1, Dash: "dash"}, opacity: 0.5},
	)

	fig := &Figure{Layout: baseLayout("CPU Busy vs GPU Busy Over Time", "Time (seconds)", "Time (ms)")}
	timeTraces(fig, t, downsample(t.Len(), downsampleTo), specs)
	return fig, nil
}
