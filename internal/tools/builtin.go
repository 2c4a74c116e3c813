package tools

import (
	"context"
	"fmt"

	"github.com/emiliopalmerini/framescope/internal/charts"
	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/stats"
)

// Tool names.
const (
	ProfileData             = "profile_data"
	ComputeFPSStatistics    = "compute_fps_statistics"
	DetectStutters          = "detect_stutters"
	AnalyzeCPUGPUBound      = "analyze_cpu_gpu_bound"
	ComputeCPUGPUBusyStats  = "compute_cpu_gpu_busy_stats"
	ComputeLatencyStats     = "compute_latency_stats"
	AnalyzeThrottling       = "analyze_throttling"
	GetTimeSegmentStats     = "get_time_segment_stats"
	ChartFrameTimeTimeline  = "chart_frametime_timeline"
	ChartFPSHistogram       = "chart_fps_histogram"
	ChartUtilization        = "chart_utilization_timeline"
	ChartGPUPowerThermal    = "chart_gpu_power_thermal"
	ChartCPUGPUBusyTimeline = "chart_cpu_gpu_busy_timeline"
)

// AnalysisTools and ChartTools group the built-ins for capability sets.
var (
	AnalysisTools = []string{
		ComputeFPSStatistics, DetectStutters, AnalyzeCPUGPUBound, ComputeCPUGPUBusyStats,
		ComputeLatencyStats, AnalyzeThrottling, GetTimeSegmentStats, ProfileData,
	}
	ChartTools = []string{
		ChartFrameTimeTimeline, ChartFPSHistogram, ChartUtilization, ChartGPUPowerThermal, ChartCPUGPUBusyTimeline,
	}
)

var (
	fileIDProp = domain.Property{Type: "string", Description: "ID of the uploaded file"}

	timeRangeProp = domain.Property{
		Type:        "object",
		Description: "Optional time range filter (seconds from capture start)",
		Properties: map[string]domain.Property{
			"start_sec": {Type: "number"},
			"end_sec":   {Type: "number"},
		},
	}

	downsampleProp = domain.Property{Type: "integer", Description: "Max data points (default: 2000)"}
)

func fileOnly(name, description string) domain.ToolSchema {
	return domain.ToolSchema{
		Name:        name,
		Description: description,
		InputSchema: domain.ObjectSchema(map[string]domain.Property{"file_id": fileIDProp}, "file_id"),
	}
}

func (r *Registry) builtins() []Tool {
	return []Tool{
		{
			Schema: fileOnly(ProfileData, "Get a comprehensive profile of the uploaded file including row count, column availability, and basic stats."),
			Run:    r.profileData,
		},
		{
			Schema: domain.ToolSchema{
				Name:        ComputeFPSStatistics,
				Description: "Compute FPS statistics: average, median, 1% low, 0.1% low, min, max. Also returns frame time percentiles.",
				InputSchema: domain.ObjectSchema(map[string]domain.Property{
					"file_id":    {Type: "string", Description: "ID of the uploaded file to analyze"},
					"time_range": timeRangeProp,
				}, "file_id"),
			},
			Run: r.fpsStatistics,
		},
		{
			Schema: domain.ToolSchema{
				Name:        DetectStutters,
				Description: "Find frame time spikes/stutters. Returns count, percentage, and details of the worst stutters.",
				InputSchema: domain.ObjectSchema(map[string]domain.Property{
					"file_id": fileIDProp,
					"threshold_multiplier": {
						Type:        "number",
						Description: "Multiplier over rolling average to count as stutter (default: 2.0)",
					},
				}, "file_id"),
			},
			Run: r.detectStutters,
		},
		{
			Schema: fileOnly(AnalyzeCPUGPUBound, "Determine if the workload is CPU-bound or GPU-bound, with per-frame breakdown."),
			Run: func(ctx context.Context, c Call) (domain.ToolResult, error) {
				t, err := r.table(ctx, c)
				if err != nil {
					return domain.ToolResult{}, err
				}
				return result(stats.Bound(t))
			},
		},
		{
			Schema: domain.ToolSchema{
				Name: ComputeCPUGPUBusyStats,
				Description: "Get detailed CPU Busy and GPU Busy timing statistics including percentiles (p5, p95, p99), std deviation, " +
					"wait times, bottleneck summary with headroom analysis, and frame overhead. Use this when the user asks about CPU busy, " +
					"GPU busy, cpu/gpu workload distribution, or wants detailed bottleneck analysis.",
				InputSchema: domain.ObjectSchema(map[string]domain.Property{
					"file_id":    fileIDProp,
					"time_range": timeRangeProp,
				}, "file_id"),
			},
			Run: r.busyStats,
		},
		{
			Schema: fileOnly(ComputeLatencyStats, "Analyze display latency and input-to-photon latency statistics."),
			Run: func(ctx context.Context, c Call) (domain.ToolResult, error) {
				t, err := r.table(ctx, c)
				if err != nil {
					return domain.ToolResult{}, err
				}
				return domain.Plain(stats.Latency(t)), nil
			},
		},
		{
			Schema: fileOnly(AnalyzeThrottling, "Check GPU throttling flags (power, thermal, current, voltage limited)."),
			Run: func(ctx context.Context, c Call) (domain.ToolResult, error) {
				t, err := r.table(ctx, c)
				if err != nil {
					return domain.ToolResult{}, err
				}
				return domain.Plain(stats.Throttling(t)), nil
			},
		},
		{
			Schema: domain.ToolSchema{
				Name:        GetTimeSegmentStats,
				Description: "Break capture into time segments and compute per-segment FPS/frametime stats. Good for seeing how performance changes over time.",
				InputSchema: domain.ObjectSchema(map[string]domain.Property{
					"file_id":         fileIDProp,
					"segment_seconds": {Type: "number", Description: "Length of each segment in seconds (default: 10)"},
				}, "file_id"),
			},
			Run: r.timeSegments,
		},
		{
			Schema: domain.ToolSchema{
				Name:        ChartFrameTimeTimeline,
				Description: "Generate a frame time over time line chart with optional rolling average and stutter highlights.",
				InputSchema: domain.ObjectSchema(map[string]domain.Property{
					"file_id":            fileIDProp,
					"downsample":         {Type: "integer", Description: "Max data points to plot (default: 2000)"},
					"show_rolling_avg":   {Type: "boolean", Description: "Overlay a 30-frame rolling average line (default: true)"},
					"highlight_stutters": {Type: "boolean", Description: "Mark stutter frames with red dots (default: true)"},
				}, "file_id"),
			},
			Run: r.frameTimeTimeline,
		},
		{
			Schema: domain.ToolSchema{
				Name:        ChartFPSHistogram,
				Description: "Generate an FPS distribution histogram with percentile markers (1% low, average, median).",
				InputSchema: domain.ObjectSchema(map[string]domain.Property{
					"file_id": fileIDProp,
					"bins":    {Type: "integer", Description: "Number of histogram bins (default: 50)"},
				}, "file_id"),
			},
			Run: r.fpsHistogram,
		},
		{
			Schema: domain.ToolSchema{
				Name:        ChartUtilization,
				Description: "Generate GPU and CPU utilization over time as an area chart.",
				InputSchema: domain.ObjectSchema(map[string]domain.Property{
					"file_id":    fileIDProp,
					"downsample": downsampleProp,
				}, "file_id"),
			},
			Run: r.downsampledChart(charts.UtilizationTimeline),
		},
		{
			Schema: domain.ToolSchema{
				Name:        ChartGPUPowerThermal,
				Description: "Generate GPU power consumption and temperature over time (dual-axis chart).",
				InputSchema: domain.ObjectSchema(map[string]domain.Property{
					"file_id":    fileIDProp,
					"downsample": downsampleProp,
				}, "file_id"),
			},
			Run: r.downsampledChart(charts.PowerThermal),
		},
		{
			Schema: domain.ToolSchema{
				Name: ChartCPUGPUBusyTimeline,
				Description: "Generate CPU Busy vs GPU Busy timeline chart showing per-frame workload in ms. Overlays FrameTime and wait times. " +
					"Use this when the user asks about CPU/GPU busy, bottleneck visualization, or workload distribution over time.",
				InputSchema: domain.ObjectSchema(map[string]domain.Property{
					"file_id":         fileIDProp,
					"downsample":      downsampleProp,
					"show_frame_time": {Type: "boolean", Description: "Overlay FrameTime as a dotted reference line (default: true)"},
				}, "file_id"),
			},
			Run: r.busyTimeline,
		},
	}
}

func (r *Registry) profileData(ctx context.Context, c Call) (domain.ToolResult, error) {
	t, err := r.table(ctx, c)
	if err != nil {
		return domain.ToolResult{}, err
	}
	info, err := r.store.FileInfo(ctx, c.SessionID, c.FileID)
	if err != nil {
		info = nil
	}
	p := stats.ProfileTable(t, info)
	p.FileID = c.FileID
	return domain.Plain(p), nil
}

func (r *Registry) fpsStatistics(ctx context.Context, c Call) (domain.ToolResult, error) {
	t, err := r.table(ctx, c)
	if err != nil {
		return domain.ToolResult{}, err
	}
	w, err := c.TimeRange()
	if err != nil {
		return domain.ToolResult{}, err
	}
	return result(stats.FPS(t, w))
}

func (r *Registry) detectStutters(ctx context.Context, c Call) (domain.ToolResult, error) {
	t, err := r.table(ctx, c)
	if err != nil {
		return domain.ToolResult{}, err
	}
	threshold, err := c.Number("threshold_multiplier", stats.DefaultStutterThreshold)
	if err != nil {
		return domain.ToolResult{}, err
	}
	return result(stats.Stutters(t, threshold, domain.TimeWindow{}))
}

func (r *Registry) busyStats(ctx context.Context, c Call) (domain.ToolResult, error) {
	t, err := r.table(ctx, c)
	if err != nil {
		return domain.ToolResult{}, err
	}
	w, err := c.TimeRange()
	if err != nil {
		return domain.ToolResult{}, err
	}
	return result(stats.Busy(t, w))
}

func (r *Registry) timeSegments(ctx context.Context, c Call) (domain.ToolResult, error) {
	t, err := r.table(ctx, c)
	if err != nil {
		return domain.ToolResult{}, err
	}
	seconds, err := c.Number("segment_seconds", stats.DefaultSegmentSeconds)
	if err != nil {
		return domain.ToolResult{}, err
	}
	return result(stats.Segments(t, seconds))
}

func (r *Registry) frameTimeTimeline(ctx context.Context, c Call) (domain.ToolResult, error) {
	t, err := r.table(ctx, c)
	if err != nil {
		return domain.ToolResult{}, err
	}
	opts := charts.DefaultTimelineOptions()
	if opts.Downsample, err = c.Int("downsample", opts.Downsample); err != nil {
		return domain.ToolResult{}, err
	}
	if opts.ShowRollingAvg, err = c.Bool("show_rolling_avg", opts.ShowRollingAvg); err != nil {
		return domain.ToolResult{}, err
	}
	if opts.HighlightStutters, err = c.Bool("highlight_stutters", opts.HighlightStutters); err != nil {
		return domain.ToolResult{}, err
	}
	return chartResult(charts.FrameTimeTimeline(t, opts))
}

func (r *Registry) fpsHistogram(ctx context.Context, c Call) (domain.ToolResult, error) {
	t, err := r.table(ctx, c)
	if err != nil {
		return domain.ToolResult{}, err
	}
	bins, err := c.Int("bins", charts.DefaultBins)
	if err != nil {
		return domain.ToolResult{}, err
	}
	return chartResult(charts.FPSHistogram(t, bins))
}

func (r *Registry) downsampledChart(build func(*domain.Table, int) (*charts.Figure, error)) Func {
	return func(ctx context.Context, c Call) (domain.ToolResult, error) {
		t, err := r.table(ctx, c)
		if err != nil {
			return domain.ToolResult{}, err
		}
		n, err := c.Int("downsample", charts.DefaultDownsample)
		if err != nil {
			return domain.ToolResult{}, err
		}
		return chartResult(build(t, n))
	}
}

func (r *Registry) busyTimeline(ctx context.Context, c Call) (domain.ToolResult, error) {
	t, err := r.table(ctx, c)
	if err != nil {
		return domain.ToolResult{}, err
	}
	n, err := c.Int("downsample", charts.DefaultDownsample)
	if err != nil {
		return domain.ToolResult{}, err
	}
	showFT, err := c.Bool("show_frame_time", true)
	if err != nil {
		return domain.ToolResult{}, err
	}
	return chartResult(charts.BusyTimeline(t, n, showFT))
}

// Figure builds the figure of a chart tool directly, for callers that render
// charts outside the conversation.
func (r *Registry) Figure(ctx context.Context, name string, c Call) (*charts.Figure, error) {
	tool, ok := r.tools[name]
	if !ok || !isChart(name) {
		return nil, fmt.Errorf("unknown chart: %s", name)
	}
	res, err := tool.Run(ctx, c)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, &charts.Error{Message: res.Message}
	}
	fig, ok := res.Chart.(*charts.Figure)
	if !ok {
		return nil, fmt.Errorf("chart %s returned %T", name, res.Chart)
	}
	return fig, nil
}

func isChart(name string) bool {
	for _, n := range ChartTools {
		if n == name {
			return true
		}
	}
	return false
}
