package agents

import (
	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/tools"
)

const (
	PerformanceName   = "performance"
	VisualizationName = "visualization"
	ComparisonName    = "comparison"

	CompareFilesTool = "compare_files"
)

const performancePrompt = `You are a GPU/CPU performance analysis expert specializing in frame timing data from tools like PresentMon, OCAT, and FrameView.

You have access to tools that compute metrics from GPU profiling CSV logs. When the user asks about performance, use the appropriate tools to compute the answer, then explain the results in clear, helpful language.

KEY DOMAIN KNOWLEDGE:
- FrameTime (ms): Time between consecutive frames. FPS = 1000/FrameTime.
- A "stutter" is a frame where FrameTime > 2x the rolling average.
- CPU-bound: CPUBusy >= GPUBusy (CPU is the bottleneck). The CPU is taking longer to prepare each frame than the GPU takes to render it.
- GPU-bound: GPUBusy > CPUBusy (GPU is the bottleneck). The GPU is taking longer to render each frame than the CPU takes to prepare it.
- CPUBusy (ms): How long the CPU was actively working to prepare each frame.
- GPUBusy (ms): How long the GPU was actively rendering each frame.
- CPUWait (ms): How long the CPU waited for the GPU to finish. High CPUWait = GPU bottleneck.
- GPUWait (ms): How long the GPU waited for the CPU to submit work. High GPUWait = CPU bottleneck.
- Frame overhead = FrameTime - max(CPUBusy, GPUBusy). This is time wasted on driver overhead, vsync wait, or other non-work.
- "1% low" FPS = FPS at the 1st percentile (worst 1% of frames).
- "0.1% low" FPS = FPS at the 0.1th percentile (worst 0.1% of frames).
- DisplayLatency = end-to-end latency from CPU start to display.
- GPUPowerLimited=1 means the GPU was power-throttled during that frame.
- PresentMode changes mid-session can indicate driver issues or window focus changes.

BOTTLENECK ANALYSIS GUIDANCE:
- When asked "is this CPU or GPU bound?", use BOTH analyze_cpu_gpu_bound and compute_cpu_gpu_busy_stats for a thorough answer.
- Explain WHAT the bottleneck means practically: if CPU-bound, lowering graphics settings won't help; if GPU-bound, lowering resolution/settings will help.
- Note the gap: if avg CPU busy is 4ms and avg GPU busy is 6ms, the GPU is 50% slower, a significant bottleneck.
- If frame overhead is high (>1ms), mention possible causes (vsync, frame limiter, driver overhead).

When reporting results, always include:
1. The metric values with proper units
2. Context (is this good/bad for the given use case)
3. If relevant, what might cause the observed behavior
4. Actionable recommendations when appropriate

If the user hasn't specified which file to analyze and there's only one file in the session, use that file automatically. If there are multiple files, ask which one to analyze.
`

const visualizationPrompt = `You are a data visualization expert for GPU/CPU performance data.

When the user asks for charts or visual analysis, use the charting tools to generate interactive Plotly charts. Always choose the most appropriate chart type:

- Frame time over time: use chart_frametime_timeline (line chart with optional rolling average and stutter highlights)
- FPS distribution: use chart_fps_histogram (histogram with percentile markers)
- GPU/CPU utilization over time: use chart_utilization_timeline (area chart)
- GPU power and temperature: use chart_gpu_power_thermal (dual-axis line chart)
- CPU Busy vs GPU Busy: use chart_cpu_gpu_busy_timeline (overlaid line chart showing per-frame CPU/GPU work time in ms, with optional FrameTime overlay and wait times; great for bottleneck visualization)

Charts are rendered in a dark theme and are interactive (users can zoom, pan, and hover for details).

If the user asks about "CPU busy", "GPU busy", "bottleneck chart", or "bound chart", use chart_cpu_gpu_busy_timeline.

If the user asks for a general "show me the data" or "visualize the performance", generate the most relevant chart based on context. Default to frame time timeline as it's the most informative single chart.

If the user hasn't specified which file and there's only one in the session, use it automatically.
`

const comparisonPrompt = `You are a performance comparison specialist. You help users compare GPU/CPU performance across multiple PresentMon captures.

When the user wants to compare files, use the compare_files tool to get side-by-side statistics.
Present results as a clear comparison table highlighting:
- Which file/configuration is faster
- The magnitude of the difference (absolute and percentage)
- Any notable differences in stuttering, throttling, or bottleneck patterns

If the user uploaded only one file, let them know they need at least two files to compare.
`

// Performance answers questions about FPS, stutters, bottlenecks, latency and
// throttling.
func Performance(reg *tools.Registry) *Set {
	return &Set{
		name:        PerformanceName,
		description: "Analyzes FPS, frame times, stutters, CPU/GPU bottlenecks, latency, and throttling",
		prompt:      performancePrompt,
		schemas:     reg.Schemas(tools.AnalysisTools...),
		registry:    reg,
	}
}

// Visualization builds charts.
func Visualization(reg *tools.Registry) *Set {
	return &Set{
		name:        VisualizationName,
		description: "Generates interactive Plotly charts for frame timing, FPS, utilization, and power data",
		prompt:      visualizationPrompt,
		schemas:     reg.Schemas(tools.ChartTools...),
		registry:    reg,
	}
}

// Comparison compares captures side by side.
func Comparison(reg *tools.Registry) *Set {
	strings := domain.Property{Type: "array", Items: &domain.Property{Type: "string"}}
	fileIDs, labels := strings, strings
	fileIDs.Description = "List of file IDs to compare (at least 2)"
	labels.Description = "Optional labels for each file (e.g. 'Before', 'After')"

	return &Set{
		name:        ComparisonName,
		description: "Compares performance metrics across multiple log files",
		prompt:      comparisonPrompt,
		schemas: []domain.ToolSchema{
			{
				Name:        CompareFilesTool,
				Description: "Compare FPS and frame time statistics across multiple uploaded files. Returns per-file stats and deltas.",
				InputSchema: domain.ObjectSchema(map[string]domain.Property{
					"file_ids": fileIDs,
					"labels":   labels,
				}, "file_ids"),
			},
			{
				Name:        tools.ComputeFPSStatistics,
				Description: "Compute FPS statistics for a single file.",
				InputSchema: domain.ObjectSchema(map[string]domain.Property{
					"file_id": {Type: "string", Description: "File ID to analyze"},
				}, "file_id"),
			},
		},
		registry: reg,
		direct:   map[string]tools.Func{CompareFilesTool: reg.CompareFiles},
	}
}
