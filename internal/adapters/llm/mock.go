package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/ports"
	"github.com/emiliopalmerini/framescope/internal/stats"
	"github.com/emiliopalmerini/framescope/internal/tools"
)

// MockModel is reported as the model of mock turns.
const MockModel = "mock"

const (
	noMessageText = "I didn't receive a message. Please try again."
	noFilesText   = "No files have been uploaded yet. Please upload a PresentMon CSV file first, then ask me to analyze it."
)

// Mock is an offline reasoner. It picks one tool from keywords in the latest
// user message, runs it on the session's most recent upload, and turns the
// result into a markdown summary. It spends no tokens.
type Mock struct {
	store ports.CaptureStore
}

var _ ports.Reasoner = (*Mock)(nil)

func NewMock(store ports.CaptureStore) *Mock {
	return &Mock{store: store}
}

func (m *Mock) Model() string { return MockModel }

func (m *Mock) Respond(ctx context.Context, req ports.ReasoningRequest) (*ports.ReasoningResponse, error) {
	if len(req.Messages) == 0 {
		return mockText(noMessageText), nil
	}

	last := req.Messages[len(req.Messages)-1]
	if last.Role == domain.RoleUser && !last.IsPlainText() {
		return mockText(summarize(req.Messages)), nil
	}

	text := last.Text()
	if last.Role != domain.RoleUser || strings.TrimSpace(text) == "" {
		return mockText(noMessageText), nil
	}

	fileID, err := m.store.DefaultFileID(ctx, req.SessionID)
	if err != nil {
		return mockText(noFilesText), nil
	}

	return &ports.ReasoningResponse{
		Content: []domain.ContentBlock{{
			Type:  domain.BlockToolUse,
			ID:    fmt.Sprintf("mock_%d", len(req.Messages)),
			Name:  chooseTool(strings.ToLower(text)),
			Input: map[string]any{"file_id": fileID},
		}},
		Usage:      domain.TokenUsage{Model: MockModel},
		StopReason: "tool_use",
	}, nil
}

func mockText(text string) *ports.ReasoningResponse {
	return &ports.ReasoningResponse{
		Content:    []domain.ContentBlock{domain.TextBlock(text)},
		Usage:      domain.TokenUsage{Model: MockModel},
		StopReason: "end_turn",
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func chooseTool(lower string) string {
	switch {
	case containsAny(lower, "chart", "plot", "graph", "visualize", "show me", "draw", "display",
		"utilization", "usage", "gpu util", "cpu util", "power", "temperature"):
		return chooseChart(lower)
	case strings.Contains(lower, "show ") && containsAny(lower,
		"utilization", "busy", "fps", "frame", "latency", "throttl", "power", "temp", "histogram"):
		return chooseChart(lower)
	case containsAny(lower, "cpu busy", "gpu busy", "cpubusy", "gpubusy"):
		return tools.ComputeCPUGPUBusyStats
	case containsAny(lower, "stutter", "jitter", "spike"):
		return tools.DetectStutters
	case containsAny(lower, "bound", "bottleneck", "cpu vs gpu", "cpu or gpu"):
		return tools.AnalyzeCPUGPUBound
	case containsAny(lower, "throttl", "thermal", "power limit"):
		return tools.AnalyzeThrottling
	case containsAny(lower, "latency", "input lag", "display lag"):
		return tools.ComputeLatencyStats
	case containsAny(lower, "profile", "overview", "summary", "what data", "columns"):
		return tools.ProfileData
	default:
		return tools.ComputeFPSStatistics
	}
}

func chooseChart(lower string) string {
	switch {
	case containsAny(lower, "histogram", "distribution", "fps dist"):
		return tools.ChartFPSHistogram
	case containsAny(lower, "cpu busy", "gpu busy", "busy", "bound", "bottleneck"):
		return tools.ChartCPUGPUBusyTimeline
	case containsAny(lower, "utilization", "usage", "gpu util", "cpu util"):
		return tools.ChartUtilization
	case containsAny(lower, "power", "thermal", "temperature", "temp"):
		return tools.ChartGPUPowerThermal
	default:
		return tools.ChartFrameTimeTimeline
	}
}

// summarize renders the tool results of the last turn, looking up each
// result's tool name in the preceding assistant turn.
func summarize(turns []domain.Turn) string {
	names := map[string]string{}
	if len(turns) >= 2 {
		for _, call := range turns[len(turns)-2].ToolCalls() {
			names[call.ID] = call.Name
		}
	}

	var parts []string
	for _, b := range turns[len(turns)-1].Blocks {
		if b.Type != domain.BlockToolResult {
			continue
		}
		parts = append(parts, formatResult(names[b.ToolUseID], b.Content))
	}
	return strings.Join(parts, "\n\n")
}

// FormatResult renders a tool result as the markdown the mock reasoner
// would reply with.
func FormatResult(tool string, res domain.ToolResult) string {
	b, err := json.Marshal(res)
	if err != nil {
		return "Error: " + err.Error()
	}
	return formatResult(tool, string(b))
}

func formatResult(tool, content string) string {
	var r map[string]any
	if err := json.Unmarshal([]byte(content), &r); err != nil {
		return content
	}

	if r["type"] == "chart" {
		return "Here's the chart:"
	}
	if r["type"] == "error" {
		msg, _ := r["message"].(string)
		if msg == "" {
			msg = "Unknown error"
		}
		return "Could not generate chart: " + msg
	}
	if msg, ok := r["error"].(string); ok {
		return "Error: " + msg
	}

	switch tool {
	case tools.DetectStutters:
		return formatStutters(r)
	case tools.ComputeCPUGPUBusyStats:
		return formatBusy(r)
	case tools.AnalyzeCPUGPUBound:
		return formatBound(r)
	case tools.AnalyzeThrottling:
		return formatThrottling(r)
	case tools.ComputeLatencyStats:
		return formatLatency(r)
	case tools.ProfileData:
		return formatProfile(r)
	default:
		return formatFPS(r)
	}
}

var printer = message.NewPrinter(language.English)

// num prints a JSON number the way it was computed, without trailing zeros.
func num(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case nil:
		return "N/A"
	default:
		return fmt.Sprint(n)
	}
}

// count prints a JSON number as an integer with thousands separators.
func count(v any) string {
	f, _ := v.(float64)
	return printer.Sprintf("%d", int64(f))
}

func object(r map[string]any, key string) map[string]any {
	m, _ := r[key].(map[string]any)
	return m
}

func formatFPS(r map[string]any) string {
	fps, ft := object(r, "fps"), object(r, "frametime_ms")
	if fps == nil || ft == nil {
		return "No FPS statistics were returned."
	}
	var b strings.Builder
	b.WriteString("## FPS Statistics\n\n")
	fmt.Fprintf(&b, "**Duration:** %ss (%s frames)\n\n", num(r["duration_seconds"]), count(r["frame_count"]))
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| Average FPS | %s |\n", num(fps["average"]))
	fmt.Fprintf(&b, "| Median FPS | %s |\n", num(fps["median"]))
	fmt.Fprintf(&b, "| 1%% Low FPS | %s |\n", num(fps["p1"]))
	fmt.Fprintf(&b, "| 0.1%% Low FPS | %s |\n", num(fps["p0_1"]))
	fmt.Fprintf(&b, "| Min FPS | %s |\n", num(fps["min"]))
	fmt.Fprintf(&b, "| Max FPS | %s |\n\n", num(fps["max"]))
	fmt.Fprintf(&b, "**Frame Time:** avg %sms, p99 %sms, max %sms", num(ft["average"]), num(ft["p99"]), num(ft["max"]))
	return b.String()
}

func formatStutters(r map[string]any) string {
	var b strings.Builder
	b.WriteString("## Stutter Analysis\n\n")
	fmt.Fprintf(&b, "**%s** stutters detected out of **%s** frames (**%s%%**)\n\n",
		num(r["stutter_count"]), count(r["total_frames"]), num(r["stutter_percentage"]))
	fmt.Fprintf(&b, "Threshold: >%sx rolling average (avg frame time: %sms)\n",
		num(r["threshold_multiplier"]), num(r["avg_frametime_ms"]))

	worst, _ := r["worst_stutters"].([]any)
	if len(worst) == 0 {
		return b.String()
	}
	b.WriteString("\n**Worst stutters:**\n\n")
	b.WriteString("| Time (s) | Frame Time (ms) | Expected (ms) | Severity |\n|----------|----------------|--------------|----------|\n")
	for i, w := range worst {
		if i == 5 {
			break
		}
		s, _ := w.(map[string]any)
		fmt.Fprintf(&b, "| %s | %s | %s | %sx |\n",
			num(s["time_sec"]), num(s["frametime_ms"]), num(s["expected_ms"]), num(s["severity_multiplier"]))
	}
	return b.String()
}

func formatBusy(r map[string]any) string {
	var b strings.Builder
	b.WriteString("## CPU & GPU Busy Time Analysis\n\n")

	for _, c := range []struct{ key, label string }{{"cpu_busy_ms", "CPU Busy"}, {"gpu_busy_ms", "GPU Busy"}} {
		switch v := r[c.key].(type) {
		case map[string]any:
			fmt.Fprintf(&b, "**%s:**\n\n| Metric | Value |\n|--------|-------|\n", c.label)
			fmt.Fprintf(&b, "| Average | %sms |\n", num(v["average"]))
			fmt.Fprintf(&b, "| Median | %sms |\n", num(v["median"]))
			fmt.Fprintf(&b, "| P95 | %sms |\n", num(v["p95"]))
			fmt.Fprintf(&b, "| P99 | %sms |\n", num(v["p99"]))
			fmt.Fprintf(&b, "| Max | %sms |\n", num(v["max"]))
			fmt.Fprintf(&b, "| Std Dev | %sms |\n\n", num(v["std_dev"]))
		case string:
			if v == string(stats.NotAvailable) {
				fmt.Fprintf(&b, "**%s:** Column not present in this capture\n\n", c.label)
			}
		}
	}

	for _, c := range []struct{ key, label string }{{"cpu_wait_ms", "CPU Wait"}, {"gpu_wait_ms", "GPU Wait"}} {
		if w := object(r, c.key); w != nil {
			fmt.Fprintf(&b, "**%s:** avg %sms, p95 %sms, max %sms\n\n", c.label, num(w["average"]), num(w["p95"]), num(w["max"]))
		}
	}

	if s := object(r, "bottleneck_summary"); s != nil {
		fmt.Fprintf(&b, "### Bottleneck Summary\n\n**Overall: %s** (CPU-bound %s%% / GPU-bound %s%% of frames)\n\n%s\n\n",
			s["overall"], num(s["cpu_bound_percentage"]), num(s["gpu_bound_percentage"]), s["interpretation"])
	}
	if o := object(r, "frame_overhead_ms"); o != nil {
		fmt.Fprintf(&b, "**Frame Overhead:** avg %sms - %s\n", num(o["average"]), o["description"])
	}
	return b.String()
}

func formatBound(r map[string]any) string {
	var b strings.Builder
	b.WriteString("## CPU/GPU Bottleneck Analysis\n\n")
	fmt.Fprintf(&b, "**Overall:** %s\n\n", r["overall_bottleneck"])
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| CPU-bound frames | %s (%s%%) |\n", count(r["cpu_bound_frames"]), num(r["cpu_bound_percentage"]))
	fmt.Fprintf(&b, "| GPU-bound frames | %s (%s%%) |\n", count(r["gpu_bound_frames"]), num(r["gpu_bound_percentage"]))
	fmt.Fprintf(&b, "| Avg CPU busy | %sms |\n", num(r["avg_cpu_busy_ms"]))
	fmt.Fprintf(&b, "| Avg GPU busy | %sms |\n", num(r["avg_gpu_busy_ms"]))
	return b.String()
}

func formatThrottling(r map[string]any) string {
	var b strings.Builder
	b.WriteString("## GPU Throttling Analysis\n\n")
	if detected, _ := r["any_throttling_detected"].(bool); !detected {
		b.WriteString("No throttling detected during this capture.\n")
		return b.String()
	}
	b.WriteString("| Throttle Type | Frames | Percentage |\n|--------------|--------|------------|\n")
	for _, f := range stats.ThrottleFlags {
		d := object(r, f.Label)
		if d == nil {
			continue
		}
		if n, _ := d["throttled_frames"].(float64); n > 0 {
			fmt.Fprintf(&b, "| %s | %s | %s%% |\n", f.Label, count(n), num(d["percentage"]))
		}
	}
	return b.String()
}

var latencyKeys = []string{"display_latency_ms", "instrumented_latency_ms", "input_to_photon_ms", "click_to_photon_ms"}

var titleCase = cases.Title(language.English)

func formatLatency(r map[string]any) string {
	var b strings.Builder
	b.WriteString("## Latency Analysis\n\n")
	for _, key := range latencyKeys {
		label := titleCase.String(strings.ReplaceAll(key, "_", " "))
		switch v := r[key].(type) {
		case map[string]any:
			fmt.Fprintf(&b, "**%s:** avg %sms, median %sms, p99 %sms\n\n", label, num(v["average"]), num(v["median"]), num(v["p99"]))
		case string:
			if v == string(stats.AllNA) {
				fmt.Fprintf(&b, "**%s:** No data available (all NA)\n\n", label)
			} else {
				fmt.Fprintf(&b, "**%s:** Column not present in this capture\n\n", label)
			}
		}
	}
	return b.String()
}

func orUnknown(v any) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return "unknown"
}

func formatProfile(r map[string]any) string {
	var b strings.Builder
	b.WriteString("## File Profile\n\n")
	fmt.Fprintf(&b, "**File:** %s\n", orUnknown(r["filename"]))
	fmt.Fprintf(&b, "**Source:** %s\n", orUnknown(r["source_tool"]))
	fmt.Fprintf(&b, "**Application:** %s\n", orUnknown(r["application"]))
	if g, ok := r["game_name"].(string); ok && g != "" {
		fmt.Fprintf(&b, "**Game:** %s\n", g)
	}
	fmt.Fprintf(&b, "**Rows:** %s\n", count(r["total_rows"]))
	duration := "0"
	if d, ok := r["duration_seconds"]; ok {
		duration = num(d)
	}
	fmt.Fprintf(&b, "**Duration:** %ss\n", duration)
	fmt.Fprintf(&b, "**Columns:** %s available, %s empty\n", num(r["available_columns"]), num(r["na_columns"]))
	if fps, ok := r["avg_fps"]; ok {
		fmt.Fprintf(&b, "**Avg FPS:** %s\n", num(fps))
	}
	return b.String()
}
