package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/emiliopalmerini/framescope/internal/capture"
	"github.com/emiliopalmerini/framescope/internal/charts"
	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/stats"
)

func numCol(name string, vals []float64) *domain.Column {
	return &domain.Column{Name: name, Kind: domain.KindNumeric, Num: vals}
}

func frames(n int, ft float64) *domain.Table {
	ts := make([]float64, n)
	fts := make([]float64, n)
	busy := make([]float64, n)
	for i := range ts {
		ts[i] = float64(i) * ft / 1000
		fts[i] = ft
		busy[i] = ft / 2
	}
	return domain.NewTable([]*domain.Column{
		numCol(stats.ColCPUStartTime, ts),
		numCol(stats.ColFrameTime, fts),
		numCol(stats.ColCPUBusy, busy),
		numCol(stats.ColGPUBusy, fts),
	})
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	store := capture.NewStore()
	store.AddFile("s1", frames(600, 10), domain.FileInfo{FileID: "f1", OriginalName: "run.csv", SourceTool: "PresentMon"})
	store.AddFile("s1", domain.NewTable([]*domain.Column{numCol(stats.ColFrameTime, []float64{10, 11})}), domain.FileInfo{FileID: "tiny"})
	return NewRegistry(store)
}

func encode(t *testing.T, r domain.ToolResult) map[string]any {
	t.Helper()
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	return m
}

func TestRegistry_Names(t *testing.T) {
	r := newTestRegistry(t)
	want := append(append([]string{}, ProfileData), AnalysisTools[:7]...)
	want = append(want, ChartTools...)
	if diff := cmp.Diff(want, r.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	for _, name := range r.Names() {
		s, ok := r.Schema(name)
		if !ok {
			t.Fatalf("missing schema for %s", name)
		}
		if s.InputSchema.Type != "object" {
			t.Errorf("%s: expected object schema", name)
		}
		if _, ok := s.InputSchema.Properties["session_id"]; ok {
			t.Errorf("%s: session id must never be a schema property", name)
		}
		if diff := cmp.Diff([]string{"file_id"}, s.InputSchema.Required); diff != "" {
			t.Errorf("%s: required mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestRegistry_Dispatch(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		tool    string
		input   map[string]any
		wantErr string
		check   func(t *testing.T, res domain.ToolResult)
	}{
		{
			name:  "fps statistics",
			tool:  ComputeFPSStatistics,
			input: map[string]any{"file_id": "f1"},
			check: func(t *testing.T, res domain.ToolResult) {
				s, ok := res.Value.(*stats.FPSStats)
				if !ok {
					t.Fatalf("expected *stats.FPSStats, got %T", res.Value)
				}
				if s.FPS.Average != 100 {
					t.Errorf("expected 100 fps, got %v", s.FPS.Average)
				}
			},
		},
		{
			name:  "fps statistics with time range",
			tool:  ComputeFPSStatistics,
			input: map[string]any{"file_id": "f1", "time_range": map[string]any{"start_sec": 1.0, "end_sec": 2.0}},
			check: func(t *testing.T, res domain.ToolResult) {
				if n := res.Value.(*stats.FPSStats).FrameCount; n != 101 {
					t.Errorf("expected 101 frames in [1s, 2s], got %d", n)
				}
			},
		},
		{
			name:    "unknown tool",
			tool:    "make_coffee",
			input:   map[string]any{},
			wantErr: "Unknown tool: make_coffee",
		},
		{
			name:    "missing file",
			tool:    DetectStutters,
			input:   map[string]any{"file_id": "nope"},
			wantErr: "Tool execution failed: File 'nope' not found in session 's1'",
		},
		{
			name:    "missing file id",
			tool:    AnalyzeCPUGPUBound,
			input:   map[string]any{},
			wantErr: "Tool execution failed: file_id is required",
		},
		{
			name:    "bad argument type",
			tool:    GetTimeSegmentStats,
			input:   map[string]any{"file_id": "f1", "segment_seconds": "ten"},
			wantErr: "Tool execution failed: segment_seconds must be a number",
		},
		{
			name:    "insufficient data",
			tool:    DetectStutters,
			input:   map[string]any{"file_id": "tiny"},
			wantErr: "Not enough frames for stutter analysis",
		},
		{
			name:  "profile",
			tool:  ProfileData,
			input: map[string]any{"file_id": "f1"},
			check: func(t *testing.T, res domain.ToolResult) {
				p := res.Value.(*stats.Profile)
				if p.Filename != "run.csv" || p.TotalRows != 600 {
					t.Errorf("unexpected profile: %+v", p)
				}
			},
		},
		{
			name:  "chart",
			tool:  ChartFPSHistogram,
			input: map[string]any{"file_id": "f1", "bins": 20.0},
			check: func(t *testing.T, res domain.ToolResult) {
				if !res.IsChart() {
					t.Fatalf("expected chart result, got %+v", res)
				}
				if res.Chart.(*charts.Figure).Data[0].NBinsX != 20 {
					t.Errorf("expected 20 bins")
				}
			},
		},
		{
			name:  "chart data error",
			tool:  ChartUtilization,
			input: map[string]any{"file_id": "f1"},
			check: func(t *testing.T, res domain.ToolResult) {
				m := encode(t, res)
				if m["type"] != "error" || m["message"] != "No utilization data available" {
					t.Errorf("unexpected chart error encoding: %v", m)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Dispatch(ctx, tt.tool, tt.input, "s1")
			if tt.wantErr != "" {
				if !res.IsError() {
					t.Fatalf("expected error result, got %+v", res)
				}
				if got := encode(t, res)["error"]; got != tt.wantErr {
					t.Errorf("expected error %q, got %q", tt.wantErr, got)
				}
				return
			}
			if res.IsError() {
				t.Fatalf("unexpected error result: %s", res.Message)
			}
			tt.check(t, res)
		})
	}
}

func TestRegistry_DispatchDoesNotMutateInput(t *testing.T) {
	r := newTestRegistry(t)
	input := map[string]any{"file_id": "f1", "threshold_multiplier": 3.0}
	r.Dispatch(context.Background(), DetectStutters, input, "s1")
	if input["file_id"] != "f1" {
		t.Error("Dispatch must not remove file_id from the caller's map")
	}
}

func TestRegistry_RecoversPanics(t *testing.T) {
	r := newTestRegistry(t)
	r.tools["boom"] = Tool{
		Schema: domain.ToolSchema{Name: "boom"},
		Run: func(context.Context, Call) (domain.ToolResult, error) {
			panic("index out of range")
		},
	}
	res := r.Dispatch(context.Background(), "boom", nil, "s1")
	if !res.IsError() || !strings.HasPrefix(res.Message, "Tool execution failed: index out of range") {
		t.Errorf("expected recovered failure, got %+v", res)
	}
}

func TestRegistry_Figure(t *testing.T) {
	r := newTestRegistry(t)
	fig, err := r.Figure(context.Background(), ChartCPUGPUBusyTimeline, Call{SessionID: "s1", FileID: "f1", Args: map[string]any{}})
	if err != nil {
		t.Fatalf("Figure failed: %v", err)
	}
	if len(fig.Data) == 0 {
		t.Error("expected traces")
	}
	if _, err := r.Figure(context.Background(), ComputeFPSStatistics, Call{SessionID: "s1", FileID: "f1"}); err == nil {
		t.Error("expected error for a non-chart tool")
	}
}

func TestCall_TimeRange(t *testing.T) {
	c := Call{Args: map[string]any{"time_range": map[string]any{"start_sec": json.Number("1.5")}}}
	w, err := c.TimeRange()
	if err != nil {
		t.Fatalf("TimeRange failed: %v", err)
	}
	if w.Start == nil || *w.Start != 1.5 || w.End != nil {
		t.Errorf("unexpected window %+v", w)
	}

	if _, err := (Call{Args: map[string]any{"time_range": "soon"}}).TimeRange(); err == nil {
		t.Error("expected error for non-object time_range")
	}
	if _, err := (Call{Args: map[string]any{"bins": 2.5}}).Int("bins", 1); err == nil {
		t.Error("expected error for fractional integer")
	}
}

func TestRegistry_CompareFiles(t *testing.T) {
	store := capture.NewStore()
	store.AddFile("s1", frames(300, 10), domain.FileInfo{FileID: "a"})
	store.AddFile("s1", frames(300, 20), domain.FileInfo{FileID: "b"})
	r := NewRegistry(store)
	ctx := context.Background()

	res := Run(ctx, r.CompareFiles, NewCall(map[string]any{
		"file_ids": []any{"a", "b"},
		"labels":   []any{"Before"},
	}, "s1"))
	if res.IsError() {
		t.Fatalf("CompareFiles failed: %s", res.Message)
	}
	report := res.Value.(*stats.CompareReport)
	if report.Files[0].Label != "Before" || report.Files[1].Label != "b" {
		t.Errorf("unexpected labels: %q, %q", report.Files[0].Label, report.Files[1].Label)
	}
	if report.Delta.AvgFPSDelta != -50 || report.Delta.AvgFPSDeltaPct != -50 {
		t.Errorf("unexpected delta: %+v", report.Delta)
	}

	tests := []struct {
		name  string
		input map[string]any
		want  string
	}{
		{"one file", map[string]any{"file_ids": []any{"a"}}, "Need at least 2 files to compare"},
		{"missing file", map[string]any{"file_ids": []any{"a", "zzz"}}, "Failed to analyze file zzz: File 'zzz' not found in session 's1'"},
		{"bad ids", map[string]any{"file_ids": "a,b"}, "Tool execution failed: file_ids must be an array of strings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Run(ctx, r.CompareFiles, NewCall(tt.input, "s1"))
			if !res.IsError() || res.Message != tt.want {
				t.Errorf("expected %q, got %+v", tt.want, res)
			}
		})
	}
}

func TestParseArgs(t *testing.T) {
	got := ParseArgs(map[string]string{
		"downsample":      "500",
		"show_frame_time": "false",
		"start_sec":       "1.5",
		"end_sec":         "9",
		"label":           "run",
	})
	want := map[string]any{
		"downsample":      500.0,
		"show_frame_time": false,
		"label":           "run",
		"time_range":      map[string]any{"start_sec": 1.5, "end_sec": 9.0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseArgs mismatch (-want +got):\n%s", diff)
	}

	c := Call{Args: got}
	if n, err := c.Int("downsample", 0); err != nil || n != 500 {
		t.Errorf("Int = %d, %v", n, err)
	}
	if w, err := c.TimeRange(); err != nil || *w.Start != 1.5 || *w.End != 9 {
		t.Errorf("TimeRange = %+v, %v", w, err)
	}
}
