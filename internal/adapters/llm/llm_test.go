package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/emiliopalmerini/framescope/internal/capture"
	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/ports"
	"github.com/emiliopalmerini/framescope/internal/stats"
	"github.com/emiliopalmerini/framescope/internal/tools"
)

func testOptions(url string) Options {
	return Options{
		APIKey:        "k",
		BaseURL:       url,
		Model:         "test-model",
		MaxRetries:    2,
		RetryInterval: time.Millisecond,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func conversation() []domain.Turn {
	return []domain.Turn{
		domain.TextTurn(domain.RoleUser, "what is my fps?"),
		{Role: domain.RoleAssistant, Blocks: []domain.ContentBlock{
			{Type: domain.BlockToolUse, ID: "t1", Name: "compute_fps_statistics", Input: map[string]any{"file_id": "f1"}},
		}},
		{Role: domain.RoleUser, Blocks: []domain.ContentBlock{
			{Type: domain.BlockToolResult, ToolUseID: "t1", Content: `{"fps":{"average":60}}`},
		}},
	}
}

func TestAnthropic_Respond(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "k" || r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		io.WriteString(w, `{
			"model": "test-model",
			"stop_reason": "tool_use",
			"content": [
				{"type": "text", "text": "Checking."},
				{"type": "tool_use", "id": "t2", "name": "detect_stutters", "input": {"file_id": "f1"}}
			],
			"usage": {"input_tokens": 120, "output_tokens": 30}
		}`)
	}))
	defer srv.Close()

	a := NewAnthropic(testOptions(srv.URL))
	resp, err := a.Respond(context.Background(), ports.ReasoningRequest{
		System:    "sys",
		Messages:  conversation(),
		Tools:     []domain.ToolSchema{{Name: "detect_stutters", InputSchema: domain.ObjectSchema(nil, "file_id")}},
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}

	want := []domain.ContentBlock{
		domain.TextBlock("Checking."),
		{Type: domain.BlockToolUse, ID: "t2", Name: "detect_stutters", Input: map[string]any{"file_id": "f1"}},
	}
	if diff := cmp.Diff(want, resp.Content); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
	if resp.Usage.InputTokens != 120 || resp.Usage.OutputTokens != 30 || resp.Usage.Model != "test-model" {
		t.Errorf("unexpected usage %+v", resp.Usage)
	}

	if got["system"] != "sys" || got["max_tokens"] != 256.0 {
		t.Errorf("unexpected request body %v", got)
	}
	msgs := got["messages"].([]any)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	result := msgs[2].(map[string]any)["content"].([]any)[0].(map[string]any)
	if result["type"] != "tool_result" || result["tool_use_id"] != "t1" {
		t.Errorf("unexpected tool result block %v", result)
	}
}

func TestAnthropic_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"content":[{"type":"text","text":"ok"}],"usage":{"input_tokens":1,"output_tokens":1}}`)
	}))
	defer srv.Close()

	resp, err := NewAnthropic(testOptions(srv.URL)).Respond(context.Background(), ports.ReasoningRequest{Messages: conversation()[:1]})
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", calls.Load())
	}
	if resp.Content[0].Text != "ok" {
		t.Errorf("unexpected content %+v", resp.Content)
	}
}

func TestAnthropic_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"bad key"}`)
	}))
	defer srv.Close()

	_, err := NewAnthropic(testOptions(srv.URL)).Respond(context.Background(), ports.ReasoningRequest{Messages: conversation()[:1]})
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 StatusError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("client errors must not be retried, got %d attempts", calls.Load())
	}
}

func TestOpenAI_Respond(t *testing.T) {
	var got openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		io.WriteString(w, `{
			"model": "test-model",
			"choices": [{
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{"id": "c1", "type": "function", "function": {"name": "analyze_throttling", "arguments": "{\"file_id\":\"f1\"}"}}]
				}
			}],
			"usage": {"prompt_tokens": 50, "completion_tokens": 9}
		}`)
	}))
	defer srv.Close()

	resp, err := NewOpenAI(testOptions(srv.URL)).Respond(context.Background(), ports.ReasoningRequest{
		System:   "sys",
		Messages: conversation(),
		Tools:    []domain.ToolSchema{{Name: "analyze_throttling", Description: "d", InputSchema: domain.ObjectSchema(nil, "file_id")}},
	})
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}

	want := []domain.ContentBlock{{Type: domain.BlockToolUse, ID: "c1", Name: "analyze_throttling", Input: map[string]any{"file_id": "f1"}}}
	if diff := cmp.Diff(want, resp.Content); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
	if resp.Usage.InputTokens != 50 || resp.Usage.OutputTokens != 9 {
		t.Errorf("unexpected usage %+v", resp.Usage)
	}

	roles := make([]string, len(got.Messages))
	for i, m := range got.Messages {
		roles[i] = m.Role
	}
	if diff := cmp.Diff([]string{"system", "user", "assistant", "tool"}, roles); diff != "" {
		t.Errorf("roles mismatch (-want +got):\n%s", diff)
	}
	if got.Messages[2].ToolCalls[0].Function.Arguments != `{"file_id":"f1"}` {
		t.Errorf("unexpected arguments %q", got.Messages[2].ToolCalls[0].Function.Arguments)
	}
	if got.Messages[3].ToolCallID != "t1" {
		t.Errorf("unexpected tool call id %q", got.Messages[3].ToolCallID)
	}
	if got.Tools[0].Type != "function" || got.Tools[0].Function.Name != "analyze_throttling" {
		t.Errorf("unexpected tool %+v", got.Tools[0])
	}
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"model":"m","choices":[]}`)
	}))
	defer srv.Close()

	_, err := NewOpenAI(testOptions(srv.URL)).Respond(context.Background(), ports.ReasoningRequest{})
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Errorf("expected no choices error, got %v", err)
	}
}

func TestChooseTool(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"show me a histogram", tools.ChartFPSHistogram},
		{"plot cpu busy", tools.ChartCPUGPUBusyTimeline},
		{"gpu utilization over time", tools.ChartUtilization},
		{"what about temperature", tools.ChartGPUPowerThermal},
		{"draw it", tools.ChartFrameTimeTimeline},
		{"show fps please", tools.ChartFrameTimeTimeline},
		{"gpubusy numbers", tools.ComputeCPUGPUBusyStats},
		{"any stutters?", tools.DetectStutters},
		{"am i cpu or gpu limited", tools.AnalyzeCPUGPUBound},
		{"is it throttling", tools.AnalyzeThrottling},
		{"input lag?", tools.ComputeLatencyStats},
		{"give me an overview", tools.ProfileData},
		{"how fast is it", tools.ComputeFPSStatistics},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := chooseTool(tt.text); got != tt.want {
				t.Errorf("chooseTool(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func mockStore() *capture.Store {
	n := 200
	ts := make([]float64, n)
	ft := make([]float64, n)
	for i := range ts {
		ts[i] = float64(i) * 0.01
		ft[i] = 10
	}
	store := capture.NewStore()
	store.AddFile("s1", domain.NewTable([]*domain.Column{
		{Name: stats.ColCPUStartTime, Kind: domain.KindNumeric, Num: ts},
		{Name: stats.ColFrameTime, Kind: domain.KindNumeric, Num: ft},
	}), domain.FileInfo{FileID: "f1", OriginalName: "run.csv"})
	return store
}

func TestMock_ToolThenSummary(t *testing.T) {
	store := mockStore()
	m := NewMock(store)
	reg := tools.NewRegistry(store)
	ctx := context.Background()

	turns := []domain.Turn{domain.TextTurn(domain.RoleUser, "What is the average FPS?")}
	resp, err := m.Respond(ctx, ports.ReasoningRequest{SessionID: "s1", Messages: turns})
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	calls := domain.Turn{Role: domain.RoleAssistant, Blocks: resp.Content}.ToolCalls()
	if len(calls) != 1 || calls[0].Name != tools.ComputeFPSStatistics || calls[0].Input["file_id"] != "f1" {
		t.Fatalf("unexpected tool calls %+v", calls)
	}
	if resp.Usage.Total() != 0 || resp.Usage.Model != MockModel {
		t.Errorf("mock must spend no tokens, got %+v", resp.Usage)
	}

	res := reg.Dispatch(ctx, calls[0].Name, calls[0].Input, "s1")
	content, _ := json.Marshal(res)
	turns = append(turns,
		domain.Turn{Role: domain.RoleAssistant, Blocks: resp.Content},
		domain.Turn{Role: domain.RoleUser, Blocks: []domain.ContentBlock{{Type: domain.BlockToolResult, ToolUseID: calls[0].ID, Content: string(content)}}},
	)

	resp, err = m.Respond(ctx, ports.ReasoningRequest{SessionID: "s1", Messages: turns})
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	text := domain.Turn{Role: domain.RoleAssistant, Blocks: resp.Content}.Text()
	for _, want := range []string{"## FPS Statistics", "| Average FPS | 100 |", "(200 frames)"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
}

func TestMock_NoFiles(t *testing.T) {
	m := NewMock(capture.NewStore())
	resp, err := m.Respond(context.Background(), ports.ReasoningRequest{
		SessionID: "empty",
		Messages:  []domain.Turn{domain.TextTurn(domain.RoleUser, "fps?")},
	})
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if resp.Content[0].Text != noFilesText {
		t.Errorf("unexpected reply %q", resp.Content[0].Text)
	}
}

func TestFormatResult(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		content string
		want    []string
	}{
		{"error", tools.DetectStutters, `{"error":"Not enough frames for stutter analysis"}`, []string{"Error: Not enough frames for stutter analysis"}},
		{"chart", tools.ChartFPSHistogram, `{"type":"chart","status":"chart_rendered"}`, []string{"Here's the chart:"}},
		{"chart error", tools.ChartUtilization, `{"type":"error","message":"No utilization data available"}`, []string{"Could not generate chart: No utilization data available"}},
		{
			"throttling",
			tools.AnalyzeThrottling,
			`{"any_throttling_detected":true,"Power Limited":{"throttled_frames":1500,"total_frames":3000,"percentage":50}}`,
			[]string{"| Power Limited | 1,500 | 50% |"},
		},
		{"no throttling", tools.AnalyzeThrottling, `{"any_throttling_detected":false}`, []string{"No throttling detected"}},
		{
			"latency",
			tools.ComputeLatencyStats,
			`{"display_latency_ms":{"average":20,"median":19,"p99":30},"click_to_photon_ms":"all_na","input_to_photon_ms":"not_available"}`,
			[]string{"**Display Latency Ms:** avg 20ms", "**Click To Photon Ms:** No data available (all NA)", "**Input To Photon Ms:** Column not present"},
		},
		{
			"bound",
			tools.AnalyzeCPUGPUBound,
			`{"overall_bottleneck":"GPU-bound","cpu_bound_frames":10,"gpu_bound_frames":12000,"cpu_bound_percentage":0.1,"gpu_bound_percentage":99.9,"avg_cpu_busy_ms":3,"avg_gpu_busy_ms":9.5}`,
			[]string{"**Overall:** GPU-bound", "| GPU-bound frames | 12,000 (99.9%) |"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatResult(tt.tool, tt.content)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("missing %q in:\n%s", w, got)
				}
			}
		})
	}
}

type stubReasoner struct {
	model string
	calls int
}

func (s *stubReasoner) Respond(context.Context, ports.ReasoningRequest) (*ports.ReasoningResponse, error) {
	s.calls++
	return &ports.ReasoningResponse{Usage: domain.TokenUsage{Model: s.model}}, nil
}

func (s *stubReasoner) Model() string { return s.model }

func TestHybrid_Routes(t *testing.T) {
	mock := &stubReasoner{model: "mock"}
	remote := &stubReasoner{model: "remote"}
	h := NewHybrid(mock, remote)
	ctx := context.Background()

	h.Respond(ctx, ports.ReasoningRequest{Messages: []domain.Turn{domain.TextTurn(domain.RoleUser, "Any stutters?")}})
	h.Respond(ctx, ports.ReasoningRequest{Messages: []domain.Turn{domain.TextTurn(domain.RoleUser, "Tell me a joke")}})

	// Tool-result turns keep following the question that started the turn.
	h.Respond(ctx, ports.ReasoningRequest{Messages: append(conversation()[:1], conversation()[1:]...)})

	if mock.calls != 2 || remote.calls != 1 {
		t.Errorf("expected 2 mock and 1 remote calls, got %d and %d", mock.calls, remote.calls)
	}
	if h.Model() != "remote" {
		t.Errorf("hybrid reports the remote model, got %q", h.Model())
	}
}

func TestNew(t *testing.T) {
	store := capture.NewStore()

	r, mode, err := New(true, "", Options{}, store)
	if err != nil || mode != ModeMock {
		t.Fatalf("expected mock mode, got %q, %v", mode, err)
	}
	if _, ok := r.(*Mock); !ok {
		t.Errorf("expected *Mock, got %T", r)
	}

	if _, _, err := New(false, ProviderAnthropic, Options{}, store); err == nil {
		t.Error("expected error without an API key")
	}
	if _, _, err := New(false, "gemini", Options{APIKey: "k"}, store); err == nil {
		t.Error("expected error for an unknown provider")
	}

	r, mode, err = New(false, ProviderOpenAI, Options{APIKey: "k", Model: "gpt"}, store)
	if err != nil || mode != ModeHybrid || r.Model() != "gpt" {
		t.Errorf("expected hybrid with gpt, got %q %v %v", mode, r, err)
	}
}
