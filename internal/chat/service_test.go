package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/emiliopalmerini/framescope/internal/adapters/llm"
	"github.com/emiliopalmerini/framescope/internal/agents"
	"github.com/emiliopalmerini/framescope/internal/capture"
	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/loop"
	"github.com/emiliopalmerini/framescope/internal/ports"
	"github.com/emiliopalmerini/framescope/internal/stats"
	"github.com/emiliopalmerini/framescope/internal/tools"
)

type fakeTurns struct {
	mu    sync.Mutex
	turns []*domain.TurnRecord
	tools [][]domain.ToolInvocation
}

func (f *fakeTurns) Create(_ context.Context, turn *domain.TurnRecord, tools []domain.ToolInvocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, turn)
	f.tools = append(f.tools, tools)
	return nil
}

func (f *fakeTurns) ListRecent(context.Context, ports.ListTurnsOptions) ([]*domain.TurnRecord, error) {
	return f.turns, nil
}

func (f *fakeTurns) GetAggregate(context.Context, string) (*domain.AggregateUsage, error) {
	return &domain.AggregateUsage{}, nil
}

func (f *fakeTurns) GetAggregateByCapability(context.Context, string) ([]domain.CapabilityUsage, error) {
	return nil, nil
}

func (f *fakeTurns) GetTopTools(context.Context, string, int) ([]domain.ToolUsageStats, error) {
	return nil, nil
}

func (f *fakeTurns) DeleteBefore(context.Context, string) (int64, error) { return 0, nil }

type fakeMetrics struct {
	exported []*ports.TurnMetrics
}

func (f *fakeMetrics) ExportTurnMetrics(_ context.Context, m *ports.TurnMetrics) error {
	f.exported = append(f.exported, m)
	return nil
}

func (f *fakeMetrics) Close(context.Context) error { return nil }

type failingReasoner struct{}

func (failingReasoner) Respond(context.Context, ports.ReasoningRequest) (*ports.ReasoningResponse, error) {
	return nil, errors.New("upstream unavailable")
}

func (failingReasoner) Model() string { return "broken" }

// recordingReasoner captures the conversation it was given and answers with text.
type recordingReasoner struct {
	got []domain.Turn
}

func (r *recordingReasoner) Respond(_ context.Context, req ports.ReasoningRequest) (*ports.ReasoningResponse, error) {
	r.got = req.Messages
	return &ports.ReasoningResponse{
		Content: []domain.ContentBlock{domain.TextBlock("ok")},
		Usage:   domain.TokenUsage{InputTokens: 1000, OutputTokens: 100, Model: "claude-sonnet-4-20250514"},
	}, nil
}

func (r *recordingReasoner) Model() string { return "claude-sonnet-4-20250514" }

func captureStore() *capture.Store {
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
	}), domain.FileInfo{
		FileID:          "f1",
		OriginalName:    "run.csv",
		Application:     "game.exe",
		SourceTool:      "PresentMon",
		RowCount:        200,
		DurationSeconds: 1.99,
	})
	return store
}

func newService(store *capture.Store, reasoner ports.Reasoner, turns ports.TurnRepository, metrics ports.MetricsExporter) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := tools.NewRegistry(store)
	return NewService(Deps{
		Store:   store,
		Router:  agents.NewRouter(agents.NewCatalog(reg)),
		Loop:    loop.New(reasoner, loop.WithLogger(logger)),
		Turns:   turns,
		Metrics: metrics,
		Logger:  logger,
	})
}

func TestContextMessage(t *testing.T) {
	if got := ContextMessage(nil); got != noFiles {
		t.Errorf("empty context = %q", got)
	}

	got := ContextMessage([]domain.FileInfo{{
		FileID: "ab12", OriginalName: "run.csv", Application: "game.exe",
		RowCount: 12345, DurationSeconds: 61.5, SourceTool: "PresentMon",
	}})
	want := "Available files in this session:\n" +
		`- file_id: "ab12" | run.csv | game.exe | 12,345 rows | 61.5s | Source: PresentMon`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("context mismatch (-want +got):\n%s", diff)
	}
}

func TestService_EmptyMessage(t *testing.T) {
	s := newService(capture.NewStore(), &recordingReasoner{}, nil, nil)
	if _, err := s.Ask(context.Background(), "s1", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestService_MockTurn(t *testing.T) {
	store := captureStore()
	turns := &fakeTurns{}
	metrics := &fakeMetrics{}
	s := newService(store, llm.NewMock(store), turns, metrics)

	var events []domain.EventType
	reply, err := s.Stream(context.Background(), "s1", "What is the average FPS?", func(e domain.Event) {
		events = append(events, e.Type)
	})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	if reply.CapabilitySet != agents.PerformanceName {
		t.Errorf("expected performance set, got %q", reply.CapabilitySet)
	}
	if reply.State != domain.StateDone || reply.Iterations != 2 {
		t.Errorf("unexpected end state %s after %d iterations", reply.State, reply.Iterations)
	}
	if !strings.Contains(reply.Text, "| Average FPS | 100 |") {
		t.Errorf("reply missing fps table:\n%s", reply.Text)
	}
	if diff := cmp.Diff([]string{tools.ComputeFPSStatistics}, reply.Tools); diff != "" {
		t.Errorf("tools mismatch (-want +got):\n%s", diff)
	}

	wantEvents := []domain.EventType{
		domain.EventToolStart, domain.EventToolEnd,
		domain.EventText, domain.EventTokenUsage, domain.EventDone,
	}
	if diff := cmp.Diff(wantEvents, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	history, _ := store.History("s1", 0)
	if len(history) != 2 || history[0].Role != domain.RoleUser || history[1].Content != reply.Text {
		t.Errorf("unexpected history %+v", history)
	}

	if len(turns.turns) != 1 {
		t.Fatalf("expected one recorded turn, got %d", len(turns.turns))
	}
	rec := turns.turns[0]
	if rec.Question != "What is the average FPS?" || rec.ToolCalls != 1 || rec.CostUSD != 0 || rec.Model != llm.MockModel {
		t.Errorf("unexpected turn record %+v", rec)
	}
	if len(metrics.exported) != 1 || metrics.exported[0].FinalState != string(domain.StateDone) {
		t.Errorf("unexpected exported metrics %+v", metrics.exported)
	}
}

func TestService_ReasonerFailure(t *testing.T) {
	store := captureStore()
	turns := &fakeTurns{}
	s := newService(store, failingReasoner{}, turns, nil)

	reply, err := s.Ask(context.Background(), "s1", "explain vsync")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if !reply.Failed() || !strings.HasPrefix(reply.Text, "An error occurred: ") {
		t.Errorf("unexpected reply %+v", reply)
	}

	history, _ := store.History("s1", 0)
	if len(history) != 1 {
		t.Errorf("failed turns keep only the user message, got %d entries", len(history))
	}
	if len(turns.turns) != 1 || turns.turns[0].FinalState != domain.StateFailed {
		t.Errorf("failed turn not recorded: %+v", turns.turns)
	}
}

func TestService_ConversationWindow(t *testing.T) {
	store := captureStore()
	for i := 0; i < 30; i++ {
		if err := store.AppendHistory("s1", capture.ChatMessage{Role: domain.RoleUser, Content: "old"}); err != nil {
			t.Fatal(err)
		}
	}
	r := &recordingReasoner{}
	s := newService(store, r, nil, nil)

	reply, err := s.Ask(context.Background(), "s1", "hello")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if reply.Text != "ok" {
		t.Errorf("unexpected reply %q", reply.Text)
	}

	if len(r.got) != 2+HistoryWindow {
		t.Fatalf("expected %d turns, got %d", 2+HistoryWindow, len(r.got))
	}
	if !strings.HasPrefix(r.got[0].Text(), "[Session context]\nAvailable files in this session:") {
		t.Errorf("unexpected context turn %q", r.got[0].Text())
	}
	if r.got[1].Text() != contextAck {
		t.Errorf("unexpected acknowledgement %q", r.got[1].Text())
	}
	if last := r.got[len(r.got)-1].Text(); last != "hello" {
		t.Errorf("last turn = %q, want the new question", last)
	}
}

func TestService_CostFromDefaultPricing(t *testing.T) {
	store := captureStore()
	turns := &fakeTurns{}
	s := newService(store, &recordingReasoner{}, turns, nil)

	if _, err := s.Ask(context.Background(), "s1", "hello"); err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	// 1000 input at $3/M plus 100 output at $15/M.
	want := 0.003 + 0.0015
	if got := turns.turns[0].CostUSD; got < want-1e-9 || got > want+1e-9 {
		t.Errorf("cost = %v, want %v", got, want)
	}
}
