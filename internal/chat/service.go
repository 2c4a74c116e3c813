// Package chat runs user questions against a session's captures: it routes
// the message to a capability set, drives the tool-dispatch loop, keeps the
// visible history and records usage.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/emiliopalmerini/framescope/internal/agents"
	"github.com/emiliopalmerini/framescope/internal/capture"
	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/loop"
	"github.com/emiliopalmerini/framescope/internal/ports"
)

const (
	// HistoryWindow is how many history messages are replayed to the reasoner.
	HistoryWindow = 20

	contextAck = "Understood. I have access to the files listed above. How can I help you analyze the performance data?"
	noFiles    = "No files have been uploaded to this session yet."
)

// ErrEmptyMessage is returned for blank user messages.
var ErrEmptyMessage = errors.New("Empty message")

// Reply is the outcome of one turn.
type Reply struct {
	TurnID        string             `json:"turn_id"`
	CapabilitySet string             `json:"capability_set"`
	Text          string             `json:"text"`
	Charts        []any              `json:"charts,omitempty"`
	Usage         *domain.TokenUsage `json:"token_usage,omitempty"`
	State         domain.LoopState   `json:"state"`
	Iterations    int                `json:"iterations"`
	Tools         []string           `json:"tools,omitempty"`
	Err           string             `json:"error,omitempty"`
}

// Failed reports whether the turn ended on a reasoner failure.
func (r *Reply) Failed() bool { return r.State == domain.StateFailed }

type Service struct {
	store   *capture.Store
	router  *agents.Router
	loop    *loop.Loop
	turns   ports.TurnRepository
	pricing ports.PricingRepository
	metrics ports.MetricsExporter
	logger  *slog.Logger
	now     func() time.Time
}

// Deps are the collaborators of the chat service. Turns, Pricing and Metrics
// are optional.
type Deps struct {
	Store   *capture.Store
	Router  *agents.Router
	Loop    *loop.Loop
	Turns   ports.TurnRepository
	Pricing ports.PricingRepository
	Metrics ports.MetricsExporter
	Logger  *slog.Logger
}

func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   d.Store,
		router:  d.Router,
		loop:    d.Loop,
		turns:   d.Turns,
		pricing: d.Pricing,
		metrics: d.Metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Ask runs a turn and returns only the outcome.
func (s *Service) Ask(ctx context.Context, sessionID, msg string) (*Reply, error) {
	return s.Stream(ctx, sessionID, msg, nil)
}

// Stream runs a turn, passing every loop event to onEvent as it happens. A
// reasoner failure is not an error: the reply then carries the readable
// "An error occurred" text and the failed state.
func (s *Service) Stream(ctx context.Context, sessionID, msg string, onEvent func(domain.Event)) (*Reply, error) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return nil, ErrEmptyMessage
	}

	s.store.GetOrCreate(sessionID)
	start := s.now()
	if err := s.store.AppendHistory(sessionID, capture.ChatMessage{Role: domain.RoleUser, Content: msg, Timestamp: start}); err != nil {
		return nil, fmt.Errorf("failed to record message: %w", err)
	}

	set := s.router.Route(msg)
	conv, err := s.conversation(sessionID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("chat turn started", "session", sessionID, "capability_set", set.Name())

	reply := &Reply{TurnID: uuid.NewString(), CapabilitySet: set.Name()}
	var text strings.Builder
	var invocations []domain.ToolInvocation

	for e := range s.loop.Run(ctx, set, conv, sessionID) {
		switch e.Type {
		case domain.EventText:
			text.WriteString(e.Text)
		case domain.EventChart:
			reply.Charts = append(reply.Charts, e.Chart)
		case domain.EventToolStart:
			reply.Tools = append(reply.Tools, e.ToolName)
		case domain.EventToolEnd:
			invocations = append(invocations, domain.ToolInvocation{TurnID: reply.TurnID, ToolName: e.ToolName, IsError: e.IsError})
		case domain.EventTokenUsage:
			reply.Usage = e.Usage
		case domain.EventError:
			reply.State = domain.StateFailed
			reply.Err = e.Err
		case domain.EventDone:
			reply.State = e.State
			reply.Iterations = e.Iterations
		}
		if onEvent != nil {
			onEvent(e)
		}
	}

	if reply.Failed() {
		reply.Text = "An error occurred: " + reply.Err
		s.logger.Error("chat turn failed", "session", sessionID, "error", reply.Err)
	} else {
		reply.Text = text.String()
		if err := s.store.AppendHistory(sessionID, capture.ChatMessage{
			Role:      domain.RoleAssistant,
			Content:   reply.Text,
			Charts:    reply.Charts,
			Timestamp: s.now(),
		}); err != nil {
			s.logger.Warn("failed to record reply", "session", sessionID, "error", err)
		}
	}

	s.record(ctx, sessionID, msg, reply, invocations, s.now().Sub(start))
	return reply, nil
}

// conversation builds the reasoner's view: a context message listing the
// session's files, a fixed acknowledgement, then recent history.
func (s *Service) conversation(sessionID string) (*domain.Conversation, error) {
	files, err := s.store.Files(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	history, err := s.store.History(sessionID, HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	conv := domain.NewConversation(
		domain.TextTurn(domain.RoleUser, "[Session context]\n"+ContextMessage(files)),
		domain.TextTurn(domain.RoleAssistant, contextAck),
	)
	for _, m := range history {
		conv.Append(domain.TextTurn(m.Role, m.Content))
	}
	return conv, nil
}

var printer = message.NewPrinter(language.English)

// ContextMessage describes the files available in a session.
func ContextMessage(files []domain.FileInfo) string {
	if len(files) == 0 {
		return noFiles
	}
	lines := []string{"Available files in this session:"}
	for _, f := range files {
		lines = append(lines, printer.Sprintf("- file_id: %q | %s | %s | %d rows | %ss | Source: %s",
			f.FileID, f.OriginalName, f.Application, f.RowCount,
			strconv.FormatFloat(f.DurationSeconds, 'f', -1, 64), f.SourceTool))
	}
	return strings.Join(lines, "\n")
}

// record writes the turn to the usage ledger and exports its metrics.
// Failures are logged: usage accounting never fails a turn.
func (s *Service) record(ctx context.Context, sessionID, question string, reply *Reply, invocations []domain.ToolInvocation, elapsed time.Duration) {
	usage := domain.TokenUsage{}
	if reply.Usage != nil {
		usage = *reply.Usage
	}

	var toolErrors int64
	for _, inv := range invocations {
		if inv.IsError {
			toolErrors++
		}
	}

	cost := s.cost(ctx, usage)
	endedAt := s.now()

	if s.turns != nil {
		turn := &domain.TurnRecord{
			ID:            reply.TurnID,
			SessionID:     sessionID,
			CapabilitySet: reply.CapabilitySet,
			Model:         usage.Model,
			Question:      question,
			TokenInput:    usage.InputTokens,
			TokenOutput:   usage.OutputTokens,
			ToolCalls:     int64(len(invocations)),
			ToolErrors:    toolErrors,
			ChartCount:    int64(len(reply.Charts)),
			Iterations:    int64(reply.Iterations),
			FinalState:    reply.State,
			CostUSD:       cost,
			DurationMs:    elapsed.Milliseconds(),
			CreatedAt:     endedAt,
		}
		if err := s.turns.Create(ctx, turn, invocations); err != nil {
			s.logger.Warn("failed to record turn", "turn", reply.TurnID, "error", err)
		}
	}

	if s.metrics != nil {
		m := &ports.TurnMetrics{
			SessionID:       sessionID,
			CapabilitySet:   reply.CapabilitySet,
			Model:           usage.Model,
			TokenInput:      usage.InputTokens,
			TokenOutput:     usage.OutputTokens,
			CostEstimateUSD: cost,
			Iterations:      int64(reply.Iterations),
			ToolNames:       reply.Tools,
			ToolErrors:      toolErrors,
			FinalState:      string(reply.State),
			Duration:        elapsed,
			EndedAt:         endedAt,
		}
		if err := s.metrics.ExportTurnMetrics(ctx, m); err != nil {
			s.logger.Warn("failed to export turn metrics", "turn", reply.TurnID, "error", err)
		}
	}
}

func (s *Service) cost(ctx context.Context, usage domain.TokenUsage) float64 {
	if s.pricing == nil {
		p := domain.PricingFor(usage.Model)
		return p.CalculateCost(usage)
	}
	p, err := s.pricing.Resolve(ctx, usage.Model)
	if err != nil {
		s.logger.Warn("failed to resolve pricing", "model", usage.Model, "error", err)
		p = domain.PricingFor(usage.Model)
	}
	return p.CalculateCost(usage)
}
