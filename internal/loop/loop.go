// Package loop runs one conversation turn: it alternates between the reasoner
// and tool execution until the reasoner stops asking for tools or the
// iteration ceiling is reached, streaming events as it goes.
package loop

import (
	"context"
	"encoding/json"
	"iter"
	"log/slog"

	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/ports"
)

const (
	DefaultMaxIterations = 10
	DefaultMaxTokens     = 4096

	BudgetExceededText = "\n\n*[Analysis reached maximum iteration limit]*"
)

// chartRendered is folded back to the reasoner in place of a chart payload.
const chartRendered = `{"type":"chart","status":"chart_rendered"}`

// Capabilities is what the loop needs from a capability set.
type Capabilities interface {
	SystemPrompt() string
	Tools() []domain.ToolSchema
	Execute(ctx context.Context, name string, input map[string]any, sessionID string) domain.ToolResult
}

type Loop struct {
	reasoner      ports.Reasoner
	maxIterations int
	maxTokens     int
	logger        *slog.Logger
}

type Option func(*Loop)

func WithMaxIterations(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxIterations = n
		}
	}
}

func WithMaxTokens(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxTokens = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func New(reasoner ports.Reasoner, opts ...Option) *Loop {
	l := &Loop{
		reasoner:      reasoner,
		maxIterations: DefaultMaxIterations,
		maxTokens:     DefaultMaxTokens,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run returns the event sequence of one turn. Consuming it drives the turn;
// it must be consumed at most once. Turns appended to conv are the raw
// reasoner content followed by the tool results of each iteration.
func (l *Loop) Run(ctx context.Context, caps Capabilities, conv *domain.Conversation, sessionID string) iter.Seq[domain.Event] {
	return func(yield func(domain.Event) bool) {
		usage := domain.TokenUsage{Model: l.reasoner.Model()}
		schemas := caps.Tools()

		for i := 1; i <= l.maxIterations; i++ {
			if err := ctx.Err(); err != nil {
				yield(domain.Event{Type: domain.EventError, Err: err.Error(), State: domain.StateFailed})
				return
			}

			resp, err := l.reasoner.Respond(ctx, ports.ReasoningRequest{
				SessionID: sessionID,
				System:    caps.SystemPrompt(),
				Tools:     schemas,
				Messages:  conv.Turns(),
				MaxTokens: l.maxTokens,
			})
			if err != nil {
				l.logger.Error("reasoner failed", "session", sessionID, "iteration", i, "error", err)
				yield(domain.Event{Type: domain.EventError, Err: err.Error(), State: domain.StateFailed})
				return
			}

			usage.InputTokens += resp.Usage.InputTokens
			usage.OutputTokens += resp.Usage.OutputTokens
			if resp.Usage.Model != "" {
				usage.Model = resp.Usage.Model
			}

			assistant := domain.Turn{Role: domain.RoleAssistant, Blocks: resp.Content}
			if text := assistant.Text(); text != "" {
				if !yield(domain.Event{Type: domain.EventText, Text: text}) {
					return
				}
			}

			calls := assistant.ToolCalls()
			if len(calls) == 0 {
				conv.Append(assistant)
				if !yield(usageEvent(usage)) {
					return
				}
				yield(domain.Event{Type: domain.EventDone, State: domain.StateDone, Iterations: i})
				return
			}

			l.logger.Debug("executing tools", "session", sessionID, "iteration", i, "count", len(calls))
			results := make([]domain.ContentBlock, 0, len(calls))
			for _, call := range calls {
				if !yield(domain.Event{Type: domain.EventToolStart, ToolName: call.Name, ToolUseID: call.ID}) {
					return
				}

				res := caps.Execute(ctx, call.Name, call.Input, sessionID)
				if res.IsError() {
					l.logger.Warn("tool returned error", "session", sessionID, "tool", call.Name, "error", res.Message)
				}
				results = append(results, domain.ContentBlock{
					Type:      domain.BlockToolResult,
					ToolUseID: call.ID,
					Content:   foldBack(res),
					IsError:   res.IsError(),
				})

				if !yield(domain.Event{Type: domain.EventToolEnd, ToolName: call.Name, ToolUseID: call.ID, IsError: res.IsError()}) {
					return
				}
				if res.IsChart() {
					if !yield(domain.Event{Type: domain.EventChart, ToolName: call.Name, ToolUseID: call.ID, Chart: res.Chart}) {
						return
					}
				}
			}

			conv.Append(assistant, domain.Turn{Role: domain.RoleUser, Blocks: results})
		}

		l.logger.Warn("iteration ceiling reached", "session", sessionID, "max_iterations", l.maxIterations)
		if !yield(usageEvent(usage)) {
			return
		}
		if !yield(domain.Event{Type: domain.EventText, Text: BudgetExceededText}) {
			return
		}
		yield(domain.Event{Type: domain.EventDone, State: domain.StateDoneBudgetExceeded, Iterations: l.maxIterations})
	}
}

func usageEvent(u domain.TokenUsage) domain.Event {
	return domain.Event{Type: domain.EventTokenUsage, Usage: &u}
}

// foldBack is the tool result text the reasoner sees on the next iteration.
func foldBack(res domain.ToolResult) string {
	if res.IsChart() {
		return chartRendered
	}
	b, err := json.Marshal(res)
	if err != nil {
		b, _ = json.Marshal(domain.Failure("failed to encode tool result: %v", err))
	}
	return string(b)
}
