package domain

type EventType string

const (
	EventText       EventType = "text"
	EventToolStart  EventType = "tool_start"
	EventToolEnd    EventType = "tool_end"
	EventChart      EventType = "chart"
	EventTokenUsage EventType = "token_usage"
	EventError      EventType = "error"
	EventDone       EventType = "done"
)

// LoopState is the state of the tool-dispatch loop.
type LoopState string

const (
	StateAwaitingReasoning  LoopState = "awaiting_reasoning"
	StateExecutingTools     LoopState = "executing_tools"
	StateDone               LoopState = "done"
	StateDoneBudgetExceeded LoopState = "done_budget_exceeded"
	StateFailed             LoopState = "failed"
)

// TokenUsage is a cumulative token count for one turn.
type TokenUsage struct {
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
	Model        string `json:"model"`
}

// Total returns input plus output tokens.
func (u TokenUsage) Total() int64 { return u.InputTokens + u.OutputTokens }

// Event is one output of a conversation turn.
type Event struct {
	Type      EventType   `json:"type"`
	Text      string      `json:"content,omitempty"`
	ToolName  string      `json:"tool_name,omitempty"`
	ToolUseID string      `json:"tool_use_id,omitempty"`
	IsError   bool        `json:"is_error,omitempty"`
	Chart     any         `json:"data,omitempty"`
	Usage     *TokenUsage `json:"token_usage,omitempty"`
	State     LoopState   `json:"state,omitempty"`
	Err       string      `json:"error,omitempty"`

	// Set on done events.
	Iterations int `json:"iterations,omitempty"`
}
