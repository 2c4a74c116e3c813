package domain

import "strings"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// ContentBlock is one piece of a turn: text, a tool-use request from the
// assistant, or a tool result sent back by the user side.
type ContentBlock struct {
	Type BlockType `json:"type"`
	Text string    `json:"text,omitempty"`

	// tool_use
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// TextBlock returns a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// Turn is one message in a conversation.
type Turn struct {
	Role   Role           `json:"role"`
	Blocks []ContentBlock `json:"content"`
}

// TextTurn builds a turn with a single text block.
func TextTurn(role Role, text string) Turn {
	return Turn{Role: role, Blocks: []ContentBlock{TextBlock(text)}}
}

// Text joins the text blocks of the turn.
func (t Turn) Text() string {
	var parts []string
	for _, b := range t.Blocks {
		if b.Type == BlockText {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// IsPlainText reports whether the turn carries only text.
func (t Turn) IsPlainText() bool {
	for _, b := range t.Blocks {
		if b.Type != BlockText {
			return false
		}
	}
	return true
}

// ToolCalls returns the tool-use blocks of the turn in order.
func (t Turn) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, b := range t.Blocks {
		if b.Type == BlockToolUse {
			calls = append(calls, ToolCall{ID: b.ID, Name: b.Name, Input: b.Input})
		}
	}
	return calls
}

// Conversation is an append-only sequence of turns.
type Conversation struct {
	turns []Turn
}

// NewConversation seeds a conversation with existing turns.
func NewConversation(turns ...Turn) *Conversation {
	c := &Conversation{turns: make([]Turn, 0, len(turns))}
	c.turns = append(c.turns, turns...)
	return c
}

// Append adds turns at the end.
func (c *Conversation) Append(turns ...Turn) {
	c.turns = append(c.turns, turns...)
}

// Turns returns a copy of the turns.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of turns.
func (c *Conversation) Len() int { return len(c.turns) }

// LastUserText returns the text of the most recent plain-text user turn.
func (c *Conversation) LastUserText() string {
	for i := len(c.turns) - 1; i >= 0; i-- {
		t := c.turns[i]
		if t.Role != RoleUser {
			continue
		}
		if text := t.Text(); text != "" {
			return text
		}
		return ""
	}
	return ""
}

// ToolCall is a structured tool invocation requested by the reasoner.
type ToolCall struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}
